// Package hash turns a candidate function body into a fuzzy signature that
// stays stable across rebuilds: instructions with addresses baked into
// their encoding are rewritten or dropped before hashing.
package hash

import "golang.org/x/arch/x86/x86asm"

// Normalize disassembles data as 64-bit x86 and emits a canonical byte
// stream: direct call/jmp instructions collapse to their bare opcode
// (0xE8/0xE9), discarding the relative displacement that changes between
// a target build and a local rebuild; any instruction addressing memory
// through a RIP-relative operand is dropped outright, since its
// displacement encodes a load-time address that two independently linked
// binaries will not share. Decoding stops after two consecutive
// ud2/int3 instructions, which in practice means "past the end of the
// real function body and into padding or the next symbol".
func Normalize(data []byte) []byte {
	var out []byte
	consecutiveTerminators := 0

	for offset := 0; offset < len(data); {
		inst, err := x86asm.Decode(data[offset:], 64)
		if err != nil || inst.Len == 0 {
			// An unrecognized byte, most often a bare opcode left behind by
			// a previous normalization pass (a collapsed call/jmp with too
			// few bytes after it to decode), passes through unchanged
			// rather than truncating the rest of the stream. A second pass
			// over normalized output leaves it unchanged only while fewer
			// than four bytes follow each collapsed 0xE8/0xE9; with four or
			// more, the opcode decodes again as a call/jmp and the next
			// four bytes are absorbed as its displacement.
			out = append(out, data[offset])
			consecutiveTerminators = 0
			offset++
			continue
		}

		switch inst.Op {
		case x86asm.CALL:
			out = append(out, 0xE8)
		case x86asm.JMP:
			out = append(out, 0xE9)
		default:
			if !hasRIPRelativeOperand(inst) {
				out = append(out, data[offset:offset+inst.Len]...)
			}
		}

		if inst.Op == x86asm.UD2 || inst.Op == x86asm.INT3 {
			consecutiveTerminators++
		} else {
			consecutiveTerminators = 0
		}

		offset += inst.Len
		if consecutiveTerminators >= 2 {
			break
		}
	}

	return out
}

// hasRIPRelativeOperand reports whether inst addresses memory relative to
// the instruction pointer. The original tool computes the absolute target
// address and checks it for non-zero, which in practice is true for every
// real RIP-relative operand (the runtime load address is never zero) — so
// the condition reduces to "is there one at all".
func hasRIPRelativeOperand(inst x86asm.Inst) bool {
	for _, arg := range inst.Args {
		mem, ok := arg.(x86asm.Mem)
		if ok && mem.Base == x86asm.RIP {
			return true
		}
	}
	return false
}
