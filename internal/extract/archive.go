package extract

import pe "github.com/ariane-re/ariane"

// FromArchive walks every member of a rebuilt dependency's static-library
// archive, parses each as a headerless COFF object, and emits one Function
// per function-typed symbol. Granularity is section-per-function, which is
// what the build flags in internal/rebuild request (one function per
// object section, full debug info, no stripping).
func FromArchive(ar *pe.Archive) ([]Function, error) {
	var out []Function

	for _, member := range ar.Members {
		obj, err := pe.ParseObject(member.Data)
		if err != nil {
			continue
		}

		for _, sym := range obj.Symbols {
			if !sym.IsFunction {
				continue
			}
			data := obj.SectionData(member.Data, sym.Section)
			if len(data) == 0 {
				continue
			}
			out = append(out, Function{
				Origin: Library,
				Data:   data,
				Name:   sym.Name,
			})
		}
	}

	return out, nil
}
