// Package pipeline drives the end-to-end symbol recovery run: fingerprint
// the compiler, infer dependencies, rebuild them, extract and hash
// functions from both target and dependencies, and match.
package pipeline

import (
	"context"
	"os"
	"time"

	pe "github.com/ariane-re/ariane"
	"github.com/ariane-re/ariane/internal/arianeerr"
	"github.com/ariane-re/ariane/internal/dependency"
	"github.com/ariane-re/ariane/internal/extract"
	"github.com/ariane-re/ariane/internal/fingerprint"
	"github.com/ariane-re/ariane/internal/hash"
	"github.com/ariane-re/ariane/internal/match"
	"github.com/ariane-re/ariane/internal/rebuild"
)

// State names one step of the recovery run.
type State int

const (
	FingerprintPending State = iota
	ToolchainInstalling
	DepsInferring
	DepsRebuilding
	TargetExtracting
	Hashing
	Matching
	Emitting
	Done
)

func (s State) String() string {
	switch s {
	case FingerprintPending:
		return "fingerprint-pending"
	case ToolchainInstalling:
		return "toolchain-installing"
	case DepsInferring:
		return "deps-inferring"
	case DepsRebuilding:
		return "deps-rebuilding"
	case TargetExtracting:
		return "target-extracting"
	case Hashing:
		return "hashing"
	case Matching:
		return "matching"
	case Emitting:
		return "emitting"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// InputFunction is one caller-supplied override for target extraction,
// bypassing the exception-directory walk.
type InputFunction struct {
	Name  string `json:"name"`
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// InputFunctions is the top-level shape of the --input-functions-file
// document.
type InputFunctions struct {
	Functions []InputFunction `json:"functions"`
}

// RecoveredSymbolEntry is one symbol within a RecoveredSymbolGroup.
type RecoveredSymbolEntry struct {
	Name  string `json:"name"`
	RVA   uint32 `json:"rva"`
	Score int    `json:"score"`
}

// RecoveredSymbolGroup clusters symbols that hashed to the same signature
// (scenario 5: two library functions sharing one target match both
// appear, tie broken by name).
type RecoveredSymbolGroup struct {
	Hash    string                 `json:"hash"`
	Symbols []RecoveredSymbolEntry `json:"symbols"`
}

// Config bounds the pipeline's external interactions and thresholds.
type Config struct {
	WorkDir             string
	RequestTimeout      time.Duration
	MatchThreshold      int
	MinFuncBytes        uint32
	DefaultToolchainTag string
	TagResolver         fingerprint.TagResolver
	Rebuilder           *rebuild.Rebuilder
}

// DefaultConfig returns the reference thresholds: 10s request timeout,
// match threshold 25 (Open Question (b), kept configurable).
func DefaultConfig(workDir string) Config {
	return Config{
		WorkDir:             workDir,
		RequestTimeout:      10 * time.Second,
		MatchThreshold:      25,
		MinFuncBytes:        extract.DefaultMinFuncBytes,
		DefaultToolchainTag: "stable",
	}
}

// Pipeline drives one end-to-end recovery run against a single target.
type Pipeline struct {
	cfg   Config
	state State
}

// New returns a Pipeline configured from cfg, filling in the default tag
// resolver and rebuilder when cfg leaves them nil.
func New(cfg Config) *Pipeline {
	if cfg.TagResolver == nil {
		cfg.TagResolver = fingerprint.NewGitHubResolver(cfg.RequestTimeout)
	}
	if cfg.Rebuilder == nil {
		cfg.Rebuilder = rebuild.NewRebuilder(cfg.WorkDir, 4)
	}
	return &Pipeline{cfg: cfg, state: FingerprintPending}
}

// State returns the pipeline's current stage, useful for progress
// reporting in the CLI.
func (p *Pipeline) State() State { return p.state }

// Run executes every stage in order. Fatal-kind errors (per
// arianeerr.Fatal) abort immediately and are returned to the caller;
// recoverable per-dependency errors are absorbed internally and simply
// shrink the set of contributors to the NameIndex, per spec's "always
// attempt to produce a result file" policy.
func (p *Pipeline) Run(ctx context.Context, targetData []byte, overrides *InputFunctions) ([]RecoveredSymbolGroup, error) {
	commit, ok := fingerprint.Scan(targetData)
	if !ok {
		return nil, arianeerr.New(arianeerr.NoCompilerFingerprint, "pipeline.Fingerprint", "no rustc commit marker found in target")
	}
	p.state = ToolchainInstalling

	tag, err := p.cfg.TagResolver.Resolve(commit)
	if err != nil {
		tag = p.cfg.DefaultToolchainTag
	}

	p.state = DepsInferring
	deps := dependency.Infer(targetData)

	p.state = DepsRebuilding
	if err := os.MkdirAll(p.cfg.WorkDir, 0o755); err != nil {
		return nil, arianeerr.Wrap(arianeerr.IO, "pipeline.MkdirAll", p.cfg.WorkDir, err)
	}
	results := p.cfg.Rebuilder.Run(ctx, deps, tag)

	stdlibDylib, stdlibPDB, err := rebuild.BuildStdlibBootstrap(ctx, p.cfg.Rebuilder.Build, p.cfg.WorkDir, tag)
	hasStdlib := err == nil

	p.state = TargetExtracting
	var targetFuncs []extract.Function
	if overrides != nil {
		targetFuncs = functionsFromOverrides(*overrides, targetData)
	} else {
		img, err := pe.NewBytes(targetData, &pe.Options{})
		if err != nil {
			return nil, arianeerr.Wrap(arianeerr.InvalidInput, "pipeline.TargetExtract", "target", err)
		}
		if err := img.Parse(); err != nil {
			return nil, arianeerr.Wrap(arianeerr.InvalidInput, "pipeline.TargetExtract", "target", err)
		}
		targetFuncs, err = extract.FromTarget(img, p.cfg.MinFuncBytes)
		if err != nil {
			return nil, arianeerr.Wrap(arianeerr.InvalidInput, "pipeline.TargetExtract", "target", err)
		}
	}

	p.state = Hashing
	targetHashes := hashFunctions(targetFuncs)

	var index match.NameIndex
	for _, res := range results {
		index = append(index, p.indexRebuiltDependency(res)...)
	}
	if hasStdlib {
		index = append(index, p.indexDebugDB(stdlibDylib, stdlibPDB)...)
	}

	p.state = Matching
	recovered := match.Match(targetHashes, index, p.cfg.MatchThreshold)

	p.state = Emitting
	groups := groupByHash(recovered, targetHashes)

	p.state = Done
	return groups, nil
}

func functionsFromOverrides(overrides InputFunctions, targetData []byte) []extract.Function {
	var out []extract.Function
	for _, f := range overrides.Functions {
		if f.End <= f.Start || int(f.End) > len(targetData) {
			continue
		}
		out = append(out, extract.Function{
			Origin: extract.Target,
			Data:   targetData[f.Start:f.End],
			RVA:    f.Start,
			Name:   f.Name,
		})
	}
	return out
}

func hashFunctions(funcs []extract.Function) []hash.FuzzyFunction {
	var out []hash.FuzzyFunction
	for _, fn := range funcs {
		fh, ok := hash.Hash(fn.Data, fn.RVA, fn.Name)
		if !ok {
			continue
		}
		out = append(out, fh)
	}
	return out
}

func (p *Pipeline) indexRebuiltDependency(res rebuild.Result) match.NameIndex {
	archiveData, err := os.ReadFile(res.ArchivePath)
	if err != nil {
		return nil
	}
	ar, err := pe.ParseArchive(archiveData)
	if err != nil {
		return nil
	}
	funcs, err := extract.FromArchive(ar)
	if err != nil {
		return nil
	}
	return hashFunctions(funcs)
}

func (p *Pipeline) indexDebugDB(imagePath, pdbPath string) match.NameIndex {
	if imagePath == "" || pdbPath == "" {
		return nil
	}
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return nil
	}
	pdbData, err := os.ReadFile(pdbPath)
	if err != nil {
		return nil
	}
	db, err := pe.OpenDebugDB(pdbData)
	if err != nil {
		return nil
	}
	img, err := pe.New(imagePath, &pe.Options{})
	if err != nil {
		return nil
	}
	if err := img.Parse(); err != nil {
		return nil
	}
	funcs, err := extract.FromDebugDB(db, image, img.Sections)
	if err != nil {
		return nil
	}
	return hashFunctions(funcs)
}

func groupByHash(recovered []match.RecoveredSymbol, target []hash.FuzzyFunction) []RecoveredSymbolGroup {
	byHash := make(map[string]*RecoveredSymbolGroup)
	rvaToHash := make(map[uint32]string)
	for _, fn := range target {
		rvaToHash[fn.RVA] = fn.Hash
	}

	var order []string
	for _, sym := range recovered {
		h := rvaToHash[sym.RVA]
		group, exists := byHash[h]
		if !exists {
			group = &RecoveredSymbolGroup{Hash: h}
			byHash[h] = group
			order = append(order, h)
		}
		group.Symbols = append(group.Symbols, RecoveredSymbolEntry{
			Name:  sym.Name,
			RVA:   sym.RVA,
			Score: sym.Similarity,
		})
	}

	out := make([]RecoveredSymbolGroup, 0, len(order))
	for _, h := range order {
		out = append(out, *byHash[h])
	}
	return out
}
