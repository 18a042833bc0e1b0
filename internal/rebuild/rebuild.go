// Package rebuild recompiles each inferred dependency from its registry
// source under the recovered toolchain, producing the object archives and
// debug databases the matcher hashes against.
package rebuild

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ariane-re/ariane/internal/arianeerr"
	"github.com/ariane-re/ariane/internal/dependency"
)

// RegistryClient resolves a dependency's declared features and download
// location from the package registry.
type RegistryClient interface {
	GetVersion(name, version string) (VersionInfo, error)
}

// VersionInfo is the registry metadata needed to rebuild one dependency.
type VersionInfo struct {
	Features    []string
	DownloadURL string
}

// Downloader fetches the raw source archive bytes for a resolved
// download URL.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Extractor unpacks a downloaded source archive into destDir.
type Extractor interface {
	Extract(archive []byte, destDir string) error
}

// ManifestPatcher rewrites a dependency's build manifest in place to force
// the build flags symbol recovery needs.
type ManifestPatcher interface {
	Patch(manifestPath string, features []string) error
}

// Builder invokes the toolchain to compile a patched source tree.
type Builder interface {
	// Build returns the built static archive path and its paired debug
	// database path.
	Build(ctx context.Context, dir, toolchainTag string, features []string) (archivePath, debugDBPath string, err error)
}

// Result is the outcome of rebuilding a single dependency.
type Result struct {
	Dependency  dependency.Dependency
	ArchivePath string
	DebugDBPath string
	Err         error
}

// Rebuilder drives the download/extract/patch/build pipeline for every
// inferred dependency, plus the standard-library bootstrap crate.
type Rebuilder struct {
	Registry  RegistryClient
	Download  Downloader
	Extract   Extractor
	Patch     ManifestPatcher
	Build     Builder
	WorkDir   string
	Workers   int
}

// NewRebuilder wires the default, network/filesystem-backed
// implementations of every capability.
func NewRebuilder(workDir string, workers int) *Rebuilder {
	if workers <= 0 {
		workers = 4
	}
	return &Rebuilder{
		Registry: NewCratesIOClient(),
		Download: NewCratesIOClient(),
		Extract:  NewTarGzExtractor(),
		Patch:    NewCargoTomlPatcher(),
		Build:    NewCargoBuilder(),
		WorkDir:  workDir,
		Workers:  workers,
	}
}

// Run rebuilds every dependency concurrently, bounded by r.Workers. A
// dependency whose download fails is retried exactly once; any other
// failure, or a download failure on the retry, drops that dependency from
// the returned results rather than aborting the whole run, per the
// per-dependency recoverable-error policy.
func (r *Rebuilder) Run(ctx context.Context, deps []dependency.Dependency, toolchainTag string) []Result {
	results := make([]Result, len(deps))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers)

	for i, dep := range deps {
		i, dep := i, dep
		g.Go(func() error {
			results[i] = r.runOne(ctx, dep, toolchainTag)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Result, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		out = append(out, res)
	}
	return out
}

func (r *Rebuilder) runOne(ctx context.Context, dep dependency.Dependency, toolchainTag string) Result {
	res, err := r.rebuildDependency(ctx, dep, toolchainTag)
	if err != nil {
		if kind, ok := arianeerr.KindOf(err); ok && kind == arianeerr.DownloadFailed {
			res, err = r.rebuildDependency(ctx, dep, toolchainTag)
		}
	}
	if err != nil {
		return Result{Dependency: dep, Err: err}
	}
	return res
}

func (r *Rebuilder) rebuildDependency(ctx context.Context, dep dependency.Dependency, toolchainTag string) (Result, error) {
	version := dep.Version.String()

	info, err := r.Registry.GetVersion(dep.Name, version)
	if err != nil {
		return Result{}, arianeerr.Wrap(arianeerr.NonExistentVersion, "rebuild.GetVersion", dep.Name+" "+version, err)
	}

	dir := filepath.Join(r.WorkDir, dep.Name+"-"+version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, arianeerr.Wrap(arianeerr.IO, "rebuild.MkdirAll", dir, err)
	}

	archive, err := r.Download.Download(ctx, info.DownloadURL)
	if err != nil {
		return Result{}, arianeerr.Wrap(arianeerr.DownloadFailed, "rebuild.Download", info.DownloadURL, err)
	}

	if err := r.Extract.Extract(archive, dir); err != nil {
		return Result{}, arianeerr.Wrap(arianeerr.DownloadFailed, "rebuild.Extract", dir, err)
	}

	features := NarrowFeatures(dep.Features, info.Features)

	manifestPath := filepath.Join(dir, "Cargo.toml")
	if err := r.Patch.Patch(manifestPath, features); err != nil {
		return Result{}, arianeerr.Wrap(arianeerr.CompileFailed, "rebuild.Patch", manifestPath, err)
	}

	archivePath, debugDBPath, err := r.Build.Build(ctx, dir, toolchainTag, features)
	if err != nil {
		return Result{}, arianeerr.Wrap(arianeerr.CompileFailed, "rebuild.Build", dep.Name, err)
	}

	dep.Features = features
	dep.Accurate = true

	return Result{Dependency: dep, ArchivePath: archivePath, DebugDBPath: debugDBPath}, nil
}

// NarrowFeatures intersects the raw, path-derived candidate feature names
// against the registry's declared feature set, discarding false positives
// a bare substring scan of embedded paths picks up.
func NarrowFeatures(candidates, declared []string) []string {
	declaredSet := make(map[string]bool, len(declared))
	for _, f := range declared {
		declaredSet[f] = true
	}

	var out []string
	for _, c := range candidates {
		if declaredSet[c] {
			out = append(out, c)
		}
	}
	return out
}
