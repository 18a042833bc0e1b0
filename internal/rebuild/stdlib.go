package rebuild

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// helloWorldManifest and helloWorldSource are a synthetic, minimal crate
// whose only purpose is to pull in the standard library so its symbols
// show up in a PDB the Extractor's DebugDB mode can read. It is built as a
// dylib rather than a staticlib: a throwaway crate this small produces a
// staticlib with almost nothing in it, whereas a dylib forces the linker
// to resolve (and therefore emit debug info for) the std symbols it
// transitively pulls in.
const helloWorldManifest = `[package]
name = "hello_world_for_std"
version = "0.1.0"
edition = "2021"

[lib]
crate-type = ["dylib"]
path = "src/lib.rs"

[profile.release]
debug = 2
strip = false
`

const helloWorldSource = `#[no_mangle]
pub extern "C" fn hello_world_for_std() {
    println!("{}", std::env::consts::ARCH);
}
`

// BuildStdlibBootstrap writes and compiles the synthetic hello-world crate
// under workDir, returning the built dylib path and its paired PDB path.
func BuildStdlibBootstrap(ctx context.Context, build Builder, workDir, toolchainTag string) (dylibPath, debugDBPath string, err error) {
	dir := filepath.Join(workDir, "hello_world_for_std")
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		return "", "", fmt.Errorf("stdlib bootstrap: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte(helloWorldManifest), 0o644); err != nil {
		return "", "", fmt.Errorf("stdlib bootstrap: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "src", "lib.rs"), []byte(helloWorldSource), 0o644); err != nil {
		return "", "", fmt.Errorf("stdlib bootstrap: %w", err)
	}

	return build.Build(ctx, dir, toolchainTag, nil)
}
