package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ariane-re/ariane/internal/arianeerr"
	"github.com/ariane-re/ariane/internal/dependency"
	"github.com/ariane-re/ariane/internal/fingerprint"
	"github.com/ariane-re/ariane/internal/rebuild"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <target>",
		Short: "Print the detected compiler version and inferred dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args[0])
		},
	}
}

func runInfo(targetPath string) error {
	data, err := os.ReadFile(targetPath)
	if err != nil {
		return arianeerr.Wrap(arianeerr.IO, "info.ReadFile", targetPath, err)
	}

	commit, ok := fingerprint.Scan(data)
	if !ok {
		err := arianeerr.New(arianeerr.NoCompilerFingerprint, "info.Scan", "no rustc commit marker found in target")
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	resolver := fingerprint.NewGitHubResolver(0)
	tag, err := resolver.Resolve(commit)
	if err != nil {
		tag = "unknown"
	}
	fmt.Printf("toolchain: %s (%s)\n", tag, commit)

	deps := dependency.Infer(data)
	client := rebuild.NewCratesIOClient()

	for _, dep := range deps {
		version := dep.Version.String()
		fmt.Printf("%s-%s\n", dep.Name, version)
		if len(dep.Features) == 0 {
			continue
		}

		info, err := client.GetVersion(dep.Name, version)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", dep.Name, version, arianeerr.Wrap(arianeerr.NonExistentVersion, "info.GetVersion", dep.Name, err))
			for _, f := range dep.Features {
				fmt.Printf("  %s (unconfirmed)\n", f)
			}
			continue
		}

		narrowed := rebuild.NarrowFeatures(dep.Features, info.Features)
		confirmed := make(map[string]bool, len(narrowed))
		for _, f := range narrowed {
			confirmed[f] = true
		}
		for _, f := range dep.Features {
			if confirmed[f] {
				fmt.Printf("  %s\n", f)
			} else {
				fmt.Printf("  %s (unconfirmed)\n", f)
			}
		}
	}

	return nil
}
