package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ariane-re/ariane/internal/arianeerr"
	"github.com/ariane-re/ariane/internal/dependency"
	"github.com/ariane-re/ariane/internal/fingerprint"
	"github.com/ariane-re/ariane/internal/rebuild"
)

func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <target> <dest-dir>",
		Short: "Detect dependencies and download their source archives",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(args[0], args[1])
		},
	}
}

func runDownload(targetPath, destDir string) error {
	data, err := os.ReadFile(targetPath)
	if err != nil {
		return arianeerr.Wrap(arianeerr.IO, "download.ReadFile", targetPath, err)
	}

	if _, ok := fingerprint.Scan(data); !ok {
		err := arianeerr.New(arianeerr.NoCompilerFingerprint, "download.Scan", "no rustc commit marker found in target")
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	deps := dependency.Infer(data)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return arianeerr.Wrap(arianeerr.IO, "download.MkdirAll", destDir, err)
	}

	client := rebuild.NewCratesIOClient()
	extractor := rebuild.NewTarGzExtractor()

	for _, dep := range deps {
		version := dep.Version.String()
		info, err := client.GetVersion(dep.Name, version)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", dep.Name, version, arianeerr.Wrap(arianeerr.NonExistentVersion, "download.GetVersion", dep.Name, err))
			continue
		}

		archive, err := client.Download(context.Background(), info.DownloadURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", dep.Name, version, arianeerr.Wrap(arianeerr.DownloadFailed, "download.Download", info.DownloadURL, err))
			continue
		}

		dir := filepath.Join(destDir, dep.Name+"-"+version)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", dep.Name, version, err)
			continue
		}
		if err := extractor.Extract(archive, dir); err != nil {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", dep.Name, version, arianeerr.Wrap(arianeerr.DownloadFailed, "download.Extract", dir, err))
			continue
		}

		fmt.Printf("downloaded %s-%s -> %s\n", dep.Name, version, dir)
	}

	return nil
}
