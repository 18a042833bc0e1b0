package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ariane-re/ariane/internal/arianeerr"
	"github.com/ariane-re/ariane/internal/pipeline"
)

func newRecoverCmd() *cobra.Command {
	var inputFunctionsPath string

	cmd := &cobra.Command{
		Use:   "recover <target> <result-file>",
		Short: "Run the full symbol-recovery pipeline and write a result file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecover(args[0], args[1], inputFunctionsPath)
		},
	}
	cmd.Flags().StringVar(&inputFunctionsPath, "input-functions-file", "", "override target extraction with a caller-supplied function list")
	return cmd
}

func runRecover(targetPath, resultPath, inputFunctionsPath string) error {
	data, err := os.ReadFile(targetPath)
	if err != nil {
		return arianeerr.Wrap(arianeerr.IO, "recover.ReadFile", targetPath, err)
	}

	var overrides *pipeline.InputFunctions
	if inputFunctionsPath != "" {
		raw, err := os.ReadFile(inputFunctionsPath)
		if err != nil {
			return arianeerr.Wrap(arianeerr.IO, "recover.ReadFile", inputFunctionsPath, err)
		}
		var decoded pipeline.InputFunctions
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return arianeerr.Wrap(arianeerr.InvalidInput, "recover.Unmarshal", inputFunctionsPath, err)
		}
		overrides = &decoded
	}

	workDir := defaultWorkDir()
	cfg := pipeline.DefaultConfig(workDir)
	p := pipeline.New(cfg)

	groups, err := p.Run(context.Background(), data, overrides)
	if err != nil {
		// Everything Run itself returns is fatal; per-dependency errors are
		// already absorbed internally and never reach this point.
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	out, err := json.MarshalIndent(groups, "", "  ")
	if err != nil {
		return arianeerr.Wrap(arianeerr.IO, "recover.Marshal", resultPath, err)
	}

	if err := os.WriteFile(resultPath, out, 0o644); err != nil {
		return arianeerr.Wrap(arianeerr.IO, "recover.WriteFile", resultPath, err)
	}

	fmt.Printf("wrote %d recovered symbol group(s) to %s\n", len(groups), resultPath)
	return nil
}

func defaultWorkDir() string {
	return filepath.Join(os.TempDir(), "ariane")
}
