// Command ariane recovers compiler and dependency-level symbol information
// from stripped static binaries.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "ariane",
		Short: "Recover compiler and dependency symbols from a stripped binary",
	}

	root.AddCommand(newInfoCmd())
	root.AddCommand(newDownloadCmd())
	root.AddCommand(newRecoverCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
