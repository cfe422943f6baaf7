package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"imagegrab/pkg/extractor"
)

// extractCmd prints the image links found in a saved results page
var extractCmd = &cobra.Command{
	Use:   "extract <file|->",
	Short: "Print the image links found in a saved search results page",
	Long: `Scan a search results page saved to disk (or read from stdin with "-")
and print every image link it contains, one per line, in document order.
No network requests are made.`,
	Example: `  imagegrab extract results.html
  curl -s "$URL" | imagegrab extract -`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read page: %w", err)
	}

	for link := range extractor.All(string(data)) {
		fmt.Fprintln(cmd.OutOrStdout(), link)
	}
	return nil
}
