package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/dyluth/slate/internal/export"
	"github.com/dyluth/slate/internal/printer"
	"github.com/dyluth/slate/pkg/whiteboard"
	"github.com/spf13/cobra"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export BOARD",
	Short: "Export a saved board as a PDF",
	Long: `Render a saved board onto a landscape A4 page.

Examples:
  # Write planning.pdf
  slate export planning

  # Choose the output file
  slate export planning --out /tmp/plan.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default BOARD.pdf)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	boardID := args[0]

	path := exportOut
	if path == "" {
		path = boardID + ".pdf"
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.Close()

	doc, err := be.store.ReadDocument(ctx, boardID)
	if err != nil {
		if whiteboard.IsNotFound(err) {
			return printer.Error(
				"board not found",
				fmt.Sprintf("Board '%s' has never been saved.", boardID),
				[]string{"List saved boards:\n  slate boards"},
			)
		}
		return fmt.Errorf("failed to read board: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.RenderPDF(f, doc.Content); err != nil {
		f.Close()
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d shapes to %s\n", len(doc.Content), path)
	return nil
}
