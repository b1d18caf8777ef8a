package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/slate/internal/inspect"
	"github.com/dyluth/slate/internal/printer"
	"github.com/dyluth/slate/internal/resolver"
	"github.com/dyluth/slate/internal/watch"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var (
	showOutputFormat string
	showKind         string
	showContains     string
	showWait         time.Duration
)

var showCmd = &cobra.Command{
	Use:   "show BOARD [SHAPE_ID]",
	Short: "Inspect the shapes on a saved board",
	Long: `Inspect a saved board in list or get mode.

List Mode (BOARD only):
  Displays the board's shapes in z-order as a table or JSONL stream.

Get Mode (BOARD and SHAPE_ID):
  Displays one shape as pretty-printed JSON.
  Supports short IDs (e.g., "3fa85f" instead of the full UUID).

Output Formats (list mode only):
  default - Human-readable table with ID, Z, Kind, Position, Size and Text
  jsonl   - Line-delimited JSON, one shape per line

Filters (list mode only):
  --kind      - Filter by shape kind (glob pattern: "sticky*", "[pt]*")
  --contains  - Filter by text content (case-insensitive substring)

Examples:
  # List every shape on a board
  slate show planning

  # Only sticky notes mentioning "launch"
  slate show planning --kind=sticky_note --contains=launch

  # Pipe shapes to jq
  slate show planning --output=jsonl | jq 'select(.type=="rectangle") | .id'

  # Get one shape by short ID
  slate show planning 3fa85f

  # Wait up to 10s for a board to be saved
  slate show planning --wait=10s`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutputFormat, "output", "o", "default", "Output format: default or jsonl (ignored in get mode)")
	showCmd.Flags().StringVar(&showKind, "kind", "", "Filter by shape kind (glob pattern)")
	showCmd.Flags().StringVar(&showContains, "contains", "", "Filter by text content (substring)")
	showCmd.Flags().DurationVar(&showWait, "wait", 0, "Wait this long for the board to be saved")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	boardID := args[0]
	isGetMode := len(args) > 1

	var outputFormat inspect.OutputFormat
	if !isGetMode {
		switch showOutputFormat {
		case "default":
			outputFormat = inspect.OutputFormatDefault
		case "jsonl":
			outputFormat = inspect.OutputFormatJSONL
		default:
			return printer.Error(
				"invalid output format",
				fmt.Sprintf("Unknown format: %s", showOutputFormat),
				[]string{"Valid formats: default, jsonl"},
			)
		}
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

	if showWait > 0 {
		if _, err := watch.PollForDocument(ctx, be.store, boardID, showWait, clockwork.NewRealClock()); err != nil {
			return printer.Error(
				"board not saved",
				err.Error(),
				[]string{"Check the board name, or wait longer with --wait"},
			)
		}
	}

	out := cmd.OutOrStdout()

	if isGetMode {
		fullID, err := resolver.ResolveShapeID(ctx, be.store, boardID, args[1])
		if err != nil {
			if ambErr, ok := err.(*resolver.AmbiguousError); ok {
				return printer.Error("ambiguous shape ID", resolver.FormatAmbiguousError(ambErr), nil)
			}
			if resolver.IsNotFoundError(err) {
				return printer.Error(
					"shape not found",
					fmt.Sprintf("No shape on board '%s' matches: %s", boardID, args[1]),
					[]string{fmt.Sprintf("List the board's shapes:\n  slate show %s", boardID)},
				)
			}
			return printer.Error("failed to resolve shape ID", err.Error(), nil)
		}

		if err := inspect.GetShape(ctx, be.store, boardID, fullID, out); err != nil {
			if inspect.IsNotFound(err) {
				return printer.Error("shape not found", err.Error(), nil)
			}
			return fmt.Errorf("failed to get shape: %w", err)
		}
		return nil
	}

	filters := &inspect.FilterCriteria{KindGlob: showKind, Contains: showContains}
	if err := inspect.ListShapes(ctx, be.store, boardID, outputFormat, filters, out); err != nil {
		if inspect.IsNotFound(err) {
			return printer.Error(
				"board not found",
				err.Error(),
				[]string{"List saved boards:\n  slate boards"},
			)
		}
		return fmt.Errorf("failed to list shapes: %w", err)
	}
	return nil
}
