package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/slate/internal/inspect"
	"github.com/dyluth/slate/internal/printer"
	"github.com/dyluth/slate/internal/timespec"
	"github.com/spf13/cobra"
)

var (
	boardsOutputFormat string
	boardsSince        string
	boardsUntil        string
)

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List saved boards",
	Long: `List saved boards, most recently updated first.

Time Filters:
  --since  - Show boards updated after this time
  --until  - Show boards updated before this time

Both accept a duration ago ("2h", "30m") or an RFC3339 timestamp.

Examples:
  # List every board
  slate boards

  # Boards touched in the last day, as JSONL
  slate boards --since=24h --output=jsonl`,
	Args: cobra.NoArgs,
	RunE: runBoards,
}

func init() {
	boardsCmd.Flags().StringVarP(&boardsOutputFormat, "output", "o", "default", "Output format: default or jsonl")
	boardsCmd.Flags().StringVar(&boardsSince, "since", "", "Show boards updated after time (duration or RFC3339)")
	boardsCmd.Flags().StringVar(&boardsUntil, "until", "", "Show boards updated before time (duration or RFC3339)")
	rootCmd.AddCommand(boardsCmd)
}

func runBoards(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var outputFormat inspect.OutputFormat
	switch boardsOutputFormat {
	case "default":
		outputFormat = inspect.OutputFormatDefault
	case "jsonl":
		outputFormat = inspect.OutputFormatJSONL
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", boardsOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	now := time.Now()
	sinceMs, untilMs, err := timespec.ParseRange(boardsSince, boardsUntil, now)
	if err != nil {
		return printer.Error(
			"invalid time filter",
			err.Error(),
			[]string{"Use a duration (2h, 30m) or RFC3339 (2025-10-29T13:00:00Z)"},
		)
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

	return inspect.ListBoards(ctx, be.store, sinceMs, untilMs, outputFormat, cmd.OutOrStdout(), now)
}
