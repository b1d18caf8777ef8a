package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/dyluth/slate/internal/printer"
	"github.com/dyluth/slate/internal/watch"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var watchOutputFormat string

var watchCmd = &cobra.Command{
	Use:   "watch BOARD",
	Short: "Monitor real-time board activity",
	Long: `Monitor real-time activity on one board.

Streams shape updates, cursor moves and departures as participants publish
them. Requires store.backend: redis, since the other backends only relay
traffic inside the serving process.

Output Formats:
  default - Human-readable output with timestamps and emojis
  json    - Line-delimited JSON for programmatic processing

Examples:
  # Watch a board
  slate watch planning

  # Export events as JSON
  slate watch planning --output=json > events.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return watchBoard(ctx, cmd, args[0])
}

func watchBoard(ctx context.Context, cmd *cobra.Command, boardID string) error {
	var outputFormat watch.OutputFormat
	switch watchOutputFormat {
	case "default":
		outputFormat = watch.OutputFormatDefault
	case "json":
		outputFormat = watch.OutputFormatJSON
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
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

	if !be.Shared() {
		return printer.Error(
			"watch requires the redis backend",
			fmt.Sprintf("The %s backend relays board traffic inside the gateway process only.", be.name),
			[]string{"Set store.backend: redis in slate.yml"},
		)
	}

	ch, err := be.transport.Subscribe(ctx, boardID)
	if err != nil {
		return fmt.Errorf("failed to subscribe to board: %w", err)
	}
	defer ch.Close()

	return watch.StreamActivity(ctx, ch, boardID, outputFormat, cmd.OutOrStdout(), clockwork.NewRealClock())
}
