package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/slate/internal/config"
	"github.com/dyluth/slate/internal/inspect"
	"github.com/dyluth/slate/internal/printer"
	"github.com/dyluth/slate/internal/replay"
	"github.com/dyluth/slate/internal/session"
	"github.com/spf13/cobra"
)

var (
	replayScript string
	replayUser   string
)

var replayCmd = &cobra.Command{
	Use:   "replay BOARD",
	Short: "Drive a board session from a YAML script",
	Long: `Open a session on BOARD as --user and apply the pointer, text and history
steps in --script, exactly as a participant's editor would. Changes are
broadcast to anyone on the board and saved before the command exits.

Example script:
  version: "1.0"
  steps:
    - {action: tool, tool: rectangle}
    - {action: drag, x: 20, y: 20, to_x: 120, to_y: 70}
    - {action: undo}

Examples:
  slate replay planning --script seed.yml
  slate replay planning --script seed.yml --user bot`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVarP(&replayScript, "script", "s", "", "Path to the replay script (required)")
	replayCmd.Flags().StringVarP(&replayUser, "user", "u", "replay", "User id the session publishes as")
	replayCmd.MarkFlagRequired("script")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	boardID := args[0]

	script, err := replay.Load(replayScript)
	if err != nil {
		return printer.Error(
			"invalid replay script",
			err.Error(),
			[]string{"Every script needs version: \"1.0\" and at least one step"},
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

	sess, err := session.Open(ctx, sessionOptions(cfg, be, boardID, replayUser))
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer sess.Close()

	out := cmd.OutOrStdout()
	if err := replay.Run(ctx, sess, script, out); err != nil {
		return printer.Error("replay failed", err.Error(), nil)
	}
	if err := sess.Flush(ctx); err != nil {
		return fmt.Errorf("failed to save board: %w", err)
	}

	fmt.Fprintln(out)
	inspect.FormatTable(out, sess.Shapes(), boardID)
	return nil
}

func sessionOptions(cfg *config.SlateConfig, be *backend, boardID, user string) session.Options {
	return session.Options{
		DocumentID:   boardID,
		Identity:     user,
		Name:         user,
		Store:        be.store,
		Transport:    be.transport,
		SaveDelay:    cfg.Session.SaveDelay,
		HistoryLimit: *cfg.Session.HistoryLimit,
		MinShapeSize: cfg.Session.MinShapeSize,
	}
}
