package commands

import (
	"fmt"

	"github.com/dyluth/slate/internal/config"
	"github.com/dyluth/slate/internal/printer"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string

	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "slate",
	Short: "Slate - collaborative whiteboard server and tools",
	Long: `Slate serves collaborative whiteboards: every participant edits a local
copy of the board, changes are broadcast to everyone on the board and saved
shortly after editing pauses.

The CLI runs the gateway and inspects, exports and scripts stored boards.
Settings come from slate.yml (see --config) with REDIS_URL,
SLATE_INSTANCE_NAME and SLATE_ADDR overriding the file.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute runs the root command. Cobra's own error printing is silenced; the
// printer package reports errors.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to slate.yml (defaults apply if it does not exist)")
}

// loadConfig reads the configuration, reporting problems through the printer.
func loadConfig() (*config.SlateConfig, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"invalid configuration",
			err.Error(),
			map[string]string{"Config": configPath},
			[]string{"Fix the file, or remove it to run with defaults"},
		)
	}
	return cfg, nil
}
