package commands

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dyluth/slate/internal/config"
	"github.com/dyluth/slate/internal/gateway"
	"github.com/dyluth/slate/internal/printer"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket gateway",
	Long: `Run the gateway that browsers connect to.

Routes:
  GET  /healthz                        backend health
  GET  /api/v1/boards                  list boards
  GET  /api/v1/boards/:id              read a board
  PUT  /api/v1/boards/:id              replace a board
  GET  /api/v1/boards/:id/export.pdf   export a board
  GET  /ws/boards/:id?user=U           realtime channel

With store.backend: redis several gateways can serve the same boards.
The sqlite and memory backends relay realtime traffic in-process only.

Examples:
  # Serve with slate.yml in the current directory
  slate serve

  # Override the listen address
  slate serve --addr :9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.Close()

	srv := newGateway(cfg, be)
	if err := srv.Start(); err != nil {
		return printer.Error("failed to start gateway", err.Error(), nil)
	}
	serveBanner(cfg, be)

	<-ctx.Done()
	printer.Step("Shutting down\n")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down gateway: %w", err)
	}
	return nil
}

func newGateway(cfg *config.SlateConfig, be *backend) *gateway.Server {
	return gateway.New(be.store, be.transport, gateway.Config{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Backend:        be.name,
		Health:         be.health,
	})
}

func serveBanner(cfg *config.SlateConfig, be *backend) {
	printer.Success("Serving instance '%s' on %s (%s backend)\n", cfg.Instance, cfg.Server.Addr, be.name)
	printer.Info("  Boards:    http://%s/api/v1/boards\n", displayAddr(cfg.Server.Addr))
	printer.Info("  Realtime:  ws://%s/ws/boards/<board>?user=<id>\n", displayAddr(cfg.Server.Addr))

	switch be.name {
	case config.BackendMemory:
		printer.Warning("Boards are kept in memory and are lost when the server stops\n")
	case config.BackendSQLite:
		printer.Warning("Realtime traffic is relayed in this process only; run one gateway per %s\n", cfg.Store.SQLitePath)
	}
}

// displayAddr turns a listen address like ":8080" into a dialable host:port.
func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
