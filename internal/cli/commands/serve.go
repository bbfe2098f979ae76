package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/leapstack-labs/calckit/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the calckit operations over HTTP.

Endpoints:
  GET  /api/ops                       list operations
  GET  /api/eval/{op}?arg=A&arg=B     evaluate with query operands
  POST /api/eval                      evaluate {"op": "add", "args": ["2", "3"]}

Validation failures return 422, malformed requests 400.`,
		Example: `  calckit serve
  calckit serve --port 9000
  curl 'localhost:8787/api/eval/add?arg=2&arg=3'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			addrPort := cmdCtx.Cfg.Server.Port
			if cmd.Flags().Changed("port") {
				if port < 1 || port > 65535 {
					return fmt.Errorf("--port %d out of range", port)
				}
				addrPort = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cmdCtx.Renderer.Muted("Listening on http://localhost:" + strconv.Itoa(addrPort))
			srv := server.NewServer(server.Config{
				Engine: cmdCtx.Engine,
				Port:   addrPort,
				Logger: cmdCtx.Logger,
			})
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config, 8787)")

	return cmd
}
