package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/miaomiao/miaomiao/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		addr    string
		noTimer bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP/WebSocket bridge for an overlay",
		Long: `Serve the local bridge API an overlay or other tool can drive:

  POST /api/analyze      start a cycle (202, or 409 while one is running)
  GET  /api/stats        activity report and averages
  GET  /api/favorability label, hearts, color and score
  GET  /api/history      remembered comments and journaled cycles
  GET  /ws               analysis events as they happen
  GET  /health           liveness

The auto-analysis timer runs too unless --no-timer is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.withPet(); err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(server.Options{
				Pet:     a.pet,
				Guard:   a.guard,
				Journal: a.journal,
				Bubble:  a.bubble(),
				Logger:  a.logger,
			})
			go srv.Pump(ctx)
			if !noTimer {
				go a.pet.RunTimer(ctx, a.interval())
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Bridge listening on http://%s. Press Ctrl-C to stop.\n", addr)
			err = srv.ListenAndServe(ctx, addr)
			stop()
			a.pet.Wait()
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().BoolVar(&noTimer, "no-timer", false, "only analyze when asked over the API")

	return cmd
}
