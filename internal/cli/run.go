package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/miaomiao/miaomiao/internal/config"
	"github.com/miaomiao/miaomiao/internal/server"
)

func newRunCmd() *cobra.Command {
	var (
		serve bool
		addr  string
		now   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the screen on a timer and print the cat's comments",
		Long: `Start the cat. Every analysis.interval_seconds it takes a screenshot, asks
the vision model about it, and prints the comment.

Editing analysis.interval_seconds while running takes effect without a
restart. Other settings are read once at startup. With --serve the HTTP/WebSocket bridge runs alongside, so an
overlay can show the same comments.

Press Ctrl-C to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.withPet(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var srv *server.Server
			if serve {
				if addr == "" {
					addr = a.cfg.Server.Addr
				}
				srv = server.New(server.Options{
					Pet:     a.pet,
					Guard:   a.guard,
					Journal: a.journal,
					Bubble:  a.bubble(),
					Logger:  a.logger,
				})
				go func() {
					if err := srv.ListenAndServe(ctx, addr); err != nil {
						a.logger.Error("server stopped", "err", err)
						stop()
					}
				}()
			}

			go a.pet.RunTimer(ctx, a.interval())
			go func() {
				err := config.Watch(ctx, a.cfgPath, a.logger, reloadConfig(ctx, a.cfg, a.pet.SetInterval, a.logger))
				if err != nil {
					a.logger.Warn("config hot reload disabled", "err", err)
				}
			}()

			out := cmd.OutOrStdout()
			if a.interval() > 0 {
				fmt.Fprintf(out, "喵~ watching every %s. Press Ctrl-C to stop.\n", a.interval())
			} else {
				fmt.Fprintln(out, "喵~ timer paused (analysis.interval_seconds = 0). Press Ctrl-C to stop.")
			}
			if now {
				a.pet.Trigger(ctx)
			}

			for {
				select {
				case <-ctx.Done():
					a.pet.Wait()
					fmt.Fprintln(out, "\n再见喵~")
					return nil
				case res := <-a.pet.Results():
					printResult(out, res)
					if srv != nil {
						srv.Publish(res)
					}
				}
			}
		},
	}

	cmd.Flags().BoolVar(&serve, "serve", false, "also run the HTTP/WebSocket bridge")
	cmd.Flags().StringVar(&addr, "addr", "", "bridge listen address (default server.addr)")
	cmd.Flags().BoolVar(&now, "now", false, "analyze once immediately instead of waiting for the first tick")

	return cmd
}

// reloadConfig returns the hot-reload callback for run. Only the analysis
// interval is applied live; any other change is logged until the next start.
func reloadConfig(ctx context.Context, running config.GlobalConfig, setInterval func(context.Context, time.Duration) bool, logger *slog.Logger) func(config.GlobalConfig) {
	return func(cfg config.GlobalConfig) {
		setInterval(ctx, intervalOf(cfg))
		running.Analysis.IntervalSeconds = cfg.Analysis.IntervalSeconds
		if !reflect.DeepEqual(cfg, running) {
			logger.Warn("config changed; restart to apply settings other than analysis.interval_seconds")
		}
	}
}
