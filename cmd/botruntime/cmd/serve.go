package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/habiliai/botruntime"
	"github.com/habiliai/botruntime/internal/mylog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(root *rootParams) *cobra.Command {
	params := &struct {
		Port int
	}{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tick loop and serve the HTTP command surface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			runtime, err := root.newRuntime(ctx)
			if err != nil {
				return err
			}
			defer runtime.Close()

			c := runtime.Config()
			if cmd.Flags().Changed("port") {
				c.Port = params.Port
			}
			logger := runtime.Logger()

			server := &http.Server{
				Addr:    fmt.Sprintf("%s:%d", c.Host, c.Port),
				Handler: createServerHandler(runtime, logger),
				BaseContext: func(l net.Listener) context.Context {
					return ctx
				},
			}

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				return runtime.Run(ctx)
			})
			eg.Go(func() error {
				return logLifecycle(ctx, runtime)
			})
			eg.Go(func() error {
				<-ctx.Done()
				if err := server.Shutdown(context.WithoutCancel(ctx)); err != nil {
					logger.Error("failed to shutdown server", mylog.Err(err))
				}
				return nil
			})
			eg.Go(func() error {
				logger.Info("server started", "addr", server.Addr)
				defer logger.Info("server stopped")

				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})

			return eg.Wait()
		},
	}

	cmd.Flags().IntVarP(&params.Port, "port", "p", 9080, "Port to listen on (overrides the config)")

	return cmd
}

func logLifecycle(ctx context.Context, runtime *botruntime.BotRuntime) error {
	events, err := runtime.Events().Subscribe(ctx)
	if err != nil {
		return err
	}

	logger := runtime.Logger().With("component", "events")
	for e := range events {
		logger.Debug("bot lifecycle", "type", string(e.Type), "bot_id", e.BotID, "owner", e.OwnerID, "name", e.Name, "at", e.At)
	}
	return nil
}
