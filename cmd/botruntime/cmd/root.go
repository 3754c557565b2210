package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/habiliai/botruntime"
	"github.com/habiliai/botruntime/config"
	"github.com/habiliai/botruntime/internal/mylog"
	"github.com/spf13/cobra"
)

type rootParams struct {
	ConfigFile string
}

func newRootCmd() *cobra.Command {
	params := &rootParams{}
	cmd := &cobra.Command{
		Use:           "botruntime",
		Short:         "Companion bot runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&params.ConfigFile, "config", "c", "", "Path to a YAML config file")

	cmd.AddCommand(
		newServeCmd(params),
		newExecCmd(params),
		newSchemaCmd(),
	)

	return cmd
}

func (p *rootParams) newRuntime(ctx context.Context) (*botruntime.BotRuntime, error) {
	c, err := config.LoadBotConfig(p.ConfigFile)
	if err != nil {
		return nil, err
	}

	return botruntime.NewBotRuntime(ctx,
		botruntime.WithConfig(c),
		botruntime.WithLogger(mylog.NewLogger(c.LogLevel, c.LogHandler)),
	)
}

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %+v\n", err)
		os.Exit(1)
	}
}
