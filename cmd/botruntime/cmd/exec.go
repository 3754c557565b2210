package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newExecCmd(root *rootParams) *cobra.Command {
	params := &struct {
		Owner string
	}{}
	cmd := &cobra.Command{
		Use:     "exec <command line>",
		Short:   "Run one /bot command against the database and print the replies",
		Example: `  botruntime exec --owner alice /bot create Aylia 2 1 0`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := root.newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer runtime.Close()

			replies, err := runtime.Execute(cmd.Context(), params.Owner, strings.Join(args, " "))
			if err != nil {
				return err
			}
			for _, reply := range replies {
				fmt.Fprintln(cmd.OutOrStdout(), reply)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&params.Owner, "owner", "o", "", "Owner issuing the command")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}
