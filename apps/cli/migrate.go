package main

import (
	"github.com/spf13/cobra"
)

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate command [args]",
		Short: "Run a goose command (up, down, status, version, redo, ...) on the database",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usage(cmd)
			}
			return migrateFunc(cmd.Context(), cli.st.DB, args[0], args[1:]...)
		},
	}
}
