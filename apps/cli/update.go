package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gimvicurnik/urnik/services/apiclient"
)

func (cli *commandLine) updateCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Refresh every store from the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if force {
				ctx = apiclient.Force(ctx)
			}
			err := cli.app.Orchestrator.UpdateAll(ctx, true)
			fmt.Fprintln(cli.out, cli.app.Snackbar.Current().Message)
			if err != nil {
				return err
			}

			s := cli.app.Settings.Get()
			fmt.Fprintf(cli.out, "Različica podatkov: %s %s\n", s.DataVersion, mutedStyle.Render("("+humanize.Time(s.DataUpdatedAt)+")"))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "bypass the offline caches")
	return cmd
}
