package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gimvicurnik/urnik/services/offline"
)

func (cli *commandLine) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the offline caches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return usage(cmd)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the offline caches and their size",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx := cmd.Context()
				repo := cli.st.Cache
				caches, err := repo.ListCaches(ctx)
				if err != nil {
					return err
				}
				t := &table{headers: []string{"Cache", "Entries", "Size"}}
				for _, name := range caches {
					urls, err := repo.ListURLs(ctx, name)
					if err != nil {
						return err
					}
					var size uint64
					for _, u := range urls {
						if resp, err := repo.GetResponse(ctx, name, u); err == nil {
							size += uint64(len(resp.Body))
						}
					}
					current := name == cli.app.Worker.MainCache() || name == cli.app.Worker.DataCache()
					t.add(!current, name, humanize.Comma(int64(len(urls))), humanize.Bytes(size))
				}
				fmt.Fprint(cli.out, t.render())
				return nil
			},
		},
		&cobra.Command{
			Use:       "clear all|data",
			Short:     "Empty and refill the offline caches",
			ValidArgs: []string{"all", "data"},
			Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
			RunE: func(cmd *cobra.Command, args []string) error {
				action := offline.ActionClearCacheData
				if args[0] == "all" {
					action = offline.ActionClearCacheAll
				}
				if err := cli.app.Worker.HandleMessage(cmd.Context(), action); err != nil {
					return err
				}
				fmt.Fprintln(cli.out, "cleared "+args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "install",
			Short: "Precache the offline page, the assets and the data, then drop the caches of other versions",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := cli.app.Worker.Install(cmd.Context()); err != nil {
					return err
				}
				if err := cli.app.Worker.Activate(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cli.out, "installed "+cli.app.Worker.MainCache()+", "+cli.app.Worker.DataCache())
				return nil
			},
		},
	)
	return cmd
}
