package main

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gimvicurnik/urnik/apps/shared"
	"github.com/gimvicurnik/urnik/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword      // mockable
	migrateFunc      = database.RunMigrations // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	app *shared.App
	st  *shared.Storage
	out io.Writer
}

func newCommandLine(app *shared.App, st *shared.Storage, out io.Writer) *commandLine {
	return &commandLine{app: app, st: st, out: out}
}

func (cli *commandLine) root() *cobra.Command {
	root := &cobra.Command{
		Use:           "urnik",
		Short:         "Refresh and inspect the timetable data",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	root.AddCommand(
		cli.updateCmd(),
		cli.showCmd(),
		cli.settingsCmd(),
		cli.secretCmd(),
		cli.cacheCmd(),
		cli.migrateCmd(),
	)
	return root
}

// run executes the command line `args` (without the program name).
func (cli *commandLine) run(ctx context.Context, args []string) error {
	root := cli.root()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// usage prints the usage of `cmd` and returns errHelp.
func usage(cmd *cobra.Command) error {
	_ = cmd.Usage()
	return errHelp
}
