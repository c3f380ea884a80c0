package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gimvicurnik/urnik/apps/shared"
	"github.com/gimvicurnik/urnik/core"
	emailsvc "github.com/gimvicurnik/urnik/services/email"
	logsvc "github.com/gimvicurnik/urnik/services/logger"
)

func main() {
	code := 0
	defer func() { os.Exit(code) }()

	conf, err := core.NewConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		code = 1
		return
	}
	logger := logsvc.NewRollbarLogger(conf)
	defer logger.Sync()

	ctx := context.Background()
	st, err := shared.OpenStorage(ctx, conf)
	if err != nil {
		logger.Error("setting up storage", err)
		code = 1
		return
	}
	defer func() { _ = st.Close() }()

	app, err := shared.New(ctx, shared.Deps{
		Conf:   conf,
		Logger: logger,
		State:  st.State,
		Cache:  st.Cache,
		Mailer: emailsvc.NewService(conf, logger),
	})
	if err != nil {
		logger.Error("setting up application", err)
		code = 1
		return
	}
	defer app.Close()

	cli := newCommandLine(app, st, os.Stdout)
	if err = cli.run(ctx, os.Args[1:]); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		code = 1
	}
}
