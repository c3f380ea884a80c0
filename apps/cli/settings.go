package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gimvicurnik/urnik/core/settings"
)

var errInvalidPair = errors.New("expected key=value")

// list valued settings, comma separated on the command line
var listSettings = map[string]bool{"entityList": true}

func (cli *commandLine) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return usage(cmd)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the settings",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return cli.printSettings(cli.app.Settings.Get())
			},
		},
		&cobra.Command{
			Use:   "set key=value...",
			Short: "Change the settings, e.g. `set entityType=class entityList=1A,2B`",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				upd, err := parseSettings(args)
				if err != nil {
					return err
				}
				s, err := cli.app.Settings.Update(cmd.Context(), upd)
				if err != nil {
					return err
				}
				if upd.EntityType != nil || upd.EntityList != nil {
					cli.app.Session.ResetToSettings()
				}
				return cli.printSettings(s)
			},
		},
	)
	return cmd
}

func (cli *commandLine) printSettings(s settings.Settings) error {
	data, err := json.MarshalIndent(s.Public(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding settings")
	}
	_, err = fmt.Fprintln(cli.out, string(data))
	return err
}

// parseSettings builds the settings update of `key=value` pairs. Booleans are parsed, list settings are split on commas.
func parseSettings(pairs []string) (settings.UpdateSettings, error) {
	fields := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return settings.UpdateSettings{}, errors.Wrap(errInvalidPair, pair)
		}
		switch {
		case listSettings[key]:
			fields[key] = strings.Split(value, ",")
		default:
			if b, err := strconv.ParseBool(value); err == nil {
				fields[key] = b
			} else {
				fields[key] = value
			}
		}
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return settings.UpdateSettings{}, errors.Wrap(err, "encoding settings")
	}
	var upd settings.UpdateSettings
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err = dec.Decode(&upd); err != nil {
		return settings.UpdateSettings{}, errors.Wrap(err, "invalid settings")
	}
	return upd, nil
}

func (cli *commandLine) secretCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "secret moodle-token|circulars-password",
		Short:     "Store a secret setting, read from the terminal",
		ValidArgs: []string{"moodle-token", "circulars-password"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cli.out, "Enter "+args[0]+":")
			secret, err := readPasswordFunc(int(os.Stdin.Fd()))
			fmt.Fprintln(cli.out)
			if err != nil {
				return errors.Wrap(err, "reading secret")
			}
			if len(secret) == 0 {
				return usage(cmd)
			}

			value := string(secret)
			var upd settings.UpdateSettings
			if args[0] == "moodle-token" {
				upd.MoodleToken = &value
			} else {
				upd.CircularsPassword = &value
			}
			_, err = cli.app.Settings.Update(cmd.Context(), upd)
			return err
		},
	}
}
