// Package app assembles the command-line interface.
package app

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/dfilippo/lavoro/internal/config"
	"github.com/dfilippo/lavoro/internal/ui"
)

const envNoColor = "NO_COLOR"

// Get retrieves the lavoro app instance.
func Get() *cli.App {
	lavoroApp := &cli.App{
		Name: "lavoro",
		Usage: `
		Lavoro is a time and expense tracker for freelancers. It records work
		sessions against projects, applies billing-friendly rounding, and
		mirrors everything to cloud storage so multiple machines stay in
		sync.`,
		UsageText:            "[COMMAND] [OPTIONS]",
		Version:              config.Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:   "start",
				Usage:  "Start tracking a work session",
				Action: startAction,
				Flags: []cli.Flag{
					projectFlag,
					noteFlag,
					sinceFlag,
					roundingFlag,
				},
			},
			{
				Name:   "stop",
				Usage:  "Stop the running session",
				Action: stopAction,
				Flags:  []cli.Flag{breakFlag, atFlag},
			},
			{
				Name:   "switch",
				Usage:  "Stop the running session and start one for another project",
				Action: switchAction,
				Flags:  []cli.Flag{projectFlag, roundingFlag, atFlag},
			},
			{
				Name:   "add",
				Usage:  "Record a finished session after the fact",
				Action: addAction,
				Flags: []cli.Flag{
					projectFlag,
					noteFlag,
					fromFlag,
					toFlag,
					breakFlag,
					roundingFlag,
				},
			},
			{
				Name:   "discard",
				Usage:  "Delete the running session without recording it",
				Action: discardAction,
			},
			{
				Name:   "list",
				Usage:  "Print a table of sessions within a time period",
				Action: listAction,
				Flags:  []cli.Flag{fromFlag, toFlag, projectFlag, jsonFlag},
			},
			{
				Name:   "total",
				Usage:  "Print the payable hours within a time period",
				Action: totalAction,
				Flags:  []cli.Flag{fromFlag, toFlag},
			},
			{
				Name:      "expense",
				Usage:     "Log an expense, e.g. lavoro expense 42.50 -c travel",
				ArgsUsage: "AMOUNT",
				Action:    expenseAction,
				Flags: []cli.Flag{
					amountFlag,
					categoryFlag,
					noteFlag,
					projectFlag,
					dateFlag,
					receiptFlag,
				},
			},
			{
				Name:   "expenses",
				Usage:  "Print a table of expenses within a time period",
				Action: expensesAction,
				Flags:  []cli.Flag{fromFlag, toFlag, projectFlag, jsonFlag},
			},
			{
				Name:      "rate",
				Usage:     "Set a project's hourly rate, e.g. lavoro rate 85 -p Acme",
				ArgsUsage: "AMOUNT",
				Action:    rateAction,
				Flags:     []cli.Flag{projectFlag},
			},
			{
				Name:   "stats",
				Usage:  "Report tracked time and earnings per project",
				Action: statsAction,
				Flags:  []cli.Flag{fromFlag, toFlag, projectFlag},
			},
			{
				Name:   "export",
				Usage:  "Export a month of sessions and expenses to a zip archive",
				Action: exportAction,
				Flags:  []cli.Flag{monthFlag},
			},
			{
				Name:   "sync",
				Usage:  "Push local changes and pull updates from the cloud mirror",
				Action: syncAction,
				Flags:  []cli.Flag{fullFlag, pushOnlyFlag, pullOnlyFlag},
			},
			{
				Name:   "edit-config",
				Usage:  "Edit the configuration file",
				Action: editConfigAction,
			},
		},
		Flags:  []cli.Flag{noColorFlag},
		Action: statusAction,
		Before: beforeAction,
	}

	return lavoroApp
}

func beforeAction(ctx *cli.Context) error {
	pterm.Error.MessageStyle = pterm.NewStyle(pterm.FgRed)
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}

	if _, exists := os.LookupEnv(envNoColor); exists {
		ui.DisableStyling()
	}

	if ctx.Bool("no-color") {
		ui.DisableStyling()
	}

	return nil
}
