package app

import "github.com/urfave/cli/v2"

var (
	projectFlag = &cli.StringFlag{
		Name:    "project",
		Aliases: []string{"p"},
		Usage:   "Project name. Created on first use",
	}

	noteFlag = &cli.StringFlag{
		Name:    "note",
		Aliases: []string{"n"},
		Usage:   "Attach a free-form note",
	}

	sinceFlag = &cli.StringFlag{
		Name:  "since",
		Usage: "Start the session in the past (e.g. '20 mins ago')",
	}

	atFlag = &cli.StringFlag{
		Name:  "at",
		Usage: "Use this instant instead of now (e.g. '5 mins ago', '17:30')",
	}

	fromFlag = &cli.StringFlag{
		Name:  "from",
		Usage: "Beginning of the reporting period (e.g. 'monday', '2025-04-01')",
	}

	toFlag = &cli.StringFlag{
		Name:  "to",
		Usage: "End of the reporting period. Defaults to now",
	}

	breakFlag = &cli.IntFlag{
		Name:    "break",
		Aliases: []string{"b"},
		Usage:   "Unpaid break minutes to subtract from the session",
	}

	roundingFlag = &cli.StringFlag{
		Name:    "rounding",
		Aliases: []string{"r"},
		Usage:   "Rounding rule: off, nearest5, nearest15, or nearest30",
	}

	categoryFlag = &cli.StringFlag{
		Name:    "category",
		Aliases: []string{"c"},
		Usage:   "Expense category (e.g. travel, meals, equipment)",
	}

	dateFlag = &cli.StringFlag{
		Name:  "date",
		Usage: "Date of the expense. Defaults to today",
	}

	receiptFlag = &cli.StringFlag{
		Name:  "receipt",
		Usage: "Path to a receipt image or PDF",
	}

	monthFlag = &cli.StringFlag{
		Name:    "month",
		Aliases: []string{"m"},
		Usage:   "Month to export (e.g. 'april', '2025-04'). Defaults to the current month",
	}

	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the results as JSON",
	}

	fullFlag = &cli.BoolFlag{
		Name:  "full",
		Usage: "Discard cached sync state and pull everything again",
	}

	pushOnlyFlag = &cli.BoolFlag{
		Name:  "push-only",
		Usage: "Mirror local changes without pulling remote updates",
	}

	pullOnlyFlag = &cli.BoolFlag{
		Name:  "pull-only",
		Usage: "Apply remote updates without pushing local changes",
	}

	amountFlag = &cli.StringFlag{
		Name:    "amount",
		Aliases: []string{"a"},
		Usage:   "Amount spent, e.g. 42.50",
	}

	noColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable coloured output",
	}
)
