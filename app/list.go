package app

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"

	"github.com/dfilippo/lavoro/internal/config"
	"github.com/dfilippo/lavoro/internal/models"
	"github.com/dfilippo/lavoro/internal/timeutil"
	"github.com/dfilippo/lavoro/internal/ui"
)

const (
	noSessionsMsg = "No sessions found for the specified time range"
	noExpensesMsg = "No expenses found for the specified time range"
)

func printJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	pterm.Println(string(b))

	return nil
}

func listSessions(e *env, sessions []*models.WorkSession) error {
	if len(sessions) == 0 {
		pterm.Info.Println(noSessionsMsg)
		return nil
	}

	data := [][]string{
		{"#", "DATE", "START", "END", "BREAK", "PAYABLE", "PROJECT", "NOTE"},
	}

	for i, sess := range sessions {
		endText := ui.Cyan("running")
		payable := ""

		if !sess.Open() {
			endText = sess.End.Format(e.clock())

			hrs, mins := timeutil.MinsToHoursAndMins(
				timeutil.SessionMinutes(sess),
			)
			payable = fmt.Sprintf("%dh %02dm", hrs, mins)
		}

		data = append(data, []string{
			fmt.Sprintf("%d", i+1),
			sess.Start.Format("Jan 02, 2006"),
			sess.Start.Format(e.clock()),
			endText,
			fmt.Sprintf("%dm", sess.BreakMinutes),
			payable,
			e.projectName(sess),
			sess.Note,
		})
	}

	ui.PrintTable(data, config.Stdout)

	return nil
}

func listExpenses(e *env, expenses []*models.Expense) error {
	if len(expenses) == 0 {
		pterm.Info.Println(noExpensesMsg)
		return nil
	}

	data := [][]string{
		{"#", "DATE", "AMOUNT", "CATEGORY", "PROJECT", "NOTE"},
	}

	var total int64

	for i, exp := range expenses {
		name := ""

		if exp.ProjectID != nil {
			proj, err := e.db.GetProject(*exp.ProjectID)
			if err == nil && proj != nil {
				name = proj.Name
			}
		}

		total += exp.AmountCents

		data = append(data, []string{
			fmt.Sprintf("%d", i+1),
			exp.Date.Format("Jan 02, 2006"),
			ui.Money(exp.AmountCents, e.cfg.Defaults.Currency),
			exp.Category,
			name,
			exp.Note,
		})
	}

	ui.PrintTable(data, config.Stdout)

	pterm.Printfln(
		"Total: %s",
		ui.Red(ui.Money(total, e.cfg.Defaults.Currency)),
	)

	return nil
}
