// Package stats reports tracked time and earnings per project.
package stats

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"

	"github.com/dfilippo/lavoro/internal/models"
	"github.com/dfilippo/lavoro/internal/timeutil"
	"github.com/dfilippo/lavoro/internal/ui"
	"github.com/dfilippo/lavoro/store"
)

var (
	opts *Opts
	db   store.DB
)

const (
	barChartChar  = "▇"
	noDataMsg     = "No sessions or expenses found for the specified time range"
)

// Opts bounds the reporting period and selects the output destination.
type Opts struct {
	StartTime time.Time
	EndTime   time.Time
	ProjectID *uuid.UUID
	Currency  string
	Stdout    io.Writer
}

// projectTotals accumulates the figures reported per project.
type projectTotals struct {
	name          string
	sessions      int
	minutes       int
	earningsCents int64
	expensesCents int64
	hasRate       bool
}

type summary struct {
	projects      map[uuid.UUID]*projectTotals
	totalMinutes  int
	totalSessions int
	openSessions  int
	earningsCents int64
	expensesCents int64
	weekday       map[int]int
}

const unassignedName = "(no project)"

// computeTotals aggregates sessions and expenses per project. Sessions
// without a project land in a synthetic unassigned bucket; open sessions
// are counted but contribute no minutes until they are stopped.
func computeTotals(
	sessions []*models.WorkSession,
	expenses []*models.Expense,
	projects []*models.Project,
) summary {
	totals := summary{
		projects: make(map[uuid.UUID]*projectTotals),
		weekday:  make(map[int]int),
	}

	for i := 0; i <= 6; i++ {
		totals.weekday[i] = 0
	}

	rates := make(map[uuid.UUID]int64)

	for _, proj := range projects {
		totals.projects[proj.ID] = &projectTotals{name: proj.Name}

		if proj.HourlyRateCents != nil {
			rates[proj.ID] = *proj.HourlyRateCents
			totals.projects[proj.ID].hasRate = true
		}
	}

	bucket := func(id *uuid.UUID) *projectTotals {
		key := uuid.Nil
		if id != nil {
			key = *id
		}

		pt, ok := totals.projects[key]
		if !ok {
			pt = &projectTotals{name: unassignedName}
			totals.projects[key] = pt
		}

		return pt
	}

	for _, sess := range sessions {
		pt := bucket(sess.ProjectID)

		pt.sessions++
		totals.totalSessions++

		if sess.Open() {
			totals.openSessions++
			continue
		}

		minutes := timeutil.SessionMinutes(sess)

		pt.minutes += minutes
		totals.totalMinutes += minutes
		totals.weekday[int(sess.Start.Weekday())] += minutes

		if sess.ProjectID != nil {
			if rate, ok := rates[*sess.ProjectID]; ok {
				earned := int64(minutes) * rate / 60
				pt.earningsCents += earned
				totals.earningsCents += earned
			}
		}
	}

	for _, exp := range expenses {
		pt := bucket(exp.ProjectID)

		pt.expensesCents += exp.AmountCents
		totals.expensesCents += exp.AmountCents
	}

	return totals
}

func projectRows(totals summary) [][]string {
	rows := make([]*projectTotals, 0, len(totals.projects))
	for _, pt := range totals.projects {
		if pt.sessions == 0 && pt.expensesCents == 0 {
			continue
		}

		rows = append(rows, pt)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].minutes != rows[j].minutes {
			return rows[i].minutes > rows[j].minutes
		}

		return rows[i].name < rows[j].name
	})

	data := [][]string{
		{"PROJECT", "SESSIONS", "HOURS", "EARNED", "EXPENSES"},
	}

	for _, pt := range rows {
		hrs, mins := timeutil.MinsToHoursAndMins(pt.minutes)

		earned := ""
		if pt.hasRate {
			earned = ui.Money(pt.earningsCents, opts.Currency)
		}

		data = append(data, []string{
			pt.name,
			strconv.Itoa(pt.sessions),
			fmt.Sprintf("%dh %02dm", hrs, mins),
			earned,
			ui.Money(pt.expensesCents, opts.Currency),
		})
	}

	return data
}

func getSummary(totals summary) string {
	header := fmt.Sprintf("%s\n", ui.Blue("Summary"))

	hrs, mins := timeutil.MinsToHoursAndMins(totals.totalMinutes)

	timeLogged := fmt.Sprintf(
		"Time logged: %s\n",
		ui.Green(fmt.Sprintf("%dh %02dm", hrs, mins)),
	)

	sessions := fmt.Sprintln("Sessions:", ui.Green(totals.totalSessions))

	earned := fmt.Sprintln(
		"Earned:",
		ui.Green(ui.Money(totals.earningsCents, opts.Currency)),
	)

	expenses := fmt.Sprintln(
		"Expenses:",
		ui.Red(ui.Money(totals.expensesCents, opts.Currency)),
	)

	out := header + timeLogged + sessions + earned + expenses

	if totals.openSessions > 0 {
		out += fmt.Sprintln(
			"Running now:",
			ui.Cyan(totals.openSessions),
		)
	}

	return out
}

// getWeekdayChart renders tracked minutes per day of the week.
func getWeekdayChart(data map[int]int) string {
	header := ui.Blue("\nWeekday breakdown (minutes)")

	var bars pterm.Bars

	for day := 0; day <= 6; day++ {
		bars = append(bars, pterm.Bar{
			Value: data[day],
			Label: time.Weekday(day).String(),
		})
	}

	chart, err := pterm.DefaultBarChart.
		WithHorizontalBarCharacter(barChartChar).
		WithHorizontal().
		WithShowValue().
		WithBars(bars).
		Srender()
	if err != nil {
		pterm.Error.Println(err)
		return ""
	}

	return header + chart
}

// Show displays the statistics for the set time period.
func Show() error {
	sessions, err := db.GetSessions(opts.StartTime, opts.EndTime, opts.ProjectID)
	if err != nil {
		return err
	}

	expenses, err := db.GetExpenses(opts.StartTime, opts.EndTime, opts.ProjectID)
	if err != nil {
		return err
	}

	// A period can hold expenses without any tracked time; only a period
	// with neither is reported as empty.
	if len(sessions) == 0 && len(expenses) == 0 {
		pterm.Info.Println(noDataMsg)
		return nil
	}

	projects, err := db.GetAllProjects()
	if err != nil {
		return err
	}

	totals := computeTotals(sessions, expenses, projects)

	reportingStart := opts.StartTime.Format("January 02, 2006")
	reportingEnd := opts.EndTime.Format("January 02, 2006")
	timePeriod := "Reporting period: " + reportingStart + " - " + reportingEnd

	header := pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgYellow)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Sprintfln("%s", timePeriod)

	fmt.Fprintln(opts.Stdout, strings.TrimSpace(header+getSummary(totals)))

	ui.PrintTable(projectRows(totals), opts.Stdout)

	if totals.totalMinutes > 0 {
		fmt.Fprintln(
			opts.Stdout,
			strings.TrimSpace(getWeekdayChart(totals.weekday)),
		)
	}

	return nil
}

func Init(dbClient store.DB, o *Opts) {
	db = dbClient
	opts = o
}
