// Package report exports a month of tracked work to a zip archive holding
// one CSV file each for sessions, expenses, and per-project summary lines.
package report

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dfilippo/lavoro/internal/models"
	"github.com/dfilippo/lavoro/internal/timeutil"
	"github.com/dfilippo/lavoro/store"
)

const (
	sessionsFileName = "sessions.csv"
	expensesFileName = "expenses.csv"
	summaryFileName  = "summary.csv"
)

// Result describes a finished export.
type Result struct {
	Path         string
	SessionCount int
	ExpenseCount int
}

// Monthly writes the archive for the month containing the given date into
// dir and reports what went into it. Open sessions are excluded: the
// export is a billing artifact and only closed intervals are billable.
func Monthly(db store.DB, month time.Time, dir string) (*Result, error) {
	start, end := timeutil.MonthBounds(month)

	sessions, err := db.GetSessions(start, end, nil)
	if err != nil {
		return nil, err
	}

	closed := make([]*models.WorkSession, 0, len(sessions))

	for _, sess := range sessions {
		if !sess.Open() {
			closed = append(closed, sess)
		}
	}

	expenses, err := db.GetExpenses(start, end, nil)
	if err != nil {
		return nil, err
	}

	if len(closed) == 0 && len(expenses) == 0 {
		return nil, errNothingToExport.Fmt(month.Format("January 2006"))
	}

	projects, err := db.GetAllProjects()
	if err != nil {
		return nil, err
	}

	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, errCreateExportDir.Wrap(err)
	}

	path := filepath.Join(
		dir,
		fmt.Sprintf("lavoro-%s.zip", month.Format("2006-01")),
	)

	err = writeArchive(path, closed, expenses, projects)
	if err != nil {
		return nil, err
	}

	return &Result{
		Path:         path,
		SessionCount: len(closed),
		ExpenseCount: len(expenses),
	}, nil
}

func writeArchive(
	path string,
	sessions []*models.WorkSession,
	expenses []*models.Expense,
	projects []*models.Project,
) error {
	f, err := os.Create(path)
	if err != nil {
		return errWriteFailed.Fmt(path).Wrap(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	names := projectNames(projects)

	err = writeCSV(zw, sessionsFileName, sessionRows(sessions, names))
	if err != nil {
		return err
	}

	err = writeCSV(zw, expensesFileName, expenseRows(expenses, names))
	if err != nil {
		return err
	}

	err = writeCSV(zw, summaryFileName, summaryRows(sessions, expenses, names))
	if err != nil {
		return err
	}

	err = zw.Close()
	if err != nil {
		return errArchiveFailed.Wrap(err)
	}

	return f.Sync()
}

func writeCSV(zw *zip.Writer, name string, rows [][]string) error {
	w, err := zw.Create(name)
	if err != nil {
		return errWriteFailed.Fmt(name).Wrap(err)
	}

	cw := csv.NewWriter(w)

	err = cw.WriteAll(rows)
	if err != nil {
		return errWriteFailed.Fmt(name).Wrap(err)
	}

	return nil
}

func projectNames(projects []*models.Project) map[uuid.UUID]string {
	names := make(map[uuid.UUID]string, len(projects))

	for _, proj := range projects {
		names[proj.ID] = proj.Name
	}

	return names
}

func lookupName(names map[uuid.UUID]string, id *uuid.UUID) string {
	if id == nil {
		return ""
	}

	return names[*id]
}

// cents renders a cent amount as a plain decimal so spreadsheet imports
// parse it as a number.
func cents(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func sessionRows(
	sessions []*models.WorkSession,
	names map[uuid.UUID]string,
) [][]string {
	rows := [][]string{
		{"date", "start", "end", "break_minutes", "payable_minutes", "project", "note"},
	}

	// Oldest first reads naturally in a monthly statement.
	for i := len(sessions) - 1; i >= 0; i-- {
		sess := sessions[i]

		rows = append(rows, []string{
			sess.Start.Format("2006-01-02"),
			sess.Start.Format("15:04"),
			sess.End.Format("15:04"),
			strconv.Itoa(sess.BreakMinutes),
			strconv.Itoa(timeutil.SessionMinutes(sess)),
			lookupName(names, sess.ProjectID),
			sess.Note,
		})
	}

	return rows
}

func expenseRows(
	expenses []*models.Expense,
	names map[uuid.UUID]string,
) [][]string {
	rows := [][]string{
		{"date", "amount", "category", "project", "note"},
	}

	for i := len(expenses) - 1; i >= 0; i-- {
		exp := expenses[i]

		rows = append(rows, []string{
			exp.Date.Format("2006-01-02"),
			cents(exp.AmountCents),
			exp.Category,
			lookupName(names, exp.ProjectID),
			exp.Note,
		})
	}

	return rows
}

func summaryRows(
	sessions []*models.WorkSession,
	expenses []*models.Expense,
	names map[uuid.UUID]string,
) [][]string {
	type totals struct {
		minutes int
		cents   int64
	}

	perProject := make(map[string]*totals)

	for _, sess := range sessions {
		name := lookupName(names, sess.ProjectID)

		t, ok := perProject[name]
		if !ok {
			t = &totals{}
			perProject[name] = t
		}

		t.minutes += timeutil.SessionMinutes(sess)
	}

	for _, exp := range expenses {
		name := lookupName(names, exp.ProjectID)

		t, ok := perProject[name]
		if !ok {
			t = &totals{}
			perProject[name] = t
		}

		t.cents += exp.AmountCents
	}

	ordered := make([]string, 0, len(perProject))
	for name := range perProject {
		ordered = append(ordered, name)
	}

	sort.Strings(ordered)

	rows := [][]string{
		{"project", "payable_minutes", "expenses"},
	}

	for _, name := range ordered {
		t := perProject[name]

		rows = append(rows, []string{
			name,
			strconv.Itoa(t.minutes),
			cents(t.cents),
		})
	}

	return rows
}
