package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/dfilippo/lavoro/internal/config"
	"github.com/dfilippo/lavoro/internal/models"
	"github.com/dfilippo/lavoro/internal/timeutil"
	"github.com/dfilippo/lavoro/internal/ui"
	"github.com/dfilippo/lavoro/remote"
	"github.com/dfilippo/lavoro/report"
	"github.com/dfilippo/lavoro/stats"
	"github.com/dfilippo/lavoro/store"
	"github.com/dfilippo/lavoro/sync"
	"github.com/dfilippo/lavoro/tracker"
)

// defaultPeriodDays is the reporting window applied when --from is absent.
const defaultPeriodDays = 7

// env bundles the collaborators behind every command.
type env struct {
	cfg     *config.Config
	db      store.DB
	tracker *tracker.Tracker
	engine  *sync.Engine
	queue   *sync.Queue
	gcs     *remote.GCS
}

func setup(ctx *cli.Context) (*env, error) {
	cfg, err := config.New(config.WithViperConfig(config.ConfigFilePath()))
	if err != nil {
		return nil, err
	}

	if cfg.Display.NoColor {
		ui.DisableStyling()
	}

	db, err := store.NewClient(config.DBFilePath())
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, db: db}

	var mirror tracker.Mirror

	if cfg.Sync.Enabled {
		rem, err := remote.NewGCS(
			ctx.Context,
			cfg.Sync.Bucket,
			cfg.Sync.CredentialsFile,
		)
		if err != nil {
			db.Close()
			return nil, err
		}

		e.gcs = rem
		e.engine = sync.New(db, rem, slog.Default())
		e.queue = sync.NewQueue(e.engine, slog.Default())
		mirror = e.queue

		err = e.ensureBootstrapped(ctx.Context)
		if err != nil {
			e.teardown()
			return nil, err
		}
	}

	e.tracker = tracker.New(db, mirror)

	return e, nil
}

// ensureBootstrapped runs the one-time full pull on a device that has never
// pulled before, so commands see records written by other devices instead of
// an empty store. Subsequent launches skip it; the explicit sync command
// covers later reconciliation.
func (e *env) ensureBootstrapped(ctx context.Context) error {
	last, err := e.db.GetMeta(sync.MetaLastPull)
	if err != nil {
		return err
	}

	if last != nil {
		return nil
	}

	return e.engine.Bootstrap(ctx)
}

// teardown waits for queued sync work before closing the store, so a
// short-lived command does not exit with pushes still in flight.
func (e *env) teardown() {
	if e.queue != nil {
		e.queue.Close()
	}

	if e.gcs != nil {
		_ = e.gcs.Close()
	}

	_ = e.db.Close()
}

// firstNonEmptyString returns its first non-empty argument, or "" if all
// arguments are empty.
func firstNonEmptyString(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}

	return ""
}

// timeFlag resolves a natural language time flag, falling back to the
// given default when the flag is absent.
func timeFlag(ctx *cli.Context, name string, fallback time.Time) (time.Time, error) {
	raw := ctx.String(name)
	if raw == "" {
		return fallback, nil
	}

	t, err := timeutil.FromStr(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse --%s value %q: %w", name, raw, err)
	}

	return t, nil
}

// period resolves the --from/--to reporting window, defaulting to the last
// seven days.
func period(ctx *cli.Context) (start, end time.Time, err error) {
	now := time.Now()

	start, err = timeFlag(
		ctx,
		"from",
		timeutil.RoundToStart(now.AddDate(0, 0, -(defaultPeriodDays-1))),
	)
	if err != nil {
		return start, end, err
	}

	end, err = timeFlag(ctx, "to", now)
	if err != nil {
		return start, end, err
	}

	return start, end, nil
}

func (e *env) rounding(ctx *cli.Context) (models.RoundingRule, error) {
	raw := firstNonEmptyString(ctx.String("rounding"), e.cfg.Defaults.Rounding)

	rule := models.RoundingRule(raw)
	if !rule.Valid() {
		return "", fmt.Errorf(
			"unknown rounding rule %q (must be one of %v)",
			raw,
			models.RoundingRules,
		)
	}

	return rule, nil
}

func (e *env) projectID(ctx *cli.Context) (*models.Project, error) {
	return e.tracker.ResolveOrCreateProject(ctx.String("project"))
}

func projectIDOf(proj *models.Project) *uuid.UUID {
	if proj == nil {
		return nil
	}

	return &proj.ID
}

// parseAmountCents converts a decimal money string like "42.50" to cents.
func parseAmountCents(s string) (int64, error) {
	s = strings.TrimSpace(s)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")

	if whole == "" {
		whole = "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount: %s", s)
	}

	var centsPart int64

	if frac != "" {
		if len(frac) > 2 {
			return 0, fmt.Errorf("amount has more than two decimal places: %s", s)
		}

		frac += strings.Repeat("0", 2-len(frac))

		centsPart, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount: %s", s)
		}
	}

	cents := units*100 + centsPart
	if neg {
		cents = -cents
	}

	return cents, nil
}

// clock returns the hour layout selected by the 24hr_clock setting.
func (e *env) clock() string {
	if e.cfg.Display.TwentyFourHour {
		return "15:04"
	}

	return "03:04 PM"
}

func (e *env) describeSession(sess *models.WorkSession) string {
	target := "no project"
	if name := e.projectName(sess); name != "" {
		target = name
	}

	return fmt.Sprintf(
		"%s (started %s)",
		target,
		sess.Start.Format(e.clock()),
	)
}

func (e *env) projectName(sess *models.WorkSession) string {
	if sess.ProjectID == nil {
		return ""
	}

	proj, err := e.db.GetProject(*sess.ProjectID)
	if err != nil || proj == nil {
		return ""
	}

	return proj.Name
}

// statusAction is the default action: it reports whether a session is
// currently running.
func statusAction(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.teardown()

	open, err := e.tracker.CurrentOpenSession()
	if err != nil {
		return err
	}

	if open == nil {
		pterm.Info.Println("No session is running. Start one with 'lavoro start'")
		return nil
	}

	elapsed := time.Since(open.Start).Round(time.Minute)

	pterm.Success.Printfln(
		"Tracking %s for %s",
		e.describeSession(open),
		ui.Green(elapsed),
	)

	return nil
}

func startAction(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.teardown()

	rounding, err := e.rounding(ctx)
	if err != nil {
		return err
	}

	at, err := timeFlag(ctx, "since", time.Now())
	if err != nil {
		return err
	}

	proj, err := e.projectID(ctx)
	if err != nil {
		return err
	}

	running, err := e.tracker.CurrentOpenSession()
	if err != nil {
		return err
	}

	sess, err := e.tracker.StartSession(at, projectIDOf(proj), rounding)
	if err != nil {
		return err
	}

	if running != nil {
		pterm.Warning.Printfln(
			"A session is already running: %s",
			e.describeSession(running),
		)

		return nil
	}

	if ctx.String("note") != "" {
		sess.Note = ctx.String("note")

		err = e.tracker.EditSession(sess)
		if err != nil {
			return err
		}
	}

	pterm.Success.Printfln(
		"Started tracking %s",
		e.describeSession(sess),
	)

	return nil
}

func stopAction(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.teardown()

	at, err := timeFlag(ctx, "at", time.Now())
	if err != nil {
		return err
	}

	breakMinutes := ctx.Int("break")
	if !ctx.IsSet("break") {
		breakMinutes = e.cfg.Defaults.BreakMinutes
	}

	err = e.tracker.StopOpenSession(breakMinutes, at)
	if err != nil {
		return err
	}

	pterm.Success.Println("Session stopped")

	return nil
}

func switchAction(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.teardown()

	rounding, err := e.rounding(ctx)
	if err != nil {
		return err
	}

	at, err := timeFlag(ctx, "at", time.Now())
	if err != nil {
		return err
	}

	proj, err := e.projectID(ctx)
	if err != nil {
		return err
	}

	sess, err := e.tracker.SwitchOpenSession(projectIDOf(proj), rounding, at)
	if err != nil {
		return err
	}

	pterm.Success.Printfln(
		"Now tracking %s",
		e.describeSession(sess),
	)

	return nil
}

func addAction(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.teardown()

	rounding, err := e.rounding(ctx)
	if err != nil {
		return err
	}

	from, err := timeFlag(ctx, "from", time.Time{})
	if err != nil {
		return err
	}

	to, err := timeFlag(ctx, "to", time.Time{})
	if err != nil {
		return err
	}

	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("both --from and --to are required")
	}

	if !to.After(from) {
		return fmt.Errorf("--to must be after --from")
	}

	proj, err := e.projectID(ctx)
	if err != nil {
		return err
	}

	sess, err := e.tracker.CreateClosedSession(
		from,
		to,
		ctx.Int("break"),
		projectIDOf(proj),
		ctx.String("note"),
		rounding,
	)
	if err != nil {
		return err
	}

	hrs, mins := timeutil.MinsToHoursAndMins(timeutil.SessionMinutes(sess))

	pterm.Success.Printfln(
		"Recorded %dh %02dm for %s",
		hrs,
		mins,
		e.describeSession(sess),
	)

	return nil
}

func discardAction(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.teardown()

	err = e.tracker.DiscardOpenSession()
	if err != nil {
		return err
	}

	pterm.Success.Println("Session discarded")

	return nil
}

func listAction(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.teardown()

	start, end, err := period(ctx)
	if err != nil {
		return err
	}

	proj, err := e.projectID(ctx)
	if err != nil {
		return err
	}

	sessions, err := e.tracker.Sessions(start, end, projectIDOf(proj))
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		return printJSON(sessions)
	}

	return listSessions(e, sessions)
}

func totalAction(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.teardown()

	start, end, err := period(ctx)
	if err != nil {
		return err
	}

	total, err := e.tracker.TotalMinutes(start, end)
	if err != nil {
		return err
	}

	hrs, mins := timeutil.MinsToHoursAndMins(total)

	pterm.Printfln(
		"%s payable between %s and %s",
		ui.Green(fmt.Sprintf("%dh %02dm", hrs, mins)),
		start.Format("Jan 02 15:04"),
		end.Format("Jan 02 15:04"),
	)

	return nil
}

func expenseAction(ctx *cli.Context) error {
	raw := firstNonEmptyString(ctx.String("amount"), ctx.Args().First())
	if raw == "" {
		return fmt.Errorf("an amount is required, e.g. lavoro expense 42.50 -c travel")
	}

	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.teardown()

	amount, err := parseAmountCents(raw)
	if err != nil {
		return err
	}

	date, err := timeFlag(ctx, "date", timeutil.RoundToStart(time.Now()))
	if err != nil {
		return err
	}

	exp, err := e.tracker.AddExpense(
		date,
		amount,
		ctx.String("category"),
		ctx.String("note"),
		ctx.String("receipt"),
		ctx.String("project"),
	)
	if err != nil {
		return err
	}

	pterm.Success.Printfln(
		"Logged %s for %s",
		ui.Money(exp.AmountCents, e.cfg.Defaults.Currency),
		exp.Category,
	)

	return nil
}

func expensesAction(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.teardown()

	start, end, err := period(ctx)
	if err != nil {
		return err
	}

	proj, err := e.projectID(ctx)
	if err != nil {
		return err
	}

	expenses, err := e.tracker.Expenses(start, end, projectIDOf(proj))
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		return printJSON(expenses)
	}

	return listExpenses(e, expenses)
}

func rateAction(ctx *cli.Context) error {
	if ctx.Args().Len() == 0 {
		return fmt.Errorf("an hourly rate is required, e.g. lavoro rate 85 -p Acme")
	}

	if ctx.String("project") == "" {
		return fmt.Errorf("--project is required")
	}

	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.teardown()

	rate, err := parseAmountCents(ctx.Args().First())
	if err != nil {
		return err
	}

	proj, err := e.projectID(ctx)
	if err != nil {
		return err
	}

	err = e.tracker.SetProjectRate(proj, rate)
	if err != nil {
		return err
	}

	pterm.Success.Printfln(
		"%s now bills at %s per hour",
		proj.Name,
		ui.Money(rate, e.cfg.Defaults.Currency),
	)

	return nil
}

func statsAction(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.teardown()

	start, end, err := period(ctx)
	if err != nil {
		return err
	}

	proj, err := e.projectID(ctx)
	if err != nil {
		return err
	}

	stats.Init(e.db, &stats.Opts{
		StartTime: start,
		EndTime:   end,
		ProjectID: projectIDOf(proj),
		Currency:  e.cfg.Defaults.Currency,
		Stdout:    config.Stdout,
	})

	return stats.Show()
}

func exportAction(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.teardown()

	month, err := timeFlag(ctx, "month", time.Now())
	if err != nil {
		return err
	}

	res, err := report.Monthly(e.db, month, config.ExportDirPath())
	if err != nil {
		return err
	}

	pterm.Success.Printfln(
		"Exported %d sessions and %d expenses to %s",
		res.SessionCount,
		res.ExpenseCount,
		ui.Cyan(res.Path),
	)

	return nil
}

func syncAction(ctx *cli.Context) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.teardown()

	if e.engine == nil {
		return fmt.Errorf(
			"sync is not configured: enable it in %s",
			config.ConfigFilePath(),
		)
	}

	if !ctx.Bool("pull-only") {
		err = e.engine.PushAll(ctx.Context)
		if err != nil {
			return err
		}
	}

	if !ctx.Bool("push-only") {
		if ctx.Bool("full") {
			err = e.engine.Bootstrap(ctx.Context)
		} else {
			err = e.engine.PullAll(ctx.Context)
		}

		if err != nil {
			return err
		}
	}

	pterm.Success.Println("Sync complete")

	return nil
}

// editConfigAction opens the config file in the user's default editor.
func editConfigAction(_ *cli.Context) error {
	defaultEditor := "nano"

	if runtime.GOOS == "windows" {
		defaultEditor = "C:\\Windows\\system32\\notepad.exe"
	}

	editor := firstNonEmptyString(
		os.Getenv("VISUAL"),
		os.Getenv("EDITOR"),
		defaultEditor,
	)

	cmd := exec.Command(editor, config.ConfigFilePath())

	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout

	return cmd.Run()
}
