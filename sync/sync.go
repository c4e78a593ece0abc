// Package sync keeps the local store and the cloud mirror eventually
// consistent. Conflicts are resolved record-by-record with last-write-wins
// on the updatedAt timestamp; there are no vector clocks, no operation log,
// and no tombstones.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dfilippo/lavoro/internal/models"
	"github.com/dfilippo/lavoro/remote"
	"github.com/dfilippo/lavoro/store"
)

const pullPageSize = 100

// legacyCursorPrefix marks pagination tokens written by older builds; they
// are purged on first run since the remote is re-pulled in full anyway.
const legacyCursorPrefix = "sync_cursor_"

// MetaLastPull is the metadata key recording the time of the last
// successful full pull.
const MetaLastPull = "sync_last_pull"

// Engine reconciles local records against the cloud mirror.
type Engine struct {
	db     store.DB
	remote remote.Store
	logger *slog.Logger
}

// New returns an engine for the given collaborators.
func New(db store.DB, rem remote.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		db:     db,
		remote: rem,
		logger: logger,
	}
}

// Bootstrap prepares the engine on application launch: legacy pagination
// state is purged, then the mirror is pulled in full so local data reflects
// other devices before it is relied upon.
func (e *Engine) Bootstrap(ctx context.Context) error {
	err := e.db.DeleteMetaPrefix(legacyCursorPrefix)
	if err != nil {
		return fmt.Errorf("purging legacy sync state: %w", err)
	}

	return e.PullAll(ctx)
}

// PushAll mirrors every local record to the remote store. The three record
// types are pushed concurrently; within a type all records go out in one
// non-atomic batch, so individual stale records fail without affecting the
// rest.
func (e *Engine) PushAll(ctx context.Context) error {
	var g errgroup.Group

	g.Go(func() error { return e.pushProjects(ctx) })
	g.Go(func() error { return e.pushSessions(ctx) })
	g.Go(func() error { return e.pushExpenses(ctx) })

	return g.Wait()
}

func (e *Engine) pushProjects(ctx context.Context) error {
	projects, err := e.db.GetAllProjects()
	if err != nil {
		return fmt.Errorf("fetching projects: %w", err)
	}

	records := make([]*remote.Record, 0, len(projects))
	for _, p := range projects {
		records = append(records, projectRecord(p))
	}

	return e.save(ctx, records)
}

func (e *Engine) pushSessions(ctx context.Context) error {
	sessions, err := e.db.GetAllSessions()
	if err != nil {
		return fmt.Errorf("fetching sessions: %w", err)
	}

	records := make([]*remote.Record, 0, len(sessions))
	for _, s := range sessions {
		records = append(records, sessionRecord(s))
	}

	return e.save(ctx, records)
}

func (e *Engine) pushExpenses(ctx context.Context) error {
	expenses, err := e.db.GetAllExpenses()
	if err != nil {
		return fmt.Errorf("fetching expenses: %w", err)
	}

	records := make([]*remote.Record, 0, len(expenses))
	for _, exp := range expenses {
		records = append(records, expenseRecord(exp))
	}

	return e.save(ctx, records)
}

// save adopts each record's current remote concurrency token and submits
// the batch. A record that exists remotely is replaced wholesale, so the
// push side always wins once it holds the latest token; the updatedAt
// comparison belongs to the pull side.
func (e *Engine) save(ctx context.Context, records []*remote.Record) error {
	if len(records) == 0 {
		return nil
	}

	for _, rec := range records {
		existing, err := e.remote.GetRecord(ctx, rec.Key)

		switch {
		case err == nil:
			rec.ChangeTag = existing.ChangeTag
		case errors.Is(err, remote.ErrNotFound), remote.IsFirstRun(err):
			rec.ChangeTag = 0
		default:
			return fmt.Errorf("fetching remote %s: %w", rec.Key, err)
		}
	}

	results := e.remote.BatchWrite(ctx, records, nil, false)

	for _, res := range results {
		if res.Err != nil {
			// Partial failures are expected under concurrent pushes;
			// the record goes out with the next push.
			e.logger.Warn(
				"record push failed",
				"key", res.Key,
				"error", res.Err,
			)
		}
	}

	return nil
}

// PullAll applies every remote record to the local store. Record types are
// pulled concurrently, so a session can arrive before its project; the
// dangling reference resolves on a later pull.
func (e *Engine) PullAll(ctx context.Context) error {
	var g errgroup.Group

	g.Go(func() error {
		return e.pull(ctx, models.RecordTypeProject, e.upsertProject)
	})
	g.Go(func() error {
		return e.pull(ctx, models.RecordTypeWorkSession, e.upsertSession)
	})
	g.Go(func() error {
		return e.pull(ctx, models.RecordTypeExpense, e.upsertExpense)
	})

	err := g.Wait()
	if err != nil {
		return err
	}

	err = e.db.PutMeta(
		MetaLastPull,
		[]byte(time.Now().UTC().Format(time.RFC3339)),
	)
	if err != nil {
		return fmt.Errorf("recording pull time: %w", err)
	}

	return nil
}

// pull pages through all remote records of one type and upserts each one
// immediately, so a failure mid-way preserves everything already applied.
// There is no retry: the next launch or user action pulls again.
func (e *Engine) pull(
	ctx context.Context,
	recordType string,
	upsert func(*remote.Record) error,
) error {
	cursor := ""

	for {
		records, next, err := e.remote.QueryPage(
			ctx,
			recordType,
			cursor,
			pullPageSize,
		)
		if err != nil {
			if remote.IsFirstRun(err) {
				// Nothing has been pushed yet; the first push will
				// provision the mirror.
				return nil
			}

			return fmt.Errorf("pulling %s records: %w", recordType, err)
		}

		for _, rec := range records {
			err := upsert(rec)
			if err != nil {
				return fmt.Errorf("applying %s record: %w", recordType, err)
			}
		}

		if next == "" {
			return nil
		}

		cursor = next
	}
}

// upsertProject applies one remote project record. Records missing required
// fields are skipped, not fatal.
func (e *Engine) upsertProject(rec *remote.Record) error {
	id, okID := fieldUUID(rec.Fields, fieldID)
	name, okName := fieldString(rec.Fields, fieldName)
	updatedAt, okUpdated := fieldTime(rec.Fields, fieldUpdatedAt)

	if !okID || !okName || !okUpdated {
		e.logger.Debug("skipping malformed project record", "key", rec.Key)
		return nil
	}

	local, err := e.db.GetProject(id)
	if err != nil {
		return err
	}

	if local != nil && updatedAt.Before(local.UpdatedAt) {
		// Local copy is newer; the next push will win remotely.
		return nil
	}

	proj := &models.Project{ID: id, Name: name, UpdatedAt: updatedAt}

	if code, ok := fieldString(rec.Fields, fieldCode); ok {
		proj.Code = code
	}

	if colorHex, ok := fieldString(rec.Fields, fieldColorHex); ok {
		proj.ColorHex = colorHex
	}

	if lat, ok := fieldFloat(rec.Fields, fieldGeofenceLat); ok {
		proj.GeofenceLat = &lat
	}

	if lon, ok := fieldFloat(rec.Fields, fieldGeofenceLon); ok {
		proj.GeofenceLon = &lon
	}

	if radius, ok := fieldFloat(rec.Fields, fieldGeofenceRadius); ok {
		proj.GeofenceRadius = &radius
	}

	if rate, ok := fieldInt(rec.Fields, fieldHourlyRate); ok {
		proj.HourlyRateCents = &rate
	}

	if local != nil {
		proj.CreatedAt = local.CreatedAt
	} else if createdAt, ok := fieldTime(rec.Fields, fieldCreatedAt); ok {
		proj.CreatedAt = createdAt
	} else {
		proj.CreatedAt = updatedAt
	}

	return e.db.UpdateProject(proj)
}

// upsertSession applies one remote work session record.
func (e *Engine) upsertSession(rec *remote.Record) error {
	id, okID := fieldUUID(rec.Fields, fieldID)
	start, okStart := fieldTime(rec.Fields, fieldStart)
	updatedAt, okUpdated := fieldTime(rec.Fields, fieldUpdatedAt)

	if !okID || !okStart || !okUpdated {
		e.logger.Debug("skipping malformed session record", "key", rec.Key)
		return nil
	}

	local, err := e.db.GetSession(id)
	if err != nil {
		return err
	}

	if local != nil && updatedAt.Before(local.UpdatedAt) {
		return nil
	}

	sess := &models.WorkSession{
		ID:        id,
		Start:     start,
		Rounding:  models.RoundingOff,
		UpdatedAt: updatedAt,
	}

	if end, ok := fieldTime(rec.Fields, fieldEnd); ok {
		sess.End = &end
	}

	if breakMin, ok := fieldInt(rec.Fields, fieldBreakMinutes); ok {
		sess.BreakMinutes = int(breakMin)
	}

	if note, ok := fieldString(rec.Fields, fieldNote); ok {
		sess.Note = note
	}

	if raw, ok := fieldString(rec.Fields, fieldRounding); ok {
		rule := models.RoundingRule(raw)
		if rule.Valid() {
			sess.Rounding = rule
		}
	}

	// A session may reference a project that has not been pulled yet;
	// the reference stays unset until a later pull finds it locally.
	if projID, ok := fieldUUID(rec.Fields, fieldProjectID); ok {
		proj, err := e.db.GetProject(projID)
		if err != nil {
			return err
		}

		if proj != nil {
			sess.ProjectID = &projID
		}
	}

	if local != nil {
		sess.CreatedAt = local.CreatedAt
	} else if createdAt, ok := fieldTime(rec.Fields, fieldCreatedAt); ok {
		sess.CreatedAt = createdAt
	} else {
		sess.CreatedAt = updatedAt
	}

	return e.db.UpdateSession(sess)
}

// upsertExpense applies one remote expense record.
func (e *Engine) upsertExpense(rec *remote.Record) error {
	id, okID := fieldUUID(rec.Fields, fieldID)
	date, okDate := fieldTime(rec.Fields, fieldDate)
	updatedAt, okUpdated := fieldTime(rec.Fields, fieldUpdatedAt)

	if !okID || !okDate || !okUpdated {
		e.logger.Debug("skipping malformed expense record", "key", rec.Key)
		return nil
	}

	local, err := e.db.GetExpense(id)
	if err != nil {
		return err
	}

	if local != nil && updatedAt.Before(local.UpdatedAt) {
		return nil
	}

	exp := &models.Expense{ID: id, Date: date, UpdatedAt: updatedAt}

	if amount, ok := fieldInt(rec.Fields, fieldAmount); ok {
		exp.AmountCents = amount
	}

	if category, ok := fieldString(rec.Fields, fieldCategory); ok {
		exp.Category = category
	}

	if note, ok := fieldString(rec.Fields, fieldNote); ok {
		exp.Note = note
	}

	if receipt, ok := fieldString(rec.Fields, fieldReceiptPath); ok {
		exp.ReceiptPath = receipt
	}

	if projID, ok := fieldUUID(rec.Fields, fieldProjectID); ok {
		proj, err := e.db.GetProject(projID)
		if err != nil {
			return err
		}

		if proj != nil {
			exp.ProjectID = &projID
		}
	}

	if local != nil {
		exp.CreatedAt = local.CreatedAt
	} else if createdAt, ok := fieldTime(rec.Fields, fieldCreatedAt); ok {
		exp.CreatedAt = createdAt
	} else {
		exp.CreatedAt = updatedAt
	}

	return e.db.UpdateExpense(exp)
}

// DeleteRemote mirrors a local deletion. The delete is conditional on the
// record's current concurrency token and never retried: losing the race
// means the record may reappear on a later pull, a known limitation of the
// tombstone-free model.
func (e *Engine) DeleteRemote(
	ctx context.Context,
	recordType string,
	id uuid.UUID,
) error {
	key := remote.RecordKey(recordType, id.String())

	existing, err := e.remote.GetRecord(ctx, key)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) || remote.IsFirstRun(err) {
			return nil
		}

		return fmt.Errorf("fetching remote %s: %w", key, err)
	}

	err = e.remote.DeleteRecord(ctx, key, existing.ChangeTag)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) ||
			errors.Is(err, remote.ErrPreconditionFailed) {
			return nil
		}

		return fmt.Errorf("deleting remote %s: %w", key, err)
	}

	return nil
}
