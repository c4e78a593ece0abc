// Package tracker manages the local collection of work sessions, projects,
// and expenses. It enforces the single-open-session rule and rejects
// overlapping closed intervals.
package tracker

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dfilippo/lavoro/internal/models"
	"github.com/dfilippo/lavoro/internal/timeutil"
	"github.com/dfilippo/lavoro/store"
)

// Mirror receives notifications after successful local mutations so the
// matching remote work can run asynchronously. The mutation's outcome never
// depends on the mirror.
type Mirror interface {
	EnqueuePush()
	EnqueueDelete(recordType string, id uuid.UUID)
}

// Tracker coordinates all local mutations. Callers are expected to serialize
// mutating calls; the tracker does no locking of its own.
type Tracker struct {
	db     store.DB
	mirror Mirror
}

// New returns a tracker backed by the given store. mirror may be nil when
// syncing is disabled.
func New(db store.DB, mirror Mirror) *Tracker {
	return &Tracker{
		db:     db,
		mirror: mirror,
	}
}

func (t *Tracker) notifyPush() {
	if t.mirror != nil {
		t.mirror.EnqueuePush()
	}
}

func (t *Tracker) notifyDelete(recordType string, id uuid.UUID) {
	if t.mirror != nil {
		t.mirror.EnqueueDelete(recordType, id)
	}
}

// CurrentOpenSession returns the running session, if any.
func (t *Tracker) CurrentOpenSession() (*models.WorkSession, error) {
	sess, err := t.db.GetOpenSession()
	if err != nil {
		return nil, fmt.Errorf("fetching open session: %w", err)
	}

	return sess, nil
}

// StartSession opens a new session at the given instant. If a session is
// already open it is returned unchanged so that repeated starts are
// idempotent.
func (t *Tracker) StartSession(
	at time.Time,
	projectID *uuid.UUID,
	rounding models.RoundingRule,
) (*models.WorkSession, error) {
	open, err := t.CurrentOpenSession()
	if err != nil {
		return nil, err
	}

	if open != nil {
		return open, nil
	}

	sess := models.NewWorkSession(at, projectID, rounding)

	err = t.db.UpdateSession(sess)
	if err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	t.notifyPush()

	return sess, nil
}

// CreateClosedSession records a finished interval directly, e.g. a manual
// backfill entry. It may coexist with an open session.
func (t *Tracker) CreateClosedSession(
	start, end time.Time,
	breakMinutes int,
	projectID *uuid.UUID,
	note string,
	rounding models.RoundingRule,
) (*models.WorkSession, error) {
	err := t.ensureNoOverlap(start, end, nil)
	if err != nil {
		return nil, err
	}

	sess := models.NewWorkSession(start, projectID, rounding)
	sess.End = &end
	sess.BreakMinutes = max(0, breakMinutes)
	sess.Note = note

	err = t.db.UpdateSession(sess)
	if err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	t.notifyPush()

	return sess, nil
}

// StopSession closes the given session at the provided instant. Stopping an
// already-closed session is a no-op.
func (t *Tracker) StopSession(
	sess *models.WorkSession,
	breakMinutes int,
	at time.Time,
) error {
	if !sess.Open() {
		return nil
	}

	err := t.ensureNoOverlap(sess.Start, at, &sess.ID)
	if err != nil {
		return err
	}

	end := at
	sess.End = &end
	sess.BreakMinutes = max(0, breakMinutes)
	sess.UpdatedAt = time.Now()

	err = t.db.UpdateSession(sess)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	t.notifyPush()

	return nil
}

// StopOpenSession closes the currently running session, failing with
// ErrNoOpenSession when nothing is running.
func (t *Tracker) StopOpenSession(breakMinutes int, at time.Time) error {
	open, err := t.CurrentOpenSession()
	if err != nil {
		return err
	}

	if open == nil {
		return ErrNoOpenSession
	}

	return t.StopSession(open, breakMinutes, at)
}

// SwitchOpenSession stops the running session (if any) at the given instant
// and starts a new one for the target project at the same instant. When the
// stop fails its error is propagated and no new session is started.
func (t *Tracker) SwitchOpenSession(
	projectID *uuid.UUID,
	rounding models.RoundingRule,
	at time.Time,
) (*models.WorkSession, error) {
	open, err := t.CurrentOpenSession()
	if err != nil {
		return nil, err
	}

	if open != nil {
		err = t.StopSession(open, 0, at)
		if err != nil {
			return nil, err
		}
	}

	return t.StartSession(at, projectID, rounding)
}

// DiscardOpenSession deletes the running session without recording it.
// A no-op when nothing is running.
func (t *Tracker) DiscardOpenSession() error {
	open, err := t.CurrentOpenSession()
	if err != nil {
		return err
	}

	if open == nil {
		return nil
	}

	err = t.db.DeleteSession(open.ID)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	t.notifyDelete(models.RecordTypeWorkSession, open.ID)

	return nil
}

// EditSession persists field changes made to an existing session. Closed
// intervals are re-validated against overlaps; clearing the end reopens the
// session only while no other session is running.
func (t *Tracker) EditSession(sess *models.WorkSession) error {
	if sess.End != nil {
		err := t.ensureNoOverlap(sess.Start, *sess.End, &sess.ID)
		if err != nil {
			return err
		}
	} else {
		open, err := t.CurrentOpenSession()
		if err != nil {
			return err
		}

		if open != nil && open.ID != sess.ID {
			return ErrOpenSessionExists
		}
	}

	sess.BreakMinutes = max(0, sess.BreakMinutes)
	sess.UpdatedAt = time.Now()

	err := t.db.UpdateSession(sess)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	t.notifyPush()

	return nil
}

// Sessions returns the sessions whose start falls in the given closed range,
// newest first.
func (t *Tracker) Sessions(
	start, end time.Time,
	projectID *uuid.UUID,
) ([]*models.WorkSession, error) {
	sessions, err := t.db.GetSessions(start, end, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetching sessions: %w", err)
	}

	return sessions, nil
}

// TotalMinutes sums the payable minutes of all closed sessions in the range.
// Open sessions contribute nothing until they are stopped.
func (t *Tracker) TotalMinutes(start, end time.Time) (int, error) {
	sessions, err := t.Sessions(start, end, nil)
	if err != nil {
		return 0, err
	}

	var total int

	for _, sess := range sessions {
		total += timeutil.SessionMinutes(sess)
	}

	return total, nil
}

// ensureNoOverlap rejects a candidate interval that overlaps any closed
// session other than the excluded one. Open sessions are never considered:
// they have no end yet, so their final interval is unknown until stopped.
func (t *Tracker) ensureNoOverlap(
	start, end time.Time,
	exclude *uuid.UUID,
) error {
	sessions, err := t.db.GetAllSessions()
	if err != nil {
		return fmt.Errorf("fetching sessions: %w", err)
	}

	for _, other := range sessions {
		if other.Open() {
			continue
		}

		if exclude != nil && other.ID == *exclude {
			continue
		}

		if start.Before(*other.End) && end.After(other.Start) {
			return ErrOverlapDetected
		}
	}

	return nil
}
