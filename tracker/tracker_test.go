package tracker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfilippo/lavoro/internal/models"
	"github.com/dfilippo/lavoro/internal/testutil"
	"github.com/dfilippo/lavoro/store"
	"github.com/dfilippo/lavoro/tracker"
)

// mirrorSpy records mutation notifications.
type mirrorSpy struct {
	pushes  int
	deletes []string
}

func (m *mirrorSpy) EnqueuePush() {
	m.pushes++
}

func (m *mirrorSpy) EnqueueDelete(recordType string, id uuid.UUID) {
	m.deletes = append(m.deletes, recordType+"_"+id.String())
}

func newTracker(t *testing.T) (*tracker.Tracker, store.DB, *mirrorSpy) {
	t.Helper()

	db := testutil.NewDB(t)
	spy := &mirrorSpy{}

	return tracker.New(db, spy), db, spy
}

func at(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatal(err)
	}

	return parsed
}

func countOpen(t *testing.T, db store.DB) int {
	t.Helper()

	sessions, err := db.GetAllSessions()
	require.NoError(t, err)

	var n int

	for _, sess := range sessions {
		if sess.Open() {
			n++
		}
	}

	return n
}

func TestStartSessionIsIdempotent(t *testing.T) {
	tr, db, spy := newTracker(t)

	start := at(t, "2025-01-06T09:00:00Z")

	first, err := tr.StartSession(start, nil, models.RoundingNearest15)
	require.NoError(t, err)

	second, err := tr.StartSession(
		start.Add(time.Hour),
		nil,
		models.RoundingOff,
	)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.RoundingNearest15, second.Rounding)
	assert.Equal(t, 1, countOpen(t, db))
	assert.Equal(t, 1, spy.pushes, "second start must not push again")
}

func TestStopSession(t *testing.T) {
	tr, db, _ := newTracker(t)

	start := at(t, "2025-01-06T09:00:00Z")

	sess, err := tr.StartSession(start, nil, models.RoundingOff)
	require.NoError(t, err)

	end := at(t, "2025-01-06T12:00:00Z")
	require.NoError(t, tr.StopSession(sess, 30, end))

	got, err := db.GetSession(sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got.End)
	assert.True(t, got.End.Equal(end))
	assert.Equal(t, 30, got.BreakMinutes)
	assert.Equal(t, models.StateClosed, got.State())

	// Stopping again is a no-op.
	require.NoError(t, tr.StopSession(got, 99, end.Add(time.Hour)))

	again, err := db.GetSession(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, again.BreakMinutes)
	assert.True(t, again.End.Equal(end))
}

func TestStopOpenSessionWithoutOpen(t *testing.T) {
	tr, _, _ := newTracker(t)

	err := tr.StopOpenSession(0, time.Now())
	assert.ErrorIs(t, err, tracker.ErrNoOpenSession)
}

func TestOverlapRejection(t *testing.T) {
	tr, _, _ := newTracker(t)

	_, err := tr.CreateClosedSession(
		at(t, "2025-01-06T10:00:00Z"),
		at(t, "2025-01-06T11:00:00Z"),
		0,
		nil,
		"",
		models.RoundingOff,
	)
	require.NoError(t, err)

	_, err = tr.CreateClosedSession(
		at(t, "2025-01-06T10:30:00Z"),
		at(t, "2025-01-06T11:30:00Z"),
		0,
		nil,
		"",
		models.RoundingOff,
	)
	assert.ErrorIs(t, err, tracker.ErrOverlapDetected)

	// Adjacent intervals do not overlap.
	_, err = tr.CreateClosedSession(
		at(t, "2025-01-06T11:00:00Z"),
		at(t, "2025-01-06T12:00:00Z"),
		0,
		nil,
		"",
		models.RoundingOff,
	)
	assert.NoError(t, err)
}

func TestStopRejectsOverlap(t *testing.T) {
	tr, db, _ := newTracker(t)

	_, err := tr.CreateClosedSession(
		at(t, "2025-01-06T10:00:00Z"),
		at(t, "2025-01-06T11:00:00Z"),
		0,
		nil,
		"",
		models.RoundingOff,
	)
	require.NoError(t, err)

	open, err := tr.StartSession(at(t, "2025-01-06T09:00:00Z"), nil, models.RoundingOff)
	require.NoError(t, err)

	err = tr.StopSession(open, 0, at(t, "2025-01-06T10:30:00Z"))
	assert.ErrorIs(t, err, tracker.ErrOverlapDetected)

	// The session must still be open after the failed stop.
	got, err := db.GetSession(open.ID)
	require.NoError(t, err)
	assert.True(t, got.Open())
}

func TestSingleOpenSessionInvariant(t *testing.T) {
	tr, db, _ := newTracker(t)

	base := at(t, "2025-01-06T08:00:00Z")

	_, err := tr.StartSession(base, nil, models.RoundingOff)
	require.NoError(t, err)

	_, err = tr.StartSession(base.Add(time.Hour), nil, models.RoundingOff)
	require.NoError(t, err)

	_, err = tr.SwitchOpenSession(nil, models.RoundingOff, base.Add(2*time.Hour))
	require.NoError(t, err)

	// A backfilled closed session may coexist with the open one.
	_, err = tr.CreateClosedSession(
		base.Add(-4*time.Hour),
		base.Add(-3*time.Hour),
		0,
		nil,
		"",
		models.RoundingOff,
	)
	require.NoError(t, err)

	require.NoError(t, tr.StopOpenSession(0, base.Add(3*time.Hour)))

	_, err = tr.StartSession(base.Add(4*time.Hour), nil, models.RoundingOff)
	require.NoError(t, err)

	assert.Equal(t, 1, countOpen(t, db))
}

func TestSwitchOpenSession(t *testing.T) {
	tr, db, _ := newTracker(t)

	acme, err := tr.ResolveOrCreateProject("Acme")
	require.NoError(t, err)

	globex, err := tr.ResolveOrCreateProject("Globex")
	require.NoError(t, err)

	start := at(t, "2025-01-06T09:00:00Z")

	first, err := tr.StartSession(start, &acme.ID, models.RoundingOff)
	require.NoError(t, err)

	switchAt := at(t, "2025-01-06T11:00:00Z")

	second, err := tr.SwitchOpenSession(&globex.ID, models.RoundingOff, switchAt)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	require.NotNil(t, second.ProjectID)
	assert.Equal(t, globex.ID, *second.ProjectID)
	assert.True(t, second.Start.Equal(switchAt))

	closed, err := db.GetSession(first.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.End)
	assert.True(t, closed.End.Equal(switchAt))

	assert.Equal(t, 1, countOpen(t, db))
}

func TestDiscardOpenSession(t *testing.T) {
	tr, db, spy := newTracker(t)

	// Discard with nothing open is a no-op.
	require.NoError(t, tr.DiscardOpenSession())
	assert.Empty(t, spy.deletes)

	sess, err := tr.StartSession(at(t, "2025-01-06T09:00:00Z"), nil, models.RoundingOff)
	require.NoError(t, err)

	require.NoError(t, tr.DiscardOpenSession())

	got, err := db.GetSession(sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.Len(t, spy.deletes, 1)
	assert.Equal(
		t,
		"WorkSession_"+sess.ID.String(),
		spy.deletes[0],
	)
}

func TestEditSessionReopenBlockedByRunningSession(t *testing.T) {
	tr, _, _ := newTracker(t)

	closed, err := tr.CreateClosedSession(
		at(t, "2025-01-06T08:00:00Z"),
		at(t, "2025-01-06T09:00:00Z"),
		0,
		nil,
		"",
		models.RoundingOff,
	)
	require.NoError(t, err)

	_, err = tr.StartSession(at(t, "2025-01-06T10:00:00Z"), nil, models.RoundingOff)
	require.NoError(t, err)

	closed.End = nil

	err = tr.EditSession(closed)
	assert.ErrorIs(t, err, tracker.ErrOpenSessionExists)
}

func TestTotalMinutesIgnoresOpenSessions(t *testing.T) {
	tr, _, _ := newTracker(t)

	dayStart := at(t, "2025-01-06T00:00:00Z")
	dayEnd := at(t, "2025-01-06T23:59:59Z")

	_, err := tr.CreateClosedSession(
		at(t, "2025-01-06T09:00:00Z"),
		at(t, "2025-01-06T10:30:00Z"),
		15,
		nil,
		"",
		models.RoundingOff,
	)
	require.NoError(t, err)

	_, err = tr.StartSession(at(t, "2025-01-06T11:00:00Z"), nil, models.RoundingOff)
	require.NoError(t, err)

	total, err := tr.TotalMinutes(dayStart, dayEnd)
	require.NoError(t, err)

	assert.Equal(t, 75, total)
}

func TestResolveOrCreateProject(t *testing.T) {
	tr, _, _ := newTracker(t)

	none, err := tr.ResolveOrCreateProject("   ")
	require.NoError(t, err)
	assert.Nil(t, none)

	created, err := tr.ResolveOrCreateProject("  Acme ")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "Acme", created.Name)

	found, err := tr.ResolveOrCreateProject("Acme")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestAddExpenseValidation(t *testing.T) {
	tr, _, _ := newTracker(t)

	_, err := tr.AddExpense(time.Now(), -100, "Pasti", "", "", "")
	assert.Error(t, err)

	_, err = tr.AddExpense(time.Now(), 100, "  ", "", "", "")
	assert.Error(t, err)

	exp, err := tr.AddExpense(time.Now(), 1250, "Pasti", "pranzo", "", "Acme")
	require.NoError(t, err)
	require.NotNil(t, exp.ProjectID)
	assert.Equal(t, int64(1250), exp.AmountCents)

	// The project was created implicitly.
	proj, err := tr.ResolveOrCreateProject("Acme")
	require.NoError(t, err)
	assert.Equal(t, proj.ID, *exp.ProjectID)
}

func TestAddExpenseStoresReceiptInOneWrite(t *testing.T) {
	tr, db, spy := newTracker(t)

	exp, err := tr.AddExpense(
		at(t, "2025-01-06T00:00:00Z"),
		4290,
		"Viaggi",
		"",
		" /tmp/receipts/taxi.pdf ",
		"",
	)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/receipts/taxi.pdf", exp.ReceiptPath)

	// The receipt path is part of the stored record, not a follow-up
	// write, so the single push notification already covers it.
	assert.Equal(t, 1, spy.pushes)

	saved, err := db.GetExpense(exp.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "/tmp/receipts/taxi.pdf", saved.ReceiptPath)
}

func TestStorageErrorIsNotBusinessError(t *testing.T) {
	tr, _, _ := newTracker(t)

	_, err := tr.CreateClosedSession(
		at(t, "2025-01-06T10:00:00Z"),
		at(t, "2025-01-06T11:00:00Z"),
		0,
		nil,
		"",
		models.RoundingOff,
	)
	require.NoError(t, err)

	_, err = tr.CreateClosedSession(
		at(t, "2025-01-06T10:15:00Z"),
		at(t, "2025-01-06T10:45:00Z"),
		0,
		nil,
		"",
		models.RoundingOff,
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tracker.ErrOverlapDetected))
	assert.False(t, errors.Is(err, tracker.ErrNoOpenSession))
}
