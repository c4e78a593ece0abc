package store_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfilippo/lavoro/internal/models"
	"github.com/dfilippo/lavoro/internal/testutil"
)

func TestSessionRoundTrip(t *testing.T) {
	db := testutil.NewDB(t)

	start := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	sess := models.NewWorkSession(start, nil, models.RoundingNearest15)
	sess.Note = "kickoff"

	require.NoError(t, db.UpdateSession(sess))

	got, err := db.GetSession(sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, sess.ID, got.ID)
	assert.True(t, got.Start.Equal(start))
	assert.Equal(t, "kickoff", got.Note)
	assert.True(t, got.Open())

	missing, err := db.GetSession(uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetOpenSession(t *testing.T) {
	db := testutil.NewDB(t)

	open, err := db.GetOpenSession()
	require.NoError(t, err)
	assert.Nil(t, open)

	start := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	closed := models.NewWorkSession(start, nil, models.RoundingOff)
	closed.End = &end
	require.NoError(t, db.UpdateSession(closed))

	running := models.NewWorkSession(end, nil, models.RoundingOff)
	require.NoError(t, db.UpdateSession(running))

	open, err = db.GetOpenSession()
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, running.ID, open.ID)
}

func TestGetSessionsFiltersAndSorts(t *testing.T) {
	db := testutil.NewDB(t)

	proj := models.NewProject("Acme")
	require.NoError(t, db.UpdateProject(proj))

	base := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		start := base.Add(time.Duration(i) * 2 * time.Hour)
		end := start.Add(time.Hour)

		sess := models.NewWorkSession(start, nil, models.RoundingOff)
		if i%2 == 0 {
			sess.ProjectID = &proj.ID
		}
		sess.End = &end

		require.NoError(t, db.UpdateSession(sess))
	}

	all, err := db.GetSessions(base, base.Add(24*time.Hour), nil)
	require.NoError(t, err)
	require.Len(t, all, 4)

	for i := 1; i < len(all); i++ {
		assert.True(
			t,
			all[i].Start.Before(all[i-1].Start),
			"sessions are not sorted by start descending",
		)
	}

	scoped, err := db.GetSessions(base, base.Add(24*time.Hour), &proj.ID)
	require.NoError(t, err)
	assert.Len(t, scoped, 2)

	narrow, err := db.GetSessions(base, base.Add(time.Hour), nil)
	require.NoError(t, err)
	assert.Len(t, narrow, 1)
}

func TestDeleteSession(t *testing.T) {
	db := testutil.NewDB(t)

	sess := models.NewWorkSession(time.Now(), nil, models.RoundingOff)
	require.NoError(t, db.UpdateSession(sess))
	require.NoError(t, db.DeleteSession(sess.ID))

	got, err := db.GetSession(sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProjectByName(t *testing.T) {
	db := testutil.NewDB(t)

	proj := models.NewProject("Acme")
	require.NoError(t, db.UpdateProject(proj))

	got, err := db.GetProjectByName("Acme")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, proj.ID, got.ID)

	missing, err := db.GetProjectByName("acme")
	require.NoError(t, err)
	assert.Nil(t, missing, "name matching must be exact")
}

func TestExpenseQueries(t *testing.T) {
	db := testutil.NewDB(t)

	day := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)

	lunch := models.NewExpense(day, 1250, "Pasti")
	require.NoError(t, db.UpdateExpense(lunch))

	train := models.NewExpense(day.AddDate(0, 0, 3), 3400, "Trasporti")
	require.NoError(t, db.UpdateExpense(train))

	week, err := db.GetExpenses(day.AddDate(0, 0, -1), day.AddDate(0, 0, 7), nil)
	require.NoError(t, err)
	require.Len(t, week, 2)
	assert.Equal(t, train.ID, week[0].ID, "expenses sorted by date descending")

	require.NoError(t, db.DeleteExpense(train.ID))

	got, err := db.GetExpense(train.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
