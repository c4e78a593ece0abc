package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/dfilippo/lavoro/internal/models"
)

// DB is the database storage interface. Lookups for absent records return
// (nil, nil) rather than an error.
type DB interface {
	// GetSession returns the session with the given id.
	GetSession(id uuid.UUID) (*models.WorkSession, error)
	// GetOpenSession returns the running session, if any.
	GetOpenSession() (*models.WorkSession, error)
	// GetSessions returns sessions whose start falls within the given
	// bounds, optionally restricted to a project, sorted by start
	// descending.
	GetSessions(
		startTime, endTime time.Time,
		projectID *uuid.UUID,
	) ([]*models.WorkSession, error)
	// GetAllSessions returns every stored session.
	GetAllSessions() ([]*models.WorkSession, error)
	// UpdateSession upserts a session record.
	UpdateSession(sess *models.WorkSession) error
	// DeleteSession removes the session with the given id.
	DeleteSession(id uuid.UUID) error

	// GetProject returns the project with the given id.
	GetProject(id uuid.UUID) (*models.Project, error)
	// GetProjectByName returns the project whose name matches exactly.
	GetProjectByName(name string) (*models.Project, error)
	// GetAllProjects returns every stored project.
	GetAllProjects() ([]*models.Project, error)
	// UpdateProject upserts a project record.
	UpdateProject(proj *models.Project) error

	// GetExpense returns the expense with the given id.
	GetExpense(id uuid.UUID) (*models.Expense, error)
	// GetExpenses returns expenses dated within the given bounds,
	// optionally restricted to a project, sorted by date descending.
	GetExpenses(
		startTime, endTime time.Time,
		projectID *uuid.UUID,
	) ([]*models.Expense, error)
	// GetAllExpenses returns every stored expense.
	GetAllExpenses() ([]*models.Expense, error)
	// UpdateExpense upserts an expense record.
	UpdateExpense(exp *models.Expense) error
	// DeleteExpense removes the expense with the given id.
	DeleteExpense(id uuid.UUID) error

	// GetMeta returns a metadata entry, or nil when absent.
	GetMeta(key string) ([]byte, error)
	// PutMeta stores a metadata entry.
	PutMeta(key string, value []byte) error
	// DeleteMetaPrefix removes all metadata entries whose key starts with
	// the given prefix.
	DeleteMetaPrefix(prefix string) error

	// Close ends the database connection.
	Close() error
}
