// Package store connects to the data store and manages projects, work
// sessions, and expenses
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"slices"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/dfilippo/lavoro/internal/models"
)

const (
	projectBucket = "projects"
	sessionBucket = "sessions"
	expenseBucket = "expenses"
	metaBucket    = "meta"
)

var errDatabaseLocked = errors.New(
	"is lavoro already running? Only one instance can be active at a time",
)

// Client is a BoltDB database client.
type Client struct {
	*bolt.DB
}

// NewClient returns a wrapper to a BoltDB connection.
func NewClient(dbPath string) (*Client, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	// Create the necessary buckets for storing data if they do not exist
	// already
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{
			projectBucket,
			sessionBucket,
			expenseBucket,
			metaBucket,
		} {
			_, err := tx.CreateBucketIfNotExists([]byte(name))
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Client{db}, nil
}

// openDB creates or opens a database and locks it.
func openDB(dbPath string) (*bolt.DB, error) {
	var fileMode fs.FileMode = 0o600

	db, err := bolt.Open(
		dbPath,
		fileMode,
		&bolt.Options{Timeout: 1 * time.Second},
	)
	if err != nil {
		if errors.Is(err, bolt.ErrDatabaseOpen) ||
			errors.Is(err, bolt.ErrTimeout) {
			return nil, errDatabaseLocked
		}

		return nil, err
	}

	return db, nil
}

func putRecord(tx *bolt.Tx, bucket string, key uuid.UUID, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return tx.Bucket([]byte(bucket)).Put([]byte(key.String()), b)
}

func (c *Client) GetSession(id uuid.UUID) (*models.WorkSession, error) {
	var sess *models.WorkSession

	err := c.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(sessionBucket)).Get([]byte(id.String()))
		if len(v) == 0 {
			return nil
		}

		sess = &models.WorkSession{}

		return json.Unmarshal(v, sess)
	})

	return sess, err
}

func (c *Client) GetOpenSession() (*models.WorkSession, error) {
	var open *models.WorkSession

	err := c.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket([]byte(sessionBucket)).Cursor()

		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			var sess models.WorkSession

			err := json.Unmarshal(v, &sess)
			if err != nil {
				return err
			}

			if sess.Open() {
				open = &sess
				return nil
			}
		}

		return nil
	})

	return open, err
}

func (c *Client) GetSessions(
	startTime, endTime time.Time,
	projectID *uuid.UUID,
) ([]*models.WorkSession, error) {
	all, err := c.GetAllSessions()
	if err != nil {
		return nil, err
	}

	var result []*models.WorkSession

	for _, sess := range all {
		if sess.Start.Before(startTime) || sess.Start.After(endTime) {
			continue
		}

		if projectID != nil &&
			(sess.ProjectID == nil || *sess.ProjectID != *projectID) {
			continue
		}

		result = append(result, sess)
	}

	slices.SortFunc(result, func(a, b *models.WorkSession) int {
		return b.Start.Compare(a.Start)
	})

	return result, nil
}

func (c *Client) GetAllSessions() ([]*models.WorkSession, error) {
	var sessions []*models.WorkSession

	err := c.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(sessionBucket)).
			ForEach(func(_, v []byte) error {
				var sess models.WorkSession

				err := json.Unmarshal(v, &sess)
				if err != nil {
					return err
				}

				sessions = append(sessions, &sess)

				return nil
			})
	})

	return sessions, err
}

func (c *Client) UpdateSession(sess *models.WorkSession) error {
	return c.Update(func(tx *bolt.Tx) error {
		return putRecord(tx, sessionBucket, sess.ID, sess)
	})
}

func (c *Client) DeleteSession(id uuid.UUID) error {
	return c.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(sessionBucket)).Delete([]byte(id.String()))
	})
}

func (c *Client) GetProject(id uuid.UUID) (*models.Project, error) {
	var proj *models.Project

	err := c.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(projectBucket)).Get([]byte(id.String()))
		if len(v) == 0 {
			return nil
		}

		proj = &models.Project{}

		return json.Unmarshal(v, proj)
	})

	return proj, err
}

func (c *Client) GetProjectByName(name string) (*models.Project, error) {
	var proj *models.Project

	err := c.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket([]byte(projectBucket)).Cursor()

		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			var p models.Project

			err := json.Unmarshal(v, &p)
			if err != nil {
				return err
			}

			if p.Name == name {
				proj = &p
				return nil
			}
		}

		return nil
	})

	return proj, err
}

func (c *Client) GetAllProjects() ([]*models.Project, error) {
	var projects []*models.Project

	err := c.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(projectBucket)).
			ForEach(func(_, v []byte) error {
				var proj models.Project

				err := json.Unmarshal(v, &proj)
				if err != nil {
					return err
				}

				projects = append(projects, &proj)

				return nil
			})
	})

	return projects, err
}

func (c *Client) UpdateProject(proj *models.Project) error {
	return c.Update(func(tx *bolt.Tx) error {
		return putRecord(tx, projectBucket, proj.ID, proj)
	})
}

func (c *Client) GetExpense(id uuid.UUID) (*models.Expense, error) {
	var exp *models.Expense

	err := c.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(expenseBucket)).Get([]byte(id.String()))
		if len(v) == 0 {
			return nil
		}

		exp = &models.Expense{}

		return json.Unmarshal(v, exp)
	})

	return exp, err
}

func (c *Client) GetExpenses(
	startTime, endTime time.Time,
	projectID *uuid.UUID,
) ([]*models.Expense, error) {
	all, err := c.GetAllExpenses()
	if err != nil {
		return nil, err
	}

	var result []*models.Expense

	for _, exp := range all {
		if exp.Date.Before(startTime) || exp.Date.After(endTime) {
			continue
		}

		if projectID != nil &&
			(exp.ProjectID == nil || *exp.ProjectID != *projectID) {
			continue
		}

		result = append(result, exp)
	}

	slices.SortFunc(result, func(a, b *models.Expense) int {
		return b.Date.Compare(a.Date)
	})

	return result, nil
}

func (c *Client) GetAllExpenses() ([]*models.Expense, error) {
	var expenses []*models.Expense

	err := c.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(expenseBucket)).
			ForEach(func(_, v []byte) error {
				var exp models.Expense

				err := json.Unmarshal(v, &exp)
				if err != nil {
					return err
				}

				expenses = append(expenses, &exp)

				return nil
			})
	})

	return expenses, err
}

func (c *Client) UpdateExpense(exp *models.Expense) error {
	return c.Update(func(tx *bolt.Tx) error {
		return putRecord(tx, expenseBucket, exp.ID, exp)
	})
}

func (c *Client) DeleteExpense(id uuid.UUID) error {
	return c.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(expenseBucket)).Delete([]byte(id.String()))
	})
}

func (c *Client) GetMeta(key string) ([]byte, error) {
	var value []byte

	err := c.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(metaBucket)).Get([]byte(key))
		if v != nil {
			value = append([]byte(nil), v...)
		}

		return nil
	})

	return value, err
}

func (c *Client) PutMeta(key string, value []byte) error {
	return c.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(metaBucket)).Put([]byte(key), value)
	})
}

func (c *Client) DeleteMetaPrefix(prefix string) error {
	return c.Update(func(tx *bolt.Tx) error {
		cur := tx.Bucket([]byte(metaBucket)).Cursor()

		p := []byte(prefix)
		for k, _ := cur.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = cur.Next() {
			err := cur.Delete()
			if err != nil {
				return err
			}
		}

		return nil
	})
}
