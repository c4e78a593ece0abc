// Package models defines the records shared by the local store and the
// cloud mirror.
package models

import (
	"time"

	"github.com/google/uuid"
)

// RoundingRule quantizes session start and end times before duration math.
type RoundingRule string

const (
	RoundingOff       RoundingRule = "off"
	RoundingNearest5  RoundingRule = "nearest5"
	RoundingNearest15 RoundingRule = "nearest15"
	RoundingNearest30 RoundingRule = "nearest30"
)

// RoundingRules lists all accepted rounding rules.
var RoundingRules = []RoundingRule{
	RoundingOff,
	RoundingNearest5,
	RoundingNearest15,
	RoundingNearest30,
}

// Step returns the quantization step for the rule. Off returns zero.
func (r RoundingRule) Step() time.Duration {
	switch r {
	case RoundingNearest5:
		return 5 * time.Minute
	case RoundingNearest15:
		return 15 * time.Minute
	case RoundingNearest30:
		return 30 * time.Minute
	default:
		return 0
	}
}

// Valid reports whether the rule is one of the known values.
func (r RoundingRule) Valid() bool {
	switch r {
	case RoundingOff, RoundingNearest5, RoundingNearest15, RoundingNearest30:
		return true
	}

	return false
}

const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// Remote record type names. They key records in the cloud mirror and must
// stay stable across devices and versions.
const (
	RecordTypeProject     = "Project"
	RecordTypeWorkSession = "WorkSession"
	RecordTypeExpense     = "Expense"
)

// Project is a client engagement ("commessa"). Sessions and expenses refer
// to a project by id; the project does not own them.
type Project struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Code           string    `json:"code,omitempty"`
	ColorHex       string    `json:"color_hex,omitempty"`
	GeofenceLat    *float64  `json:"geofence_lat,omitempty"`
	GeofenceLon    *float64  `json:"geofence_lon,omitempty"`
	GeofenceRadius *float64  `json:"geofence_radius,omitempty"`
	// HourlyRateCents is the default billing rate in cents per hour.
	HourlyRateCents *int64    `json:"hourly_rate_cents,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewProject returns a project with a fresh id and both timestamps set.
func NewProject(name string) *Project {
	now := time.Now()

	return &Project{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WorkSession is a single tracked interval of work. A nil End means the
// session is still running; the open/closed tag is derived from End rather
// than stored so the two can never disagree.
type WorkSession struct {
	ID           uuid.UUID    `json:"id"`
	Start        time.Time    `json:"start"`
	End          *time.Time   `json:"end,omitempty"`
	BreakMinutes int          `json:"break_minutes"`
	Note         string       `json:"note,omitempty"`
	ProjectID    *uuid.UUID   `json:"project_id,omitempty"`
	Rounding     RoundingRule `json:"rounding"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewWorkSession returns an open session starting at the given instant.
func NewWorkSession(
	start time.Time,
	projectID *uuid.UUID,
	rounding RoundingRule,
) *WorkSession {
	now := time.Now()

	return &WorkSession{
		ID:        uuid.New(),
		Start:     start,
		ProjectID: projectID,
		Rounding:  rounding,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Open reports whether the session is still running.
func (s *WorkSession) Open() bool {
	return s.End == nil
}

// State returns the derived open/closed tag.
func (s *WorkSession) State() string {
	if s.Open() {
		return StateOpen
	}

	return StateClosed
}

// Expense is a logged cost, optionally tied to a project.
type Expense struct {
	ID          uuid.UUID  `json:"id"`
	Date        time.Time  `json:"date"`
	AmountCents int64      `json:"amount_cents"`
	Category    string     `json:"category"`
	Note        string     `json:"note,omitempty"`
	ProjectID   *uuid.UUID `json:"project_id,omitempty"`
	ReceiptPath string     `json:"receipt_path,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewExpense returns an expense with a fresh id and both timestamps set.
func NewExpense(date time.Time, amountCents int64, category string) *Expense {
	now := time.Now()

	return &Expense{
		ID:          uuid.New(),
		Date:        date,
		AmountCents: amountCents,
		Category:    category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
