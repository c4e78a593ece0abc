package sync

import (
	"time"

	"github.com/google/uuid"

	"github.com/dfilippo/lavoro/internal/models"
	"github.com/dfilippo/lavoro/remote"
)

// Field names shared with other devices. These are wire schema: renaming
// one breaks sync with records written by older builds.
const (
	fieldID             = "id"
	fieldName           = "name"
	fieldCode           = "code"
	fieldColorHex       = "colorHex"
	fieldGeofenceLat    = "geofenceLat"
	fieldGeofenceLon    = "geofenceLon"
	fieldGeofenceRadius = "geofenceRadius"
	fieldHourlyRate     = "hourlyRateCents"
	fieldStart          = "start"
	fieldEnd            = "end"
	fieldBreakMinutes   = "breakMinutes"
	fieldNote           = "note"
	fieldProjectID      = "projectID"
	fieldRounding       = "rounding"
	fieldState          = "state"
	fieldDate           = "date"
	fieldAmount         = "amountCents"
	fieldCategory       = "category"
	fieldReceiptPath    = "receiptPath"
	fieldCreatedAt      = "createdAt"
	fieldUpdatedAt      = "updatedAt"
)

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// projectRecord maps a project to its full remote representation. Optional
// fields that are unset locally are omitted entirely, which clears them
// remotely since the whole record is replaced on push.
func projectRecord(p *models.Project) *remote.Record {
	rec := remote.NewRecord(models.RecordTypeProject, p.ID.String())

	rec.Fields[fieldID] = p.ID.String()
	rec.Fields[fieldName] = p.Name
	rec.Fields[fieldCreatedAt] = encodeTime(p.CreatedAt)
	rec.Fields[fieldUpdatedAt] = encodeTime(p.UpdatedAt)

	if p.Code != "" {
		rec.Fields[fieldCode] = p.Code
	}

	if p.ColorHex != "" {
		rec.Fields[fieldColorHex] = p.ColorHex
	}

	if p.GeofenceLat != nil {
		rec.Fields[fieldGeofenceLat] = *p.GeofenceLat
	}

	if p.GeofenceLon != nil {
		rec.Fields[fieldGeofenceLon] = *p.GeofenceLon
	}

	if p.GeofenceRadius != nil {
		rec.Fields[fieldGeofenceRadius] = *p.GeofenceRadius
	}

	if p.HourlyRateCents != nil {
		rec.Fields[fieldHourlyRate] = *p.HourlyRateCents
	}

	return rec
}

func sessionRecord(s *models.WorkSession) *remote.Record {
	rec := remote.NewRecord(models.RecordTypeWorkSession, s.ID.String())

	rec.Fields[fieldID] = s.ID.String()
	rec.Fields[fieldStart] = encodeTime(s.Start)
	rec.Fields[fieldBreakMinutes] = int64(s.BreakMinutes)
	rec.Fields[fieldRounding] = string(s.Rounding)
	rec.Fields[fieldState] = s.State()
	rec.Fields[fieldCreatedAt] = encodeTime(s.CreatedAt)
	rec.Fields[fieldUpdatedAt] = encodeTime(s.UpdatedAt)

	if s.End != nil {
		rec.Fields[fieldEnd] = encodeTime(*s.End)
	}

	if s.Note != "" {
		rec.Fields[fieldNote] = s.Note
	}

	if s.ProjectID != nil {
		rec.Fields[fieldProjectID] = s.ProjectID.String()
	}

	return rec
}

func expenseRecord(e *models.Expense) *remote.Record {
	rec := remote.NewRecord(models.RecordTypeExpense, e.ID.String())

	rec.Fields[fieldID] = e.ID.String()
	rec.Fields[fieldDate] = encodeTime(e.Date)
	rec.Fields[fieldAmount] = e.AmountCents
	rec.Fields[fieldCategory] = e.Category
	rec.Fields[fieldCreatedAt] = encodeTime(e.CreatedAt)
	rec.Fields[fieldUpdatedAt] = encodeTime(e.UpdatedAt)

	if e.Note != "" {
		rec.Fields[fieldNote] = e.Note
	}

	if e.ProjectID != nil {
		rec.Fields[fieldProjectID] = e.ProjectID.String()
	}

	if e.ReceiptPath != "" {
		rec.Fields[fieldReceiptPath] = e.ReceiptPath
	}

	return rec
}

// fieldString reads a string field, reporting whether it was present.
func fieldString(fields map[string]any, key string) (string, bool) {
	v, ok := fields[key].(string)

	return v, ok
}

// fieldTime reads an RFC3339 time field.
func fieldTime(fields map[string]any, key string) (time.Time, bool) {
	s, ok := fieldString(fields, key)
	if !ok {
		return time.Time{}, false
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

// fieldInt reads an integer field. JSON decoding turns numbers into
// float64, so both representations are accepted.
func fieldInt(fields map[string]any, key string) (int64, bool) {
	switch v := fields[key].(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// fieldFloat reads a float field.
func fieldFloat(fields map[string]any, key string) (float64, bool) {
	switch v := fields[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// fieldUUID reads a uuid field.
func fieldUUID(fields map[string]any, key string) (uuid.UUID, bool) {
	s, ok := fieldString(fields, key)
	if !ok {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}
