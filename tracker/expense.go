package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dfilippo/lavoro/internal/models"
)

// AddExpense logs a cost against an optional project, resolved by name.
func (t *Tracker) AddExpense(
	date time.Time,
	amountCents int64,
	category, note, receiptPath, projectName string,
) (*models.Expense, error) {
	if amountCents < 0 {
		return nil, errNegativeAmount
	}

	if strings.TrimSpace(category) == "" {
		return nil, errEmptyCategory
	}

	proj, err := t.ResolveOrCreateProject(projectName)
	if err != nil {
		return nil, err
	}

	exp := models.NewExpense(date, amountCents, strings.TrimSpace(category))
	exp.Note = strings.TrimSpace(note)
	exp.ReceiptPath = strings.TrimSpace(receiptPath)

	if proj != nil {
		exp.ProjectID = &proj.ID
	}

	err = t.db.UpdateExpense(exp)
	if err != nil {
		return nil, fmt.Errorf("saving expense: %w", err)
	}

	t.notifyPush()

	return exp, nil
}

// Expenses returns the expenses dated within the given closed range, newest
// first.
func (t *Tracker) Expenses(
	start, end time.Time,
	projectID *uuid.UUID,
) ([]*models.Expense, error) {
	expenses, err := t.db.GetExpenses(start, end, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetching expenses: %w", err)
	}

	return expenses, nil
}

// DeleteExpense removes an expense and mirrors the deletion remotely.
func (t *Tracker) DeleteExpense(id uuid.UUID) error {
	err := t.db.DeleteExpense(id)
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}

	t.notifyDelete(models.RecordTypeExpense, id)

	return nil
}
