package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/dfilippo/lavoro/internal/models"
)

// ResolveOrCreateProject finds a project by exact name match, creating and
// persisting one when none exists. An empty name (after trimming) resolves
// to no project at all. Concurrent callers racing on the same new name may
// create duplicates; callers are expected to serialize project creation.
func (t *Tracker) ResolveOrCreateProject(name string) (*models.Project, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, nil
	}

	proj, err := t.db.GetProjectByName(trimmed)
	if err != nil {
		return nil, fmt.Errorf("looking up project: %w", err)
	}

	if proj != nil {
		return proj, nil
	}

	proj = models.NewProject(trimmed)

	err = t.db.UpdateProject(proj)
	if err != nil {
		return nil, fmt.Errorf("saving project: %w", err)
	}

	t.notifyPush()

	return proj, nil
}

// Projects returns every known project.
func (t *Tracker) Projects() ([]*models.Project, error) {
	projects, err := t.db.GetAllProjects()
	if err != nil {
		return nil, fmt.Errorf("fetching projects: %w", err)
	}

	return projects, nil
}

// SetProjectRate updates a project's default hourly rate.
func (t *Tracker) SetProjectRate(
	proj *models.Project,
	rateCents int64,
) error {
	proj.HourlyRateCents = &rateCents
	proj.UpdatedAt = time.Now()

	err := t.db.UpdateProject(proj)
	if err != nil {
		return fmt.Errorf("saving project: %w", err)
	}

	t.notifyPush()

	return nil
}
