// Package history records job submissions and their terminal outcomes in
// Postgres so operators can audit what ran where.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redartera/flytekit/pkg/connector"
)

type Submission struct {
	bun.BaseModel `bun:"table:job_history,alias:jh"`

	ID        uuid.UUID `bun:"type:uuid,default:gen_random_uuid(),pk"`
	Connector string    `bun:",notnull"`
	JobID     string    `bun:",notnull"`
	Scope     string    `bun:",nullzero"`
	Name      string    `bun:",nullzero"`
	Image     string    `bun:",nullzero"`
	Phase     string    `bun:",notnull"`
	Message   string    `bun:",nullzero"`

	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// Store persists submission history.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Init creates the history table if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*Submission)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// RecordCreate inserts a row for a freshly submitted job.
func (s *Store) RecordCreate(ctx context.Context, connectorName string, handle connector.Handle, req connector.Request) error {
	sub := &Submission{
		Connector: connectorName,
		JobID:     handle.JobID,
		Scope:     handle.Scope,
		Name:      req.Name,
		Image:     req.Image,
		Phase:     string(connector.PhaseQueued),
	}
	_, err := s.db.NewInsert().Model(sub).Exec(ctx)
	return err
}

// RecordPhase updates the latest row for a job with its observed phase.
func (s *Store) RecordPhase(ctx context.Context, connectorName, jobID string, phase connector.Phase, message string) error {
	_, err := s.db.NewUpdate().
		Model((*Submission)(nil)).
		Set("phase = ?", string(phase)).
		Set("message = ?", message).
		Set("updated_at = current_timestamp").
		Where("connector = ?", connectorName).
		Where("job_id = ?", jobID).
		Exec(ctx)
	return err
}

// List returns the most recent submissions for a connector, newest first.
func (s *Store) List(ctx context.Context, connectorName string, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	var subs []Submission
	err := s.db.NewSelect().
		Model(&subs).
		Where("connector = ?", connectorName).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return subs, nil
}
