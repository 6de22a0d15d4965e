package mariadb

import (
	"context"
	"database/sql"

	"github.com/fhuszti/skillswap-media-ms/internal/logger"
	"github.com/fhuszti/skillswap-media-ms/internal/model"
	"github.com/fhuszti/skillswap-media-ms/internal/port"
	"github.com/fhuszti/skillswap-media-ms/internal/uuid"
)

type ActivityRepository struct {
	db *sql.DB
}

// compile-time check: *ActivityRepository must satisfy port.ActivityRepository
var _ port.ActivityRepository = (*ActivityRepository)(nil)

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, a *model.Activity) error {
	if a.ID.IsZero() {
		a.ID = uuid.NewUUID()
	}
	logger.Debugf(ctx, "recording %q activity #%s for user %s...", a.Type, a.ID, a.UserID)

	const query = `
      INSERT INTO activities
        (id, user_id, type, message, reference_id, reference_type, metadata)
      VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.UserID, a.Type, a.Message,
		a.ReferenceID, a.ReferenceType, a.Metadata,
	)
	return err
}
