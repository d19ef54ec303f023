package repositories

import (
	"context"

	"github.com/skysurvey-labs/exodb/pkg/database"
)

// readViews lists the materialized views in refresh order.
var readViews = []string{"v_planet_overview", "v_method_summary"}

// ViewRepository manages the materialized read views.
type ViewRepository interface {
	// RefreshAll rebuilds the read views from the base tables. Called at
	// the end of every import run.
	RefreshAll(ctx context.Context) error
}

type viewRepository struct {
	db *database.DB
}

// NewViewRepository creates a new view repository.
func NewViewRepository(db *database.DB) ViewRepository {
	return &viewRepository{db: db}
}

func (r *viewRepository) RefreshAll(ctx context.Context) error {
	for _, view := range readViews {
		if _, err := r.db.Exec(ctx, "REFRESH MATERIALIZED VIEW "+view); err != nil {
			return translateError("refresh "+view, err)
		}
	}
	return nil
}
