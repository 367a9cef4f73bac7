package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ResetCollections lists every collection the system reset wipes, in wipe
// order. Roster and account data survive a reset.
var ResetCollections = []string{
	"counseling_cases",
	"support_cases",
	"admission_applications",
	"notifications",
	"audit_logs",
}

// CollectionResult reports the outcome of wiping one collection.
type CollectionResult struct {
	Collection string `json:"collection"`
	Deleted    int64  `json:"deleted"`
	Error      string `json:"error,omitempty"`
}

// ResetRepository wipes transactional case data while leaving the roster and
// user accounts intact.
type ResetRepository struct {
	db *sqlx.DB
}

// NewResetRepository creates a new instance of ResetRepository.
func NewResetRepository(db *sqlx.DB) *ResetRepository {
	return &ResetRepository{db: db}
}

// WipeAll deletes every row from each reset collection. Failures are recorded
// per collection rather than aborting the whole pass, so a partially wiped
// system still reports exactly what happened to each collection.
func (r *ResetRepository) WipeAll(ctx context.Context) []CollectionResult {
	results := make([]CollectionResult, 0, len(ResetCollections))
	for _, collection := range ResetCollections {
		result := CollectionResult{Collection: collection}
		res, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", collection))
		if err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		if deleted, err := res.RowsAffected(); err == nil {
			result.Deleted = deleted
		}
		results = append(results, result)
	}
	return results
}
