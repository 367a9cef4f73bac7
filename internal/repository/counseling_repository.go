package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-osa/care-desk-api/internal/models"
)

// CounselingRepository persists counseling referral cases.
type CounselingRepository struct {
	db *sqlx.DB
}

// NewCounselingRepository constructs the repository.
func NewCounselingRepository(db *sqlx.DB) *CounselingRepository {
	return &CounselingRepository{db: db}
}

func (r *CounselingRepository) ext(q sqlx.ExtContext) sqlx.ExtContext {
	if q != nil {
		return q
	}
	return r.db
}

// Create inserts a new counseling case.
func (r *CounselingRepository) Create(ctx context.Context, q sqlx.ExtContext, c *models.CounselingCase) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = models.CounselingStatusSubmitted
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	const query = `INSERT INTO counseling_cases
	(id, student_id, student_name, course_year, contact_number, department, request_type, description, status,
	 scheduled_at, resolution_notes, referred_by, referrer_signature, created_at, updated_at)
	VALUES (:id, :student_id, :student_name, :course_year, :contact_number, :department, :request_type, :description, :status,
	 :scheduled_at, :resolution_notes, :referred_by, :referrer_signature, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.ext(q), query, c); err != nil {
		return fmt.Errorf("create counseling case: %w", err)
	}
	return nil
}

const counselingColumns = `id, student_id, student_name, course_year, contact_number, department, request_type, description,
       status, scheduled_at, resolution_notes, referred_by, referrer_signature, created_at, updated_at`

// GetByID fetches a counseling case by identifier.
func (r *CounselingRepository) GetByID(ctx context.Context, id string) (*models.CounselingCase, error) {
	query := fmt.Sprintf("SELECT %s FROM counseling_cases WHERE id = $1", counselingColumns)
	var c models.CounselingCase
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns cases matching the filter, newest first.
func (r *CounselingRepository) List(ctx context.Context, filter models.CounselingFilter) ([]models.CounselingCase, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(fmt.Sprintf("SELECT %s FROM counseling_cases", counselingColumns))

	conditions := make([]string, 0, 4)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(student_name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var cases []models.CounselingCase
	if err := r.db.SelectContext(ctx, &cases, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list counseling cases: %w", err)
	}
	return cases, nil
}

// CounselingTransitionParams groups the columns a transition may write.
type CounselingTransitionParams struct {
	ID                string
	FromStatus        models.CounselingStatus
	ToStatus          models.CounselingStatus
	ScheduledAt       *time.Time
	ResolutionNotes   *string
	ReferredBy        *string
	ReferrerSignature *string
}

// ApplyTransition writes the new status together with its resolution payload,
// conditioned on the status the actor observed. Zero rows affected means a
// concurrent actor moved the case first and surfaces as sql.ErrNoRows.
func (r *CounselingRepository) ApplyTransition(ctx context.Context, q sqlx.ExtContext, params CounselingTransitionParams) error {
	setParts := []string{"status = :to_status", "updated_at = :updated_at"}
	if params.ScheduledAt != nil {
		setParts = append(setParts, "scheduled_at = :scheduled_at")
	}
	if params.ResolutionNotes != nil {
		setParts = append(setParts, "resolution_notes = :resolution_notes")
	}
	if params.ReferredBy != nil {
		setParts = append(setParts, "referred_by = :referred_by")
	}
	if params.ReferrerSignature != nil {
		setParts = append(setParts, "referrer_signature = :referrer_signature")
	}
	query := fmt.Sprintf("UPDATE counseling_cases SET %s WHERE id = :id AND status = :from_status",
		strings.Join(setParts, ", "))
	result, err := sqlx.NamedExecContext(ctx, r.ext(q), query, map[string]interface{}{
		"id":                 params.ID,
		"from_status":        params.FromStatus,
		"to_status":          params.ToStatus,
		"updated_at":         time.Now().UTC(),
		"scheduled_at":       params.ScheduledAt,
		"resolution_notes":   params.ResolutionNotes,
		"referred_by":        params.ReferredBy,
		"referrer_signature": params.ReferrerSignature,
	})
	if err != nil {
		return fmt.Errorf("apply counseling transition: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check counseling transition rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a case row. Privileged use only.
func (r *CounselingRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM counseling_cases WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete counseling case: %w", err)
	}
	return nil
}

// CountByDepartment returns open-queue sizes keyed by department.
func (r *CounselingRepository) CountByDepartment(ctx context.Context, statuses []models.CounselingStatus) (map[string]int, error) {
	args := make([]interface{}, 0, len(statuses))
	placeholders := make([]string, len(statuses))
	for i, status := range statuses {
		args = append(args, status)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := "SELECT department, COUNT(*) AS total FROM counseling_cases GROUP BY department"
	if len(statuses) > 0 {
		query = fmt.Sprintf("SELECT department, COUNT(*) AS total FROM counseling_cases WHERE status IN (%s) GROUP BY department",
			strings.Join(placeholders, ","))
	}
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count counseling cases: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var department string
		var total int
		if err := rows.Scan(&department, &total); err != nil {
			return nil, fmt.Errorf("scan counseling count: %w", err)
		}
		counts[department] = total
	}
	return counts, rows.Err()
}
