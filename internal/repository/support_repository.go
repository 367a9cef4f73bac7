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

// SupportRepository persists support-needs cases.
type SupportRepository struct {
	db *sqlx.DB
}

// NewSupportRepository constructs the repository.
func NewSupportRepository(db *sqlx.DB) *SupportRepository {
	return &SupportRepository{db: db}
}

func (r *SupportRepository) ext(q sqlx.ExtContext) sqlx.ExtContext {
	if q != nil {
		return q
	}
	return r.db
}

const supportColumns = `id, student_id, student_name, department, support_type, description, documents,
       status, dept_notes, created_at, updated_at`

// Create inserts a new support case.
func (r *SupportRepository) Create(ctx context.Context, q sqlx.ExtContext, c *models.SupportCase) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = models.SupportStatusForwarded
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	const query = `INSERT INTO support_cases
	(id, student_id, student_name, department, support_type, description, documents, status, dept_notes, created_at, updated_at)
	VALUES (:id, :student_id, :student_name, :department, :support_type, :description, :documents, :status, :dept_notes, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.ext(q), query, c); err != nil {
		return fmt.Errorf("create support case: %w", err)
	}
	return nil
}

// GetByID fetches a support case by identifier.
func (r *SupportRepository) GetByID(ctx context.Context, id string) (*models.SupportCase, error) {
	query := fmt.Sprintf("SELECT %s FROM support_cases WHERE id = $1", supportColumns)
	var c models.SupportCase
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns cases matching the filter, newest first.
func (r *SupportRepository) List(ctx context.Context, filter models.SupportFilter) ([]models.SupportCase, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(fmt.Sprintf("SELECT %s FROM support_cases", supportColumns))

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

	var cases []models.SupportCase
	if err := r.db.SelectContext(ctx, &cases, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list support cases: %w", err)
	}
	return cases, nil
}

// SupportTransitionParams groups the columns a transition may write.
type SupportTransitionParams struct {
	ID         string
	FromStatus models.SupportStatus
	ToStatus   models.SupportStatus
	DeptNotes  models.DeptNotes
}

// ApplyTransition writes status and tagged dept_notes together, conditioned
// on the observed status. Zero rows affected surfaces as sql.ErrNoRows.
func (r *SupportRepository) ApplyTransition(ctx context.Context, q sqlx.ExtContext, params SupportTransitionParams) error {
	const query = `UPDATE support_cases SET status = :to_status, dept_notes = :dept_notes, updated_at = :updated_at
	WHERE id = :id AND status = :from_status`
	result, err := sqlx.NamedExecContext(ctx, r.ext(q), query, map[string]interface{}{
		"id":          params.ID,
		"from_status": params.FromStatus,
		"to_status":   params.ToStatus,
		"dept_notes":  params.DeptNotes,
		"updated_at":  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("apply support transition: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check support transition rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a case row. Privileged use only.
func (r *SupportRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM support_cases WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete support case: %w", err)
	}
	return nil
}

// CountByDepartment returns open-queue sizes keyed by department.
func (r *SupportRepository) CountByDepartment(ctx context.Context, statuses []models.SupportStatus) (map[string]int, error) {
	args := make([]interface{}, 0, len(statuses))
	placeholders := make([]string, len(statuses))
	for i, status := range statuses {
		args = append(args, status)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := "SELECT department, COUNT(*) AS total FROM support_cases GROUP BY department"
	if len(statuses) > 0 {
		query = fmt.Sprintf("SELECT department, COUNT(*) AS total FROM support_cases WHERE status IN (%s) GROUP BY department",
			strings.Join(placeholders, ","))
	}
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count support cases: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var department string
		var total int
		if err := rows.Scan(&department, &total); err != nil {
			return nil, fmt.Errorf("scan support count: %w", err)
		}
		counts[department] = total
	}
	return counts, rows.Err()
}
