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

// AdmissionRepository persists admissions applications.
type AdmissionRepository struct {
	db *sqlx.DB
}

// NewAdmissionRepository constructs the repository.
func NewAdmissionRepository(db *sqlx.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

func (r *AdmissionRepository) ext(q sqlx.ExtContext) sqlx.ExtContext {
	if q != nil {
		return q
	}
	return r.db
}

const admissionColumns = `id, student_id, applicant_name, email, contact_number, priority_course,
       alt_course_1, alt_course_2, alt_course_3, current_choice, department, status,
       interview_at, time_in, time_out, created_at, updated_at`

// Create inserts a new application, starting at the first choice.
func (r *AdmissionRepository) Create(ctx context.Context, q sqlx.ExtContext, a *models.AdmissionApplication) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = models.AdmissionStatusForwardedChoice1
	}
	if a.CurrentChoice == 0 {
		a.CurrentChoice = 1
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	const query = `INSERT INTO admission_applications
	(id, student_id, applicant_name, email, contact_number, priority_course, alt_course_1, alt_course_2, alt_course_3,
	 current_choice, department, status, interview_at, time_in, time_out, created_at, updated_at)
	VALUES (:id, :student_id, :applicant_name, :email, :contact_number, :priority_course, :alt_course_1, :alt_course_2, :alt_course_3,
	 :current_choice, :department, :status, :interview_at, :time_in, :time_out, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.ext(q), query, a); err != nil {
		return fmt.Errorf("create admission application: %w", err)
	}
	return nil
}

// GetByID fetches an application by identifier.
func (r *AdmissionRepository) GetByID(ctx context.Context, id string) (*models.AdmissionApplication, error) {
	query := fmt.Sprintf("SELECT %s FROM admission_applications WHERE id = $1", admissionColumns)
	var a models.AdmissionApplication
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns applications matching the filter, newest first.
func (r *AdmissionRepository) List(ctx context.Context, filter models.AdmissionFilter) ([]models.AdmissionApplication, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(fmt.Sprintf("SELECT %s FROM admission_applications", admissionColumns))

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
		conditions = append(conditions, fmt.Sprintf("(applicant_name ILIKE $%d OR priority_course ILIKE $%d)", len(args), len(args)))
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

	var apps []models.AdmissionApplication
	if err := r.db.SelectContext(ctx, &apps, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list admission applications: %w", err)
	}
	return apps, nil
}

// AdmissionTransitionParams groups the columns a transition may write.
type AdmissionTransitionParams struct {
	ID            string
	FromStatus    models.AdmissionStatus
	ToStatus      models.AdmissionStatus
	CurrentChoice int
	Department    *string
	InterviewAt   *time.Time
}

// ApplyTransition writes the cascade outcome atomically with the status,
// conditioned on the observed status. Zero rows affected surfaces as
// sql.ErrNoRows.
func (r *AdmissionRepository) ApplyTransition(ctx context.Context, q sqlx.ExtContext, params AdmissionTransitionParams) error {
	setParts := []string{"status = :to_status", "current_choice = :current_choice", "updated_at = :updated_at"}
	if params.Department != nil {
		setParts = append(setParts, "department = :department")
	}
	if params.InterviewAt != nil {
		setParts = append(setParts, "interview_at = :interview_at")
	}
	query := fmt.Sprintf("UPDATE admission_applications SET %s WHERE id = :id AND status = :from_status",
		strings.Join(setParts, ", "))
	result, err := sqlx.NamedExecContext(ctx, r.ext(q), query, map[string]interface{}{
		"id":             params.ID,
		"from_status":    params.FromStatus,
		"to_status":      params.ToStatus,
		"current_choice": params.CurrentChoice,
		"department":     params.Department,
		"interview_at":   params.InterviewAt,
		"updated_at":     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("apply admission transition: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check admission transition rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RecordAttendance stamps interview test attendance times.
func (r *AdmissionRepository) RecordAttendance(ctx context.Context, id string, timeIn, timeOut *time.Time) error {
	setParts := []string{"updated_at = :updated_at"}
	if timeIn != nil {
		setParts = append(setParts, "time_in = :time_in")
	}
	if timeOut != nil {
		setParts = append(setParts, "time_out = :time_out")
	}
	query := fmt.Sprintf("UPDATE admission_applications SET %s WHERE id = :id", strings.Join(setParts, ", "))
	result, err := sqlx.NamedExecContext(ctx, r.db, query, map[string]interface{}{
		"id":         id,
		"time_in":    timeIn,
		"time_out":   timeOut,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("record admission attendance: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check admission attendance rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByDepartment returns open-queue sizes keyed by department.
func (r *AdmissionRepository) CountByDepartment(ctx context.Context, statuses []models.AdmissionStatus) (map[string]int, error) {
	args := make([]interface{}, 0, len(statuses))
	placeholders := make([]string, len(statuses))
	for i, status := range statuses {
		args = append(args, status)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := "SELECT department, COUNT(*) AS total FROM admission_applications GROUP BY department"
	if len(statuses) > 0 {
		query = fmt.Sprintf("SELECT department, COUNT(*) AS total FROM admission_applications WHERE status IN (%s) GROUP BY department",
			strings.Join(placeholders, ","))
	}
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count admission applications: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var department string
		var total int
		if err := rows.Scan(&department, &total); err != nil {
			return nil, fmt.Errorf("scan admission count: %w", err)
		}
		counts[department] = total
	}
	return counts, rows.Err()
}

// Delete removes an application row. Privileged use only.
func (r *AdmissionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM admission_applications WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete admission application: %w", err)
	}
	return nil
}
