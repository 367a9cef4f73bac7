package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campus-osa/care-desk-api/internal/models"
)

// CourseRepository resolves courses to their owning departments.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new instance of CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByCode returns the course record for a course code.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	const query = `SELECT id, code, name, department, created_at FROM courses WHERE code = $1 LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by code: %w", err)
	}
	return &course, nil
}

// DepartmentForCourse resolves the owning department for a course code. This
// lookup runs server side at write time so a stale client claim can never
// route a case to the wrong queue.
func (r *CourseRepository) DepartmentForCourse(ctx context.Context, code string) (string, error) {
	var department string
	if err := r.db.GetContext(ctx, &department, "SELECT department FROM courses WHERE code = $1 LIMIT 1", code); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("resolve course department: %w", err)
	}
	return department, nil
}

// ListDepartments returns all registered departments.
func (r *CourseRepository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, "SELECT id, code, name, created_at FROM departments ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}
