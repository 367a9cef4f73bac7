package models

import "time"

// Student is the roster record cases point at. Cases hold a weak reference
// (student_id + denormalised name), never ownership.
type Student struct {
	ID            string    `db:"id" json:"id"`
	StudentNumber string    `db:"student_number" json:"student_number"`
	FullName      string    `db:"full_name" json:"full_name"`
	Course        string    `db:"course" json:"course"`
	YearLevel     string    `db:"year_level" json:"year_level"`
	Section       string    `db:"section" json:"section"`
	Department    string    `db:"department" json:"department"`
	ContactNumber string    `db:"contact_number" json:"contact_number"`
	Email         string    `db:"email" json:"email"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter constrains roster queries.
type StudentFilter struct {
	Department string
	Course     string
	YearLevel  string
	Section    string
	Search     string
	Page       int
	PageSize   int
}
