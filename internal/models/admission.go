package models

import (
	"fmt"
	"time"
)

// AdmissionStatus captures workflow states for admissions applications.
type AdmissionStatus string

const (
	AdmissionStatusForwardedChoice1   AdmissionStatus = "FORWARDED_CHOICE_1"
	AdmissionStatusForwardedChoice2   AdmissionStatus = "FORWARDED_CHOICE_2"
	AdmissionStatusForwardedChoice3   AdmissionStatus = "FORWARDED_CHOICE_3"
	AdmissionStatusForwardedChoice4   AdmissionStatus = "FORWARDED_CHOICE_4"
	AdmissionStatusInterviewScheduled AdmissionStatus = "INTERVIEW_SCHEDULED"
	AdmissionStatusApproved           AdmissionStatus = "APPROVED"
	AdmissionStatusUnsuccessful       AdmissionStatus = "UNSUCCESSFUL"
)

// AdmissionStatuses is the closed enumeration for the family.
var AdmissionStatuses = []AdmissionStatus{
	AdmissionStatusForwardedChoice1,
	AdmissionStatusForwardedChoice2,
	AdmissionStatusForwardedChoice3,
	AdmissionStatusForwardedChoice4,
	AdmissionStatusInterviewScheduled,
	AdmissionStatusApproved,
	AdmissionStatusUnsuccessful,
}

// ForwardedStatusForChoice maps a choice ordinal to its forwarded status.
func ForwardedStatusForChoice(choice int) (AdmissionStatus, error) {
	switch choice {
	case 1:
		return AdmissionStatusForwardedChoice1, nil
	case 2:
		return AdmissionStatusForwardedChoice2, nil
	case 3:
		return AdmissionStatusForwardedChoice3, nil
	case 4:
		return AdmissionStatusForwardedChoice4, nil
	default:
		return "", fmt.Errorf("choice %d out of range", choice)
	}
}

// Label renders the human-readable status used in notifications.
func (s AdmissionStatus) Label() string {
	switch s {
	case AdmissionStatusForwardedChoice1:
		return "Forwarded to 1st Choice for Interview"
	case AdmissionStatusForwardedChoice2:
		return "Forwarded to 2nd Choice for Interview"
	case AdmissionStatusForwardedChoice3:
		return "Forwarded to 3rd Choice for Interview"
	case AdmissionStatusForwardedChoice4:
		return "Forwarded to 4th Choice for Interview"
	case AdmissionStatusInterviewScheduled:
		return "Interview Scheduled"
	case AdmissionStatusApproved:
		return "Approved for Enrollment"
	case AdmissionStatusUnsuccessful:
		return "Application Unsuccessful"
	default:
		return string(s)
	}
}

// AdmissionApplication is a ranked-preference admissions case. CurrentChoice
// is monotonically non-decreasing and bounded by the number of declared
// preferences (priority course plus populated alternates).
type AdmissionApplication struct {
	ID             string          `db:"id" json:"id"`
	StudentID      string          `db:"student_id" json:"student_id"`
	ApplicantName  string          `db:"applicant_name" json:"applicant_name"`
	Email          string          `db:"email" json:"email"`
	ContactNumber  string          `db:"contact_number" json:"contact_number"`
	PriorityCourse string          `db:"priority_course" json:"priority_course"`
	AltCourse1     *string         `db:"alt_course_1" json:"alt_course_1,omitempty"`
	AltCourse2     *string         `db:"alt_course_2" json:"alt_course_2,omitempty"`
	AltCourse3     *string         `db:"alt_course_3" json:"alt_course_3,omitempty"`
	CurrentChoice  int             `db:"current_choice" json:"current_choice"`
	Department     string          `db:"department" json:"department"`
	Status         AdmissionStatus `db:"status" json:"status"`
	InterviewAt    *time.Time      `db:"interview_at" json:"interview_at,omitempty"`
	TimeIn         *time.Time      `db:"time_in" json:"time_in,omitempty"`
	TimeOut        *time.Time      `db:"time_out" json:"time_out,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// CourseForChoice returns the course at the given choice ordinal, empty when
// the preference was not declared.
func (a *AdmissionApplication) CourseForChoice(choice int) string {
	switch choice {
	case 1:
		return a.PriorityCourse
	case 2:
		return deref(a.AltCourse1)
	case 3:
		return deref(a.AltCourse2)
	case 4:
		return deref(a.AltCourse3)
	default:
		return ""
	}
}

// DeclaredChoices counts how many preferences the applicant declared.
func (a *AdmissionApplication) DeclaredChoices() int {
	count := 1
	for _, alt := range []*string{a.AltCourse1, a.AltCourse2, a.AltCourse3} {
		if deref(alt) != "" {
			count++
		}
	}
	return count
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// AdmissionFilter constrains listing queries.
type AdmissionFilter struct {
	Status     []AdmissionStatus
	Department string
	StudentID  string
	Search     string
	Limit      int
	Offset     int
}
