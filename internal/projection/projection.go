// Package projection derives the subset of shared collections each actor may
// see. Everything here is a pure, client-side filter: no store round-trips.
package projection

import "github.com/campus-osa/care-desk-api/internal/models"

// ScopeCounseling narrows counseling cases to the actor's visibility:
// department reviewers see their own department's queue, care staff and
// admins see every department, students see only their own cases.
func ScopeCounseling(actor *models.JWTClaims, cases []models.CounselingCase) []models.CounselingCase {
	if actor == nil {
		return nil
	}
	out := make([]models.CounselingCase, 0, len(cases))
	for _, c := range cases {
		if visible(actor, c.Department, c.StudentID) {
			out = append(out, c)
		}
	}
	return out
}

// ScopeSupport narrows support cases to the actor's visibility.
func ScopeSupport(actor *models.JWTClaims, cases []models.SupportCase) []models.SupportCase {
	if actor == nil {
		return nil
	}
	out := make([]models.SupportCase, 0, len(cases))
	for _, c := range cases {
		if visible(actor, c.Department, c.StudentID) {
			out = append(out, c)
		}
	}
	return out
}

// ScopeAdmissions narrows applications to the actor's visibility. The owning
// department follows the current choice's course as the cascade advances.
func ScopeAdmissions(actor *models.JWTClaims, apps []models.AdmissionApplication) []models.AdmissionApplication {
	if actor == nil {
		return nil
	}
	out := make([]models.AdmissionApplication, 0, len(apps))
	for _, a := range apps {
		if visible(actor, a.Department, a.StudentID) {
			out = append(out, a)
		}
	}
	return out
}

func visible(actor *models.JWTClaims, department, studentID string) bool {
	switch actor.Role {
	case models.RoleCareStaff, models.RoleAdmin:
		return true
	case models.RoleDepartment:
		return actor.Department != "" && actor.Department == department
	case models.RoleStudent:
		return actor.UserID == studentID
	default:
		return false
	}
}
