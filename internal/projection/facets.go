package projection

import (
	"strings"

	"github.com/campus-osa/care-desk-api/internal/models"
)

// Facets is the cascading course → year-level → section refinement. An empty
// field matches everything. Each facet is an independent predicate, so
// applying them in any order yields the same result set.
type Facets struct {
	Course    string
	YearLevel string
	Section   string
}

// Narrow moves from prev to next, resetting the narrower facets whenever an
// upper one changes: a new course invalidates year and section, a new year
// invalidates section.
func Narrow(prev, next Facets) Facets {
	if next.Course != prev.Course {
		return Facets{Course: next.Course}
	}
	if next.YearLevel != prev.YearLevel {
		return Facets{Course: next.Course, YearLevel: next.YearLevel}
	}
	return next
}

// Refine filters an already-scoped slice by the facets. attrs reports the
// roster attributes a record carries; a set facet matches only records
// carrying that attribute, so records without it fall out once the facet is
// used.
func Refine[T any](items []T, f Facets, attrs func(T) Facets) []T {
	if f == (Facets{}) {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if matches(attrs(item), f) {
			out = append(out, item)
		}
	}
	return out
}

// RefineStudents filters an already-scoped roster by the facets.
func RefineStudents(students []models.Student, f Facets) []models.Student {
	return Refine(students, f, studentAttrs)
}

// RefineCounseling filters a scoped counseling list. Course and year level
// come from the combined course-year value captured at submission; counseling
// cases carry no section.
func RefineCounseling(cases []models.CounselingCase, f Facets) []models.CounselingCase {
	return Refine(cases, f, counselingAttrs)
}

// RefineSupport filters a scoped support list. Support requests record no
// roster attributes of their own, so any set facet excludes them all.
func RefineSupport(cases []models.SupportCase, f Facets) []models.SupportCase {
	return Refine(cases, f, func(models.SupportCase) Facets { return Facets{} })
}

// RefineAdmissions filters a scoped application list by the course facet,
// matched against the currently active preference.
func RefineAdmissions(apps []models.AdmissionApplication, f Facets) []models.AdmissionApplication {
	return Refine(apps, f, admissionAttrs)
}

func studentAttrs(s models.Student) Facets {
	return Facets{Course: s.Course, YearLevel: s.YearLevel, Section: s.Section}
}

func counselingAttrs(c models.CounselingCase) Facets {
	course, year := splitCourseYear(c.CourseYear)
	return Facets{Course: course, YearLevel: year}
}

func admissionAttrs(a models.AdmissionApplication) Facets {
	return Facets{Course: a.CourseForChoice(a.CurrentChoice)}
}

// splitCourseYear breaks a combined value like "BSIT-2" into its course and
// year-level parts. A value without a separator is all course.
func splitCourseYear(v string) (course, year string) {
	idx := strings.LastIndex(v, "-")
	if idx < 0 {
		return strings.TrimSpace(v), ""
	}
	return strings.TrimSpace(v[:idx]), strings.TrimSpace(v[idx+1:])
}

func matches(got, want Facets) bool {
	if want.Course != "" && got.Course != want.Course {
		return false
	}
	if want.YearLevel != "" && got.YearLevel != want.YearLevel {
		return false
	}
	if want.Section != "" && got.Section != want.Section {
		return false
	}
	return true
}
