package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campus-osa/care-desk-api/internal/models"
)

func counselingFixture() []models.CounselingCase {
	return []models.CounselingCase{
		{ID: "c1", StudentID: "s1", Department: "CAS"},
		{ID: "c2", StudentID: "s2", Department: "CBA"},
		{ID: "c3", StudentID: "s1", Department: "CAS"},
	}
}

func TestScopeCounselingDepartment(t *testing.T) {
	actor := &models.JWTClaims{UserID: "u1", Role: models.RoleDepartment, Department: "CAS"}
	scoped := ScopeCounseling(actor, counselingFixture())
	assert.Len(t, scoped, 2)
	for _, c := range scoped {
		assert.Equal(t, "CAS", c.Department)
	}
}

func TestScopeCounselingCareStaffSeesAll(t *testing.T) {
	actor := &models.JWTClaims{UserID: "u2", Role: models.RoleCareStaff}
	assert.Len(t, ScopeCounseling(actor, counselingFixture()), 3)
}

func TestScopeCounselingStudentSeesOwn(t *testing.T) {
	actor := &models.JWTClaims{UserID: "s2", Role: models.RoleStudent}
	scoped := ScopeCounseling(actor, counselingFixture())
	assert.Len(t, scoped, 1)
	assert.Equal(t, "c2", scoped[0].ID)
}

func TestScopeSupportDepartmentWithoutClaimSeesNothing(t *testing.T) {
	actor := &models.JWTClaims{UserID: "u1", Role: models.RoleDepartment}
	cases := []models.SupportCase{{ID: "p1", Department: "CAS"}}
	assert.Empty(t, ScopeSupport(actor, cases))
}

func rosterFixture() []models.Student {
	return []models.Student{
		{ID: "s1", Course: "BSIT", YearLevel: "3", Section: "A"},
		{ID: "s2", Course: "BSIT", YearLevel: "3", Section: "B"},
		{ID: "s3", Course: "BSIT", YearLevel: "2", Section: "A"},
		{ID: "s4", Course: "BSCS", YearLevel: "3", Section: "A"},
	}
}

func TestRefineAssociativity(t *testing.T) {
	roster := rosterFixture()

	courseThenYear := RefineStudents(RefineStudents(roster, Facets{Course: "BSIT"}), Facets{YearLevel: "3"})
	yearThenCourse := RefineStudents(RefineStudents(roster, Facets{YearLevel: "3"}), Facets{Course: "BSIT"})
	combined := RefineStudents(roster, Facets{Course: "BSIT", YearLevel: "3"})

	assert.Equal(t, courseThenYear, yearThenCourse)
	assert.Equal(t, combined, courseThenYear)
	assert.Len(t, combined, 2)
}

func TestRefineAllThreeLevels(t *testing.T) {
	refined := RefineStudents(rosterFixture(), Facets{Course: "BSIT", YearLevel: "3", Section: "A"})
	assert.Len(t, refined, 1)
	assert.Equal(t, "s1", refined[0].ID)
}

func TestRefineCounselingByCourseYear(t *testing.T) {
	cases := []models.CounselingCase{
		{ID: "c1", CourseYear: "BSIT-2"},
		{ID: "c2", CourseYear: "BSN-1"},
		{ID: "c3", CourseYear: "BSIT-3"},
	}

	assert.Empty(t, RefineCounseling(cases, Facets{Course: "BSHM"}))
	assert.Len(t, RefineCounseling(cases, Facets{Course: "BSIT"}), 2)

	refined := RefineCounseling(cases, Facets{Course: "BSIT", YearLevel: "2"})
	assert.Len(t, refined, 1)
	assert.Equal(t, "c1", refined[0].ID)
}

func TestRefineAdmissionsByActiveChoice(t *testing.T) {
	second := "BSCS"
	apps := []models.AdmissionApplication{
		{ID: "a1", PriorityCourse: "BSCS", CurrentChoice: 1},
		{ID: "a2", PriorityCourse: "BSN", AltCourse1: &second, CurrentChoice: 2},
		{ID: "a3", PriorityCourse: "BSN", CurrentChoice: 1},
	}

	refined := RefineAdmissions(apps, Facets{Course: "BSCS"})
	assert.Len(t, refined, 2)
	assert.Equal(t, "a1", refined[0].ID)
	assert.Equal(t, "a2", refined[1].ID)
}

func TestRefineSupportHasNoRosterAttributes(t *testing.T) {
	cases := []models.SupportCase{{ID: "p1"}, {ID: "p2"}}

	assert.Len(t, RefineSupport(cases, Facets{}), 2)
	assert.Empty(t, RefineSupport(cases, Facets{Course: "BSIT"}))
}

func TestNarrowResetsLowerFacets(t *testing.T) {
	prev := Facets{Course: "BSIT", YearLevel: "3", Section: "A"}

	next := Narrow(prev, Facets{Course: "BSCS", YearLevel: "3", Section: "A"})
	assert.Equal(t, Facets{Course: "BSCS"}, next)

	next = Narrow(prev, Facets{Course: "BSIT", YearLevel: "2", Section: "A"})
	assert.Equal(t, Facets{Course: "BSIT", YearLevel: "2"}, next)

	next = Narrow(prev, Facets{Course: "BSIT", YearLevel: "3", Section: "B"})
	assert.Equal(t, Facets{Course: "BSIT", YearLevel: "3", Section: "B"}, next)
}
