package dto

// CreateCounselingRequest is a student's counseling referral submission.
type CreateCounselingRequest struct {
	StudentName   string `json:"student_name" validate:"required"`
	CourseYear    string `json:"course_year" validate:"required"`
	ContactNumber string `json:"contact_number" validate:"required"`
	RequestType   string `json:"request_type" validate:"required"`
	Description   string `json:"description" validate:"required"`
}

// CreateSupportRequest is a student's support-needs submission. The owning
// department is resolved server side from the support type's course mapping
// when the client supplies a course, otherwise taken from the request.
type CreateSupportRequest struct {
	StudentName string   `json:"student_name" validate:"required"`
	Department  string   `json:"department" validate:"required"`
	SupportType string   `json:"support_type" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Documents   []string `json:"documents,omitempty"`
}

// CreateAdmissionRequest is an applicant's ranked-preference submission.
type CreateAdmissionRequest struct {
	ApplicantName  string  `json:"applicant_name" validate:"required"`
	Email          string  `json:"email" validate:"required,email"`
	ContactNumber  string  `json:"contact_number" validate:"required"`
	PriorityCourse string  `json:"priority_course" validate:"required"`
	AltCourse1     *string `json:"alt_course_1,omitempty"`
	AltCourse2     *string `json:"alt_course_2,omitempty"`
	AltCourse3     *string `json:"alt_course_3,omitempty"`
}

// AttendanceRequest stamps interview test attendance.
type AttendanceRequest struct {
	TimeIn  bool `json:"time_in"`
	TimeOut bool `json:"time_out"`
}

// CaseQuery mirrors the supported listing filters.
type CaseQuery struct {
	Status    []string `form:"status"`
	Search    string   `form:"search"`
	Course    string   `form:"course"`
	YearLevel string   `form:"year_level"`
	Section   string   `form:"section"`
	Limit     int      `form:"limit"`
	Offset    int      `form:"offset"`
}
