package registry

// DefaultCatalogVersion is the version reported for the built-in declaration table.
const DefaultCatalogVersion = "1.0.0"

var (
	subjectCodeField  = FieldSpec{Name: "subjectCode", Label: "Subject Code", Placeholder: "e.g. CS"}
	courseNumberField = FieldSpec{Name: "courseNumber", Label: "Course Number", Placeholder: "e.g. 101"}
	studentIDField    = FieldSpec{Name: "studentID", Label: "Student ID", Placeholder: "e.g. 123"}
	offeringIDField   = FieldSpec{Name: "courseOfferingID", Label: "Course Offering ID", Placeholder: "e.g. 45"}
)

// DefaultDeclarations returns the built-in functionality table, in selector order.
func DefaultDeclarations() []Declaration {
	return []Declaration{
		{
			Name:         "FindPrerequisites",
			Operation:    "find_prerequisites",
			DisplayTitle: "Course Prerequisites Finder",
			PageTitle:    "Course Prerequisites",
			SubmitLabel:  "Find Prerequisites",
			InputFields:  []FieldSpec{subjectCodeField, courseNumberField},
			Outcome:      Listing{EmptyMessage: "No prerequisites found."},
		},
		{
			Name:         "GetCoursesOffered",
			Operation:    "find_current_semester_course_offerings",
			DisplayTitle: "Course Offerings Finder",
			PageTitle:    "Course Offered",
			SubmitLabel:  "Get Courses Offered",
			InputFields:  []FieldSpec{subjectCodeField, courseNumberField},
			Outcome:      Listing{EmptyMessage: "No courses offered found."},
		},
		{
			Name:         "CheckIfCompletedPrerequisites",
			Operation:    "check_if_student_has_taken_all_prerequisites_for_course",
			DisplayTitle: "Check If Completed Prerequisites",
			PageTitle:    "Check If Completed Prerequisites",
			SubmitLabel:  "Check If Completed Prerequisites",
			InputFields:  []FieldSpec{studentIDField, subjectCodeField, courseNumberField},
			Outcome:      Listing{EmptyMessage: "Student has completed all prerequisites for the course."},
		},
		{
			Name:         "EnrollInCourseOffering",
			Operation:    "enroll_student_in_course_offering",
			DisplayTitle: "Enroll In Course Offering",
			PageTitle:    "Enroll In Course Offering",
			SubmitLabel:  "Enroll In Course Offering",
			InputFields:  []FieldSpec{studentIDField, offeringIDField},
			Outcome: BooleanOutcome{
				StatusField:    "EnrollmentSucceeded",
				SuccessValue:   int64(1),
				SuccessMessage: "Enrollment successful.",
				FailureMessage: "Enrollment failed.",
				DetailField:    "EnrollmentResponse",
			},
		},
		{
			Name:         "GetStudentEnrolledCourseOfferings",
			Operation:    "get_student_enrolled_course_offerings",
			DisplayTitle: "Get Student Enrolled Course Offerings",
			PageTitle:    "Get Student Enrolled Course Offerings",
			SubmitLabel:  "Get Student Enrolled Course Offerings",
			InputFields:  []FieldSpec{studentIDField},
			Outcome:      Listing{EmptyMessage: "No courses enrolled."},
		},
		{
			Name:         "DropFromCourseOffering",
			Operation:    "drop_student_from_course_offering",
			DisplayTitle: "Drop From Course Offering",
			PageTitle:    "Drop From Course Offering",
			SubmitLabel:  "Drop From Course Offering",
			InputFields:  []FieldSpec{studentIDField, offeringIDField},
			Outcome: BooleanOutcome{
				StatusField:    "EnrollmentStatus",
				SuccessValue:   "Dropped",
				SuccessMessage: "Drop successful.",
				FailureMessage: "Drop failed.",
			},
		},
	}
}

// Default builds the registry from DefaultDeclarations.
func Default() *Registry {
	r := MustNewRegistry(DefaultDeclarations())
	r.version = DefaultCatalogVersion
	return r
}
