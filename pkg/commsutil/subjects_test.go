package commsutil

import "testing"

func TestBuildOperationSubject(t *testing.T) {
	tests := []struct {
		name      string
		prefix    string
		operation string
		want      string
	}{
		{"default prefix", "", "enroll_student_in_course_offering", "course.op.enroll_student_in_course_offering"},
		{"custom prefix", "campus.api", "find_prerequisites", "campus.api.find_prerequisites"},
		{"dotted operation", "", "a.b", "course.op.a_b"},
		{"wildcards", "", "x*>", "course.op.x__"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildOperationSubject(tt.prefix, tt.operation)
			if got != tt.want {
				t.Errorf("BuildOperationSubject(%q, %q) = %q, want %q", tt.prefix, tt.operation, got, tt.want)
			}
		})
	}
}

func TestBuildDispatchEventSubject(t *testing.T) {
	tests := []struct {
		name          string
		functionality string
		want          string
	}{
		{"basic", "EnrollInCourseOffering", "course.dispatched.EnrollInCourseOffering"},
		{"spaces", "Find It", "course.dispatched.Find_It"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildDispatchEventSubject(tt.functionality)
			if got != tt.want {
				t.Errorf("BuildDispatchEventSubject(%q) = %q, want %q", tt.functionality, got, tt.want)
			}
		})
	}
}
