package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morezero/course-recommender/pkg/dispatcher"
	"github.com/morezero/course-recommender/pkg/form"
	"github.com/morezero/course-recommender/pkg/gateway"
	"github.com/morezero/course-recommender/pkg/interpreter"
	"github.com/morezero/course-recommender/pkg/registry"
	"github.com/morezero/course-recommender/pkg/resultset"
)

type fakeBackend struct {
	rs     resultset.ResultSet
	err    error
	calls  int
	params form.Values
}

func (f *fakeBackend) Invoke(ctx context.Context, operation string, params form.Values) (resultset.ResultSet, error) {
	f.calls++
	f.params = params
	if f.err != nil {
		return nil, &gateway.GatewayError{Operation: operation, Err: f.err}
	}
	return f.rs, nil
}

func newTestModel(gw gateway.Gateway) Model {
	ctrl := dispatcher.NewController(dispatcher.ControllerParams{Registry: registry.Default(), Gateway: gw})
	return New(context.Background(), ctrl)
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// send feeds msg; when it started a submission the dispatch command is run and its result fed back.
// Other commands (cursor blink) are dropped.
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd != nil && m.busy {
		next, _ = m.Update(cmd())
		m = next.(Model)
	}
	return m
}

func selectByName(t *testing.T, m Model, name string) Model {
	t.Helper()
	for i := 0; i < len(m.names) && m.names[m.cursor] != name; i++ {
		m = send(t, m, key(tea.KeyDown))
	}
	if m.names[m.cursor] != name {
		t.Fatalf("tui:model_test - could not select %s", name)
	}
	return m
}

func TestModel_SelectionNeverDispatches(t *testing.T) {
	gw := &fakeBackend{}
	m := newTestModel(gw)
	if m.form == nil || m.form.Name != "FindPrerequisites" {
		t.Fatalf("tui:model_test - initial form = %+v", m.form)
	}
	for i := 0; i < 10; i++ {
		m = send(t, m, key(tea.KeyDown))
	}
	m = send(t, m, key(tea.KeyUp))
	if gw.calls != 0 {
		t.Errorf("tui:model_test - gateway called %d times while browsing", gw.calls)
	}
	if m.cursor != len(m.names)-2 {
		t.Errorf("tui:model_test - cursor = %d, want %d", m.cursor, len(m.names)-2)
	}
}

func TestModel_FormInputs(t *testing.T) {
	m := selectByName(t, newTestModel(&fakeBackend{}), "EnrollInCourseOffering")
	if len(m.inputs) != 2 {
		t.Fatalf("tui:model_test - %d inputs, want 2", len(m.inputs))
	}
	for i, in := range m.inputs {
		if in.CharLimit != form.MaxChars {
			t.Errorf("tui:model_test - input %d CharLimit = %d", i, in.CharLimit)
		}
	}
	view := m.View()
	for _, want := range []string{"Enroll In Course Offering", "Student ID", "Course Offering ID"} {
		if !strings.Contains(view, want) {
			t.Errorf("tui:model_test - view missing %q", want)
		}
	}
}

func TestModel_SubmitScenarios(t *testing.T) {
	tests := []struct {
		name   string
		target string
		inputs []string
		rs     resultset.ResultSet
		err    error
		want   []string
	}{
		{
			name:   "enroll success",
			target: "EnrollInCourseOffering",
			inputs: []string{"123", "45"},
			rs:     resultset.ResultSet{resultset.NewRecord("EnrollmentSucceeded", int64(1), "EnrollmentResponse", "OK")},
			want:   []string{"Enrollment successful."},
		},
		{
			name:   "enroll failure with detail",
			target: "EnrollInCourseOffering",
			inputs: []string{"123", "45"},
			rs:     resultset.ResultSet{resultset.NewRecord("EnrollmentSucceeded", int64(0), "EnrollmentResponse", "No seats remaining")},
			want:   []string{"Enrollment failed.", "No seats remaining"},
		},
		{
			name:   "empty listing",
			target: "GetStudentEnrolledCourseOfferings",
			inputs: []string{"999"},
			rs:     resultset.ResultSet{},
			want:   []string{"No courses enrolled."},
		},
		{
			name:   "table",
			target: "GetCoursesOffered",
			inputs: []string{"CS", "101"},
			rs:     resultset.ResultSet{resultset.NewRecord("CRN", "10001", "NumberSeatsRemaining", int64(7))},
			want:   []string{"CRN", "NumberSeatsRemaining", "10001"},
		},
		{
			name:   "gateway error",
			target: "DropFromCourseOffering",
			inputs: []string{"1", "2"},
			err:    errors.New("connection refused"),
			want:   []string{"Error:", "could not complete"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeBackend{rs: tt.rs, err: tt.err}
			m := selectByName(t, newTestModel(gw), tt.target)
			m = send(t, m, key(tea.KeyEnter))
			if m.focus != focusForm {
				t.Fatalf("tui:model_test - enter did not focus the form")
			}
			for i, v := range tt.inputs {
				if i > 0 {
					m = send(t, m, key(tea.KeyTab))
				}
				m = send(t, m, runes(v))
			}
			m = send(t, m, key(tea.KeyEnter))

			if gw.calls != 1 {
				t.Fatalf("tui:model_test - gateway calls = %d, want 1", gw.calls)
			}
			if got := gw.params.Names(); len(got) != len(tt.inputs) {
				t.Errorf("tui:model_test - params = %v", gw.params)
			}
			for i, e := range gw.params {
				if e.Value != tt.inputs[i] {
					t.Errorf("tui:model_test - param %s = %q, want %q", e.Name, e.Value, tt.inputs[i])
				}
			}
			if m.busy {
				t.Error("tui:model_test - still busy after result")
			}
			view := m.View()
			for _, w := range tt.want {
				if !strings.Contains(view, w) {
					t.Errorf("tui:model_test - view missing %q", w)
				}
			}
			if strings.Contains(view, "connection refused") {
				t.Error("tui:model_test - gateway cause leaked into the view")
			}
		})
	}
}

func TestModel_ChangingSelectionClearsOutcome(t *testing.T) {
	gw := &fakeBackend{rs: resultset.ResultSet{resultset.NewRecord("EnrollmentStatus", "Dropped")}}
	m := selectByName(t, newTestModel(gw), "DropFromCourseOffering")
	m = send(t, m, key(tea.KeyEnter))
	m = send(t, m, runes("1"))
	m = send(t, m, key(tea.KeyTab))
	m = send(t, m, runes("2"))
	m = send(t, m, key(tea.KeyEnter))
	if !strings.Contains(m.View(), "Drop successful.") {
		t.Fatalf("tui:model_test - expected success in view")
	}

	m = send(t, m, key(tea.KeyEsc))
	m = send(t, m, key(tea.KeyUp))
	if strings.Contains(m.View(), "Drop successful.") {
		t.Error("tui:model_test - outcome should be cleared after changing selection")
	}
	if gw.calls != 1 {
		t.Errorf("tui:model_test - gateway calls = %d, want 1", gw.calls)
	}
}

func TestModel_CharLimit(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m = send(t, m, key(tea.KeyEnter))
	m = send(t, m, runes(strings.Repeat("x", 30)))
	if got := len(m.inputs[0].Value()); got != form.MaxChars {
		t.Errorf("tui:model_test - value length = %d, want %d", got, form.MaxChars)
	}
}

func TestRenderTable_HeaderThenRows(t *testing.T) {
	p := interpreter.Table(resultset.ResultSet{
		resultset.NewRecord("SubjectCode", "CS", "CourseNumber", "101"),
		resultset.NewRecord("SubjectCode", "MATH", "CourseNumber", "220"),
	})
	out := renderTable(p)
	lines := strings.Split(out, "\n")

	find := func(s string) int {
		for i, l := range lines {
			if strings.Contains(l, s) {
				return i
			}
		}
		return -1
	}
	header, first, second := find("SubjectCode"), find("CS"), find("MATH")
	if header < 0 || first < 0 || second < 0 {
		t.Fatalf("tui:model_test - table missing cells:\n%s", out)
	}
	if !(header < first && first < second) {
		t.Errorf("tui:model_test - rows out of order:\n%s", out)
	}
	if !strings.Contains(lines[header], "CourseNumber") || !strings.Contains(lines[first], "101") {
		t.Errorf("tui:model_test - columns not on the same line:\n%s", out)
	}
	if !strings.Contains(out, "│") {
		t.Errorf("tui:model_test - table has no column borders:\n%s", out)
	}
}
