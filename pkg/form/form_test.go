package form

import (
	"errors"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/morezero/course-recommender/pkg/registry"
)

var enrollFields = []registry.FieldSpec{
	{Name: "studentID", Label: "Student ID"},
	{Name: "courseOfferingID", Label: "Course Offering ID"},
}

func TestCollect_PreservesDeclarationOrder(t *testing.T) {
	src := MapSource{"courseOfferingID": "45", "studentID": "123", "extra": "ignored"}
	vals, err := Collect(enrollFields, src)
	if err != nil {
		t.Fatalf("form:form_test - unexpected error: %v", err)
	}
	want := Values{{Name: "studentID", Value: "123"}, {Name: "courseOfferingID", Value: "45"}}
	if !reflect.DeepEqual(vals, want) {
		t.Errorf("form:form_test - Collect = %#v, want %#v", vals, want)
	}
	if _, ok := vals.Get("extra"); ok {
		t.Error("form:form_test - undeclared field should not be collected")
	}
}

func TestCollect_EmptyValuePassesThrough(t *testing.T) {
	vals, err := Collect(enrollFields, MapSource{"studentID": "", "courseOfferingID": "   "})
	if err != nil {
		t.Fatalf("form:form_test - unexpected error: %v", err)
	}
	if v, ok := vals.Get("studentID"); !ok || v != "" {
		t.Errorf("form:form_test - studentID = %q (ok=%v), want empty", v, ok)
	}
	if v, _ := vals.Get("courseOfferingID"); v != "   " {
		t.Errorf("form:form_test - courseOfferingID = %q, want the blanks as entered", v)
	}
}

func TestCollect_MissingField(t *testing.T) {
	_, err := Collect(enrollFields, MapSource{"studentID": "1"})
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("form:form_test - error = %v, want ErrMissingField", err)
	}
	if !strings.Contains(err.Error(), "courseOfferingID") {
		t.Errorf("form:form_test - error should name the missing field: %v", err)
	}
}

func TestCollect_KeepsLongValues(t *testing.T) {
	fields := []registry.FieldSpec{{Name: "studentID"}}
	long := strings.Repeat("1", MaxChars+5)
	vals, err := Collect(fields, MapSource{"studentID": long})
	if err != nil {
		t.Fatalf("form:form_test - unexpected error: %v", err)
	}
	if v, _ := vals.Get("studentID"); v != long {
		t.Errorf("form:form_test - studentID = %q, want %q", v, long)
	}
}

func TestURLValuesSource(t *testing.T) {
	src := URLValuesSource(url.Values{"studentID": {"7", "8"}, "courseOfferingID": {}})
	vals, err := Collect(enrollFields, src)
	if err != nil {
		t.Fatalf("form:form_test - unexpected error: %v", err)
	}
	want := Values{{Name: "studentID", Value: "7"}, {Name: "courseOfferingID", Value: ""}}
	if !reflect.DeepEqual(vals, want) {
		t.Errorf("form:form_test - Collect = %#v, want %#v", vals, want)
	}
}

func TestLayoutFor(t *testing.T) {
	if got := LayoutFor(enrollFields[:1]); got != LayoutSingle {
		t.Errorf("form:form_test - one field layout = %q, want single", got)
	}
	if got := LayoutFor(enrollFields); got != LayoutColumns {
		t.Errorf("form:form_test - two field layout = %q, want columns", got)
	}
}

func TestValues_EncodeKeepsOrder(t *testing.T) {
	vals := Values{{Name: "studentID", Value: "1 2"}, {Name: "courseOfferingID", Value: "4&5"}}
	if got := vals.Encode(); got != "studentID=1+2&courseOfferingID=4%265" {
		t.Errorf("form:form_test - Encode = %q", got)
	}
	data, err := Values{{Name: "studentID", Value: "1 2"}, {Name: "courseOfferingID", Value: "45"}}.MarshalJSON()
	if err != nil {
		t.Fatalf("form:form_test - MarshalJSON failed: %v", err)
	}
	if string(data) != `{"studentID":"1 2","courseOfferingID":"45"}` {
		t.Errorf("form:form_test - MarshalJSON = %s", data)
	}
}
