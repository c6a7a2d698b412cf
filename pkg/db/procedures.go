package db

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownOperation is returned for an operation with no stored function.
var ErrUnknownOperation = errors.New("unknown operation")

// ParamKind is the SQL type a parameter is bound as.
type ParamKind int

const (
	ParamText ParamKind = iota
	ParamInt
)

func (k ParamKind) String() string {
	if k == ParamInt {
		return "integer"
	}
	return "text"
}

// ProcParam is one positional argument of a stored function, named as the caller sends it.
type ProcParam struct {
	Name string
	Kind ParamKind
}

// Procedure maps an operation to the stored function that serves it.
type Procedure struct {
	Operation string
	Function  string
	Params    []ProcParam
}

// ParamError reports a parameter the caller must fix.
type ParamError struct {
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("parameter %s: %s", e.Param, e.Reason)
}

var (
	studentIDParam    = ProcParam{Name: "studentID", Kind: ParamInt}
	offeringIDParam   = ProcParam{Name: "courseOfferingID", Kind: ParamInt}
	subjectCodeParam  = ProcParam{Name: "subjectCode", Kind: ParamText}
	courseNumberParam = ProcParam{Name: "courseNumber", Kind: ParamText}
)

// Procedures lists every operation the backend serves.
var Procedures = []Procedure{
	{
		Operation: "find_prerequisites",
		Function:  "fn_find_prerequisites",
		Params:    []ProcParam{subjectCodeParam, courseNumberParam},
	},
	{
		Operation: "find_current_semester_course_offerings",
		Function:  "fn_find_current_semester_course_offerings",
		Params:    []ProcParam{subjectCodeParam, courseNumberParam},
	},
	{
		Operation: "check_if_student_has_taken_all_prerequisites_for_course",
		Function:  "fn_check_prerequisites_completed",
		Params:    []ProcParam{studentIDParam, subjectCodeParam, courseNumberParam},
	},
	{
		Operation: "enroll_student_in_course_offering",
		Function:  "fn_enroll_student_in_course_offering",
		Params:    []ProcParam{studentIDParam, offeringIDParam},
	},
	{
		Operation: "get_student_enrolled_course_offerings",
		Function:  "fn_get_student_enrolled_course_offerings",
		Params:    []ProcParam{studentIDParam},
	},
	{
		Operation: "drop_student_from_course_offering",
		Function:  "fn_drop_student_from_course_offering",
		Params:    []ProcParam{studentIDParam, offeringIDParam},
	},
}

// LookupProcedure finds the procedure serving operation.
func LookupProcedure(operation string) (Procedure, error) {
	for _, p := range Procedures {
		if p.Operation == operation {
			return p, nil
		}
	}
	return Procedure{}, fmt.Errorf("%w: %s", ErrUnknownOperation, operation)
}

// SQL returns the query that calls the function with positional placeholders.
func (p Procedure) SQL() string {
	ph := make([]string, len(p.Params))
	for i := range p.Params {
		ph[i] = "$" + strconv.Itoa(i+1)
	}
	return fmt.Sprintf("SELECT * FROM %s(%s)", p.Function, strings.Join(ph, ", "))
}

// Args binds named string parameters to the function's positional arguments.
func (p Procedure) Args(params map[string]string) ([]any, error) {
	args := make([]any, len(p.Params))
	for i, pp := range p.Params {
		raw, ok := params[pp.Name]
		if !ok {
			return nil, &ParamError{Param: pp.Name, Reason: "is required"}
		}
		switch pp.Kind {
		case ParamInt:
			n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
			if err != nil {
				return nil, &ParamError{Param: pp.Name, Reason: "must be an integer"}
			}
			args[i] = int32(n)
		default:
			args[i] = strings.TrimSpace(raw)
		}
	}
	return args, nil
}
