package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/course-recommender/pkg/commsutil"
	"github.com/morezero/course-recommender/pkg/resultset"
)

const responderTestPrefix = "backend:responder_test"

func startCommsServer(t *testing.T, port int) *comms.Conn {
	t.Helper()
	ns, err := commsserver.NewServer(&commsserver.Options{Host: "127.0.0.1", Port: port, NoLog: true, NoSigs: true})
	if err != nil {
		t.Fatalf("%s - failed to create server: %v", responderTestPrefix, err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatalf("%s - server not ready", responderTestPrefix)
	}
	t.Cleanup(ns.Shutdown)

	nc, err := comms.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("%s - failed to connect: %v", responderTestPrefix, err)
	}
	t.Cleanup(nc.Close)
	return nc
}

func TestResponder_RoundTrip(t *testing.T) {
	nc := startCommsServer(t, 14260)
	caller := &fakeCaller{rows: resultset.ResultSet{resultset.NewRecord("EnrollmentSucceeded", int64(1), "EnrollmentResponse", "OK")}}

	r, err := Serve(context.Background(), nc, caller, &ResponderOpts{SubjectPrefix: "test.op"})
	if err != nil {
		t.Fatalf("%s - Serve failed: %v", responderTestPrefix, err)
	}
	defer r.Stop()

	msg, err := nc.Request("test.op.enroll_student_in_course_offering", []byte(`{"studentID":"1","courseOfferingID":"2"}`), 2*time.Second)
	if err != nil {
		t.Fatalf("%s - request failed: %v", responderTestPrefix, err)
	}
	rs, err := commsutil.DecodeReply(msg.Data)
	if err != nil {
		t.Fatalf("%s - decode failed: %v", responderTestPrefix, err)
	}
	if len(rs) != 1 {
		t.Fatalf("%s - %d records, want 1", responderTestPrefix, len(rs))
	}
	if v, _ := rs[0].Get("EnrollmentSucceeded"); v != int64(1) {
		t.Errorf("%s - EnrollmentSucceeded = %#v", responderTestPrefix, v)
	}
	if caller.params["courseOfferingID"] != "2" {
		t.Errorf("%s - params = %v", responderTestPrefix, caller.params)
	}
}

func TestResponder_Errors(t *testing.T) {
	nc := startCommsServer(t, 14261)

	tests := []struct {
		name     string
		caller   *fakeCaller
		payload  string
		wantCode string
	}{
		{"bad payload", &fakeCaller{}, `{not json`, "INVALID_REQUEST"},
		{"invalid argument", &fakeCaller{}, `{"studentID":"x","courseOfferingID":"2"}`, "INVALID_ARGUMENT"},
		{"database failure", &fakeCaller{err: errors.New("boom")}, `{"studentID":"1","courseOfferingID":"2"}`, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Serve(context.Background(), nc, tt.caller, nil)
			if err != nil {
				t.Fatalf("%s - Serve failed: %v", responderTestPrefix, err)
			}
			defer r.Stop()

			subject := commsutil.BuildOperationSubject("", "drop_student_from_course_offering")
			msg, err := nc.Request(subject, []byte(tt.payload), 2*time.Second)
			if err != nil {
				t.Fatalf("%s - request failed: %v", responderTestPrefix, err)
			}
			_, err = commsutil.DecodeReply(msg.Data)
			var opErr *commsutil.OperationError
			if !errors.As(err, &opErr) {
				t.Fatalf("%s - error = %v, want *OperationError", responderTestPrefix, err)
			}
			if opErr.Code != tt.wantCode {
				t.Errorf("%s - code = %q, want %q", responderTestPrefix, opErr.Code, tt.wantCode)
			}
			if opErr.Message == "boom" {
				t.Errorf("%s - database error leaked", responderTestPrefix)
			}
		})
	}
}
