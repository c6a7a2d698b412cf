package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/course-recommender/pkg/commsutil"
	"github.com/morezero/course-recommender/pkg/form"
)

const commsTestPrefix = "gateway:comms_test"

func startTestServer(t *testing.T, port int) (*comms.Conn, func()) {
	t.Helper()

	ns, err := commsserver.NewServer(&commsserver.Options{
		Host:   "127.0.0.1",
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		t.Fatalf("%s - failed to create server: %v", commsTestPrefix, err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatalf("%s - server failed to start", commsTestPrefix)
	}

	nc, err := comms.Connect(ns.ClientURL(), comms.Timeout(5*time.Second))
	if err != nil {
		ns.Shutdown()
		t.Fatalf("%s - failed to connect: %v", commsTestPrefix, err)
	}
	return nc, func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	}
}

func TestCommsGateway_Invoke(t *testing.T) {
	nc, cleanup := startTestServer(t, 14250)
	defer cleanup()

	var gotParams map[string]string
	sub, err := nc.Subscribe("course.op.enrollStudent", func(msg *comms.Msg) {
		_ = json.Unmarshal(msg.Data, &gotParams)
		_ = msg.Respond([]byte(`{"data":[{"EnrollmentSucceeded":0,"EnrollmentResponse":"Course is full"}]}`))
	})
	if err != nil {
		t.Fatalf("%s - subscribe failed: %v", commsTestPrefix, err)
	}
	defer sub.Unsubscribe()

	g := NewCommsGateway(nc, &CommsGatewayOpts{Timeout: 2 * time.Second})
	params := form.Values{{Name: "studentID", Value: "123"}, {Name: "courseOfferingID", Value: "45"}}
	rs, err := g.Invoke(context.Background(), "enrollStudent", params)
	if err != nil {
		t.Fatalf("%s - Invoke failed: %v", commsTestPrefix, err)
	}
	if len(rs) != 1 {
		t.Fatalf("%s - len = %d, want 1", commsTestPrefix, len(rs))
	}
	if v, _ := rs[0].Get("EnrollmentResponse"); v != "Course is full" {
		t.Errorf("%s - EnrollmentResponse = %#v", commsTestPrefix, v)
	}
	if gotParams["studentID"] != "123" || gotParams["courseOfferingID"] != "45" {
		t.Errorf("%s - params = %v", commsTestPrefix, gotParams)
	}
}

func TestCommsGateway_EmptyReply(t *testing.T) {
	nc, cleanup := startTestServer(t, 14251)
	defer cleanup()

	sub, err := nc.Subscribe("course.op.getStudents", func(msg *comms.Msg) {
		_ = msg.Respond([]byte(`{"data":null}`))
	})
	if err != nil {
		t.Fatalf("%s - subscribe failed: %v", commsTestPrefix, err)
	}
	defer sub.Unsubscribe()

	rs, err := NewCommsGateway(nc, nil).Invoke(context.Background(), "getStudents", nil)
	if err != nil {
		t.Fatalf("%s - Invoke failed: %v", commsTestPrefix, err)
	}
	if rs == nil || len(rs) != 0 {
		t.Errorf("%s - want empty non-nil ResultSet, got %#v", commsTestPrefix, rs)
	}
}

func TestCommsGateway_ErrorReply(t *testing.T) {
	nc, cleanup := startTestServer(t, 14252)
	defer cleanup()

	sub, err := nc.Subscribe("course.op.getStudents", func(msg *comms.Msg) {
		_ = msg.Respond([]byte(`{"error":{"code":"BACKEND_ERROR","message":"database unavailable"}}`))
	})
	if err != nil {
		t.Fatalf("%s - subscribe failed: %v", commsTestPrefix, err)
	}
	defer sub.Unsubscribe()

	_, err = NewCommsGateway(nc, nil).Invoke(context.Background(), "getStudents", nil)
	var gerr *GatewayError
	if !errors.As(err, &gerr) {
		t.Fatalf("%s - error = %v, want *GatewayError", commsTestPrefix, err)
	}
	var oerr *commsutil.OperationError
	if !errors.As(err, &oerr) || oerr.Code != "BACKEND_ERROR" {
		t.Errorf("%s - want wrapped OperationError, got %v", commsTestPrefix, err)
	}
}

func TestCommsGateway_NoResponder(t *testing.T) {
	nc, cleanup := startTestServer(t, 14253)
	defer cleanup()

	g := NewCommsGateway(nc, &CommsGatewayOpts{SubjectPrefix: "custom.op", Timeout: 500 * time.Millisecond})
	_, err := g.Invoke(context.Background(), "getStudents", nil)
	var gerr *GatewayError
	if !errors.As(err, &gerr) {
		t.Fatalf("%s - error = %v, want *GatewayError", commsTestPrefix, err)
	}
	if gerr.Operation != "getStudents" {
		t.Errorf("%s - Operation = %q", commsTestPrefix, gerr.Operation)
	}
}

func TestCommsGateway_CanceledContext(t *testing.T) {
	nc, cleanup := startTestServer(t, 14254)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCommsGateway(nc, nil).Invoke(ctx, "getStudents", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("%s - error = %v, want context.Canceled", commsTestPrefix, err)
	}
}

func TestCommsGateway_CancelInFlight(t *testing.T) {
	nc, cleanup := startTestServer(t, 14255)
	defer cleanup()

	// Subscribed but never replies, so the request stays in flight until canceled.
	sub, err := nc.Subscribe("course.op.getStudents", func(*comms.Msg) {})
	if err != nil {
		t.Fatalf("%s - subscribe failed: %v", commsTestPrefix, err)
	}
	defer sub.Unsubscribe()
	if err := nc.Flush(); err != nil {
		t.Fatalf("%s - flush failed: %v", commsTestPrefix, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	_, err = NewCommsGateway(nc, &CommsGatewayOpts{Timeout: 10 * time.Second}).Invoke(ctx, "getStudents", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("%s - error = %v, want context.Canceled", commsTestPrefix, err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("%s - cancel took %v, want the request abandoned promptly", commsTestPrefix, elapsed)
	}
}
