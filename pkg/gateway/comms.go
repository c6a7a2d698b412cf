package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/course-recommender/pkg/commsutil"
	"github.com/morezero/course-recommender/pkg/form"
	"github.com/morezero/course-recommender/pkg/resultset"
)

const commsLogPrefix = "gateway:comms"

// CommsGatewayOpts configures CommsGateway. Zero values use defaults.
type CommsGatewayOpts struct {
	// SubjectPrefix overrides commsutil.SubjectOperationPrefix.
	SubjectPrefix string
	// Timeout is the request/reply wait; NATS requests always need one. Defaults to comms.DefaultTimeout.
	Timeout time.Duration
}

// CommsGateway sends one request per operation on course.op.<operation> and waits for the reply.
type CommsGateway struct {
	nc      *comms.Conn
	prefix  string
	timeout time.Duration
}

// NewCommsGateway creates a CommsGateway on an open connection. Pass nil for opts to use defaults.
func NewCommsGateway(nc *comms.Conn, opts *CommsGatewayOpts) *CommsGateway {
	g := &CommsGateway{nc: nc, prefix: commsutil.SubjectOperationPrefix, timeout: comms.DefaultTimeout}
	if opts != nil {
		if opts.SubjectPrefix != "" {
			g.prefix = opts.SubjectPrefix
		}
		if opts.Timeout > 0 {
			g.timeout = opts.Timeout
		}
	}
	return g
}

// Invoke implements Gateway.
func (g *CommsGateway) Invoke(ctx context.Context, operation string, params form.Values) (resultset.ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, &GatewayError{Operation: operation, Err: err}
	}
	data, err := commsutil.EncodePayload(params)
	if err != nil {
		return nil, &GatewayError{Operation: operation, Err: fmt.Errorf("encode params: %w", err)}
	}

	// The earlier of the caller's deadline and the configured timeout applies; cancellation aborts
	// an in-flight request.
	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	subject := commsutil.BuildOperationSubject(g.prefix, operation)
	slog.Debug(fmt.Sprintf("%s - request %s", commsLogPrefix, subject))

	msg, err := g.nc.RequestWithContext(reqCtx, subject, data)
	if err != nil {
		return nil, &GatewayError{Operation: operation, Err: err}
	}
	rs, err := commsutil.DecodeReply(msg.Data)
	if err != nil {
		return nil, &GatewayError{Operation: operation, Err: err}
	}
	slog.Debug(fmt.Sprintf("%s - %s returned %d records", commsLogPrefix, operation, len(rs)))
	return rs, nil
}
