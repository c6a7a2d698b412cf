package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/course-recommender/pkg/commsutil"
	"github.com/morezero/course-recommender/pkg/db"
)

const responderLogPrefix = "backend:responder"

// ResponderOpts configures Serve. Zero values use defaults.
type ResponderOpts struct {
	SubjectPrefix  string
	RequestTimeout time.Duration
	// QueueGroup load-balances requests across API replicas.
	QueueGroup string
}

// Responder answers operation requests on COMMS.
type Responder struct {
	subs []*comms.Subscription
}

// Serve subscribes one handler per operation on <prefix>.<operation>. Requests carry the
// parameters as a JSON object of strings; replies are commsutil.OperationReply.
func Serve(ctx context.Context, nc *comms.Conn, caller Caller, opts *ResponderOpts) (*Responder, error) {
	prefix, timeout, queue := commsutil.SubjectOperationPrefix, 25*time.Second, "course-api"
	if opts != nil {
		if opts.SubjectPrefix != "" {
			prefix = opts.SubjectPrefix
		}
		if opts.RequestTimeout > 0 {
			timeout = opts.RequestTimeout
		}
		if opts.QueueGroup != "" {
			queue = opts.QueueGroup
		}
	}

	r := &Responder{}
	for _, p := range db.Procedures {
		operation := p.Operation
		subject := commsutil.BuildOperationSubject(prefix, operation)
		sub, err := nc.QueueSubscribe(subject, queue, func(msg *comms.Msg) {
			reqCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			respond(msg, handleRequest(reqCtx, caller, operation, msg.Data))
		})
		if err != nil {
			r.Stop()
			return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", responderLogPrefix, subject, err)
		}
		r.subs = append(r.subs, sub)
		slog.Info(fmt.Sprintf("%s - Subscribed to %s", responderLogPrefix, subject))
	}
	return r, nil
}

// Stop unsubscribes every operation handler.
func (r *Responder) Stop() {
	for _, sub := range r.subs {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, comms.ErrConnectionClosed) {
			slog.Warn(fmt.Sprintf("%s - unsubscribe %s: %v", responderLogPrefix, sub.Subject, err))
		}
	}
	r.subs = nil
}

func handleRequest(ctx context.Context, caller Caller, operation string, data []byte) *commsutil.OperationReply {
	params := map[string]string{}
	if len(data) > 0 {
		if err := commsutil.DecodePayload(data, &params); err != nil {
			return &commsutil.OperationReply{Error: &commsutil.OperationError{Code: "INVALID_REQUEST", Message: "Failed to decode request"}}
		}
	}

	rs, err := caller.Call(ctx, operation, params)
	if err != nil {
		var perr *db.ParamError
		if errors.As(err, &perr) {
			return &commsutil.OperationReply{Error: &commsutil.OperationError{Code: "INVALID_ARGUMENT", Message: perr.Error()}}
		}
		slog.Error(fmt.Sprintf("%s - %s failed: %v", responderLogPrefix, operation, err))
		return &commsutil.OperationReply{Error: &commsutil.OperationError{Code: "INTERNAL_ERROR", Message: "Internal Server Error"}}
	}
	return &commsutil.OperationReply{Data: rs}
}

func respond(msg *comms.Msg, reply *commsutil.OperationReply) {
	data, err := commsutil.EncodePayload(reply)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode reply: %v", responderLogPrefix, err))
		return
	}
	if err := msg.Respond(data); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to respond: %v", responderLogPrefix, err))
	}
}
