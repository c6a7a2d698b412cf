// Package gateway performs the single backend call behind every functionality.
package gateway

import (
	"context"
	"fmt"

	"github.com/morezero/course-recommender/pkg/form"
	"github.com/morezero/course-recommender/pkg/resultset"
)

// Gateway invokes a named backend operation once and returns its normalized records.
// A missing or empty payload is an empty ResultSet; every transport failure is a *GatewayError.
// Implementations do not retry.
type Gateway interface {
	Invoke(ctx context.Context, operation string, params form.Values) (resultset.ResultSet, error)
}

// GatewayError reports a failed backend call. StatusCode is set when the backend answered with a
// non-success HTTP status.
type GatewayError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway: operation %s failed with status %d: %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gateway: operation %s failed: %v", e.Operation, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
