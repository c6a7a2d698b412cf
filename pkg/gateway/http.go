package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/morezero/course-recommender/pkg/form"
	"github.com/morezero/course-recommender/pkg/resultset"
)

const httpLogPrefix = "gateway:http"

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 8 << 20

// HTTPGateway calls GET <baseURL>/<operation>?<params> and decodes a {"data": [...]} payload.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway creates an HTTPGateway. A nil client uses a zero http.Client, i.e. transport defaults.
func NewHTTPGateway(baseURL string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPGateway{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Invoke implements Gateway.
func (g *HTTPGateway) Invoke(ctx context.Context, operation string, params form.Values) (resultset.ResultSet, error) {
	target := g.baseURL + "/" + url.PathEscape(operation)
	if q := params.Encode(); q != "" {
		target += "?" + q
	}
	slog.Debug(fmt.Sprintf("%s - GET %s", httpLogPrefix, target))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &GatewayError{Operation: operation, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &GatewayError{Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &GatewayError{Operation: operation, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayError{Operation: operation, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected response: %s", snippet(body))}
	}

	rs, err := resultset.DecodeEnvelope(body)
	if err != nil {
		return nil, &GatewayError{Operation: operation, StatusCode: resp.StatusCode, Err: err}
	}
	slog.Debug(fmt.Sprintf("%s - %s returned %d records", httpLogPrefix, operation, len(rs)))
	return rs, nil
}

func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	if s == "" {
		return "(empty body)"
	}
	return s
}
