// Package dispatcher drives a functionality from selection to rendered outcome.
package dispatcher

import (
	"github.com/morezero/course-recommender/pkg/interpreter"
)

// Error codes carried by Response.
const (
	CodeUnknownFunctionality = "UNKNOWN_FUNCTIONALITY"
	CodeInvalidArgument      = "INVALID_ARGUMENT"
	CodeGatewayError         = "GATEWAY_ERROR"
	CodeMalformedResult      = "MALFORMED_RESULT"
	CodeInternalError        = "INTERNAL_ERROR"
)

// Messages shown for errors whose cause is not meant for the user.
const (
	gatewayErrorMessage  = "The backend could not complete the request. Please try again later."
	malformedMessage     = "The backend returned an unexpected result."
	internalErrorMessage = "Something went wrong while processing the request."
)

// Request is the JSON envelope for a dispatch over HTTP.
type Request struct {
	ID            string            `json:"id,omitempty"`
	Functionality string            `json:"functionality"`
	Values        map[string]string `json:"values"`
}

// Response is the JSON envelope for a dispatch result. A business Failure is Ok with a
// failure Presentation; Ok is false only for errors.
type Response struct {
	ID     string                    `json:"id,omitempty"`
	Ok     bool                      `json:"ok"`
	Result *interpreter.Presentation `json:"result,omitempty"`
	Error  *ErrorDetail              `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Respond builds the envelope for a dispatch outcome.
func Respond(id string, pres *interpreter.Presentation, err error) *Response {
	if err != nil {
		return &Response{ID: id, Ok: false, Error: ErrorDetailFor(err)}
	}
	return &Response{ID: id, Ok: true, Result: pres}
}

// ErrorDetailFor maps an error to what a user may see. Gateway causes are never exposed.
func ErrorDetailFor(err error) *ErrorDetail {
	code := ErrorCode(err)
	switch code {
	case CodeUnknownFunctionality, CodeInvalidArgument:
		return &ErrorDetail{Code: code, Message: err.Error()}
	case CodeGatewayError:
		return &ErrorDetail{Code: code, Message: gatewayErrorMessage, Retryable: true}
	case CodeMalformedResult:
		return &ErrorDetail{Code: code, Message: malformedMessage}
	default:
		return &ErrorDetail{Code: code, Message: internalErrorMessage}
	}
}
