package commsutil

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/morezero/course-recommender/pkg/resultset"
)

// OperationError is the error half of an operation reply.
type OperationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *OperationError) Error() string {
	return e.Code + ": " + e.Message
}

// OperationReply is what a backend responder sends for an operation request.
// Params travel as a flat JSON object of strings.
type OperationReply struct {
	Data  resultset.ResultSet `json:"data"`
	Error *OperationError     `json:"error,omitempty"`
}

// EncodePayload serializes a value to JSON bytes.
func EncodePayload(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// DecodePayload deserializes JSON bytes into the given target.
func DecodePayload(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// DecodeReply parses an operation reply. An empty reply or a missing data field is an empty
// ResultSet; an error reply is returned as *OperationError.
func DecodeReply(data []byte) (resultset.ResultSet, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return resultset.ResultSet{}, nil
	}
	var reply OperationReply
	if err := DecodePayload(trimmed, &reply); err != nil {
		return nil, fmt.Errorf("malformed reply: %w", err)
	}
	if reply.Error != nil {
		return nil, reply.Error
	}
	if reply.Data == nil {
		return resultset.ResultSet{}, nil
	}
	return reply.Data, nil
}
