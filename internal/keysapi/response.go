package keysapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Keyspace error codes carried in error envelopes. The numbering follows the
// v2 keys API.
const (
	CodeKeyNotFound       = 100
	CodeTestFailed        = 101
	CodeNotFile           = 102
	CodeNotDir            = 104
	CodeNodeExist         = 105
	CodeRootReadOnly      = 107
	CodeDirNotEmpty       = 108
	CodeInvalidField      = 209
	CodeInvalidForm       = 210
	CodeRaftInternal      = 300
	CodeLeaderElect       = 301
	CodeWatcherCleared    = 400
	CodeEventIndexCleared = 401
)

// ErrorEnvelope is the error body shape the keys API returns alongside 4xx
// statuses. Success and error bodies share the same JSON envelope, so the
// only reliable discriminator is the presence of the errorCode field.
type ErrorEnvelope struct {
	ErrorCode int    `json:"errorCode"`
	Message   string `json:"message"`
	Cause     string `json:"cause,omitempty"`
	Index     uint64 `json:"index,omitempty"`
}

func (e *ErrorEnvelope) String() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%d: %s (%s)", e.ErrorCode, e.Message, e.Cause)
}

// Extract classifies a response body. It returns the raw payload when the
// body is a success envelope, the decoded error envelope when the body
// carries an errorCode, and an error when the body is not valid JSON. A
// malformed body is never silently treated as success.
func Extract(body []byte) (json.RawMessage, *ErrorEnvelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil, fmt.Errorf("keysapi: empty response body")
	}

	var probe struct {
		ErrorCode *int   `json:"errorCode"`
		Message   string `json:"message"`
		Cause     string `json:"cause"`
		Index     uint64 `json:"index"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, nil, fmt.Errorf("keysapi: decode response body: %w", err)
	}
	if probe.ErrorCode != nil {
		return nil, &ErrorEnvelope{
			ErrorCode: *probe.ErrorCode,
			Message:   probe.Message,
			Cause:     probe.Cause,
			Index:     probe.Index,
		}, nil
	}
	return append(json.RawMessage(nil), trimmed...), nil, nil
}

// DecodeResponse extracts the payload via Extract and unmarshals it into out.
// Error envelopes are returned as-is so callers can map them onto their own
// taxonomy.
func DecodeResponse(body []byte, out any) (*ErrorEnvelope, error) {
	payload, envelope, err := Extract(body)
	if err != nil {
		return nil, err
	}
	if envelope != nil {
		return envelope, nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return nil, fmt.Errorf("keysapi: decode payload: %w", err)
	}
	return nil, nil
}
