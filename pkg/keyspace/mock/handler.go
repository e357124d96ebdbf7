package mock

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/kvgrid/keyspace_sdk_go/internal/keysapi"
)

// statusFor maps keyspace error codes onto the HTTP statuses the real API
// uses. Unknown codes degrade to 400.
func statusFor(code int) int {
	switch code {
	case keysapi.CodeKeyNotFound:
		return http.StatusNotFound
	case keysapi.CodeTestFailed, keysapi.CodeNodeExist:
		return http.StatusPreconditionFailed
	case keysapi.CodeRootReadOnly:
		return http.StatusForbidden
	case keysapi.CodeRaftInternal, keysapi.CodeLeaderElect:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// Handler exposes the store over the wire protocol, suitable for httptest
// servers and the local sandbox. Domain failures are written as JSON error
// envelopes on 4xx statuses, exactly like the real API.
func (s *Store) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		form, err := parseFormBody(r)
		if err != nil {
			writeEnvelope(w, &keysapi.ErrorEnvelope{
				ErrorCode: keysapi.CodeInvalidForm,
				Message:   "Invalid POST form",
				Cause:     err.Error(),
			})
			return
		}

		resp, envelope := s.Dispatch(r.Method, r.URL.Path, r.URL.Query(), form)
		if envelope != nil {
			writeEnvelope(w, envelope)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
}

func parseFormBody(r *http.Request) (url.Values, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return url.ParseQuery(string(data))
}

func writeEnvelope(w http.ResponseWriter, envelope *keysapi.ErrorEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(envelope.ErrorCode))
	_ = json.NewEncoder(w).Encode(envelope)
}
