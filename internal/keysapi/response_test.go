package keysapi_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kvgrid/keyspace_sdk_go/internal/keysapi"
)

func TestExtractSuccessEnvelope(t *testing.T) {
	body := []byte(`{"action":"get","node":{"key":"/foo","value":"bar"}}`)

	payload, envelope, err := keysapi.Extract(body)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if envelope != nil {
		t.Fatalf("expected no error envelope, got %v", envelope)
	}

	var decoded struct {
		Action string `json:"action"`
		Node   struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		} `json:"node"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if decoded.Action != "get" || decoded.Node.Key != "/foo" || decoded.Node.Value != "bar" {
		t.Fatalf("unexpected payload: %+v", decoded)
	}
}

func TestExtractErrorEnvelope(t *testing.T) {
	body := []byte(`{"errorCode":100,"message":"Key not found","cause":"/missing","index":12}`)

	payload, envelope, err := keysapi.Extract(body)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if payload != nil {
		t.Fatalf("expected no payload for error body, got %s", payload)
	}
	if envelope == nil {
		t.Fatal("expected error envelope")
	}
	if envelope.ErrorCode != keysapi.CodeKeyNotFound {
		t.Fatalf("ErrorCode = %d, want %d", envelope.ErrorCode, keysapi.CodeKeyNotFound)
	}
	if envelope.Message != "Key not found" || envelope.Cause != "/missing" || envelope.Index != 12 {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
}

func TestExtractMalformedBody(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"whitespace", "  \n"},
		{"html", "<html>502 Bad Gateway</html>"},
		{"truncated", `{"action":"get","node":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := keysapi.Extract([]byte(tc.body)); err == nil {
				t.Fatalf("Extract(%q) succeeded, want error", tc.body)
			}
		})
	}
}

func TestDecodeResponse(t *testing.T) {
	body := []byte(`{"action":"set","node":{"key":"/a","value":"1","modifiedIndex":7}}`)

	var decoded struct {
		Action string `json:"action"`
		Node   struct {
			Key           string `json:"key"`
			Value         string `json:"value"`
			ModifiedIndex uint64 `json:"modifiedIndex"`
		} `json:"node"`
	}
	envelope, err := keysapi.DecodeResponse(body, &decoded)
	if err != nil {
		t.Fatalf("DecodeResponse returned error: %v", err)
	}
	if envelope != nil {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
	if decoded.Node.ModifiedIndex != 7 {
		t.Fatalf("ModifiedIndex = %d, want 7", decoded.Node.ModifiedIndex)
	}
}

func TestDecodeResponsePassesThroughErrorEnvelope(t *testing.T) {
	var out json.RawMessage
	envelope, err := keysapi.DecodeResponse([]byte(`{"errorCode":105,"message":"Key already exists"}`), &out)
	if err != nil {
		t.Fatalf("DecodeResponse returned error: %v", err)
	}
	if envelope == nil || envelope.ErrorCode != keysapi.CodeNodeExist {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
	if !strings.Contains(envelope.String(), "Key already exists") {
		t.Fatalf("String() = %q", envelope.String())
	}
}
