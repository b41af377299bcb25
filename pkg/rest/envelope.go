package rest

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Status is the outcome code carried by an Envelope.
type Status int

// Envelope status codes. Any other value is the HTTP status code of a failed call.
const (
	StatusOK               Status = 0
	StatusDecodeFailed     Status = 2
	StatusRetriesExhausted Status = 429
	// StatusUnknown is used when no HTTP response exists.
	StatusUnknown Status = -1
)

// String returns the numeric code, or "unknown".
func (s Status) String() string {
	if s == StatusUnknown {
		return "unknown"
	}

	return strconv.Itoa(int(s))
}

// MarshalJSON renders StatusUnknown as the string "unknown" and every other
// status as a number.
func (s Status) MarshalJSON() ([]byte, error) {
	if s == StatusUnknown {
		return []byte(`"unknown"`), nil
	}

	return []byte(strconv.Itoa(int(s))), nil
}

// MarshalYAML mirrors MarshalJSON.
func (s Status) MarshalYAML() (interface{}, error) {
	if s == StatusUnknown {
		return "unknown", nil
	}

	return int(s), nil
}

// Kind tags the class of outcome of a call.
type Kind int

// Outcome kinds.
const (
	KindOK Kind = iota
	KindDecode
	KindRetryExhausted
	KindHTTP
	KindTransport
	KindEncode
	KindInvalid
	KindPagination
)

var kindNames = map[Kind]string{
	KindOK:             "ok",
	KindDecode:         "decode",
	KindRetryExhausted: "retry_exhausted",
	KindHTTP:           "http",
	KindTransport:      "transport",
	KindEncode:         "encode",
	KindInvalid:        "invalid",
	KindPagination:     "pagination",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Envelope is the uniform result of every client call.
type Envelope struct {
	Status Status `json:"status" yaml:"status"`
	// Result is the decoded JSON body. It is an empty object on failure and
	// for empty bodies.
	Result any `json:"result" yaml:"result"`
	// Kind and Err describe a failure; Err is nil on success.
	Kind Kind  `json:"-" yaml:"-"`
	Err  error `json:"-" yaml:"-"`
}

// Ok builds a success envelope.
func Ok(result any) *Envelope {
	if result == nil {
		result = map[string]any{}
	}

	return &Envelope{Status: StatusOK, Result: result, Kind: KindOK}
}

// Fail builds a failure envelope with an empty result.
func Fail(status Status, kind Kind, err error) *Envelope {
	return &Envelope{Status: status, Result: map[string]any{}, Kind: kind, Err: err}
}

// OK reports whether the call succeeded.
func (e *Envelope) OK() bool {
	return e != nil && e.Status == StatusOK
}

// Error returns the failure cause, or nil on success.
func (e *Envelope) Error() error {
	if e == nil || e.OK() {
		return nil
	}

	if e.Err != nil {
		return e.Err
	}

	return fmt.Errorf("%w: status %s", ErrCallFailed, e.Status)
}

// Object returns Result as a JSON object, or nil when it is not one.
func (e *Envelope) Object() map[string]any {
	if e == nil {
		return nil
	}

	obj, _ := e.Result.(map[string]any)

	return obj
}

// Data returns the "data" list of an object result, as produced by All.
func (e *Envelope) Data() []any {
	data, _ := e.Object()["data"].([]any)

	return data
}

// Decode converts Result into v through a JSON round trip.
func (e *Envelope) Decode(v any) error {
	raw, err := json.Marshal(e.Result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	err = json.Unmarshal(raw, v)
	if err != nil {
		return fmt.Errorf("decoding result: %w", err)
	}

	return nil
}
