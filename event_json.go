package fetchstate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/karupanerura/fetchstate/expiration"
)

var _ json.Unmarshaler = (*Event[string, struct{}, struct{}])(nil)

// ErrInvalidExpire is returned when the expire field of an encoded event
// is neither a number of milliseconds nor an RFC 3339 timestamp.
var ErrInvalidExpire = errors.New("fetchstate: invalid expire")

// WireError is an error value received inside an encoded event.
type WireError struct {
	// Raw is the JSON value of the error field.
	Raw json.RawMessage
}

// Error returns the error text.
// A JSON string is returned unquoted, an object with a string "message"
// member returns that member, and anything else returns the raw JSON.
func (e *WireError) Error() string {
	var s string
	if err := json.Unmarshal(e.Raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(e.Raw, &obj); err == nil && obj.Message != nil {
		return *obj.Message
	}
	return string(e.Raw)
}

type wireEvent[T comparable, R, D any] struct {
	Type      T               `json:"type"`
	Request   *R              `json:"request"`
	Syncing   json.RawMessage `json:"syncing"`
	Data      D               `json:"data"`
	Error     json.RawMessage `json:"error"`
	Mutation  json.RawMessage `json:"mutation"`
	ID        json.RawMessage `json:"id"`
	Expire    json.RawMessage `json:"expire"`
	Persisted json.RawMessage `json:"persisted"`
}

// UnmarshalJSON decodes an event from its JSON form.
//
// Loosely typed fields follow JavaScript conventions: syncing and
// persisted are coerced by truthiness, a numeric id is converted to
// the text JavaScript uses as its property key, and mutation is kept only when it is a string. expire is
// a number of milliseconds (relative) or an RFC 3339 string (absolute).
func (e *Event[T, R, D]) UnmarshalJSON(b []byte) error {
	var w wireEvent[T, R, D]
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	expire, err := decodeExpire(w.Expire)
	if err != nil {
		return err
	}

	*e = Event[T, R, D]{
		Type:      w.Type,
		Request:   w.Request,
		Syncing:   truthy(w.Syncing),
		Data:      w.Data,
		Mutation:  decodeString(w.Mutation),
		ID:        decodeKey(w.ID),
		Expire:    expire,
		Persisted: truthy(w.Persisted),
	}
	if !isNull(w.Error) {
		e.Err = &WireError{Raw: w.Error}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// truthy reports whether raw is a truthy JavaScript value.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return false
	}
	switch raw[0] {
	case 't':
		return true
	case 'f':
		return false
	case '"':
		return len(raw) > 2
	case '{', '[':
		return true
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		return err == nil && f != 0
	}
}

func decodeString(raw json.RawMessage) string {
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func decodeKey(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return ""
	}
	if raw[0] == '"' {
		return decodeString(raw)
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return string(raw)
	}
	return formatNumberKey(f)
}

// formatNumberKey formats f the way JavaScript converts a number to a
// property key: 1.0 is "1", 1e2 is "100" and -0 is "0".
func formatNumberKey(f float64) string {
	if f == 0 {
		return "0"
	}
	if abs := math.Abs(f); abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'g', -1, 64)
		// JavaScript writes 1e+21 and 1e-7 without a zero-padded exponent
		s = strings.Replace(s, "e+0", "e+", 1)
		return strings.Replace(s, "e-0", "e-", 1)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func decodeExpire(raw json.RawMessage) (expiration.Expiration, error) {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return expiration.Never, nil
	}
	if raw[0] == '"' {
		t, err := time.Parse(time.RFC3339Nano, decodeString(raw))
		if err != nil {
			return expiration.Never, fmt.Errorf("%w: %w", ErrInvalidExpire, err)
		}
		return expiration.At(t), nil
	}
	ms, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return expiration.Never, fmt.Errorf("%w: %s", ErrInvalidExpire, raw)
	}
	return expiration.After(time.Duration(ms * float64(time.Millisecond))), nil
}
