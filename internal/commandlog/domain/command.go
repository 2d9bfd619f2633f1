// Package domain defines the records stored in the append-only command log.
//
// A command is a name plus exactly one payload. The payload is a tagged variant
// so that "at most one payload case is populated" holds by construction.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	apperrors "github.com/allisson/ocpi/internal/errors"
)

// PayloadKind identifies which case of a Payload is active.
type PayloadKind int

const (
	// PayloadNone is a command without data (e.g. removeAllRemoteParties).
	PayloadNone PayloadKind = iota
	PayloadText
	PayloadObject
	PayloadArray
	PayloadInteger
	PayloadFloat
	PayloadBoolean
)

// String returns the lowercase name of the kind.
func (k PayloadKind) String() string {
	switch k {
	case PayloadNone:
		return "none"
	case PayloadText:
		return "text"
	case PayloadObject:
		return "object"
	case PayloadArray:
		return "array"
	case PayloadInteger:
		return "integer"
	case PayloadFloat:
		return "float"
	case PayloadBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// ErrInvalidPayload is returned when a value cannot be represented as a payload.
var ErrInvalidPayload = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid command payload")

// Payload is the data carried by a command. The zero value is PayloadNone.
type Payload struct {
	kind    PayloadKind
	text    string
	raw     json.RawMessage
	integer int64
	float   float64
	boolean bool
}

// NoPayload returns an empty payload.
func NoPayload() Payload { return Payload{} }

// TextPayload returns a string payload.
func TextPayload(text string) Payload { return Payload{kind: PayloadText, text: text} }

// IntegerPayload returns an integer payload.
func IntegerPayload(v int64) Payload { return Payload{kind: PayloadInteger, integer: v} }

// FloatPayload returns a floating point payload.
func FloatPayload(v float64) Payload { return Payload{kind: PayloadFloat, float: v} }

// BooleanPayload returns a boolean payload.
func BooleanPayload(v bool) Payload { return Payload{kind: PayloadBoolean, boolean: v} }

// ObjectPayload marshals v and requires the result to be a JSON object.
func ObjectPayload(v any) (Payload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Payload{}, apperrors.Wrap(ErrInvalidPayload, err.Error())
	}
	return rawPayload(raw, PayloadObject)
}

// ArrayPayload marshals v and requires the result to be a JSON array.
func ArrayPayload(v any) (Payload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Payload{}, apperrors.Wrap(ErrInvalidPayload, err.Error())
	}
	return rawPayload(raw, PayloadArray)
}

func rawPayload(raw []byte, kind PayloadKind) (Payload, error) {
	raw = bytes.TrimSpace(raw)
	p, err := parsePayload(raw)
	if err != nil {
		return Payload{}, err
	}
	if p.kind != kind {
		return Payload{}, apperrors.Wrapf(ErrInvalidPayload, "expected %s, got %s", kind, p.kind)
	}
	return p, nil
}

// Kind returns the active case.
func (p Payload) Kind() PayloadKind { return p.kind }

// IsNone reports whether the payload carries no data.
func (p Payload) IsNone() bool { return p.kind == PayloadNone }

// Text returns the string value when the payload is text.
func (p Payload) Text() (string, bool) { return p.text, p.kind == PayloadText }

// Integer returns the integer value when the payload is an integer.
func (p Payload) Integer() (int64, bool) { return p.integer, p.kind == PayloadInteger }

// Float returns the float value when the payload is a float.
func (p Payload) Float() (float64, bool) { return p.float, p.kind == PayloadFloat }

// Boolean returns the boolean value when the payload is a boolean.
func (p Payload) Boolean() (bool, bool) { return p.boolean, p.kind == PayloadBoolean }

// Raw returns the JSON text of an object or array payload.
func (p Payload) Raw() (json.RawMessage, bool) {
	if p.kind != PayloadObject && p.kind != PayloadArray {
		return nil, false
	}
	return p.raw, true
}

// Decode unmarshals an object or array payload into v.
func (p Payload) Decode(v any) error {
	raw, ok := p.Raw()
	if !ok {
		return apperrors.Wrapf(ErrInvalidPayload, "cannot decode %s payload", p.kind)
	}
	return json.Unmarshal(raw, v)
}

// MarshalJSON encodes the active case. Floats always carry a fraction or an
// exponent so they decode back as floats.
func (p Payload) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case PayloadNone:
		return []byte("null"), nil
	case PayloadText:
		return json.Marshal(p.text)
	case PayloadObject, PayloadArray:
		return p.raw, nil
	case PayloadInteger:
		return strconv.AppendInt(nil, p.integer, 10), nil
	case PayloadFloat:
		if math.IsNaN(p.float) || math.IsInf(p.float, 0) {
			return nil, apperrors.Wrap(ErrInvalidPayload, "float payload must be finite")
		}
		s := strconv.FormatFloat(p.float, 'g', -1, 64)
		if !bytes.ContainsAny([]byte(s), ".eE") {
			s += ".0"
		}
		return []byte(s), nil
	case PayloadBoolean:
		return strconv.AppendBool(nil, p.boolean), nil
	default:
		return nil, apperrors.Wrapf(ErrInvalidPayload, "unknown payload kind %d", p.kind)
	}
}

// UnmarshalJSON selects the case from the JSON value type.
func (p *Payload) UnmarshalJSON(data []byte) error {
	parsed, err := parsePayload(bytes.TrimSpace(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func parsePayload(raw []byte) (Payload, error) {
	if len(raw) == 0 {
		return Payload{}, apperrors.Wrap(ErrInvalidPayload, "empty value")
	}
	switch raw[0] {
	case 'n':
		if string(raw) != "null" {
			return Payload{}, apperrors.Wrapf(ErrInvalidPayload, "unexpected literal %q", raw)
		}
		return NoPayload(), nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Payload{}, apperrors.Wrap(ErrInvalidPayload, err.Error())
		}
		return TextPayload(s), nil
	case '{', '[':
		if !json.Valid(raw) {
			return Payload{}, apperrors.Wrap(ErrInvalidPayload, "malformed JSON")
		}
		kind := PayloadObject
		if raw[0] == '[' {
			kind = PayloadArray
		}
		return Payload{kind: kind, raw: append(json.RawMessage(nil), raw...)}, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Payload{}, apperrors.Wrap(ErrInvalidPayload, err.Error())
		}
		return BooleanPayload(b), nil
	default:
		if !bytes.ContainsAny(raw, ".eE") {
			if v, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
				return IntegerPayload(v), nil
			}
		}
		v, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return Payload{}, apperrors.Wrapf(ErrInvalidPayload, "unsupported value %q", raw)
		}
		return FloatPayload(v), nil
	}
}

// String renders the payload for log messages.
func (p Payload) String() string {
	b, err := p.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s>", p.kind)
	}
	return string(b)
}

// Command is a named state change.
type Command struct {
	Name    string
	Payload Payload
}

// CommandWithMetadata is a Command plus the provenance recorded with every log line.
type CommandWithMetadata struct {
	Command
	Timestamp       time.Time
	EventTrackingID string
	UserID          string
}
