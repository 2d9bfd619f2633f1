package commandlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/allisson/ocpi/internal/commandlog/domain"
	apperrors "github.com/allisson/ocpi/internal/errors"
)

const (
	fieldTimestamp       = "timestamp"
	fieldEventTrackingID = "eventTrackingId"
	fieldUserID          = "userId"
)

// ErrMalformedLine is returned by DecodeLine for lines that are not a valid command.
var ErrMalformedLine = apperrors.Wrap(apperrors.ErrInvalidInput, "malformed command log line")

// IsComment reports whether a line is a comment and must never be replayed.
func IsComment(line []byte) bool {
	line = bytes.TrimLeft(line, " \t")
	return bytes.HasPrefix(line, []byte("//")) || bytes.HasPrefix(line, []byte("#"))
}

func isReservedField(name string) bool {
	return name == fieldTimestamp || name == fieldEventTrackingID || name == fieldUserID
}

// EncodeLine renders a command as one log line (without the trailing newline).
// The command name is always the first property of the object.
func EncodeLine(cmd domain.CommandWithMetadata) ([]byte, error) {
	if cmd.Name == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "command name is required")
	}
	if isReservedField(cmd.Name) {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "command name %q is reserved", cmd.Name)
	}

	name, err := json.Marshal(cmd.Name)
	if err != nil {
		return nil, err
	}
	payload, err := cmd.Payload.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	buf.Write(name)
	buf.WriteByte(':')
	buf.Write(payload)
	writeStringField(&buf, fieldTimestamp, cmd.Timestamp.UTC().Format(time.RFC3339Nano))
	writeStringField(&buf, fieldEventTrackingID, cmd.EventTrackingID)
	if cmd.UserID != "" {
		writeStringField(&buf, fieldUserID, cmd.UserID)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeStringField(buf *bytes.Buffer, name, value string) {
	v, _ := json.Marshal(value)
	buf.WriteString(`,"`)
	buf.WriteString(name)
	buf.WriteString(`":`)
	buf.Write(v)
}

// EncodeComment renders a free text note as a comment line. Line breaks in the
// text are folded so the note stays on a single line.
func EncodeComment(text string, timestamp time.Time, eventTrackingID, userID string) []byte {
	text = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)

	var b strings.Builder
	b.WriteString("// ")
	b.WriteString(timestamp.UTC().Format(time.RFC3339Nano))
	b.WriteString(" ")
	b.WriteString(eventTrackingID)
	if userID != "" {
		b.WriteString(" user=")
		b.WriteString(userID)
	}
	b.WriteString(" ")
	b.WriteString(text)
	return []byte(b.String())
}

// DecodeLine parses one command line. The first property that is not a
// metadata field is the command name; any further command property is an error.
func DecodeLine(line []byte) (domain.CommandWithMetadata, error) {
	var cmd domain.CommandWithMetadata

	dec := json.NewDecoder(bytes.NewReader(line))
	tok, err := dec.Token()
	if err != nil {
		return cmd, apperrors.Wrap(ErrMalformedLine, err.Error())
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return cmd, apperrors.Wrap(ErrMalformedLine, "expected a JSON object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return cmd, apperrors.Wrap(ErrMalformedLine, err.Error())
		}
		key, ok := tok.(string)
		if !ok {
			return cmd, apperrors.Wrap(ErrMalformedLine, "expected a property name")
		}

		switch key {
		case fieldTimestamp:
			var ts string
			if err := dec.Decode(&ts); err != nil {
				return cmd, apperrors.Wrapf(ErrMalformedLine, "timestamp: %v", err)
			}
			parsed, err := time.Parse(time.RFC3339Nano, ts)
			if err != nil {
				return cmd, apperrors.Wrapf(ErrMalformedLine, "timestamp: %v", err)
			}
			cmd.Timestamp = parsed
		case fieldEventTrackingID:
			if err := dec.Decode(&cmd.EventTrackingID); err != nil {
				return cmd, apperrors.Wrapf(ErrMalformedLine, "eventTrackingId: %v", err)
			}
		case fieldUserID:
			if err := dec.Decode(&cmd.UserID); err != nil {
				return cmd, apperrors.Wrapf(ErrMalformedLine, "userId: %v", err)
			}
		default:
			if cmd.Name != "" {
				return cmd, apperrors.Wrapf(ErrMalformedLine, "unexpected second command %q", key)
			}
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return cmd, apperrors.Wrapf(ErrMalformedLine, "%s: %v", key, err)
			}
			if err := cmd.Payload.UnmarshalJSON(raw); err != nil {
				return cmd, apperrors.Wrapf(ErrMalformedLine, "%s: %v", key, err)
			}
			cmd.Name = key
		}
	}

	if _, err := dec.Token(); err != nil {
		return cmd, apperrors.Wrap(ErrMalformedLine, err.Error())
	}
	if _, err := dec.Token(); err != io.EOF {
		return cmd, apperrors.Wrap(ErrMalformedLine, "trailing data after object")
	}
	if cmd.Name == "" {
		return cmd, apperrors.Wrap(ErrMalformedLine, "no command property")
	}
	return cmd, nil
}

// describe is used in log messages about skipped lines.
func describe(line []byte) string {
	const max = 120
	if len(line) > max {
		return fmt.Sprintf("%s...", line[:max])
	}
	return string(line)
}
