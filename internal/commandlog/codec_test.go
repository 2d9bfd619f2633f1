package commandlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/ocpi/internal/commandlog/domain"
)

func TestEncodeLine_NameIsFirstProperty(t *testing.T) {
	payload, err := domain.ObjectPayload(map[string]string{"id": "DE-GEF", "status": "ENABLED"})
	require.NoError(t, err)

	line, err := EncodeLine(domain.CommandWithMetadata{
		Command:         domain.Command{Name: "addRemoteParty", Payload: payload},
		Timestamp:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EventTrackingID: "abc-123",
	})
	require.NoError(t, err)

	assert.Equal(t,
		`{"addRemoteParty":{"id":"DE-GEF","status":"ENABLED"},"timestamp":"2025-01-01T00:00:00Z","eventTrackingId":"abc-123"}`,
		string(line),
	)
}

func TestEncodeLine_Errors(t *testing.T) {
	_, err := EncodeLine(domain.CommandWithMetadata{})
	assert.Error(t, err)

	_, err = EncodeLine(domain.CommandWithMetadata{Command: domain.Command{Name: "timestamp"}})
	assert.Error(t, err)
}

func TestDecodeLine(t *testing.T) {
	t.Run("Success_WithUser", func(t *testing.T) {
		cmd, err := DecodeLine([]byte(
			`{"addRemoteParty": {"id":"DE-GEF","status":"ENABLED"}, "timestamp":"2025-01-01T00:00:00Z", "eventTrackingId":"abc-123", "userId":"admin"}`,
		))
		require.NoError(t, err)
		assert.Equal(t, "addRemoteParty", cmd.Name)
		assert.Equal(t, domain.PayloadObject, cmd.Payload.Kind())
		assert.Equal(t, "abc-123", cmd.EventTrackingID)
		assert.Equal(t, "admin", cmd.UserID)
		assert.True(t, cmd.Timestamp.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("Success_MetadataFirst", func(t *testing.T) {
		cmd, err := DecodeLine([]byte(`{"timestamp":"2025-01-01T00:00:00Z","removeAllRemoteParties":null}`))
		require.NoError(t, err)
		assert.Equal(t, "removeAllRemoteParties", cmd.Name)
		assert.True(t, cmd.Payload.IsNone())
	})

	t.Run("RoundTrip_AllKinds", func(t *testing.T) {
		obj, _ := domain.ObjectPayload(map[string]int{"a": 1})
		arr, _ := domain.ArrayPayload([]int{1})
		payloads := []domain.Payload{
			domain.NoPayload(),
			domain.TextPayload("hello \"world\"\nnext"),
			obj,
			arr,
			domain.IntegerPayload(-12),
			domain.FloatPayload(0.5),
			domain.BooleanPayload(true),
		}
		for _, p := range payloads {
			line, err := EncodeLine(domain.CommandWithMetadata{
				Command:   domain.Command{Name: "cmd", Payload: p},
				Timestamp: time.Now(),
			})
			require.NoError(t, err)

			cmd, err := DecodeLine(line)
			require.NoError(t, err)
			assert.Equal(t, p.Kind(), cmd.Payload.Kind())
			assert.Equal(t, p.String(), cmd.Payload.String())
		}
	})

	errorCases := map[string]string{
		"NotJSON":         `addRemoteParty DE-GEF`,
		"Array":           `[1,2]`,
		"Truncated":       `{"addRemoteParty": {"id":"DE-GEF"`,
		"TwoCommands":     `{"a":1,"b":2}`,
		"NoCommand":       `{"timestamp":"2025-01-01T00:00:00Z"}`,
		"BadTimestamp":    `{"a":1,"timestamp":"yesterday"}`,
		"TrailingGarbage": `{"a":1} {"b":2}`,
	}
	for name, line := range errorCases {
		t.Run("Error_"+name, func(t *testing.T) {
			_, err := DecodeLine([]byte(line))
			assert.ErrorIs(t, err, ErrMalformedLine)
		})
	}
}

func TestIsComment(t *testing.T) {
	assert.True(t, IsComment([]byte("// started")))
	assert.True(t, IsComment([]byte("# note")))
	assert.True(t, IsComment([]byte("   // indented")))
	assert.False(t, IsComment([]byte(`{"a":1}`)))
}

func TestEncodeComment_SingleLine(t *testing.T) {
	line := EncodeComment("multi\nline\r\nnote", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "abc", "admin")
	assert.True(t, IsComment(line))
	assert.NotContains(t, string(line), "\n")
	assert.Equal(t, "// 2025-01-01T00:00:00Z abc user=admin multi line note", string(line))
}
