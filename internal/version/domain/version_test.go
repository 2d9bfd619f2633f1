package domain

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/ocpi/internal/errors"
)

func TestCompareIDs(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2.2.1", "2.2.1", 0},
		{"2.1.1", "2.2", -1},
		{"2.10", "2.9", 1},
		{"2.2", "2.2.1", -1},
		{"3.0", "2.2.1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareIDs(tt.a, tt.b))
			assert.Equal(t, -tt.want, CompareIDs(tt.b, tt.a))
		})
	}

	ids := []string{"2.2.1", "2.10", "2.1.1", "2.2"}
	sort.Slice(ids, func(i, j int) bool { return CompareIDs(ids[i], ids[j]) < 0 })
	assert.Equal(t, []string{"2.1.1", "2.2", "2.2.1", "2.10"}, ids)
}

func TestVersionInformation_Validate(t *testing.T) {
	assert.NoError(t, VersionInformation{ID: "2.2.1", URL: "https://ocpi.example.com/versions/2.2.1"}.Validate())

	err := VersionInformation{ID: "v2", URL: "https://ocpi.example.com"}.Validate()
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	err = VersionInformation{ID: "2.2.1", URL: "ocpi.example.com"}.Validate()
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
