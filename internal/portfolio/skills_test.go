// AngelaMos | 2026
// skills_test.go

package portfolio

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/advisory-backend/internal/core"
)

func ptr(s string) *string { return &s }

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "folds and keeps first seen order",
			in:   []string{"  Go ", "PostgreSQL", "go", "Redis", "postgresql"},
			want: []string{"go", "postgresql", "redis"},
		},
		{
			name: "collapses inner whitespace",
			in:   []string{"Machine   Learning", "machine learning"},
			want: []string{"machine learning"},
		},
		{
			name: "drops empties",
			in:   []string{"", "   ", "rust"},
			want: []string{"rust"},
		},
		{
			name: "nil input",
			in:   nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTags("skills", tt.in, MaxSkills)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeTagsLimits(t *testing.T) {
	many := make([]string, 0, MaxSkills+1)
	for i := range MaxSkills + 1 {
		many = append(many, fmt.Sprintf("skill-%d", i))
	}

	_, err := NormalizeTags("skills", many, MaxSkills)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	dupes := append([]string{}, many[:MaxSkills]...)
	dupes = append(dupes, "SKILL-0")
	got, err := NormalizeTags("skills", dupes, MaxSkills)
	require.NoError(t, err)
	assert.Len(t, got, MaxSkills)

	_, err = NormalizeTags("skills", []string{strings.Repeat("x", MaxTagLength+1)}, MaxSkills)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestNormalizeWindow(t *testing.T) {
	tests := []struct {
		name      string
		start     *string
		end       *string
		wantStart *string
		wantEnd   *string
		wantErr   bool
	}{
		{name: "both empty"},
		{name: "only start", start: ptr("9:00"), wantStart: ptr("09:00")},
		{name: "ordered", start: ptr("09:00"), end: ptr("17:30"), wantStart: ptr("09:00"), wantEnd: ptr("17:30")},
		{name: "blank treated as absent", start: ptr("  "), end: ptr("10:00"), wantEnd: ptr("10:00")},
		{name: "equal bounds", start: ptr("10:00"), end: ptr("10:00"), wantErr: true},
		{name: "reversed", start: ptr("18:00"), end: ptr("09:00"), wantErr: true},
		{name: "malformed", start: ptr("noon"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e, err := NormalizeWindow(tt.start, tt.end)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, s)
			assert.Equal(t, tt.wantEnd, e)
		})
	}
}
