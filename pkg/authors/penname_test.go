package authors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPenName(t *testing.T) {
	tests := []struct {
		name           string
		realName       string
		penName        string
		alternateNames []string
		expected       string
	}{
		{
			name:           "pen name corroborated by alternates",
			realName:       "Frederick Faust",
			penName:        "Max Brand",
			alternateNames: []string{"Max Brand", "George Owen Baxter"},
			expected:       "Frederick 'Max Brand' Faust",
		},
		{
			name:           "pen name not in alternates falls back to real name",
			realName:       "Frederick Faust",
			penName:        "Max Brand",
			alternateNames: []string{"George Owen Baxter"},
			expected:       "Frederick Faust",
		},
		{
			name:           "same first and last token keeps pen name",
			realName:       "Samuel Clemens",
			penName:        "Samuel L. Clemens",
			alternateNames: nil,
			expected:       "Samuel L. Clemens",
		},
		{
			name:           "case-insensitive token comparison",
			realName:       "SAMUEL CLEMENS",
			penName:        "samuel clemens",
			alternateNames: nil,
			expected:       "samuel clemens",
		},
		{
			name:           "middle name real name keeps first and last tokens",
			realName:       "Frederick Schiller Faust",
			penName:        "Max Brand",
			alternateNames: []string{"Max Brand"},
			expected:       "Frederick 'Max Brand' Faust",
		},
		{
			name:           "single-token real name never embeds",
			realName:       "Voltaire",
			penName:        "Max Brand",
			alternateNames: []string{"Max Brand"},
			expected:       "Voltaire",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatPenName(tt.realName, tt.penName, tt.alternateNames))
		})
	}
}

func TestFormatPenNameIdempotent(t *testing.T) {
	alternates := []string{"Max Brand"}
	first := FormatPenName("Frederick Faust", "Max Brand", alternates)
	assert.Equal(t, "Frederick 'Max Brand' Faust", first)

	// Re-running enrichment must not stack quotes onto the formatted name.
	second := FormatPenName("Frederick Faust", first, alternates)
	assert.Equal(t, first, second)
}
