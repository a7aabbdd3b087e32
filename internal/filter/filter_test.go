package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallsignFilter_ShouldReport(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		callsign string
		expected bool
	}{
		{
			name:     "no patterns reports everything",
			patterns: nil,
			callsign: "BG4WOM",
			expected: true,
		},
		{
			name:     "empty callsign never reported",
			patterns: nil,
			callsign: "",
			expected: false,
		},
		{
			name:     "prefix wildcard suppresses match",
			patterns: []string{"BG*"},
			callsign: "BG4WOM",
			expected: false,
		},
		{
			name:     "prefix wildcard passes non-match",
			patterns: []string{"BG*"},
			callsign: "JA1XYZ",
			expected: true,
		},
		{
			name:     "exact pattern is full string match",
			patterns: []string{"BG4"},
			callsign: "BG4WOM",
			expected: true,
		},
		{
			name:     "exact pattern suppresses equal callsign",
			patterns: []string{"BG4WOM"},
			callsign: "BG4WOM",
			expected: false,
		},
		{
			name:     "question mark matches single character",
			patterns: []string{"B?4WOM"},
			callsign: "BG4WOM",
			expected: false,
		},
		{
			name:     "question mark does not match two characters",
			patterns: []string{"B?WOM"},
			callsign: "BG4WOM",
			expected: true,
		},
		{
			name:     "character class",
			patterns: []string{"B[GD]*"},
			callsign: "BD7IS",
			expected: false,
		},
		{
			name:     "any pattern match suppresses",
			patterns: []string{"VK*", "JA*", "W1*"},
			callsign: "JA1XYZ",
			expected: false,
		},
		{
			name:     "none of several patterns match",
			patterns: []string{"VK*", "JA*", "W1*"},
			callsign: "EA3XYZ",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.patterns)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f.ShouldReport(tt.callsign))
		})
	}
}

func TestCallsignFilter_InvalidPattern(t *testing.T) {
	f, err := New([]string{"BG*", "[unterminated"})
	assert.Error(t, err)
	assert.Nil(t, f)
	assert.Contains(t, err.Error(), "[unterminated")
}

func TestCallsignFilter_Patterns(t *testing.T) {
	f, err := New([]string{"BG*", "VK?XX"})
	require.NoError(t, err)
	assert.Equal(t, []string{"BG*", "VK?XX"}, f.Patterns())
}
