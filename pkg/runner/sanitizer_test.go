package runner

import (
	"strings"
	"testing"

	"github.com/aretw0/statechart/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeEvent_SizeLimit(t *testing.T) {
	limit := DefaultMaxEventSize

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeEvent(strings.Repeat("a", tt.inputSize))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEventTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeEvent_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxEventSize, "4")

	_, err := SanitizeEvent("start")
	assert.ErrorIs(t, err, ErrEventTooLarge)

	ev, err := SanitizeEvent("stop")
	require.NoError(t, err)
	assert.Equal(t, domain.Event("stop"), ev)
}

func TestSanitizeEvent_Cleaning(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected domain.Event
		err      error
	}{
		{"Plain", "start", "start", nil},
		{"Trimmed", "  start\n", "start", nil},
		{"Inner Space Kept", "zone shrink", "zone shrink", nil},
		{"ANSI Stripped", "\x1b[31mstart", "[31mstart", nil},
		{"Null Stripped", "sta\x00rt", "start", nil},
		{"Only Whitespace", " \t\r\n", "", ErrEventEmpty},
		{"Invalid UTF-8", "st\xffart", "", ErrInvalidUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeEvent(tt.input)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
