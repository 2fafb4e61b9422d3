package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/statechart/pkg/domain"
)

var (
	// DefaultMaxEventSize is the longest event name accepted from outside callers.
	DefaultMaxEventSize = 256
	// EnvMaxEventSize is the environment variable to override the default
	EnvMaxEventSize = "STATECHART_MAX_EVENT_SIZE"
)

var (
	ErrEventEmpty    = errors.New("event name is empty")
	ErrEventTooLarge = errors.New("event name exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("event name contains invalid UTF-8 sequences")
)

// SanitizeEvent turns untrusted input (HTTP path, MCP argument, console line)
// into an event name. Surrounding whitespace is trimmed and control characters
// are stripped; oversized or empty names are rejected.
func SanitizeEvent(input string) (domain.Event, error) {
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	limit := maxEventSize()
	if len(input) > limit {
		// Rejected rather than truncated: a truncated name could match another event.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrEventTooLarge, len(input), limit)
	}

	clean := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return "", ErrEventEmpty
	}
	return domain.Event(clean), nil
}

func maxEventSize() int {
	if val := os.Getenv(EnvMaxEventSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxEventSize
}
