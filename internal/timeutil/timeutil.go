// ABOUTME: Time parsing helpers for polling intervals, threshold dates, and strftime patterns
// ABOUTME: Wraps dateparse for free-form dates and validates strftime format strings up front

package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/ncruces/go-strftime"
)

// DateParseError reports a malformed user-supplied date or time format.
type DateParseError struct {
	Input string
	Err   error
}

func (e *DateParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid date/time value %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("invalid date/time value %q", e.Input)
}

func (e *DateParseError) Unwrap() error { return e.Err }

// ParseTimespec parses an interval value of the form 60, 60s, 5m, or 1h.
// A bare number is seconds.
func ParseTimespec(value string) (time.Duration, error) {
	if n, err := strconv.Atoi(value); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("invalid timespec value %q - hint: 60, 60s, 1m, 1h", value)
		}
		return time.Duration(n) * time.Second, nil
	}

	multiply := map[byte]time.Duration{
		's': time.Second,
		'm': time.Minute,
		'h': time.Hour,
	}

	if len(value) > 1 {
		if unit, ok := multiply[value[len(value)-1]]; ok {
			if n, err := strconv.Atoi(value[:len(value)-1]); err == nil && n >= 0 {
				return time.Duration(n) * unit, nil
			}
		}
	}

	return 0, fmt.Errorf("invalid timespec value %q - hint: 60, 60s, 1m, 1h", value)
}

// ParseDate parses a free-form date string such as "2011/12/20 23:50:12"
// or "2020-01-01". Returns DateParseError when the value is unparseable.
func ParseDate(value string) (time.Time, error) {
	t, err := dateparse.ParseAny(value)
	if err != nil {
		return time.Time{}, &DateParseError{Input: value, Err: err}
	}
	return t, nil
}

// strftime conversion specifiers accepted in time format strings. Matches
// the C89/C99 set go-strftime renders, plus %% for a literal percent.
const timeFormatVerbs = "aAbBcCdeFgGhHIjmMnpRrSTuUVwWxXyYzZ%"

// CheckTimeFormat validates a strftime-style pattern before any polling
// begins. Returns DateParseError on a dangling or unrecognized specifier.
func CheckTimeFormat(format string) error {
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		if i+1 >= len(format) {
			return &DateParseError{Input: format, Err: fmt.Errorf("dangling %% at end of format")}
		}
		i++
		if !strings.ContainsRune(timeFormatVerbs, rune(format[i])) {
			return &DateParseError{Input: format, Err: fmt.Errorf("unsupported specifier %%%c", format[i])}
		}
	}
	return nil
}

// FormatTime renders t through a strftime-style pattern.
func FormatTime(format string, t time.Time) string {
	return strftime.Format(format, t)
}
