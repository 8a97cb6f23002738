package api

import (
	"strconv"
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

// ParseTimestamp parses a timestamp string, supporting both Unix seconds
// and human-readable dates ("2026-03-01", "last month"). fieldName is
// used for error messages.
func ParseTimestamp(timestampStr, fieldName string) (time.Time, error) {
	if timestampStr == "" {
		return time.Time{}, NewValidationError("%s timestamp is required", fieldName)
	}

	// Unix seconds first.
	if unixTimestamp, err := strconv.ParseInt(timestampStr, 10, 64); err == nil {
		if unixTimestamp < 0 {
			return time.Time{}, NewValidationError("%s timestamp must be non-negative", fieldName)
		}
		return time.Unix(unixTimestamp, 0).UTC(), nil
	}

	parser := dps.Parser{}
	cfg := &dps.Configuration{
		// CurrentPeriod interprets bare dates like "March" as the current
		// period, which reads naturally in query parameters.
		PreferredDateSource: dps.CurrentPeriod,
	}

	parsedDate, err := parser.Parse(cfg, timestampStr)
	if err != nil {
		return time.Time{}, NewValidationError("%s must be a valid Unix timestamp or human-readable date: %v", fieldName, err)
	}
	if parsedDate.IsZero() {
		return time.Time{}, NewValidationError("%s could not be parsed as a valid date: %s", fieldName, timestampStr)
	}

	return parsedDate.Time, nil
}

// ParseOptionalTimestamp parses an optional timestamp parameter. An empty
// string yields nil.
func ParseOptionalTimestamp(timestampStr, fieldName string) (*time.Time, error) {
	if timestampStr == "" {
		return nil, nil
	}

	t, err := ParseTimestamp(timestampStr, fieldName)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
