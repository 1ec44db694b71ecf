package models

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// WireFormat is the datetime layout used on the wire. Values are always UTC.
const WireFormat = "2006-01-02T15:04:05Z"

// FormatDatetime renders t in WireFormat after converting it to UTC. Values
// built in time.Local are therefore shifted by the local offset, never taken
// as UTC wall-clock.
func FormatDatetime(t time.Time) string {
	return t.UTC().Format(WireFormat)
}

// ParseDatetime parses a datetime string and returns it in UTC. Strings
// without zone information are read as local time.
func ParseDatetime(s string) (time.Time, error) {
	return ParseDatetimeIn(s, time.Local)
}

// ParseDatetimeIn is ParseDatetime with an explicit zone for strings that
// carry none.
func ParseDatetimeIn(s string, loc *time.Location) (time.Time, error) {
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse datetime %q: %w", s, err)
	}
	return t.UTC(), nil
}
