// Package models maps Clockify JSON records onto Go values and back.
package models

import (
	"fmt"
	"time"
)

// Record is a decoded JSON object as returned by the API.
type Record = map[string]any

// ObjectParseError is returned when a record lacks a mandatory field or a
// field holds a value of the wrong type.
type ObjectParseError struct {
	Key    string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ObjectParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse field %q: %s: %v", e.Key, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse field %q: %s", e.Key, e.Reason)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ObjectParseError) Unwrap() error {
	return e.Err
}

// Lookup returns the mandatory field key. A missing key or a value that is not
// a T is an *ObjectParseError; an explicit null yields the zero value.
func Lookup[T any](rec Record, key string) (T, error) {
	var zero T
	raw, ok := rec[key]
	if !ok {
		return zero, &ObjectParseError{Key: key, Reason: "missing required field"}
	}
	if raw == nil {
		return zero, nil
	}
	v, ok := raw.(T)
	if !ok {
		return zero, &ObjectParseError{Key: key, Reason: fmt.Sprintf("expected %T, got %T", zero, raw)}
	}
	return v, nil
}

// LookupOr returns the field key, or def when the key is absent, null or not a T.
// It never fails.
func LookupOr[T any](rec Record, key string, def T) T {
	raw, ok := rec[key]
	if !ok || raw == nil {
		return def
	}
	v, ok := raw.(T)
	if !ok {
		return def
	}
	return v
}

// LookupDatetime parses the mandatory datetime field key. Absent, null and
// empty values are errors, as are strings that do not parse.
func LookupDatetime(rec Record, key string) (time.Time, error) {
	s, err := Lookup[string](rec, key)
	if err != nil {
		return time.Time{}, err
	}
	if s == "" {
		return time.Time{}, &ObjectParseError{Key: key, Reason: "empty datetime"}
	}
	t, err := ParseDatetime(s)
	if err != nil {
		return time.Time{}, &ObjectParseError{Key: key, Reason: "invalid datetime", Err: err}
	}
	return t, nil
}

// LookupDatetimeOr parses the optional datetime field key, returning def when
// it is absent, null or empty. A present value that does not parse is still
// an error.
func LookupDatetimeOr(rec Record, key string, def *time.Time) (*time.Time, error) {
	s := LookupOr(rec, key, "")
	if s == "" {
		return def, nil
	}
	t, err := ParseDatetime(s)
	if err != nil {
		return nil, &ObjectParseError{Key: key, Reason: "invalid datetime", Err: err}
	}
	return &t, nil
}

// omitEmpty drops keys holding nil, "" or false.
func omitEmpty(rec Record) Record {
	for k, v := range rec {
		switch t := v.(type) {
		case nil:
			delete(rec, k)
		case string:
			if t == "" {
				delete(rec, k)
			}
		case bool:
			if !t {
				delete(rec, k)
			}
		}
	}
	return rec
}
