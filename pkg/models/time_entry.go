package models

import (
	"fmt"
	"net/url"
	"time"
)

// DescriptionDisplayLength is the number of characters of a description
// shown by TimeEntry.String.
const DescriptionDisplayLength = 30

// TimeEntry is a logged interval of work. A nil End means the timer is still
// running.
type TimeEntry struct {
	ID          string
	Start       time.Time
	End         *time.Time
	Description string
	Project     *Project
	Task        *Task
}

// InProgress reports whether the entry has no end yet.
func (e TimeEntry) InProgress() bool {
	return e.End == nil
}

func (e TimeEntry) String() string {
	return fmt.Sprintf("TimeEntry (%s) - '%s'", e.ID, Truncate(e.Description, DescriptionDisplayLength))
}

// DecodeTimeEntry builds a TimeEntry from a time entry record.
//
// The response form nests start and end under timeInterval; the request form
// produced by Encode carries them at top level. Both are accepted.
// projectId and taskId become stubs.
func DecodeTimeEntry(rec Record) (TimeEntry, error) {
	id, err := Lookup[string](rec, "id")
	if err != nil {
		return TimeEntry{}, err
	}

	interval := rec
	if _, nested := rec["timeInterval"]; nested {
		interval, err = Lookup[Record](rec, "timeInterval")
		if err != nil {
			return TimeEntry{}, err
		}
		if interval == nil {
			return TimeEntry{}, &ObjectParseError{Key: "timeInterval", Reason: "null interval"}
		}
	}

	start, err := LookupDatetime(interval, "start")
	if err != nil {
		return TimeEntry{}, err
	}
	end, err := LookupDatetimeOr(interval, "end", nil)
	if err != nil {
		return TimeEntry{}, err
	}

	entry := TimeEntry{
		ID:          id,
		Start:       start,
		End:         end,
		Description: LookupOr(rec, "description", ""),
	}
	if projectID := LookupOr(rec, "projectId", ""); projectID != "" {
		p := NewProjectStub(projectID)
		entry.Project = &p
	}
	if taskID := LookupOr(rec, "taskId", ""); taskID != "" {
		t := NewTaskStub(taskID)
		entry.Task = &t
	}
	return entry, nil
}

// Encode returns the request form of e as accepted by the create and update
// endpoints.
func (e TimeEntry) Encode() Record {
	rec := Record{
		"id":          e.ID,
		"start":       FormatDatetime(e.Start),
		"description": e.Description,
	}
	if e.End != nil {
		rec["end"] = FormatDatetime(*e.End)
	}
	if e.Project != nil {
		rec["projectId"] = e.Project.ID
	}
	if e.Task != nil {
		rec["taskId"] = e.Task.ID
	}
	return omitEmpty(rec)
}

// TimeEntryQuery filters the time entry list endpoint. Zero fields are not
// sent.
type TimeEntryQuery struct {
	Description string
	Start       *time.Time
	End         *time.Time
	ProjectID   string
}

// Params returns the query as URL parameters.
func (q TimeEntryQuery) Params() url.Values {
	params := url.Values{}
	if q.Description != "" {
		params.Set("description", q.Description)
	}
	if q.Start != nil {
		params.Set("start", FormatDatetime(*q.Start))
	}
	if q.End != nil {
		params.Set("end", FormatDatetime(*q.End))
	}
	if q.ProjectID != "" {
		params.Set("project", q.ProjectID)
	}
	return params
}

func (q TimeEntryQuery) String() string {
	return fmt.Sprintf("TimeEntryQuery %s", q.Params().Encode())
}

// Truncate shortens msg to at most length characters, marking the cut with
// "...".
func Truncate(msg string, length int) string {
	runes := []rune(msg)
	if len(runes) <= length {
		return msg
	}
	if length <= 3 {
		return string(runes[:length])
	}
	return string(runes[:length-3]) + "..."
}
