package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postTimeEntryResponse = `{"id": "123456", "description": "testing description", "tagIds": null,
 "userId": "123456", "billable": false, "taskId": null, "projectId": "123456",
 "timeInterval": {"start": "2019-10-23T17:18:58Z", "end": null, "duration": null},
 "workspaceId": "123456", "isLocked": false}`

const closedTimeEntryResponse = `{"id": "654321", "description": "closed", "projectId": null,
 "timeInterval": {"start": "2019-10-23T17:18:58Z", "end": "2019-10-23T18:18:58Z", "duration": "PT1H"}}`

const getUserResponse = `{"id":"1234","email":"test@localhost.com","name":"testuser",
 "activeWorkspace":"123245","defaultWorkspace":"2352346","status":"ACTIVE"}`

func irkutsk(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Irkutsk")
	require.NoError(t, err)
	return loc
}

func decodeRecord(t *testing.T, raw string) Record {
	t.Helper()
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	return rec
}

func TestLookup(t *testing.T) {
	rec := Record{"id": "123456", "count": float64(3), "nothing": nil}

	id, err := Lookup[string](rec, "id")
	require.NoError(t, err)
	assert.Equal(t, "123456", id)

	_, err = Lookup[string](rec, "not_a_key")
	var parseErr *ObjectParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "not_a_key", parseErr.Key)

	_, err = Lookup[string](rec, "count")
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "float64")

	v, err := Lookup[string](rec, "nothing")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestLookupOr(t *testing.T) {
	rec := Record{"id": "123456", "nothing": nil, "count": float64(3)}

	assert.Equal(t, "123456", LookupOr(rec, "id", "default"))
	assert.Equal(t, "default", LookupOr(rec, "not_a_key", "default"))
	assert.Equal(t, "default", LookupOr(rec, "nothing", "default"))
	assert.Equal(t, "default", LookupOr(rec, "count", "default"))
	assert.Equal(t, float64(3), LookupOr(rec, "count", float64(0)))
}

func TestLookupDatetime(t *testing.T) {
	rec := Record{
		"start":      "2019-10-23T17:18:58Z",
		"empty_date": nil,
		"blank_date": "",
		"bad_date":   "2019-13-45T18:18:58Z",
	}

	start, err := LookupDatetime(rec, "start")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2019, 10, 23, 17, 18, 58, 0, time.UTC), start)

	for _, key := range []string{"empty_date", "blank_date", "bad_date", "missing"} {
		t.Run(key, func(t *testing.T) {
			_, err := LookupDatetime(rec, key)
			var parseErr *ObjectParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, key, parseErr.Key)
		})
	}
}

func TestLookupDatetimeOr(t *testing.T) {
	rec := Record{"end": nil, "bad_date": "2019-13-45T18:18:58Z"}

	end, err := LookupDatetimeOr(rec, "end", nil)
	require.NoError(t, err)
	assert.Nil(t, end)

	def := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := LookupDatetimeOr(rec, "missing", &def)
	require.NoError(t, err)
	assert.Equal(t, &def, got)

	_, err = LookupDatetimeOr(rec, "bad_date", nil)
	var parseErr *ObjectParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestDatetimeConversion(t *testing.T) {
	loc := irkutsk(t)

	dt, err := ParseDatetimeIn("2018-06-12T14:01:41+00:00", loc)
	require.NoError(t, err)
	assert.Equal(t, 2018, dt.Year())
	assert.Equal(t, time.June, dt.Month())
	assert.Equal(t, 12, dt.Day())
	assert.Equal(t, 14, dt.Hour())
	assert.Equal(t, 1, dt.Minute())
	assert.Equal(t, time.UTC, dt.Location())

	// Output is always UTC with a literal Z.
	assert.Equal(t, "2018-06-12T14:01:41Z", FormatDatetime(dt))
	assert.Equal(t, "2018-06-12 22:01:41 +0800 +08", dt.In(loc).String())

	// Zone-less input is local time, not UTC.
	naive, err := ParseDatetimeIn("2018-06-12T14:01:41", loc)
	require.NoError(t, err)
	assert.Equal(t, 6, naive.Hour())
	assert.Equal(t, "2018-06-12T06:01:41Z", FormatDatetime(naive))

	// A local wall-clock value is converted, never taken as UTC.
	local := time.Date(2018, 6, 12, 14, 1, 41, 0, loc)
	assert.Equal(t, "2018-06-12T06:01:41Z", FormatDatetime(local))
	back, err := ParseDatetimeIn(FormatDatetime(local), loc)
	require.NoError(t, err)
	assert.True(t, back.Equal(local))

	_, err = ParseDatetimeIn("2019-13-45T18:18:58Z", loc)
	assert.Error(t, err)
}

func TestDatetimeRoundTrip(t *testing.T) {
	for _, dt := range []time.Time{
		time.Date(2019, 10, 23, 17, 18, 58, 0, time.UTC),
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC),
	} {
		got, err := ParseDatetime(FormatDatetime(dt))
		require.NoError(t, err)
		assert.Equal(t, dt, got)
	}
}

func TestDecodeTimeEntry(t *testing.T) {
	entry, err := DecodeTimeEntry(decodeRecord(t, postTimeEntryResponse))
	require.NoError(t, err)

	assert.Equal(t, "123456", entry.ID)
	assert.Equal(t, "testing description", entry.Description)
	assert.True(t, entry.InProgress())
	require.NotNil(t, entry.Project)
	assert.True(t, entry.Project.IsStub())
	assert.Nil(t, entry.Task)

	again := entry.Encode()
	assert.Equal(t, "2019-10-23T17:18:58Z", again["start"])
	assert.Equal(t, "testing description", again["description"])
	assert.Equal(t, "123456", again["projectId"])
	assert.NotContains(t, again, "end")
	assert.NotContains(t, again, "taskId")
}

func TestDecodeTimeEntry_NoProjectNoTask(t *testing.T) {
	entry, err := DecodeTimeEntry(decodeRecord(t, closedTimeEntryResponse))
	require.NoError(t, err)

	assert.Nil(t, entry.Project)
	assert.Nil(t, entry.Task)
	require.NotNil(t, entry.End)
	assert.Equal(t, "2019-10-23T18:18:58Z", entry.Encode()["end"])
}

func TestDecodeTimeEntry_Invalid(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		key  string
	}{
		{"missing id", Record{"timeInterval": Record{"start": "2019-10-23T17:18:58Z"}}, "id"},
		{"null interval", Record{"id": "1", "timeInterval": nil}, "timeInterval"},
		{"interval not an object", Record{"id": "1", "timeInterval": "x"}, "timeInterval"},
		{"missing start", Record{"id": "1", "timeInterval": Record{}}, "start"},
		{"bad end", Record{"id": "1", "timeInterval": Record{"start": "2019-10-23T17:18:58Z", "end": "2019-13-45T18:18:58Z"}}, "end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTimeEntry(tt.rec)
			var parseErr *ObjectParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.key, parseErr.Key)
		})
	}
}

func TestTimeEntryRoundTrip(t *testing.T) {
	start := time.Date(2019, 10, 23, 17, 18, 58, 0, time.UTC)
	end := start.Add(time.Hour)
	project := NewProjectStub("p1")

	tests := []struct {
		name  string
		entry TimeEntry
	}{
		{"minimal", TimeEntry{ID: "1", Start: start}},
		{"described", TimeEntry{ID: "2", Start: start, Description: "test description"}},
		{"complete", TimeEntry{ID: "3", Start: start, End: &end, Description: "d", Project: &project, Task: &Task{ID: "t1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := tt.entry.Encode()
			decoded, err := DecodeTimeEntry(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.entry, decoded)
		})
	}
}

func TestTimeEntryEncode_OmitsEmpty(t *testing.T) {
	entry := TimeEntry{Start: time.Date(2019, 10, 23, 17, 18, 58, 0, time.UTC)}
	assert.Equal(t, Record{"start": "2019-10-23T17:18:58Z"}, entry.Encode())
}

func TestDecodeUser(t *testing.T) {
	user, err := DecodeUser(decodeRecord(t, getUserResponse))
	require.NoError(t, err)

	assert.Equal(t, User{
		ID:               "1234",
		Name:             "testuser",
		Email:            "test@localhost.com",
		ActiveWorkspace:  "123245",
		DefaultWorkspace: "2352346",
	}, user)

	again, err := DecodeUser(user.Encode())
	require.NoError(t, err)
	assert.Equal(t, user, again)

	_, err = DecodeUser(Record{"id": "1"})
	var parseErr *ObjectParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "name", parseErr.Key)
}

func TestNamedObjectsRoundTrip(t *testing.T) {
	ws := Workspace{ID: "w1", Name: "testuser"}
	gotWS, err := DecodeWorkspace(ws.Encode())
	require.NoError(t, err)
	assert.Equal(t, ws, gotWS)

	for _, p := range []Project{
		{ID: "p1", Name: "Project1", WorkspaceID: "w1"},
		{ID: "p2", Name: "Project2", WorkspaceID: "w1", Archived: true},
	} {
		got, err := DecodeProject(p.Encode())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	task := Task{ID: "t1", Name: "Task1", ProjectID: "p1"}
	gotTask, err := DecodeTask(task.Encode())
	require.NoError(t, err)
	assert.Equal(t, task, gotTask)

	assert.Equal(t, Record{"id": "p1", "name": "Project1"}, Project{ID: "p1", Name: "Project1"}.Encode())
}

func TestDecodeList(t *testing.T) {
	records := []any{
		Record{"id": "123456", "name": "Project1", "workspaceId": "123456", "archived": false},
		Record{"id": "234567", "name": "Project2", "workspaceId": "123456", "archived": false},
	}
	projects, err := DecodeList(records, DecodeProject)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Project2", projects[1].Name)

	_, err = DecodeList([]any{Record{"id": "1", "name": "a"}, "not an object"}, DecodeProject)
	var parseErr *ObjectParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "[1]", parseErr.Key)

	_, err = DecodeList([]any{Record{"id": "1"}}, DecodeProject)
	assert.True(t, errors.As(err, &parseErr))
}

func TestTimeEntryQueryParams(t *testing.T) {
	assert.Empty(t, TimeEntryQuery{}.Params())

	start := time.Date(2019, 10, 1, 0, 0, 0, 0, time.UTC)
	q := TimeEntryQuery{Description: "test", Start: &start, ProjectID: "p1"}
	params := q.Params()
	assert.Equal(t, "test", params.Get("description"))
	assert.Equal(t, "2019-10-01T00:00:00Z", params.Get("start"))
	assert.Equal(t, "p1", params.Get("project"))
	assert.NotContains(t, params, "end")
	assert.Contains(t, q.String(), "description=test")
}

func TestString(t *testing.T) {
	assert.Equal(t, "User 'test' (123)", User{ID: "123", Name: "test"}.String())
	assert.Equal(t, "Project 'test' (123)", Project{ID: "123", Name: "test"}.String())
	assert.Equal(t, "ProjectStub (123)", NewProjectStub("123").String())
	assert.Equal(t, "Task 'test' (123)", Task{ID: "123", Name: "test"}.String())
	assert.Equal(t, "TaskStub (123)", NewTaskStub("123").String())
	assert.Equal(t, "Workspace 'test' (123)", Workspace{ID: "123", Name: "test"}.String())
}

func TestTruncate(t *testing.T) {
	entry := TimeEntry{ID: "123", Start: time.Now()}
	assert.True(t, len(entry.String()) > 0)
	assert.Equal(t, "TimeEntry (123) - ''", entry.String())

	tests := []struct {
		description string
		suffix      string
	}{
		{"A short description", "description'"},
		{"A longer description thats 30c", "thats 30c'"},
		{"A longer description thats a lot longer then 30 characters", "thats ...'"},
	}
	for _, tt := range tests {
		entry.Description = tt.description
		assert.True(t, len(entry.String()) > len(tt.suffix))
		assert.Equal(t, tt.suffix, entry.String()[len(entry.String())-len(tt.suffix):])
	}

	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "ä...", Truncate("äöüäöü", 4))
}
