package models

import "fmt"

// User is the owner of the API key.
type User struct {
	ID               string
	Name             string
	Email            string
	ActiveWorkspace  string
	DefaultWorkspace string
}

func (u User) String() string {
	return fmt.Sprintf("User '%s' (%s)", u.Name, u.ID)
}

// DecodeUser builds a User from a user record. id and name are mandatory.
func DecodeUser(rec Record) (User, error) {
	id, name, err := decodeNamed(rec)
	if err != nil {
		return User{}, err
	}
	return User{
		ID:               id,
		Name:             name,
		Email:            LookupOr(rec, "email", ""),
		ActiveWorkspace:  LookupOr(rec, "activeWorkspace", ""),
		DefaultWorkspace: LookupOr(rec, "defaultWorkspace", ""),
	}, nil
}

// Encode returns the wire form of u.
func (u User) Encode() Record {
	return omitEmpty(Record{
		"id":               u.ID,
		"name":             u.Name,
		"email":            u.Email,
		"activeWorkspace":  u.ActiveWorkspace,
		"defaultWorkspace": u.DefaultWorkspace,
	})
}

// Workspace groups projects and time entries.
type Workspace struct {
	ID   string
	Name string
}

func (w Workspace) String() string {
	return fmt.Sprintf("Workspace '%s' (%s)", w.Name, w.ID)
}

// DecodeWorkspace builds a Workspace from a workspace record.
func DecodeWorkspace(rec Record) (Workspace, error) {
	id, name, err := decodeNamed(rec)
	if err != nil {
		return Workspace{}, err
	}
	return Workspace{ID: id, Name: name}, nil
}

// Encode returns the wire form of w.
func (w Workspace) Encode() Record {
	return omitEmpty(Record{"id": w.ID, "name": w.Name})
}

// Project belongs to a workspace. A project known only by its id, as
// referenced from a time entry, is a stub.
type Project struct {
	ID          string
	Name        string
	WorkspaceID string
	Archived    bool
}

// NewProjectStub returns a project carrying only its id.
func NewProjectStub(id string) Project {
	return Project{ID: id}
}

// IsStub reports whether p was created from a bare id.
func (p Project) IsStub() bool {
	return p.Name == ""
}

func (p Project) String() string {
	if p.IsStub() {
		return fmt.Sprintf("ProjectStub (%s)", p.ID)
	}
	return fmt.Sprintf("Project '%s' (%s)", p.Name, p.ID)
}

// DecodeProject builds a Project from a project record.
func DecodeProject(rec Record) (Project, error) {
	id, name, err := decodeNamed(rec)
	if err != nil {
		return Project{}, err
	}
	return Project{
		ID:          id,
		Name:        name,
		WorkspaceID: LookupOr(rec, "workspaceId", ""),
		Archived:    LookupOr(rec, "archived", false),
	}, nil
}

// Encode returns the wire form of p.
func (p Project) Encode() Record {
	return omitEmpty(Record{
		"id":          p.ID,
		"name":        p.Name,
		"workspaceId": p.WorkspaceID,
		"archived":    p.Archived,
	})
}

// Task belongs to a project. Like projects, tasks referenced from a time
// entry are stubs.
type Task struct {
	ID        string
	Name      string
	ProjectID string
}

// NewTaskStub returns a task carrying only its id.
func NewTaskStub(id string) Task {
	return Task{ID: id}
}

// IsStub reports whether t was created from a bare id.
func (t Task) IsStub() bool {
	return t.Name == ""
}

func (t Task) String() string {
	if t.IsStub() {
		return fmt.Sprintf("TaskStub (%s)", t.ID)
	}
	return fmt.Sprintf("Task '%s' (%s)", t.Name, t.ID)
}

// DecodeTask builds a Task from a task record.
func DecodeTask(rec Record) (Task, error) {
	id, name, err := decodeNamed(rec)
	if err != nil {
		return Task{}, err
	}
	return Task{ID: id, Name: name, ProjectID: LookupOr(rec, "projectId", "")}, nil
}

// Encode returns the wire form of t.
func (t Task) Encode() Record {
	return omitEmpty(Record{"id": t.ID, "name": t.Name, "projectId": t.ProjectID})
}

func decodeNamed(rec Record) (id, name string, err error) {
	if id, err = Lookup[string](rec, "id"); err != nil {
		return "", "", err
	}
	if name, err = Lookup[string](rec, "name"); err != nil {
		return "", "", err
	}
	return id, name, nil
}

// DecodeList decodes every element of records with decode. An element that
// is not a JSON object is an *ObjectParseError.
func DecodeList[T any](records []any, decode func(Record) (T, error)) ([]T, error) {
	out := make([]T, 0, len(records))
	for i, raw := range records {
		rec, ok := raw.(Record)
		if !ok {
			return nil, &ObjectParseError{Key: fmt.Sprintf("[%d]", i), Reason: fmt.Sprintf("expected object, got %T", raw)}
		}
		v, err := decode(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
