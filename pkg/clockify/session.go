package clockify

import (
	"context"
	"errors"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/Sternrassler/clockify-client/pkg/logging"
	"github.com/Sternrassler/clockify-client/pkg/models"
	"github.com/rs/zerolog"
)

// ErrNoWorkspace is returned when the API key has access to no workspace.
var ErrNoWorkspace = errors.New("no workspace available for this api key")

// API is the set of typed operations a Session relies on. *Client implements it.
type API interface {
	GetWorkspaces(ctx context.Context, apiKey string) ([]models.Workspace, error)
	GetUser(ctx context.Context, apiKey string) (models.User, error)
	GetProjects(ctx context.Context, apiKey string, ws models.Workspace) ([]models.Project, error)
	GetTasks(ctx context.Context, apiKey string, ws models.Workspace, project models.Project) ([]models.Task, error)
	SaveTimeEntry(ctx context.Context, apiKey string, ws models.Workspace, entry models.TimeEntry) (models.TimeEntry, error)
	TimeEntries(ctx context.Context, apiKey string, ws models.Workspace, user models.User, query models.TimeEntryQuery) iter.Seq2[models.TimeEntry, error]
	GetTimeEntries(ctx context.Context, apiKey string, ws models.Workspace, user models.User, query models.TimeEntryQuery, limit int) ([]models.TimeEntry, error)
	EndActiveTimeEntry(ctx context.Context, apiKey string, ws models.Workspace, user models.User, end time.Time) (*models.TimeEntry, error)
}

var _ API = (*Client)(nil)

// NewTimeEntry describes an entry to create. A nil End starts a running timer.
type NewTimeEntry struct {
	Start       time.Time
	End         *time.Time
	Description string
	Project     *models.Project
}

// Session binds one API key to its user and first workspace.
//
// The user, the workspaces, the projects of the first workspace and the tasks
// of each project are fetched on first use and kept for the lifetime of the
// Session. Failed lookups are not kept and are retried on the next call. A new
// Session starts empty.
type Session struct {
	api    API
	apiKey string
	clock  func() time.Time
	logger zerolog.Logger

	mu                sync.Mutex
	workspaces         []models.Workspace
	workspacesComputed bool
	user               models.User
	userComputed       bool
	projects           []models.Project
	projectsComputed   bool
	tasks              map[string][]models.Task
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock replaces time.Now as the source of Session.Now.
func WithClock(clock func() time.Time) SessionOption {
	return func(s *Session) {
		s.clock = clock
	}
}

// NewSession creates a Session for apiKey.
func NewSession(api API, apiKey string, opts ...SessionOption) *Session {
	s := &Session{
		api:    api,
		apiKey: apiKey,
		clock:  time.Now,
		logger: logging.NewLogger("clockify-session"),
		tasks:  make(map[string][]models.Task),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current time in UTC.
func (s *Session) Now() time.Time {
	return s.clock().UTC()
}

// Workspaces returns every workspace the API key can access. The returned
// slice is a copy.
func (s *Session) Workspaces(ctx context.Context) ([]models.Workspace, error) {
	s.mu.Lock()
	if s.workspacesComputed {
		defer s.mu.Unlock()
		return slices.Clone(s.workspaces), nil
	}
	s.mu.Unlock()

	workspaces, err := s.api.GetWorkspaces(ctx, s.apiKey)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.workspacesComputed {
		s.workspaces = workspaces
		s.workspacesComputed = true
		s.logger.Debug().Int("workspaces", len(workspaces)).Msg("Resolved workspaces")
	}
	return slices.Clone(s.workspaces), nil
}

// DefaultWorkspace returns the first workspace of the API key.
func (s *Session) DefaultWorkspace(ctx context.Context) (models.Workspace, error) {
	workspaces, err := s.Workspaces(ctx)
	if err != nil {
		return models.Workspace{}, err
	}
	if len(workspaces) == 0 {
		return models.Workspace{}, ErrNoWorkspace
	}
	return workspaces[0], nil
}

// User returns the owner of the API key.
func (s *Session) User(ctx context.Context) (models.User, error) {
	s.mu.Lock()
	if s.userComputed {
		defer s.mu.Unlock()
		return s.user, nil
	}
	s.mu.Unlock()

	user, err := s.api.GetUser(ctx, s.apiKey)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.userComputed {
		s.user = user
		s.userComputed = true
		s.logger.Debug().Str("user_id", user.ID).Msg("Resolved user")
	}
	return s.user, nil
}

// Projects returns the projects of the default workspace. The returned slice
// is a copy.
func (s *Session) Projects(ctx context.Context) ([]models.Project, error) {
	s.mu.Lock()
	if s.projectsComputed {
		defer s.mu.Unlock()
		return slices.Clone(s.projects), nil
	}
	s.mu.Unlock()

	ws, err := s.DefaultWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.api.GetProjects(ctx, s.apiKey, ws)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.projectsComputed {
		s.projects = projects
		s.projectsComputed = true
	}
	return slices.Clone(s.projects), nil
}

// Tasks returns the tasks of project, keyed by project ID.
func (s *Session) Tasks(ctx context.Context, project models.Project) ([]models.Task, error) {
	s.mu.Lock()
	if tasks, ok := s.tasks[project.ID]; ok {
		defer s.mu.Unlock()
		return slices.Clone(tasks), nil
	}
	s.mu.Unlock()

	ws, err := s.DefaultWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.api.GetTasks(ctx, s.apiKey, ws, project)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[project.ID]; !ok {
		s.tasks[project.ID] = tasks
	}
	return slices.Clone(s.tasks[project.ID]), nil
}

// AddTimeEntry creates an entry in the default workspace. Without an end time
// it starts a timer, which stops any timer already running.
func (s *Session) AddTimeEntry(ctx context.Context, entry NewTimeEntry) (models.TimeEntry, error) {
	return s.SaveTimeEntry(ctx, models.TimeEntry{
		Start:       entry.Start,
		End:         entry.End,
		Description: entry.Description,
		Project:     entry.Project,
	})
}

// SaveTimeEntry creates or updates entry in the default workspace.
func (s *Session) SaveTimeEntry(ctx context.Context, entry models.TimeEntry) (models.TimeEntry, error) {
	ws, err := s.DefaultWorkspace(ctx)
	if err != nil {
		return models.TimeEntry{}, err
	}
	return s.api.SaveTimeEntry(ctx, s.apiKey, ws, entry)
}

// SaveTimeEntries saves entries in order and stops at the first failure. The
// entries saved before it are returned along with the error.
func (s *Session) SaveTimeEntries(ctx context.Context, entries []models.TimeEntry) ([]models.TimeEntry, error) {
	saved := make([]models.TimeEntry, 0, len(entries))
	for _, entry := range entries {
		result, err := s.SaveTimeEntry(ctx, entry)
		if err != nil {
			return saved, err
		}
		saved = append(saved, result)
	}
	return saved, nil
}

// StopTimer ends the running timer at stopAt, or now when stopAt is nil. It
// returns nil without error when no timer was running.
func (s *Session) StopTimer(ctx context.Context, stopAt *time.Time) (*models.TimeEntry, error) {
	end := s.Now()
	if stopAt != nil {
		end = *stopAt
	}

	ws, err := s.DefaultWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.User(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.EndActiveTimeEntry(ctx, s.apiKey, ws, user, end)
}

// TimeEntries returns at most limit of the user's entries matching query
// (limit <= 0 returns all).
func (s *Session) TimeEntries(ctx context.Context, query models.TimeEntryQuery, limit int) ([]models.TimeEntry, error) {
	ws, err := s.DefaultWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.User(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.GetTimeEntries(ctx, s.apiKey, ws, user, query, limit)
}
