// Package clockify exposes the Clockify API as typed operations on domain
// objects, and a Session that binds them to one API key and workspace.
package clockify

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"time"

	"github.com/Sternrassler/clockify-client/pkg/client"
	"github.com/Sternrassler/clockify-client/pkg/logging"
	"github.com/Sternrassler/clockify-client/pkg/models"
	"github.com/Sternrassler/clockify-client/pkg/pagination"
	"github.com/rs/zerolog"
)

// Requester performs raw API requests. *client.Server implements it.
type Requester interface {
	Get(ctx context.Context, path, apiKey string, params url.Values) (any, error)
	Post(ctx context.Context, path, apiKey string, data any) (any, error)
	Put(ctx context.Context, path, apiKey string, data any) (any, error)
	Patch(ctx context.Context, path, apiKey string, data any) (any, error)
	Iterator(path, apiKey string, params url.Values, opts ...pagination.Option) *pagination.Iterator[any]
}

var _ Requester = (*client.Server)(nil)

// Client maps API endpoints onto domain objects. It holds no state besides
// the Requester and may be shared.
type Client struct {
	server   Requester
	pageSize int
	logger   zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithPageSize sets the page size used for time entry listings.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		c.pageSize = n
	}
}

// NewClient creates a Client on top of server.
func NewClient(server Requester, opts ...ClientOption) *Client {
	c := &Client{
		server:   server,
		pageSize: pagination.DefaultPageSize,
		logger:   logging.NewLogger("clockify-api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetWorkspaces returns all workspaces visible to apiKey.
func (c *Client) GetWorkspaces(ctx context.Context, apiKey string) ([]models.Workspace, error) {
	records, err := c.getList(ctx, "/workspaces", apiKey)
	if err != nil {
		return nil, fmt.Errorf("get workspaces: %w", err)
	}
	return models.DecodeList(records, models.DecodeWorkspace)
}

// GetUser returns the owner of apiKey.
func (c *Client) GetUser(ctx context.Context, apiKey string) (models.User, error) {
	v, err := c.server.Get(ctx, "/user", apiKey, nil)
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	rec, err := client.AsObject(v)
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return models.DecodeUser(rec)
}

// GetProjects returns the projects of workspace ws.
func (c *Client) GetProjects(ctx context.Context, apiKey string, ws models.Workspace) ([]models.Project, error) {
	records, err := c.getList(ctx, workspacePath(ws)+"/projects", apiKey)
	if err != nil {
		return nil, fmt.Errorf("get projects: %w", err)
	}
	return models.DecodeList(records, models.DecodeProject)
}

// GetTasks returns the tasks of project in workspace ws.
func (c *Client) GetTasks(ctx context.Context, apiKey string, ws models.Workspace, project models.Project) ([]models.Task, error) {
	path := workspacePath(ws) + "/projects/" + url.PathEscape(project.ID) + "/tasks"
	records, err := c.getList(ctx, path, apiKey)
	if err != nil {
		return nil, fmt.Errorf("get tasks: %w", err)
	}
	return models.DecodeList(records, models.DecodeTask)
}

// SaveTimeEntry stores entry in workspace ws. An entry with an ID replaces
// the existing one and is returned as given; an entry without ID is created
// and the server's version of it is returned.
func (c *Client) SaveTimeEntry(ctx context.Context, apiKey string, ws models.Workspace, entry models.TimeEntry) (models.TimeEntry, error) {
	if entry.ID != "" {
		path := workspacePath(ws) + "/time-entries/" + url.PathEscape(entry.ID)
		if _, err := c.server.Put(ctx, path, apiKey, entry.Encode()); err != nil {
			return models.TimeEntry{}, fmt.Errorf("update time entry %s: %w", entry.ID, err)
		}
		c.logger.Debug().Str("entry_id", entry.ID).Msg("Updated time entry")
		return entry, nil
	}

	v, err := c.server.Post(ctx, workspacePath(ws)+"/time-entries", apiKey, entry.Encode())
	if err != nil {
		return models.TimeEntry{}, fmt.Errorf("create time entry: %w", err)
	}
	rec, err := client.AsObject(v)
	if err != nil {
		return models.TimeEntry{}, fmt.Errorf("create time entry: %w", err)
	}
	created, err := models.DecodeTimeEntry(rec)
	if err != nil {
		return models.TimeEntry{}, err
	}
	c.logger.Debug().Str("entry_id", created.ID).Msg("Created time entry")
	return created, nil
}

// TimeEntries lazily lists the time entries of user in workspace ws that match
// query. Pages are requested as the sequence is consumed; every range over
// the sequence starts again at the first page. A request or decode error is
// yielded once and ends the sequence.
func (c *Client) TimeEntries(ctx context.Context, apiKey string, ws models.Workspace, user models.User, query models.TimeEntryQuery) iter.Seq2[models.TimeEntry, error] {
	path := workspacePath(ws) + "/user/" + url.PathEscape(user.ID) + "/time-entries"
	params := query.Params()

	return func(yield func(models.TimeEntry, error) bool) {
		it := c.server.Iterator(path, apiKey, params, pagination.WithPageSize(c.pageSize))
		for raw, err := range it.All(ctx) {
			if err != nil {
				yield(models.TimeEntry{}, fmt.Errorf("list time entries: %w", err))
				return
			}
			rec, err := client.AsObject(raw)
			if err != nil {
				yield(models.TimeEntry{}, fmt.Errorf("list time entries: %w", err))
				return
			}
			entry, err := models.DecodeTimeEntry(rec)
			if err != nil {
				yield(models.TimeEntry{}, err)
				return
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// GetTimeEntries collects at most limit entries from TimeEntries (limit <= 0
// collects all). Pages beyond the one holding the last needed entry are not
// requested.
func (c *Client) GetTimeEntries(ctx context.Context, apiKey string, ws models.Workspace, user models.User, query models.TimeEntryQuery, limit int) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry
	for entry, err := range c.TimeEntries(ctx, apiKey, ws, user, query) {
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

// EndActiveTimeEntry stops the running timer of user at end and returns the
// stopped entry. When no timer is running it returns (nil, nil).
func (c *Client) EndActiveTimeEntry(ctx context.Context, apiKey string, ws models.Workspace, user models.User, end time.Time) (*models.TimeEntry, error) {
	path := workspacePath(ws) + "/user/" + url.PathEscape(user.ID) + "/time-entries"
	v, err := c.server.Patch(ctx, path, apiKey, map[string]any{"end": models.FormatDatetime(end)})
	if client.IsNotFound(err) {
		c.logger.Debug().Str("user_id", user.ID).Msg("No running timer to stop")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("end active time entry: %w", err)
	}

	rec, err := client.AsObject(v)
	if err != nil {
		return nil, fmt.Errorf("end active time entry: %w", err)
	}
	entry, err := models.DecodeTimeEntry(rec)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) getList(ctx context.Context, path, apiKey string) ([]any, error) {
	v, err := c.server.Get(ctx, path, apiKey, nil)
	if err != nil {
		return nil, err
	}
	return client.AsList(v)
}

func workspacePath(ws models.Workspace) string {
	return "/workspaces/" + url.PathEscape(ws.ID)
}
