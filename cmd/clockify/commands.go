package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Sternrassler/clockify-client/pkg/clockify"
	"github.com/Sternrassler/clockify-client/pkg/config"
	"github.com/Sternrassler/clockify-client/pkg/models"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "url:       %s\n", cfg.URL)
			fmt.Fprintf(out, "api_key:   %s\n", maskKey(cfg.APIKey))
			fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
			fmt.Fprintf(out, "timeout:   %s\n", cfg.Timeout)
			if cfg.ProxyURL != "" {
				fmt.Fprintf(out, "proxy_url: %s\n", cfg.ProxyURL)
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the configuration file from flags and environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			path := a.configPath
			if path == "" {
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.AddCommand(showCmd, initCmd)
	return cmd
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the owner of the API key and the workspace in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.session.User(cmd.Context())
			if err != nil {
				return err
			}
			ws, err := a.session.DefaultWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), user)
			fmt.Fprintln(cmd.OutOrStdout(), ws)
			return nil
		},
	}
}

func newWorkspacesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "workspaces",
		Short: "List workspaces; commands operate on the one marked with *",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspaces, err := a.session.Workspaces(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "\tID\tNAME")
			for i, ws := range workspaces {
				marker := ""
				if i == 0 {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", marker, ws.ID, ws.Name)
			}
			return w.Flush()
		},
	}
}

func newProjectsCmd(a *app) *cobra.Command {
	var showArchived bool

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects in the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := a.session.Projects(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME")
			for _, p := range projects {
				if p.Archived && !showArchived {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\n", p.ID, p.Name)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&showArchived, "archived", false, "include archived projects")
	return cmd
}

func newTasksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks <project>",
		Short: "List tasks of a project, given by ID or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := a.findProject(cmd, args[0])
			if err != nil {
				return err
			}
			tasks, err := a.session.Tasks(cmd.Context(), *project)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME")
			for _, t := range tasks {
				fmt.Fprintf(w, "%s\t%s\n", t.ID, t.Name)
			}
			return w.Flush()
		},
	}
}

func newStartCmd(a *app) *cobra.Command {
	var (
		projectRef string
		startAt    string
		endAt      string
	)

	cmd := &cobra.Command{
		Use:   "start [description]",
		Short: "Start a timer, or log a finished entry when --end is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			entry := clockify.NewTimeEntry{
				Start:       a.session.Now(),
				Description: strings.Join(args, " "),
			}

			var err error
			if startAt != "" {
				if entry.Start, err = models.ParseDatetime(startAt); err != nil {
					return err
				}
			}
			if endAt != "" {
				end, err := models.ParseDatetime(endAt)
				if err != nil {
					return err
				}
				entry.End = &end
			}
			if projectRef != "" {
				if entry.Project, err = a.findProject(cmd, projectRef); err != nil {
					return err
				}
			}

			created, err := a.session.AddTimeEntry(cmd.Context(), entry)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", created)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectRef, "project", "", "project ID or name")
	cmd.Flags().StringVar(&startAt, "start", "", "start time (default now, zone-less values are local time)")
	cmd.Flags().StringVar(&endAt, "end", "", "end time; without it a timer is started")
	return cmd
}

func newStopCmd(a *app) *cobra.Command {
	var stopAt string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			var at *time.Time
			if stopAt != "" {
				t, err := models.ParseDatetime(stopAt)
				if err != nil {
					return err
				}
				at = &t
			}

			stopped, err := a.session.StopTimer(cmd.Context(), at)
			if err != nil {
				return err
			}
			if stopped == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Stopped nothing. No timer was running")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped %s. Set end time %s\n", stopped, formatEnd(stopped.End))
			return nil
		},
	}

	cmd.Flags().StringVar(&stopAt, "at", "", "end time (default now)")
	return cmd
}

func newEntriesCmd(a *app) *cobra.Command {
	var (
		description string
		projectRef  string
		since       string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List your time entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := models.TimeEntryQuery{Description: description}
			if since != "" {
				start, err := models.ParseDatetime(since)
				if err != nil {
					return err
				}
				query.Start = &start
			}
			if projectRef != "" {
				project, err := a.findProject(cmd, projectRef)
				if err != nil {
					return err
				}
				query.ProjectID = project.ID
			}

			entries, err := a.session.TimeEntries(cmd.Context(), query, limit)
			if err != nil {
				return err
			}
			a.logger.Debug().Int("entries", len(entries)).Str("query", query.String()).Msg("Listed time entries")

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTART\tEND\tDESCRIPTION")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, models.FormatDatetime(e.Start), formatEnd(e.End),
					models.Truncate(e.Description, models.DescriptionDisplayLength))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "only entries whose description matches")
	cmd.Flags().StringVar(&projectRef, "project", "", "only entries of this project (ID or name)")
	cmd.Flags().StringVar(&since, "since", "", "only entries starting at or after this time")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of entries (0 for all)")
	return cmd
}

// formatEnd renders an optional end time; nil means the entry is running.
func formatEnd(end *time.Time) string {
	if end == nil {
		return "running"
	}
	return models.FormatDatetime(*end)
}

// findProject resolves ref against project IDs first, then names.
func (a *app) findProject(cmd *cobra.Command, ref string) (*models.Project, error) {
	projects, err := a.session.Projects(cmd.Context())
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].ID == ref {
			return &projects[i], nil
		}
	}
	for i := range projects {
		if strings.EqualFold(projects[i].Name, ref) {
			return &projects[i], nil
		}
	}
	return nil, fmt.Errorf("no project with ID or name %q", ref)
}
