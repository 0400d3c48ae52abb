package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/forrev/forrev-cli/internal/calendar"
	"github.com/forrev/forrev-cli/internal/event"
	"github.com/forrev/forrev-cli/internal/filter"
	"github.com/forrev/forrev-cli/internal/notifier"
	"github.com/forrev/forrev-cli/internal/overlay"
	"github.com/forrev/forrev-cli/internal/store"
)

// listOptions are the filtering flags shared by list, profile and export
type listOptions struct {
	sort      string
	dates     string
	titles    []string
	locations []string
	owner     string
	weekends  bool
	upcoming  bool
}

func (o *listOptions) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.sort, "sort", "", "Sort by: created, start, title or location (default: newest first)")
	flags.StringVar(&o.dates, "dates", "", `Date range, e.g. "Mar 1-15", "March 1 - April 15" or "March"`)
	flags.StringSliceVar(&o.titles, "title", nil, "Keep events whose title contains this text (repeatable)")
	flags.StringSliceVar(&o.locations, "location", nil, "Keep events whose location contains this text (repeatable)")
	flags.StringVar(&o.owner, "owner", "", "Keep events created by this user")
	flags.BoolVar(&o.weekends, "weekends", false, "Keep events that touch a weekend")
	flags.BoolVar(&o.upcoming, "upcoming", false, "Hide events that have already ended")
}

// filter builds the event filter described by the flags
func (o *listOptions) filter(now time.Time) (*filter.Filter, error) {
	f := filter.NewFilter()
	if o.dates != "" {
		from, to, err := filter.ParseDateRange(o.dates, now)
		if err != nil {
			return nil, fmt.Errorf("invalid --dates: %w", err)
		}
		f.DateFrom, f.DateTo = &from, &to
	}
	f.Titles = o.titles
	f.Locations = o.locations
	f.Owner = o.owner
	f.WeekendsOnly = o.weekends
	f.UpcomingOnly = o.upcoming
	f.Now = now
	return f, nil
}

// sortOrder returns the flag value, falling back to the configured default
func (a *app) sortOrder(flag string) (SortOrder, error) {
	key := flag
	if key == "" {
		key = a.cfg.Sort
	}
	switch SortOrder(key) {
	case SortNone, SortByCreated, SortByStart, SortByTitle, SortByLocation:
		return SortOrder(key), nil
	}
	return "", fmt.Errorf("invalid --sort %q (use created, start, title or location)", key)
}

// loadFiltered loads scope into the store and returns the filtered, sorted
// events together with a description of the filter
func (a *app) loadFiltered(cmd *cobra.Command, scope store.Scope, opts *listOptions) ([]event.Event, string, error) {
	order, err := a.sortOrder(opts.sort)
	if err != nil {
		return nil, "", err
	}
	f, err := opts.filter(a.now())
	if err != nil {
		return nil, "", err
	}

	if err := a.store.Load(cmd.Context(), scope); err != nil {
		return nil, "", err
	}

	events := f.Apply(a.store.Events())
	sortEvents(events, order)

	desc := ""
	if !f.IsEmpty() {
		desc = f.String()
	}
	return events, desc, nil
}

func (a *app) newListCmd() *cobra.Command {
	var opts listOptions
	var mine bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events",
		Long: `List every event on the service, newest first.

Examples:
  forrev list --upcoming --sort start
  forrev list --dates "Mar 1-15" --location park
  forrev list --mine`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope := store.All()
			if mine {
				if err := a.requireAuth(cmd.Context()); err != nil {
					return err
				}
				scope = store.AuthoredBy(a.gate.Username())
			}

			events, desc, err := a.loadFiltered(cmd, scope, &opts)
			if err != nil {
				return err
			}
			return WriteList(a.out, &ListResult{
				Scope:      scope.String(),
				Filter:     desc,
				Events:     events,
				EventCount: len(events),
			}, a.outputFormat())
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&mine, "mine", false, "Only events you created")
	return cmd
}

func (a *app) newProfileCmd() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your account and the events you created",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}

			username := a.gate.Username()
			events, desc, err := a.loadFiltered(cmd, store.AuthoredBy(username), &opts)
			if err != nil {
				return err
			}

			result := &ListResult{
				Scope:      store.AuthoredBy(username).String(),
				Filter:     desc,
				Events:     events,
				EventCount: len(events),
			}
			if a.outputFormat() == FormatJSON {
				return writeJSON(a.out, struct {
					*SessionResult
					*ListResult
				}{newSessionResult(a.gate.State(), a.client.BaseURL()), result})
			}

			if err := WriteSession(a.out, newSessionResult(a.gate.State(), a.client.BaseURL()), FormatText); err != nil {
				return err
			}
			fmt.Fprintln(a.out)
			return WriteList(a.out, result, FormatText)
		},
	}

	opts.register(cmd)
	return cmd
}

func (a *app) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEventID(args[0])
			if err != nil {
				return err
			}

			a.gate.Resolve(cmd.Context())
			evt, err := a.store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			ctrl := overlay.New(a.store, a.gate)
			ctrl.OpenDetail(evt)
			return WriteDetail(a.out, newDetailResult(evt, ctrl.Affordances()), a.outputFormat())
		},
	}
}

// draftFlags are the event fields accepted by create and edit
type draftFlags struct {
	title       string
	description string
	location    string
	start       string
	end         string
}

func (d *draftFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&d.title, "title", "t", "", "Title (up to 20 characters)")
	flags.StringVarP(&d.description, "description", "d", "", "Description (up to 100 characters)")
	flags.StringVarP(&d.location, "location", "l", "", "Location (up to 30 characters)")
	flags.StringVar(&d.start, "start", "", `Start time, e.g. "2026-03-14T18:00"`)
	flags.StringVar(&d.end, "end", "", `End time, e.g. "2026-03-14T21:00"`)
}

// apply overlays the flags that were set onto base
func (d *draftFlags) apply(cmd *cobra.Command, base event.Draft) (event.Draft, error) {
	flags := cmd.Flags()
	if flags.Changed("title") {
		base.Title = d.title
	}
	if flags.Changed("description") {
		base.Description = d.description
	}
	if flags.Changed("location") {
		base.Location = d.location
	}
	if flags.Changed("start") {
		t, err := event.ParseTime(d.start, time.Local)
		if err != nil {
			return base, &event.ValidationError{Field: "start_time", Message: err.Error()}
		}
		base.StartTime = t
	}
	if flags.Changed("end") {
		t, err := event.ParseTime(d.end, time.Local)
		if err != nil {
			return base, &event.ValidationError{Field: "end_time", Message: err.Error()}
		}
		base.EndTime = t
	}
	return base, nil
}

func (a *app) newCreateCmd() *cobra.Command {
	var fields draftFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event",
		Long: `Create an event. Every field is required.

Example:
  forrev create -t "Board games" -d "Bring a game" -l "Library" \
    --start 2026-03-14T18:00 --end 2026-03-14T21:00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}

			draft, err := fields.apply(cmd, event.Draft{})
			if err != nil {
				return err
			}

			ctrl := overlay.New(a.store, a.gate)
			ctrl.OpenCreate()
			created, err := ctrl.SubmitCreate(cmd.Context(), draft)
			if err != nil {
				return err
			}

			if a.outputFormat() == FormatText {
				fmt.Fprintln(a.out, "Created:")
			}
			return WriteDetail(a.out, newDetailResult(created, overlay.Affordances{Edit: true, Delete: true}), a.outputFormat())
		},
	}

	fields.register(cmd)
	return cmd
}

func (a *app) newEditCmd() *cobra.Command {
	var fields draftFlags

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit an event you created",
		Long: `Edit an event you created. Fields you do not pass keep their current value.

Example:
  forrev edit 42 --location "Town hall"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEventID(args[0])
			if err != nil {
				return err
			}
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}

			ctrl, evt, err := a.openDetail(cmd, id)
			if err != nil {
				return err
			}
			if err := ctrl.OpenEdit(); err != nil {
				return err
			}

			draft, err := fields.apply(cmd, event.DraftFrom(evt))
			if err != nil {
				return err
			}

			updated, err := ctrl.SubmitEdit(cmd.Context(), draft)
			if err != nil {
				return err
			}

			if a.outputFormat() == FormatText {
				fmt.Fprintln(a.out, "Updated:")
			}
			return WriteDetail(a.out, newDetailResult(updated, overlay.Affordances{Edit: true, Delete: true}), a.outputFormat())
		},
	}

	fields.register(cmd)
	return cmd
}

func (a *app) newDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an event you created",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEventID(args[0])
			if err != nil {
				return err
			}
			if err := a.requireAuth(cmd.Context()); err != nil {
				return err
			}

			ctrl, _, err := a.openDetail(cmd, id)
			if err != nil {
				return err
			}

			issued, err := ctrl.Delete(cmd.Context(), func(evt event.Event) bool {
				return yes || a.confirm(fmt.Sprintf("Delete %q?", evt.Title))
			})
			if err != nil {
				return err
			}
			if !issued {
				fmt.Fprintln(a.out, "Cancelled.")
				return nil
			}

			ctrl.Wait()
			if failed := failedDelete(a.notices.Drain(), id); failed != nil {
				return &reportedError{err: failed}
			}

			if a.outputFormat() == FormatJSON {
				return writeJSON(a.out, map[string]interface{}{"deleted": id})
			}
			fmt.Fprintf(a.out, "Deleted event %d.\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func (a *app) newExportCmd() *cobra.Command {
	var opts listOptions
	var mine bool
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export events as an iCalendar (.ics) file",
		Long: `Export events as iCalendar so they can be imported into a calendar app.
Writes to stdout unless --out is given. Accepts the same filters as list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope := store.All()
			if mine {
				if err := a.requireAuth(cmd.Context()); err != nil {
					return err
				}
				scope = store.AuthoredBy(a.gate.Username())
			}

			events, _, err := a.loadFiltered(cmd, scope, &opts)
			if err != nil {
				return err
			}

			calOpts := calendar.Options{Domain: calendar.DomainFor(a.client.BaseURL()), Now: a.now()}
			if out == "" {
				return calendar.Write(a.out, events, calOpts)
			}

			if err := os.WriteFile(out, []byte(calendar.GenerateICS(events, calOpts)), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintf(a.errOut, "Exported %d events to %s\n", len(events), out)
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&mine, "mine", false, "Only events you created")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	return cmd
}

// openDetail fetches the canonical event and opens it in a new controller
func (a *app) openDetail(cmd *cobra.Command, id int) (*overlay.Controller, event.Event, error) {
	evt, err := a.store.Get(cmd.Context(), id)
	if err != nil {
		return nil, event.Event{}, err
	}
	ctrl := overlay.New(a.store, a.gate)
	ctrl.OpenDetail(evt)
	return ctrl, evt, nil
}

// failedDelete returns the error of the delete notice for id, if any
func failedDelete(notices []notifier.Notice, id int) error {
	for _, n := range notices {
		if n.Op == "delete" && n.EventID == id {
			return n.Err
		}
	}
	return nil
}

func parseEventID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil || id <= 0 {
		return 0, errors.New("event ID must be a positive number")
	}
	return id, nil
}
