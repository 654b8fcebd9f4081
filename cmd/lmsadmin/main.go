// lmsadmin is a terminal console for LMS administrators. It signs in
// against the API, lists users, courses, reports and tickets with the
// actions each row allows, and applies workflow actions.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/afzalm/cclms/internal/guard"
	"github.com/afzalm/cclms/internal/workflow"
	"github.com/afzalm/cclms/pkg/client"
)

type app struct {
	api *client.Client
	nav *client.Navigator
	in  *bufio.Reader
	out io.Writer
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var server, sessionFile string

	flagSet := pflag.NewFlagSet("lmsadmin", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&server, "server", envOr("LMS_SERVER", "http://localhost:8080"), "API base URL")
	flagSet.StringVar(&sessionFile, "session-file", defaultSessionFile(), "where the session is stored")
	flagSet.Usage = func() { printHelp(flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(flagSet)
		return nil
	}

	store := client.NewFileStore(sessionFile)
	a := &app{
		api: client.New(server, store),
		nav: client.NewNavigator(store),
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd, cmdArgs := rest[0], rest[1:]
	var err error
	switch cmd {
	case "login":
		err = a.login(ctx, cmdArgs)
	case "logout":
		err = a.logout()
	case "users":
		err = a.users(ctx, cmdArgs)
	case "courses":
		err = a.courses(ctx, cmdArgs)
	case "reports":
		err = a.reports(ctx, cmdArgs)
	case "tickets":
		err = a.tickets(ctx, cmdArgs)
	case "overview":
		err = a.overview(ctx)
	case "act":
		err = a.act(ctx, cmdArgs)
	default:
		return fmt.Errorf("unknown command %q (see --help)", cmd)
	}
	return a.explain(err)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `lmsadmin: LMS administration console.

Usage:
  lmsadmin [flags] <command> [args]

Commands:
  login     --email <email> [--password <password>]
  logout
  users     [--search s] [--filter role|status] [--page n] [--limit n]
  courses   [--search s] [--status s] [--page n] [--limit n]
  reports   [--search s] [--status s] [--content-type t] [--severity s] [--page n] [--limit n]
  tickets   [--search s] [--status s] [--priority p] [--category c] [--assigned-to me|unassigned|<id>]
  overview
  act <user|course|report|ticket> <id> <action> [--reason text] [--yes]

Flags:
%s`, flagSet.FlagUsages())
}

// explain turns navigation-worthy errors into instructions.
func (a *app) explain(err error) error {
	if err == nil {
		return nil
	}
	d, ok := a.nav.Recover(err)
	if !ok {
		return err
	}
	switch d.Outcome {
	case guard.RedirectLogin:
		return fmt.Errorf("%w: run `lmsadmin login`", err)
	case guard.RedirectHome:
		return fmt.Errorf("not allowed for your role (home is %s)", d.Location)
	}
	return err
}

// requireAdmin checks the stored session can open the admin console.
func (a *app) requireAdmin() error {
	d, err := a.nav.Enter(guard.AdminHome)
	if err != nil {
		return err
	}
	switch d.Outcome {
	case guard.RedirectLogin:
		return fmt.Errorf("%w: run `lmsadmin login`", client.ErrNotSignedIn)
	case guard.RedirectHome:
		return fmt.Errorf("this console is for admins (your home is %s)", d.Location)
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	var email, password string
	fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
	fs.StringVar(&email, "email", "", "account email")
	fs.StringVar(&password, "password", os.Getenv("LMS_PASSWORD"), "account password (or LMS_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if email == "" {
		return errors.New("--email is required")
	}
	if password == "" {
		fmt.Fprint(a.out, "Password: ")
		line, err := a.in.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}

	s, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", s.User.Email, s.User.Role)
	return nil
}

func (a *app) logout() error {
	done, err := a.api.Logout()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	// Give the server call a moment before the process exits.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
	return nil
}

type listFlags struct {
	fs      *pflag.FlagSet
	page    int
	limit   int
	filters map[string]*string
}

func newListFlags(name string, filters ...string) *listFlags {
	lf := &listFlags{fs: pflag.NewFlagSet(name, pflag.ContinueOnError), filters: map[string]*string{}}
	lf.fs.IntVar(&lf.page, "page", 1, "page number")
	lf.fs.IntVar(&lf.limit, "limit", 10, "rows per page")
	lf.filters["search"] = lf.fs.String("search", "", "free-text search")
	for _, f := range filters {
		lf.filters[f] = lf.fs.String(flagName(f), "", f+" filter")
	}
	return lf
}

// flagName maps query parameter names onto kebab-case flags.
func flagName(param string) string {
	var b strings.Builder
	for _, r := range param {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('-')
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (lf *listFlags) parse(args []string) (client.Filters, error) {
	if err := lf.fs.Parse(args); err != nil {
		return nil, err
	}
	out := client.Filters{}
	for k, v := range lf.filters {
		out[k] = *v
	}
	return out, nil
}

func legal(entity workflow.Entity, status string) string {
	actions := workflow.LegalActions(entity, status, workflow.RoleAdmin)
	if len(actions) == 0 {
		return "-"
	}
	names := make([]string, len(actions))
	for i, act := range actions {
		names[i] = string(act)
	}
	return strings.Join(names, ",")
}

func (a *app) table(header string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	return tw
}

func (a *app) footer(w interface{ Flush() error }, page, totalPages int, total int64) error {
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "page %d of %d (%d total)\n", page, totalPages, total)
	return nil
}

func (a *app) users(ctx context.Context, args []string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	lf := newListFlags("users", "filter")
	filters, err := lf.parse(args)
	if err != nil {
		return err
	}
	page, err := a.api.ListUsers(ctx, lf.page, lf.limit, filters)
	if err != nil {
		return err
	}
	tw := a.table("ID\tEMAIL\tNAME\tROLE\tSTATUS\tACTIONS")
	for _, u := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role, u.Status, legal(workflow.EntityUser, u.Status))
	}
	return a.footer(tw, page.Window.Page, page.Window.TotalPages, page.Window.Total)
}

func (a *app) courses(ctx context.Context, args []string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	lf := newListFlags("courses", "status")
	filters, err := lf.parse(args)
	if err != nil {
		return err
	}
	page, err := a.api.ListCourses(ctx, lf.page, lf.limit, filters)
	if err != nil {
		return err
	}
	tw := a.table("ID\tTITLE\tSTATUS\tENROLLED\tACTIONS")
	for _, c := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", c.ID, c.Title, c.Status, c.EnrollmentCount, legal(workflow.EntityCourse, c.Status))
	}
	return a.footer(tw, page.Window.Page, page.Window.TotalPages, page.Window.Total)
}

func (a *app) reports(ctx context.Context, args []string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	lf := newListFlags("reports", "status", "contentType", "severity")
	filters, err := lf.parse(args)
	if err != nil {
		return err
	}
	page, err := a.api.ListReports(ctx, lf.page, lf.limit, filters)
	if err != nil {
		return err
	}
	tw := a.table("ID\tCONTENT\tSEVERITY\tSTATUS\tREASON\tACTIONS")
	for _, r := range page.Items {
		fmt.Fprintf(tw, "%s\t%s/%s\t%s\t%s\t%s\t%s\n", r.ID, r.ContentType, r.ContentID, r.Severity, r.Status, truncate(r.Reason, 40), legal(workflow.EntityReport, r.Status))
	}
	return a.footer(tw, page.Window.Page, page.Window.TotalPages, page.Window.Total)
}

func (a *app) tickets(ctx context.Context, args []string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	lf := newListFlags("tickets", "status", "priority", "category", "assignedTo")
	filters, err := lf.parse(args)
	if err != nil {
		return err
	}
	page, err := a.api.ListTickets(ctx, lf.page, lf.limit, filters)
	if err != nil {
		return err
	}
	tw := a.table("ID\tSUBJECT\tPRIORITY\tSTATUS\tASSIGNEE\tACTIONS")
	for _, t := range page.Items {
		assignee := "-"
		if t.AssigneeID != nil {
			assignee = t.AssigneeID.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, truncate(t.Subject, 40), t.Priority, t.Status, assignee, legal(workflow.EntityTicket, t.Status))
	}
	return a.footer(tw, page.Window.Page, page.Window.TotalPages, page.Window.Total)
}

func (a *app) overview(ctx context.Context) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	o, err := a.api.Overview(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Users:   %d total, by role %v, by status %v\n", o.Users.Total, o.Users.ByRole, o.Users.ByStatus)
	fmt.Fprintf(a.out, "Courses: %d total, by status %v, %d enrollments\n", o.Courses.Total, o.Courses.ByStatus, o.Courses.TotalEnrollments)
	fmt.Fprintf(a.out, "Reports: %d open of %d\n", o.Reports.Open, o.Reports.Total)
	fmt.Fprintf(a.out, "Tickets: %d open of %d\n", o.Tickets.Open, o.Tickets.Total)
	return nil
}

func (a *app) act(ctx context.Context, args []string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	var (
		reason, contentType, contentID, actionType, notes string
		yes, internal                                     bool
	)
	fs := pflag.NewFlagSet("act", pflag.ContinueOnError)
	fs.StringVar(&reason, "reason", "", "reason, resolution or message text")
	fs.BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	fs.StringVar(&contentType, "content-type", "", "take_action: reported content type")
	fs.StringVar(&contentID, "content-id", "", "take_action: reported content id")
	fs.StringVar(&actionType, "action-type", "", "take_action: WARN, REMOVE_CONTENT, FLAG_COURSE or SUSPEND_USER")
	fs.StringVar(&notes, "notes", "", "take_action: internal notes")
	fs.BoolVar(&internal, "internal", false, "respond: internal note hidden from the ticket owner")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pos := fs.Args()
	if len(pos) != 3 {
		return errors.New("usage: act <entity> <id> <action>")
	}
	id, err := uuid.Parse(pos[1])
	if err != nil {
		return fmt.Errorf("invalid id %q", pos[1])
	}

	cmd := client.Command{
		Entity:      workflow.Entity(strings.ToLower(pos[0])),
		Action:      workflow.Action(strings.ToLower(pos[2])),
		TargetID:    id,
		Reason:      reason,
		ContentType: strings.ToUpper(contentType),
		ContentID:   contentID,
		ActionType:  workflow.ContentAction(strings.ToUpper(actionType)),
		Notes:       notes,
		Internal:    internal,
	}
	confirm := client.ConfirmFunc(func(_ context.Context, c client.Command) bool {
		if yes {
			return true
		}
		fmt.Fprintf(a.out, "%s %s %s? [y/N] ", c.Action, c.Entity, c.TargetID)
		line, _ := a.in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	})

	res, err := a.api.Execute(ctx, cmd, confirm)
	switch {
	case errors.Is(err, client.ErrNotConfirmed):
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	case errors.Is(err, client.ErrReasonRequired):
		return fmt.Errorf("%s needs --reason", cmd.Action)
	case err != nil:
		return err
	}
	if res.Status != "" {
		fmt.Fprintf(a.out, "%s %s: now %s\n", cmd.Entity, id, res.Status)
	} else {
		fmt.Fprintf(a.out, "%s %s: %s done\n", cmd.Entity, id, cmd.Action)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".lmsadmin-session.json"
	}
	return filepath.Join(dir, "lmsadmin", "session.json")
}
