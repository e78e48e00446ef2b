package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduka/campus-auth/pkg/authclient"
	"github.com/eduka/campus-auth/pkg/guard"
	"github.com/eduka/campus-auth/pkg/notify"
	"github.com/eduka/campus-auth/pkg/session"
	"github.com/eduka/campus-auth/pkg/storage"
)

type app struct {
	cfg      config
	out      io.Writer
	log      zerolog.Logger
	sessions *session.Manager
	guard    *guard.Guard
	router   *guard.RoleRouter
	notes    *notify.Store
}

func newApp(cfg config, store storage.Store, out io.Writer, log zerolog.Logger) *app {
	return newAppWithBackend(cfg, authclient.New(cfg.API, log), store, out, log)
}

func newAppWithBackend(cfg config, backend session.Backend, store storage.Store, out io.Writer, log zerolog.Logger) *app {
	sessions := session.New(backend, store, log.With().Str("component", "session").Logger())
	router := guard.NewRoleRouter(nil, log.With().Str("component", "router").Logger())
	notes := notify.New(store, log.With().Str("component", "notify").Logger(),
		notify.WithNotifier(terminalAlert{w: out, enabled: cfg.Alerts}))
	return &app{
		cfg:      cfg,
		out:      out,
		log:      log,
		sessions: sessions,
		guard:    guard.New(sessions, router),
		router:   router,
		notes:    notes,
	}
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usagef("missing command")
	}
	a.sessions.Restore(ctx)
	a.notes.Load(ctx)

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "logout":
		a.sessions.Logout(ctx)
		fmt.Fprintln(a.out, "logged out")
		return nil
	case "whoami":
		return a.whoami(ctx, rest)
	case "open":
		return a.open(rest)
	case "accounts":
		return a.accounts(ctx, rest)
	case "notify":
		return a.notify(ctx, rest)
	default:
		return usagef("unknown command %q", cmd)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	identifier := fs.String("u", "", "username or e-mail")
	password := fs.String("p", "", "password (or EDUKA_PASSWORD)")
	remember := fs.Bool("remember", false, "add to saved accounts")
	if err := fs.Parse(args); err != nil {
		return usagef("login: %v", err)
	}
	if *identifier == "" {
		return usagef("login: -u is required")
	}
	pw := *password
	if pw == "" {
		pw = a.cfg.Password
	}
	if pw == "" {
		return usagef("login: password required via -p or EDUKA_PASSWORD")
	}

	sess, err := a.sessions.Login(ctx, *identifier, pw, *remember)
	if err != nil {
		return loginMessage(err)
	}
	a.notes.Add(ctx, notify.Notification{
		Title:    "Signed in",
		Message:  "Welcome back, " + sess.User.Username,
		Category: notify.Success,
	})
	fmt.Fprintf(a.out, "logged in as %s (%s)\n", sess.User.Username, sess.User.Role)
	fmt.Fprintf(a.out, "landing: %s\n", a.router.Route(sess.User.Role, sess.User.ID))
	return nil
}

// loginMessage turns a login failure into the text shown to the user.
func loginMessage(err error) error {
	switch authclient.KindOf(err) {
	case authclient.KindInvalidCredentials:
		return fmt.Errorf("invalid credentials")
	case authclient.KindNetworkUnavailable:
		return fmt.Errorf("cannot reach the user service, check your connection")
	case authclient.KindServerError:
		return fmt.Errorf("login failed, please try again")
	default:
		return err
	}
}

func (a *app) whoami(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	revalidate := fs.Bool("revalidate", false, "confirm the session with the service")
	if err := fs.Parse(args); err != nil {
		return usagef("whoami: %v", err)
	}

	if *revalidate {
		if err := a.sessions.Revalidate(ctx); err != nil {
			a.log.Debug().Err(err).Msg("revalidation failed")
			if authclient.KindOf(err) == authclient.KindNetworkUnavailable {
				fmt.Fprintln(a.out, "warning: service unreachable, showing cached session")
			}
		}
	}

	user := a.sessions.CurrentUser()
	if user == nil {
		fmt.Fprintln(a.out, "not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s> role=%s id=%s\n", user.Username, user.Email, user.Role, user.ID)
	return nil
}

func (a *app) open(args []string) error {
	if len(args) != 1 {
		return usagef("open: expected exactly one path")
	}
	d := a.guard.Navigate(args[0], guard.DefaultTable())
	fmt.Fprintf(a.out, "%s %s\n", d.Outcome, d.Target)
	return nil
}

func (a *app) accounts(ctx context.Context, args []string) error {
	if len(args) == 2 && args[0] == "remove" {
		return a.sessions.RemoveSavedAccount(ctx, args[1])
	}
	if len(args) != 0 {
		return usagef("accounts: unexpected arguments")
	}
	saved, err := a.sessions.SavedAccounts(ctx)
	if err != nil {
		return err
	}
	if len(saved) == 0 {
		fmt.Fprintln(a.out, "no saved accounts")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tEMAIL\tROLE")
	for _, acc := range saved {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", acc.User.Username, acc.User.Email, acc.User.Role)
	}
	return tw.Flush()
}

func (a *app) notify(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usagef("notify: missing subcommand")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "add":
		fs := flag.NewFlagSet("notify add", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		title := fs.String("title", "", "title")
		message := fs.String("message", "", "message")
		kind := fs.String("type", "info", "success|error|warning|info")
		if err := fs.Parse(rest); err != nil {
			return usagef("notify add: %v", err)
		}
		category, err := notify.ParseCategory(*kind)
		if err != nil {
			return usagef("notify add: %v", err)
		}
		n := a.notes.Add(ctx, notify.Notification{Title: *title, Message: *message, Category: category})
		fmt.Fprintln(a.out, n.ID)
	case "list":
		a.printNotifications()
	case "read":
		if len(rest) != 1 {
			return usagef("notify read: expected an id")
		}
		if !a.notes.MarkRead(ctx, rest[0]) {
			return fmt.Errorf("notification %s not found", rest[0])
		}
	case "read-all":
		a.notes.MarkAllRead(ctx)
	case "delete":
		if len(rest) != 1 {
			return usagef("notify delete: expected an id")
		}
		if !a.notes.Delete(ctx, rest[0]) {
			return fmt.Errorf("notification %s not found", rest[0])
		}
	case "clear":
		a.notes.Clear(ctx)
	default:
		return usagef("notify: unknown subcommand %q", sub)
	}
	return nil
}

func (a *app) printNotifications() {
	items := a.notes.List()
	fmt.Fprintf(a.out, "%d unread\n", a.notes.UnreadCount())
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, n := range items {
		mark := " "
		if !n.Read {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, n.ID, n.Timestamp.Local().Format(time.DateTime), n.Category, n.Title)
	}
	_ = tw.Flush()
}

// terminalAlert rings the terminal bell and echoes the title.
type terminalAlert struct {
	w       io.Writer
	enabled bool
}

func (t terminalAlert) Permitted() bool { return t.enabled }

func (t terminalAlert) Notify(_ context.Context, n notify.Notification) error {
	_, err := fmt.Fprintf(t.w, "\a[%s] %s\n", n.Category, n.Title)
	return err
}
