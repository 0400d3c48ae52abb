package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forrev/forrev-cli/internal/config"
	"github.com/forrev/forrev-cli/internal/crypto"
	"github.com/forrev/forrev-cli/internal/logger"
	"github.com/forrev/forrev-cli/internal/notifier"
	"github.com/forrev/forrev-cli/internal/remote"
	"github.com/forrev/forrev-cli/internal/session"
	"github.com/forrev/forrev-cli/internal/storage"
	"github.com/forrev/forrev-cli/internal/store"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitAuth    = 2
)

// errLoginRequired is returned by commands that need a logged-in user
var errLoginRequired = &remote.AuthError{Status: 401, Message: "You need to log in first. Run 'forrev login'."}

// reportedError wraps a failure that was already shown to the user
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// app is the state of one invocation
type app struct {
	rawIn  io.Reader
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	// persistent flags
	configPath string
	baseURL    string
	format     string
	verbose    bool

	cfg     *config.Config
	client  *remote.Client
	storage *storage.Storage
	gate    *session.Gate
	store   *store.Store
	notices *notifier.Recorder

	// forgetSession drops the persisted session instead of saving it
	forgetSession bool
	now           func() time.Time
}

// NewRootCmd creates the root command reading from in and writing to out and
// errOut
func NewRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{
		rawIn:  in,
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
		now:    time.Now,
	}

	cmd := &cobra.Command{
		Use:   "forrev",
		Short: "Share and manage events on a forrev service",
		Long: `forrev is a terminal client for the forrev event-sharing service.
Log in, browse events, and create, edit or delete the events you own.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default ~/.config/forrev/config.yaml)")
	flags.StringVar(&a.baseURL, "base-url", "", "forrev service URL")
	flags.StringVar(&a.format, "format", "", "Output format: text or json")
	flags.BoolVar(&a.verbose, "verbose", false, "Enable debug logging and print request metrics on exit")

	cmd.AddCommand(
		a.newLoginCmd(),
		a.newLogoutCmd(),
		a.newRegisterCmd(),
		a.newWhoamiCmd(),
		a.newListCmd(),
		a.newShowCmd(),
		a.newCreateCmd(),
		a.newEditCmd(),
		a.newDeleteCmd(),
		a.newProfileCmd(),
		a.newExportCmd(),
		a.newBrowseCmd(),
	)

	return cmd
}

// setup loads configuration and builds the per-invocation client, gate and
// store
func (a *app) setup(cmd *cobra.Command, args []string) error {
	path := a.configPath
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path, ".env")
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("base-url") {
		cfg.BaseURL = a.baseURL
	}
	if cmd.Flags().Changed("format") {
		cfg.Format = a.format
	}
	if a.verbose {
		cfg.LogLevel = string(logger.LevelDebug)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	level, _ := logger.ParseLevel(cfg.LogLevel)
	logger.SetDefault(logger.New(level, a.errOut))

	st, err := storage.New(cfg.DataDir, crypto.NewEncryptor(cfg.SessionKey))
	if err != nil {
		return err
	}
	a.storage = st

	baseURL, err := remote.NormalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return err
	}

	cookies, err := st.LoadSession(baseURL)
	if err != nil {
		logger.Warn("Stored session is unreadable, continuing logged out", logger.Fields{"error": err.Error()})
		cookies = nil
	}

	client, err := remote.NewClient(remote.Options{
		BaseURL: baseURL,
		Timeout: cfg.Timeout,
		Cookies: cookies,
	})
	if err != nil {
		return err
	}
	a.client = client

	a.gate = session.NewGate(client)
	a.notices = notifier.NewRecorder()
	a.store = store.New(client, notifier.Multi(notifier.NewWriterNotifier(a.errOut), a.notices))

	return nil
}

// teardown persists the session and reports metrics
func (a *app) teardown() error {
	if a.client == nil {
		return nil
	}

	if a.forgetSession {
		if err := a.storage.ClearSession(); err != nil {
			return err
		}
	} else if err := a.storage.SaveSession(a.client.BaseURL(), a.client.Cookies()); err != nil {
		return err
	}

	if a.verbose {
		data, err := json.MarshalIndent(logger.GetMetricsSnapshot(), "", "  ")
		if err == nil {
			fmt.Fprintf(a.errOut, "Metrics:\n%s\n", data)
		}
	}
	return nil
}

// requireAuth resolves the session and fails unless a user is logged in
func (a *app) requireAuth(ctx context.Context) error {
	a.gate.Resolve(ctx)

	redirected := false
	if !a.gate.RequireAuth(func() { redirected = true }) {
		logger.Debug("Command needs a logged-in user", logger.Fields{"redirected": redirected})
		return errLoginRequired
	}
	return nil
}

// outputFormat is the format chosen by flag or configuration
func (a *app) outputFormat() OutputFormat {
	return OutputFormat(a.cfg.Format)
}

// ExitCode maps a command error to a process exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case remote.IsAuth(err):
		return ExitAuth
	}
	return ExitError
}

// Execute runs the CLI with the process streams and returns the exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx)
	if err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", remote.Message(err))
		}
	}
	return ExitCode(err)
}
