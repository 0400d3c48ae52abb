package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/forrev/forrev-cli/internal/logger"
	"github.com/forrev/forrev-cli/internal/session"
	"github.com/forrev/forrev-cli/internal/storage"
	"github.com/forrev/forrev-cli/internal/tui"
)

func (a *app) newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse and manage events interactively",
		Long: `Open the interactive event browser.

Keys: enter opens an event, n creates one, e and d edit or delete an event you
own, m toggles between all events and yours, r refreshes, l logs in or out,
q quits. Logs go to log_file from the configuration, if set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logOut, closeLog, err := a.openLogFile()
			if err != nil {
				return err
			}
			defer closeLog()

			level, _ := logger.ParseLevel(a.cfg.LogLevel)
			previous := logger.Default()
			logger.SetDefault(logger.New(level, logOut))
			defer logger.SetDefault(previous)

			err = tui.Run(cmd.Context(), tui.Options{
				Gate:    a.gate,
				Remote:  a.client,
				BaseURL: a.client.BaseURL(),
				Input:   cmd.InOrStdin(),
				Output:  a.out,
			})

			// the session may have ended inside the browser
			if a.gate.State().Status != session.Authenticated {
				a.client.ClearCookies()
				a.forgetSession = true
			}
			return err
		},
	}
}

// openLogFile opens the configured log file for appending, or discards logs
// when none is set
func (a *app) openLogFile() (io.Writer, func(), error) {
	if a.cfg.LogFile == "" {
		return io.Discard, func() {}, nil
	}

	path, err := storage.ExpandHome(a.cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
