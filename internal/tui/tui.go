package tui

import (
	"context"
	"errors"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/forrev/forrev-cli/internal/session"
	"github.com/forrev/forrev-cli/internal/store"
)

// Options configures the browser
type Options struct {
	Gate   *session.Gate
	Remote store.Remote

	// BaseURL is shown in the header
	BaseURL string

	Input  io.Reader
	Output io.Writer
}

// Run starts the browser and blocks until the user quits or ctx is done
func Run(ctx context.Context, opts Options) error {
	m := newModel(ctx, opts)

	progOpts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	p := tea.NewProgram(m, progOpts...)
	m.bridge.attach(p.Send)
	defer m.bridge.attach(nil)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// bridge delivers messages from store callbacks, which run outside the
// event loop, to the running program
type bridge struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (b *bridge) attach(send func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = send
}

func (b *bridge) deliver(msg tea.Msg) {
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send != nil {
		send(msg)
	}
}
