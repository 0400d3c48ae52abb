package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompt asks for a line of input, returning def when the answer is blank
func (a *app) prompt(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(a.errOut, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(a.errOut, "%s: ", label)
	}

	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("no input for %s", strings.ToLower(label))
		}
		return "", err
	}

	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return def, nil
	}
	return line, nil
}

// confirm asks a yes/no question; anything but y or yes is no
func (a *app) confirm(question string) bool {
	answer, err := a.prompt(question+" (y/N)", "")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// promptSecret asks for a password without echoing it when stdin is a
// terminal, and reads a plain line otherwise
func (a *app) promptSecret(label string) (string, error) {
	f, ok := a.rawIn.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return a.prompt(label, "")
	}

	fmt.Fprintf(a.errOut, "%s: ", label)
	secret, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(a.errOut)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return string(secret), nil
}
