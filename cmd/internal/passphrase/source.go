package passphrase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

var (
	ErrEmpty       = errors.New("passphrase: empty passphrase")
	ErrMismatch    = errors.New("passphrase: entries do not match")
	ErrUnavailable = errors.New("passphrase: no passphrase available")
)

// FileSuffix is appended to the environment variable name to form the
// variable that points at a file holding the passphrase.
const FileSuffix = "_FILE"

// Terminal reads a secret from an interactive operator.
type Terminal interface {
	Interactive() bool
	ReadSecret(prompt string) (string, error)
}

type stdinTerminal struct {
	out io.Writer
}

func (t stdinTerminal) Interactive() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

func (t stdinTerminal) ReadSecret(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(t.out)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

// Source resolves keystore passphrases in order: the environment variable,
// the file named by the environment variable plus FileSuffix, then the
// terminal. A resolved passphrase is reused for the rest of the process.
type Source struct {
	envVar   string
	terminal Terminal

	mu     sync.Mutex
	cached string
}

// Option customises a Source.
type Option func(*Source)

// WithTerminal replaces the stdin terminal.
func WithTerminal(t Terminal) Option {
	return func(s *Source) { s.terminal = t }
}

// NewSource returns a Source reading envVar and prompting on prompt
// (stderr when nil).
func NewSource(envVar string, prompt io.Writer, opts ...Option) *Source {
	if prompt == nil {
		prompt = os.Stderr
	}
	s := &Source{envVar: strings.TrimSpace(envVar), terminal: stdinTerminal{out: prompt}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the passphrase unlocking an existing keystore.
func (s *Source) Get() (string, error) { return s.resolve(false) }

// Choose returns the passphrase for a new keystore. Typed passphrases must be
// entered twice.
func (s *Source) Choose() (string, error) { return s.resolve(true) }

func (s *Source) resolve(confirm bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != "" {
		return s.cached, nil
	}
	value, origin, err := s.lookup(confirm)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmpty, origin)
	}
	s.cached = value
	return value, nil
}

func (s *Source) lookup(confirm bool) (value, origin string, err error) {
	if s.envVar != "" {
		if v, ok := os.LookupEnv(s.envVar); ok {
			return v, s.envVar, nil
		}
		fileVar := s.envVar + FileSuffix
		if path, ok := os.LookupEnv(fileVar); ok {
			raw, err := os.ReadFile(strings.TrimSpace(path))
			if err != nil {
				return "", fileVar, fmt.Errorf("read %s: %w", fileVar, err)
			}
			return strings.TrimRight(string(raw), "\r\n"), fileVar, nil
		}
	}
	if s.terminal == nil || !s.terminal.Interactive() {
		if s.envVar == "" {
			return "", "", fmt.Errorf("%w: no terminal attached", ErrUnavailable)
		}
		return "", "", fmt.Errorf("%w: set %s or %s%s, or run interactively", ErrUnavailable, s.envVar, s.envVar, FileSuffix)
	}
	first, err := s.terminal.ReadSecret("Enter keystore passphrase: ")
	if err != nil {
		return "", "terminal", fmt.Errorf("read passphrase: %w", err)
	}
	if !confirm || strings.TrimSpace(first) == "" {
		return first, "terminal", nil
	}
	second, err := s.terminal.ReadSecret("Repeat keystore passphrase: ")
	if err != nil {
		return "", "terminal", fmt.Errorf("read passphrase: %w", err)
	}
	if first != second {
		return "", "terminal", ErrMismatch
	}
	return first, "terminal", nil
}
