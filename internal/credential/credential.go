package credential

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// PasswordEnv is the environment variable checked before prompting.
const PasswordEnv = "F5_PASSWORD"

// ErrMissingCredential is returned when no usable credential could be acquired.
var ErrMissingCredential = errors.New("credential is required")

// Credential authenticates against the load balancer management API.
type Credential struct {
	User     string
	Password string
}

// Prompter asks the operator for a secret.
type Prompter interface {
	Password(prompt string) (string, error)
}

// LookupEnvFunc matches os.LookupEnv.
type LookupEnvFunc func(key string) (string, bool)

// Acquire returns Credential for user. The password is taken from
// PasswordEnv when set, otherwise prompter is asked for it.
func Acquire(user string, lookupEnv LookupEnvFunc, prompter Prompter) (Credential, error) {
	if user == "" {
		return Credential{}, fmt.Errorf("%w: user is not set", ErrMissingCredential)
	}

	password, ok := lookupEnv(PasswordEnv)
	if !ok {
		var err error
		password, err = prompter.Password(fmt.Sprintf("Enter the password for the F5 %s account: ", user))
		if err != nil {
			return Credential{}, fmt.Errorf("failed to read password: %w", err)
		}
	}
	if password == "" {
		return Credential{}, fmt.Errorf("%w: password is empty", ErrMissingCredential)
	}

	return Credential{User: user, Password: password}, nil
}

// TerminalPrompter reads secrets from a terminal with echo disabled.
type TerminalPrompter struct {
	in  *os.File
	out io.Writer
}

// NewTerminalPrompter returns TerminalPrompter reading stdin and
// writing prompts to stderr.
func NewTerminalPrompter() TerminalPrompter {
	return TerminalPrompter{in: os.Stdin, out: os.Stderr}
}

// Password prints prompt and reads a line without echoing it.
func (p TerminalPrompter) Password(prompt string) (string, error) {
	fd := int(p.in.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%w: stdin is not a terminal and %s is not set", ErrMissingCredential, PasswordEnv)
	}

	fmt.Fprint(p.out, prompt) //nolint:errcheck
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out) //nolint:errcheck
	if err != nil {
		return "", err
	}

	return string(secret), nil
}
