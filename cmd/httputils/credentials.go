package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"
	"golang.org/x/term"

	"github.com/kbukum/httputils/validation"
)

// passwordSource finds the password for a --user given without one: the OS
// keyring when a service is named, otherwise stdin.
type passwordSource struct {
	keyringService string
	stdin          io.Reader
	prompt         io.Writer
}

func (p passwordSource) lookup(user string) (string, error) {
	if p.keyringService != "" {
		pw, err := keyring.Get(p.keyringService, user)
		switch {
		case errors.Is(err, keyring.ErrNotFound):
			return "", fmt.Errorf("no password for %q in keyring service %q", user, p.keyringService)
		case err != nil:
			return "", fmt.Errorf("keyring: %w", err)
		}
		return pw, nil
	}
	return p.read(user)
}

// read takes the password from the terminal without echo, or the first line
// of stdin when it is not a terminal.
func (p passwordSource) read(user string) (string, error) {
	if p.stdin == nil {
		return "", errors.New("no password source")
	}
	if f, ok := p.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // file descriptors fit in int
		if p.prompt != nil {
			fmt.Fprintf(p.prompt, "Password for %s: ", user)
			defer fmt.Fprintln(p.prompt)
		}
		pw, err := term.ReadPassword(int(f.Fd())) //nolint:gosec // file descriptors fit in int
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(p.stdin).ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// credentials resolves --user in the "user[:password]" form.
func credentials(raw string, src passwordSource) (user, password string, err error) {
	user, password, ok := strings.Cut(raw, ":")
	if ok {
		return user, password, nil
	}
	password, err = src.lookup(user)
	return user, password, err
}

type keyringOptions struct {
	service string
	user    string
}

func (o *keyringOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.service, "service", "", "keyring service name, usually the API host")
	cmd.Flags().StringVar(&o.user, "user", "", "user name")
	_ = cmd.MarkFlagRequired("service")
	_ = cmd.MarkFlagRequired("user")
}

func newKeyringCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyring",
		Short: "Store or delete a basic auth password in the OS keyring",
		Long: `Passwords stored here are used by "request --user NAME --keyring SERVICE"
so they never appear on the command line or in shell history.`,
	}
	cmd.AddCommand(newKeyringSetCommand(), newKeyringDeleteCommand())
	return cmd
}

func newKeyringSetCommand() *cobra.Command {
	opts := &keyringOptions{}
	cmd := &cobra.Command{
		Use:     "set",
		Short:   "Store a password read from the terminal or stdin",
		Example: "  httputils keyring set --service api.example.com --user alice",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src := passwordSource{stdin: cmd.InOrStdin(), prompt: cmd.ErrOrStderr()}
			pw, err := src.read(opts.user)
			if err != nil {
				return err
			}
			if err := validation.New().NotEmpty("password", pw).Err(); err != nil {
				return err
			}
			if err := keyring.Set(opts.service, opts.user, pw); err != nil {
				return fmt.Errorf("keyring: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored password for %s in %s\n", opts.user, opts.service)
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}

func newKeyringDeleteCommand() *cobra.Command {
	opts := &keyringOptions{}
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a stored password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := keyring.Delete(opts.service, opts.user); err != nil {
				if errors.Is(err, keyring.ErrNotFound) {
					return fmt.Errorf("no password for %q in keyring service %q", opts.user, opts.service)
				}
				return fmt.Errorf("keyring: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted password for %s from %s\n", opts.user, opts.service)
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}
