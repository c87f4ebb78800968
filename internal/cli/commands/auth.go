package commands

import (
	"context"
	"errors"
	"fmt"

	fsrepo "NoteKeeper/internal/cli/repo/fs"
	"NoteKeeper/internal/cli/service"
	"NoteKeeper/internal/config"
)

func authService(cfg *config.Config) service.AuthService {
	return service.NewAuth(cfg.ServerURL, fsrepo.AuthFSStore{})
}

type loginCmd struct{}

func (loginCmd) Name() string        { return "login" }
func (loginCmd) Description() string { return "Login and store auth cookie" }
func (loginCmd) Usage() string       { return "login <login> <password>" }

func (loginCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	if err := authService(cfg).Login(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Logged in successfully")
	return nil
}

type registerCmd struct{}

func (registerCmd) Name() string        { return "register" }
func (registerCmd) Description() string { return "Create an account and log in" }
func (registerCmd) Usage() string       { return "register <login> <password>" }

func (registerCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	if err := authService(cfg).Register(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Registered and logged in")
	return nil
}

type logoutCmd struct{}

func (logoutCmd) Name() string        { return "logout" }
func (logoutCmd) Description() string { return "Forget the stored auth token" }
func (logoutCmd) Usage() string       { return "logout" }

func (logoutCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	if err := authService(cfg).Logout(); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Logged out")
	return nil
}

type statusResponse struct {
	Result string `json:"result"`
}

type statusCmd struct{}

func (statusCmd) Name() string        { return "status" }
func (statusCmd) Description() string { return "Check authorization on the server" }
func (statusCmd) Usage() string       { return "status" }

func (statusCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	token, _ := (fsrepo.AuthFSStore{}).Load()
	var sr statusResponse
	if err := callPlain(ctx, cfg.ServerURL+"/api/user/test", token, &sr); err != nil {
		return err
	}
	if user, err := authService(cfg).CurrentUser(); err == nil && user != "" {
		fmt.Fprintf(Out, "Status: %s (%s)\n", sr.Result, user)
		return nil
	}
	fmt.Fprintln(Out, "Status:", sr.Result)
	return nil
}

// errNotLoggedIn is returned by commands that need a stored token.
var errNotLoggedIn = errors.New("not logged in: run login or register first")

func init() {
	RegisterCmd(loginCmd{})
	RegisterCmd(registerCmd{})
	RegisterCmd(logoutCmd{})
	RegisterCmd(statusCmd{})
}
