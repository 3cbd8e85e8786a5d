package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/castctl/castctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin authenticates against the backend and persists the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	password := cmd.String("password")

	if password == "" {
		r.writePlain("Password: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("%w: failed to read password", shared.ErrMissingArgument)
		}
		password = strings.TrimSpace(line)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", shared.ErrMissingArgument)
	}

	r.logger.Info("logging in", "username", username, "server", r.api.BaseURL())

	user, err := r.session.Login(ctx, username, password)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Logged in as %s (%s)\n", user.Username, user.Role)
}

// AuthLogout ends the session locally and notifies the backend best effort.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if r.session == nil || !r.session.IsAuthenticated() {
		return r.writePlain("Not logged in\n")
	}

	if err := r.session.Logout(ctx); err != nil {
		return err
	}

	return r.writePlain("✓ Logged out\n")
}

// AuthWhoAmI fetches the authenticated user from the backend.
func (r *Runner) AuthWhoAmI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	user, err := r.session.RefreshUser(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	t := r.newTable("ID", "Username", "Role", "Active")
	t.AppendRow([]any{user.ID, user.Username, user.Role, user.IsActive})
	t.Render()
	return nil
}

// AuthStatus reports local session state without calling the backend.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.session == nil || !r.session.IsAuthenticated() {
		return r.writePlain("✗ Not logged in\n")
	}

	user := r.session.CurrentUser()
	if user == nil {
		return r.writePlain("✓ Session token present\n")
	}

	r.writePlain("✓ Logged in as %s (%s)\n", user.Username, user.Role)
	r.writePlain("Server: %s\n", r.api.BaseURL())
	return nil
}
