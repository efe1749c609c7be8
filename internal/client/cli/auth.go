package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/exersio/internal/client/services"
	"github.com/dmitrijs2005/exersio/internal/common"
)

// Register prompts for email, display name and password and creates an
// account on the server.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Register(ctx, email, name, password); err != nil {
		return err
	}

	a.printf("Success! You can login now.\n")
	return nil
}

// Login prompts for credentials and signs in. It needs the server.
func (a *App) Login(ctx context.Context) error {
	if !a.net.IsOnline() {
		return services.ErrOffline
	}

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Login(ctx, email, password); err != nil {
		return err
	}

	a.userName = email
	a.printf("Login successful\n")
	return nil
}

// Logout wipes the offline data, asking first when some of it was never
// synced.
func (a *App) Logout(ctx context.Context) error {
	st, err := a.sync.Status(ctx)
	if err != nil {
		return err
	}

	if n := st.TotalPending() + st.TotalConflicts(); n > 0 {
		ok, err := a.confirm(pluralize(n, "unsynced change") + " will be lost. Logout anyway?")
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("logout cancelled")
		}
	}

	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.userName = ""
	a.printf("Logged out\n")
	return nil
}
