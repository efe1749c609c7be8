package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/exersio/internal/client/client"
	"github.com/dmitrijs2005/exersio/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/exersio/internal/client/repositories/records"
	"github.com/dmitrijs2005/exersio/internal/cryptox"
	"github.com/dmitrijs2005/exersio/internal/logging"
)

// AuthService defines authentication operations for the CLI.
//
// Login needs the server; the signed-in identity is remembered in the local
// metadata so the REPL can show it while offline. Tokens live only in memory.
type AuthService interface {
	Register(ctx context.Context, email, name string, password []byte) error
	Login(ctx context.Context, email string, password []byte) error
	Logout(ctx context.Context) error
	// CurrentUser returns the remembered email, or "" when nobody signed in.
	CurrentUser(ctx context.Context) (string, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client  client.Client
	meta    metadata.Repository
	records records.Repository
	log     logging.Logger
}

func NewAuthService(c client.Client, meta metadata.Repository, rec records.Repository, log logging.Logger) AuthService {
	return &authService{client: c, meta: meta, records: rec, log: log.With("module", "auth")}
}

func (a *authService) Register(ctx context.Context, email, name string, password []byte) error {
	if len(password) < cryptox.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", cryptox.MinPasswordLength)
	}
	return a.client.Register(ctx, email, name, string(password))
}

// Login signs in and remembers the user. Offline data belonging to a
// different account is wiped first.
func (a *authService) Login(ctx context.Context, email string, password []byte) error {
	tokens, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}

	prev, err := a.meta.Get(ctx, metadata.KeyUserEmail)
	if err != nil {
		return err
	}
	if prev != nil && string(prev) != email {
		a.log.Info(ctx, "different user signed in, clearing offline data", "previous", string(prev))
		if err := a.records.ClearAll(ctx); err != nil {
			return err
		}
	}

	if err := a.meta.Set(ctx, metadata.KeyUserEmail, []byte(email)); err != nil {
		return err
	}
	if tokens.UserID != "" {
		if err := a.meta.Set(ctx, metadata.KeyUserID, []byte(tokens.UserID)); err != nil {
			return err
		}
	}
	return nil
}

// Logout forgets the tokens and wipes the offline data.
func (a *authService) Logout(ctx context.Context) error {
	a.client.Logout()
	return a.records.ClearAll(ctx)
}

func (a *authService) CurrentUser(ctx context.Context) (string, error) {
	v, err := a.meta.Get(ctx, metadata.KeyUserEmail)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
