package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/exersio/internal/dbx"
	"github.com/dmitrijs2005/exersio/internal/server/repositories/clubs"
	"github.com/dmitrijs2005/exersio/internal/server/repositories/exercises"
	"github.com/dmitrijs2005/exersio/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/exersio/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/exersio/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so services can use
// the same code inside and outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Exercises(db dbx.DBTX) exercises.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Clubs(db dbx.DBTX) clubs.Repository
}
