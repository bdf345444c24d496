// Package repomanager wires repositories to a database handle. Repositories
// take a dbx.DBTX so the same implementation serves plain connections and
// transactions.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/sidverma/vidtube/internal/dbx"
	"github.com/sidverma/vidtube/internal/server/repositories/profiles"
	"github.com/sidverma/vidtube/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
