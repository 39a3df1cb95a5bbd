// Package repomanager vends repositories bound to a connection or a
// transaction and runs schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/pagewatch/internal/dbx"
	"github.com/dmitrijs2005/pagewatch/internal/server/repositories/history"
	"github.com/dmitrijs2005/pagewatch/internal/server/repositories/monitors"
	"github.com/dmitrijs2005/pagewatch/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/pagewatch/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Monitors(db dbx.DBTX) monitors.Repository
	History(db dbx.DBTX) history.Repository
}
