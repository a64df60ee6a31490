package accounts

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// OpenSQLite opens a bun DB over sqlite. Use "file::memory:?cache=shared"
// for an in-memory store, a file path for an embedded one.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// CreateAccountsSchema creates the accounts table if it does not exist.
// Development and test helper; production schemas belong to migrations.
func CreateAccountsSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*Account)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}
