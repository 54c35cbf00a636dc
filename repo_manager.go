package accounts

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	TransactionManager
	Validate() error
	MustValidate()
	Users() Users
	Migrate(ctx context.Context) error
	// SerializableTx returns the options used for read-then-write
	// invariant checks. It is nil when the dialect serializes writers
	// on its own.
	SerializableTx() *sql.TxOptions
}

type mngr struct {
	db    *bun.DB
	users Users
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:    db,
		users: NewUsersRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("repository manager requires a database")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) SerializableTx() *sql.TxOptions {
	if m.db.Dialect().Name() == dialect.PG {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

// Migrate creates the tables and indexes when they do not exist.
func (m mngr) Migrate(ctx context.Context) error {
	return m.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range []any{(*User)(nil), (*Authority)(nil)} {
			if _, err := tx.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx); err != nil {
				return wrapStoreError(err, "failed to create table")
			}
		}

		if _, err := tx.NewCreateIndex().
			Model((*Authority)(nil)).
			Index("authorities_authority_idx").
			Column("authority").
			IfNotExists().
			Exec(ctx); err != nil {
			return wrapStoreError(err, "failed to create index")
		}
		return nil
	})
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
