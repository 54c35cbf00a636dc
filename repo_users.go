package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// UserFilter narrows a search. Nil fields are ignored.
type UserFilter struct {
	Username *string
	Email    *string
}

// Users is the identity store. Every *Tx method runs against the given
// bun.IDB so callers can compose them inside one transaction.
type Users interface {
	FindByKey(ctx context.Context, username string) (*User, error)
	FindByKeyTx(ctx context.Context, tx bun.IDB, username string) (*User, error)
	FindByKeyForUpdateTx(ctx context.Context, tx bun.IDB, username string) (*User, error)
	ExistsByUsernameTx(ctx context.Context, tx bun.IDB, username string) (bool, error)
	ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error)
	CreateTx(ctx context.Context, tx bun.IDB, user *User) error
	SaveTx(ctx context.Context, tx bun.IDB, user *User) error
	DeleteByKeyTx(ctx context.Context, tx bun.IDB, username string) error
	FindAll(ctx context.Context) ([]*User, error)
	FindAllTx(ctx context.Context, tx bun.IDB) ([]*User, error)
	Search(ctx context.Context, filter UserFilter) ([]*User, error)
	SearchTx(ctx context.Context, tx bun.IDB, filter UserFilter) ([]*User, error)
	FindAuthorityByNameAndUserTx(ctx context.Context, tx bun.IDB, username, name string) (*Authority, error)
	CountAuthorityHoldersTx(ctx context.Context, tx bun.IDB, name string) (int, error)
	AuthorityExistsTx(ctx context.Context, tx bun.IDB, name string) (bool, error)
}

type userRepository struct {
	db *bun.DB
}

// NewUsersRepository returns a bun backed identity store.
func NewUsersRepository(db *bun.DB) Users {
	return &userRepository{db: db}
}

func (r *userRepository) FindByKey(ctx context.Context, username string) (*User, error) {
	return r.FindByKeyTx(ctx, r.db, username)
}

func (r *userRepository) FindByKeyTx(ctx context.Context, tx bun.IDB, username string) (*User, error) {
	return r.findByKey(ctx, tx, username, false)
}

func (r *userRepository) FindByKeyForUpdateTx(ctx context.Context, tx bun.IDB, username string) (*User, error) {
	return r.findByKey(ctx, tx, username, true)
}

func (r *userRepository) findByKey(ctx context.Context, tx bun.IDB, username string, forUpdate bool) (*User, error) {
	username = CanonicalUsername(username)
	user := &User{}
	q := tx.NewSelect().
		Model(user).
		Relation("Authorities").
		Where("?TableAlias.username = ?", username)

	if forUpdate && tx.Dialect().Name() == dialect.PG {
		q = q.For("UPDATE")
	}

	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUsernameNotFound(username)
		}
		return nil, wrapStoreError(err, "failed to load user")
	}
	return user, nil
}

func (r *userRepository) ExistsByUsernameTx(ctx context.Context, tx bun.IDB, username string) (bool, error) {
	ok, err := tx.NewSelect().
		Model((*User)(nil)).
		Where("UPPER(?TableAlias.username) = ?", CanonicalUsername(username)).
		Exists(ctx)
	return ok, wrapStoreError(err, "failed to check username")
}

func (r *userRepository) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	ok, err := tx.NewSelect().
		Model((*User)(nil)).
		Where("LOWER(?TableAlias.email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Exists(ctx)
	return ok, wrapStoreError(err, "failed to check email")
}

func (r *userRepository) CreateTx(ctx context.Context, tx bun.IDB, user *User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
		return wrapStoreError(err, "failed to create user")
	}
	return r.syncAuthorities(ctx, tx, user)
}

func (r *userRepository) SaveTx(ctx context.Context, tx bun.IDB, user *User) error {
	user.UpdatedAt = time.Now()

	_, err := tx.NewInsert().
		Model(user).
		On("CONFLICT (username) DO UPDATE").
		Set("password_hash = EXCLUDED.password_hash").
		Set("email = EXCLUDED.email").
		Set("favorite_movies = EXCLUDED.favorite_movies").
		Set("watchlist_movies = EXCLUDED.watchlist_movies").
		Set("watched_movies = EXCLUDED.watched_movies").
		Set("favorite_series = EXCLUDED.favorite_series").
		Set("watchlist_series = EXCLUDED.watchlist_series").
		Set("watched_series = EXCLUDED.watched_series").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return wrapStoreError(err, "failed to save user")
	}
	return r.syncAuthorities(ctx, tx, user)
}

// syncAuthorities makes the authorities table match the aggregate.
func (r *userRepository) syncAuthorities(ctx context.Context, tx bun.IDB, user *User) error {
	names := user.AuthorityNames()

	del := tx.NewDelete().
		Model((*Authority)(nil)).
		Where("username = ?", user.Username)
	if len(names) > 0 {
		del = del.Where("authority NOT IN (?)", bun.In(names))
	}
	if _, err := del.Exec(ctx); err != nil {
		return wrapStoreError(err, "failed to sync authorities")
	}

	if len(names) == 0 {
		return nil
	}

	rows := make([]*Authority, 0, len(names))
	for _, name := range names {
		rows = append(rows, &Authority{Username: user.Username, Name: name})
	}
	_, err := tx.NewInsert().
		Model(&rows).
		On("CONFLICT (username, authority) DO NOTHING").
		Exec(ctx)
	return wrapStoreError(err, "failed to sync authorities")
}

func (r *userRepository) DeleteByKeyTx(ctx context.Context, tx bun.IDB, username string) error {
	username = CanonicalUsername(username)

	if _, err := tx.NewDelete().
		Model((*Authority)(nil)).
		Where("username = ?", username).
		Exec(ctx); err != nil {
		return wrapStoreError(err, "failed to delete authorities")
	}

	res, err := tx.NewDelete().
		Model((*User)(nil)).
		Where("username = ?", username).
		Exec(ctx)
	if err != nil {
		return wrapStoreError(err, "failed to delete user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUsernameNotFound(username)
	}
	return nil
}

func (r *userRepository) FindAll(ctx context.Context) ([]*User, error) {
	return r.FindAllTx(ctx, r.db)
}

func (r *userRepository) FindAllTx(ctx context.Context, tx bun.IDB) ([]*User, error) {
	return r.SearchTx(ctx, tx, UserFilter{})
}

func (r *userRepository) Search(ctx context.Context, filter UserFilter) ([]*User, error) {
	return r.SearchTx(ctx, r.db, filter)
}

func (r *userRepository) SearchTx(ctx context.Context, tx bun.IDB, filter UserFilter) ([]*User, error) {
	var users []*User
	q := tx.NewSelect().
		Model(&users).
		Relation("Authorities").
		OrderExpr("?TableAlias.username ASC")

	if filter.Username != nil {
		q = q.Where("UPPER(?TableAlias.username) LIKE ? ESCAPE '!'", likePattern(strings.ToUpper(*filter.Username)))
	}
	if filter.Email != nil {
		q = q.Where("LOWER(?TableAlias.email) LIKE ? ESCAPE '!'", likePattern(strings.ToLower(*filter.Email)))
	}

	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*User{}, nil
		}
		return nil, wrapStoreError(err, "failed to list users")
	}
	return users, nil
}

func (r *userRepository) FindAuthorityByNameAndUserTx(ctx context.Context, tx bun.IDB, username, name string) (*Authority, error) {
	username = CanonicalUsername(username)
	name = CanonicalAuthority(name)

	authority := &Authority{}
	err := tx.NewSelect().
		Model(authority).
		Where("?TableAlias.username = ?", username).
		Where("UPPER(?TableAlias.authority) = ?", name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound(fmt.Sprintf("authority: %s not found for user: %s", name, username))
		}
		return nil, wrapStoreError(err, "failed to load authority")
	}
	return authority, nil
}

func (r *userRepository) CountAuthorityHoldersTx(ctx context.Context, tx bun.IDB, name string) (int, error) {
	n, err := tx.NewSelect().
		Model((*Authority)(nil)).
		Where("UPPER(?TableAlias.authority) = ?", CanonicalAuthority(name)).
		Count(ctx)
	return n, wrapStoreError(err, "failed to count authority holders")
}

func (r *userRepository) AuthorityExistsTx(ctx context.Context, tx bun.IDB, name string) (bool, error) {
	ok, err := tx.NewSelect().
		Model((*Authority)(nil)).
		Where("UPPER(?TableAlias.authority) = ?", CanonicalAuthority(name)).
		Exists(ctx)
	return ok, wrapStoreError(err, "failed to check authority")
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern matches s anywhere, with LIKE wildcards in s taken
// literally. Queries declare ESCAPE '!'.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(s)) + "%"
}
