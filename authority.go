package accounts

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// AuthorityEngine grants and revokes authorities. It never lets the
// number of holders of an authority drop to zero.
type AuthorityEngine struct {
	repo     RepositoryManager
	locks    *keyedLocker
	catalog  authorityCatalog
	baseline string
	logger   Logger
	activity ActivitySink
}

// NewAuthorityEngine returns an engine using the known authorities and
// baseline from cfg.
func NewAuthorityEngine(repo RepositoryManager, cfg Config) *AuthorityEngine {
	return newAuthorityEngine(repo, cfg, newKeyedLocker())
}

func newAuthorityEngine(repo RepositoryManager, cfg Config, locks *keyedLocker) *AuthorityEngine {
	cfg = cfg.Normalize()
	return &AuthorityEngine{
		repo:     repo,
		locks:    locks,
		catalog:  newAuthorityCatalog(cfg.KnownAuthorities...),
		baseline: cfg.BaselineAuthority,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

func (e *AuthorityEngine) WithLogger(l Logger) *AuthorityEngine {
	e.logger = normalizeLogger(l)
	return e
}

func (e *AuthorityEngine) WithActivitySink(s ActivitySink) *AuthorityEngine {
	e.activity = normalizeActivitySink(s)
	return e
}

// RegisterBaselineAuthority grants the baseline authority to a user that
// is being created.
func (e *AuthorityEngine) RegisterBaselineAuthority(user *User) {
	if user == nil {
		return
	}
	user.AddAuthority(e.baseline)
}

// AssignAuthority grants name to username. Granting an authority the
// user already holds is a no-op.
func (e *AuthorityEngine) AssignAuthority(ctx context.Context, username, name string) (*User, error) {
	username = CanonicalUsername(username)
	name = CanonicalAuthority(name)
	if name == "" {
		return nil, ErrInvalidInput("authority is required")
	}

	unlock := e.locks.Lock(userLockKey(username))
	defer unlock()

	var (
		user    *User
		granted bool
	)
	err := e.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		u, err := e.repo.Users().FindByKeyForUpdateTx(ctx, tx, username)
		if err != nil {
			return err
		}

		known, err := e.isKnown(ctx, tx, name)
		if err != nil {
			return err
		}
		if !known {
			return ErrBadRequest(fmt.Sprintf("authority: %s not found", name))
		}

		user = u
		if granted = u.AddAuthority(name); !granted {
			return nil
		}
		return e.repo.Users().SaveTx(ctx, tx, u)
	})
	if err != nil {
		return nil, err
	}

	if granted {
		e.logger.Info("authority assigned", "username", username, "authority", name)
		recordActivity(ctx, e.activity, e.logger, ActivityEvent{
			EventType: ActivityEventAuthorityAssigned,
			Username:  username,
			Metadata:  map[string]any{"authority": name},
		})
	}
	return user, nil
}

// RemoveAuthority revokes name from username unless username is its last
// holder. It returns a confirmation message.
func (e *AuthorityEngine) RemoveAuthority(ctx context.Context, username, name string) (string, error) {
	username = CanonicalUsername(username)
	name = CanonicalAuthority(name)
	if name == "" {
		return "", ErrInvalidInput("authority is required")
	}

	unlock := e.locks.Lock(authorityLockKey(name), userLockKey(username))
	defer unlock()

	err := e.repo.RunInTx(ctx, e.repo.SerializableTx(), func(ctx context.Context, tx bun.Tx) error {
		users := e.repo.Users()

		u, err := users.FindByKeyForUpdateTx(ctx, tx, username)
		if err != nil {
			return err
		}

		if _, err := users.FindAuthorityByNameAndUserTx(ctx, tx, username, name); err != nil {
			if IsRecordNotFound(err) {
				return ErrInvalidInput(fmt.Sprintf("user: %s does not have authority: %s", username, name))
			}
			return err
		}

		holders, err := users.CountAuthorityHoldersTx(ctx, tx, name)
		if err != nil {
			return err
		}
		if holders <= 1 {
			return ErrBadRequest(fmt.Sprintf("at least 1 user must have the authority: %s", name))
		}

		u.RemoveAuthority(name)
		return users.SaveTx(ctx, tx, u)
	})
	if err != nil {
		return "", err
	}

	e.logger.Info("authority removed", "username", username, "authority", name)
	recordActivity(ctx, e.activity, e.logger, ActivityEvent{
		EventType: ActivityEventAuthorityRemoved,
		Username:  username,
		Metadata:  map[string]any{"authority": name},
	})

	return fmt.Sprintf("authority: %s is removed from user: %s", name, username), nil
}

func (e *AuthorityEngine) isKnown(ctx context.Context, tx bun.IDB, name string) (bool, error) {
	if e.catalog.Contains(name) {
		return true, nil
	}
	return e.repo.Users().AuthorityExistsTx(ctx, tx, name)
}
