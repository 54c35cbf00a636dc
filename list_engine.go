package accounts

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// ListEngine mutates the per user media id sets. Every id moves between
// two states, absent and present, and each call re-reads the user inside
// its own transaction.
type ListEngine struct {
	repo     RepositoryManager
	locks    *keyedLocker
	logger   Logger
	activity ActivitySink
}

func NewListEngine(repo RepositoryManager) *ListEngine {
	return newListEngine(repo, newKeyedLocker())
}

func newListEngine(repo RepositoryManager, locks *keyedLocker) *ListEngine {
	return &ListEngine{
		repo:     repo,
		locks:    locks,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

func (e *ListEngine) WithLogger(l Logger) *ListEngine {
	e.logger = normalizeLogger(l)
	return e
}

func (e *ListEngine) WithActivitySink(s ActivitySink) *ListEngine {
	e.activity = normalizeActivitySink(s)
	return e
}

// Assign adds req.ID to the selected list.
func (e *ListEngine) Assign(ctx context.Context, req ListMembershipRequest) (*User, error) {
	return e.mutate(ctx, req.Username, req.key(), []int64{req.ID}, listAdd)
}

// Remove deletes req.ID from the selected list.
func (e *ListEngine) Remove(ctx context.Context, req ListMembershipRequest) (*User, error) {
	return e.mutate(ctx, req.Username, req.key(), []int64{req.ID}, listRemove)
}

// AssignMultiple adds every id or none of them.
func (e *ListEngine) AssignMultiple(ctx context.Context, username string, ids []int64, kind ListKind, category Category) (*User, error) {
	return e.mutate(ctx, username, ListKey{Kind: kind, Category: category}, ids, listAdd)
}

// RemoveMultiple deletes every id or none of them.
func (e *ListEngine) RemoveMultiple(ctx context.Context, username string, ids []int64, kind ListKind, category Category) (*User, error) {
	return e.mutate(ctx, username, ListKey{Kind: kind, Category: category}, ids, listRemove)
}

type listOp int

const (
	listAdd listOp = iota
	listRemove
)

func (e *ListEngine) mutate(ctx context.Context, username string, key ListKey, ids []int64, op listOp) (*User, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrInvalidInput("at least one id is required")
	}

	username = CanonicalUsername(username)
	unlock := e.locks.Lock(userLockKey(username))
	defer unlock()

	var user *User
	err := e.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		u, err := e.repo.Users().FindByKeyForUpdateTx(ctx, tx, username)
		if err != nil {
			return err
		}

		set, err := u.List(key)
		if err != nil {
			return err
		}

		if err := checkIDs(set, ids, key, op); err != nil {
			return err
		}

		for _, id := range ids {
			if op == listAdd {
				set.Add(id)
			} else {
				set.Remove(id)
			}
		}

		user = u
		return e.repo.Users().SaveTx(ctx, tx, u)
	})
	if err != nil {
		return nil, err
	}

	event := ActivityEventListEntryAdded
	if op == listRemove {
		event = ActivityEventListEntryRemoved
	}
	e.logger.Debug("list updated", "username", username, "list", key.String(), "ids", ids)
	recordActivity(ctx, e.activity, e.logger, ActivityEvent{
		EventType: event,
		Username:  username,
		Metadata: map[string]any{
			"list":     string(key.Kind),
			"category": string(key.Category),
			"ids":      ids,
		},
	})
	return user, nil
}

// checkIDs validates the whole batch against the current set before any
// mutation. A repeated id inside an add batch counts as a duplicate.
func checkIDs(set IDSet, ids []int64, key ListKey, op listOp) error {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		_, repeated := seen[id]
		seen[id] = struct{}{}

		switch op {
		case listAdd:
			if repeated || set.Has(id) {
				return ErrBadRequest(fmt.Sprintf("%s %d is already added to %s", key.Category, id, key.Kind))
			}
		case listRemove:
			if repeated || !set.Has(id) {
				return ErrBadRequest(fmt.Sprintf("%s %d is not present in %s", key.Category, id, key.Kind))
			}
		}
	}
	return nil
}
