package accounts

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// keyedLocker serializes work per key inside a single process. Entries
// live only while a caller holds or waits on the key.
type keyedLocker struct {
	locks *xsync.MapOf[string, *lockEntry]
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{locks: xsync.NewMapOf[string, *lockEntry]()}
}

// Lock acquires every key and returns the release func. Callers pass keys
// in their documented order: authority, user, email.
func (k *keyedLocker) Lock(keys ...string) func() {
	held := make([]string, 0, len(keys))
	for _, key := range keys {
		k.acquire(key)
		held = append(held, key)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			k.release(held[i])
		}
	}
}

func (k *keyedLocker) acquire(key string) {
	entry, _ := k.locks.Compute(key, func(old *lockEntry, loaded bool) (*lockEntry, bool) {
		if !loaded {
			old = &lockEntry{}
		}
		old.refs++
		return old, false
	})
	entry.mu.Lock()
}

func (k *keyedLocker) release(key string) {
	entry, ok := k.locks.Load(key)
	if !ok {
		return
	}
	entry.mu.Unlock()
	k.locks.Compute(key, func(old *lockEntry, loaded bool) (*lockEntry, bool) {
		if !loaded {
			return old, true
		}
		old.refs--
		return old, old.refs <= 0
	})
}

func (k *keyedLocker) size() int {
	return k.locks.Size()
}

func userLockKey(username string) string {
	return "user:" + CanonicalUsername(username)
}

func authorityLockKey(name string) string {
	return "authority:" + CanonicalAuthority(name)
}

func emailLockKey(email string) string {
	return "email:" + lowerTrim(email)
}
