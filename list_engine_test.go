package accounts_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func favorite(id int64) accounts.ListMembershipRequest {
	return accounts.ListMembershipRequest{
		Username: "alice",
		ID:       id,
		Kind:     accounts.ListFavorites,
		Category: accounts.CategoryMovie,
	}
}

func TestListEngineScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	created := env.register(t, "alice", "a@x.com")
	assert.Contains(t, created.Authorities, accounts.AuthorityUser)
	assert.NotContains(t, created.FavoriteMovies, int64(42))

	user, err := env.directory.AssignToList(ctx, favorite(42))
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, user.FavoriteMovies)

	_, err = env.directory.AssignToList(ctx, favorite(42))
	require.Error(t, err)
	assert.True(t, accounts.IsBadRequest(err))
	assert.Contains(t, err.Error(), "already added to favorites")

	user, err = env.directory.RemoveFromList(ctx, favorite(42))
	require.NoError(t, err)
	assert.Empty(t, user.FavoriteMovies)

	stored, err := env.directory.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, stored.FavoriteMovies)
}

func TestListEngineRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com")

	_, err := env.directory.AssignToList(ctx, favorite(7))
	require.NoError(t, err)
	_, err = env.directory.RemoveFromList(ctx, favorite(7))
	require.NoError(t, err)
	user, err := env.directory.AssignToList(ctx, favorite(7))
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, user.FavoriteMovies)
}

func TestListEngineRemoveAbsent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com")

	_, err := env.directory.RemoveFromList(ctx, favorite(99))
	require.Error(t, err)
	assert.True(t, accounts.IsBadRequest(err))
	assert.Contains(t, err.Error(), "not present in favorites")
}

func TestListEngineListsAreIndependent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com")

	var (
		user *accounts.UserDTO
		err  error
	)
	id := int64(1)
	for _, category := range []accounts.Category{accounts.CategoryMovie, accounts.CategorySeries} {
		for _, kind := range []accounts.ListKind{accounts.ListFavorites, accounts.ListWatchlist, accounts.ListWatched} {
			user, err = env.directory.AssignToList(ctx, accounts.ListMembershipRequest{
				Username: "ALICE",
				ID:       id,
				Kind:     kind,
				Category: category,
			})
			require.NoError(t, err)
			id++
		}
	}

	assert.Equal(t, []int64{1}, user.FavoriteMovies)
	assert.Equal(t, []int64{2}, user.WatchlistMovies)
	assert.Equal(t, []int64{3}, user.WatchedMovies)
	assert.Equal(t, []int64{4}, user.FavoriteSeries)
	assert.Equal(t, []int64{5}, user.WatchlistSeries)
	assert.Equal(t, []int64{6}, user.WatchedSeries)

	// the same id may live in several lists
	user, err = env.directory.AssignToList(ctx, accounts.ListMembershipRequest{
		Username: "alice", ID: 1, Kind: accounts.ListWatched, Category: accounts.CategorySeries,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 6}, user.WatchedSeries)
	assert.Equal(t, []int64{1}, user.List(accounts.ListKey{Kind: accounts.ListFavorites, Category: accounts.CategoryMovie}))
}

func TestListEngineIllegalArguments(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com")

	tests := []struct {
		name string
		req  accounts.ListMembershipRequest
	}{
		{name: "unknown kind", req: accounts.ListMembershipRequest{Username: "alice", ID: 1, Kind: "wishlist", Category: accounts.CategoryMovie}},
		{name: "unknown category", req: accounts.ListMembershipRequest{Username: "alice", ID: 1, Kind: accounts.ListWatched, Category: "podcast"}},
		{name: "unknown kind for missing user", req: accounts.ListMembershipRequest{Username: "ghost", ID: 1, Kind: "wishlist", Category: accounts.CategoryMovie}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.directory.AssignToList(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, accounts.IsIllegalArgument(err))
			assert.False(t, accounts.IsBadRequest(err))
			assert.False(t, accounts.IsUsernameNotFound(err))
		})
	}
}

func TestListEngineUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.directory.AssignToList(context.Background(), accounts.ListMembershipRequest{
		Username: "ghost", ID: 1, Kind: accounts.ListWatched, Category: accounts.CategoryMovie,
	})
	assert.True(t, accounts.IsUsernameNotFound(err))
}

func TestListEngineAssignMultiple(t *testing.T) {
	ctx := context.Background()

	t.Run("clean batch", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "alice", "a@x.com")

		user, err := env.directory.AssignManyToList(ctx, "alice", []int64{3, 1, 2}, accounts.ListWatchlist, accounts.CategorySeries)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, user.WatchlistSeries)
	})

	t.Run("duplicate against stored set aborts everything", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "alice", "a@x.com")
		_, err := env.directory.AssignToList(ctx, favorite(5))
		require.NoError(t, err)

		_, err = env.directory.AssignManyToList(ctx, "alice", []int64{1, 2, 5, 6}, accounts.ListFavorites, accounts.CategoryMovie)
		require.Error(t, err)
		assert.True(t, accounts.IsBadRequest(err))

		user, err := env.directory.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []int64{5}, user.FavoriteMovies)
	})

	t.Run("duplicate inside the batch aborts everything", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "alice", "a@x.com")

		_, err := env.directory.AssignManyToList(ctx, "alice", []int64{1, 2, 1}, accounts.ListFavorites, accounts.CategoryMovie)
		require.Error(t, err)
		assert.True(t, accounts.IsBadRequest(err))

		user, err := env.directory.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, user.FavoriteMovies)
	})

	t.Run("empty batch", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "alice", "a@x.com")

		_, err := env.directory.AssignManyToList(ctx, "alice", nil, accounts.ListFavorites, accounts.CategoryMovie)
		assert.True(t, accounts.IsInvalidInput(err))
	})
}

func TestListEngineRemoveMultiple(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com")

	_, err := env.directory.AssignManyToList(ctx, "alice", []int64{1, 2, 3}, accounts.ListWatched, accounts.CategoryMovie)
	require.NoError(t, err)

	_, err = env.directory.RemoveManyFromList(ctx, "alice", []int64{1, 4}, accounts.ListWatched, accounts.CategoryMovie)
	require.Error(t, err)
	assert.True(t, accounts.IsBadRequest(err))
	assert.Contains(t, err.Error(), "4 is not present in watched")

	user, err := env.directory.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, user.WatchedMovies)

	user, err = env.directory.RemoveManyFromList(ctx, "alice", []int64{1, 3}, accounts.ListWatched, accounts.CategoryMovie)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, user.WatchedMovies)
	assert.Contains(t, env.activity.types(), accounts.ActivityEventListEntryRemoved)
}

func TestListEngineConcurrentAssign(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com")

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.directory.AssignToList(ctx, favorite(42))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, accounts.IsBadRequest(err))
	}
	assert.Equal(t, 1, ok)
}

func TestListEngineConcurrentUsersOnFileDatabase(t *testing.T) {
	ctx := context.Background()
	env := newTestEnvWithDB(t, persistence.Config{
		Driver: persistence.DriverSQLite,
		DSN:    "file:" + filepath.Join(t.TempDir(), "accounts.db"),
	})

	const users = 8
	const idsPerUser = 20
	for i := 0; i < users; i++ {
		env.register(t, fmt.Sprintf("user%c", 'a'+i), fmt.Sprintf("u%d@x.com", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, users*idsPerUser)
	for i := 0; i < users; i++ {
		for id := 1; id <= idsPerUser; id++ {
			wg.Add(1)
			go func(username string, id int64) {
				defer wg.Done()
				_, err := env.directory.AssignToList(ctx, accounts.ListMembershipRequest{
					Username: username,
					ID:       id,
					Kind:     accounts.ListWatchlist,
					Category: accounts.CategoryMovie,
				})
				errs <- err
			}(fmt.Sprintf("user%c", 'a'+i), int64(id))
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	for i := 0; i < users; i++ {
		user, err := env.directory.GetUser(ctx, fmt.Sprintf("user%c", 'a'+i))
		require.NoError(t, err)
		assert.Len(t, user.WatchlistMovies, idsPerUser)
	}
}

func TestListEngineStandalone(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com")

	engine := accounts.NewListEngine(env.repo).WithLogger(nopLogger{})
	user, err := engine.Assign(ctx, favorite(10))
	require.NoError(t, err)
	assert.True(t, user.FavoriteMovies.Has(10))

	user, err = engine.Remove(ctx, favorite(10))
	require.NoError(t, err)
	assert.False(t, user.FavoriteMovies.Has(10))
}
