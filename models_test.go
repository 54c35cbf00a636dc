package accounts_test

import (
	"encoding/json"
	"testing"

	"github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	user, err := accounts.NewUser("  alice ", " a@x.com ", "hash")
	require.NoError(t, err)
	assert.Equal(t, "ALICE", user.Username)
	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEmpty(t, user.ID.String())

	again, err := accounts.NewUser("ALICE", "other@x.com", "hash")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID, "public id is derived from the canonical username")

	raw, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hash")
}

func TestUserAuthorities(t *testing.T) {
	user, err := accounts.NewUser("alice", "a@x.com", "h")
	require.NoError(t, err)

	assert.True(t, user.AddAuthority("role_user"))
	assert.False(t, user.AddAuthority("ROLE_USER"))
	assert.True(t, user.AddAuthority("ROLE_ADMIN"))
	assert.Equal(t, []string{"ROLE_ADMIN", "ROLE_USER"}, user.AuthorityNames())
	assert.True(t, user.HasAuthority("Role_Admin"))

	assert.True(t, user.RemoveAuthority("role_admin"))
	assert.False(t, user.RemoveAuthority("ROLE_ADMIN"))
	assert.Equal(t, []string{"ROLE_USER"}, user.AuthorityNames())
	assert.Equal(t, "ALICE", user.Authorities[0].Username)
}

func TestIDSet(t *testing.T) {
	s := accounts.NewIDSet(3, 1, 2)
	assert.True(t, s.Has(1))
	assert.False(t, s.Has(4))
	assert.Equal(t, []int64{1, 2, 3}, s.Sorted())

	clone := s.Clone()
	clone.Remove(1)
	assert.True(t, s.Has(1))
	assert.Equal(t, 2, clone.Len())

	t.Run("database value", func(t *testing.T) {
		v, err := s.Value()
		require.NoError(t, err)
		assert.Equal(t, "[1,2,3]", v)

		var empty accounts.IDSet
		v, err = empty.Value()
		require.NoError(t, err)
		assert.Equal(t, "[]", v)
	})

	t.Run("scan", func(t *testing.T) {
		tests := []struct {
			name string
			src  any
			want []int64
		}{
			{name: "string", src: "[5,4]", want: []int64{4, 5}},
			{name: "bytes", src: []byte("[9]"), want: []int64{9}},
			{name: "nil", src: nil, want: []int64{}},
			{name: "empty", src: "", want: []int64{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var got accounts.IDSet
				require.NoError(t, got.Scan(tt.src))
				assert.Equal(t, tt.want, got.Sorted())
			})
		}

		var got accounts.IDSet
		assert.Error(t, got.Scan(42))
		assert.Error(t, got.Scan("{"))
	})
}

func TestUserList(t *testing.T) {
	user := &accounts.User{}

	set, err := user.List(accounts.ListKey{Kind: accounts.ListWatchlist, Category: accounts.CategorySeries})
	require.NoError(t, err)
	set.Add(8)
	assert.True(t, user.WatchlistSeries.Has(8))
	assert.Empty(t, user.WatchlistMovies)

	_, err = user.List(accounts.ListKey{Kind: "later", Category: accounts.CategoryMovie})
	assert.True(t, accounts.IsIllegalArgument(err))
}

func TestParseListKindAndCategory(t *testing.T) {
	kinds := map[string]accounts.ListKind{
		"favorites": accounts.ListFavorites,
		"WatchList": accounts.ListWatchlist,
		" watched ": accounts.ListWatched,
	}
	for in, want := range kinds {
		got, err := accounts.ParseListKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := accounts.ParseListKind("favourites")
	assert.True(t, accounts.IsIllegalArgument(err))

	categories := map[string]accounts.Category{
		"movie":  accounts.CategoryMovie,
		"movies": accounts.CategoryMovie,
		"Series": accounts.CategorySeries,
	}
	for in, want := range categories {
		got, err := accounts.ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err = accounts.ParseCategory("books")
	assert.True(t, accounts.IsIllegalArgument(err))
}
