package accounts_test

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimsContext(t *testing.T) {
	ctx := context.Background()

	_, ok := accounts.ClaimsFromContext(ctx)
	assert.False(t, ok)
	assert.Empty(t, accounts.ActorFromContext(ctx))

	claims := &accounts.AccountClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "BOSS"}}
	ctx = accounts.WithClaimsContext(ctx, claims)

	got, ok := accounts.ClaimsFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, claims, got)
	assert.Equal(t, "BOSS", accounts.ActorFromContext(ctx))

	_, ok = accounts.ClaimsFromContext(accounts.WithClaimsContext(context.Background(), nil))
	assert.False(t, ok)
}

func TestActivityCarriesActor(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "a@x.com")

	ctx := accounts.WithClaimsContext(context.Background(), &accounts.AccountClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "BOSS"},
	})
	_, err := env.directory.AssignAuthority(ctx, "alice", accounts.AuthorityAdmin)
	require.NoError(t, err)

	event, ok := env.activity.last(accounts.ActivityEventAuthorityAssigned)
	require.True(t, ok)
	assert.Equal(t, "ALICE", event.Username)
	assert.Equal(t, "BOSS", event.Metadata[accounts.ActivityMetadataActor])
}
