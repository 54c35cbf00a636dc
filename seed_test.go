package accounts_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `users:
  - username: mmesander
    email: admin@example.com
    password: Passw0rd!
    authorities:
      - ROLE_ADMIN
  - username: guest
    email: guest@example.com
    password: Passw0rd!
`

func TestSeedFromFile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	created, err := accounts.SeedFromFile(ctx, env.directory, path)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	got, err := env.directory.GetUserAuthorities(ctx, "mmesander")
	require.NoError(t, err)
	assert.Equal(t, []string{accounts.AuthorityAdmin, accounts.AuthorityUser}, got)

	got, err = env.directory.GetUserAuthorities(ctx, "guest")
	require.NoError(t, err)
	assert.Equal(t, []string{accounts.AuthorityUser}, got)

	created, err = accounts.SeedFromFile(ctx, env.directory, path)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestSeedFromFileErrors(t *testing.T) {
	env := newTestEnv(t)

	_, err := accounts.SeedFromFile(context.Background(), env.directory, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("users: ["), 0o600))
	_, err = accounts.SeedFromFile(context.Background(), env.directory, path)
	assert.Error(t, err)
}

func TestSeedRetriesAfterUnknownAuthority(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := accounts.Seed(ctx, env.directory, []accounts.SeedUser{
		{Username: "root", Email: "root@x.com", Password: "Passw0rd!", Authorities: []string{"ROLE_ADMNI"}},
	})
	require.Error(t, err)

	created, err := accounts.Seed(ctx, env.directory, []accounts.SeedUser{
		{Username: "root", Email: "root@x.com", Password: "Passw0rd!", Authorities: []string{"ROLE_ADMIN"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	got, err := env.directory.GetUserAuthorities(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, []string{accounts.AuthorityAdmin, accounts.AuthorityUser}, got)
}
