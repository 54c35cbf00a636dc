package accounts

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// RegisterUserInput carries a registration request.
type RegisterUserInput struct {
	Username string
	Password string
	Email    string

	// Authorities are granted with the baseline in the same transaction.
	// An unknown name aborts the registration.
	Authorities []string
}

// Directory is the entry point for account operations. It canonicalizes
// usernames before they reach the engines and the store.
type Directory struct {
	repo        RepositoryManager
	hasher      PasswordHasher
	config      Config
	authorities *AuthorityEngine
	lists       *ListEngine
	logger      Logger
	activity    ActivitySink
}

// NewDirectory builds the directory and the engines it composes. The
// engines share one set of keyed locks.
func NewDirectory(repo RepositoryManager, hasher PasswordHasher, cfg Config) *Directory {
	cfg = cfg.Normalize()
	locks := newKeyedLocker()
	if hasher == nil {
		hasher = NewBcryptHasher(cfg.BcryptCost)
	}
	return &Directory{
		repo:        repo,
		hasher:      hasher,
		config:      cfg,
		authorities: newAuthorityEngine(repo, cfg, locks),
		lists:       newListEngine(repo, locks),
		logger:      defLogger{},
		activity:    noopActivitySink{},
	}
}

func (d *Directory) WithLogger(l Logger) *Directory {
	d.logger = normalizeLogger(l)
	d.authorities.WithLogger(l)
	d.lists.WithLogger(l)
	return d
}

func (d *Directory) WithActivitySink(s ActivitySink) *Directory {
	d.activity = normalizeActivitySink(s)
	d.authorities.WithActivitySink(s)
	d.lists.WithActivitySink(s)
	return d
}

func (d *Directory) Authorities() *AuthorityEngine {
	return d.authorities
}

func (d *Directory) Lists() *ListEngine {
	return d.lists
}

// Register creates a user holding the baseline authority.
func (d *Directory) Register(ctx context.Context, input RegisterUserInput) (*UserDTO, error) {
	username := CanonicalUsername(input.Username)
	if username == "" {
		return nil, ErrInvalidInput("username is required")
	}

	unlock := d.authorities.locks.Lock(userLockKey(username), emailLockKey(input.Email))
	defer unlock()

	var created *User
	err := d.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		users := d.repo.Users()

		usernameTaken, err := users.ExistsByUsernameTx(ctx, tx, username)
		if err != nil {
			return err
		}
		emailTaken, err := users.ExistsByEmailTx(ctx, tx, input.Email)
		if err != nil {
			return err
		}

		switch {
		case usernameTaken && emailTaken:
			return ErrInvalidInput("username and email address are already in use")
		case usernameTaken:
			return ErrInvalidInput("username is already in use")
		case emailTaken:
			return ErrInvalidInput("email address is already in use")
		}

		hash, err := d.hasher.Hash(input.Password)
		if err != nil {
			return err
		}

		user, err := NewUser(username, input.Email, hash)
		if err != nil {
			return wrapStoreError(err, "failed to build user")
		}
		d.authorities.RegisterBaselineAuthority(user)

		for _, name := range input.Authorities {
			name = CanonicalAuthority(name)
			if name == "" {
				continue
			}
			known, err := d.authorities.isKnown(ctx, tx, name)
			if err != nil {
				return err
			}
			if !known {
				return ErrBadRequest(fmt.Sprintf("authority: %s not found", name))
			}
			user.AddAuthority(name)
		}

		if err := users.CreateTx(ctx, tx, user); err != nil {
			return err
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.logger.Info("user registered", "username", created.Username)
	recordActivity(ctx, d.activity, d.logger, ActivityEvent{
		EventType: ActivityEventUserRegistered,
		Username:  created.Username,
		Metadata:  map[string]any{"email": created.Email},
	})
	return ToDTO(created), nil
}

// GetUser returns the external projection of username.
func (d *Directory) GetUser(ctx context.Context, username string) (*UserDTO, error) {
	user, err := d.repo.Users().FindByKey(ctx, CanonicalUsername(username))
	if err != nil {
		return nil, err
	}
	return ToDTO(user), nil
}

// Credentials returns the password hash and authorities of username.
// It is meant for the authentication path only.
func (d *Directory) Credentials(ctx context.Context, username string) (*Credentials, error) {
	user, err := d.repo.Users().FindByKey(ctx, CanonicalUsername(username))
	if err != nil {
		return nil, err
	}
	return toCredentials(user), nil
}

// ListUsers returns every user sorted by username. An empty directory is
// reported as RecordNotFound.
func (d *Directory) ListUsers(ctx context.Context) ([]*UserDTO, error) {
	users, err := d.repo.Users().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrRecordNotFound("no users found")
	}
	return toDTOs(users), nil
}

// SearchUsers matches the non nil filters partially and ignoring case.
func (d *Directory) SearchUsers(ctx context.Context, filter UserFilter) ([]*UserDTO, error) {
	users, err := d.repo.Users().Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrRecordNotFound("no users found matching the given filters")
	}
	return toDTOs(users), nil
}

// DeleteUser removes username and its authorities. Protected usernames
// can not be deleted.
func (d *Directory) DeleteUser(ctx context.Context, username string) (string, error) {
	username = CanonicalUsername(username)

	unlock := d.authorities.locks.Lock(userLockKey(username))
	defer unlock()

	err := d.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		users := d.repo.Users()
		if _, err := users.FindByKeyForUpdateTx(ctx, tx, username); err != nil {
			return err
		}
		if d.config.IsProtected(username) {
			return ErrBadRequest(fmt.Sprintf("can't remove user: %s", username))
		}
		return users.DeleteByKeyTx(ctx, tx, username)
	})
	if err != nil {
		return "", err
	}

	d.logger.Info("user deleted", "username", username)
	recordActivity(ctx, d.activity, d.logger, ActivityEvent{
		EventType: ActivityEventUserDeleted,
		Username:  username,
	})
	return fmt.Sprintf("user: %s is deleted", username), nil
}

// GetUserAuthorities returns the sorted authority names of username.
func (d *Directory) GetUserAuthorities(ctx context.Context, username string) ([]string, error) {
	user, err := d.repo.Users().FindByKey(ctx, CanonicalUsername(username))
	if err != nil {
		return nil, err
	}
	return user.AuthorityNames(), nil
}

func (d *Directory) AssignAuthority(ctx context.Context, username, name string) (*UserDTO, error) {
	user, err := d.authorities.AssignAuthority(ctx, username, name)
	if err != nil {
		return nil, err
	}
	return ToDTO(user), nil
}

func (d *Directory) RemoveAuthority(ctx context.Context, username, name string) (string, error) {
	return d.authorities.RemoveAuthority(ctx, username, name)
}

func (d *Directory) AssignToList(ctx context.Context, req ListMembershipRequest) (*UserDTO, error) {
	return projectUser(d.lists.Assign(ctx, req))
}

func (d *Directory) RemoveFromList(ctx context.Context, req ListMembershipRequest) (*UserDTO, error) {
	return projectUser(d.lists.Remove(ctx, req))
}

func (d *Directory) AssignManyToList(ctx context.Context, username string, ids []int64, kind ListKind, category Category) (*UserDTO, error) {
	return projectUser(d.lists.AssignMultiple(ctx, username, ids, kind, category))
}

func (d *Directory) RemoveManyFromList(ctx context.Context, username string, ids []int64, kind ListKind, category Category) (*UserDTO, error) {
	return projectUser(d.lists.RemoveMultiple(ctx, username, ids, kind, category))
}

func projectUser(user *User, err error) (*UserDTO, error) {
	if err != nil {
		return nil, err
	}
	return ToDTO(user), nil
}
