package accounts

import (
	"context"
	"strings"
)

// CredentialSource loads the internal credential projection of a user.
type CredentialSource interface {
	Credentials(ctx context.Context, username string) (*Credentials, error)
}

// Authenticator verifies passwords and issues tokens.
type Authenticator struct {
	credentials CredentialSource
	hasher      PasswordHasher
	tokens      TokenService
	logger      Logger
	activity    ActivitySink
}

// NewAuthenticator returns an authenticator. A nil hasher uses bcrypt.
func NewAuthenticator(credentials CredentialSource, tokens TokenService, hasher PasswordHasher) *Authenticator {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &Authenticator{
		credentials: credentials,
		hasher:      hasher,
		tokens:      tokens,
		logger:      defLogger{},
		activity:    noopActivitySink{},
	}
}

func (a *Authenticator) WithLogger(l Logger) *Authenticator {
	a.logger = normalizeLogger(l)
	return a
}

func (a *Authenticator) WithActivitySink(s ActivitySink) *Authenticator {
	a.activity = normalizeActivitySink(s)
	return a
}

// Login verifies the password of username and returns a signed token.
// An unknown user and a wrong password fail with the same error.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, error) {
	username = CanonicalUsername(username)

	creds, err := a.credentials.Credentials(ctx, username)
	if err != nil {
		if IsUsernameNotFound(err) {
			a.loginFailed(ctx, username, "unknown user")
			return "", errInvalidCredentials()
		}
		a.logger.Error("login credentials lookup error", "username", username, "error", err)
		return "", err
	}

	if !a.hasher.Compare(password, creds.PasswordHash) {
		a.loginFailed(ctx, username, "password mismatch")
		return "", errInvalidCredentials()
	}

	token, err := a.tokens.Issue(creds.Identity(), creds.Authorities)
	if err != nil {
		a.logger.Error("login token issue error", "username", username, "error", err)
		return "", err
	}

	recordActivity(ctx, a.activity, a.logger, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Username:  username,
	})
	return token, nil
}

// Session validates token and returns its claims.
func (a *Authenticator) Session(token string) (*AccountClaims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, ErrTokenMalformed
	}
	return a.tokens.Validate(token)
}

// CheckOwner fails unless claims were issued to username.
func (a *Authenticator) CheckOwner(claims *AccountClaims, username string) error {
	if !claims.IsOwner(username) {
		return ErrBadRequest("used token is not valid")
	}
	return nil
}

func (a *Authenticator) loginFailed(ctx context.Context, username, reason string) {
	a.logger.Debug("login failed", "username", username, "reason", reason)
	recordActivity(ctx, a.activity, a.logger, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Username:  username,
		Metadata:  map[string]any{"reason": reason},
	})
}

func errInvalidCredentials() error {
	return ErrBadRequest("invalid username and password combination")
}
