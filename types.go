package accounts

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

// Logger interface
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Username() string
	Email() string
}

// PasswordHasher hashes and verifies plaintext passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(plain, hash string) bool
}

// TokenService issues and validates signed account tokens.
type TokenService interface {
	Issue(identity Identity, authorities []string) (string, error)
	Validate(token string) (*AccountClaims, error)
}

// TransactionManager runs a unit of work inside a database transaction.
type TransactionManager interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
}

type defLogger struct{}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Println("[DBG] ACCOUNTS " + render(format, args...))
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Println("[INF] ACCOUNTS " + render(format, args...))
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Println("[WRN] ACCOUNTS " + render(format, args...))
}

func (d defLogger) Error(format string, args ...any) {
	fmt.Println("[ERR] ACCOUNTS " + render(format, args...))
}

// render supports both printf style calls and trailing key/value pairs.
func render(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	if strings.Contains(format, "%") {
		return fmt.Sprintf(format, args...)
	}

	var b strings.Builder
	b.WriteString(format)
	for i := 0; i < len(args); i += 2 {
		b.WriteString(" ")
		if i+1 < len(args) {
			fmt.Fprintf(&b, "%v=%v", args[i], args[i+1])
			continue
		}
		fmt.Fprintf(&b, "%v", args[i])
	}
	return b.String()
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}

// DefaultLogger returns the stdout logger used when none is configured.
func DefaultLogger() Logger {
	return defLogger{}
}
