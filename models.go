package accounts

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account aggregate. It owns its authorities and the six
// media id sets.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	Username        string       `bun:"username,pk" json:"username"`
	ID              uuid.UUID    `bun:"id,type:uuid,notnull,unique" json:"id"`
	PasswordHash    string       `bun:"password_hash,notnull" json:"-"`
	Email           string       `bun:"email,notnull,unique" json:"email"`
	Authorities     []*Authority `bun:"rel:has-many,join:username=username" json:"authorities,omitempty"`
	FavoriteMovies  IDSet        `bun:"favorite_movies,type:text" json:"favorite_movies"`
	WatchlistMovies IDSet        `bun:"watchlist_movies,type:text" json:"watchlist_movies"`
	WatchedMovies   IDSet        `bun:"watched_movies,type:text" json:"watched_movies"`
	FavoriteSeries  IDSet        `bun:"favorite_series,type:text" json:"favorite_series"`
	WatchlistSeries IDSet        `bun:"watchlist_series,type:text" json:"watchlist_series"`
	WatchedSeries   IDSet        `bun:"watched_series,type:text" json:"watched_series"`
	CreatedAt       time.Time    `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time    `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Authority is a named permission bound to a user. The pair
// (username, authority) is unique.
type Authority struct {
	bun.BaseModel `bun:"table:authorities,alias:ath"`

	Username string `bun:"username,pk" json:"username"`
	Name     string `bun:"authority,pk" json:"authority"`
}

// NewUser builds an aggregate for the canonical username with empty lists.
func NewUser(username, email, passwordHash string) (*User, error) {
	username = CanonicalUsername(username)
	id, err := hashid.NewUUID(username)
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	return &User{
		Username:        username,
		ID:              id,
		PasswordHash:    passwordHash,
		Email:           strings.TrimSpace(email),
		FavoriteMovies:  IDSet{},
		WatchlistMovies: IDSet{},
		WatchedMovies:   IDSet{},
		FavoriteSeries:  IDSet{},
		WatchlistSeries: IDSet{},
		WatchedSeries:   IDSet{},
	}, nil
}

// CanonicalUsername returns the storage key form of a username.
func CanonicalUsername(username string) string {
	return strings.ToUpper(strings.TrimSpace(username))
}

// CanonicalAuthority returns the storage form of an authority name.
func CanonicalAuthority(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// HasAuthority reports whether the user holds name, ignoring case.
func (u *User) HasAuthority(name string) bool {
	name = CanonicalAuthority(name)
	for _, a := range u.Authorities {
		if a != nil && strings.EqualFold(a.Name, name) {
			return true
		}
	}
	return false
}

// AddAuthority grants name. It returns false when the user already holds it.
func (u *User) AddAuthority(name string) bool {
	name = CanonicalAuthority(name)
	if u.HasAuthority(name) {
		return false
	}
	u.Authorities = append(u.Authorities, &Authority{Username: u.Username, Name: name})
	return true
}

// RemoveAuthority revokes name. It returns false when the user did not hold it.
func (u *User) RemoveAuthority(name string) bool {
	name = CanonicalAuthority(name)
	before := len(u.Authorities)
	u.Authorities = slices.DeleteFunc(u.Authorities, func(a *Authority) bool {
		return a == nil || strings.EqualFold(a.Name, name)
	})
	return len(u.Authorities) != before
}

// AuthorityNames returns the sorted authority names.
func (u *User) AuthorityNames() []string {
	out := make([]string, 0, len(u.Authorities))
	for _, a := range u.Authorities {
		if a != nil {
			out = append(out, a.Name)
		}
	}
	sort.Strings(out)
	return out
}

// IDSet is a set of media ids. It is persisted as a sorted JSON array.
type IDSet map[int64]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Add(id int64) {
	s[id] = struct{}{}
}

func (s IDSet) Remove(id int64) {
	delete(s, id)
}

func (s IDSet) Len() int {
	return len(s)
}

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// Value implements driver.Valuer.
func (s IDSet) Value() (driver.Value, error) {
	raw, err := json.Marshal(s.Sorted())
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (s *IDSet) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = IDSet{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("id set: unsupported source type %T", src)
	}
	if len(raw) == 0 {
		*s = IDSet{}
		return nil
	}
	return s.UnmarshalJSON(raw)
}
