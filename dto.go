package accounts

import "github.com/google/uuid"

// UserDTO is the external projection of a user. It never carries the
// password hash.
type UserDTO struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Authorities     []string  `json:"authorities"`
	FavoriteMovies  []int64   `json:"favorite_movies"`
	WatchlistMovies []int64   `json:"watchlist_movies"`
	WatchedMovies   []int64   `json:"watched_movies"`
	FavoriteSeries  []int64   `json:"favorite_series"`
	WatchlistSeries []int64   `json:"watchlist_series"`
	WatchedSeries   []int64   `json:"watched_series"`
}

// Credentials is the internal projection used to verify a login.
type Credentials struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Authorities  []string
}

// ToDTO projects u for external callers.
func ToDTO(u *User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Authorities:     u.AuthorityNames(),
		FavoriteMovies:  u.FavoriteMovies.Sorted(),
		WatchlistMovies: u.WatchlistMovies.Sorted(),
		WatchedMovies:   u.WatchedMovies.Sorted(),
		FavoriteSeries:  u.FavoriteSeries.Sorted(),
		WatchlistSeries: u.WatchlistSeries.Sorted(),
		WatchedSeries:   u.WatchedSeries.Sorted(),
	}
}

func toDTOs(users []*User) []*UserDTO {
	out := make([]*UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, ToDTO(u))
	}
	return out
}

func toCredentials(u *User) *Credentials {
	return &Credentials{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Authorities:  u.AuthorityNames(),
	}
}

// List returns the sorted ids for key.
func (d *UserDTO) List(key ListKey) []int64 {
	switch key {
	case ListKey{ListFavorites, CategoryMovie}:
		return d.FavoriteMovies
	case ListKey{ListWatchlist, CategoryMovie}:
		return d.WatchlistMovies
	case ListKey{ListWatched, CategoryMovie}:
		return d.WatchedMovies
	case ListKey{ListFavorites, CategorySeries}:
		return d.FavoriteSeries
	case ListKey{ListWatchlist, CategorySeries}:
		return d.WatchlistSeries
	case ListKey{ListWatched, CategorySeries}:
		return d.WatchedSeries
	}
	return nil
}

// Identity adapts the credentials for token issuance.
func (c *Credentials) Identity() Identity {
	return credentialsIdentity{c: c}
}

type credentialsIdentity struct {
	c *Credentials
}

func (i credentialsIdentity) ID() string {
	if i.c == nil {
		return ""
	}
	return i.c.ID.String()
}

func (i credentialsIdentity) Username() string {
	if i.c == nil {
		return ""
	}
	return i.c.Username
}

func (i credentialsIdentity) Email() string {
	if i.c == nil {
		return ""
	}
	return i.c.Email
}
