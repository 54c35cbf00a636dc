package accounts

import (
	"fmt"
	"strings"
)

// ListKind names one of the per user media lists.
type ListKind string

const (
	ListFavorites ListKind = "favorites"
	ListWatchlist ListKind = "watchlist"
	ListWatched   ListKind = "watched"
)

// IsValid checks if the kind is one of the predefined lists
func (k ListKind) IsValid() bool {
	switch k {
	case ListFavorites, ListWatchlist, ListWatched:
		return true
	default:
		return false
	}
}

// ParseListKind resolves a list name, ignoring case.
func ParseListKind(s string) (ListKind, error) {
	k := ListKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", ErrIllegalArgument(fmt.Sprintf("unknown list: %q", s))
	}
	return k, nil
}

// Category is the media type a list holds.
type Category string

const (
	CategoryMovie  Category = "movie"
	CategorySeries Category = "series"
)

// IsValid checks if the category is one of the predefined media types
func (c Category) IsValid() bool {
	switch c {
	case CategoryMovie, CategorySeries:
		return true
	default:
		return false
	}
}

// ParseCategory resolves a category. Route plurals such as "movies"
// are accepted.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return CategoryMovie, nil
	case "series":
		return CategorySeries, nil
	default:
		return "", ErrIllegalArgument(fmt.Sprintf("unknown category: %q", s))
	}
}

// ListKey selects one of the six id sets on a User.
type ListKey struct {
	Kind     ListKind
	Category Category
}

func (k ListKey) String() string {
	return string(k.Category) + "." + string(k.Kind)
}

var listAccessors = map[ListKey]func(*User) *IDSet{
	{ListFavorites, CategoryMovie}:  func(u *User) *IDSet { return &u.FavoriteMovies },
	{ListWatchlist, CategoryMovie}:  func(u *User) *IDSet { return &u.WatchlistMovies },
	{ListWatched, CategoryMovie}:    func(u *User) *IDSet { return &u.WatchedMovies },
	{ListFavorites, CategorySeries}: func(u *User) *IDSet { return &u.FavoriteSeries },
	{ListWatchlist, CategorySeries}: func(u *User) *IDSet { return &u.WatchlistSeries },
	{ListWatched, CategorySeries}:   func(u *User) *IDSet { return &u.WatchedSeries },
}

// validate rejects keys outside the closed kind and category sets.
func (k ListKey) validate() error {
	if !k.Kind.IsValid() {
		return ErrIllegalArgument(fmt.Sprintf("unknown list: %q", k.Kind))
	}
	if !k.Category.IsValid() {
		return ErrIllegalArgument(fmt.Sprintf("unknown category: %q", k.Category))
	}
	return nil
}

// List returns the id set selected by key, allocating it when empty.
func (u *User) List(key ListKey) (IDSet, error) {
	accessor, ok := listAccessors[key]
	if !ok {
		if err := key.validate(); err != nil {
			return nil, err
		}
		return nil, ErrIllegalArgument(fmt.Sprintf("unknown list: %s", key))
	}
	set := accessor(u)
	if *set == nil {
		*set = IDSet{}
	}
	return *set, nil
}

// ListMembershipRequest routes a single list mutation.
type ListMembershipRequest struct {
	Username string
	ID       int64
	Kind     ListKind
	Category Category
}

func (r ListMembershipRequest) key() ListKey {
	return ListKey{Kind: r.Kind, Category: r.Category}
}
