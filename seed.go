package accounts

import (
	"context"
	"fmt"
	"os"

	"github.com/goliatone/go-print"
	"gopkg.in/yaml.v3"
)

// SeedUser is a user entry in a seed file.
type SeedUser struct {
	Username    string   `yaml:"username"`
	Email       string   `yaml:"email"`
	Password    string   `yaml:"password"`
	Authorities []string `yaml:"authorities"`
}

// SeedFile is the YAML document read by SeedFromFile.
type SeedFile struct {
	Users []SeedUser `yaml:"users"`
}

// SeedFromFile registers the users listed in path. Users that already
// exist are skipped. It returns the number of users created.
func SeedFromFile(ctx context.Context, directory *Directory, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var file SeedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	return Seed(ctx, directory, file.Users)
}

// Seed registers users through RegisterUserHandler.
func Seed(ctx context.Context, directory *Directory, users []SeedUser) (int, error) {
	handler := NewRegisterUserHandler(directory)
	created := 0
	for _, u := range users {
		if _, err := directory.GetUser(ctx, u.Username); err == nil {
			continue
		} else if !IsUsernameNotFound(err) {
			return created, err
		}

		err := handler.Execute(ctx, RegisterUserMessage{
			Username:    u.Username,
			Email:       u.Email,
			Password:    u.Password,
			Authorities: u.Authorities,
		})
		if err != nil {
			return created, fmt.Errorf("seed user %s: %w", CanonicalUsername(u.Username), err)
		}
		created++
	}

	if created > 0 {
		names := make([]string, 0, len(users))
		for _, u := range users {
			names = append(names, CanonicalUsername(u.Username))
		}
		directory.logger.Info("seeded users", "count", created, "users", print.MaybePrettyJSON(names))
	}
	return created, nil
}
