package generator

import (
	"fmt"
	"strings"

	apperrors "github.com/pythonsogood/dbms-nosql/errors"
	"github.com/pythonsogood/dbms-nosql/faker"
	"github.com/pythonsogood/dbms-nosql/models"
)

// GenerateUsers builds customer accounts and their shipping addresses.
// All addresses of one user share a country and city.
func GenerateUsers(p *faker.Provider, hasher PasswordHasher, opts Options) ([]models.User, []models.Address, error) {
	users := make([]models.User, 0, opts.UserCount)
	addresses := make([]models.Address, 0, opts.UserCount*opts.AddressesPerUser.Max)
	emails := make(map[string]struct{}, opts.UserCount)

	for i := 0; i < opts.UserCount; i++ {
		first, last := p.FirstName(), p.LastName()

		hash, err := hasher.Hash(p.Password())
		if err != nil {
			return nil, nil, fmt.Errorf("hash password for user %d: %w", i, err)
		}

		user := models.User{
			ID:           p.ObjectID(),
			Email:        uniqueEmail(p.Email(first, last), emails),
			PasswordHash: hash,
			FullName:     first + " " + last,
			Phone:        p.Phone(),
			Role:         models.RoleCustomer,
			CreatedAt:    p.RecentDate(),
		}

		country, city := p.Country(), p.City()
		count := p.IntBetween(opts.AddressesPerUser.Min, opts.AddressesPerUser.Max)
		if count < 1 {
			return nil, nil, apperrors.Precondition(fmt.Sprintf("user %d has no address", i), nil)
		}
		for j := 0; j < count; j++ {
			addresses = append(addresses, models.Address{
				ID:         p.ObjectID(),
				UserID:     user.ID,
				Country:    country,
				City:       city,
				Street:     p.Street(),
				PostalCode: p.PostalCode(),
			})
		}

		users = append(users, user)
	}
	return users, addresses, nil
}

// uniqueEmail suffixes the mailbox until it is unused in this run.
func uniqueEmail(email string, seen map[string]struct{}) string {
	candidate := strings.ToLower(email)
	local, domain, _ := strings.Cut(candidate, "@")
	for n := 2; ; n++ {
		if _, taken := seen[candidate]; !taken {
			seen[candidate] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s.%d@%s", local, n, domain)
	}
}
