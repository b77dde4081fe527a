// Package generator builds a causally consistent e-commerce dataset.
//
// Stages run in dependency order and hand their output to the next stage
// explicitly: categories, products, users with addresses, orders, reviews.
package generator

import (
	"fmt"

	"github.com/pythonsogood/dbms-nosql/faker"
	"github.com/pythonsogood/dbms-nosql/models"
)

// Generate runs every stage once and returns the six collections.
func Generate(p *faker.Provider, hasher PasswordHasher, opts Options) (*models.Dataset, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	categories := GenerateCategories(p, opts)

	products, err := GenerateProducts(p, categories, opts)
	if err != nil {
		return nil, fmt.Errorf("generate products: %w", err)
	}

	users, addresses, err := GenerateUsers(p, hasher, opts)
	if err != nil {
		return nil, fmt.Errorf("generate users: %w", err)
	}

	orders, err := GenerateOrders(p, users, addresses, products, opts)
	if err != nil {
		return nil, fmt.Errorf("generate orders: %w", err)
	}

	reviews, err := GenerateReviews(p, orders, opts)
	if err != nil {
		return nil, fmt.Errorf("generate reviews: %w", err)
	}

	return &models.Dataset{
		Categories: categories,
		Products:   products,
		Users:      users,
		Addresses:  addresses,
		Orders:     orders,
		Reviews:    reviews,
	}, nil
}
