package generator

import (
	"fmt"

	apperrors "github.com/pythonsogood/dbms-nosql/errors"
	"github.com/pythonsogood/dbms-nosql/faker"
	"github.com/pythonsogood/dbms-nosql/models"
)

// GenerateProducts assigns each product a category picked uniformly from categories.
func GenerateProducts(p *faker.Provider, categories []models.Category, opts Options) ([]models.Product, error) {
	products := make([]models.Product, 0, opts.ProductCount)
	for i := 0; i < opts.ProductCount; i++ {
		category, err := faker.Pick(p, categories)
		if err != nil {
			return nil, apperrors.Precondition(fmt.Sprintf("product %d needs a category", i), err)
		}

		createdAt := p.RecentDate()
		updatedAt, err := p.DateBetween(createdAt, p.Now())
		if err != nil {
			return nil, apperrors.Precondition(fmt.Sprintf("product %d quantity timestamp", i), err)
		}

		imageCount := p.IntBetween(opts.ImagesPerProduct.Min, opts.ImagesPerProduct.Max)
		images := make([]string, 0, imageCount)
		for j := 0; j < imageCount; j++ {
			images = append(images, p.ImageURL())
		}

		products = append(products, models.Product{
			ID:                p.ObjectID(),
			CategoryID:        category.ID,
			Name:              p.ProductName(),
			Description:       p.ProductDescription(),
			Price:             p.Price(opts.MinPrice, opts.MaxPrice),
			SKU:               p.SKU(),
			CreatedAt:         createdAt,
			Quantity:          p.IntBetween(opts.ProductQuantity.Min, opts.ProductQuantity.Max),
			QuantityUpdatedAt: updatedAt,
			Images:            images,
		})
	}
	return products, nil
}
