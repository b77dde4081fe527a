package generator

import (
	"fmt"

	apperrors "github.com/pythonsogood/dbms-nosql/errors"
	"github.com/pythonsogood/dbms-nosql/faker"
	"github.com/pythonsogood/dbms-nosql/models"
)

// GenerateReviews attaches, independently per line item, a review written by
// the order's user about the item's product, no earlier than the order.
func GenerateReviews(p *faker.Provider, orders []models.Order, opts Options) ([]models.Review, error) {
	var reviews []models.Review
	for _, order := range orders {
		for _, item := range order.Items {
			if !p.Chance(opts.ReviewProbability) {
				continue
			}
			createdAt, err := p.DateBetween(order.CreatedAt, p.Now())
			if err != nil {
				return nil, apperrors.Precondition(fmt.Sprintf("review for order %s", order.ID.Hex()), err)
			}
			reviews = append(reviews, models.Review{
				ID:        p.ObjectID(),
				UserID:    order.UserID,
				ProductID: item.ProductID,
				Rating:    p.IntBetween(models.MinRating, models.MaxRating),
				Comment:   p.Sentences(p.IntBetween(opts.ReviewSentences.Min, opts.ReviewSentences.Max)),
				CreatedAt: createdAt,
			})
		}
	}
	return reviews, nil
}
