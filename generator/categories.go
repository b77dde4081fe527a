package generator

import (
	"github.com/pythonsogood/dbms-nosql/faker"
	"github.com/pythonsogood/dbms-nosql/models"
)

// GenerateCategories builds a shallow forest. A category may only point at a
// category generated before it, so the parent graph has no cycles.
func GenerateCategories(p *faker.Provider, opts Options) []models.Category {
	categories := make([]models.Category, 0, opts.CategoryCount)
	for i := 0; i < opts.CategoryCount; i++ {
		category := models.Category{
			ID:   p.ObjectID(),
			Name: p.Department(),
		}
		if len(categories) > 0 && p.Chance(opts.ChildCategoryProbability) {
			parentID := categories[p.IntBetween(0, len(categories)-1)].ID
			category.ParentID = &parentID
		}
		categories = append(categories, category)
	}
	return categories
}
