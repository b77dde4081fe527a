package models

// Collection names in the target database.
const (
	CollectionUsers      = "users"
	CollectionAddresses  = "addresses"
	CollectionCategories = "categories"
	CollectionProducts   = "products"
	CollectionReviews    = "reviews"
	CollectionOrders     = "orders"
)

// WriteOrder is the arrival order the storefront's datastore expects.
var WriteOrder = []string{
	CollectionUsers,
	CollectionAddresses,
	CollectionCategories,
	CollectionProducts,
	CollectionReviews,
	CollectionOrders,
}

// Dataset holds the six generated collections of one run.
type Dataset struct {
	Categories []Category `json:"categories"`
	Products   []Product  `json:"products"`
	Users      []User     `json:"users"`
	Addresses  []Address  `json:"addresses"`
	Orders     []Order    `json:"orders"`
	Reviews    []Review   `json:"reviews"`
}

// Documents returns the documents of the named collection, ready for an insert-many call.
// It returns nil for an unknown name.
func (d *Dataset) Documents(collection string) []interface{} {
	switch collection {
	case CollectionUsers:
		return toDocuments(d.Users)
	case CollectionAddresses:
		return toDocuments(d.Addresses)
	case CollectionCategories:
		return toDocuments(d.Categories)
	case CollectionProducts:
		return toDocuments(d.Products)
	case CollectionReviews:
		return toDocuments(d.Reviews)
	case CollectionOrders:
		return toDocuments(d.Orders)
	}
	return nil
}

// Counts reports the number of documents per collection.
func (d *Dataset) Counts() map[string]int {
	return map[string]int{
		CollectionUsers:      len(d.Users),
		CollectionAddresses:  len(d.Addresses),
		CollectionCategories: len(d.Categories),
		CollectionProducts:   len(d.Products),
		CollectionReviews:    len(d.Reviews),
		CollectionOrders:     len(d.Orders),
	}
}

func toDocuments[T any](items []T) []interface{} {
	docs := make([]interface{}, len(items))
	for i := range items {
		docs[i] = items[i]
	}
	return docs
}
