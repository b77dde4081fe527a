package generator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pythonsogood/dbms-nosql/models"
)

// ConsistencyError lists every rule a dataset breaks.
type ConsistencyError struct {
	Violations []string
}

func (e *ConsistencyError) Error() string {
	const shown = 10
	msg := fmt.Sprintf("dataset has %d consistency violation(s)", len(e.Violations))
	if len(e.Violations) <= shown {
		return msg + ": " + strings.Join(e.Violations, "; ")
	}
	return msg + ": " + strings.Join(e.Violations[:shown], "; ") + "; ..."
}

type checker struct {
	violations []string
}

func (c *checker) failf(format string, args ...interface{}) {
	c.violations = append(c.violations, fmt.Sprintf(format, args...))
}

// Check verifies referential integrity, causal timestamp ordering and the
// derived order fields of ds. It returns a *ConsistencyError or nil.
//
// Reviews carry no order reference, so a review's lower bound is the
// earliest order by that user containing the product. A review drawn from a
// later order but dated between the two orders still passes.
func Check(ds *models.Dataset, opts Options) error {
	c := &checker{}

	categoryIndex := make(map[primitive.ObjectID]int, len(ds.Categories))
	for i, cat := range ds.Categories {
		if _, dup := categoryIndex[cat.ID]; dup {
			c.failf("category %s: duplicate id", cat.ID.Hex())
		}
		if cat.ParentID != nil {
			parent, ok := categoryIndex[*cat.ParentID]
			if !ok || parent >= i {
				c.failf("category %s: parent %s not generated before it", cat.ID.Hex(), cat.ParentID.Hex())
			}
		}
		categoryIndex[cat.ID] = i
	}

	products := make(map[primitive.ObjectID]models.Product, len(ds.Products))
	for _, p := range ds.Products {
		if _, ok := categoryIndex[p.CategoryID]; !ok {
			c.failf("product %s: unknown category %s", p.ID.Hex(), p.CategoryID.Hex())
		}
		if p.QuantityUpdatedAt.Before(p.CreatedAt) {
			c.failf("product %s: quantity_updated_at before created_at", p.ID.Hex())
		}
		if !p.Price.IsPositive() {
			c.failf("product %s: price %s is not positive", p.ID.Hex(), p.Price)
		}
		if !models.SKUPattern.MatchString(p.SKU) {
			c.failf("product %s: malformed sku %q", p.ID.Hex(), p.SKU)
		}
		products[p.ID] = p
	}

	users := make(map[primitive.ObjectID]models.User, len(ds.Users))
	emails := make(map[string]struct{}, len(ds.Users))
	for _, u := range ds.Users {
		if _, dup := emails[u.Email]; dup {
			c.failf("user %s: duplicate email %s", u.ID.Hex(), u.Email)
		}
		emails[u.Email] = struct{}{}
		if u.PasswordHash == "" {
			c.failf("user %s: missing password hash", u.ID.Hex())
		}
		users[u.ID] = u
	}

	addresses := make(map[primitive.ObjectID]models.Address, len(ds.Addresses))
	cities := make(map[primitive.ObjectID]string, len(ds.Users))
	for _, a := range ds.Addresses {
		if _, ok := users[a.UserID]; !ok {
			c.failf("address %s: unknown user %s", a.ID.Hex(), a.UserID.Hex())
		}
		place := a.Country + "/" + a.City
		if prev, seen := cities[a.UserID]; seen && prev != place {
			c.failf("address %s: user %s has addresses in %s and %s", a.ID.Hex(), a.UserID.Hex(), prev, place)
		}
		cities[a.UserID] = place
		addresses[a.ID] = a
	}

	// orderedAt[user][product] holds the earliest order time covering that pair.
	orderedAt := make(map[primitive.ObjectID]map[primitive.ObjectID]time.Time)
	for _, o := range ds.Orders {
		c.checkOrder(o, users, addresses, products, opts)
		if orderedAt[o.UserID] == nil {
			orderedAt[o.UserID] = make(map[primitive.ObjectID]time.Time)
		}
		for _, item := range o.Items {
			if prev, ok := orderedAt[o.UserID][item.ProductID]; !ok || o.CreatedAt.Before(prev) {
				orderedAt[o.UserID][item.ProductID] = o.CreatedAt
			}
		}
	}

	for _, r := range ds.Reviews {
		if r.Rating < models.MinRating || r.Rating > models.MaxRating {
			c.failf("review %s: rating %d out of range", r.ID.Hex(), r.Rating)
		}
		at, ok := orderedAt[r.UserID][r.ProductID]
		if !ok {
			c.failf("review %s: user %s never ordered product %s", r.ID.Hex(), r.UserID.Hex(), r.ProductID.Hex())
			continue
		}
		if r.CreatedAt.Before(at) {
			c.failf("review %s: created before the order", r.ID.Hex())
		}
	}

	if len(c.violations) > 0 {
		return &ConsistencyError{Violations: c.violations}
	}
	return nil
}

func (c *checker) checkOrder(o models.Order, users map[primitive.ObjectID]models.User, addresses map[primitive.ObjectID]models.Address, products map[primitive.ObjectID]models.Product, opts Options) {
	id := o.ID.Hex()

	user, ok := users[o.UserID]
	if !ok {
		c.failf("order %s: unknown user %s", id, o.UserID.Hex())
	} else if o.CreatedAt.Before(user.CreatedAt) {
		c.failf("order %s: created before its user", id)
	}

	if addr, ok := addresses[o.AddressID]; !ok {
		c.failf("order %s: unknown address %s", id, o.AddressID.Hex())
	} else if addr.UserID != o.UserID {
		c.failf("order %s: address %s belongs to another user", id, o.AddressID.Hex())
	}

	if len(o.Items) == 0 {
		c.failf("order %s: no items", id)
	}
	total := models.Zero
	for _, item := range o.Items {
		if item.Quantity < 1 {
			c.failf("order %s: item quantity %d", id, item.Quantity)
		}
		product, ok := products[item.ProductID]
		if !ok {
			c.failf("order %s: unknown product %s", id, item.ProductID.Hex())
			continue
		}
		if !item.Price.Equal(product.Price) {
			c.failf("order %s: item price %s differs from product price %s", id, item.Price, product.Price)
		}
		if o.CreatedAt.Before(product.CreatedAt) {
			c.failf("order %s: created before product %s", id, product.ID.Hex())
		}
		total = total.Add(lineAmount(item, opts))
	}
	if !total.Equal(o.TotalAmount) {
		c.failf("order %s: total_amount %s, items sum to %s", id, o.TotalAmount, total)
	}

	if o.PaymentDate.Before(o.CreatedAt) {
		c.failf("order %s: payment_date before created_at", id)
	}
	switch o.Status {
	case models.OrderStatusPending, models.OrderStatusDelivered:
	default:
		c.failf("order %s: unknown status %q", id, o.Status)
	}
	switch o.PaymentStatus {
	case models.PaymentStatusPaid, models.PaymentStatusUnpaid:
	default:
		c.failf("order %s: unknown payment_status %q", id, o.PaymentStatus)
	}
	switch o.PaymentMethod {
	case models.PaymentMethodPaypal, models.PaymentMethodCard:
	default:
		c.failf("order %s: unknown payment_method %q", id, o.PaymentMethod)
	}
	if o.Status == models.OrderStatusDelivered && o.PaymentStatus != models.PaymentStatusPaid {
		c.failf("order %s: delivered but %s", id, o.PaymentStatus)
	}
}

// IsConsistencyError reports whether err came from Check.
func IsConsistencyError(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}
