package generator

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/pythonsogood/dbms-nosql/errors"
	"github.com/pythonsogood/dbms-nosql/faker"
	"github.com/pythonsogood/dbms-nosql/models"
)

// GenerateOrders assembles orders for every user from that user's own
// addresses and the product catalogue.
//
// An order's created_at is drawn from [maxDate, now], where maxDate folds the
// user's created_at and the created_at of every product on the order. Unless
// opts.TotalIncludesQuantity is set, total_amount is the sum of item unit prices.
func GenerateOrders(p *faker.Provider, users []models.User, addresses []models.Address, products []models.Product, opts Options) ([]models.Order, error) {
	byUser := make(map[primitive.ObjectID][]models.Address, len(users))
	for _, a := range addresses {
		byUser[a.UserID] = append(byUser[a.UserID], a)
	}

	orders := make([]models.Order, 0, len(users)*opts.OrdersPerUser.Max)
	for _, user := range users {
		count := p.IntBetween(opts.OrdersPerUser.Min, opts.OrdersPerUser.Max)
		for j := 0; j < count; j++ {
			order, err := assembleOrder(p, user, byUser[user.ID], products, opts)
			if err != nil {
				return nil, err
			}
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func assembleOrder(p *faker.Provider, user models.User, userAddresses []models.Address, products []models.Product, opts Options) (models.Order, error) {
	address, err := faker.Pick(p, userAddresses)
	if err != nil {
		return models.Order{}, apperrors.Precondition(fmt.Sprintf("user %s has no address to ship to", user.ID.Hex()), err)
	}

	itemCount := p.IntBetween(opts.ItemsPerOrder.Min, opts.ItemsPerOrder.Max)
	items := make([]models.OrderItem, 0, itemCount)
	total := models.Zero
	maxDate := user.CreatedAt

	for k := 0; k < itemCount; k++ {
		product, err := faker.Pick(p, products)
		if err != nil {
			return models.Order{}, apperrors.Precondition("order item needs a product", err)
		}
		maxDate = latest(maxDate, product.CreatedAt)

		item := models.OrderItem{
			ProductID: product.ID,
			Quantity:  p.IntBetween(opts.ItemQuantity.Min, opts.ItemQuantity.Max),
			Price:     product.Price,
		}
		total = total.Add(lineAmount(item, opts))
		items = append(items, item)
	}

	createdAt, err := p.DateBetween(maxDate, p.Now())
	if err != nil {
		return models.Order{}, apperrors.Precondition(fmt.Sprintf("order for user %s references an entity created after now", user.ID.Hex()), err)
	}

	status := models.OrderStatusDelivered
	if p.Chance(opts.PendingProbability) {
		status = models.OrderStatusPending
	}

	method := models.PaymentMethodCard
	if p.Chance(0.5) {
		method = models.PaymentMethodPaypal
	}

	paymentStatus := models.PaymentStatusPaid
	if status != models.OrderStatusDelivered && p.Chance(0.5) {
		paymentStatus = models.PaymentStatusUnpaid
	}

	paymentDate, err := p.DateBetween(createdAt, p.Now())
	if err != nil {
		return models.Order{}, apperrors.Precondition("payment date", err)
	}

	return models.Order{
		ID:            p.ObjectID(),
		UserID:        user.ID,
		AddressID:     address.ID,
		Status:        status,
		TotalAmount:   total,
		CreatedAt:     createdAt,
		Items:         items,
		PaymentMethod: method,
		PaymentStatus: paymentStatus,
		PaymentDate:   paymentDate,
	}, nil
}

// lineAmount is what one item contributes to its order's total.
func lineAmount(item models.OrderItem, opts Options) models.Money {
	if opts.TotalIncludesQuantity {
		return item.Price.Times(item.Quantity)
	}
	return item.Price
}

// latest returns the later of a and b.
func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
