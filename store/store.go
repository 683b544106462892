package store

import (
	"context"

	"order-verify-service/models"
)

type ProductRow struct {
	ID    string
	Name  string
	Price float64
}

// Store is the persistence surface the order verification flow needs. The
// MySQL implementation lives in mysql_store.go; tests swap in fakes.
type Store interface {
	// FindProductsByIDs resolves catalog rows for the given IDs in a single
	// batch query. Missing IDs are simply absent from the result.
	FindProductsByIDs(ctx context.Context, ids []string) ([]ProductRow, error)

	UserExists(ctx context.Context, userID int64) (bool, error)

	// CreateOrderAndTransaction persists the order, its items, the gateway
	// transaction, the order->transaction back-reference and the user's
	// order counter in one database transaction. Returns the new order and
	// transaction IDs. A duplicate (gateway_order_id, payment_id) pair
	// returns ErrDuplicatePayment with nothing written.
	CreateOrderAndTransaction(ctx context.Context, order *models.Order, txn *models.Transaction) (int64, int64, error)

	GetUserOrders(ctx context.Context, userID int64) ([]models.OrderResponse, error)
	GetOrderByID(ctx context.Context, orderID, userID int64) (*models.OrderResponse, error)
	UpdateOrderStatus(ctx context.Context, orderID, userID int64, status string) error
}
