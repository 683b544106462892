package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"order-verify-service/models"
)

// ErrDuplicatePayment means a transaction for the same
// (gateway_order_id, payment_id) pair already exists.
var ErrDuplicatePayment = errors.New("payment already processed")

type MySQLStore struct {
	DB *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{DB: db}
}

func (s *MySQLStore) FindProductsByIDs(ctx context.Context, ids []string) ([]ProductRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.DB.QueryContext(ctx,
		"SELECT id, name, price FROM products WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {
			return
		}
	}(rows)

	var out []ProductRow
	for rows.Next() {
		var p ProductRow
		if err := rows.Scan(&p.ID, &p.Name, &p.Price); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *MySQLStore) UserExists(ctx context.Context, userID int64) (bool, error) {
	var one int
	err := s.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *MySQLStore) CreateOrderAndTransaction(ctx context.Context, order *models.Order, txn *models.Transaction) (int64, int64, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now()

	orderResult, err := tx.ExecContext(ctx,
		"INSERT INTO orders (user_id, total_amount, address, payment_status, order_status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		order.UserID, order.TotalAmount, order.Address, order.PaymentStatus, order.OrderStatus, now, now,
	)
	if err != nil {
		return 0, 0, err
	}
	orderID, err := orderResult.LastInsertId()
	if err != nil {
		return 0, 0, err
	}

	for _, item := range order.Items {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, product_id, quantity) VALUES (?, ?, ?)",
			orderID, item.ProductID, item.Quantity,
		); err != nil {
			return 0, 0, err
		}
	}

	txnResult, err := tx.ExecContext(ctx,
		"INSERT INTO transactions (amount, status, user_id, order_id, payment_id, gateway_order_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		txn.Amount, txn.Status, txn.UserID, orderID, txn.PaymentID, txn.GatewayOrderID, now,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, 0, ErrDuplicatePayment
		}
		return 0, 0, err
	}
	txnID, err := txnResult.LastInsertId()
	if err != nil {
		return 0, 0, err
	}

	// Back-reference and user history update ride in the same transaction,
	// so the order/transaction pair and the user's counter commit together.
	if _, err := tx.ExecContext(ctx,
		"UPDATE orders SET transaction_id = ? WHERE id = ?", txnID, orderID,
	); err != nil {
		return 0, 0, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET order_count = order_count + 1 WHERE id = ?", order.UserID,
	); err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	committed = true

	return orderID, txnID, nil
}

func (s *MySQLStore) GetUserOrders(ctx context.Context, userID int64) ([]models.OrderResponse, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT o.id, o.total_amount, o.address, o.payment_status, o.order_status, o.transaction_id, o.created_at,
		       oi.product_id, p.name, oi.quantity, p.price
		FROM orders o
		JOIN order_items oi ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.user_id = ?
		ORDER BY o.created_at DESC, oi.id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {
			return
		}
	}(rows)

	ordersMap := make(map[int64]*models.OrderResponse)
	var orderIDs []int64
	for rows.Next() {
		var (
			orderID       int64
			total         float64
			address       string
			paymentStatus string
			orderStatus   string
			transactionID sql.NullInt64
			createdAt     time.Time
			productID     string
			name          string
			quantity      int
			price         float64
		)
		if err := rows.Scan(&orderID, &total, &address, &paymentStatus, &orderStatus, &transactionID, &createdAt,
			&productID, &name, &quantity, &price); err != nil {
			return nil, err
		}

		if _, exists := ordersMap[orderID]; !exists {
			ordersMap[orderID] = &models.OrderResponse{
				ID:            orderID,
				UserID:        userID,
				TotalAmount:   total,
				Address:       address,
				PaymentStatus: paymentStatus,
				OrderStatus:   orderStatus,
				TransactionID: transactionID.Int64,
				CreatedAt:     createdAt,
				Items:         []models.OrderItemDetail{},
			}
			orderIDs = append(orderIDs, orderID)
		}

		ordersMap[orderID].Items = append(ordersMap[orderID].Items, models.OrderItemDetail{
			ProductID: productID,
			Name:      name,
			Quantity:  quantity,
			Price:     price,
			Subtotal:  price * float64(quantity),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	orders := make([]models.OrderResponse, 0, len(ordersMap))
	for _, id := range orderIDs {
		orders = append(orders, *ordersMap[id])
	}
	return orders, nil
}

func (s *MySQLStore) GetOrderByID(ctx context.Context, orderID, userID int64) (*models.OrderResponse, error) {
	var (
		out           models.OrderResponse
		transactionID sql.NullInt64
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, user_id, total_amount, address, payment_status, order_status, transaction_id, created_at
		FROM orders
		WHERE id = ? AND user_id = ?
	`, orderID, userID).Scan(
		&out.ID, &out.UserID, &out.TotalAmount, &out.Address,
		&out.PaymentStatus, &out.OrderStatus, &transactionID, &out.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	out.TransactionID = transactionID.Int64

	rows, err := s.DB.QueryContext(ctx, `
		SELECT oi.product_id, p.name, oi.quantity, p.price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ?
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {
			return
		}
	}(rows)

	for rows.Next() {
		var item models.OrderItemDetail
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		item.Subtotal = item.Price * float64(item.Quantity)
		out.Items = append(out.Items, item)
	}
	return &out, rows.Err()
}

func (s *MySQLStore) UpdateOrderStatus(ctx context.Context, orderID, userID int64, status string) error {
	result, err := s.DB.ExecContext(ctx, `
		UPDATE orders
		SET order_status = ?, updated_at = NOW()
		WHERE id = ? AND user_id = ?
	`, status, orderID, userID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
