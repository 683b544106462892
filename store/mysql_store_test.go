package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"order-verify-service/models"
)

func TestFindProductsByIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()
	s := NewMySQLStore(db)

	// empty input -> no query at all
	if rows, err := s.FindProductsByIDs(context.Background(), nil); err != nil || rows != nil {
		t.Fatalf("expected nil result for empty ids, got %v, %v", rows, err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, price FROM products WHERE id IN (?,?)`)).
		WithArgs("p1", "p2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}).
			AddRow("p1", "Gas stove", 500.0).
			AddRow("p2", "Regulator", 120.5))

	products, err := s.FindProductsByIDs(context.Background(), []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("FindProductsByIDs failed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[0].Price != 500.0 || products[1].Price != 120.5 {
		t.Fatalf("unexpected prices: %+v", products)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserExists(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := NewMySQLStore(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM users WHERE id = ?`)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := s.UserExists(context.Background(), 42)
	if err != nil || !exists {
		t.Fatalf("expected existing user, got %v, %v", exists, err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM users WHERE id = ?`)).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	exists, err = s.UserExists(context.Background(), 99)
	if err != nil || exists {
		t.Fatalf("expected missing user without error, got %v, %v", exists, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func testOrderAndTxn() (*models.Order, *models.Transaction) {
	order := &models.Order{
		UserID: 42,
		Items: []models.OrderItem{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 1},
		},
		TotalAmount:   1120.5,
		Address:       "42 Harbour Lane",
		PaymentStatus: models.PaymentSuccess,
		OrderStatus:   models.OrderPending,
	}
	txn := &models.Transaction{
		Amount:         1120.5,
		Status:         models.PaymentSuccess,
		UserID:         42,
		PaymentID:      "pay_rzp_001",
		GatewayOrderID: "order_rzp_001",
	}
	return order, txn
}

func TestCreateOrderAndTransactionCommitsEverythingTogether(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := NewMySQLStore(db)

	order, txn := testOrderAndTxn()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders (user_id, total_amount, address, payment_status, order_status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)).
		WithArgs(int64(42), 1120.5, "42 Harbour Lane", "success", "Pending", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items (order_id, product_id, quantity) VALUES (?, ?, ?)`)).
		WithArgs(int64(7), "p1", 2).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items (order_id, product_id, quantity) VALUES (?, ?, ?)`)).
		WithArgs(int64(7), "p2", 1).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transactions (amount, status, user_id, order_id, payment_id, gateway_order_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)).
		WithArgs(1120.5, "success", int64(42), int64(7), "pay_rzp_001", "order_rzp_001", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET transaction_id = ? WHERE id = ?`)).
		WithArgs(int64(3), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET order_count = order_count + 1 WHERE id = ?`)).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	orderID, txnID, err := s.CreateOrderAndTransaction(context.Background(), order, txn)
	if err != nil {
		t.Fatalf("CreateOrderAndTransaction failed: %v", err)
	}
	if orderID != 7 || txnID != 3 {
		t.Fatalf("unexpected ids: order %d txn %d", orderID, txnID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateOrderAndTransactionDuplicatePaymentRollsBack(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := NewMySQLStore(db)

	order, txn := testOrderAndTxn()
	order.Items = order.Items[:1]

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, _, err := s.CreateOrderAndTransaction(context.Background(), order, txn)
	if !errors.Is(err, ErrDuplicatePayment) {
		t.Fatalf("expected ErrDuplicatePayment, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateOrderAndTransactionRollsBackOnItemFailure(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := NewMySQLStore(db)

	order, txn := testOrderAndTxn()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, _, err := s.CreateOrderAndTransaction(context.Background(), order, txn)
	if err == nil {
		t.Fatalf("expected error from item insert")
	}
	if errors.Is(err, ErrDuplicatePayment) {
		t.Fatalf("plain failures must not map to duplicate payment")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	s := NewMySQLStore(db)

	mock.ExpectExec(`UPDATE orders`).
		WithArgs("Shipped", int64(7), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.UpdateOrderStatus(context.Background(), 7, 42, "Shipped"); err != nil {
		t.Fatalf("UpdateOrderStatus failed: %v", err)
	}

	// no rows touched -> sql.ErrNoRows
	mock.ExpectExec(`UPDATE orders`).
		WithArgs("Shipped", int64(8), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.UpdateOrderStatus(context.Background(), 8, 42, "Shipped"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
