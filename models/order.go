package models

import (
	"time"
)

// Payment and order status values persisted with each order.
const (
	PaymentSuccess = "success"
	PaymentFailed  = "failed"

	OrderPending    = "Pending"
	OrderProcessing = "Processing"
	OrderShipped    = "Shipped"
	OrderDelivered  = "Delivered"
	OrderCancelled  = "Cancelled"
)

type Order struct {
	ID            int64       `json:"id"`
	UserID        int64       `json:"user_id"`
	Items         []OrderItem `json:"products"`
	TotalAmount   float64     `json:"total_amount"`
	Address       string      `json:"address"`
	PaymentStatus string      `json:"payment_status"`
	OrderStatus   string      `json:"order_status"`
	TransactionID int64       `json:"transaction_id"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Transaction records the gateway side of a checkout. It is created in the
// same database transaction as its order; the two reference each other by ID.
type Transaction struct {
	ID             int64     `json:"id"`
	Amount         float64   `json:"amount"`
	Status         string    `json:"status"`
	UserID         int64     `json:"user_id"`
	OrderID        int64     `json:"order_id"`
	PaymentID      string    `json:"payment_id"`
	GatewayOrderID string    `json:"gateway_order_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// VerifyOrderRequest is the checkout confirmation the client posts after the
// gateway flow completes. Prices are never part of it; any extra fields a
// client sends are dropped at bind time.
type VerifyOrderRequest struct {
	RazorpayPaymentID string     `json:"razorpay_payment_id" binding:"required"`
	RazorpayOrderID   string     `json:"razorpay_order_id" binding:"required"`
	RazorpaySignature string     `json:"razorpay_signature" binding:"required"`
	Products          []CartLine `json:"products" binding:"required,min=1,dive"`
	Address           string     `json:"address" binding:"required"`
}

type CartLine struct {
	ProductID string `json:"_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type OrderItemDetail struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Subtotal  float64 `json:"subtotal"`
}

type OrderResponse struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"user_id"`
	TotalAmount   float64           `json:"total_amount"`
	Address       string            `json:"address"`
	PaymentStatus string            `json:"payment_status"`
	OrderStatus   string            `json:"order_status"`
	TransactionID int64             `json:"transaction_id"`
	CreatedAt     time.Time         `json:"created_at"`
	Items         []OrderItemDetail `json:"items"`
}

type OrderEvent struct {
	OrderID  int64     `json:"order_id"`
	UserID   int64     `json:"user_id"`
	Type     string    `json:"type"` // created, status_updated, payment_review
	Status   string    `json:"status"`
	Total    float64   `json:"total"`
	Occurred time.Time `json:"occurred"`
}
