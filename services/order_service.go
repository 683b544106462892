package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"order-verify-service/models"
	"order-verify-service/razorpay"
	"order-verify-service/store"
)

var (
	// ErrInvalidRequest covers malformed input: missing gateway fields,
	// empty cart, blank address, non-positive quantities or total.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound covers cart products or users that do not resolve.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyProcessed means this (gateway order, payment) pair was
	// persisted by an earlier submission.
	ErrAlreadyProcessed = errors.New("payment already processed")
)

// VerifyOrderResult is what a completed verification call produces. A failed
// signature is not an error: the order is persisted with failed status and
// Verified is false.
type VerifyOrderResult struct {
	OrderID       int64
	TransactionID int64
	TotalAmount   float64
	PaymentStatus string
	Verified      bool
	Message       string
}

// OrderService owns the checkout verification flow: it re-derives the order
// total from catalog prices, checks the gateway signature and persists the
// order/transaction pair atomically.
type OrderService struct {
	store    store.Store
	razorpay *razorpay.Client
}

func NewOrderService(st store.Store, rzp *razorpay.Client) *OrderService {
	return &OrderService{store: st, razorpay: rzp}
}

// VerifyAndCreateOrder runs the full checkout verification. Steps, in order:
// structural validation, user lookup, catalog resolution, total
// recomputation, signature verification, atomic persistence. Nothing is
// written before every precondition holds.
func (s *OrderService) VerifyAndCreateOrder(ctx context.Context, req *models.VerifyOrderRequest, userID int64) (*VerifyOrderResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: user not found", ErrNotFound)
	}

	distinct := distinctProductIDs(req.Products)
	products, err := s.store.FindProductsByIDs(ctx, distinct)
	if err != nil {
		return nil, fmt.Errorf("resolving products: %w", err)
	}
	if len(products) < len(distinct) {
		return nil, fmt.Errorf("%w: some products were not found", ErrNotFound)
	}

	priceByID := make(map[string]float64, len(products))
	for _, p := range products {
		priceByID[p.ID] = p.Price
	}

	var totalAmount float64
	for _, line := range req.Products {
		// A line whose product slipped past the batch check contributes
		// nothing rather than poisoning the total.
		totalAmount += priceByID[line.ProductID] * float64(line.Quantity)
	}
	if totalAmount <= 0 || math.IsNaN(totalAmount) || math.IsInf(totalAmount, 0) {
		return nil, fmt.Errorf("%w: invalid total amount", ErrInvalidRequest)
	}

	paymentStatus := models.PaymentFailed
	if s.razorpay.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		paymentStatus = models.PaymentSuccess
	}

	items := make([]models.OrderItem, 0, len(req.Products))
	for _, line := range req.Products {
		items = append(items, models.OrderItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	order := &models.Order{
		UserID:        userID,
		Items:         items,
		TotalAmount:   totalAmount,
		Address:       strings.TrimSpace(req.Address),
		PaymentStatus: paymentStatus,
		OrderStatus:   models.OrderPending,
	}
	txn := &models.Transaction{
		Amount:         totalAmount,
		Status:         paymentStatus,
		UserID:         userID,
		PaymentID:      req.RazorpayPaymentID,
		GatewayOrderID: req.RazorpayOrderID,
	}

	orderID, txnID, err := s.store.CreateOrderAndTransaction(ctx, order, txn)
	if err != nil {
		if errors.Is(err, store.ErrDuplicatePayment) {
			return nil, ErrAlreadyProcessed
		}
		return nil, fmt.Errorf("saving order: %w", err)
	}

	result := &VerifyOrderResult{
		OrderID:       orderID,
		TransactionID: txnID,
		TotalAmount:   totalAmount,
		PaymentStatus: paymentStatus,
		Verified:      paymentStatus == models.PaymentSuccess,
	}
	if result.Verified {
		result.Message = "Order added successfully and payment verified successfully"
	} else {
		result.Message = "Payment verification failed, order saved with failed status"
	}
	return result, nil
}

func validateRequest(req *models.VerifyOrderRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty request", ErrInvalidRequest)
	}
	if req.RazorpayPaymentID == "" || req.RazorpayOrderID == "" || req.RazorpaySignature == "" {
		return fmt.Errorf("%w: missing razorpay_payment_id, razorpay_order_id or razorpay_signature", ErrInvalidRequest)
	}
	if len(req.Products) == 0 {
		return fmt.Errorf("%w: products are required", ErrInvalidRequest)
	}
	for _, line := range req.Products {
		if line.ProductID == "" {
			return fmt.Errorf("%w: product id is required", ErrInvalidRequest)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be greater than zero", ErrInvalidRequest)
		}
	}
	if strings.TrimSpace(req.Address) == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidRequest)
	}
	return nil
}

func distinctProductIDs(lines []models.CartLine) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}
