package controllers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"order-verify-service/middlewares"
	"order-verify-service/models"
	"order-verify-service/rabbitmq"
	"order-verify-service/services"
	"order-verify-service/store"
)

var (
	rabbitMQ     *rabbitmq.RabbitMQ
	orderService *services.OrderService
	orderStore   store.Store
)

func SetRabbitMQ(rmq *rabbitmq.RabbitMQ) {
	rabbitMQ = rmq
}

func SetOrderService(svc *services.OrderService) {
	orderService = svc
}

func SetStore(st store.Store) {
	orderStore = st
}

// VerifyAndAddOrder handles the post-checkout confirmation: the cart, the
// delivery address and the gateway payment fields come in, the order total
// is recomputed from the catalog and the payment signature is checked. A
// signature mismatch still records the order, with failed payment status.
func VerifyAndAddOrder(c *gin.Context) {
	defer func() {
		status := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("verify_and_add", status)
	}()
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"status": false, "message": "User not authenticated"})
		return
	}

	var req models.VerifyOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Missing required fields: razorpay_payment_id, razorpay_order_id, razorpay_signature, products or address"})
		return
	}

	result, err := orderService.VerifyAndCreateOrder(c.Request.Context(), &req, userID.(int64))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": err.Error()})
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"status": false, "message": err.Error()})
		case errors.Is(err, services.ErrAlreadyProcessed):
			c.JSON(http.StatusConflict, gin.H{"status": false, "message": "Payment already processed"})
		default:
			log.Printf("Error verifying payment: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Internal server error during payment verification"})
		}
		return
	}

	middlewares.RecordPaymentVerification(result.Verified)

	statusCode := http.StatusOK
	if !result.Verified {
		statusCode = http.StatusBadRequest
	}
	c.JSON(statusCode, gin.H{"status": result.Verified, "message": result.Message})

	// Events go out after the response; publishing failures never affect
	// the already-persisted order.
	if rabbitMQ != nil {
		priority := 5
		if result.TotalAmount > 1000 {
			priority = 9
		}
		event := models.OrderEvent{
			OrderID:  result.OrderID,
			UserID:   userID.(int64),
			Type:     "created",
			Status:   result.PaymentStatus,
			Total:    result.TotalAmount,
			Occurred: time.Now(),
		}
		if err := rabbitMQ.PublishOrderEvent(event, priority); err != nil {
			log.Printf("Failed to publish order created event: %v", err)
		}

		if !result.Verified {
			review := event
			review.Type = "payment_review"
			if err := rabbitMQ.PublishDelayedEvent(review, 15*time.Minute); err != nil {
				log.Printf("Failed to publish delayed payment review event: %v", err)
			}
		}
	}
}

func GetUserOrders(c *gin.Context) {
	defer func() {
		status := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("list", status)
	}()
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"status": false, "message": "User not authenticated"})
		return
	}

	orders, err := orderStore.GetUserOrders(c.Request.Context(), userID.(int64))
	if err != nil {
		log.Printf("Failed to list orders: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": true, "orders": orders})
}

func GetOrderDetails(c *gin.Context) {
	defer func() {
		status := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("details", status)
	}()
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"status": false, "message": "User not authenticated"})
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Invalid order ID"})
		return
	}

	order, err := orderStore.GetOrderByID(c.Request.Context(), orderID, userID.(int64))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "Order not found"})
			return
		}
		log.Printf("Failed to get order %d: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": true, "order": order})
}

func UpdateOrderStatus(c *gin.Context) {
	defer func() {
		status := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("update_status", status)
	}()
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"status": false, "message": "User not authenticated"})
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": "Invalid order ID"})
		return
	}

	var request struct {
		OrderStatus string `json:"order_status" binding:"required,oneof=Pending Processing Shipped Delivered Cancelled"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": err.Error()})
		return
	}

	if err := orderStore.UpdateOrderStatus(c.Request.Context(), orderID, userID.(int64), request.OrderStatus); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"status": false, "message": "Order not found or not authorized"})
			return
		}
		log.Printf("Failed to update order %d: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": false, "message": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": true, "message": "Order updated successfully"})

	if rabbitMQ != nil {
		priority := 5
		if request.OrderStatus == models.OrderCancelled {
			priority = 8
		}
		event := models.OrderEvent{
			OrderID:  orderID,
			UserID:   userID.(int64),
			Type:     "status_updated",
			Status:   request.OrderStatus,
			Occurred: time.Now(),
		}
		if err := rabbitMQ.PublishOrderEvent(event, priority); err != nil {
			log.Printf("Failed to publish order updated event: %v", err)
		}
	}
}

// HandleDeadLetter accepts dead-lettered order events for manual follow-up.
func HandleDeadLetter(c *gin.Context) {
	defer func() {
		status := c.Writer.Status() >= 200 && c.Writer.Status() < 300
		middlewares.RecordOrderOperation("dead_letter", status)
	}()

	var deadLetter struct {
		OrderID int64  `json:"order_id"`
		Reason  string `json:"reason"`
	}

	if err := c.ShouldBindJSON(&deadLetter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": false, "message": err.Error()})
		return
	}

	log.Printf("Handling dead letter for order %d: %s", deadLetter.OrderID, deadLetter.Reason)

	c.JSON(http.StatusOK, gin.H{"status": true, "message": "Dead letter processed"})
}
