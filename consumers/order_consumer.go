package consumers

import (
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"order-verify-service/config"
	"order-verify-service/database"
	"order-verify-service/models"
)

func StartOrderConsumer(ch *amqp.Channel, cfg *config.Config) {
	msgs, err := ch.Consume(
		cfg.OrderQueue,
		"order-verify-service", // consumer tag
		false,                  // auto-ack
		false,                  // exclusive
		false,                  // no-local
		false,                  // no-wait
		nil,
	)
	if err != nil {
		log.Fatalf("Failed to register consumer: %v", err)
	}

	go func() {
		for msg := range msgs {
			processOrderMessage(msg)
		}
	}()

	dlqMsgs, err := ch.Consume(
		cfg.DeadLetterQueue,
		"order-verify-service-dlq", // consumer tag
		false,                      // auto-ack
		false,                      // exclusive
		false,                      // no-local
		false,                      // no-wait
		nil,
	)
	if err != nil {
		log.Printf("Failed to register DLQ consumer: %v", err)
	}

	go func() {
		for msg := range dlqMsgs {
			processDeadLetterMessage(msg)
		}
	}()
}

func processOrderMessage(msg amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in message processing: %v", r)
		}
	}()

	var event models.OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Printf("Invalid event payload: %v", err)
		err := msg.Nack(false, false) // reject without requeue
		if err != nil {
			return
		}
		return
	}

	log.Printf("Processing order event: ID=%d, Type=%s", event.OrderID, event.Type)

	switch event.Type {
	case "created":
		handleOrderCreated(event)
	case "status_updated":
		handleStatusUpdated(event.OrderID)
	case "payment_review":
		handlePaymentReview(event.OrderID)
	default:
		log.Printf("Unknown event type: %s", event.Type)
	}

	err := msg.Ack(false)
	if err != nil {
		return
	}
}

func processDeadLetterMessage(msg amqp.Delivery) {
	log.Printf("Received dead letter: %s", msg.Body)
	err := msg.Ack(false)
	if err != nil {
		return
	}
}

func handleOrderCreated(event models.OrderEvent) {
	// Downstream fan-out point (notifications, fulfilment) once those exist.
	log.Printf("Handling order created: %d (payment %s, total %.2f)",
		event.OrderID, event.Status, event.Total)
}

func handleStatusUpdated(orderID int64) {
	var status string
	err := database.DB.QueryRow("SELECT order_status FROM orders WHERE id = ?", orderID).Scan(&status)
	if err != nil {
		log.Printf("Failed to get order status: %v", err)
		return
	}

	switch status {
	case models.OrderShipped:
		// shipping notification hook
	case models.OrderCancelled:
		// cancellation handling hook
	}
	log.Printf("Handling status update for order %d: %s", orderID, status)
}

// handlePaymentReview fires from a delayed message published when an order
// was saved with a failed payment. If nothing has changed since, the order
// is cancelled so it does not sit in Pending forever.
func handlePaymentReview(orderID int64) {
	var paymentStatus, orderStatus string
	err := database.DB.QueryRow(
		"SELECT payment_status, order_status FROM orders WHERE id = ?", orderID,
	).Scan(&paymentStatus, &orderStatus)
	if err != nil {
		log.Printf("Failed to get order for payment review: %v", err)
		return
	}

	if paymentStatus == models.PaymentFailed && orderStatus == models.OrderPending {
		_, err := database.DB.Exec(
			"UPDATE orders SET order_status = ?, updated_at = NOW() WHERE id = ?",
			models.OrderCancelled, orderID,
		)
		if err != nil {
			log.Printf("Failed to cancel order %d: %v", orderID, err)
		} else {
			log.Printf("Cancelled order %d after failed payment review", orderID)
		}
	}
}
