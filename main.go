package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"order-verify-service/config"
	"order-verify-service/consumers"
	"order-verify-service/controllers"
	"order-verify-service/database"
	"order-verify-service/middlewares"
	"order-verify-service/rabbitmq"
	"order-verify-service/razorpay"
	"order-verify-service/services"
	"order-verify-service/store"
)

func main() {
	if err := database.InitDB(); err != nil {
		log.Fatalf("Database initialization failed: %v", err)
	}
	defer database.CloseDB()

	cfg := config.LoadConfig()

	rmq, err := rabbitmq.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("RabbitMQ initialization failed: %v", err)
	}
	defer rmq.Close()

	if err := rmq.SetupQueues(); err != nil {
		log.Fatalf("Failed to setup RabbitMQ queues: %v", err)
	}

	go consumers.StartOrderConsumer(rmq.Channel, cfg)

	// Wire the verification flow: gateway secret is injected here, once.
	orderStore := store.NewMySQLStore(database.DB)
	rzp := razorpay.NewClient(cfg.RazorpayKeySecret)
	orderService := services.NewOrderService(orderStore, rzp)

	controllers.SetRabbitMQ(rmq)
	controllers.SetStore(orderStore)
	controllers.SetOrderService(orderService)

	r := gin.Default()

	r.Use(middlewares.PrometheusMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	orderGroup := r.Group("/order")
	orderGroup.Use(middlewares.AuthMiddleware())
	{
		orderGroup.POST("/add-order", controllers.VerifyAndAddOrder)
		orderGroup.GET("/my-orders", controllers.GetUserOrders)
		orderGroup.GET("/:id", controllers.GetOrderDetails)
		orderGroup.PUT("/:id/status", controllers.UpdateOrderStatus)
	}

	r.POST("/dead-letter", controllers.HandleDeadLetter)

	port := ":8080"
	log.Printf("Order verification service starting on port %s", port)
	if err := r.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
