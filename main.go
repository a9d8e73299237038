package main

import (
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"restaurant-service/config"
	"restaurant-service/controllers"
	"restaurant-service/database"
	"restaurant-service/kafka"
	"restaurant-service/models"
	"restaurant-service/repository"
	"restaurant-service/routes"
	"restaurant-service/services"
	"restaurant-service/uber"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: no .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("[RestaurantService] Failed to load config:", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("[RestaurantService] Failed to initialize logger:", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("[RestaurantService] Failed to connect to DB:", err)
	}
	if err := db.AutoMigrate(
		&models.WebhookEvent{},
		&models.Store{},
		&models.Eater{},
		&models.Payment{},
		&models.Packaging{},
		&models.MenuItem{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
	); err != nil {
		log.Fatal("[RestaurantService] Migration failed:", err)
	}

	eventRepo := repository.NewGormEventRepository(db)
	orderRepo := repository.NewGormOrderRepository(db)
	gateway := uber.NewClient(cfg.UberAPIBase, cfg.UberAccessToken)

	var producer kafka.ProducerAPI
	if cfg.KafkaBrokers != "" {
		p := kafka.NewProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.OrderEventsTopic)
		defer p.Close()
		producer = p
	}

	materializer := services.NewMaterializer(orderRepo, logger)
	dispatcher := services.NewDispatcher(gateway, materializer, producer, logger)
	go dispatcher.Start()
	defer dispatcher.Stop()

	webhookSvc := services.NewWebhookService(cfg.UberSigningSecret, eventRepo, orderRepo, dispatcher, producer, logger)
	orderSvc := services.NewOrderService(orderRepo, eventRepo, gateway, producer, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	routes.Register(r,
		&controllers.WebhookController{Service: webhookSvc, Logger: logger},
		&controllers.OrderController{Service: orderSvc, Logger: logger},
		cfg.JWTSecret,
	)

	logger.Info("restaurant service running", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("[RestaurantService] Server failed:", err)
	}
}
