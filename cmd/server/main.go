package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"

	"fleuris_back_end/internal/cart"
	"fleuris_back_end/internal/config"
	"fleuris_back_end/internal/database"
	"fleuris_back_end/internal/handlers"
	"fleuris_back_end/internal/middleware"
	"fleuris_back_end/internal/notify"
	"fleuris_back_end/internal/orders"
	"fleuris_back_end/internal/payments"
	"fleuris_back_end/internal/routes"
	"fleuris_back_end/internal/stock"
	"fleuris_back_end/internal/storage"
	"fleuris_back_end/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.StripeSecretKey == "" {
		log.Fatal("❌ Impossible d'initialiser Stripe : clé manquante")
	}
	stripe.Key = cfg.StripeSecretKey
	log.Println("✅ Stripe initialisé")

	if cfg.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET manquant dans .env")
	}

	ctx := context.Background()

	session, err := database.ConnectScylla(cfg)
	if err != nil {
		log.Fatal("❌ Connexion ScyllaDB impossible : ", err)
	}
	defer session.Close()

	redisClient, err := database.ConnectRedis(ctx, cfg)
	if err != nil {
		log.Fatal("❌ Connexion Redis impossible : ", err)
	}
	defer redisClient.Close()

	imageStore, err := storage.ConnectMinio(ctx, cfg)
	if err != nil {
		log.Fatal("❌ Connexion MinIO impossible : ", err)
	}

	// Persistance
	productStore := store.NewProductStore(session)
	orderStore := store.NewOrderStore(session)

	// Services métier
	ledger := stock.NewLedger(productStore)
	carts := cart.NewService(cart.NewRedisStore(redisClient), 2*time.Second)
	mailer := notify.NewMailer(cfg)
	gateway := payments.NewGateway()
	workflow := orders.NewWorkflow(orderStore, productStore, gateway, mailer)
	reconciler := payments.NewReconciler(cfg.StripeWebhookSecret,
		orderStore, workflow, ledger, carts, mailer)

	// Balayage des commandes pending jamais payées.
	sweeper := orders.NewSweeper(orderStore, cfg.PendingOrderTTL)
	go sweeper.Run(ctx)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "https://fleuris.fr"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		Products:  handlers.NewProductHandler(productStore),
		Cart:      handlers.NewCartHandler(carts, productStore),
		Checkout:  handlers.NewCheckoutHandler(workflow, ledger),
		Orders:    handlers.NewOrderHandler(workflow),
		Stock:     handlers.NewStockHandler(ledger),
		Images:    handlers.NewImageHandler(imageStore),
		Webhook:   handlers.NewWebhookHandler(reconciler),
		Limiter:   middleware.NewRateLimiter(redisClient),
		JWTSecret: []byte(cfg.JWTSecret),
	})

	log.Println("🚀 Serveur Fleuris lancé sur le port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("❌ Arrêt du serveur : ", err)
	}
}
