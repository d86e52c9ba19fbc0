package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config regroupe toute la configuration du service, lue une seule fois au
// démarrage. Les clients externes (Scylla, Redis, Stripe, SMTP, MinIO) sont
// construits à partir de cette struct puis injectés — pas de singletons.
type Config struct {
	Port string

	// ScyllaDB
	ScyllaHosts    []string
	ScyllaKeyspace string
	ScyllaUser     string
	ScyllaPassword string
	ScyllaTimeout  time.Duration
	ScyllaConns    int

	// Redis
	RedisAddr     string
	RedisPassword string

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	// MinIO (images produits)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// JWT (identité fournie par le provider externe)
	JWTSecret string

	// Balayage des commandes pending abandonnées
	PendingOrderTTL time.Duration
}

// Load charge le fichier .env puis construit la Config depuis l'environnement.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
	return FromEnv()
}

// FromEnv construit la Config depuis les variables d'environnement seules.
func FromEnv() Config {
	return Config{
		Port: getenv("PORT", "8080"),

		ScyllaHosts:    strings.Split(getenv("SCYLLA_HOSTS", "127.0.0.1"), ","),
		ScyllaKeyspace: getenv("SCYLLA_KEYSPACE", "ks_fleuris"),
		ScyllaUser:     os.Getenv("SCYLLA_USERNAME"),
		ScyllaPassword: os.Getenv("SCYLLA_PASSWORD"),
		ScyllaTimeout:  durationEnv("SCYLLA_TIMEOUT", 5*time.Second),
		ScyllaConns:    intEnv("SCYLLA_NUM_CONNS", 10),

		RedisAddr:     getenv("REDIS_HOST", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		SMTPHost:     getenv("SMTP_HOST", "ssl0.ovh.net"),
		SMTPPort:     intEnv("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getenv("MAIL_FROM", "noreply@fleuris.fr"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getenv("MINIO_BUCKET", "fleuris-images"),
		MinioUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",

		JWTSecret: os.Getenv("JWT_SECRET"),

		PendingOrderTTL: durationEnv("PENDING_ORDER_TTL", 24*time.Hour),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("⚠️  %s invalide (%q), valeur par défaut %d utilisée", key, v, fallback)
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("⚠️  %s invalide (%q), valeur par défaut %s utilisée", key, v, fallback)
	}
	return fallback
}
