package database

import (
	"context"
	"fmt"
	"log"

	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"

	"fleuris_back_end/internal/config"
)

// ConnectScylla ouvre une session ScyllaDB sur le keyspace du service.
// La session est construite ici puis injectée dans les stores — jamais
// exposée via une variable globale.
func ConnectScylla(cfg config.Config) (*gocql.Session, error) {
	cluster := gocql.NewCluster(cfg.ScyllaHosts...)
	cluster.Keyspace = cfg.ScyllaKeyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = cfg.ScyllaTimeout
	cluster.NumConns = cfg.ScyllaConns
	cluster.ReconnectInterval = cluster.Timeout
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	if cfg.ScyllaUser != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.ScyllaUser,
			Password: cfg.ScyllaPassword,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("création session ScyllaDB: %w", err)
	}

	// Note: les tables sont créées via scripts/scylladb_init.cql
	log.Printf("✅ Connecté à ScyllaDB (keyspace %s)", cfg.ScyllaKeyspace)
	return session, nil
}

// ConnectRedis ouvre le client Redis (paniers + compteurs de rate limit).
func ConnectRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connexion Redis: %w", err)
	}

	log.Println("✅ Connecté à Redis")
	return client, nil
}
