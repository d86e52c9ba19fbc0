package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"fleuris_back_end/internal/models"
)

// Les paniers dorment 30 jours dans Redis avant expiration.
const cartTTL = 30 * 24 * time.Hour

// RedisStore persiste le panier JSON sous la clé cart:<userID>.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func cartKey(userID string) string {
	return "cart:" + userID
}

func (s *RedisStore) Load(ctx context.Context, userID string) ([]models.CartLine, error) {
	data, err := s.client.Get(ctx, cartKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("lecture panier Redis: %w", err)
	}

	var lines []models.CartLine
	if err := json.Unmarshal([]byte(data), &lines); err != nil {
		return nil, fmt.Errorf("décodage panier de %s: %w", userID, err)
	}
	return lines, nil
}

func (s *RedisStore) Save(ctx context.Context, userID string, lines []models.CartLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encodage panier de %s: %w", userID, err)
	}
	return s.client.Set(ctx, cartKey(userID), data, cartTTL).Err()
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, cartKey(userID)).Err()
}

// MemStore est l'équivalent en mémoire pour les tests. Mutex obligatoire :
// l'écriture amortie arrive depuis la goroutine du timer.
type MemStore struct {
	mu    sync.Mutex
	carts map[string][]models.CartLine
}

func NewMemStore() *MemStore {
	return &MemStore{carts: make(map[string][]models.CartLine)}
}

func (s *MemStore) Load(_ context.Context, userID string) ([]models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, ok := s.carts[userID]
	if !ok {
		return nil, nil
	}
	return append([]models.CartLine(nil), lines...), nil
}

func (s *MemStore) Save(_ context.Context, userID string, lines []models.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = append([]models.CartLine(nil), lines...)
	return nil
}

func (s *MemStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}

// Len retourne le nombre de paniers stockés (assertions de test).
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}
