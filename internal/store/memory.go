package store

import (
	"context"
	"sync"
	"time"

	"github.com/gocql/gocql"

	"fleuris_back_end/internal/models"
)

// MemProductStore est une implémentation en mémoire de la surface produit,
// utilisée par les tests (y compris les tests de concurrence du ledger).
// Le CAS est protégé par mutex : même sémantique que le LWT ScyllaDB.
type MemProductStore struct {
	mu        sync.Mutex
	products  map[gocql.UUID]models.Product
	movements map[gocql.UUID][]models.StockMovement
}

func NewMemProductStore() *MemProductStore {
	return &MemProductStore{
		products:  make(map[gocql.UUID]models.Product),
		movements: make(map[gocql.UUID][]models.StockMovement),
	}
}

// Put insère ou remplace un produit (setup de test).
func (s *MemProductStore) Put(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *MemProductStore) GetProduct(_ context.Context, id gocql.UUID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemProductStore) ListProducts(_ context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *MemProductStore) ListAvailableProducts(ctx context.Context) ([]models.Product, error) {
	all, _ := s.ListProducts(ctx)
	var out []models.Product
	for _, p := range all {
		if p.IsAvailable {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemProductStore) ListTrackedProducts(ctx context.Context) ([]models.Product, error) {
	all, _ := s.ListProducts(ctx)
	var out []models.Product
	for _, p := range all {
		if p.TrackStock {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemProductStore) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = *p
	return nil
}

func (s *MemProductStore) UpdateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	updated := *p
	updated.StockQuantity = existing.StockQuantity // le stock ne passe jamais par Update
	s.products[p.ID] = updated
	return nil
}

func (s *MemProductStore) DeleteProduct(_ context.Context, id gocql.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
	return nil
}

func (s *MemProductStore) CompareAndSetStock(_ context.Context, id gocql.UUID, expected, next int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return false, ErrNotFound
	}
	if p.StockQuantity != expected {
		return false, nil
	}
	p.StockQuantity = next
	s.products[id] = p
	return true, nil
}

func (s *MemProductStore) AppendMovement(_ context.Context, m models.StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements[m.ProductID] = append(s.movements[m.ProductID], m)
	return nil
}

func (s *MemProductStore) ListMovements(_ context.Context, productID gocql.UUID, limit int) ([]models.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.movements[productID]
	if limit > 0 && len(ms) > limit {
		ms = ms[len(ms)-limit:]
	}
	out := make([]models.StockMovement, len(ms))
	copy(out, ms)
	return out, nil
}

// MemOrderStore est l'équivalent en mémoire de OrderStore.
type MemOrderStore struct {
	mu      sync.Mutex
	orders  map[gocql.UUID]models.Order
	lines   map[gocql.UUID][]models.OrderLine
	byToken map[string]gocql.UUID
}

func NewMemOrderStore() *MemOrderStore {
	return &MemOrderStore{
		orders:  make(map[gocql.UUID]models.Order),
		lines:   make(map[gocql.UUID][]models.OrderLine),
		byToken: make(map[string]gocql.UUID),
	}
}

func (s *MemOrderStore) CreateOrder(_ context.Context, o *models.Order, lines []models.OrderLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = *o
	// Même sémantique que la clé primaire (order_id, product_id, size) :
	// deux insertions sur la même clé s'écrasent au lieu de s'empiler.
	stored := make([]models.OrderLine, 0, len(lines))
	for _, l := range lines {
		replaced := false
		for i := range stored {
			if stored[i].ProductID == l.ProductID && stored[i].Size == l.Size {
				stored[i] = l
				replaced = true
				break
			}
		}
		if !replaced {
			stored = append(stored, l)
		}
	}
	s.lines[o.ID] = stored
	s.byToken[o.TrackingToken] = o.ID
	return nil
}

func (s *MemOrderStore) GetOrder(_ context.Context, id gocql.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (s *MemOrderStore) GetOrderLines(_ context.Context, id gocql.UUID) ([]models.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.OrderLine, len(s.lines[id]))
	copy(out, s.lines[id])
	return out, nil
}

func (s *MemOrderStore) GetOrderByToken(ctx context.Context, token string) (*models.Order, error) {
	s.mu.Lock()
	id, ok := s.byToken[token]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s.GetOrder(ctx, id)
}

func (s *MemOrderStore) ListOrdersByUser(_ context.Context, userID string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *MemOrderStore) ListOrders(_ context.Context, limit int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		out = append(out, o)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemOrderStore) ListPendingBefore(_ context.Context, cutoff time.Time) ([]gocql.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []gocql.UUID
	for id, o := range s.orders {
		if o.Status == models.StatusPending && o.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *MemOrderStore) CompareAndSetStatus(_ context.Context, id gocql.UUID, from, to models.OrderStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return false, ErrNotFound
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	s.orders[id] = o
	return true, nil
}

func (s *MemOrderStore) SetPaymentIntent(_ context.Context, id gocql.UUID, intentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.PaymentIntentID = intentID
	s.orders[id] = o
	return nil
}
