package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"fleuris_back_end/internal/models"
)

// OrderStore persiste les commandes, leurs lignes figées et les tables de
// correspondance (token de suivi, intent de paiement). Les commandes ne
// sont jamais supprimées : l'annulation est un statut.
type OrderStore struct {
	session *gocql.Session
}

func NewOrderStore(session *gocql.Session) *OrderStore {
	return &OrderStore{session: session}
}

const orderColumns = `id, user_id, status, total_amount, recipient_name, recipient_address,
	recipient_email, recipient_phone, delivery_date, delivery_slot, card_message,
	tracking_token, payment_intent_id, created_at`

func scanOrder(scan func(...interface{}) error) (*models.Order, error) {
	var o models.Order
	var status, slot string
	err := scan(&o.ID, &o.UserID, &status, &o.TotalAmount, &o.RecipientName, &o.RecipientAddress,
		&o.RecipientEmail, &o.RecipientPhone, &o.DeliveryDate, &slot, &o.CardMessage,
		&o.TrackingToken, &o.PaymentIntentID, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	o.Status = models.OrderStatus(status)
	o.DeliverySlot = models.DeliverySlot(slot)
	return &o, nil
}

// CreateOrder insère l'en-tête, les lignes et les entrées de correspondance
// dans un batch logged : tout est visible ensemble ou pas du tout.
func (s *OrderStore) CreateOrder(ctx context.Context, o *models.Order, lines []models.OrderLine) error {
	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)

	batch.Query(`INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, string(o.Status), o.TotalAmount, o.RecipientName, o.RecipientAddress,
		o.RecipientEmail, o.RecipientPhone, o.DeliveryDate, string(o.DeliverySlot), o.CardMessage,
		o.TrackingToken, o.PaymentIntentID, o.CreatedAt)

	for _, l := range lines {
		batch.Query(`INSERT INTO order_lines (order_id, product_id, size, product_name, quantity, price_at_purchase)
			VALUES (?, ?, ?, ?, ?, ?)`,
			l.OrderID, l.ProductID, string(l.Size), l.ProductName, l.Quantity, l.PriceAtPurchase)
	}

	batch.Query(`INSERT INTO orders_by_token (tracking_token, order_id) VALUES (?, ?)`,
		o.TrackingToken, o.ID)

	if o.UserID != "" {
		batch.Query(`INSERT INTO orders_by_user (user_id, created_at, order_id) VALUES (?, ?, ?)`,
			o.UserID, o.CreatedAt, o.ID)
	}

	if err := s.session.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("insertion commande %s: %w", o.ID, err)
	}
	return nil
}

// GetOrder retourne une commande par identifiant.
func (s *OrderStore) GetOrder(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	q := s.session.Query(`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id).WithContext(ctx)
	return scanOrder(q.Scan)
}

// GetOrderLines retourne les lignes figées d'une commande.
func (s *OrderStore) GetOrderLines(ctx context.Context, id gocql.UUID) ([]models.OrderLine, error) {
	iter := s.session.Query(`SELECT order_id, product_id, size, product_name, quantity, price_at_purchase
		FROM order_lines WHERE order_id = ?`, id).WithContext(ctx).Iter()
	defer iter.Close()

	var lines []models.OrderLine
	var l models.OrderLine
	var size string
	for iter.Scan(&l.OrderID, &l.ProductID, &size, &l.ProductName, &l.Quantity, &l.PriceAtPurchase) {
		l.Size = models.BouquetSize(size)
		lines = append(lines, l)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture lignes commande %s: %w", id, err)
	}
	return lines, nil
}

// GetOrderByToken résout un token de suivi public vers la commande.
func (s *OrderStore) GetOrderByToken(ctx context.Context, token string) (*models.Order, error) {
	var orderID gocql.UUID
	err := s.session.Query(`SELECT order_id FROM orders_by_token WHERE tracking_token = ?`, token).
		WithContext(ctx).Scan(&orderID)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.GetOrder(ctx, orderID)
}

// ListOrdersByUser retourne les commandes d'un client, récentes d'abord.
func (s *OrderStore) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	iter := s.session.Query(`SELECT order_id FROM orders_by_user WHERE user_id = ? ORDER BY created_at DESC`,
		userID).WithContext(ctx).Iter()
	defer iter.Close()

	var ids []gocql.UUID
	var id gocql.UUID
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture commandes de %s: %w", userID, err)
	}

	orders := make([]models.Order, 0, len(ids))
	for _, oid := range ids {
		o, err := s.GetOrder(ctx, oid)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

// ListOrders retourne les commandes pour le back-office.
func (s *OrderStore) ListOrders(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	scanner := s.session.Query(`SELECT `+orderColumns+` FROM orders LIMIT ?`, limit).WithContext(ctx).Iter().Scanner()

	var orders []models.Order
	for scanner.Next() {
		o, err := scanOrder(scanner.Scan)
		if err != nil {
			return nil, fmt.Errorf("lecture commandes: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("lecture commandes: %w", err)
	}
	return orders, nil
}

// ListPendingBefore retourne les identifiants des commandes encore pending
// créées avant cutoff (balayage des paiements abandonnés).
func (s *OrderStore) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]gocql.UUID, error) {
	iter := s.session.Query(`SELECT id, created_at FROM orders WHERE status = ? ALLOW FILTERING`,
		string(models.StatusPending)).WithContext(ctx).Iter()
	defer iter.Close()

	var ids []gocql.UUID
	var id gocql.UUID
	var createdAt time.Time
	for iter.Scan(&id, &createdAt) {
		if createdAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture commandes pending: %w", err)
	}
	return ids, nil
}

// CompareAndSetStatus fait passer la commande de from à to uniquement si le
// statut courant est encore from (LWT). Le booléen retourné indique si
// l'écriture a été appliquée : c'est le verrou d'idempotence du webhook.
func (s *OrderStore) CompareAndSetStatus(ctx context.Context, id gocql.UUID, from, to models.OrderStatus) (bool, error) {
	var prev string
	applied, err := s.session.Query(
		`UPDATE orders SET status = ? WHERE id = ? IF status = ?`,
		string(to), id, string(from)).WithContext(ctx).ScanCAS(&prev)
	if err != nil {
		return false, fmt.Errorf("CAS statut commande %s: %w", id, err)
	}
	return applied, nil
}

// SetPaymentIntent stampe l'identifiant d'intent Stripe sur la commande.
// Appelé une seule fois, juste après la création de l'intent.
func (s *OrderStore) SetPaymentIntent(ctx context.Context, id gocql.UUID, intentID string) error {
	return s.session.Query(`UPDATE orders SET payment_intent_id = ? WHERE id = ?`, intentID, id).
		WithContext(ctx).Exec()
}
