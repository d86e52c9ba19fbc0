package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"fleuris_back_end/internal/models"
)

// ProductStore lit et écrit les produits et le journal de mouvements de
// stock. stock_quantity n'est jamais écrit directement par le code de
// commande : seul CompareAndSetStock (LWT) le modifie, via le Stock Ledger.
type ProductStore struct {
	session *gocql.Session
}

func NewProductStore(session *gocql.Session) *ProductStore {
	return &ProductStore{session: session}
}

const productColumns = `product_id, name, description, price, category, images,
	is_available, track_stock, stock_quantity, low_stock_threshold, created_at, updated_at`

func scanProduct(scan func(...interface{}) error) (*models.Product, error) {
	var p models.Product
	err := scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Images,
		&p.IsAvailable, &p.TrackStock, &p.StockQuantity, &p.LowStockThreshold,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetProduct retourne un produit par identifiant.
func (s *ProductStore) GetProduct(ctx context.Context, id gocql.UUID) (*models.Product, error) {
	q := s.session.Query(`SELECT `+productColumns+` FROM products WHERE product_id = ?`, id).WithContext(ctx)
	return scanProduct(q.Scan)
}

// ListProducts retourne le catalogue complet (back-office).
func (s *ProductStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	scanner := s.session.Query(`SELECT ` + productColumns + ` FROM products`).WithContext(ctx).Iter().Scanner()

	var products []models.Product
	for scanner.Next() {
		p, err := scanProduct(scanner.Scan)
		if err != nil {
			return nil, fmt.Errorf("lecture catalogue: %w", err)
		}
		products = append(products, *p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("lecture catalogue: %w", err)
	}
	return products, nil
}

// ListAvailableProducts retourne les produits visibles côté boutique.
func (s *ProductStore) ListAvailableProducts(ctx context.Context) ([]models.Product, error) {
	all, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	available := make([]models.Product, 0, len(all))
	for _, p := range all {
		if p.IsAvailable {
			available = append(available, p)
		}
	}
	return available, nil
}

// CreateProduct insère un nouveau produit.
func (s *ProductStore) CreateProduct(ctx context.Context, p *models.Product) error {
	return s.session.Query(`INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Images,
		p.IsAvailable, p.TrackStock, p.StockQuantity, p.LowStockThreshold,
		p.CreatedAt, p.UpdatedAt).WithContext(ctx).Exec()
}

// UpdateProduct met à jour les champs éditables par l'admin.
// Le stock n'est volontairement pas dans cette requête.
func (s *ProductStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	return s.session.Query(`UPDATE products SET name = ?, description = ?, price = ?,
		category = ?, images = ?, is_available = ?, track_stock = ?,
		low_stock_threshold = ?, updated_at = ?
		WHERE product_id = ?`,
		p.Name, p.Description, p.Price, p.Category, p.Images,
		p.IsAvailable, p.TrackStock, p.LowStockThreshold, time.Now(), p.ID).
		WithContext(ctx).Exec()
}

// DeleteProduct supprime un produit du catalogue.
func (s *ProductStore) DeleteProduct(ctx context.Context, id gocql.UUID) error {
	return s.session.Query(`DELETE FROM products WHERE product_id = ?`, id).WithContext(ctx).Exec()
}

// CompareAndSetStock effectue la mise à jour conditionnelle du stock :
// l'écriture n'est appliquée que si stock_quantity vaut encore expected.
// C'est la brique qui empêche deux déductions concurrentes de passer
// toutes les deux sous zéro (lost update).
func (s *ProductStore) CompareAndSetStock(ctx context.Context, id gocql.UUID, expected, next int) (bool, error) {
	var prev int
	applied, err := s.session.Query(
		`UPDATE products SET stock_quantity = ?, updated_at = ? WHERE product_id = ? IF stock_quantity = ?`,
		next, time.Now(), id, expected).WithContext(ctx).ScanCAS(&prev)
	if err != nil {
		return false, fmt.Errorf("CAS stock produit %s: %w", id, err)
	}
	return applied, nil
}

// AppendMovement ajoute une entrée au journal append-only des mouvements.
func (s *ProductStore) AppendMovement(ctx context.Context, m models.StockMovement) error {
	return s.session.Query(`INSERT INTO stock_movements
		(product_id, id, type, delta, new_stock, order_id, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ProductID, m.ID, string(m.Type), m.Delta, m.NewStock, m.OrderID, m.Note, m.CreatedAt).
		WithContext(ctx).Exec()
}

// ListMovements retourne l'historique d'un produit, du plus récent au plus ancien.
func (s *ProductStore) ListMovements(ctx context.Context, productID gocql.UUID, limit int) ([]models.StockMovement, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	iter := s.session.Query(`SELECT product_id, id, type, delta, new_stock, order_id, note, created_at
		FROM stock_movements WHERE product_id = ? ORDER BY id DESC LIMIT ?`, productID, limit).
		WithContext(ctx).Iter()
	defer iter.Close()

	var movements []models.StockMovement
	var m models.StockMovement
	var mType string
	for iter.Scan(&m.ProductID, &m.ID, &mType, &m.Delta, &m.NewStock, &m.OrderID, &m.Note, &m.CreatedAt) {
		m.Type = models.MovementType(mType)
		movements = append(movements, m)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture mouvements produit %s: %w", productID, err)
	}
	return movements, nil
}

// ListTrackedProducts retourne les produits dont le stock est suivi,
// pour le rapport de stock faible du back-office.
func (s *ProductStore) ListTrackedProducts(ctx context.Context) ([]models.Product, error) {
	all, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	tracked := make([]models.Product, 0, len(all))
	for _, p := range all {
		if p.TrackStock {
			tracked = append(tracked, p)
		}
	}
	return tracked, nil
}
