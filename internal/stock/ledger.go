// Package stock est le seul endroit du service autorisé à faire varier
// stock_quantity. Chaque variation passe par une écriture conditionnelle
// (compare-and-set) et laisse une trace dans le journal de mouvements.
package stock

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"

	"fleuris_back_end/internal/models"
)

// ErrInsufficientStock : le stock courant ne couvre pas la quantité demandée
// au moment de l'écriture conditionnelle. Côté webhook c'est une alerte
// opérationnelle, jamais une erreur utilisateur (le paiement a déjà eu lieu).
var ErrInsufficientStock = errors.New("stock insuffisant")

// Nombre de tentatives CAS avant d'abandonner sous contention.
const maxCASRetries = 10

// ProductStore est la surface minimale dont le ledger a besoin.
// L'implémentation ScyllaDB vit dans internal/store ; les tests utilisent
// une implémentation en mémoire.
type ProductStore interface {
	GetProduct(ctx context.Context, id gocql.UUID) (*models.Product, error)
	CompareAndSetStock(ctx context.Context, id gocql.UUID, expected, next int) (bool, error)
	AppendMovement(ctx context.Context, m models.StockMovement) error
	ListMovements(ctx context.Context, productID gocql.UUID, limit int) ([]models.StockMovement, error)
	ListTrackedProducts(ctx context.Context) ([]models.Product, error)
}

type Ledger struct {
	store ProductStore
}

func NewLedger(store ProductStore) *Ledger {
	return &Ledger{store: store}
}

// CheckResult est le résultat consultatif d'une vérification de stock.
type CheckResult struct {
	Available    bool `json:"available"`
	CurrentStock int  `json:"current_stock"`
}

// CheckAvailability vérifie la disponibilité sans rien réserver.
// Un produit sans suivi de stock est toujours disponible.
func (l *Ledger) CheckAvailability(ctx context.Context, productID gocql.UUID, quantity int) (CheckResult, error) {
	p, err := l.store.GetProduct(ctx, productID)
	if err != nil {
		return CheckResult{}, err
	}
	if !p.TrackStock {
		return CheckResult{Available: true, CurrentStock: p.StockQuantity}, nil
	}
	return CheckResult{
		Available:    p.StockQuantity >= quantity,
		CurrentStock: p.StockQuantity,
	}, nil
}

// BatchLine est une demande de vérification pour une ligne de panier.
type BatchLine struct {
	ProductID gocql.UUID
	Quantity  int
}

// CheckBatch vérifie toutes les lignes d'un panier avant le checkout.
// Non bloquant : la déduction réelle n'a lieu qu'après le paiement, la
// sur-vente reste donc possible en théorie et est traitée a posteriori.
func (l *Ledger) CheckBatch(ctx context.Context, lines []BatchLine) (bool, []string, error) {
	var unavailable []string
	for _, line := range lines {
		p, err := l.store.GetProduct(ctx, line.ProductID)
		if err != nil {
			unavailable = append(unavailable, line.ProductID.String())
			continue
		}
		if p.TrackStock && p.StockQuantity < line.Quantity {
			unavailable = append(unavailable, p.Name)
		}
	}
	return len(unavailable) == 0, unavailable, nil
}

// Deduct retire quantity unités du stock et journalise un mouvement "sale".
// La boucle CAS garantit qu'aucune déduction ne s'appuie sur une lecture
// périmée : si deux appels concurrents visent le même produit, un seul
// passe par ancienne valeur, l'autre relit et réessaie.
func (l *Ledger) Deduct(ctx context.Context, productID gocql.UUID, quantity int, orderID gocql.UUID) error {
	if quantity <= 0 {
		return fmt.Errorf("quantité invalide: %d", quantity)
	}

	for attempt := 0; attempt < maxCASRetries; attempt++ {
		p, err := l.store.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		if !p.TrackStock {
			return nil
		}
		if p.StockQuantity < quantity {
			return fmt.Errorf("produit %s: demandé %d, restant %d: %w",
				p.Name, quantity, p.StockQuantity, ErrInsufficientStock)
		}

		newStock := p.StockQuantity - quantity
		applied, err := l.store.CompareAndSetStock(ctx, productID, p.StockQuantity, newStock)
		if err != nil {
			return err
		}
		if !applied {
			continue // écriture concurrente entre la lecture et le CAS, on relit
		}

		l.appendMovement(ctx, models.StockMovement{
			ID:        gocql.TimeUUID(),
			ProductID: productID,
			Type:      models.MovementSale,
			Delta:     -quantity,
			NewStock:  newStock,
			OrderID:   &orderID,
			CreatedAt: time.Now(),
		})

		if newStock <= p.LowStockThreshold {
			log.Printf("🚨 Stock faible pour %s : %d restant(s) (seuil %d)", p.Name, newStock, p.LowStockThreshold)
		}
		return nil
	}

	return fmt.Errorf("déduction produit %s: trop de conflits CAS", productID)
}

// Add réapprovisionne le stock (action admin) et journalise le mouvement.
func (l *Ledger) Add(ctx context.Context, productID gocql.UUID, quantity int, movementType models.MovementType, note string) error {
	if quantity <= 0 {
		return fmt.Errorf("quantité invalide: %d", quantity)
	}
	if movementType == "" {
		movementType = models.MovementRestock
	}

	for attempt := 0; attempt < maxCASRetries; attempt++ {
		p, err := l.store.GetProduct(ctx, productID)
		if err != nil {
			return err
		}

		newStock := p.StockQuantity + quantity
		applied, err := l.store.CompareAndSetStock(ctx, productID, p.StockQuantity, newStock)
		if err != nil {
			return err
		}
		if !applied {
			continue
		}

		l.appendMovement(ctx, models.StockMovement{
			ID:        gocql.TimeUUID(),
			ProductID: productID,
			Type:      movementType,
			Delta:     quantity,
			NewStock:  newStock,
			Note:      note,
			CreatedAt: time.Now(),
		})
		return nil
	}

	return fmt.Errorf("réassort produit %s: trop de conflits CAS", productID)
}

// LowStockReport retourne les produits suivis dont le stock est au seuil ou
// en dessous, triés pour le tableau de bord admin.
func (l *Ledger) LowStockReport(ctx context.Context) ([]models.Product, error) {
	tracked, err := l.store.ListTrackedProducts(ctx)
	if err != nil {
		return nil, err
	}
	var low []models.Product
	for _, p := range tracked {
		if p.StockQuantity <= p.LowStockThreshold {
			low = append(low, p)
		}
	}
	return low, nil
}

// Movements expose l'historique d'un produit.
func (l *Ledger) Movements(ctx context.Context, productID gocql.UUID, limit int) ([]models.StockMovement, error) {
	return l.store.ListMovements(ctx, productID, limit)
}

// Le journal suit une écriture CAS réussie ; un échec d'insertion est logué
// mais ne remet pas en cause la valeur de stock déjà appliquée.
func (l *Ledger) appendMovement(ctx context.Context, m models.StockMovement) {
	if err := l.store.AppendMovement(ctx, m); err != nil {
		log.Printf("⚠️ Erreur journalisation mouvement stock (%s, produit %s): %v", m.Type, m.ProductID, err)
	}
}
