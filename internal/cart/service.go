// Package cart gère le panier des identités authentifiées. Les paniers
// anonymes vivent côté client et n'atteignent le serveur qu'au moment de
// la fusion post-login. Le panier n'est pas la source de vérité d'une
// commande passée : ce rôle revient aux lignes figées de la commande.
package cart

import (
	"context"
	"log"
	"sync"
	"time"

	"fleuris_back_end/internal/models"
)

// Store est la persistance sous-jacente (Redis en production).
type Store interface {
	Load(ctx context.Context, userID string) ([]models.CartLine, error)
	Save(ctx context.Context, userID string, lines []models.CartLine) error
	Delete(ctx context.Context, userID string) error
}

// Service amortit les écritures de panier : chaque mutation repart le
// compte à rebours, l'écriture Redis ne part qu'après une courte période
// de calme. Les lectures consultent d'abord l'état en attente pour ne pas
// servir une version périmée. Deux mutations concurrentes du même panier
// suivent une sémantique dernière-écriture-gagnante : le panier n'est pas
// la source de vérité d'une commande, ce sont les lignes figées.
type Service struct {
	store    Store
	debounce time.Duration

	mu      sync.Mutex
	pending map[string][]models.CartLine
	timers  map[string]*time.Timer
}

func NewService(store Store, debounce time.Duration) *Service {
	return &Service{
		store:    store,
		debounce: debounce,
		pending:  make(map[string][]models.CartLine),
		timers:   make(map[string]*time.Timer),
	}
}

// Get retourne les lignes du panier courant.
func (s *Service) Get(ctx context.Context, userID string) ([]models.CartLine, error) {
	s.mu.Lock()
	if lines, ok := s.pending[userID]; ok {
		out := append([]models.CartLine(nil), lines...)
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	lines, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []models.CartLine{}
	}
	return lines, nil
}

// AddLine ajoute quantity unités du produit dans la taille demandée.
// S'il existe déjà une ligne (produit, taille), sa quantité est incrémentée
// plutôt que de créer un doublon. Aucune vérification de stock ici : le
// stock ne fait foi qu'au moment du paiement.
func (s *Service) AddLine(ctx context.Context, userID string, product models.Product, quantity int, size models.BouquetSize) ([]models.CartLine, error) {
	unitPrice, err := models.SizedPrice(product.Price, size)
	if err != nil {
		return nil, err
	}

	lines, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range lines {
		if lines[i].ProductID == product.ID.String() && lines[i].Size == size {
			lines[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		imageURL := ""
		if len(product.Images) > 0 {
			imageURL = product.Images[0]
		}
		lines = append(lines, models.CartLine{
			ProductID: product.ID.String(),
			Name:      product.Name,
			Size:      size,
			Quantity:  quantity,
			UnitPrice: unitPrice,
			ImageURL:  imageURL,
		})
	}

	s.scheduleSave(userID, lines)
	return lines, nil
}

// UpdateQuantity remplace la quantité d'une ligne ; en dessous de 1 la
// ligne est retirée.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, size models.BouquetSize, quantity int) ([]models.CartLine, error) {
	if quantity < 1 {
		return s.RemoveLine(ctx, userID, productID, size)
	}

	lines, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		if lines[i].ProductID == productID && lines[i].Size == size {
			lines[i].Quantity = quantity
			break
		}
	}
	s.scheduleSave(userID, lines)
	return lines, nil
}

// RemoveLine retire la ligne (produit, taille).
func (s *Service) RemoveLine(ctx context.Context, userID, productID string, size models.BouquetSize) ([]models.CartLine, error) {
	lines, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	kept := lines[:0]
	for _, l := range lines {
		if !(l.ProductID == productID && l.Size == size) {
			kept = append(kept, l)
		}
	}
	s.scheduleSave(userID, kept)
	return kept, nil
}

// Replace remplace l'intégralité du panier (POST /api/cart).
func (s *Service) Replace(ctx context.Context, userID string, lines []models.CartLine) ([]models.CartLine, error) {
	if lines == nil {
		lines = []models.CartLine{}
	}
	s.scheduleSave(userID, lines)
	return lines, nil
}

// Clear vide le panier immédiatement, sans attendre le debounce.
func (s *Service) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	delete(s.pending, userID)
	if t, ok := s.timers[userID]; ok {
		t.Stop()
		delete(s.timers, userID)
	}
	s.mu.Unlock()
	return s.store.Delete(ctx, userID)
}

// Merge fusionne un panier anonyme dans le panier serveur au login.
// Pour chaque couple (produit, taille) présent des deux côtés, la quantité
// retenue est le max — pas la somme — pour ne pas doubler un article ajouté
// depuis deux appareils. Les lignes sans correspondance sont unies.
func (s *Service) Merge(ctx context.Context, userID string, anonymous []models.CartLine) ([]models.CartLine, error) {
	account, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := append([]models.CartLine(nil), account...)
	for _, anon := range anonymous {
		found := false
		for i := range merged {
			if merged[i].ProductID == anon.ProductID && merged[i].Size == anon.Size {
				if anon.Quantity > merged[i].Quantity {
					merged[i].Quantity = anon.Quantity
				}
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, anon)
		}
	}

	s.scheduleSave(userID, merged)
	return merged, nil
}

// scheduleSave retient la dernière version du panier et programme
// l'écriture après la période de calme. Avec un debounce nul ou négatif,
// l'écriture est synchrone (utilisé par les tests).
func (s *Service) scheduleSave(userID string, lines []models.CartLine) {
	if s.debounce <= 0 {
		if err := s.store.Save(context.Background(), userID, lines); err != nil {
			log.Printf("⚠️ Sauvegarde panier de %s: %v", userID, err)
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[userID] = lines
	if t, ok := s.timers[userID]; ok {
		t.Stop()
	}
	s.timers[userID] = time.AfterFunc(s.debounce, func() {
		s.flush(userID)
	})
}

func (s *Service) flush(userID string) {
	s.mu.Lock()
	lines, ok := s.pending[userID]
	delete(s.pending, userID)
	delete(s.timers, userID)
	s.mu.Unlock()

	if !ok {
		return
	}
	if err := s.store.Save(context.Background(), userID, lines); err != nil {
		log.Printf("⚠️ Sauvegarde panier de %s: %v", userID, err)
	}
}
