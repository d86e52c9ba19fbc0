package orders

import (
	"context"
	"log"
	"time"

	"fleuris_back_end/internal/models"
)

// Sweeper annule en arrière-plan les commandes restées pending au-delà du
// TTL configuré (checkout abandonné avant paiement). L'annulation passe par
// le même CAS pending→cancelled que le reste de la machine à états : si le
// webhook de paiement arrive entre la lecture et le balayage, le CAS échoue
// et la commande est laissée tranquille.
type Sweeper struct {
	store    Store
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(store Store, ttl time.Duration) *Sweeper {
	return &Sweeper{store: store, ttl: ttl, interval: time.Hour, now: time.Now}
}

// Run boucle jusqu'à l'annulation du contexte.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce effectue une passe de balayage.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	cutoff := s.now().Add(-s.ttl)
	ids, err := s.store.ListPendingBefore(ctx, cutoff)
	if err != nil {
		log.Printf("⚠️ Balayage commandes pending: %v", err)
		return
	}

	for _, id := range ids {
		applied, err := s.store.CompareAndSetStatus(ctx, id, models.StatusPending, models.StatusCancelled)
		if err != nil {
			log.Printf("⚠️ Annulation commande pending %s: %v", id, err)
			continue
		}
		if applied {
			log.Printf("🧹 Commande %s annulée (pending depuis plus de %s)", id, s.ttl)
		}
	}
}
