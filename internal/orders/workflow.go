// Package orders implémente la machine à états du cycle de vie des
// commandes. C'est l'unique écrivain du statut : toutes les transitions
// passent par une écriture conditionnelle, jamais par un read-then-write.
package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"fleuris_back_end/internal/models"
	"fleuris_back_end/internal/store"
)

var (
	// ErrNotFound : commande inconnue, ou lecture non autorisée volontairement
	// aplatie en "introuvable" pour ne pas divulguer l'existence de la commande.
	ErrNotFound = errors.New("commande introuvable")
	// ErrValidation : entrée malformée ou contraire à la politique de livraison.
	ErrValidation = errors.New("données invalides")
	// ErrInvalidTransition : transition non autorisée par la machine à états.
	ErrInvalidTransition = errors.New("transition de statut invalide")
)

// Montant minimum facturable par Stripe, en centimes.
const MinChargeableCents = 50

// Store est la surface de persistance des commandes.
type Store interface {
	CreateOrder(ctx context.Context, o *models.Order, lines []models.OrderLine) error
	GetOrder(ctx context.Context, id gocql.UUID) (*models.Order, error)
	GetOrderLines(ctx context.Context, id gocql.UUID) ([]models.OrderLine, error)
	GetOrderByToken(ctx context.Context, token string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListOrders(ctx context.Context, limit int) ([]models.Order, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]gocql.UUID, error)
	CompareAndSetStatus(ctx context.Context, id gocql.UUID, from, to models.OrderStatus) (bool, error)
	SetPaymentIntent(ctx context.Context, id gocql.UUID, intentID string) error
}

// ProductReader donne accès en lecture au catalogue pour figer les prix.
type ProductReader interface {
	GetProduct(ctx context.Context, id gocql.UUID) (*models.Product, error)
}

// IntentCreator crée l'intent de paiement auprès du processeur externe.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amountCents int64, orderID, email string) (intentID, clientSecret string, err error)
}

// Notifier envoie la notification d'expédition. Un échec d'envoi est
// logué et avalé : il ne bloque jamais la transition.
type Notifier interface {
	SendOrderShipped(o models.Order) error
}

type Workflow struct {
	store    Store
	products ProductReader
	intents  IntentCreator
	notifier Notifier
	now      func() time.Time
}

func NewWorkflow(s Store, products ProductReader, intents IntentCreator, notifier Notifier) *Workflow {
	return &Workflow{store: s, products: products, intents: intents, notifier: notifier, now: time.Now}
}

// Transitions autorisées. cancelled est atteignable depuis tout état non
// terminal via l'action admin explicite.
var transitions = map[models.OrderStatus]models.OrderStatus{
	models.StatusPending:   models.StatusPaid,
	models.StatusPaid:      models.StatusPreparing,
	models.StatusPreparing: models.StatusShipped,
	models.StatusShipped:   models.StatusDelivered,
}

func canTransition(from, to models.OrderStatus) bool {
	if to == models.StatusCancelled {
		return !from.Terminal()
	}
	return transitions[from] == to
}

// CheckoutLine est une ligne soumise au checkout. Le prix n'en fait pas
// partie : il est toujours recalculé côté serveur.
type CheckoutLine struct {
	ProductID string             `json:"product_id"`
	Quantity  int                `json:"quantity"`
	Size      models.BouquetSize `json:"size"`
}

// CreateInput regroupe les entrées de la soumission de checkout.
type CreateInput struct {
	UserID           string // vide pour une commande invité
	RecipientName    string
	RecipientAddress string
	RecipientEmail   string
	RecipientPhone   string
	DeliveryDate     string // AAAA-MM-JJ
	DeliverySlot     models.DeliverySlot
	CardMessage      string
	Lines            []CheckoutLine
}

// CreateResult : la commande pending et le client_secret Stripe à renvoyer
// au widget de paiement.
type CreateResult struct {
	Order        models.Order
	Lines        []models.OrderLine
	ClientSecret string
}

// Create valide la soumission, fige les lignes au prix courant, insère la
// commande en pending puis demande l'intent de paiement pour exactement le
// total calculé. L'identifiant d'intent est persisté immédiatement : c'est
// la clé de corrélation du webhook.
func (w *Workflow) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	deliveryDate, err := w.validateCreate(in)
	if err != nil {
		return nil, err
	}

	orderID := gocql.UUID(gocql.TimeUUID())
	var lines []models.OrderLine
	var total int64

	for _, cl := range in.Lines {
		productID, err := gocql.ParseUUID(cl.ProductID)
		if err != nil {
			return nil, fmt.Errorf("id produit %q: %w", cl.ProductID, ErrValidation)
		}
		p, err := w.products.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("produit %s inconnu: %w", cl.ProductID, ErrValidation)
			}
			return nil, err
		}
		if !p.IsAvailable {
			return nil, fmt.Errorf("produit %s indisponible: %w", p.Name, ErrValidation)
		}

		unitPrice, err := models.SizedPrice(p.Price, cl.Size)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrValidation)
		}

		lines = append(lines, models.OrderLine{
			OrderID:         orderID,
			ProductID:       p.ID,
			Size:            cl.Size,
			ProductName:     p.Name,
			Quantity:        cl.Quantity,
			PriceAtPurchase: unitPrice,
		})
		total += unitPrice * int64(cl.Quantity)
	}

	if total < MinChargeableCents {
		return nil, fmt.Errorf("montant %d centimes sous le minimum facturable: %w", total, ErrValidation)
	}

	order := models.Order{
		ID:               orderID,
		UserID:           in.UserID,
		Status:           models.StatusPending,
		TotalAmount:      total,
		RecipientName:    strings.TrimSpace(in.RecipientName),
		RecipientAddress: strings.TrimSpace(in.RecipientAddress),
		RecipientEmail:   strings.TrimSpace(in.RecipientEmail),
		RecipientPhone:   strings.TrimSpace(in.RecipientPhone),
		DeliveryDate:     deliveryDate,
		DeliverySlot:     in.DeliverySlot,
		CardMessage:      in.CardMessage,
		TrackingToken:    newTrackingToken(),
		CreatedAt:        w.now(),
	}

	if err := w.store.CreateOrder(ctx, &order, lines); err != nil {
		return nil, err
	}

	intentID, clientSecret, err := w.intents.CreateIntent(ctx, total, orderID.String(), order.RecipientEmail)
	if err != nil {
		// La commande reste pending et sera balayée ; on ne la supprime pas.
		return nil, fmt.Errorf("création intent de paiement: %w", err)
	}
	if err := w.store.SetPaymentIntent(ctx, orderID, intentID); err != nil {
		return nil, err
	}
	order.PaymentIntentID = intentID

	log.Printf("🌸 Commande %s créée (%d centimes, livraison %s %s)",
		orderID, total, order.DeliveryDate.Format("2006-01-02"), order.DeliverySlot)

	return &CreateResult{Order: order, Lines: lines, ClientSecret: clientSecret}, nil
}

func (w *Workflow) validateCreate(in CreateInput) (time.Time, error) {
	if len(in.Lines) == 0 {
		return time.Time{}, fmt.Errorf("panier vide: %w", ErrValidation)
	}
	for _, l := range in.Lines {
		if l.Quantity < 1 {
			return time.Time{}, fmt.Errorf("quantité invalide: %w", ErrValidation)
		}
		if !models.ValidSize(l.Size) {
			return time.Time{}, fmt.Errorf("taille %q inconnue: %w", l.Size, ErrValidation)
		}
	}
	if strings.TrimSpace(in.RecipientName) == "" || strings.TrimSpace(in.RecipientAddress) == "" {
		return time.Time{}, fmt.Errorf("destinataire incomplet: %w", ErrValidation)
	}
	if strings.TrimSpace(in.RecipientEmail) == "" || !strings.Contains(in.RecipientEmail, "@") {
		return time.Time{}, fmt.Errorf("email invalide: %w", ErrValidation)
	}
	if in.DeliverySlot != models.SlotMorning && in.DeliverySlot != models.SlotAfternoon {
		return time.Time{}, fmt.Errorf("créneau de livraison %q inconnu: %w", in.DeliverySlot, ErrValidation)
	}
	if len(in.CardMessage) > 200 {
		return time.Time{}, fmt.Errorf("message de carte trop long: %w", ErrValidation)
	}

	deliveryDate, err := time.Parse("2006-01-02", in.DeliveryDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("date de livraison %q: %w", in.DeliveryDate, ErrValidation)
	}

	// Au moins 24h de préparation : la livraison commence demain.
	today := w.now().Truncate(24 * time.Hour)
	tomorrow := today.AddDate(0, 0, 1)
	if deliveryDate.Before(tomorrow) {
		return time.Time{}, fmt.Errorf("la livraison doit être prévue au moins 24h à l'avance: %w", ErrValidation)
	}
	// Pas de livraison le dimanche.
	if deliveryDate.Weekday() == time.Sunday {
		return time.Time{}, fmt.Errorf("pas de livraison le dimanche: %w", ErrValidation)
	}

	return deliveryDate, nil
}

// ConfirmPayment fait passer la commande de pending à paid et stampe la
// référence de paiement. Le booléen retourné indique si la transition a eu
// lieu : false signifie que la commande était déjà payée (ou plus loin),
// c'est-à-dire une relivraison du même événement.
func (w *Workflow) ConfirmPayment(ctx context.Context, orderID gocql.UUID) (bool, error) {
	applied, err := w.store.CompareAndSetStatus(ctx, orderID, models.StatusPending, models.StatusPaid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}
	return applied, nil
}

// UpdateStatus est la transition manuelle du back-office. La cible doit
// être atteignable depuis le statut courant ; sinon ErrInvalidTransition
// sans aucune mutation. Le passage à shipped déclenche la notification
// d'expédition.
func (w *Workflow) UpdateStatus(ctx context.Context, orderID gocql.UUID, target models.OrderStatus) error {
	if !models.ValidStatus(target) {
		return fmt.Errorf("statut %q inconnu: %w", target, ErrValidation)
	}

	order, err := w.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !canTransition(order.Status, target) {
		return fmt.Errorf("%s → %s: %w", order.Status, target, ErrInvalidTransition)
	}

	applied, err := w.store.CompareAndSetStatus(ctx, orderID, order.Status, target)
	if err != nil {
		return err
	}
	if !applied {
		// Le statut a bougé entre la lecture et le CAS.
		return fmt.Errorf("%s → %s: %w", order.Status, target, ErrInvalidTransition)
	}

	log.Printf("📦 Commande %s : %s → %s", orderID, order.Status, target)

	if target == models.StatusShipped {
		updated := *order
		updated.Status = target
		go func() {
			if err := w.notifier.SendOrderShipped(updated); err != nil {
				log.Printf("❌ Erreur envoi e-mail expédition commande %s: %v", orderID, err)
			}
		}()
	}
	return nil
}

// Cancel annule une commande non terminale (action admin). Le stock déjà
// déduit n'est pas relâché automatiquement : le réassort est une action
// admin distincte.
func (w *Workflow) Cancel(ctx context.Context, orderID gocql.UUID) error {
	return w.UpdateStatus(ctx, orderID, models.StatusCancelled)
}

// OrderDetail regroupe l'en-tête et les lignes figées.
type OrderDetail struct {
	Order models.Order       `json:"order"`
	Lines []models.OrderLine `json:"lines"`
}

// GetForUser retourne le détail d'une commande après contrôle de propriété.
// Un identifiant qui ne correspond pas à l'identité courante est traité en
// introuvable, pas en interdit.
func (w *Workflow) GetForUser(ctx context.Context, orderID gocql.UUID, userID string) (*OrderDetail, error) {
	order, err := w.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if userID == "" || order.UserID != userID {
		return nil, ErrNotFound
	}
	return w.detail(ctx, order)
}

// ListForUser retourne les commandes de l'identité courante.
func (w *Workflow) ListForUser(ctx context.Context, userID string) ([]models.Order, error) {
	return w.store.ListOrdersByUser(ctx, userID)
}

// Track résout un token de suivi public. Token inconnu et commande
// inexistante sont indistinguables.
func (w *Workflow) Track(ctx context.Context, token string) (*OrderDetail, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	order, err := w.store.GetOrderByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return w.detail(ctx, order)
}

// List retourne les commandes pour le back-office.
func (w *Workflow) List(ctx context.Context, limit int) ([]models.Order, error) {
	return w.store.ListOrders(ctx, limit)
}

func (w *Workflow) detail(ctx context.Context, order *models.Order) (*OrderDetail, error) {
	lines, err := w.store.GetOrderLines(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: *order, Lines: lines}, nil
}

// Token de suivi : 128 bits d'aléa cryptographique, hex. Indépendant de
// l'identifiant de commande et non devinable.
func newTrackingToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand indisponible: %v", err))
	}
	return hex.EncodeToString(buf)
}
