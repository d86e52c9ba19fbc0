package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/gocql/gocql"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"

	"fleuris_back_end/internal/models"
	"fleuris_back_end/internal/store"
)

var (
	// ErrSignatureInvalid : signature absente, secret non configuré ou
	// HMAC qui ne correspond pas. Rejeté avant toute lecture du payload.
	ErrSignatureInvalid = errors.New("signature webhook invalide")
	// ErrDownstream : le datastore est injoignable. Seule classe d'erreur
	// pour laquelle on laisse le processeur relivrer l'événement.
	ErrDownstream = errors.New("dépendance indisponible")
)

// OrderReader lit les commandes pour la réconciliation.
type OrderReader interface {
	GetOrder(ctx context.Context, id gocql.UUID) (*models.Order, error)
	GetOrderLines(ctx context.Context, id gocql.UUID) ([]models.OrderLine, error)
}

// PaymentConfirmer effectue la transition pending→paid. Le booléen indique
// si la transition a réellement eu lieu (false = relivraison).
type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, orderID gocql.UUID) (bool, error)
}

// StockDeducter déduit le stock d'une ligne après confirmation.
type StockDeducter interface {
	Deduct(ctx context.Context, productID gocql.UUID, quantity int, orderID gocql.UUID) error
}

// CartClearer vide le panier serveur du client après paiement.
type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

// Notifier envoie l'e-mail de confirmation de commande.
type Notifier interface {
	SendOrderConfirmation(o models.Order, lines []models.OrderLine) error
}

// Reconciler consomme les notifications de paiement. Il doit être sûr sous
// livraison at-least-once et sous livraisons concurrentes du même
// événement : le CAS pending→paid est l'unique garde d'idempotence.
type Reconciler struct {
	secret    string
	orders    OrderReader
	confirmer PaymentConfirmer
	ledger    StockDeducter
	carts     CartClearer
	notifier  Notifier

	// asyncNotify est désactivable dans les tests pour rendre l'envoi
	// d'e-mail observable de façon synchrone.
	asyncNotify bool
}

func NewReconciler(webhookSecret string, orders OrderReader, confirmer PaymentConfirmer,
	ledger StockDeducter, carts CartClearer, notifier Notifier) *Reconciler {
	return &Reconciler{
		secret:      webhookSecret,
		orders:      orders,
		confirmer:   confirmer,
		ledger:      ledger,
		carts:       carts,
		notifier:    notifier,
		asyncNotify: true,
	}
}

// Handle traite une livraison webhook brute.
//
// Retours : nil = acquitter (200) ; ErrSignatureInvalid = rejeter (400) ;
// ErrDownstream = échec temporaire (500, le processeur relivrera). Tout
// autre incident après vérification de signature est logué puis acquitté
// pour éviter les tempêtes de retry sur événement empoisonné.
func (r *Reconciler) Handle(ctx context.Context, payload []byte, signature string) error {
	// 1. Signature d'abord, avant toute interprétation du payload.
	if r.secret == "" {
		log.Println("🚨 STRIPE_WEBHOOK_SECRET non configuré — webhook rejeté")
		return ErrSignatureInvalid
	}
	event, err := webhook.ConstructEvent(payload, signature, r.secret)
	if err != nil {
		log.Printf("🚨 Signature Stripe invalide: %v", err)
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	// 2. Seul payment_intent.succeeded déclenche un traitement ; le reste
	// est acquitté pour que Stripe arrête de relivrer.
	if event.Type != "payment_intent.succeeded" {
		log.Printf("ℹ️ Événement Stripe ignoré : %s", event.Type)
		return nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Printf("❌ Décodage PaymentIntent impossible: %v", err)
		return nil
	}

	// 3. Corrélation par la clé posée à la création de l'intent — jamais
	// par "la commande pending la plus récente".
	orderIDStr := pi.Metadata["order_id"]
	if orderIDStr == "" {
		log.Printf("⚠️ PaymentIntent %s sans order_id en métadonnées — ignoré", pi.ID)
		return nil
	}
	orderID, err := gocql.ParseUUID(orderIDStr)
	if err != nil {
		log.Printf("⚠️ order_id %q invalide sur PaymentIntent %s — ignoré", orderIDStr, pi.ID)
		return nil
	}

	order, err := r.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("⚠️ Commande %s introuvable pour PaymentIntent %s — ignoré", orderID, pi.ID)
			return nil
		}
		return fmt.Errorf("%w: lecture commande %s: %v", ErrDownstream, orderID, err)
	}

	if order.PaymentIntentID != "" && order.PaymentIntentID != pi.ID {
		log.Printf("🚨 PaymentIntent %s ne correspond pas à l'intent %s de la commande %s — ignoré",
			pi.ID, order.PaymentIntentID, orderID)
		return nil
	}

	// 4. Garde d'idempotence : le CAS pending→paid ne s'applique qu'une
	// fois, quelles que soient les relivraisons ou la concurrence.
	applied, err := r.confirmer.ConfirmPayment(ctx, orderID)
	if err != nil {
		return fmt.Errorf("%w: confirmation commande %s: %v", ErrDownstream, orderID, err)
	}
	if !applied {
		log.Printf("🔁 Commande %s déjà confirmée — relivraison acquittée sans effet", orderID)
		return nil
	}

	log.Printf("✅ Paiement confirmé pour la commande %s (intent %s)", orderID, pi.ID)

	// 5. Déduction du stock ligne par ligne. Un échec est une alerte
	// opérationnelle : l'argent a déjà été encaissé, on continue.
	lines, err := r.orders.GetOrderLines(ctx, orderID)
	if err != nil {
		log.Printf("❌ Lecture lignes commande %s: %v", orderID, err)
		lines = nil
	}
	for _, line := range lines {
		if err := r.ledger.Deduct(ctx, line.ProductID, line.Quantity, orderID); err != nil {
			log.Printf("🚨 Déduction stock échouée (commande %s, produit %s x%d): %v",
				orderID, line.ProductName, line.Quantity, err)
		}
	}

	// Panier serveur vidé après paiement (commandes authentifiées).
	if order.UserID != "" {
		if err := r.carts.Clear(ctx, order.UserID); err != nil {
			log.Printf("⚠️ Vidage panier de %s: %v", order.UserID, err)
		}
	}

	// 6. E-mail de confirmation : un échec est logué, jamais remonté.
	confirmed := *order
	confirmed.Status = models.StatusPaid
	confirmed.PaymentIntentID = pi.ID
	send := func() {
		if err := r.notifier.SendOrderConfirmation(confirmed, lines); err != nil {
			log.Printf("❌ Erreur envoi e-mail confirmation commande %s: %v", orderID, err)
		}
	}
	if r.asyncNotify {
		go send()
	} else {
		send()
	}

	return nil
}
