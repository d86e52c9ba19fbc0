// Package payments relie le service au processeur de paiement : création
// des intents côté checkout, et réconciliation des événements webhook.
package payments

import (
	"context"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
)

// Gateway crée les PaymentIntents Stripe. Le montant est toujours celui
// calculé côté serveur, en centimes ; l'identifiant de commande part dans
// les métadonnées pour servir de clé de corrélation au webhook.
type Gateway struct {
	currency string
}

func NewGateway() *Gateway {
	return &Gateway{currency: string(stripe.CurrencyEUR)}
}

// CreateIntent demande un intent pour exactement amountCents.
func (g *Gateway) CreateIntent(ctx context.Context, amountCents int64, orderID, email string) (string, string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"order_id": orderID,
			"email":    email,
		},
	}
	params.Context = ctx

	intent, err := paymentintent.New(params)
	if err != nil {
		return "", "", fmt.Errorf("création PaymentIntent: %w", err)
	}

	log.Printf("💳 PaymentIntent %s créé (%d centimes) pour la commande %s", intent.ID, amountCents, orderID)
	return intent.ID, intent.ClientSecret, nil
}
