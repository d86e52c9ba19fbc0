package store

import (
	"context"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleuris_back_end/internal/models"
)

// Les lignes de commande sont clées par (order_id, product_id, size),
// comme la table ScyllaDB : deux tailles d'un même produit coexistent,
// deux écritures sur la même clé s'écrasent.
func TestMemOrderStoreLineKey(t *testing.T) {
	mem := NewMemOrderStore()
	productID := gocql.TimeUUID()
	order := models.Order{
		ID:            gocql.TimeUUID(),
		Status:        models.StatusPending,
		TrackingToken: "feedfacefeedfacefeedfacefeedface",
		CreatedAt:     time.Now(),
	}

	lines := []models.OrderLine{
		{OrderID: order.ID, ProductID: productID, Size: models.SizeClassic, Quantity: 2, PriceAtPurchase: 4500},
		{OrderID: order.ID, ProductID: productID, Size: models.SizeGenerous, Quantity: 1, PriceAtPurchase: 6300},
		{OrderID: order.ID, ProductID: productID, Size: models.SizeClassic, Quantity: 5, PriceAtPurchase: 4500},
	}
	require.NoError(t, mem.CreateOrder(context.Background(), &order, lines))

	stored, err := mem.GetOrderLines(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2, "classic et generous coexistent, le doublon classic écrase")
	assert.Equal(t, models.SizeClassic, stored[0].Size)
	assert.Equal(t, 5, stored[0].Quantity, "la dernière écriture sur la clé gagne")
	assert.Equal(t, models.SizeGenerous, stored[1].Size)
}
