package stock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleuris_back_end/internal/models"
	"fleuris_back_end/internal/store"
)

func newTrackedProduct(stock int) models.Product {
	return models.Product{
		ID:                gocql.TimeUUID(),
		Name:              "Bouquet Aurore",
		Price:             4500,
		IsAvailable:       true,
		TrackStock:        true,
		StockQuantity:     stock,
		LowStockThreshold: 2,
	}
}

func TestDeductConcurrentNeverOversells(t *testing.T) {
	mem := store.NewMemProductStore()
	p := newTrackedProduct(5)
	mem.Put(p)
	ledger := NewLedger(mem)

	const callers = 20
	var wg sync.WaitGroup
	results := make(chan error, callers)
	orderID := gocql.TimeUUID()

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- ledger.Deduct(context.Background(), p.ID, 1, orderID)
		}()
	}
	wg.Wait()
	close(results)

	var ok, insufficient int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("erreur inattendue: %v", err)
		}
	}

	assert.Equal(t, 5, ok, "exactement autant de succès que d'unités en stock")
	assert.Equal(t, callers-5, insufficient)

	final, err := mem.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, final.StockQuantity)

	movements, err := ledger.Movements(context.Background(), p.ID, 0)
	require.NoError(t, err)
	require.Len(t, movements, 5, "un mouvement par déduction réussie")
	for _, m := range movements {
		assert.Equal(t, models.MovementSale, m.Type)
		assert.Equal(t, -1, m.Delta)
		assert.GreaterOrEqual(t, m.NewStock, 0, "le stock ne passe jamais sous zéro")
		require.NotNil(t, m.OrderID)
		assert.Equal(t, orderID, *m.OrderID)
	}
}

func TestDeductInsufficientLeavesStockUntouched(t *testing.T) {
	mem := store.NewMemProductStore()
	p := newTrackedProduct(3)
	mem.Put(p)
	ledger := NewLedger(mem)

	err := ledger.Deduct(context.Background(), p.ID, 4, gocql.TimeUUID())
	require.ErrorIs(t, err, ErrInsufficientStock)

	final, err := mem.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, final.StockQuantity)

	movements, err := ledger.Movements(context.Background(), p.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, movements, "aucun mouvement sans déduction effective")
}

func TestDeductUntrackedProductIsNoop(t *testing.T) {
	mem := store.NewMemProductStore()
	p := newTrackedProduct(2)
	p.TrackStock = false
	mem.Put(p)
	ledger := NewLedger(mem)

	require.NoError(t, ledger.Deduct(context.Background(), p.ID, 10, gocql.TimeUUID()))

	final, err := mem.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, final.StockQuantity)
}

func TestAddRestockJournalisesMovement(t *testing.T) {
	mem := store.NewMemProductStore()
	p := newTrackedProduct(1)
	mem.Put(p)
	ledger := NewLedger(mem)

	require.NoError(t, ledger.Add(context.Background(), p.ID, 10, models.MovementRestock, "arrivage du lundi"))

	final, err := mem.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, final.StockQuantity)

	movements, err := ledger.Movements(context.Background(), p.ID, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, models.MovementRestock, movements[0].Type)
	assert.Equal(t, 10, movements[0].Delta)
	assert.Equal(t, 11, movements[0].NewStock)
	assert.Equal(t, "arrivage du lundi", movements[0].Note)
}

func TestCheckAvailability(t *testing.T) {
	mem := store.NewMemProductStore()
	p := newTrackedProduct(3)
	mem.Put(p)
	untracked := newTrackedProduct(0)
	untracked.TrackStock = false
	mem.Put(untracked)
	ledger := NewLedger(mem)

	res, err := ledger.CheckAvailability(context.Background(), p.ID, 3)
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, 3, res.CurrentStock)

	res, err = ledger.CheckAvailability(context.Background(), p.ID, 4)
	require.NoError(t, err)
	assert.False(t, res.Available)

	res, err = ledger.CheckAvailability(context.Background(), untracked.ID, 100)
	require.NoError(t, err)
	assert.True(t, res.Available, "un produit non suivi est toujours disponible")
}

func TestLowStockReport(t *testing.T) {
	mem := store.NewMemProductStore()
	low := newTrackedProduct(2) // seuil 2 → inclus
	mem.Put(low)
	fine := newTrackedProduct(50)
	mem.Put(fine)
	untracked := newTrackedProduct(0)
	untracked.TrackStock = false
	mem.Put(untracked)
	ledger := NewLedger(mem)

	report, err := ledger.LowStockReport(context.Background())
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, low.ID, report[0].ID)
}
