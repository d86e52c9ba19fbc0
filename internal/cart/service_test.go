package cart

import (
	"context"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleuris_back_end/internal/models"
)

func testProduct(price int64) models.Product {
	return models.Product{
		ID:          gocql.TimeUUID(),
		Name:        "Bouquet Perle",
		Price:       price,
		IsAvailable: true,
		Images:      []string{"https://images.fleuris.fr/perle.jpg"},
	}
}

// debounce nul : les écritures sont synchrones.
func newTestService() (*Service, *MemStore) {
	mem := NewMemStore()
	return NewService(mem, 0), mem
}

func TestAddLineIncrementsExistingPair(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	p := testProduct(4500)

	_, err := s.AddLine(ctx, "user-1", p, 1, models.SizeClassic)
	require.NoError(t, err)
	lines, err := s.AddLine(ctx, "user-1", p, 2, models.SizeClassic)
	require.NoError(t, err)

	require.Len(t, lines, 1, "même (produit, taille) = une seule ligne")
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, int64(4500), lines[0].UnitPrice)
	assert.Equal(t, "https://images.fleuris.fr/perle.jpg", lines[0].ImageURL)
}

func TestAddLineDifferentSizesAreDistinctLines(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	p := testProduct(4500)

	_, err := s.AddLine(ctx, "user-1", p, 1, models.SizeClassic)
	require.NoError(t, err)
	lines, err := s.AddLine(ctx, "user-1", p, 1, models.SizeGenerous)
	require.NoError(t, err)

	require.Len(t, lines, 2)
	assert.Equal(t, int64(4500), lines[0].UnitPrice)
	assert.Equal(t, int64(6300), lines[1].UnitPrice, "généreux = prix de base × 1,4")
}

func TestAddLineRejectsUnknownSize(t *testing.T) {
	s, _ := newTestService()
	_, err := s.AddLine(context.Background(), "user-1", testProduct(4500), 1, "royale")
	assert.Error(t, err)
}

func TestUpdateQuantityBelowOneRemovesLine(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	p := testProduct(4500)

	_, err := s.AddLine(ctx, "user-1", p, 2, models.SizeClassic)
	require.NoError(t, err)

	lines, err := s.UpdateQuantity(ctx, "user-1", p.ID.String(), models.SizeClassic, 0)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestUpdateQuantityReplacesValue(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	p := testProduct(4500)

	_, err := s.AddLine(ctx, "user-1", p, 2, models.SizeClassic)
	require.NoError(t, err)

	lines, err := s.UpdateQuantity(ctx, "user-1", p.ID.String(), models.SizeClassic, 5)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestMergeTakesMaxNotSum(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	p := testProduct(4500)

	_, err := s.AddLine(ctx, "user-1", p, 2, models.SizeClassic)
	require.NoError(t, err)

	other := testProduct(2500)
	anonymous := []models.CartLine{
		{ProductID: p.ID.String(), Name: p.Name, Size: models.SizeClassic, Quantity: 3, UnitPrice: 4500},
		{ProductID: other.ID.String(), Name: other.Name, Size: models.SizeExceptional, Quantity: 1, UnitPrice: 4500},
	}

	merged, err := s.Merge(ctx, "user-1", anonymous)
	require.NoError(t, err)
	require.Len(t, merged, 2)
	assert.Equal(t, 3, merged[0].Quantity, "max(2, 3), pas 5")
	assert.Equal(t, other.ID.String(), merged[1].ProductID, "ligne anonyme sans correspondance unie")

	// Fusion symétrique : quantité serveur déjà supérieure.
	merged, err = s.Merge(ctx, "user-1", []models.CartLine{
		{ProductID: p.ID.String(), Size: models.SizeClassic, Quantity: 1, UnitPrice: 4500},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, merged[0].Quantity, "max(3, 1) = 3")
}

func TestClearEmptiesImmediately(t *testing.T) {
	s, mem := newTestService()
	ctx := context.Background()
	p := testProduct(4500)

	_, err := s.AddLine(ctx, "user-1", p, 1, models.SizeClassic)
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx, "user-1"))

	lines, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Zero(t, mem.Len())
}

func TestDebouncedWritesAreVisibleToReads(t *testing.T) {
	mem := NewMemStore()
	s := NewService(mem, 40*time.Millisecond)
	ctx := context.Background()
	p := testProduct(4500)

	_, err := s.AddLine(ctx, "user-1", p, 1, models.SizeClassic)
	require.NoError(t, err)

	// La lecture voit l'état en attente avant l'écriture Redis.
	lines, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Zero(t, mem.Len(), "l'écriture est encore en attente")

	// Après la période de calme, l'état atterrit dans le store.
	assert.Eventually(t, func() bool {
		saved, _ := mem.Load(ctx, "user-1")
		return len(saved) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestDebounceCoalescesBursts(t *testing.T) {
	mem := NewMemStore()
	s := NewService(mem, 40*time.Millisecond)
	ctx := context.Background()
	p := testProduct(4500)

	for i := 0; i < 5; i++ {
		_, err := s.AddLine(ctx, "user-1", p, 1, models.SizeClassic)
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		saved, _ := mem.Load(ctx, "user-1")
		return len(saved) == 1 && saved[0].Quantity == 5
	}, time.Second, 10*time.Millisecond, "la dernière version gagne")
}
