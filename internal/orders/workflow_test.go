package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleuris_back_end/internal/models"
	"fleuris_back_end/internal/store"
)

// Lundi 2 mars 2026, 10h : la première date livrable est le mardi 3.
var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type fakeIntents struct {
	lastAmount  int64
	lastOrderID string
	fail        bool
}

func (f *fakeIntents) CreateIntent(_ context.Context, amountCents int64, orderID, _ string) (string, string, error) {
	if f.fail {
		return "", "", errors.New("processeur indisponible")
	}
	f.lastAmount = amountCents
	f.lastOrderID = orderID
	return "pi_test_123", "pi_test_123_secret", nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	shipped []models.Order
}

func (f *fakeNotifier) SendOrderShipped(o models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shipped = append(f.shipped, o)
	return nil
}

func (f *fakeNotifier) shippedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.shipped)
}

type workflowFixture struct {
	workflow *Workflow
	orders   *store.MemOrderStore
	products *store.MemProductStore
	intents  *fakeIntents
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *workflowFixture {
	t.Helper()
	f := &workflowFixture{
		orders:   store.NewMemOrderStore(),
		products: store.NewMemProductStore(),
		intents:  &fakeIntents{},
		notifier: &fakeNotifier{},
	}
	f.workflow = NewWorkflow(f.orders, f.products, f.intents, f.notifier)
	f.workflow.now = func() time.Time { return testNow }
	return f
}

func (f *workflowFixture) putProduct(price int64) models.Product {
	p := models.Product{
		ID:          gocql.TimeUUID(),
		Name:        "Bouquet Perle",
		Price:       price,
		IsAvailable: true,
	}
	f.products.Put(p)
	return p
}

func validInput(p models.Product) CreateInput {
	return CreateInput{
		UserID:           "user-1",
		RecipientName:    "Camille Dupont",
		RecipientAddress: "12 rue des Lilas, 75011 Paris",
		RecipientEmail:   "camille@example.com",
		RecipientPhone:   "+33612345678",
		DeliveryDate:     "2026-03-04",
		DeliverySlot:     models.SlotMorning,
		CardMessage:      "Joyeux anniversaire !",
		Lines: []CheckoutLine{
			{ProductID: p.ID.String(), Quantity: 2, Size: models.SizeClassic},
		},
	}
}

func TestCreateFreezesPricesAtCheckout(t *testing.T) {
	f := newFixture(t)
	p := f.putProduct(4500)

	in := validInput(p)
	in.Lines = append(in.Lines, CheckoutLine{ProductID: p.ID.String(), Quantity: 1, Size: models.SizeGenerous})

	result, err := f.workflow.Create(context.Background(), in)
	require.NoError(t, err)

	// classic 4500 x2 + generous 4500*14/10 x1
	assert.Equal(t, int64(2*4500+6300), result.Order.TotalAmount)
	assert.Equal(t, result.Order.TotalAmount, f.intents.lastAmount,
		"l'intent porte exactement le total calculé serveur")
	assert.Equal(t, result.Order.ID.String(), f.intents.lastOrderID,
		"la clé de corrélation est posée à la création de l'intent")

	// Changement de prix catalogue après coup : la commande ne bouge pas.
	p.Price = 9900
	f.products.Put(p)

	stored, err := f.orders.GetOrder(context.Background(), result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2*4500+6300), stored.TotalAmount)

	lines, err := f.orders.GetOrderLines(context.Background(), result.Order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2, "deux tailles du même produit = deux lignes persistées")
	assert.Equal(t, models.SizeClassic, lines[0].Size)
	assert.Equal(t, int64(4500), lines[0].PriceAtPurchase)
	assert.Equal(t, models.SizeGenerous, lines[1].Size)
	assert.Equal(t, int64(6300), lines[1].PriceAtPurchase)

	var sum int64
	for _, l := range lines {
		sum += l.PriceAtPurchase * int64(l.Quantity)
	}
	assert.Equal(t, stored.TotalAmount, sum, "les lignes persistées somment toujours au total")
}

func TestCreatePersistsIntentReference(t *testing.T) {
	f := newFixture(t)
	p := f.putProduct(4500)

	result, err := f.workflow.Create(context.Background(), validInput(p))
	require.NoError(t, err)

	stored, err := f.orders.GetOrder(context.Background(), result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_test_123", stored.PaymentIntentID)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, "pi_test_123_secret", result.ClientSecret)
}

func TestCreateIntentFailureLeavesPendingOrder(t *testing.T) {
	f := newFixture(t)
	p := f.putProduct(4500)
	f.intents.fail = true

	_, err := f.workflow.Create(context.Background(), validInput(p))
	require.Error(t, err)

	// La commande pending reste en base : le sweeper la balaiera.
	list, err := f.orders.ListOrders(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.StatusPending, list[0].Status)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	p := f.putProduct(4500)

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"panier vide", func(in *CreateInput) { in.Lines = nil }},
		{"quantité nulle", func(in *CreateInput) { in.Lines[0].Quantity = 0 }},
		{"taille inconnue", func(in *CreateInput) { in.Lines[0].Size = "royale" }},
		{"destinataire manquant", func(in *CreateInput) { in.RecipientName = "  " }},
		{"email invalide", func(in *CreateInput) { in.RecipientEmail = "pas-un-email" }},
		{"créneau inconnu", func(in *CreateInput) { in.DeliverySlot = "soir" }},
		{"livraison aujourd'hui", func(in *CreateInput) { in.DeliveryDate = "2026-03-02" }},
		{"livraison passée", func(in *CreateInput) { in.DeliveryDate = "2026-02-27" }},
		{"livraison dimanche", func(in *CreateInput) { in.DeliveryDate = "2026-03-08" }},
		{"date illisible", func(in *CreateInput) { in.DeliveryDate = "04/03/2026" }},
		{"message de carte trop long", func(in *CreateInput) {
			for len(in.CardMessage) <= 200 {
				in.CardMessage += "fleurs "
			}
		}},
		{"produit inconnu", func(in *CreateInput) { in.Lines[0].ProductID = gocql.TimeUUID().String() }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput(p)
			tc.mutate(&in)
			_, err := f.workflow.Create(context.Background(), in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateAcceptsTomorrow(t *testing.T) {
	f := newFixture(t)
	p := f.putProduct(4500)

	in := validInput(p)
	in.DeliveryDate = "2026-03-03" // demain (mardi)
	_, err := f.workflow.Create(context.Background(), in)
	require.NoError(t, err)
}

func TestCreateRejectsUnavailableProduct(t *testing.T) {
	f := newFixture(t)
	p := f.putProduct(4500)
	p.IsAvailable = false
	f.products.Put(p)

	_, err := f.workflow.Create(context.Background(), validInput(p))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateRejectsTotalUnderMinimum(t *testing.T) {
	f := newFixture(t)
	p := f.putProduct(30) // 30 centimes

	in := validInput(p)
	in.Lines[0].Quantity = 1
	_, err := f.workflow.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	f := newFixture(t)
	p := f.putProduct(4500)

	result, err := f.workflow.Create(context.Background(), validInput(p))
	require.NoError(t, err)

	applied, err := f.workflow.ConfirmPayment(context.Background(), result.Order.ID)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = f.workflow.ConfirmPayment(context.Background(), result.Order.ID)
	require.NoError(t, err)
	assert.False(t, applied, "la seconde confirmation est un no-op")
}

func TestUpdateStatusFollowsStateMachine(t *testing.T) {
	f := newFixture(t)
	p := f.putProduct(4500)

	result, err := f.workflow.Create(context.Background(), validInput(p))
	require.NoError(t, err)
	orderID := result.Order.ID

	// pending → preparing interdit (il faut passer par paid).
	err = f.workflow.UpdateStatus(context.Background(), orderID, models.StatusPreparing)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	stored, _ := f.orders.GetOrder(context.Background(), orderID)
	assert.Equal(t, models.StatusPending, stored.Status, "aucune mutation sur transition refusée")

	_, err = f.workflow.ConfirmPayment(context.Background(), orderID)
	require.NoError(t, err)
	require.NoError(t, f.workflow.UpdateStatus(context.Background(), orderID, models.StatusPreparing))
	require.NoError(t, f.workflow.UpdateStatus(context.Background(), orderID, models.StatusShipped))

	// Retour en arrière interdit.
	err = f.workflow.UpdateStatus(context.Background(), orderID, models.StatusPaid)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, f.workflow.UpdateStatus(context.Background(), orderID, models.StatusDelivered))

	// delivered est terminal, même pour cancelled.
	err = f.workflow.Cancel(context.Background(), orderID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = f.workflow.UpdateStatus(context.Background(), orderID, "expédiée")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCancelFromAnyNonTerminalStatus(t *testing.T) {
	f := newFixture(t)
	p := f.putProduct(4500)

	result, err := f.workflow.Create(context.Background(), validInput(p))
	require.NoError(t, err)

	require.NoError(t, f.workflow.Cancel(context.Background(), result.Order.ID))

	stored, _ := f.orders.GetOrder(context.Background(), result.Order.ID)
	assert.Equal(t, models.StatusCancelled, stored.Status)

	err = f.workflow.Cancel(context.Background(), result.Order.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "cancelled est terminal")
}

func TestGetForUserHidesOtherUsersOrders(t *testing.T) {
	f := newFixture(t)
	p := f.putProduct(4500)

	result, err := f.workflow.Create(context.Background(), validInput(p))
	require.NoError(t, err)

	detail, err := f.workflow.GetForUser(context.Background(), result.Order.ID, "user-1")
	require.NoError(t, err)
	assert.Len(t, detail.Lines, 1)

	_, err = f.workflow.GetForUser(context.Background(), result.Order.ID, "user-2")
	assert.ErrorIs(t, err, ErrNotFound, "propriété aplatie en introuvable")

	_, err = f.workflow.GetForUser(context.Background(), result.Order.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTrackByToken(t *testing.T) {
	f := newFixture(t)
	p := f.putProduct(4500)

	result, err := f.workflow.Create(context.Background(), validInput(p))
	require.NoError(t, err)
	require.Len(t, result.Order.TrackingToken, 32, "128 bits en hex")
	assert.NotContains(t, result.Order.TrackingToken, result.Order.ID.String())

	detail, err := f.workflow.Track(context.Background(), result.Order.TrackingToken)
	require.NoError(t, err)
	assert.Equal(t, result.Order.ID, detail.Order.ID)

	_, err = f.workflow.Track(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeef")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.workflow.Track(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSweeperCancelsStalePendingOrders(t *testing.T) {
	f := newFixture(t)
	p := f.putProduct(4500)

	stale, err := f.workflow.Create(context.Background(), validInput(p))
	require.NoError(t, err)

	fresh, err := f.workflow.Create(context.Background(), validInput(p))
	require.NoError(t, err)

	paid, err := f.workflow.Create(context.Background(), validInput(p))
	require.NoError(t, err)
	_, err = f.workflow.ConfirmPayment(context.Background(), paid.Order.ID)
	require.NoError(t, err)

	// Vieillit artificiellement la première commande au-delà du TTL.
	old := stale.Order
	old.CreatedAt = testNow.Add(-25 * time.Hour)
	require.NoError(t, f.orders.CreateOrder(context.Background(), &old, nil))

	sweeper := NewSweeper(f.orders, 24*time.Hour)
	sweeper.now = func() time.Time { return testNow }
	sweeper.SweepOnce(context.Background())

	got, _ := f.orders.GetOrder(context.Background(), stale.Order.ID)
	assert.Equal(t, models.StatusCancelled, got.Status)

	got, _ = f.orders.GetOrder(context.Background(), fresh.Order.ID)
	assert.Equal(t, models.StatusPending, got.Status, "une pending récente n'est pas balayée")

	got, _ = f.orders.GetOrder(context.Background(), paid.Order.ID)
	assert.Equal(t, models.StatusPaid, got.Status, "une commande payée n'est jamais balayée")
}

func TestShippedTransitionNotifies(t *testing.T) {
	f := newFixture(t)
	p := f.putProduct(4500)

	result, err := f.workflow.Create(context.Background(), validInput(p))
	require.NoError(t, err)
	orderID := result.Order.ID

	_, err = f.workflow.ConfirmPayment(context.Background(), orderID)
	require.NoError(t, err)
	require.NoError(t, f.workflow.UpdateStatus(context.Background(), orderID, models.StatusPreparing))
	require.NoError(t, f.workflow.UpdateStatus(context.Background(), orderID, models.StatusShipped))

	assert.Eventually(t, func() bool {
		return f.notifier.shippedCount() == 1
	}, time.Second, 10*time.Millisecond, "l'e-mail d'expédition part après la transition")
}
