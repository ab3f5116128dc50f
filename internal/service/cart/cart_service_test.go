package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardmarket/internal/model"
	"cardmarket/pkg/utils"
)

type fakeProductRepo struct {
	products map[uint64]*model.Product
}

func (f *fakeProductRepo) Create(ctx context.Context, p *model.Product) error {
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, utils.NotFoundf("product %d not found", id)
	}
	return p, nil
}

func (f *fakeProductRepo) Update(ctx context.Context, p *model.Product) error { return nil }
func (f *fakeProductRepo) Delete(ctx context.Context, id uint64) error        { return nil }
func (f *fakeProductRepo) List(ctx context.Context) ([]*model.Product, error) { return nil, nil }
func (f *fakeProductRepo) Count(ctx context.Context) (int64, error)           { return 0, nil }

func newTestService(t *testing.T, products ...*model.Product) CartService {
	t.Helper()
	repo := &fakeProductRepo{products: map[uint64]*model.Product{}}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	svc, err := NewCartService(repo, 10*time.Minute, 0)
	require.NoError(t, err)
	return svc
}

func TestCart_AddMergesQuantities(t *testing.T) {
	svc := newTestService(t, &model.Product{ID: 1, ProductName: "Charizard", Quantity: 10, Price: 25.50})

	ctx := context.Background()
	cart, err := svc.Add(ctx, 7, 1, 2)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, 2, cart[1].Quantity)

	cart, err = svc.Add(ctx, 7, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, cart[1].Quantity)
	assert.Equal(t, 25.50, cart[1].Price)
}

func TestCart_AddSnapshotsDiscountedPrice(t *testing.T) {
	disc := 20.0
	svc := newTestService(t, &model.Product{ID: 2, ProductName: "Pikachu", Quantity: 5, Price: 10, DiscountPercent: &disc})

	cart, err := svc.Add(context.Background(), 7, 2, 1)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, cart[2].Price, 1e-9)
	assert.Equal(t, 10.0, cart[2].OriginalPrice)
}

func TestCart_AddRejectsBadQuantityAndOutOfStock(t *testing.T) {
	svc := newTestService(t,
		&model.Product{ID: 1, ProductName: "Charizard", Quantity: 10, Price: 25.50},
		&model.Product{ID: 3, ProductName: "Mewtwo", Quantity: 0, Price: 40},
	)

	ctx := context.Background()
	_, err := svc.Add(ctx, 7, 1, 0)
	require.Error(t, err)
	appErr, ok := utils.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.CodeInvalidParam, appErr.Code)

	_, err = svc.Add(ctx, 7, 3, 1)
	require.Error(t, err)
	appErr, ok = utils.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.CodeConflict, appErr.Code)

	_, err = svc.Add(ctx, 7, 99, 1)
	require.Error(t, err)
}

func TestCart_SetQuantity(t *testing.T) {
	svc := newTestService(t, &model.Product{ID: 1, ProductName: "Charizard", Quantity: 10, Price: 25.50})

	ctx := context.Background()
	_, err := svc.Add(ctx, 7, 1, 2)
	require.NoError(t, err)

	cart, err := svc.SetQuantity(ctx, 7, 1, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, cart[1].Quantity)

	_, err = svc.SetQuantity(ctx, 7, 1, 0)
	require.Error(t, err)

	_, err = svc.SetQuantity(ctx, 7, 42, 1)
	require.Error(t, err)
}

func TestCart_RemoveAndClear(t *testing.T) {
	svc := newTestService(t,
		&model.Product{ID: 1, ProductName: "Charizard", Quantity: 10, Price: 25.50},
		&model.Product{ID: 2, ProductName: "Pikachu", Quantity: 5, Price: 10},
	)

	ctx := context.Background()
	_, err := svc.Add(ctx, 7, 1, 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, 7, 2, 1)
	require.NoError(t, err)

	cart, err := svc.Remove(ctx, 7, 1)
	require.NoError(t, err)
	assert.Len(t, cart, 1)

	require.NoError(t, svc.Clear(ctx, 7))
	cart, err = svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	// Clearing an already empty cart is not an error.
	require.NoError(t, svc.Clear(ctx, 7))
}

func TestCart_IsolatedPerUser(t *testing.T) {
	svc := newTestService(t, &model.Product{ID: 1, ProductName: "Charizard", Quantity: 10, Price: 25.50})

	ctx := context.Background()
	_, err := svc.Add(ctx, 7, 1, 2)
	require.NoError(t, err)

	other, err := svc.Get(ctx, 8)
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())
}
