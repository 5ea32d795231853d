package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbot/models"
	"shopbot/repositories"
)

type fakeProducts struct {
	byID map[uint]*models.Product
}

func (f *fakeProducts) ByID(ctx context.Context, id uint) (*models.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type fakeLines struct {
	nextID   uint
	lines    map[uint]*models.CartLine
	products *fakeProducts
}

func newFakeLines(products *fakeProducts) *fakeLines {
	return &fakeLines{nextID: 1, lines: make(map[uint]*models.CartLine), products: products}
}

// withProduct mirrors the repository's preload of the Product
// association.
func (f *fakeLines) withProduct(l *models.CartLine) models.CartLine {
	cp := *l
	if p, ok := f.products.byID[cp.ProductID]; ok {
		cp.Product = *p
	}
	return cp
}

func (f *fakeLines) LinesFor(ctx context.Context, userID int64) ([]models.CartLine, error) {
	var out []models.CartLine
	for _, l := range f.lines {
		if l.UserID == userID {
			out = append(out, f.withProduct(l))
		}
	}
	return out, nil
}

func (f *fakeLines) LineByID(ctx context.Context, id uint) (*models.CartLine, error) {
	l, ok := f.lines[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := f.withProduct(l)
	return &cp, nil
}

func (f *fakeLines) LineFor(ctx context.Context, userID int64, productID uint) (*models.CartLine, error) {
	for _, l := range f.lines {
		if l.UserID == userID && l.ProductID == productID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeLines) Save(ctx context.Context, line *models.CartLine) error {
	if line.ID == 0 {
		line.ID = f.nextID
		f.nextID++
	}
	cp := *line
	f.lines[line.ID] = &cp
	return nil
}

func (f *fakeLines) Delete(ctx context.Context, id uint) error {
	delete(f.lines, id)
	return nil
}

func (f *fakeLines) Clear(ctx context.Context, userID int64) error {
	for id, l := range f.lines {
		if l.UserID == userID {
			delete(f.lines, id)
		}
	}
	return nil
}

func newTestEngine(products ...*models.Product) (*Engine, *fakeProducts, *fakeLines) {
	fp := &fakeProducts{byID: make(map[uint]*models.Product)}
	for _, p := range products {
		fp.byID[p.ID] = p
	}
	fl := newFakeLines(fp)
	return NewEngine(fp, fl), fp, fl
}

func price(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

const userID int64 = 100

func TestAddCreatesAndIncrementsSingleLine(t *testing.T) {
	engine, _, _ := newTestEngine(&models.Product{ID: 1, Name: "A", Price: price("100"), Stock: 5})
	ctx := context.Background()

	line, err := engine.Add(ctx, userID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)

	line, err = engine.Add(ctx, userID, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, line.Quantity)

	lines, err := engine.Lines(ctx, userID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)

	total, err := engine.Total(ctx, userID)
	require.NoError(t, err)
	assert.True(t, total.Equal(price("500")), "total = %s", total)

	// A sixth unit exceeds stock: no mutation.
	_, err = engine.Add(ctx, userID, 1, 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	lines, _ = engine.Lines(ctx, userID)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestAddRejectsBadInput(t *testing.T) {
	engine, _, _ := newTestEngine(&models.Product{ID: 1, Name: "A", Price: price("10"), Stock: 3})
	ctx := context.Background()

	_, err := engine.Add(ctx, userID, 1, 0)
	assert.ErrorIs(t, err, ErrBadQuantity)

	_, err = engine.Add(ctx, userID, 1, -2)
	assert.ErrorIs(t, err, ErrBadQuantity)

	_, err = engine.Add(ctx, userID, 99, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = engine.Add(ctx, userID, 1, 4)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	empty, err := engine.IsEmpty(ctx, userID)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestSetQuantityZeroEqualsRemove(t *testing.T) {
	engine, _, _ := newTestEngine(&models.Product{ID: 1, Name: "A", Price: price("10"), Stock: 9})
	ctx := context.Background()

	line, err := engine.Add(ctx, userID, 1, 3)
	require.NoError(t, err)

	require.NoError(t, engine.SetQuantity(ctx, userID, line.ID, 0))

	empty, err := engine.IsEmpty(ctx, userID)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestSetQuantityChecksLiveStock(t *testing.T) {
	product := &models.Product{ID: 1, Name: "A", Price: price("10"), Stock: 9}
	engine, fp, _ := newTestEngine(product)
	ctx := context.Background()

	line, err := engine.Add(ctx, userID, 1, 3)
	require.NoError(t, err)

	// Stock shrinks after the line was created; the next change sees it.
	fp.byID[1].Stock = 4
	err = engine.SetQuantity(ctx, userID, line.ID, 5)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	require.NoError(t, engine.SetQuantity(ctx, userID, line.ID, 4))
	lines, _ := engine.Lines(ctx, userID)
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].Quantity)
}

func TestSetQuantityDropsLineWhenProductGone(t *testing.T) {
	engine, fp, _ := newTestEngine(&models.Product{ID: 1, Name: "A", Price: price("10"), Stock: 9})
	ctx := context.Background()

	line, err := engine.Add(ctx, userID, 1, 2)
	require.NoError(t, err)

	delete(fp.byID, 1)
	err = engine.SetQuantity(ctx, userID, line.ID, 3)
	assert.ErrorIs(t, err, ErrProductNotFound)

	empty, _ := engine.IsEmpty(ctx, userID)
	assert.True(t, empty)
}

func TestRemoveRefusesForeignLine(t *testing.T) {
	engine, _, _ := newTestEngine(&models.Product{ID: 1, Name: "A", Price: price("10"), Stock: 9})
	ctx := context.Background()

	line, err := engine.Add(ctx, userID, 1, 2)
	require.NoError(t, err)

	err = engine.Remove(ctx, userID+1, line.ID)
	assert.ErrorIs(t, err, ErrNotYourLine)

	require.NoError(t, engine.Remove(ctx, userID, line.ID))
}

func TestClearThenTotalIsZero(t *testing.T) {
	engine, _, _ := newTestEngine(
		&models.Product{ID: 1, Name: "A", Price: price("10.50"), Stock: 9},
		&models.Product{ID: 2, Name: "B", Price: price("3.30"), Stock: 9},
	)
	ctx := context.Background()

	_, err := engine.Add(ctx, userID, 1, 2)
	require.NoError(t, err)
	_, err = engine.Add(ctx, userID, 2, 1)
	require.NoError(t, err)

	require.NoError(t, engine.Clear(ctx, userID))

	total, err := engine.Total(ctx, userID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	empty, err := engine.IsEmpty(ctx, userID)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestTotalUsesExactDecimals(t *testing.T) {
	engine, _, _ := newTestEngine(
		&models.Product{ID: 1, Name: "A", Price: price("0.10"), Stock: 100},
	)
	ctx := context.Background()

	_, err := engine.Add(ctx, userID, 1, 3)
	require.NoError(t, err)

	total, err := engine.Total(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "0.30", total.StringFixed(2))
}
