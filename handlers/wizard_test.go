package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbot/models"
	"shopbot/states"
)

const adminID int64 = 10

func TestAddProductHappyPath(t *testing.T) {
	h := newHarness(t)
	h.addUser(adminID, models.RoleAdmin)
	h.categories.add("Tea", "")
	h.categories.add("Mugs", "")

	r := h.callbackToken(adminID, "add_product")
	assert.Contains(t, r.Text, "Send the product name")
	assert.Equal(t, states.KindAddingProductName, h.stateOf(adminID).Kind)

	h.text(adminID, "Green Tea 100g")
	assert.Equal(t, states.KindAddingProductPrice, h.stateOf(adminID).Kind)

	h.text(adminID, "12,50")
	assert.Equal(t, states.KindAddingProductStock, h.stateOf(adminID).Kind)

	h.text(adminID, "40")
	assert.Equal(t, states.KindAddingProductCategory, h.stateOf(adminID).Kind)

	// Categories are listed alphabetically: 1. Mugs, 2. Tea.
	h.text(adminID, "2")
	assert.Equal(t, states.KindAddingProductDescription, h.stateOf(adminID).Kind)

	h.text(adminID, "Loose leaf")
	assert.Equal(t, states.KindAddingProductImage, h.stateOf(adminID).Kind)

	r = h.text(adminID, "-")
	assert.Contains(t, r.Text, "Product created")
	assert.True(t, h.stateOf(adminID).IsNormal())
	assert.Nil(t, h.scratchOf(adminID))

	require.Len(t, h.products.byID, 1)
	p := h.products.byID[1]
	assert.Equal(t, "Green Tea 100g", p.Name)
	assert.Equal(t, "12.50", p.Price.StringFixed(2))
	assert.Equal(t, 40, p.Stock)
	assert.Equal(t, "Loose leaf", p.Description)
	tea, _ := h.categories.ByName(context.Background(), "Tea")
	assert.Equal(t, tea.ID, p.CategoryID)
}

func TestAddProductAcceptsPhotoAndCategoryButton(t *testing.T) {
	h := newHarness(t)
	h.addUser(adminID, models.RoleAdmin)
	tea := h.categories.add("Tea", "")

	h.callbackToken(adminID, "add_product")
	h.text(adminID, "Black Tea")
	h.text(adminID, "9.90")
	h.text(adminID, "5")

	h.callbackToken(adminID, "select_category:1")
	assert.Equal(t, states.KindAddingProductDescription, h.stateOf(adminID).Kind)

	h.text(adminID, "-")
	r := h.photo(adminID, "file-abc")
	assert.Contains(t, r.Text, "Product created")

	p := h.products.byID[1]
	assert.Equal(t, "file-abc", p.ImageFileID)
	assert.Empty(t, p.Description)
	assert.Equal(t, tea.ID, p.CategoryID)
}

func TestAddProductInvalidInputReprompts(t *testing.T) {
	h := newHarness(t)
	h.addUser(adminID, models.RoleAdmin)
	h.categories.add("Tea", "")

	h.callbackToken(adminID, "add_product")

	r := h.text(adminID, "   ")
	assert.Contains(t, r.Text, "must not be empty")
	assert.Equal(t, states.KindAddingProductName, h.stateOf(adminID).Kind)

	h.text(adminID, "Tea")
	r = h.text(adminID, "free")
	assert.Contains(t, r.Text, "not a valid price")
	assert.Equal(t, states.KindAddingProductPrice, h.stateOf(adminID).Kind)

	r = h.text(adminID, "-5")
	assert.Contains(t, r.Text, "not a valid price")

	h.text(adminID, "5")
	r = h.text(adminID, "many")
	assert.Contains(t, r.Text, textNotANumber)
	assert.Equal(t, states.KindAddingProductStock, h.stateOf(adminID).Kind)

	h.text(adminID, "3")
	r = h.text(adminID, "99")
	assert.Contains(t, r.Text, "Pick a category")
	assert.Equal(t, states.KindAddingProductCategory, h.stateOf(adminID).Kind)
}

func TestAddProductNeedsCategory(t *testing.T) {
	h := newHarness(t)
	h.addUser(adminID, models.RoleAdmin)

	h.callbackToken(adminID, "add_product")
	h.text(adminID, "Tea")
	h.text(adminID, "5")
	r := h.text(adminID, "3")

	assert.Contains(t, r.Text, "Create a category first")
	assert.True(t, h.stateOf(adminID).IsNormal())
}

func TestAddProductDeniedForNonAdmin(t *testing.T) {
	h := newHarness(t)
	h.addUser(1, models.RoleUser)
	h.addUser(2, models.RoleManager)

	r := h.callbackToken(1, "add_product")
	assert.Equal(t, textDenied, r.Text)
	assert.True(t, h.stateOf(1).IsNormal())

	r = h.callbackToken(2, "add_product")
	assert.Equal(t, textDenied, r.Text)
}

func TestCancelFromEveryProductStep(t *testing.T) {
	h := newHarness(t)
	h.addUser(adminID, models.RoleAdmin)
	h.categories.add("Tea", "")

	steps := [][]string{
		{},
		{"Tea"},
		{"Tea", "5"},
		{"Tea", "5", "3"},
		{"Tea", "5", "3", "1"},
		{"Tea", "5", "3", "1", "nice tea"},
	}
	for _, inputs := range steps {
		h.callbackToken(adminID, "add_product")
		for _, in := range inputs {
			h.text(adminID, in)
		}
		require.True(t, h.stateOf(adminID).IsWizard(), "inputs %v", inputs)

		r := h.text(adminID, "cancel")
		assert.Equal(t, textCancelled, r.Text)
		assert.True(t, h.stateOf(adminID).IsNormal(), "inputs %v", inputs)
		assert.Nil(t, h.scratchOf(adminID), "inputs %v", inputs)
	}
	assert.Empty(t, h.products.byID, "a cancelled wizard must not create anything")
}

func TestCancelCaseInsensitiveAndBackToken(t *testing.T) {
	h := newHarness(t)
	h.addUser(adminID, models.RoleAdmin)

	h.callbackToken(adminID, "add_category")
	r := h.text(adminID, "  CANCEL  ")
	assert.Equal(t, textCancelled, r.Text)

	h.callbackToken(adminID, "add_category")
	r = h.text(adminID, "back")
	assert.Equal(t, textCancelled, r.Text)
	assert.True(t, h.stateOf(adminID).IsNormal())
}

func TestCancelOutsideWizard(t *testing.T) {
	h := newHarness(t)
	h.addUser(1, models.RoleUser)

	r := h.text(1, "cancel")
	assert.Equal(t, textNothingCancel, r.Text)
}

func TestMenuLabelMidWizardIsWizardInput(t *testing.T) {
	h := newHarness(t)
	h.addUser(adminID, models.RoleAdmin)

	h.callbackToken(adminID, "add_product")
	h.text(adminID, labelCart)

	// The label was consumed as the product name, not routed to the cart view.
	assert.Equal(t, states.KindAddingProductPrice, h.stateOf(adminID).Kind)

	var draft states.ProductDraft
	require.NoError(t, states.UnmarshalDraft(h.scratchOf(adminID), &draft))
	assert.Equal(t, labelCart, draft.Name)
}

func TestAddCategoryHappyPath(t *testing.T) {
	h := newHarness(t)
	h.addUser(adminID, models.RoleAdmin)

	h.callbackToken(adminID, "add_category")
	assert.Equal(t, states.KindAddingCategoryName, h.stateOf(adminID).Kind)

	h.text(adminID, "Green Tea")
	assert.Equal(t, states.KindAddingCategoryDescription, h.stateOf(adminID).Kind)

	r := h.text(adminID, "-")
	assert.Contains(t, r.Text, "Category created")
	assert.Contains(t, r.Text, "green-tea")
	assert.True(t, h.stateOf(adminID).IsNormal())

	c, err := h.categories.ByName(context.Background(), "Green Tea")
	require.NoError(t, err)
	assert.Equal(t, "green-tea", c.Slug)
	assert.Equal(t, "No description", c.Description)
}

func TestAddCategoryDuplicateNameReprompts(t *testing.T) {
	h := newHarness(t)
	h.addUser(adminID, models.RoleAdmin)
	h.categories.add("Tea", "")

	h.callbackToken(adminID, "add_category")
	r := h.text(adminID, "Tea")
	assert.Contains(t, r.Text, "already exists")
	assert.Equal(t, states.KindAddingCategoryName, h.stateOf(adminID).Kind)

	h.text(adminID, "Coffee")
	r = h.text(adminID, "dark roasts")
	assert.Contains(t, r.Text, "Category created")
}

func TestAddCategoryCommitRaceReturnsExisting(t *testing.T) {
	h := newHarness(t)
	h.addUser(adminID, models.RoleAdmin)

	h.callbackToken(adminID, "add_category")
	h.text(adminID, "Tea")

	// Someone creates the same name between the name step and the commit.
	h.categories.add("Tea", "raced in")

	r := h.text(adminID, "-")
	assert.Contains(t, r.Text, "already exists")
	assert.True(t, h.stateOf(adminID).IsNormal())
	all, _ := h.categories.All(context.Background())
	assert.Len(t, all, 1, "the race must not duplicate the category")
}

func TestEditProductFieldLoop(t *testing.T) {
	h := newHarness(t)
	h.addUser(adminID, models.RoleAdmin)
	tea := h.categories.add("Tea", "")
	p := &models.Product{Name: "Old Name", Price: price("10"), Stock: 5, CategoryID: tea.ID}
	require.NoError(t, h.products.Create(context.Background(), p))

	r := h.callbackToken(adminID, "edit_product:1")
	assert.Contains(t, r.Text, "Editing Old Name")
	assert.Equal(t, states.State{Kind: states.KindEditingProduct, EntityID: 1}, h.stateOf(adminID))

	h.text(adminID, "1")
	r = h.text(adminID, "New Name")
	assert.Contains(t, r.Text, "Updated")
	assert.Equal(t, "New Name", h.products.byID[1].Name)

	// Still in the same session: edit a second field.
	h.text(adminID, "2")
	h.text(adminID, "15.00")
	assert.Equal(t, "15.00", h.products.byID[1].Price.StringFixed(2))

	r = h.text(adminID, "0")
	assert.Contains(t, r.Text, "Done editing")
	assert.True(t, h.stateOf(adminID).IsNormal())
}

func TestEditProductInvalidPriceReprompts(t *testing.T) {
	h := newHarness(t)
	h.addUser(adminID, models.RoleAdmin)
	tea := h.categories.add("Tea", "")
	require.NoError(t, h.products.Create(context.Background(), &models.Product{Name: "Tea", Price: price("10"), CategoryID: tea.ID}))

	h.callbackToken(adminID, "edit_product:1")
	h.text(adminID, "2")
	r := h.text(adminID, "cheap")
	assert.Contains(t, r.Text, "not a valid price")
	assert.Equal(t, "10.00", h.products.byID[1].Price.StringFixed(2))

	h.text(adminID, "12")
	assert.Equal(t, "12.00", h.products.byID[1].Price.StringFixed(2))
}

func TestEditProductDeleteChoice(t *testing.T) {
	h := newHarness(t)
	h.addUser(adminID, models.RoleAdmin)
	tea := h.categories.add("Tea", "")
	require.NoError(t, h.products.Create(context.Background(), &models.Product{Name: "Tea", Price: price("10"), CategoryID: tea.ID}))

	h.callbackToken(adminID, "edit_product:1")
	r := h.text(adminID, "9")
	assert.Contains(t, r.Text, "Product deleted")
	assert.Empty(t, h.products.byID)
	assert.True(t, h.stateOf(adminID).IsNormal())
}

func TestEditProductGoneMidWizard(t *testing.T) {
	h := newHarness(t)
	h.addUser(adminID, models.RoleAdmin)
	tea := h.categories.add("Tea", "")
	require.NoError(t, h.products.Create(context.Background(), &models.Product{Name: "Tea", Price: price("10"), CategoryID: tea.ID}))

	h.callbackToken(adminID, "edit_product:1")
	require.NoError(t, h.products.Delete(context.Background(), 1))

	r := h.text(adminID, "1")
	assert.Equal(t, textEntityGone, r.Text)
	assert.True(t, h.stateOf(adminID).IsNormal())
}

func TestEditCategoryRenameRegeneratesSlug(t *testing.T) {
	h := newHarness(t)
	h.addUser(adminID, models.RoleAdmin)
	h.categories.add("Green Tea", "")

	h.callbackToken(adminID, "edit_category:1")
	assert.Equal(t, states.State{Kind: states.KindEditingCategory, EntityID: 1}, h.stateOf(adminID))

	h.text(adminID, "1")
	r := h.text(adminID, "Black Tea")
	assert.Contains(t, r.Text, "Updated")

	c, _ := h.categories.ByID(context.Background(), 1)
	assert.Equal(t, "Black Tea", c.Name)
	assert.Equal(t, "black-tea", c.Slug)
}

func TestEditCategoryRejectsTakenName(t *testing.T) {
	h := newHarness(t)
	h.addUser(adminID, models.RoleAdmin)
	h.categories.add("Tea", "")
	h.categories.add("Coffee", "")

	h.callbackToken(adminID, "edit_category:1")
	h.text(adminID, "1")
	r := h.text(adminID, "Coffee")
	assert.Contains(t, r.Text, "already exists")

	c, _ := h.categories.ByID(context.Background(), 1)
	assert.Equal(t, "Tea", c.Name)
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "зелёный", truncate("зелёный", 7))
	assert.Equal(t, "зелё…", truncate("зелёный чай", 4))
	assert.Equal(t, "ab…", truncate("abcdef", 2))
}
