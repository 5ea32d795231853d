package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"shopbot/callback"
	"shopbot/models"
	"shopbot/repositories"
	"shopbot/states"
)

// Add-product wizard: name → price → stock → category → description →
// image → commit. Every step re-persists the draft, so a restart resumes
// where the admin left off.

func (e *Env) startAddProduct(ctx context.Context, ev *Event) (*Render, error) {
	if !ev.User.IsAdmin() {
		return &Render{ChatID: ev.ChatID, Text: textDenied, Notice: textDenied}, nil
	}
	if err := e.States.Set(ctx, ev.User.ID, states.State{Kind: states.KindAddingProductName}, &states.ProductDraft{}); err != nil {
		return nil, err
	}
	return reprompt(ev, "📝 New product.\nSend the product name:"), nil
}

func (e *Env) stepProductName(ctx context.Context, ev *Event) (*Render, error) {
	name := strings.TrimSpace(ev.Text)
	if name == "" {
		return reprompt(ev, "The name must not be empty. Send the product name:"), nil
	}

	draft, err := e.productDraft(ev)
	if err != nil {
		return e.abortWizard(ctx, ev, textCommitError)
	}
	draft.Name = name
	if err := e.States.Set(ctx, ev.User.ID, states.State{Kind: states.KindAddingProductPrice}, draft); err != nil {
		return nil, err
	}
	return reprompt(ev, "💰 Send the price (e.g. 49.90):"), nil
}

func (e *Env) stepProductPrice(ctx context.Context, ev *Event) (*Render, error) {
	price, ok := parsePrice(ev.Text)
	if !ok {
		return reprompt(ev, "That is not a valid price. Send a positive number (e.g. 49.90):"), nil
	}

	draft, err := e.productDraft(ev)
	if err != nil {
		return e.abortWizard(ctx, ev, textCommitError)
	}
	draft.Price = price
	if err := e.States.Set(ctx, ev.User.ID, states.State{Kind: states.KindAddingProductStock}, draft); err != nil {
		return nil, err
	}
	return reprompt(ev, "📊 Send the stock quantity:"), nil
}

func (e *Env) stepProductStock(ctx context.Context, ev *Event) (*Render, error) {
	stock, err := strconv.Atoi(strings.TrimSpace(ev.Text))
	if err != nil || stock < 0 {
		return reprompt(ev, textNotANumber+" Stock must be a non-negative integer:"), nil
	}

	draft, derr := e.productDraft(ev)
	if derr != nil {
		return e.abortWizard(ctx, ev, textCommitError)
	}
	draft.Stock = stock

	categories, err := e.Categories.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return e.abortWizard(ctx, ev, "⚠️ Create a category first.")
	}
	if err := e.States.Set(ctx, ev.User.ID, states.State{Kind: states.KindAddingProductCategory}, draft); err != nil {
		return nil, err
	}
	return &Render{
		ChatID: ev.ChatID,
		Text:   "📂 Choose a category:\n\n" + numberedCategories(categories),
		Inline: selectCategoryKeyboard(categories),
	}, nil
}

func (e *Env) stepProductCategory(ctx context.Context, ev *Event) (*Render, error) {
	categories, err := e.Categories.All(ctx)
	if err != nil {
		return nil, err
	}

	var chosen *models.Category
	if ev.Kind == KindCallback {
		cb, derr := callback.Decode(ev.Token)
		if derr == nil && cb.Verb == callback.VerbSelectCategory {
			for i := range categories {
				if categories[i].ID == cb.ID {
					chosen = &categories[i]
					break
				}
			}
		}
	} else {
		idx, aerr := strconv.Atoi(strings.TrimSpace(ev.Text))
		if aerr == nil && idx >= 1 && idx <= len(categories) {
			chosen = &categories[idx-1]
		}
	}
	if chosen == nil {
		return &Render{
			ChatID: ev.ChatID,
			Text:   "Pick a category by its number:\n\n" + numberedCategories(categories),
			Inline: selectCategoryKeyboard(categories),
			Notice: "Pick a category",
		}, nil
	}

	draft, derr := e.productDraft(ev)
	if derr != nil {
		return e.abortWizard(ctx, ev, textCommitError)
	}
	draft.CategoryID = chosen.ID
	if err := e.States.Set(ctx, ev.User.ID, states.State{Kind: states.KindAddingProductDescription}, draft); err != nil {
		return nil, err
	}
	return reprompt(ev, fmt.Sprintf("✅ %s.\n📄 Send a description (or %q to skip):", chosen.Name, skipToken)), nil
}

func (e *Env) stepProductDescription(ctx context.Context, ev *Event) (*Render, error) {
	draft, err := e.productDraft(ev)
	if err != nil {
		return e.abortWizard(ctx, ev, textCommitError)
	}
	if text := strings.TrimSpace(ev.Text); text != skipToken {
		draft.Description = text
	}
	if err := e.States.Set(ctx, ev.User.ID, states.State{Kind: states.KindAddingProductImage}, draft); err != nil {
		return nil, err
	}
	return reprompt(ev, fmt.Sprintf("🖼 Send a photo, an image URL, or %q to skip:", skipToken)), nil
}

func (e *Env) stepProductImage(ctx context.Context, ev *Event) (*Render, error) {
	draft, err := e.productDraft(ev)
	if err != nil {
		return e.abortWizard(ctx, ev, textCommitError)
	}

	switch {
	case ev.Kind == KindPhoto:
		draft.ImageFileID = ev.PhotoFileID
	case strings.TrimSpace(ev.Text) == skipToken:
		// No image.
	case isURL(ev.Text):
		draft.ImageFileID = strings.TrimSpace(ev.Text)
	default:
		return reprompt(ev, fmt.Sprintf("Send a photo, an image URL, or %q to skip:", skipToken)), nil
	}

	// Commit: the category may have vanished mid-wizard.
	if _, err := e.Categories.ByID(ctx, draft.CategoryID); errors.Is(err, repositories.ErrNotFound) {
		return e.abortWizard(ctx, ev, textEntityGone)
	} else if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        draft.Name,
		Description: draft.Description,
		Price:       draft.Price,
		Stock:       draft.Stock,
		ImageFileID: draft.ImageFileID,
		CategoryID:  draft.CategoryID,
	}
	if err := e.Products.Create(ctx, product); err != nil {
		return nil, &CommitError{Err: err}
	}
	if err := e.States.Reset(ctx, ev.User.ID); err != nil {
		return nil, &CommitError{Err: err}
	}
	return &Render{
		ChatID: ev.ChatID,
		Text:   fmt.Sprintf("✅ Product created: %s (%s)", product.Name, product.Price.StringFixed(2)),
		Reply:  mainMenuKeyboard(ev.User),
	}, nil
}

// Edit-product wizard: a numbered field menu loops back to itself after
// each field change, so several fields can be edited in one session.

const editProductMenuHint = "\nSend a field number, 0 to finish, or 9 to delete the product."

func (e *Env) startEditProduct(ctx context.Context, ev *Event, productID uint) (*Render, error) {
	if !ev.User.IsAdmin() {
		return &Render{ChatID: ev.ChatID, Text: textDenied, Notice: textDenied}, nil
	}
	product, err := e.Products.ByID(ctx, productID)
	if errors.Is(err, repositories.ErrNotFound) {
		return &Render{ChatID: ev.ChatID, Text: textStaleButton, Notice: textStaleButton}, nil
	}
	if err != nil {
		return nil, err
	}
	st := states.State{Kind: states.KindEditingProduct, EntityID: productID}
	if err := e.States.Set(ctx, ev.User.ID, st, &states.EditDraft{}); err != nil {
		return nil, err
	}
	return reprompt(ev, editProductMenu(product)), nil
}

func (e *Env) stepEditProduct(ctx context.Context, ev *Event) (*Render, error) {
	product, err := e.Products.ByID(ctx, ev.State.EntityID)
	if errors.Is(err, repositories.ErrNotFound) {
		return e.abortWizard(ctx, ev, textEntityGone)
	}
	if err != nil {
		return nil, err
	}

	var draft states.EditDraft
	if len(ev.User.Scratch) > 0 {
		if err := states.UnmarshalDraft(ev.User.Scratch, &draft); err != nil {
			return e.abortWizard(ctx, ev, textCommitError)
		}
	}

	if draft.Field == "" {
		return e.editProductMenuChoice(ctx, ev, product)
	}
	return e.editProductApply(ctx, ev, product, &draft)
}

func (e *Env) editProductMenuChoice(ctx context.Context, ev *Event, product *models.Product) (*Render, error) {
	choice := strings.TrimSpace(ev.Text)
	switch choice {
	case "0":
		if err := e.States.Reset(ctx, ev.User.ID); err != nil {
			return nil, err
		}
		return &Render{ChatID: ev.ChatID, Text: "✅ Done editing.", Reply: mainMenuKeyboard(ev.User)}, nil
	case "9":
		if err := e.Products.Delete(ctx, product.ID); err != nil {
			return nil, &CommitError{Err: err}
		}
		if err := e.States.Reset(ctx, ev.User.ID); err != nil {
			return nil, &CommitError{Err: err}
		}
		return &Render{ChatID: ev.ChatID, Text: "🗑 Product deleted.", Reply: mainMenuKeyboard(ev.User)}, nil
	}

	field, prompt := productFieldFor(choice)
	if field == "" {
		return reprompt(ev, editProductMenu(product)), nil
	}
	st := states.State{Kind: states.KindEditingProduct, EntityID: product.ID}
	if err := e.States.Set(ctx, ev.User.ID, st, &states.EditDraft{Field: field}); err != nil {
		return nil, err
	}
	return reprompt(ev, prompt), nil
}

func (e *Env) editProductApply(ctx context.Context, ev *Event, product *models.Product, draft *states.EditDraft) (*Render, error) {
	switch draft.Field {
	case "name":
		name := strings.TrimSpace(ev.Text)
		if name == "" {
			return reprompt(ev, "The name must not be empty. Send the new name:"), nil
		}
		product.Name = name
	case "price":
		price, ok := parsePrice(ev.Text)
		if !ok {
			return reprompt(ev, "That is not a valid price. Send a positive number:"), nil
		}
		product.Price = price
	case "stock":
		stock, err := strconv.Atoi(strings.TrimSpace(ev.Text))
		if err != nil || stock < 0 {
			return reprompt(ev, textNotANumber+" Stock must be a non-negative integer:"), nil
		}
		product.Stock = stock
	case "category":
		categories, err := e.Categories.All(ctx)
		if err != nil {
			return nil, err
		}
		idx, aerr := strconv.Atoi(strings.TrimSpace(ev.Text))
		if aerr != nil || idx < 1 || idx > len(categories) {
			return reprompt(ev, "Pick a category by its number:\n\n"+numberedCategories(categories)), nil
		}
		product.CategoryID = categories[idx-1].ID
	case "description":
		if text := strings.TrimSpace(ev.Text); text == skipToken {
			product.Description = ""
		} else {
			product.Description = text
		}
	case "image":
		switch {
		case ev.Kind == KindPhoto:
			product.ImageFileID = ev.PhotoFileID
		case isURL(ev.Text):
			product.ImageFileID = strings.TrimSpace(ev.Text)
		case strings.TrimSpace(ev.Text) == skipToken:
			product.ImageFileID = ""
		default:
			return reprompt(ev, fmt.Sprintf("Send a photo, an image URL, or %q to clear:", skipToken)), nil
		}
	default:
		return e.abortWizard(ctx, ev, textCommitError)
	}

	if err := e.Products.Update(ctx, product); err != nil {
		return nil, &CommitError{Err: err}
	}

	// Back to the field menu, same session.
	st := states.State{Kind: states.KindEditingProduct, EntityID: product.ID}
	if err := e.States.Set(ctx, ev.User.ID, st, &states.EditDraft{}); err != nil {
		return nil, err
	}
	return reprompt(ev, "✅ Updated.\n\n"+editProductMenu(product)), nil
}

func editProductMenu(p *models.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✏️ Editing %s\n\n", p.Name)
	fmt.Fprintf(&b, "1. Name: %s\n", p.Name)
	fmt.Fprintf(&b, "2. Price: %s\n", p.Price.StringFixed(2))
	fmt.Fprintf(&b, "3. Stock: %d\n", p.Stock)
	fmt.Fprintf(&b, "4. Category\n")
	fmt.Fprintf(&b, "5. Description: %s\n", truncate(p.Description, 60))
	fmt.Fprintf(&b, "6. Image\n")
	b.WriteString(editProductMenuHint)
	return b.String()
}

func productFieldFor(choice string) (field, prompt string) {
	switch choice {
	case "1":
		return "name", "Send the new name:"
	case "2":
		return "price", "Send the new price:"
	case "3":
		return "stock", "Send the new stock quantity:"
	case "4":
		return "category", "Send the number of the new category:"
	case "5":
		return "description", fmt.Sprintf("Send the new description (or %q to clear):", skipToken)
	case "6":
		return "image", fmt.Sprintf("Send a photo, an image URL, or %q to clear:", skipToken)
	}
	return "", ""
}

func (e *Env) productDraft(ev *Event) (*states.ProductDraft, error) {
	var draft states.ProductDraft
	if len(ev.User.Scratch) == 0 {
		return &draft, nil
	}
	if err := states.UnmarshalDraft(ev.User.Scratch, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func parsePrice(text string) (decimal.Decimal, bool) {
	price, err := decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(text, ",", ".")))
	if err != nil || !price.IsPositive() {
		return decimal.Zero, false
	}
	return price, true
}

func isURL(text string) bool {
	text = strings.TrimSpace(text)
	return strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://")
}

// truncate shortens s to at most max runes, never splitting one.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

func numberedCategories(categories []models.Category) string {
	var b strings.Builder
	for i, c := range categories {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c.Name)
	}
	return b.String()
}
