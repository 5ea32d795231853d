package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopbot/models"
	"shopbot/repositories"
	"shopbot/states"
)

// Add-category wizard: unique name → optional description → commit.

func (e *Env) startAddCategory(ctx context.Context, ev *Event) (*Render, error) {
	if !ev.User.IsAdmin() {
		return &Render{ChatID: ev.ChatID, Text: textDenied, Notice: textDenied}, nil
	}
	if err := e.States.Set(ctx, ev.User.ID, states.State{Kind: states.KindAddingCategoryName}, &states.CategoryDraft{}); err != nil {
		return nil, err
	}
	return reprompt(ev, "📂 New category.\nSend the category name:"), nil
}

func (e *Env) stepCategoryName(ctx context.Context, ev *Event) (*Render, error) {
	name := strings.TrimSpace(ev.Text)
	if name == "" {
		return reprompt(ev, "The name must not be empty. Send the category name:"), nil
	}

	if _, err := e.Categories.ByName(ctx, name); err == nil {
		return reprompt(ev, fmt.Sprintf("A category named %q already exists. Send another name:", name)), nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	draft := &states.CategoryDraft{Name: name}
	if err := e.States.Set(ctx, ev.User.ID, states.State{Kind: states.KindAddingCategoryDescription}, draft); err != nil {
		return nil, err
	}
	return reprompt(ev, fmt.Sprintf("📄 Send a description (or %q to skip):", skipToken)), nil
}

func (e *Env) stepCategoryDescription(ctx context.Context, ev *Event) (*Render, error) {
	var draft states.CategoryDraft
	if err := states.UnmarshalDraft(ev.User.Scratch, &draft); err != nil {
		return e.abortWizard(ctx, ev, textCommitError)
	}

	description := strings.TrimSpace(ev.Text)
	if description == skipToken {
		description = "No description"
	}

	// GetOrCreate absorbs the race where the same name was created since
	// the name step: the existing category is returned, never duplicated.
	category, created, err := e.Categories.GetOrCreate(ctx, draft.Name, description)
	if err != nil {
		return nil, &CommitError{Err: err}
	}
	if err := e.States.Reset(ctx, ev.User.ID); err != nil {
		return nil, &CommitError{Err: err}
	}

	text := fmt.Sprintf("✅ Category created: %s (slug %s)", category.Name, category.Slug)
	if !created {
		text = fmt.Sprintf("Category %q already exists.", category.Name)
	}
	return &Render{ChatID: ev.ChatID, Text: text, Reply: mainMenuKeyboard(ev.User)}, nil
}

// Edit-category wizard, same menu-loop shape as the product editor.

const editCategoryMenuHint = "\nSend a field number, 0 to finish, or 9 to delete the category."

func (e *Env) startEditCategory(ctx context.Context, ev *Event, categoryID uint) (*Render, error) {
	if !ev.User.IsAdmin() {
		return &Render{ChatID: ev.ChatID, Text: textDenied, Notice: textDenied}, nil
	}
	category, err := e.Categories.ByID(ctx, categoryID)
	if errors.Is(err, repositories.ErrNotFound) {
		return &Render{ChatID: ev.ChatID, Text: textStaleButton, Notice: textStaleButton}, nil
	}
	if err != nil {
		return nil, err
	}
	st := states.State{Kind: states.KindEditingCategory, EntityID: categoryID}
	if err := e.States.Set(ctx, ev.User.ID, st, &states.EditDraft{}); err != nil {
		return nil, err
	}
	return reprompt(ev, editCategoryMenu(category)), nil
}

func (e *Env) stepEditCategory(ctx context.Context, ev *Event) (*Render, error) {
	category, err := e.Categories.ByID(ctx, ev.State.EntityID)
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
		return e.editCategoryMenuChoice(ctx, ev, category)
	}
	return e.editCategoryApply(ctx, ev, category, &draft)
}

func (e *Env) editCategoryMenuChoice(ctx context.Context, ev *Event, category *models.Category) (*Render, error) {
	switch strings.TrimSpace(ev.Text) {
	case "0":
		if err := e.States.Reset(ctx, ev.User.ID); err != nil {
			return nil, err
		}
		return &Render{ChatID: ev.ChatID, Text: "✅ Done editing.", Reply: mainMenuKeyboard(ev.User)}, nil
	case "9":
		if err := e.Categories.Delete(ctx, category.ID); err != nil {
			return nil, &CommitError{Err: err}
		}
		if err := e.States.Reset(ctx, ev.User.ID); err != nil {
			return nil, &CommitError{Err: err}
		}
		return &Render{ChatID: ev.ChatID, Text: "🗑 Category deleted.", Reply: mainMenuKeyboard(ev.User)}, nil
	case "1":
		st := states.State{Kind: states.KindEditingCategory, EntityID: category.ID}
		if err := e.States.Set(ctx, ev.User.ID, st, &states.EditDraft{Field: "name"}); err != nil {
			return nil, err
		}
		return reprompt(ev, "Send the new name:"), nil
	case "2":
		st := states.State{Kind: states.KindEditingCategory, EntityID: category.ID}
		if err := e.States.Set(ctx, ev.User.ID, st, &states.EditDraft{Field: "description"}); err != nil {
			return nil, err
		}
		return reprompt(ev, "Send the new description:"), nil
	}
	return reprompt(ev, editCategoryMenu(category)), nil
}

func (e *Env) editCategoryApply(ctx context.Context, ev *Event, category *models.Category, draft *states.EditDraft) (*Render, error) {
	switch draft.Field {
	case "name":
		name := strings.TrimSpace(ev.Text)
		if name == "" {
			return reprompt(ev, "The name must not be empty. Send the new name:"), nil
		}
		if existing, err := e.Categories.ByName(ctx, name); err == nil && existing.ID != category.ID {
			return reprompt(ev, fmt.Sprintf("A category named %q already exists. Send another name:", name)), nil
		} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		// The slug regenerates from the new name on save.
		category.Name = name
	case "description":
		category.Description = strings.TrimSpace(ev.Text)
	default:
		return e.abortWizard(ctx, ev, textCommitError)
	}

	if err := e.Categories.Update(ctx, category); err != nil {
		return nil, &CommitError{Err: err}
	}

	st := states.State{Kind: states.KindEditingCategory, EntityID: category.ID}
	if err := e.States.Set(ctx, ev.User.ID, st, &states.EditDraft{}); err != nil {
		return nil, err
	}
	return reprompt(ev, "✅ Updated.\n\n"+editCategoryMenu(category)), nil
}

func editCategoryMenu(c *models.Category) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✏️ Editing category %s (slug %s)\n\n", c.Name, c.Slug)
	fmt.Fprintf(&b, "1. Name: %s\n", c.Name)
	fmt.Fprintf(&b, "2. Description: %s\n", truncate(c.Description, 60))
	b.WriteString(editCategoryMenuHint)
	return b.String()
}
