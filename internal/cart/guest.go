package cart

import (
	"context"
	"fmt"

	"github.com/mcollection/storefront/internal/domain"
)

// Storage is the client-local persistence contract: a device-scoped
// key-value slot holding one JSON-serializable line list.
type Storage interface {
	Get() ([]domain.CartItem, error)
	Set(items []domain.CartItem) error
	Clear() error
}

// ItemAdder is the authenticated add-to-cart seam the merge replays
// against; *CartRepository satisfies it.
type ItemAdder interface {
	AddItem(ctx context.Context, userID, productID string, quantity int) error
}

// Guest is the unauthenticated cart. Every operation is a synchronous
// local mutation with the same line semantics as the server cart.
type Guest struct {
	storage Storage
}

func NewGuest(storage Storage) *Guest {
	return &Guest{storage: storage}
}

func (g *Guest) Items() ([]domain.CartItem, error) {
	return g.storage.Get()
}

// Add increments the product's line quantity, creating the line at
// quantity 1 when absent. Duplicate adds never create a second line.
func (g *Guest) Add(product domain.Product) ([]domain.CartItem, error) {
	items, err := g.storage.Get()
	if err != nil {
		return nil, err
	}

	found := false
	for i := range items {
		if items[i].ProductID == product.ID {
			items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		items = append(items, domain.CartItem{
			ProductID: product.ID,
			Title:     product.Title,
			Image:     product.Image,
			Price:     product.Price,
			Quantity:  1,
		})
	}

	if err := g.storage.Set(items); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateQuantity sets the line's quantity directly; zero or negative
// removes the line.
func (g *Guest) UpdateQuantity(productID string, quantity int) ([]domain.CartItem, error) {
	if quantity <= 0 {
		return g.Remove(productID)
	}

	items, err := g.storage.Get()
	if err != nil {
		return nil, err
	}

	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			break
		}
	}

	if err := g.storage.Set(items); err != nil {
		return nil, err
	}
	return items, nil
}

// Remove drops the line; removing an absent product is a no-op.
func (g *Guest) Remove(productID string) ([]domain.CartItem, error) {
	items, err := g.storage.Get()
	if err != nil {
		return nil, err
	}

	kept := items[:0]
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}

	if err := g.storage.Set(kept); err != nil {
		return nil, err
	}
	return kept, nil
}

func (g *Guest) Clear() error {
	return g.storage.Clear()
}

// MergeInto replays every local line as an authenticated add, one call
// per line, then clears local storage. Server-side lines for the same
// product accumulate quantity through the add upsert. On a mid-replay
// failure the already-synced lines stay server-side and local storage is
// left intact so the caller can retry.
func (g *Guest) MergeInto(ctx context.Context, server ItemAdder, userID string) error {
	items, err := g.storage.Get()
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	for _, item := range items {
		if err := server.AddItem(ctx, userID, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("sync cart line for product %s: %w", item.ProductID, err)
		}
	}

	return g.storage.Clear()
}
