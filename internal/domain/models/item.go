package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrInvalidItem indicates an item name or quantity that can never be stored.
	ErrInvalidItem = errors.New("invalid item")
	// ErrItemNotFound indicates the item is not part of the loaded inventory.
	ErrItemNotFound = errors.New("item not found")
)

// Fields is the body persisted for every inventory document.
type Fields struct {
	Quantity int `json:"quantity" bson:"quantity" firestore:"quantity"`
}

// Document pairs a store key with its fields.
type Document struct {
	Key    string
	Fields Fields
}

// Item is a named inventory record. Name doubles as the store key and is case-sensitive.
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// ItemFromDocument maps a store document into an Item.
func ItemFromDocument(doc Document) Item {
	return Item{Name: doc.Key, Quantity: doc.Fields.Quantity}
}

// DisplayName capitalizes the first letter of the name for presentation.
func (i Item) DisplayName() string {
	r, size := utf8.DecodeRuneInString(i.Name)
	if r == utf8.RuneError {
		return i.Name
	}
	return string(unicode.ToUpper(r)) + i.Name[size:]
}

// ValidateName rejects names that cannot be used as a store key.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidItem)
	}
	return nil
}

// ValidateIncrement rejects non-positive increments.
func ValidateIncrement(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidItem)
	}
	return nil
}

// FilterItems returns the items whose name contains query, ignoring case.
// An empty query matches every item.
func FilterItems(items []Item, query string) []Item {
	needle := strings.ToLower(query)
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), needle) {
			out = append(out, item)
		}
	}
	return out
}

// InventorySummary aggregates the current inventory for reports.
type InventorySummary struct {
	TotalItems int    `json:"total_items"`
	TotalUnits int    `json:"total_units"`
	Threshold  int    `json:"low_stock_threshold"`
	LowStock   []Item `json:"low_stock"`
}

// Adjustment reports the outcome of an atomic quantity change.
type Adjustment struct {
	Existed  bool
	Deleted  bool
	Quantity int
}

// ApplyDelta computes the atomic adjust rule shared by every store: an absent document is
// created only by a positive delta, and a document whose quantity reaches zero or below is
// deleted.
func ApplyDelta(current Fields, exists bool, delta int) (Fields, Adjustment) {
	if !exists {
		if delta <= 0 {
			return Fields{}, Adjustment{}
		}
		return Fields{Quantity: delta}, Adjustment{Quantity: delta}
	}
	next := current.Quantity + delta
	if next <= 0 {
		return Fields{}, Adjustment{Existed: true, Deleted: true}
	}
	return Fields{Quantity: next}, Adjustment{Existed: true, Quantity: next}
}
