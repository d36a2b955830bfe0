package entity

import (
	"encoding/json"
	"fmt"
)

// InventoryAggregate tracks the stock of every variant of one product by
// replaying its inventory stream.
type InventoryAggregate struct {
	AggregateBase
	ProductSlug string
	Levels      map[string]int  // variant key -> units on hand
	Committed   map[string]bool // order ids already taken out of stock
}

// NewInventoryAggregate creates a new InventoryAggregate.
func NewInventoryAggregate(productSlug string) *InventoryAggregate {
	return &InventoryAggregate{
		AggregateBase: AggregateBase{ID: InventoryStreamID(productSlug), Version: 0},
		ProductSlug:   productSlug,
		Levels:        make(map[string]int),
		Committed:     make(map[string]bool),
	}
}

// HasCommitted reports whether stock was already committed for orderID.
func (a *InventoryAggregate) HasCommitted(orderID string) bool {
	return a.Committed[orderID]
}

// Level returns the units on hand for a variant and whether it is tracked at all.
func (a *InventoryAggregate) Level(variantKey string) (int, bool) {
	n, ok := a.Levels[variantKey]
	return n, ok
}

// Validate checks that applying e would keep every level non-negative.
func (a *InventoryAggregate) Validate(e Event) error {
	switch e := e.(type) {
	case StockLevelSet:
		if e.Level < 0 {
			return NewValidationError(ErrInvalidRequest, "level", "must not be negative, got %d for %s", e.Level, e.VariantKey)
		}
	case StockReceived:
		if e.Quantity <= 0 {
			return NewValidationError(ErrInvalidQuantity, "quantity", "restock of %d units", e.Quantity)
		}
	case StockCommitted:
		if e.Quantity <= 0 {
			return NewValidationError(ErrInvalidQuantity, "quantity", "commit of %d units", e.Quantity)
		}
		if onHand, tracked := a.Levels[e.VariantKey]; tracked && onHand < e.Quantity {
			return fmt.Errorf("%w: %s/%s has %d, order %s needs %d",
				ErrInsufficientStock, a.ProductSlug, e.VariantKey, onHand, e.OrderID, e.Quantity)
		}
	default:
		return fmt.Errorf("unknown event type for InventoryAggregate: %s", e.EventType())
	}
	return nil
}

// ApplyEvent mutates the aggregate state based on the event.
func (a *InventoryAggregate) ApplyEvent(e Event) error {
	switch e := e.(type) {
	case StockLevelSet:
		a.Levels[e.VariantKey] = e.Level
	case StockReceived:
		a.Levels[e.VariantKey] += e.Quantity
	case StockCommitted:
		a.Committed[e.OrderID] = true
		// Untracked variants have unlimited stock; committing against them
		// does not start tracking.
		if _, tracked := a.Levels[e.VariantKey]; tracked {
			a.Levels[e.VariantKey] -= e.Quantity
		}
	default:
		return fmt.Errorf("unknown event type for InventoryAggregate: %s", e.EventType())
	}
	a.Version++
	return nil
}

// Rehydrate rebuilds the aggregate from a list of records.
func (a *InventoryAggregate) Rehydrate(records []EventStoreRecord) error {
	for _, rec := range records {
		var err error
		switch rec.EventType {
		case "StockLevelSet":
			var e StockLevelSet
			if err = json.Unmarshal(rec.Payload, &e); err == nil {
				err = a.ApplyEvent(e)
			}
		case "StockReceived":
			var e StockReceived
			if err = json.Unmarshal(rec.Payload, &e); err == nil {
				err = a.ApplyEvent(e)
			}
		case "StockCommitted":
			var e StockCommitted
			if err = json.Unmarshal(rec.Payload, &e); err == nil {
				err = a.ApplyEvent(e)
			}
		default:
			return fmt.Errorf("unknown event type in stream: %s", rec.EventType)
		}
		if err != nil {
			return fmt.Errorf("failed to apply event from stream: %w", err)
		}
	}
	return nil
}
