package state

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInsufficientPoints = errors.New("insufficient loyalty points")
)

// IngredientShortage describes one ingredient a preparation could not cover.
type IngredientShortage struct {
	ProductID string
	Name      string
	Required  float64
	Available float64
}

// InsufficientIngredientsError reports every shortage found, not just the
// first, so the operator sees the full restock list at once.
type InsufficientIngredientsError struct {
	RecipeName string
	Missing    []IngredientShortage
}

func (e *InsufficientIngredientsError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		name := m.Name
		if name == "" {
			name = m.ProductID
		}
		parts = append(parts, fmt.Sprintf("%s (need %.2f, have %.2f)", name, m.Required, m.Available))
	}
	return fmt.Sprintf("insufficient ingredients for %s: %s", e.RecipeName, strings.Join(parts, ", "))
}

func (e *InsufficientIngredientsError) Unwrap() error { return ErrInsufficientStock }
