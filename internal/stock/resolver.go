package stock

import (
	"strings"

	"golang.org/x/text/cases"

	"foodstand/internal/domain"
)

// DefaultOptionalTokens name the bread carriers that substitute for one
// another in a recipe.
var DefaultOptionalTokens = []string{"pain", "baguette", "bun"}

type WarningReason string

const (
	ReasonUnresolvedIngredient WarningReason = "UNRESOLVED_INGREDIENT"
	ReasonInvalidQuantity      WarningReason = "INVALID_QUANTITY"
)

type Warning struct {
	ProductID int64
	Key       string
	Reason    WarningReason
}

// Split is a recipe partitioned by the optional-token naming convention.
// Entries with a non-positive quantity land in Invalid and constrain nothing.
type Split struct {
	Required []domain.RecipeEntry
	Optional []domain.RecipeEntry
	Invalid  []domain.RecipeEntry
}

type Resolver struct {
	optionalTokens []string
}

func NewResolver(optionalTokens []string) *Resolver {
	if len(optionalTokens) == 0 {
		optionalTokens = DefaultOptionalTokens
	}
	tokens := make([]string, 0, len(optionalTokens))
	for _, t := range optionalTokens {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, fold(t))
		}
	}
	return &Resolver{optionalTokens: tokens}
}

func (r *Resolver) IsOptional(key string) bool {
	k := fold(key)
	for _, t := range r.optionalTokens {
		if strings.Contains(k, t) {
			return true
		}
	}
	return false
}

func (r *Resolver) Partition(recipe domain.Recipe) Split {
	var s Split
	for _, e := range recipe {
		switch {
		case e.Quantity <= 0:
			s.Invalid = append(s.Invalid, e)
		case r.IsOptional(e.Key):
			s.Optional = append(s.Optional, e)
		default:
			s.Required = append(s.Required, e)
		}
	}
	return s
}

// Resolve returns how many units of p can be sold from the current stock of
// all. Products without a recipe return their own stock.
func (r *Resolver) Resolve(p domain.Product, all []domain.Product) int {
	if !p.HasRecipe() {
		return p.Stock
	}
	split := r.Partition(p.Recipe)

	required := Unbounded
	for _, e := range split.Required {
		i, ok := FindIngredient(all, e.Key)
		if !ok {
			return 0
		}
		required = required.Min(Bounded(unitsFrom(all[i].Stock, e.Quantity)))
	}

	if len(split.Optional) == 0 {
		if n, ok := required.Value(); ok {
			return n
		}
		return p.Stock
	}

	best := 0
	for _, e := range split.Optional {
		if i, ok := FindIngredient(all, e.Key); ok {
			if u := unitsFrom(all[i].Stock, e.Quantity); u > best {
				best = u
			}
		}
	}
	n, _ := required.Min(Bounded(best)).Value()
	return n
}

// ResolveAll builds the public view. Ingredients pass through untouched;
// every other product carries its resolved availability.
func (r *Resolver) ResolveAll(products []domain.Product) []domain.ProductView {
	views := make([]domain.ProductView, len(products))
	for i, p := range products {
		v := p.Clone()
		if p.IsIngredient {
			views[i] = domain.ProductView{Product: v, AvailableStock: p.Stock}
			continue
		}
		available := r.Resolve(p, products)
		if p.HasRecipe() {
			v.Stock = available
		}
		views[i] = domain.ProductView{Product: v, AvailableStock: available}
	}
	return views
}

// Diagnose lists the recipe entries of p that cannot take part in resolution.
func (r *Resolver) Diagnose(p domain.Product, all []domain.Product) []Warning {
	var warnings []Warning
	for _, e := range p.Recipe {
		if e.Quantity <= 0 {
			warnings = append(warnings, Warning{ProductID: p.ID, Key: e.Key, Reason: ReasonInvalidQuantity})
			continue
		}
		if _, ok := FindIngredient(all, e.Key); !ok {
			warnings = append(warnings, Warning{ProductID: p.ID, Key: e.Key, Reason: ReasonUnresolvedIngredient})
		}
	}
	return warnings
}

// FindIngredient returns the index of the first product whose name contains
// key, compared case-insensitively.
func FindIngredient(products []domain.Product, key string) (int, bool) {
	k := fold(strings.TrimSpace(key))
	if k == "" {
		return -1, false
	}
	for i := range products {
		if strings.Contains(fold(products[i].Name), k) {
			return i, true
		}
	}
	return -1, false
}

func unitsFrom(stock, perUnit int) int {
	if stock <= 0 {
		return 0
	}
	return stock / perUnit
}

func fold(s string) string {
	return cases.Fold().String(s)
}
