package fulfillment

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"foodstand/internal/domain"
	"foodstand/internal/stock"
)

var ErrEmptyOrder = errors.New("order is empty")

// Order maps a product id to the quantity requested.
type Order map[int64]int

// Lines returns the ids with a positive quantity in ascending order.
func (o Order) Lines() []int64 {
	ids := make([]int64, 0, len(o))
	for id, qty := range o {
		if qty > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type Report struct {
	SkippedProductIDs []int64
	Warnings          []stock.Warning
}

type Result struct {
	Products []domain.Product
	Sale     domain.Sale
	Report   Report
}

type Engine struct {
	resolver *stock.Resolver
	location *time.Location
	newID    func() string
}

func NewEngine(resolver *stock.Resolver, location *time.Location) *Engine {
	if location == nil {
		location = time.Local
	}
	return &Engine{
		resolver: resolver,
		location: location,
		newID:    newSaleID,
	}
}

func newSaleID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Fulfill applies order to a copy of products and builds the sale record.
// Consumption is not checked against availability; see Shortages.
func (e *Engine) Fulfill(order Order, products []domain.Product, now time.Time) (*Result, error) {
	lines := order.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}

	updated := domain.CloneAll(products)
	sale := domain.Sale{
		ID:          e.newID(),
		Timestamp:   now,
		Date:        now.In(e.location).Format(domain.DateLayout),
		Items:       make([]domain.SaleItem, 0, len(lines)),
		TotalAmount: decimal.Zero,
	}
	var report Report

	for _, id := range lines {
		qty := order[id]
		idx, ok := domain.IndexOf(updated, id)
		if !ok {
			report.SkippedProductIDs = append(report.SkippedProductIDs, id)
			continue
		}
		p := updated[idx]

		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(qty)))
		sale.Items = append(sale.Items, domain.SaleItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    qty,
			UnitPrice:   p.Price,
			TotalPrice:  lineTotal,
		})
		sale.TotalAmount = sale.TotalAmount.Add(lineTotal)

		if !p.HasRecipe() {
			updated[idx].Stock -= qty
			continue
		}
		report.Warnings = append(report.Warnings, e.consume(updated, p, qty)...)
	}

	return &Result{Products: updated, Sale: sale, Report: report}, nil
}

func (e *Engine) consume(products []domain.Product, p domain.Product, qty int) []stock.Warning {
	var warnings []stock.Warning
	split := e.resolver.Partition(p.Recipe)

	for _, entry := range split.Invalid {
		warnings = append(warnings, stock.Warning{ProductID: p.ID, Key: entry.Key, Reason: stock.ReasonInvalidQuantity})
	}

	for _, entry := range split.Required {
		i, ok := stock.FindIngredient(products, entry.Key)
		if !ok {
			warnings = append(warnings, stock.Warning{ProductID: p.ID, Key: entry.Key, Reason: stock.ReasonUnresolvedIngredient})
			continue
		}
		products[i].Stock -= entry.Quantity * qty
	}

	chosen, perUnit := -1, 0
	for _, entry := range split.Optional {
		i, ok := stock.FindIngredient(products, entry.Key)
		if !ok {
			warnings = append(warnings, stock.Warning{ProductID: p.ID, Key: entry.Key, Reason: stock.ReasonUnresolvedIngredient})
			continue
		}
		if chosen == -1 || products[i].Stock > products[chosen].Stock {
			chosen, perUnit = i, entry.Quantity
		}
	}
	if chosen != -1 {
		products[chosen].Stock -= perUnit * qty
	}

	return warnings
}

// Shortages compares an order against the snapshot it was fulfilled from.
// A line is short when it asks for more than the resolver allows; a
// product is short when consumption took its stock below zero.
func (e *Engine) Shortages(order Order, before, after []domain.Product) []domain.Shortage {
	var shortages []domain.Shortage
	reported := make(map[int64]bool)

	for _, id := range order.Lines() {
		idx, ok := domain.IndexOf(before, id)
		if !ok {
			continue
		}
		p := before[idx]
		if available := e.resolver.Resolve(p, before); order[id] > available {
			shortages = append(shortages, domain.Shortage{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   order[id],
				Available:   max(available, 0),
			})
			reported[p.ID] = true
		}
	}

	for i := range before {
		if i >= len(after) || after[i].ID != before[i].ID || reported[before[i].ID] {
			continue
		}
		if after[i].Stock < 0 && after[i].Stock < before[i].Stock {
			shortages = append(shortages, domain.Shortage{
				ProductID:   before[i].ID,
				ProductName: before[i].Name,
				Requested:   before[i].Stock - after[i].Stock,
				Available:   max(before[i].Stock, 0),
			})
		}
	}

	return shortages
}
