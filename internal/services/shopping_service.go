// Package services – ShoppingService
//
// This file implements the shopping list aggregator. It walks the user's
// cart, resolves every recipe's ingredient lines and merges them by
// ingredient name into a single list (see package shopping for the merge
// rules and the report format).
package services

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/repo"
	"github.com/tbourn/foodgram-backend/internal/shopping"
)

var (
	shoppingLists = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "foodgram",
		Name:      "shopping_lists_built_total",
		Help:      "Number of shopping lists built.",
	})
	shoppingItems = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "foodgram",
		Name:      "shopping_list_items",
		Help:      "Distinct ingredients per built shopping list.",
		Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
	})
)

func init() {
	prometheus.MustRegister(shoppingLists, shoppingItems)
}

// CartLineSource resolves the ingredient lines of a user's cart, ordered by
// cart entry and line position.
type CartLineSource interface {
	CartLines(ctx context.Context, db *gorm.DB, userID string) ([]shopping.Line, error)
}

type repoCartLines struct{}

func (repoCartLines) CartLines(ctx context.Context, db *gorm.DB, userID string) ([]shopping.Line, error) {
	return repo.CartLines(ctx, db, userID)
}

// ShoppingService builds per-user shopping lists.
type ShoppingService struct {
	DB    *gorm.DB
	Lines CartLineSource
}

// NewShoppingService constructs a ShoppingService backed by the repo layer.
func NewShoppingService(db *gorm.DB) *ShoppingService {
	return &ShoppingService{DB: db, Lines: repoCartLines{}}
}

// Build returns the merged shopping list of userID. An empty cart yields an
// empty list, not an error.
func (s *ShoppingService) Build(ctx context.Context, userID string) ([]shopping.Item, error) {
	ctx, span := otel.Tracer("services/ShoppingService").Start(ctx, "Build",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	lines, err := s.Lines.CartLines(ctx, s.DB, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	var list shopping.List
	list.AddAll(lines)

	span.SetAttributes(
		attribute.Int("shopping.lines", len(lines)),
		attribute.Int("shopping.items", list.Len()),
	)
	shoppingLists.Inc()
	shoppingItems.Observe(float64(list.Len()))
	return list.Items(), nil
}

// WriteReport builds the list of userID and renders it to w.
func (s *ShoppingService) WriteReport(ctx context.Context, userID string, w io.Writer) error {
	items, err := s.Build(ctx, userID)
	if err != nil {
		return err
	}
	return shopping.Render(w, items)
}
