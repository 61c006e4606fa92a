// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file loads the reference catalog (ingredients and tags)
// from a JSON document.
package repo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/foodgram-backend/internal/domain"
)

// SeedIngredient is one ingredient entry of a catalog document.
type SeedIngredient struct {
	Name            string `json:"name"             validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=20"`
}

// SeedTag is one tag entry of a catalog document.
type SeedTag struct {
	Name  string `json:"name"  validate:"required,max=50"`
	Color string `json:"color" validate:"required,hexcolor,len=7"`
	Slug  string `json:"slug"  validate:"required,max=50,slug"`
}

// Catalog is the seed document. A bare JSON array is read as a list of
// ingredients.
type Catalog struct {
	Ingredients []SeedIngredient `json:"ingredients" validate:"dive"`
	Tags        []SeedTag        `json:"tags"        validate:"dive"`
}

// SeedResult reports how many rows were inserted. Entries whose name already
// exists are skipped.
type SeedResult struct {
	Ingredients int64
	Tags        int64
}

var slugRe = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

var seedValidator = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
	return v
}()

// ParseCatalog decodes and validates a catalog document.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)

	var c Catalog
	if len(raw) > 0 && raw[0] == '[' {
		err = json.Unmarshal(raw, &c.Ingredients)
	} else {
		err = json.Unmarshal(raw, &c)
	}
	if err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := seedValidator.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

// SeedCatalog inserts the ingredients and tags read from r. It is safe to run
// repeatedly.
func SeedCatalog(ctx context.Context, db *gorm.DB, r io.Reader) (SeedResult, error) {
	c, err := ParseCatalog(r)
	if err != nil {
		return SeedResult{}, err
	}

	var res SeedResult
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skip := clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}
		for _, in := range c.Ingredients {
			row := &domain.Ingredient{ID: uuid.NewString(), Name: in.Name, MeasurementUnit: in.MeasurementUnit}
			q := tx.Clauses(skip).Create(row)
			if q.Error != nil {
				return q.Error
			}
			res.Ingredients += q.RowsAffected
		}
		for _, in := range c.Tags {
			row := &domain.Tag{ID: uuid.NewString(), Name: in.Name, Color: in.Color, Slug: in.Slug}
			q := tx.Clauses(skip).Create(row)
			if q.Error != nil {
				return q.Error
			}
			res.Tags += q.RowsAffected
		}
		return nil
	})
	return res, err
}
