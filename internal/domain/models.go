// Package domain defines the persistence models for users, the recipe
// catalog (ingredients, tags, recipes), and the per-user relations
// (favorites, shopping cart, follows). These types are mapped with GORM and
// form the core data layer of the recipe service.
package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

// User is a registered account. Email is the login identifier.
type User struct {
	ID           string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Email        string    `json:"email"      gorm:"type:varchar(254);not null;uniqueIndex"`
	Username     string    `json:"username"   gorm:"type:varchar(150);not null;uniqueIndex"`
	FirstName    string    `json:"first_name" gorm:"type:varchar(150);not null"`
	LastName     string    `json:"last_name"  gorm:"type:varchar(150);not null"`
	PasswordHash string    `json:"-"          gorm:"type:varchar(100);not null"`
	CreatedAt    time.Time `json:"-"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Ingredient is reference data: a uniquely named product with an opaque
// measurement unit ("g", "ml", "pcs", ...).
//
// SearchName holds the Unicode case-folded name so that prefix search is
// case-insensitive for non-ASCII names as well (SQLite LIKE only folds ASCII).
type Ingredient struct {
	ID              string `json:"id"               gorm:"type:char(36);primaryKey"`
	Name            string `json:"name"             gorm:"type:varchar(200);not null;uniqueIndex"`
	MeasurementUnit string `json:"measurement_unit" gorm:"type:varchar(20);not null"`
	SearchName      string `json:"-"                gorm:"type:varchar(200);not null;index"`
}

// TableName returns the database table name for Ingredient.
func (Ingredient) TableName() string { return "ingredients" }

// BeforeSave keeps SearchName in sync with Name.
func (i *Ingredient) BeforeSave(*gorm.DB) error {
	i.SearchName = FoldName(i.Name)
	return nil
}

// FoldName normalizes an ingredient name for case-insensitive matching.
func FoldName(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Tag is a read-only label attached to recipes.
type Tag struct {
	ID    string `json:"id"    gorm:"type:char(36);primaryKey"`
	Name  string `json:"name"  gorm:"type:varchar(50);not null;uniqueIndex"`
	Color string `json:"color" gorm:"type:varchar(7);not null;default:'#FF0000'"`
	Slug  string `json:"slug"  gorm:"type:varchar(50);not null;uniqueIndex"`
}

// TableName returns the database table name for Tag.
func (Tag) TableName() string { return "tags" }

// Recipe is authored by exactly one user. Its tag set and ingredient lines
// are owned child collections, always replaced as a whole.
type Recipe struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	AuthorID    string    `json:"author_id"    gorm:"type:char(36);not null;index"`
	Name        string    `json:"name"         gorm:"type:varchar(200);not null"`
	Text        string    `json:"text"         gorm:"type:text;not null"`
	Image       string    `json:"image"        gorm:"type:text;not null;default:''"`
	CookingTime int       `json:"cooking_time" gorm:"not null;check:cooking_time BETWEEN 1 AND 200"`
	CreatedAt   time.Time `json:"created_at"   gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`

	Author      User               `json:"-" gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Tags        []Tag              `json:"-" gorm:"many2many:recipe_tags"`
	Ingredients []RecipeIngredient `json:"-" gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Recipe.
func (Recipe) TableName() string { return "recipes" }

// RecipeTag is the join row between a recipe and one of its tags.
type RecipeTag struct {
	RecipeID string `gorm:"type:char(36);primaryKey"`
	TagID    string `gorm:"type:char(36);primaryKey"`
}

// TableName returns the database table name for RecipeTag.
func (RecipeTag) TableName() string { return "recipe_tags" }

// RecipeIngredient is one ingredient line of a recipe. An ingredient appears
// at most once per recipe (unique index); Position keeps the author's order.
// Ingredients referenced by a line cannot be deleted.
type RecipeIngredient struct {
	ID           string `json:"id"            gorm:"type:char(36);primaryKey"`
	RecipeID     string `json:"recipe_id"     gorm:"type:char(36);not null;uniqueIndex:ux_recipe_ingredient,priority:1"`
	IngredientID string `json:"ingredient_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_recipe_ingredient,priority:2"`
	Amount       int    `json:"amount"        gorm:"not null;check:amount > 0 AND amount <= 2147483647"`
	Position     int    `json:"-"             gorm:"not null;default:0"`

	Ingredient Ingredient `json:"-" gorm:"foreignKey:IngredientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for RecipeIngredient.
func (RecipeIngredient) TableName() string { return "recipe_ingredients" }
