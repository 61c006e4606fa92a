package domain

import "time"

// Favorite marks a recipe as favorited by a user. One row per (user, recipe).
type Favorite struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"   gorm:"type:char(36);not null;uniqueIndex:ux_favorite_user_recipe,priority:1"`
	RecipeID  string    `json:"recipe_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_favorite_user_recipe,priority:2"`
	CreatedAt time.Time `json:"created_at"`

	User   User   `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Recipe Recipe `json:"-" gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Favorite.
func (Favorite) TableName() string { return "favorites" }

// CartEntry places a recipe in a user's shopping cart. One row per (user, recipe).
type CartEntry struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"   gorm:"type:char(36);not null;uniqueIndex:ux_cart_user_recipe,priority:1"`
	RecipeID  string    `json:"recipe_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_cart_user_recipe,priority:2"`
	CreatedAt time.Time `json:"created_at"`

	User   User   `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Recipe Recipe `json:"-" gorm:"foreignKey:RecipeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for CartEntry.
func (CartEntry) TableName() string { return "cart_entries" }

// Follow records that UserID follows AuthorID. Self-follow is rejected by
// the service layer, not by the schema.
type Follow struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"   gorm:"type:char(36);not null;uniqueIndex:ux_follow_user_author,priority:1"`
	AuthorID  string    `json:"author_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_follow_user_author,priority:2"`
	CreatedAt time.Time `json:"created_at"`

	User   User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Author User `json:"-" gorm:"foreignKey:AuthorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Follow.
func (Follow) TableName() string { return "follows" }
