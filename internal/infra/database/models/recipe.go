package models

import "time"

type MeasurementUnit struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:50;uniqueIndex;not null"`
}

type Ingredient struct {
	ID                uint            `gorm:"primaryKey"`
	Name              string          `gorm:"size:200;uniqueIndex;not null"`
	MeasurementUnitID uint            `gorm:"not null"`
	MeasurementUnit   MeasurementUnit `gorm:"foreignKey:MeasurementUnitID;constraint:OnDelete:RESTRICT;"`
}

type RecipeTag struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"size:30;uniqueIndex;not null"`
	Color string `gorm:"size:7;not null;default:#FF0000"`
	Slug  string `gorm:"size:40;uniqueIndex;not null"`
}

type Recipe struct {
	ID          uint        `gorm:"primaryKey"`
	AuthorID    uint        `gorm:"not null;uniqueIndex:idx_recipe_author_name"`
	Author      User        `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`
	Name        string      `gorm:"size:200;not null;uniqueIndex:idx_recipe_author_name"`
	ImagePath   string      `gorm:"size:255;not null"`
	Text        string      `gorm:"size:1000;not null"`
	CookingTime int         `gorm:"not null"`
	PubDate     time.Time   `gorm:"autoCreateTime;index"`
	Tags        []RecipeTag `gorm:"many2many:recipe_tag_links;constraint:OnDelete:CASCADE;"`
	Ingredients []RecipeIngredient
}

// RecipeIngredient carries the amount of one ingredient in one recipe.
// The (recipe, ingredient) pair is the primary key, so a recipe cannot
// hold the same ingredient twice.
type RecipeIngredient struct {
	RecipeID     uint       `gorm:"primaryKey;autoIncrement:false"`
	Recipe       Recipe     `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE;"`
	IngredientID uint       `gorm:"primaryKey;autoIncrement:false"`
	Ingredient   Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:RESTRICT;"`
	Amount       int        `gorm:"not null"`
}

type RecipeFavorite struct {
	UserID    uint   `gorm:"primaryKey;autoIncrement:false"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
	RecipeID  uint   `gorm:"primaryKey;autoIncrement:false"`
	Recipe    Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time
}

type RecipeCart struct {
	UserID    uint   `gorm:"primaryKey;autoIncrement:false"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
	RecipeID  uint   `gorm:"primaryKey;autoIncrement:false"`
	Recipe    Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time
}

func (RecipeCart) TableName() string { return "recipe_carts" }
