package repository

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/platefeed/platefeed/internal/infra/database"
	"github.com/platefeed/platefeed/internal/infra/database/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	// The in-memory database lives per connection.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{
		Email:     email,
		Username:  email,
		FirstName: "Test",
		LastName:  "User",
		Password:  "hash",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return user
}

func seedIngredient(t *testing.T, db *gorm.DB, name, unit string) models.Ingredient {
	t.Helper()
	var mu models.MeasurementUnit
	err := db.Where(models.MeasurementUnit{Name: unit}).FirstOrCreate(&mu).Error
	if err != nil {
		t.Fatalf("seed unit %s: %v", unit, err)
	}
	row := models.Ingredient{Name: name, MeasurementUnitID: mu.ID}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed ingredient %s: %v", name, err)
	}
	return row
}

func seedTag(t *testing.T, db *gorm.DB, name, slug string) models.RecipeTag {
	t.Helper()
	row := models.RecipeTag{Name: name, Color: "#00FF00", Slug: slug}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed tag %s: %v", name, err)
	}
	return row
}

func seedRecipe(t *testing.T, db *gorm.DB, authorID uint, name string, tags []models.RecipeTag, lines ...models.RecipeIngredient) models.Recipe {
	t.Helper()
	rec := models.Recipe{
		AuthorID:    authorID,
		Name:        name,
		ImagePath:   "recipes/" + name + ".png",
		Text:        "how to cook " + name,
		CookingTime: 10,
		Tags:        tags,
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("seed recipe %s: %v", name, err)
	}
	for i := range lines {
		lines[i].RecipeID = rec.ID
	}
	if len(lines) > 0 {
		if err := db.Create(&lines).Error; err != nil {
			t.Fatalf("seed recipe lines for %s: %v", name, err)
		}
	}
	return rec
}
