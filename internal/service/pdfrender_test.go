package service

import (
	"bytes"
	"testing"

	"github.com/platefeed/platefeed/internal/domain"
)

func TestPDFRendererOutput(t *testing.T) {
	r := NewPDFRenderer()

	items := []domain.IngredientAmount{
		{Ingredient: domain.Ingredient{ID: 1, Name: "мука", MeasurementUnit: "г"}, Amount: 700},
		{Ingredient: domain.Ingredient{ID: 2, Name: "молоко", MeasurementUnit: "мл"}, Amount: 300},
	}

	data, err := r.Render(items)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF")
	}
}

func TestPDFRendererEmptyList(t *testing.T) {
	r := NewPDFRenderer()

	data, err := r.Render(nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF")
	}
}
