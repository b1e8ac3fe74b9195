package handlers

import (
	"encoding/json"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

func TestNewProductResponseMapsImagesToURLs(t *testing.T) {
	product := models.Product{
		ID:   primitive.NewObjectID(),
		Name: "Bike",
		Images: []models.ProductImage{
			{ID: primitive.NewObjectID(), ImagePath: "uploads/products/a.jpg"},
			{ID: primitive.NewObjectID(), ImagePath: "uploads/products/b.png"},
		},
	}

	response := newProductResponse(product, nil, nil)
	if len(response.Images) != 2 {
		t.Fatalf("expected 2 image URLs, got %v", response.Images)
	}
	if response.Images[0] != "/public/uploads/products/a.jpg" {
		t.Fatalf("unexpected image URL: %s", response.Images[0])
	}
}

func TestNewProductResponseCityOptional(t *testing.T) {
	cityID := primitive.NewObjectID()
	names := map[primitive.ObjectID]string{cityID: "Kazan"}

	withCity := newProductResponse(models.Product{CityID: &cityID}, names, nil)
	if withCity.CityName == nil || *withCity.CityName != "Kazan" {
		t.Fatalf("expected resolved city name, got %v", withCity.CityName)
	}

	withoutCity := newProductResponse(models.Product{}, names, nil)
	if withoutCity.CityID != nil || withoutCity.CityName != nil {
		t.Fatal("expected null city fields when the product has no city")
	}
}

func TestNewProductResponseAttachesSearchBounds(t *testing.T) {
	minPrice, maxPrice := int64(100), int64(300)
	bounds := priceBounds{MinPrice: &minPrice, MaxPrice: &maxPrice}

	response := newProductResponse(models.Product{Price: 200}, nil, &bounds)
	if response.MinPrice == nil || *response.MinPrice != 100 {
		t.Fatalf("expected minPrice 100, got %v", response.MinPrice)
	}
	if response.MaxPrice == nil || *response.MaxPrice != 300 {
		t.Fatalf("expected maxPrice 300, got %v", response.MaxPrice)
	}
}

func TestProductResponseJSONOmitsBoundsOutsideSearch(t *testing.T) {
	response := newProductResponse(models.Product{ID: primitive.NewObjectID()}, nil, nil)

	body, err := json.Marshal(response)
	if err != nil {
		t.Fatalf("json marshal failed: %v", err)
	}

	jsonBody := string(body)
	if strings.Contains(jsonBody, "minPrice") || strings.Contains(jsonBody, "maxPrice") {
		t.Fatalf("bounds must be omitted outside search, got %s", jsonBody)
	}
	if !strings.Contains(jsonBody, "\"images\":[]") {
		t.Fatalf("images must serialize as an empty list, got %s", jsonBody)
	}
	if !strings.Contains(jsonBody, "\"features\":[]") {
		t.Fatalf("features must serialize as an empty list, got %s", jsonBody)
	}
}
