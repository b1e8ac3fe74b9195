package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

func TestBuildProductFilterEmptyInput(t *testing.T) {
	filter := buildProductFilter(productSearchInput{})
	if len(filter) != 0 {
		t.Fatalf("expected empty filter, got %v", filter)
	}
}

func TestBuildProductFilterStatusAndCity(t *testing.T) {
	cityID := primitive.NewObjectID()
	filter := buildProductFilter(productSearchInput{
		Status: models.ProductStatusActive,
		CityID: &cityID,
	})

	if filter["status"] != models.ProductStatusActive {
		t.Fatalf("expected status filter, got %v", filter)
	}
	if filter["cityId"] != cityID {
		t.Fatalf("expected cityId filter, got %v", filter)
	}
}

func TestBuildProductFilterCategorySubtree(t *testing.T) {
	ids := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}
	filter := buildProductFilter(productSearchInput{CategoryIDs: ids})

	clause, ok := filter["categoryId"].(bson.M)
	if !ok {
		t.Fatalf("expected categoryId clause, got %v", filter)
	}
	in, ok := clause["$in"].([]primitive.ObjectID)
	if !ok || len(in) != 2 {
		t.Fatalf("expected $in with 2 ids, got %v", clause)
	}
}

func TestBuildProductFilterNameIsCaseInsensitiveAndEscaped(t *testing.T) {
	filter := buildProductFilter(productSearchInput{NameContains: "c++ (rare)"})

	clause, ok := filter["name"].(bson.M)
	if !ok {
		t.Fatalf("expected name clause, got %v", filter)
	}
	if clause["$options"] != "i" {
		t.Fatalf("expected case-insensitive regex, got %v", clause)
	}
	if clause["$regex"] == "c++ (rare)" {
		t.Fatal("regex metacharacters must be escaped")
	}
}

func TestBuildProductFilterPriceRangeInclusive(t *testing.T) {
	minPrice, maxPrice := int64(100), int64(300)
	filter := buildProductFilter(productSearchInput{PriceMin: &minPrice, PriceMax: &maxPrice})

	clause, ok := filter["price"].(bson.M)
	if !ok {
		t.Fatalf("expected price clause, got %v", filter)
	}
	if clause["$gte"] != minPrice || clause["$lte"] != maxPrice {
		t.Fatalf("expected inclusive bounds, got %v", clause)
	}
}

func TestBuildProductFilterIgnoresLonePriceBound(t *testing.T) {
	minPrice := int64(100)
	filter := buildProductFilter(productSearchInput{PriceMin: &minPrice})

	if _, ok := filter["price"]; ok {
		t.Fatalf("price filter must require both bounds, got %v", filter)
	}
}

func TestParsePriceRangeBothRequired(t *testing.T) {
	minPrice, maxPrice, err := parsePriceRange("100", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if minPrice != nil || maxPrice != nil {
		t.Fatalf("expected nil bounds when one side is missing, got %v %v", minPrice, maxPrice)
	}

	minPrice, maxPrice, err = parsePriceRange("100", "300")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if minPrice == nil || *minPrice != 100 || maxPrice == nil || *maxPrice != 300 {
		t.Fatalf("expected 100..300, got %v %v", minPrice, maxPrice)
	}
}

func TestParsePriceRangeRejectsGarbage(t *testing.T) {
	if _, _, err := parsePriceRange("abc", "300"); err == nil {
		t.Fatal("expected error for non-numeric bound")
	}
}

func TestPriceBoundsPipelineMatchesBeforeGrouping(t *testing.T) {
	filter := bson.M{"status": models.ProductStatusActive}
	pipeline := priceBoundsPipeline(filter)

	if len(pipeline) != 2 {
		t.Fatalf("expected match+group pipeline, got %d stages", len(pipeline))
	}
	if pipeline[0][0].Key != "$match" {
		t.Fatalf("first stage must be $match, got %s", pipeline[0][0].Key)
	}
	group, ok := pipeline[1][0].Value.(bson.M)
	if !ok {
		t.Fatalf("unexpected group stage: %v", pipeline[1])
	}
	if _, ok := group["minPrice"]; !ok {
		t.Fatal("group stage must compute minPrice")
	}
	if _, ok := group["maxPrice"]; !ok {
		t.Fatal("group stage must compute maxPrice")
	}
}
