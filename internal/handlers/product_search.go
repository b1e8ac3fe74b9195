package handlers

import (
	"context"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

// searchPageSize is the fixed result cap of the search endpoint. There is no
// pagination cursor; clients narrow with filters instead.
const searchPageSize = 20

// productSearchInput is the normalized filter set of one search request.
// CategoryIDs already contains the requested category plus its descendants.
type productSearchInput struct {
	Status       string
	AuthorID     *primitive.ObjectID
	CityID       *primitive.ObjectID
	CategoryIDs  []primitive.ObjectID
	NameContains string
	PriceMin     *int64
	PriceMax     *int64
}

// buildProductFilter turns the search input into a mongo filter document.
func buildProductFilter(input productSearchInput) bson.M {
	filter := bson.M{}

	if input.Status != "" {
		filter["status"] = input.Status
	}
	if input.AuthorID != nil {
		filter["authorId"] = *input.AuthorID
	}
	if input.CityID != nil {
		filter["cityId"] = *input.CityID
	}
	if len(input.CategoryIDs) > 0 {
		filter["categoryId"] = bson.M{"$in": input.CategoryIDs}
	}
	if name := strings.TrimSpace(input.NameContains); name != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(name), "$options": "i"}
	}
	if input.PriceMin != nil && input.PriceMax != nil {
		filter["price"] = bson.M{"$gte": *input.PriceMin, "$lte": *input.PriceMax}
	}

	return filter
}

// priceBoundsPipeline aggregates min/max price over every product matching
// the filter, not just the page that gets returned.
func priceBoundsPipeline(filter bson.M) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"minPrice": bson.M{"$min": "$price"},
			"maxPrice": bson.M{"$max": "$price"},
		}}},
	}
}

type priceBounds struct {
	MinPrice *int64 `bson:"minPrice"`
	MaxPrice *int64 `bson:"maxPrice"`
}

func computePriceBounds(ctx context.Context, db *mongo.Database, filter bson.M) (priceBounds, error) {
	cursor, err := db.Collection("products").Aggregate(ctx, priceBoundsPipeline(filter))
	if err != nil {
		return priceBounds{}, err
	}
	defer cursor.Close(ctx)

	var results []priceBounds
	if err := cursor.All(ctx, &results); err != nil {
		return priceBounds{}, err
	}
	if len(results) == 0 {
		// Empty match set: bounds stay null.
		return priceBounds{}, nil
	}
	return results[0], nil
}

// parsePriceRange reads minRange/maxRange. The range only applies when both
// bounds are present; a lone bound is ignored.
func parsePriceRange(minRaw, maxRaw string) (*int64, *int64, error) {
	minRaw = strings.TrimSpace(minRaw)
	maxRaw = strings.TrimSpace(maxRaw)
	if minRaw == "" || maxRaw == "" {
		return nil, nil, nil
	}

	minValue, err := strconv.ParseInt(minRaw, 10, 64)
	if err != nil {
		return nil, nil, err
	}
	maxValue, err := strconv.ParseInt(maxRaw, 10, 64)
	if err != nil {
		return nil, nil, err
	}

	return &minValue, &maxValue, nil
}

// resolveCategoryFilter expands a category id into itself plus all of its
// descendants. A missing category is a NotFound for the caller.
func resolveCategoryFilter(ctx context.Context, db *mongo.Database, rawID string) ([]primitive.ObjectID, bool, error) {
	categoryID, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		return nil, false, err
	}

	categories, err := loadCategories(ctx, db)
	if err != nil {
		return nil, false, err
	}

	if _, ok := findCategory(categories, categoryID); !ok {
		return nil, false, nil
	}

	ids := append([]primitive.ObjectID{categoryID}, descendantIDs(categories, categoryID)...)
	return ids, true, nil
}

// SearchProducts is the public browse endpoint. It always serves ACTIVE
// listings scoped by the given filters, for authenticated and anonymous
// callers alike; owners browse their own listings through GET /product/my.
func SearchProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /product"
		defer handlePanic(c, route)

		log.Printf(
			"[%s] hit name=%s city=%s category=%s minRange=%s maxRange=%s",
			route,
			c.Query("name"),
			c.Query("city"),
			c.Query("category"),
			c.Query("minRange"),
			c.Query("maxRange"),
		)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		input := productSearchInput{
			Status:       models.ProductStatusActive,
			NameContains: c.Query("name"),
		}

		// The original clients send the selected city as a header.
		cityRaw := strings.TrimSpace(c.Query("city"))
		if cityRaw == "" {
			cityRaw = strings.TrimSpace(c.GetHeader("X-City-Id"))
		}
		if cityRaw != "" {
			cityID, err := primitive.ObjectIDFromHex(cityRaw)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid city")
				return
			}
			input.CityID = &cityID
		}

		if categoryRaw := strings.TrimSpace(c.Query("category")); categoryRaw != "" {
			ids, found, err := resolveCategoryFilter(ctx, db, categoryRaw)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid category")
				return
			}
			if !found {
				respondWithError(c, http.StatusNotFound, route, "category not found")
				return
			}
			input.CategoryIDs = ids
		}

		priceMin, priceMax, err := parsePriceRange(c.Query("minRange"), c.Query("maxRange"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid price range")
			return
		}
		input.PriceMin, input.PriceMax = priceMin, priceMax

		filter := buildProductFilter(input)

		bounds, err := computePriceBounds(ctx, db, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(searchPageSize)

		cursor, err := db.Collection("products").Find(ctx, filter, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		responses, err := buildProductResponses(ctx, db, products, &bounds)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] returning %d products", route, len(responses))
		c.JSON(http.StatusOK, responses)
	}
}

// GetMyProducts lists the requester's own products. ACTIVE by default; the
// owner may request any other status with ?status=.
func GetMyProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /product/my"
		defer handlePanic(c, route)

		userID, ok := requestUser(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		input := productSearchInput{
			AuthorID: &userID,
			Status:   models.ProductStatusActive,
		}

		if status := strings.TrimSpace(c.Query("status")); status != "" {
			if !models.ValidProductStatus(status) {
				respondWithError(c, http.StatusBadRequest, route, "invalid status")
				return
			}
			input.Status = status
		}

		filter := buildProductFilter(input)

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(searchPageSize)

		cursor, err := db.Collection("products").Find(ctx, filter, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		responses, err := buildProductResponses(ctx, db, products, nil)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] returning %d products", route, len(responses))
		c.JSON(http.StatusOK, responses)
	}
}
