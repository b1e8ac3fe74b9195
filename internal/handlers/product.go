package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

type ProductFeatureRequest struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// normalizeFeatures trims embedded feature fields. The required binding only
// rejects empty strings, so whitespace-only names and values are caught here.
func normalizeFeatures(reqs []ProductFeatureRequest) ([]models.ProductFeature, error) {
	features := make([]models.ProductFeature, 0, len(reqs))
	for _, feature := range reqs {
		name := strings.TrimSpace(feature.Name)
		value := strings.TrimSpace(feature.Value)
		if name == "" || value == "" {
			return nil, fmt.Errorf("feature name and value are required")
		}
		features = append(features, models.ProductFeature{Name: name, Value: value})
	}
	return features, nil
}

type ProductCreateRequest struct {
	Name         string                  `json:"name" binding:"required"`
	Description  string                  `json:"description"`
	Price        *int64                  `json:"price" binding:"required,gte=0"`
	PriceSuffix  string                  `json:"priceSuffix"`
	IsLowerBound bool                    `json:"isLowerBound"`
	Category     string                  `json:"category" binding:"required"`
	City         string                  `json:"city"`
	Features     []ProductFeatureRequest `json:"features" binding:"omitempty,dive"`
}

// ProductUpdateRequest carries only the fields the owner wants to change.
type ProductUpdateRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	Price        *int64  `json:"price"`
	PriceSuffix  *string `json:"priceSuffix"`
	IsLowerBound *bool   `json:"isLowerBound"`
	Status       *string `json:"status"`
	Category     *string `json:"category"`
	City         *string `json:"city"`
}

// buildProductUpdate turns the set fields of an update request into a $set
// document. Category and city ids arrive pre-resolved by the handler.
func buildProductUpdate(req ProductUpdateRequest, categoryID, cityID *primitive.ObjectID, now time.Time) (bson.M, error) {
	updateSet := bson.M{"updatedAt": now}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("name required")
		}
		updateSet["name"] = name
	}
	if req.Description != nil {
		updateSet["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("price must be zero or greater")
		}
		updateSet["price"] = *req.Price
	}
	if req.PriceSuffix != nil {
		updateSet["priceSuffix"] = strings.TrimSpace(*req.PriceSuffix)
	}
	if req.IsLowerBound != nil {
		updateSet["isLowerBound"] = *req.IsLowerBound
	}
	if req.Status != nil {
		if !models.ValidProductStatus(*req.Status) {
			return nil, fmt.Errorf("invalid status")
		}
		updateSet["status"] = *req.Status
	}
	if categoryID != nil {
		updateSet["categoryId"] = *categoryID
	}
	if cityID != nil {
		updateSet["cityId"] = *cityID
	}

	return updateSet, nil
}

func findProductByID(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (models.Product, error) {
	var product models.Product
	err := db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	return product, err
}

// loadProduct is the lookup used by the product handlers. Handler tests swap
// it out to exercise branches without a live database.
var loadProduct = findProductByID

// categoryExists verifies a category id against the categories collection.
func categoryExists(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (bool, error) {
	count, err := db.Collection("categories").CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func cityExists(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (bool, error) {
	count, err := db.Collection("cities").CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetProduct returns a single listing by id.
func GetProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /product/:id"
		defer handlePanic(c, route)

		id, err := parseObjectIDParam(c, "id")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		respondWithProduct(c, ctx, db, route, id)
	}
}

// respondWithProduct writes the read-only DTO of one product. Shared by
// GetProduct and the anonymous branch of UpdateProduct.
func respondWithProduct(c *gin.Context, ctx context.Context, db *mongo.Database, route string, id primitive.ObjectID) {
	product, err := loadProduct(ctx, db, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respondWithError(c, http.StatusNotFound, route, "product not found")
		return
	}
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return
	}

	responses, err := buildProductResponses(ctx, db, []models.Product{product}, nil)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return
	}

	c.JSON(http.StatusOK, responses[0])
}

// CreateProduct inserts a new listing for the authenticated requester. The
// listing starts on moderation; its features are embedded in the same
// document so the write is all-or-nothing.
func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /product"
		defer handlePanic(c, route)

		userID, ok := requestUser(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req ProductCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		features, err := normalizeFeatures(req.Features)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		categoryID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.Category))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid category")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if ok, err := categoryExists(ctx, db, categoryID); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		} else if !ok {
			respondWithError(c, http.StatusBadRequest, route, "category not found")
			return
		}

		var cityID *primitive.ObjectID
		if cityRaw := strings.TrimSpace(req.City); cityRaw != "" {
			parsed, err := primitive.ObjectIDFromHex(cityRaw)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid city")
				return
			}
			if ok, err := cityExists(ctx, db, parsed); err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			} else if !ok {
				respondWithError(c, http.StatusBadRequest, route, "city not found")
				return
			}
			cityID = &parsed
		}

		now := time.Now()
		product := models.Product{
			Name:         strings.TrimSpace(req.Name),
			Description:  strings.TrimSpace(req.Description),
			Price:        *req.Price,
			PriceSuffix:  strings.TrimSpace(req.PriceSuffix),
			IsLowerBound: req.IsLowerBound,
			Status:       models.ProductStatusOnModerate,
			AuthorID:     userID,
			CategoryID:   categoryID,
			CityID:       cityID,
			Features:     features,
			Images:       make([]models.ProductImage, 0),
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			log.Printf("[%s] insert error: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		product.ID = res.InsertedID.(primitive.ObjectID)

		log.Printf("[%s] created product %s with %d features", route, product.ID.Hex(), len(features))

		responses, err := buildProductResponses(ctx, db, []models.Product{product}, nil)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusCreated, responses[0])
	}
}

// UpdateProduct applies a partial update when the requester owns the
// listing. Anonymous callers are not rejected: they get the read-only view
// of the resource, exactly as a GET would return it.
func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Registered for both PUT and PATCH.
		route := c.Request.Method + " /product/:id"
		defer handlePanic(c, route)

		id, err := parseObjectIDParam(c, "id")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		userID, authenticated := requestUser(c)
		if !authenticated {
			log.Printf("[%s] anonymous update degraded to read for %s", route, id.Hex())
			respondWithProduct(c, ctx, db, route, id)
			return
		}

		product, err := loadProduct(ctx, db, id)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if product.AuthorID != userID {
			respondWithError(c, http.StatusForbidden, route, "not the owner")
			return
		}

		var req ProductUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		var categoryID *primitive.ObjectID
		if req.Category != nil {
			parsed, err := primitive.ObjectIDFromHex(strings.TrimSpace(*req.Category))
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid category")
				return
			}
			if ok, err := categoryExists(ctx, db, parsed); err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			} else if !ok {
				respondWithError(c, http.StatusBadRequest, route, "category not found")
				return
			}
			categoryID = &parsed
		}

		var cityID *primitive.ObjectID
		if req.City != nil {
			parsed, err := primitive.ObjectIDFromHex(strings.TrimSpace(*req.City))
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid city")
				return
			}
			if ok, err := cityExists(ctx, db, parsed); err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			} else if !ok {
				respondWithError(c, http.StatusBadRequest, route, "city not found")
				return
			}
			cityID = &parsed
		}

		updateSet, err := buildProductUpdate(req, categoryID, cityID, time.Now())
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		if _, err := db.Collection("products").UpdateByID(ctx, id, bson.M{"$set": updateSet}); err != nil {
			log.Printf("[%s] update error: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondWithProduct(c, ctx, db, route, id)
	}
}

// DeleteProduct removes a listing and its uploaded image files. Embedded
// features and images go with the document.
func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /product/:id"
		defer handlePanic(c, route)

		userID, ok := requestUser(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		id, err := parseObjectIDParam(c, "id")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, err := loadProduct(ctx, db, id)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if product.AuthorID != userID {
			respondWithError(c, http.StatusForbidden, route, "not the owner")
			return
		}

		if _, err := db.Collection("products").DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			log.Printf("[%s] delete error: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		// File cleanup is best-effort; the listing is already gone.
		for _, image := range product.Images {
			if err := safeDeleteUpload(image.ImagePath); err != nil {
				log.Printf("[%s] upload cleanup failed for %s: %v", route, image.ImagePath, err)
			}
		}

		log.Printf("[%s] deleted product %s", route, id.Hex())
		c.Status(http.StatusNoContent)
	}
}
