package handlers

import (
	"context"
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

func loadCategories(ctx context.Context, db *mongo.Database) ([]models.Category, error) {
	cursor, err := db.Collection("categories").Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	categories := make([]models.Category, 0)
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// GetCategories returns the flat list of root categories.
func GetCategories(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /category"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		// A nil query value matches both missing and explicit-null parentId.
		cursor, err := db.Collection("categories").Find(ctx, bson.M{"parentId": nil})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		roots := make([]models.Category, 0)
		if err := cursor.All(ctx, &roots); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		log.Printf("[%s] returning %d root categories", route, len(roots))
		c.JSON(http.StatusOK, roots)
	}
}

// GetCategoryTree returns the full nested forest, or the subtree rooted at
// ?category=<id> when given. The tree is rebuilt per request; categories are
// mutable reference data.
func GetCategoryTree(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /category/tree"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		categories, err := loadCategories(ctx, db)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if rootParam := strings.TrimSpace(c.Query("category")); rootParam != "" {
			rootID, err := primitive.ObjectIDFromHex(rootParam)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid category")
				return
			}

			root, ok := findCategory(categories, rootID)
			if !ok {
				respondWithError(c, http.StatusNotFound, route, "category not found")
				return
			}

			c.JSON(http.StatusOK, buildCategoryNode(childIndex(categories), root, nil))
			return
		}

		forest := buildCategoryForest(categories)
		log.Printf("[%s] returning %d root nodes", route, len(forest))
		c.JSON(http.StatusOK, forest)
	}
}
