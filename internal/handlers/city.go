package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

// GetCities returns all cities. Cities are reference data seeded out-of-band.
func GetCities(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /city"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("cities").Find(ctx, bson.M{})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		cities := make([]models.City, 0)
		if err := cursor.All(ctx, &cities); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		log.Printf("[%s] returning %d cities", route, len(cities))
		c.JSON(http.StatusOK, cities)
	}
}

// cityNamesByID loads the names of the given cities in one query.
func cityNamesByID(ctx context.Context, db *mongo.Database, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	cursor, err := db.Collection("cities").Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var cities []models.City
	if err := cursor.All(ctx, &cities); err != nil {
		return nil, err
	}

	for _, city := range cities {
		names[city.ID] = city.Name
	}
	return names, nil
}
