package handlers

import (
	"context"
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

// collectImageFiles pulls every uploaded file out of a multipart form. Files
// may arrive under repeated "images" fields or a single "image" field.
func collectImageFiles(form *multipart.Form) []*multipart.FileHeader {
	files := form.File["images"]
	if len(files) == 0 {
		files = form.File["image"]
	}
	return files
}

// findEmbeddedImage returns the image entry with the given id, or nil when
// the listing carries no such image.
func findEmbeddedImage(images []models.ProductImage, id primitive.ObjectID) *models.ProductImage {
	for i := range images {
		if images[i].ID == id {
			return &images[i]
		}
	}
	return nil
}

// UploadProductImages attaches one or more images to a listing owned by the
// requester. Each file becomes its own image entry with its own id.
func UploadProductImages(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /product/:id/images"
		defer handlePanic(c, route)

		userID, ok := requestUser(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		productID, err := parseObjectIDParam(c, "id")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		if !strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data") {
			respondWithError(c, http.StatusUnsupportedMediaType, route, "multipart/form-data required")
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid multipart form")
			return
		}

		files := collectImageFiles(form)
		if len(files) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "at least one image file is required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, err := loadProduct(ctx, db, productID)
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

		description := strings.TrimSpace(c.PostForm("description"))

		images := make([]models.ProductImage, 0, len(files))
		for _, file := range files {
			imagePath, err := saveImage(file)
			if err != nil {
				// Roll back files already written for this request.
				for _, saved := range images {
					if cleanupErr := safeDeleteUpload(saved.ImagePath); cleanupErr != nil {
						log.Printf("[%s] rollback cleanup failed for %s: %v", route, saved.ImagePath, cleanupErr)
					}
				}
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			images = append(images, models.ProductImage{
				ID:          primitive.NewObjectID(),
				ImagePath:   imagePath,
				Description: description,
			})
		}

		update := bson.M{
			"$push": bson.M{"images": bson.M{"$each": images}},
			"$set":  bson.M{"updatedAt": time.Now()},
		}
		if _, err := db.Collection("products").UpdateByID(ctx, productID, update); err != nil {
			log.Printf("[%s] update error: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] attached %d images to product %s", route, len(images), productID.Hex())
		c.JSON(http.StatusCreated, gin.H{"images": images})
	}
}

// DeleteProductImage detaches exactly one image, matched by the
// (productId, imageId) pair. Deleting the same image twice yields 404 the
// second time.
func DeleteProductImage(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /product/:id/images/:imageId"
		defer handlePanic(c, route)

		userID, ok := requestUser(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		productID, err := parseObjectIDParam(c, "id")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		imageID, err := parseObjectIDParam(c, "imageId")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, err := loadProduct(ctx, db, productID)
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

		removed := findEmbeddedImage(product.Images, imageID)
		if removed == nil {
			respondWithError(c, http.StatusNotFound, route, "image not found")
			return
		}

		update := bson.M{
			"$pull": bson.M{"images": bson.M{"id": imageID}},
			"$set":  bson.M{"updatedAt": time.Now()},
		}
		if _, err := db.Collection("products").UpdateByID(ctx, productID, update); err != nil {
			log.Printf("[%s] update error: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := safeDeleteUpload(removed.ImagePath); err != nil {
			log.Printf("[%s] upload cleanup failed for %s: %v", route, removed.ImagePath, err)
		}

		log.Printf("[%s] detached image %s from product %s", route, imageID.Hex(), productID.Hex())
		c.Status(http.StatusNoContent)
	}
}
