package handlers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

// ProductResponse is the listing DTO. MinPrice/MaxPrice describe the full
// filtered match set of a search and are only populated on the search
// endpoint.
type ProductResponse struct {
	ID           primitive.ObjectID      `json:"id"`
	Images       []string                `json:"images"`
	Name         string                  `json:"name"`
	Description  string                  `json:"description"`
	Price        int64                   `json:"price"`
	PriceSuffix  string                  `json:"priceSuffix"`
	IsLowerBound bool                    `json:"isLowerBound"`
	Status       string                  `json:"status"`
	Category     primitive.ObjectID      `json:"category"`
	CityID       *primitive.ObjectID     `json:"cityId"`
	CityName     *string                 `json:"cityName"`
	Features     []models.ProductFeature `json:"features"`
	CreatedAt    time.Time               `json:"createdAt"`
	MinPrice     *int64                  `json:"minPrice,omitempty"`
	MaxPrice     *int64                  `json:"maxPrice,omitempty"`
}

// publicImageURL maps a stored upload path to the URL it is served under.
func publicImageURL(imagePath string) string {
	return "/public/" + imagePath
}

func newProductResponse(product models.Product, cityNames map[primitive.ObjectID]string, bounds *priceBounds) ProductResponse {
	images := make([]string, 0, len(product.Images))
	for _, image := range product.Images {
		images = append(images, publicImageURL(image.ImagePath))
	}

	features := product.Features
	if features == nil {
		features = make([]models.ProductFeature, 0)
	}

	response := ProductResponse{
		ID:           product.ID,
		Images:       images,
		Name:         product.Name,
		Description:  product.Description,
		Price:        product.Price,
		PriceSuffix:  product.PriceSuffix,
		IsLowerBound: product.IsLowerBound,
		Status:       product.Status,
		Category:     product.CategoryID,
		CityID:       product.CityID,
		Features:     features,
		CreatedAt:    product.CreatedAt,
	}

	if product.CityID != nil {
		if name, ok := cityNames[*product.CityID]; ok {
			response.CityName = &name
		}
	}

	if bounds != nil {
		response.MinPrice = bounds.MinPrice
		response.MaxPrice = bounds.MaxPrice
	}

	return response
}

// buildProductResponses maps products to DTOs, resolving city names in one
// batch query. bounds is nil outside of the search endpoint.
func buildProductResponses(ctx context.Context, db *mongo.Database, products []models.Product, bounds *priceBounds) ([]ProductResponse, error) {
	cityIDs := make([]primitive.ObjectID, 0)
	seen := map[primitive.ObjectID]struct{}{}
	for _, product := range products {
		if product.CityID == nil {
			continue
		}
		if _, ok := seen[*product.CityID]; ok {
			continue
		}
		seen[*product.CityID] = struct{}{}
		cityIDs = append(cityIDs, *product.CityID)
	}

	cityNames, err := cityNamesByID(ctx, db, cityIDs)
	if err != nil {
		return nil, err
	}

	responses := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		responses = append(responses, newProductResponse(product, cityNames, bounds))
	}
	return responses, nil
}
