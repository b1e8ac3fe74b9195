package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/handlers"
	"backend/internal/middleware"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureCategoryIndexes(db); err != nil {
		log.Printf("category index warning: %v", err)
	}
	if err := database.EnsureCityIndexes(db); err != nil {
		log.Printf("city index warning: %v", err)
	}
	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}

	handlers.SetUploadRoot(config.AppEnv.UploadDir)

	r := gin.Default()
	r.Static("/public", config.AppEnv.UploadDir)

	secret := config.AppEnv.JWTSecret
	accessTTL := config.AppEnv.AccessTokenTTL
	refreshTTL := config.AppEnv.RefreshTokenTTL

	r.POST("/auth/register", handlers.Register(db))
	r.POST("/auth/login", handlers.Login(db, secret, accessTTL, refreshTTL))
	r.POST("/auth/refresh", handlers.Refresh(db, secret, accessTTL, refreshTTL))
	r.POST("/auth/logout", handlers.Logout(db))
	r.GET("/user", middleware.UserAuth(secret), handlers.GetMe(db))

	r.GET("/category/tree", handlers.GetCategoryTree(db))
	r.GET("/category", handlers.GetCategories(db))
	r.GET("/city", handlers.GetCities(db))

	r.GET("/product", middleware.OptionalAuth(secret), handlers.SearchProducts(db))
	r.GET("/product/my", middleware.UserAuth(secret), handlers.GetMyProducts(db))
	r.GET("/product/:id", handlers.GetProduct(db))
	r.POST("/product", middleware.UserAuth(secret), handlers.CreateProduct(db))
	r.PUT("/product/:id", middleware.OptionalAuth(secret), handlers.UpdateProduct(db))
	r.PATCH("/product/:id", middleware.OptionalAuth(secret), handlers.UpdateProduct(db))
	r.DELETE("/product/:id", middleware.UserAuth(secret), handlers.DeleteProduct(db))

	r.POST("/product/:id/images", middleware.UserAuth(secret), handlers.UploadProductImages(db))
	r.DELETE("/product/:id/images/:imageId", middleware.UserAuth(secret), handlers.DeleteProductImage(db))

	port := config.AppEnv.Port
	log.Println("listening on :" + port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
