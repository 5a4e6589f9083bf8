package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nimbusdrive/blobstore"
	"nimbusdrive/config"
	"nimbusdrive/jobs"
	"nimbusdrive/routes"
	"nimbusdrive/utils"
)

func main() {
	utils.InitLogger()

	if err := godotenv.Load(); err != nil {
		utils.LogInfo("No .env file found, using system environment variables")
	}

	config.LoadConfig()
	cfg := config.AppConfig

	ctx, cancel := config.CreateContext(10 * time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		disconnectCtx, disconnectCancel := config.CreateContext(5 * time.Second)
		defer disconnectCancel()
		if err = mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Printf("Failed to disconnect MongoDB: %v", err)
		}
	}()

	if err = mongoClient.Ping(ctx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	utils.LogInfo("Connected to MongoDB successfully")

	db := mongoClient.Database(cfg.DatabaseName)

	// Blob backend: B2 when credentials are configured, local disk otherwise.
	var blobStore blobstore.Store
	var ownerLister jobs.OwnerLister
	if cfg.UseB2() {
		b2Store, err := blobstore.NewB2Store(ctx, cfg.B2ApplicationKeyID, cfg.B2ApplicationKey, cfg.B2BucketName)
		if err != nil {
			log.Fatalf("Failed to initialize B2 blob store: %v", err)
		}
		blobStore, ownerLister = b2Store, b2Store
		log.Printf("Using B2 blob store (bucket %s)", cfg.B2BucketName)
	} else {
		diskStore, err := blobstore.NewDiskStore(cfg.BlobRoot)
		if err != nil {
			log.Fatalf("Failed to initialize disk blob store: %v", err)
		}
		blobStore, ownerLister = diskStore, diskStore
		log.Printf("Using disk blob store at %s", cfg.BlobRoot)
	}

	container := routes.NewServiceContainer(db, blobStore, cfg)

	if repo, ok := container.UserRepo.(interface{ EnsureIndexes(context.Context) error }); ok {
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to create indexes: %v", err)
		}
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(corsMiddleware(cfg.AllowedOrigins))

	api := router.Group("/api")
	routes.SetupRoutes(api, container)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC(),
		})
	})

	if cfg.SweepInterval > 0 {
		// Blobs younger than one sweep interval are left alone so an
		// upload in flight never loses its bytes.
		sweeper := jobs.NewOrphanSweeper(blobStore, ownerLister, container.FileRepo, cfg.SweepInterval)
		go sweeper.Start(context.Background(), cfg.SweepInterval)
	}

	log.Printf("Starting nimbusdrive server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestOrigin := c.Request.Header.Get("Origin")

		allowOrigin := "*"
		for _, origin := range allowedOrigins {
			if origin == "*" || origin == requestOrigin {
				allowOrigin = origin
				break
			}
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
