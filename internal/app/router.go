package app

import (
	"fmt"
	"log"
	"time"

	"socialfeed/internal/config"
	"socialfeed/internal/middleware"
	"socialfeed/internal/model"
	"socialfeed/internal/repository"
	"socialfeed/internal/service"
	"socialfeed/internal/util"
	"socialfeed/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	if cfg.ServerPort == "5000" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(corsMiddleware(cfg.ClientURL))

	if cfg.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		r.Use(rateLimiter.Middleware())
		log.Printf("Rate limiting enabled: %d req/sec, burst: %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	registerValidators()

	db, err := initDB(cfg)
	if err != nil {
		panic("Failed to connect to database: " + err.Error())
	}

	if err := db.AutoMigrate(&model.User{}, &model.Post{}, &model.Comment{}, &model.Reaction{}, &model.Notification{}); err != nil {
		panic("Failed to migrate database: " + err.Error())
	}

	// reactable_id is polymorphic, so any generated FK on it is wrong
	fixReactionsTableConstraints(db)

	redisClient := initRedisWithRetry(cfg)
	rabbitMQ := initRabbitMQWithRetry(cfg)

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db, redisClient)
	commentRepo := repository.NewCommentRepository(db, redisClient)
	reactionRepo := repository.NewReactionRepository(db, redisClient)
	notificationRepo := repository.NewNotificationRepository(db)

	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("WebSocket hub started")

	var cloudinaryClient *util.CloudinaryClient
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cloudinaryClient, err = util.NewCloudinaryClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v. Image uploads will be disabled.", err)
		} else {
			log.Println("Cloudinary initialized successfully")
		}
	} else {
		log.Println("Cloudinary credentials not configured. Image uploads will be disabled.")
	}

	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	notificationService := service.NewNotificationService(notificationRepo, rabbitMQ)
	reactionService := service.NewReactionService(reactionRepo, postRepo, commentRepo)
	commentService := service.NewCommentService(commentRepo, postRepo, reactionService, notificationService)
	postService := service.NewPostService(postRepo, reactionService, commentService)

	if rabbitMQ != nil {
		notificationWorker := service.NewNotificationWorker(rabbitMQ, wsHub)
		if err := notificationWorker.Start(); err != nil {
			log.Printf("Warning: Failed to start notification worker: %v", err)
		} else {
			log.Println("Notification worker started successfully")
		}
	}

	authHandler := NewAuthHandler(authService, cfg.JWTSecret)
	postHandler := NewPostHandler(postService, cloudinaryClient)
	commentHandler := NewCommentHandler(commentService)
	reactionHandler := NewReactionHandler(reactionService, postService, commentService, notificationService)
	notificationHandler := NewNotificationHandler(notificationService)

	optionalAuth := authHandler.OptionalAuthMiddleware()

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", authHandler.AuthMiddleware(), authHandler.GetMe)
		}

		posts := api.Group("/posts")
		{
			// Public routes. More specific routes must be registered
			// before the /:id wildcard.
			posts.GET("", optionalAuth, postHandler.GetPosts)
			posts.GET("/trending", optionalAuth, postHandler.GetTrendingPosts)
			posts.GET("/:id/comments", optionalAuth, commentHandler.GetCommentsByPost)
			posts.GET("/:id/comments/count", commentHandler.GetCommentCount)
			posts.GET("/:id/reactions", optionalAuth, reactionHandler.GetPostReactions)
			posts.GET("/:id", optionalAuth, postHandler.GetPost)

			// Protected routes
			posts.Use(authHandler.AuthMiddleware())
			{
				posts.POST("", postHandler.CreatePost)
				posts.POST("/upload", postHandler.CreatePostWithImages)
				posts.PUT("/:id", postHandler.UpdatePost)
				posts.DELETE("/:id", postHandler.DeletePost)
				posts.POST("/:id/reactions", reactionHandler.ReactToPost)
			}
		}

		comments := api.Group("/comments")
		{
			// Public routes
			comments.GET("/:id", optionalAuth, commentHandler.GetComment)
			comments.GET("/:id/replies", optionalAuth, commentHandler.GetReplies)
			comments.GET("/:id/reactions", optionalAuth, reactionHandler.GetCommentReactions)

			// Protected routes
			comments.Use(authHandler.AuthMiddleware())
			{
				comments.POST("", commentHandler.CreateComment)
				comments.PUT("/:id", commentHandler.UpdateComment)
				comments.DELETE("/:id", commentHandler.DeleteComment)
				comments.POST("/:id/reactions", reactionHandler.ReactToComment)
			}
		}

		notifications := api.Group("/notifications")
		notifications.Use(authHandler.AuthMiddleware())
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.GET("/unread/count", notificationHandler.GetUnreadCount)
			notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
			notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
			notifications.DELETE("/:id", notificationHandler.DeleteNotification)
		}
	}

	// WebSocket route
	r.GET("/ws", func(c *gin.Context) {
		websocket.ServeWS(wsHub, cfg.JWTSecret).ServeHTTP(c.Writer, c.Request)
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	// TranslateError maps driver errors onto gorm sentinels, which the
	// repositories rely on for duplicate key detection.
	return gorm.Open(postgres.Open(cfg.DatabaseDSN()), &gorm.Config{TranslateError: true})
}

// registerValidators installs custom binding validators
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("reactiontype", func(fl validator.FieldLevel) bool {
			return model.IsValidReactionType(fl.Field().String())
		})
	}
}

// initRabbitMQWithRetry attempts to connect to RabbitMQ with exponential backoff retry
func initRabbitMQWithRetry(cfg *config.Config) *util.RabbitMQClient {
	maxRetries := 5
	initialDelay := 2 * time.Second
	maxDelay := 30 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		rabbitMQ, err := util.NewRabbitMQClient(cfg)
		if err == nil {
			log.Printf("RabbitMQ connected successfully on attempt %d", attempt)
			return rabbitMQ
		}

		if attempt < maxRetries {
			delay := initialDelay * time.Duration(1<<uint(attempt-1))
			if delay > maxDelay {
				delay = maxDelay
			}
			log.Printf("Failed to connect to RabbitMQ (attempt %d/%d): %v. Retrying in %v...", attempt, maxRetries, err, delay)
			time.Sleep(delay)
		} else {
			log.Printf("Warning: Failed to connect to RabbitMQ after %d attempts: %v. Notification delivery will be disabled.", maxRetries, err)
		}
	}

	return nil
}

// initRedisWithRetry attempts to connect to Redis with exponential backoff retry
func initRedisWithRetry(cfg *config.Config) *util.RedisClient {
	maxRetries := 5
	initialDelay := 2 * time.Second
	maxDelay := 30 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		redisClient, err := util.NewRedisClient(cfg)
		if err == nil {
			log.Printf("Redis connected successfully on attempt %d", attempt)
			return redisClient
		}

		if attempt < maxRetries {
			delay := initialDelay * time.Duration(1<<uint(attempt-1))
			if delay > maxDelay {
				delay = maxDelay
			}
			log.Printf("Failed to connect to Redis (attempt %d/%d): %v. Retrying in %v...", attempt, maxRetries, err, delay)
			time.Sleep(delay)
		} else {
			log.Printf("Warning: Failed to connect to Redis after %d attempts: %v. Caching will be disabled.", maxRetries, err)
		}
	}

	return nil
}

// fixReactionsTableConstraints removes foreign key constraints generated
// on reactions.reactable_id. The column references posts or comments
// depending on reactable_type, so no single FK is valid.
func fixReactionsTableConstraints(db *gorm.DB) {
	query := `
		SELECT constraint_name
		FROM information_schema.table_constraints
		WHERE table_name = 'reactions'
		AND constraint_type = 'FOREIGN KEY'
		AND constraint_name IN (
			SELECT constraint_name
			FROM information_schema.key_column_usage
			WHERE table_name = 'reactions'
			AND column_name = 'reactable_id'
		)
	`

	var constraints []struct {
		ConstraintName string `gorm:"column:constraint_name"`
	}

	if err := db.Raw(query).Scan(&constraints).Error; err != nil {
		log.Printf("Warning: Failed to query foreign key constraints on reactions table: %v", err)
		return
	}

	for _, constraint := range constraints {
		dropQuery := fmt.Sprintf("ALTER TABLE reactions DROP CONSTRAINT IF EXISTS %s", constraint.ConstraintName)
		if err := db.Exec(dropQuery).Error; err != nil {
			log.Printf("Warning: Failed to drop constraint %s: %v", constraint.ConstraintName, err)
		} else {
			log.Printf("Dropped foreign key constraint: %s", constraint.ConstraintName)
		}
	}
}

func corsMiddleware(clientURL string) gin.HandlerFunc {
	allowedOrigins := []string{
		clientURL,
		"http://localhost:3000",
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", clientURL)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
