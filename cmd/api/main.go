package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"defqueue/internal/auth"
	"defqueue/internal/config"
	"defqueue/internal/events"
	"defqueue/internal/group"
	"defqueue/internal/httpmiddleware"
	"defqueue/internal/participant"
	"defqueue/internal/store"
	"defqueue/internal/timezone"
	"defqueue/internal/users"
)

var joinCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "defqueue_group_joins_total",
	Help: "Number of accepted group join requests.",
})

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var q events.Queue
	if cfg.QueueBackend == "memory" {
		q = events.NewInMemory(64)
	} else {
		q = events.NewRedisQueue(redisClient.Client, "defqueue:joins")
	}

	catalog, err := timezone.LoadCSV(cfg.TimezoneCSVPath)
	if err != nil {
		return err
	}
	log.Printf("timezone catalog loaded: %d regions", catalog.Len())

	userSvc := users.NewService(users.NewRepository(db.Client))
	groupSvc := group.NewService(group.NewRepository(db.Client))
	partSvc := participant.NewService(participant.NewRepository(db.Client))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:          24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewPerIPLimiter(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	api := r.Group("/api/v1")

	api.POST("/auth/register", func(c *gin.Context) {
		var req struct {
			FullName string `json:"full_name" binding:"required"`
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required,min=6"`
			Role     string `json:"role" binding:"required,oneof=student teacher"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		u, err := userSvc.Register(c.Request.Context(), req.FullName, req.Email, req.Role, req.Password)
		if err != nil {
			writeError(c, err)
			return
		}
		token, exp, err := auth.Issue(u.ID, u.Role, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"user": u, "access_token": token, "expires_at": exp.Unix()})
	})

	api.POST("/auth/login", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		u, err := userSvc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			writeError(c, err)
			return
		}
		token, exp, err := auth.Issue(u.ID, u.Role, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": u, "access_token": token, "expires_at": exp.Unix()})
	})

	api.GET("/timezones/search", func(c *gin.Context) {
		query := c.Query("query")
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
			return
		}
		entries := catalog.Search(query, intQuery(c, "limit"))
		regions := make([]gin.H, 0, len(entries))
		for _, e := range entries {
			regions = append(regions, gin.H{
				"region":           e.Region,
				"msk_offset_hours": e.MSKOffsetHours,
				"utc_offset_hours": e.UTCOffsetHours,
				"fias_code":        e.FIASCode,
			})
		}
		c.JSON(http.StatusOK, gin.H{"regions": regions})
	})

	api.GET("/timezones/resolve", func(c *gin.Context) {
		region := c.Query("region")
		if region == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "region is required"})
			return
		}
		res, err := catalog.Resolve(region, intQuery(c, "limit"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})

	api.GET("/timezones/now", func(c *gin.Context) {
		region := c.Query("region")
		fias := c.Query("fias_code")
		if region == "" && fias == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "region or fias_code is required"})
			return
		}
		e, err := catalog.ResolveOne(region, fias)
		if err != nil {
			writeError(c, err)
			return
		}
		times := catalog.CurrentTime(e)
		c.JSON(http.StatusOK, gin.H{
			"region":           e.Region,
			"msk_offset_hours": e.MSKOffsetHours,
			"utc_offset_hours": e.UTCOffsetHours,
			"msk_time":         times.MSKTime,
			"local_time":       times.LocalTime,
		})
	})

	authed := api.Group("", auth.Bearer(cfg.JWTSigningKey, cfg.JWTIssuer))

	authed.GET("/auth/me", func(c *gin.Context) {
		claims := auth.FromContext(c)
		u, err := userSvc.GetByID(c.Request.Context(), claims.UserID())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	})

	authed.POST("/groups", auth.RequireRole(users.RoleTeacher), func(c *gin.Context) {
		var req struct {
			GroupNumber string `json:"group_number" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		g, err := groupSvc.Create(c.Request.Context(), auth.FromContext(c).UserID(), req.GroupNumber)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, g)
	})

	authed.GET("/groups/my", auth.RequireRole(users.RoleTeacher), func(c *gin.Context) {
		groups, err := groupSvc.ListMyGroups(c.Request.Context(), auth.FromContext(c).UserID())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"groups": groups})
	})

	authed.POST("/groups/join", auth.RequireRole(users.RoleStudent), func(c *gin.Context) {
		var req struct {
			JoinCode       string `json:"join_code" binding:"required"`
			DisplayName    string `json:"display_name"`
			Region         string `json:"region"`
			FIASCode       string `json:"fias_code"`
			MSKOffsetHours *int   `json:"msk_offset_hours"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		claims := auth.FromContext(c)
		u, err := userSvc.GetByID(c.Request.Context(), claims.UserID())
		if err != nil {
			writeError(c, err)
			return
		}
		g, err := groupSvc.GetByJoinCode(c.Request.Context(), req.JoinCode)
		if err != nil {
			writeError(c, err)
			return
		}

		var region *string
		offset := req.MSKOffsetHours
		switch {
		case offset != nil:
			if req.Region != "" {
				region = &req.Region
			}
		case req.Region != "" || req.FIASCode != "":
			if req.FIASCode == "" {
				res, err := catalog.Resolve(req.Region, 0)
				if err != nil {
					writeError(c, err)
					return
				}
				if res.NeedsChoice {
					c.JSON(http.StatusConflict, res)
					return
				}
			}
			e, err := catalog.ResolveOne(req.Region, req.FIASCode)
			if err != nil {
				writeError(c, err)
				return
			}
			region = &e.Region
			offset = &e.MSKOffsetHours
		}

		displayName := req.DisplayName
		if displayName == "" {
			displayName = u.FullName
		}

		p, err := partSvc.Join(c.Request.Context(), g.ID, u.ID, displayName, region, offset)
		if err != nil {
			writeError(c, err)
			return
		}
		joinCounter.Inc()

		msg, err := events.NewJoinMessage(events.JoinEvent{GroupID: g.ID, UserID: u.ID, Position: p.Position})
		if err == nil {
			if err := q.Publish(c.Request.Context(), msg); err != nil {
				log.Printf("join event publish failed: %v", err)
			}
		}

		c.JSON(http.StatusCreated, gin.H{"group": g, "participant": p})
	})

	authed.GET("/groups/:id/queue", auth.RequireRole(users.RoleTeacher), func(c *gin.Context) {
		g, err := groupSvc.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if g.TeacherID != auth.FromContext(c).UserID() {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your group"})
			return
		}
		queue, err := partSvc.ListQueue(c.Request.Context(), g.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"group": g, "queue": queue})
	})

	r.StaticFile("/", "web/index.html")

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// writeError maps domain sentinels to HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, users.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, users.ErrEmailTaken), errors.Is(err, group.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, users.ErrNotFound), errors.Is(err, group.ErrNotFound), errors.Is(err, timezone.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, group.ErrCodeSpaceExhausted):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		log.Printf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func intQuery(c *gin.Context, name string) int {
	if v := c.Query(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return 0
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
