// Package app wires the handlers into a gin engine
package app

import (
	"bitwise74/bboard/app/comment"
	"bitwise74/bboard/app/listing"
	"bitwise74/bboard/app/root"
	"bitwise74/bboard/app/rubric"
	"bitwise74/bboard/app/user"
	"bitwise74/bboard/internal"
	"bitwise74/bboard/internal/metrics"
	"bitwise74/bboard/pkg/middleware"
	"context"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"

	jsonBodyLimit = 1 << 20
)

type Options struct {
	CORSOrigins []string
	RateLimit   int
	// Per image, in bytes
	MaxUploadSize int64
	MaxImages     int
	// Served under /media when set
	MediaDir string
	// nil means only accounts can comment
	Captcha middleware.CaptchaVerifier
}

// NewRouter builds the engine. Background work started here stops with ctx.
func NewRouter(ctx context.Context, d *internal.Deps, opts Options) *gin.Engine {
	store := persist.NewMemoryStore(time.Minute)
	cacheFor := func(sec int) gin.HandlerFunc {
		return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
	}

	rec := d.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}

	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.TurnstileHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
		middleware.NewMetricsMiddleware(rec),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 8 << 20

	if d.Gatherer != nil {
		// GET /metrics			-> Prometheus scrape endpoint
		router.GET("/metrics", gin.WrapH(metrics.Handler(d.Gatherer)))
	}

	if opts.MediaDir != "" {
		// GET /media/*key		-> Serves images from local storage
		router.Static("/media", opts.MediaDir)
	}

	rateLimit := opts.RateLimit
	if rateLimit <= 0 {
		rateLimit = 10
	}

	jwt := middleware.NewJWTMiddleware(d.DB, d.JWTSecret)
	optionalJWT := middleware.NewOptionalJWTMiddleware(d.DB, d.JWTSecret)
	turnstile := middleware.NewTurnstileMiddleware(opts.Captcha)
	rateLimiter := middleware.RateLimiterMiddleware(ctx, middleware.RateLimiterConfig{
		RequestsPerSecond: float64(rateLimit),
		Burst:             rateLimit * 2,
		CleanupInterval:   time.Minute,
		TTL:               3 * time.Minute,
	})

	maxImages := opts.MaxImages
	if maxImages <= 0 {
		maxImages = 1
	}
	uploadLimit := middleware.BodySizeLimiter(opts.MaxUploadSize*int64(maxImages) + jsonBodyLimit)
	jsonLimit := middleware.BodySizeLimiter(jsonBodyLimit)

	m := router.Group("/api", rateLimiter)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server and database are alive
		m.HEAD("/heartbeat", func(c *gin.Context) { root.Heartbeat(c, d) })

		// HEAD /api/validate		-> Checks that the session cookie is still good
		m.HEAD("/validate", jwt, root.Validate)
	}

	u := m.Group("/users", jsonLimit)
	{
		// POST /api/users 		-> Registers a new account and mails the activation link
		u.POST("", func(c *gin.Context) { user.UserRegister(c, d) })

		// POST /api/users/login 	-> Logs in and sets the session cookie
		u.POST("/login", func(c *gin.Context) { user.UserLogin(c, d) })

		// POST /api/users/logout	-> Clears the session cookies
		u.POST("/logout", func(c *gin.Context) { user.UserLogout(c, d) })

		// GET /api/users/activate/:sign	-> Activates an account from a mailed link
		u.GET("/activate/:sign", func(c *gin.Context) { user.UserActivate(c, d) })

		// POST /api/users/activate/resend	-> Mails the activation link again
		u.POST("/activate/resend", func(c *gin.Context) { user.UserResendActivation(c, d) })

		// GET /api/users		-> Returns the account and its listings
		u.GET("", jwt, func(c *gin.Context) { user.UserFetch(c, d) })

		// PATCH /api/users		-> Changes the profile
		u.PATCH("", jwt, func(c *gin.Context) { user.UserUpdate(c, d) })

		// PUT /api/users/password	-> Changes the password
		u.PUT("/password", jwt, func(c *gin.Context) { user.UserChangePassword(c, d) })

		// DELETE /api/users		-> Deletes the account with everything it owns
		u.DELETE("", jwt, func(c *gin.Context) { user.UserDelete(c, d) })
	}

	r := m.Group("/rubrics")
	{
		// GET /api/rubrics		-> Returns the rubric tree
		r.GET("", cacheFor(60), func(c *gin.Context) { rubric.RubricList(c, d) })

		// GET /api/rubrics/:id		-> Returns one rubric
		r.GET("/:id", cacheFor(60), func(c *gin.Context) { rubric.RubricFetch(c, d) })
	}

	l := m.Group("/listings")
	{
		// GET /api/listings		-> Public index, ?rubric=&keyword=&page=
		l.GET("", func(c *gin.Context) { listing.ListingList(c, d) })

		// GET /api/listings/latest	-> The newest active listings
		l.GET("/latest", func(c *gin.Context) { listing.ListingLatest(c, d) })

		// GET /api/listings/:id	-> Listing detail with its comments
		l.GET("/:id", func(c *gin.Context) { listing.ListingFetch(c, d) })

		// POST /api/listings		-> Publishes a listing from a multipart form
		l.POST("", jwt, uploadLimit, func(c *gin.Context) { listing.ListingCreate(c, d) })

		// PATCH /api/listings/:id	-> Updates an own listing
		l.PATCH("/:id", jwt, uploadLimit, func(c *gin.Context) { listing.ListingUpdate(c, d) })

		// DELETE /api/listings/:id	-> Deletes an own listing
		l.DELETE("/:id", jwt, func(c *gin.Context) { listing.ListingDelete(c, d) })

		// GET /api/listings/:id/comments	-> Active comments of a listing
		l.GET("/:id/comments", func(c *gin.Context) { comment.CommentList(c, d) })

		// POST /api/listings/:id/comments	-> Leaves a comment, guests need a captcha
		l.POST("/:id/comments", jsonLimit, optionalJWT, turnstile, func(c *gin.Context) { comment.CommentCreate(c, d) })
	}

	p := m.Group("/profile", jwt)
	{
		// GET /api/profile/listings	-> Own listings, inactive ones included
		p.GET("/listings", func(c *gin.Context) { listing.ListingProfileList(c, d) })

		// GET /api/profile/listings/:id	-> One own listing
		p.GET("/listings/:id", func(c *gin.Context) { listing.ListingProfileFetch(c, d) })
	}

	return router
}

// MakeLogger replaces the global zap logger with a colored development one
func MakeLogger(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(log)
	return nil
}
