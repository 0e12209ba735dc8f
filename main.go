package main

import (
	"bitwise74/bboard/app"
	"bitwise74/bboard/aws"
	"bitwise74/bboard/config"
	"bitwise74/bboard/db"
	"bitwise74/bboard/internal"
	"bitwise74/bboard/internal/metrics"
	"bitwise74/bboard/internal/service"
	"bitwise74/bboard/pkg/middleware"
	"bitwise74/bboard/pkg/security"
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		panic(err)
	}

	if err := app.MakeLogger(viper.GetString("app.log_level")); err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, opts, err := setup(ctx)
	if err != nil {
		zap.L().Fatal("Failed to start", zap.Error(err))
	}

	router := app.NewRouter(ctx, d, opts)
	addr := fmt.Sprintf(":%d", viper.GetInt("host.port"))

	zap.L().Info("Server starting", zap.String("addr", addr))

	if viper.GetBool("host.ssl.enabled") {
		err = router.RunTLS(addr, viper.GetString("host.ssl.certificate_path"), viper.GetString("host.ssl.certificate_key_path"))
	} else {
		err = router.Run(addr)
	}

	if err != nil {
		zap.L().Fatal("Server stopped", zap.Error(err))
	}
}

func setup(ctx context.Context) (*internal.Deps, app.Options, error) {
	var opts app.Options

	conn, err := db.New(viper.GetString("db.driver"), viper.GetString("db.dsn"))
	if err != nil {
		return nil, opts, fmt.Errorf("failed to initialize database, %w", err)
	}

	seeds, err := config.Rubrics()
	if err != nil {
		return nil, opts, err
	}

	if err := db.SeedRubrics(conn, seeds); err != nil {
		return nil, opts, fmt.Errorf("failed to seed rubrics, %w", err)
	}

	signer, err := security.NewSigner(viper.GetString("security.secret_key"), "activation")
	if err != nil {
		return nil, opts, err
	}

	var images service.ImageStore
	switch viper.GetString("storage.type") {
	case "s3":
		client, err := aws.NewS3(ctx, aws.Options{
			AccessKey:       viper.GetString("aws.access_key"),
			SecretAccessKey: viper.GetString("aws.secret_access_key"),
			Region:          viper.GetString("aws.region"),
			Bucket:          viper.GetString("aws.bucket"),
			Endpoint:        viper.GetString("aws.endpoint"),
		})
		if err != nil {
			return nil, opts, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		images = service.NewS3Store(client, viper.GetString("storage.public_url"))
	default:
		local, err := service.NewLocalStore(viper.GetString("storage.local_path"), viper.GetString("storage.public_url"))
		if err != nil {
			return nil, opts, err
		}

		images = local
		opts.MediaDir = viper.GetString("storage.local_path")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewCollector(reg)

	var mailer service.Mailer = service.LogMailer{}
	if viper.GetBool("mail.enabled") {
		mailer = service.NewSMTPMailer(
			viper.GetString("mail.host"),
			viper.GetInt("mail.port"),
			viper.GetString("mail.username"),
			viper.GetString("mail.password"),
		)
	}

	listings := service.NewListingService(conn, images, rec, service.ListingOptions{
		MaxImageSize: viper.GetInt64("upload.max_size"),
		MaxImages:    viper.GetInt("upload.max_images"),
		PageSize:     viper.GetInt("listings.page_size"),
	})

	dispatcher, err := service.NewDispatcher(mailer, signer, listings, viper.GetString("app.base_url"), viper.GetString("mail.from"), rec)
	if err != nil {
		return nil, opts, err
	}

	accounts := service.NewAccountService(conn, security.New(), signer, dispatcher, images, rec)

	d := &internal.Deps{
		DB:                    conn,
		Accounts:              accounts,
		Listings:              listings,
		Comments:              service.NewCommentService(conn, dispatcher, rec),
		Rubrics:               service.NewRubricService(conn),
		Metrics:               rec,
		Gatherer:              reg,
		JWTSecret:             []byte(viper.GetString("security.jwt_secret")),
		SessionTTL:            viper.GetDuration("security.session_ttl"),
		SecureCookies:         viper.GetBool("host.ssl.enabled"),
		StrictCommentDelivery: viper.GetBool("notify.strict_comments"),
	}

	if maxAge := viper.GetDuration("accounts.purge_after"); maxAge > 0 {
		go service.AccountCleanup(ctx, viper.GetDuration("accounts.purge_every"), maxAge, accounts)
	}

	if viper.GetBool("turnstile.enabled") {
		opts.Captcha = middleware.NewTurnstile(viper.GetString("turnstile.secret_token"))
	}

	opts.CORSOrigins = viper.GetStringSlice("host.cors_origins")
	opts.RateLimit = viper.GetInt("security.rate_limit")
	opts.MaxUploadSize = viper.GetInt64("upload.max_size")
	opts.MaxImages = viper.GetInt("upload.max_images")

	return d, opts, nil
}
