package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/OKpoorav/DietKaro-sub002/config"
	"github.com/OKpoorav/DietKaro-sub002/controllers"
	"github.com/OKpoorav/DietKaro-sub002/logger"
	"github.com/OKpoorav/DietKaro-sub002/repository"
	"github.com/OKpoorav/DietKaro-sub002/routes"
	"github.com/OKpoorav/DietKaro-sub002/services"
	"github.com/OKpoorav/DietKaro-sub002/utils"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.Env)
		if err != nil {
			return err
		}
		defer logger.Sync(log)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, log)
	},
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.OpenDB(cfg, log)
	if err != nil {
		return err
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(reg)

	store := repository.New(db, log)
	validation := services.NewValidationService(services.ValidationDeps{
		Clients: store,
		Foods:   store,
		Logs:    store,
		Cache:   services.NewValidationCache(),
		Metrics: metrics,
		Log:     log,
		Workers: cfg.BatchWorkers,
		Now:     func() time.Time { return time.Now().In(cfg.Location) },
	})
	scorer := services.NewComplianceScorer(cfg.Scoring)
	adherence := services.NewAdherenceService(services.AdherenceDeps{
		Logs:       store,
		Scorer:     scorer,
		Hysteresis: cfg.Scoring.TrendHysteresis,
		Location:   cfg.Location,
		CacheTTL:   cfg.AdherenceCacheTTL,
		Log:        log,
	})

	hub := services.NewRealtimeHub(log)
	push := services.NewPushService(store, sns.NewFromConfig(awsCfg), cfg.SNSFCMArn, log)
	compliance := services.NewComplianceService(services.ComplianceDeps{
		Logs:     store,
		Plans:    store,
		Scorer:   scorer,
		Notifier: services.NewAlertBus(store, hub, push, log),
		Derived:  []services.ClientInvalidator{validation, adherence},
		Metrics:  metrics,
		Log:      log,
	})
	photos := services.NewPhotoService(
		utils.NewS3Uploader(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.PhotoBaseURL),
		services.NewRekognitionLabeler(rekognition.NewFromConfig(awsCfg)),
		log,
	)

	router := routes.SetupRouter(routes.Controllers{
		Validation: controllers.NewValidationController(validation),
		Adherence:  controllers.NewAdherenceController(adherence, cfg.Location),
		MealLogs:   controllers.NewMealLogController(services.NewMealLogService(store, photos, compliance, log)),
		Profiles:   controllers.NewProfileController(services.NewProfileService(store, validation, log)),
		Devices:    controllers.NewDeviceController(push),
		Realtime:   controllers.NewRealtimeController(hub),
	}, []byte(cfg.JWTSecret), reg, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
