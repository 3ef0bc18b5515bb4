package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vborgne/urlshortener/cmd"
	"github.com/vborgne/urlshortener/internal/api"
	"github.com/vborgne/urlshortener/internal/auth"
	"github.com/vborgne/urlshortener/internal/cache"
	"github.com/vborgne/urlshortener/internal/config"
	"github.com/vborgne/urlshortener/internal/geoip"
	"github.com/vborgne/urlshortener/internal/hash"
	"github.com/vborgne/urlshortener/internal/logging"
	"github.com/vborgne/urlshortener/internal/models"
	"github.com/vborgne/urlshortener/internal/monitor"
	"github.com/vborgne/urlshortener/internal/repository"
	"github.com/vborgne/urlshortener/internal/services"
	"github.com/vborgne/urlshortener/internal/workers"
)

// RunServerCmd représente la commande 'run-server' de Cobra.
// C'est le point d'entrée pour lancer le serveur de l'application.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Lance le serveur API de raccourcissement d'URLs et les processus de fond.",
	Long: `Cette commande initialise la base de données, configure les APIs,
démarre les workers asynchrones pour les visites et le nettoyage des liens
expirés, puis lance le serveur HTTP.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Échec du chargement de la configuration : %v\n", err)
			os.Exit(1)
		}

		logger, atomicLevel := logging.NewLogger(cfg)
		defer logger.Sync()

		// Initialiser la base de données. The handle is opened here and
		// passed down explicitly; no package holds a global connection.
		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{
			Logger: logging.NewGormLogger(logger, logging.ToGormLogLevel(atomicLevel.Level())),
		})
		if err != nil {
			logger.Fatal("échec de la connexion à la base de données", zap.Error(err))
		}

		// Migration automatique des modèles
		if err := db.AutoMigrate(&models.Link{}, &models.VisitEvent{}, &models.User{}); err != nil {
			logger.Fatal("échec de la migration de la base de données", zap.Error(err))
		}

		// Initialiser les repositories
		linkRepo := repository.NewLinkRepository(db)
		visitRepo := repository.NewVisitRepository(db)
		userRepo := repository.NewUserRepository(db)
		logger.Info("repositories initialisés")

		// Cache Redis optionnel sur le chemin de redirection
		var linkCache *cache.LinkCache
		if cfg.Redis.Addr != "" {
			pool := cache.NewPool(cfg.Redis.Addr, cfg.Redis.Password, logger)
			linkCache = cache.NewLinkCache(pool, cfg.CacheTTL(), logger)
			logger.Info("cache Redis activé", zap.String("addr", cfg.Redis.Addr))
		}

		// Initialiser les services métiers
		generator := hash.New(hash.DefaultLength)
		linkService := services.NewLinkService(linkRepo, visitRepo, generator, linkCache, logger)

		geoClient := geoip.NewClient(cfg.Analytics.GeoIPEndpoint, cfg.GeoIPTimeout(), logger)
		analyticsService := services.NewAnalyticsService(linkRepo, visitRepo, geoClient, cfg.GeoIPTimeout(), logger)

		tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
		userService := services.NewUserService(userRepo, tokens, cfg.Auth.BcryptCost, logger)
		logger.Info("services métiers initialisés")

		// Channel des visites et workers d'analytics
		visitChan := make(chan models.VisitPayload, cfg.Analytics.BufferSize)
		workerWg := workers.StartVisitWorkers(cfg.Analytics.WorkerCount, visitChan, analyticsService, logger)
		logger.Info("pipeline d'analytics démarré",
			zap.Int("buffer_size", cfg.Analytics.BufferSize),
			zap.Int("worker_count", cfg.Analytics.WorkerCount))

		// Planifier le nettoyage des liens expirés
		sweeper := monitor.NewExpirationSweeper(linkService, cfg.GracePeriod(), logger)
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(cfg.Cleanup.CronSpec, sweeper.Sweep); err != nil {
			logger.Fatal("échec de la planification du nettoyage", zap.Error(err))
		}
		scheduler.Start()

		// Configurer le routeur Gin et les handlers API
		gin.SetMode(gin.ReleaseMode)
		router := gin.New()
		router.Use(gin.Recovery())
		router.Use(api.ZapGinLogger(logger))
		api.SetupRoutes(router, linkService, userService, tokens, visitChan, cfg.Server.BaseURL, logger)
		logger.Info("routes API configurées")

		serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:    serverAddr,
			Handler: router,
		}

		// Démarrer le serveur dans une goroutine pour ne pas bloquer
		go func() {
			logger.Info("démarrage du serveur", zap.String("addr", serverAddr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("échec du démarrage du serveur", zap.Error(err))
			}
		}()

		// Attendre un signal d'arrêt (Ctrl+C ou SIGTERM)
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("signal d'arrêt reçu, arrêt du serveur...")

		// Arrêt propre : on coupe d'abord le HTTP, puis on laisse les workers
		// vider le buffer de visites avant de quitter.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("arrêt forcé du serveur", zap.Error(err))
		}

		scheduler.Stop()
		close(visitChan)
		workerWg.Wait()

		logger.Info("serveur arrêté proprement")
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
