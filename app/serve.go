package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/matuszelenak/trojsten-graph/config"
	"github.com/matuszelenak/trojsten-graph/middleware"
	"github.com/matuszelenak/trojsten-graph/services/graph/delivery"
	"github.com/matuszelenak/trojsten-graph/services/graph/repository"
	"github.com/matuszelenak/trojsten-graph/services/graph/usecase"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		migrate, _ := cmd.Flags().GetBool("migrate")
		return startHTTP(migrate)
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", true, "run migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func startHTTP(migrate bool) error {
	log := config.GetLogrusInstance()
	if err := config.CheckJWTSecret(); err != nil {
		log.WithError(err).Error("Refusing to start without a JWT secret")
		return err
	}
	log.Info("Starting HTTP")

	app := fiber.New(config.GetFiberConfig())
	metrics := middleware.NewMetrics("graph")

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetCORSOrigins(),
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.RequestID(log))
	app.Use(metrics.Middleware())

	db, err := config.BootDB(migrate)
	if err != nil {
		log.WithError(err).Error("Failed to boot DB")
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	timeout := config.GetUseCaseTimeout()
	repo := repository.NewGraphRepository(db)

	graphUC := usecase.NewGraphUseCase(repo, timeout)
	contentUC := usecase.NewContentUseCase(repo, timeout)
	accountUC := usecase.NewAccountUseCase(repo, config.NewMailer(), timeout)
	adminUC := usecase.NewAdminUseCase(repo, timeout)

	delivery.NewHealthHandler(app, sqlDB.PingContext)
	app.Get("/metrics", metrics.Handler())
	delivery.NewAccountHandler(app, accountUC)
	delivery.NewGraphHandler(app, graphUC)
	delivery.NewContentHandler(app, contentUC)
	delivery.NewAdminHandler(app, adminUC)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infof("Starting HTTP server on port %s", config.GetFiberHttpPort())
		if err := app.Listen(config.GetFiberListenAddress()); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	<-signalChan

	log.Info("Shutting down the server...")

	if err := app.Shutdown(); err != nil {
		log.Errorf("Error during server shutdown: %v", err)
	}

	wg.Wait()
	log.Info("Server shut down gracefully")
	return nil
}
