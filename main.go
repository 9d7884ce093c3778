package main

import (
	"net/http"

	"github.com/Ruscigno/MarketPulse/logging"
	"github.com/Ruscigno/MarketPulse/pkg/broker"
	"github.com/Ruscigno/MarketPulse/pkg/config"
	"github.com/Ruscigno/MarketPulse/pkg/database"
	"github.com/Ruscigno/MarketPulse/pkg/endpoint"
	"github.com/Ruscigno/MarketPulse/pkg/metrics"
	"github.com/Ruscigno/MarketPulse/pkg/parser"
	"github.com/Ruscigno/MarketPulse/pkg/provider"
	"github.com/Ruscigno/MarketPulse/pkg/resolver"
	"github.com/Ruscigno/MarketPulse/pkg/service"
	"github.com/Ruscigno/MarketPulse/pkg/storage"
	httptransport "github.com/Ruscigno/MarketPulse/pkg/transport/http"
	"github.com/Ruscigno/MarketPulse/pkg/usage"
	"github.com/Ruscigno/MarketPulse/pkg/vendors"
	"go.uber.org/zap"
)

const version = "0.1.0"

func main() {
	cfg := config.LoadConfig()

	logger := logging.SetupLogger(cfg.LogFile)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	db, err := database.NewDB(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	vendorConfigs, err := vendors.LoadDir(cfg.VendorConfigDir, logger)
	if err != nil {
		logger.Fatal("Failed to load vendor configurations", zap.Error(err))
	}

	collector := metrics.NewInMemoryCollector(logger)
	tracker := usage.NewTracker(usage.NewPostgresStore(db.DB), logger)
	responseParser := parser.New(logger)

	providers := make([]provider.MarketDataProvider, 0, len(vendorConfigs))
	for _, vc := range vendorConfigs {
		providers = append(providers, provider.NewProvider(vc, tracker, responseParser, collector, logger))
	}

	store := storage.NewPostgresStorage(db.DB, logger)
	mdBroker := broker.New(resolver.New(providers...), store, collector, logger)
	defer mdBroker.Flush()

	health := service.NewHealthChecker(db, logger, version)
	svc := service.NewService(mdBroker, health, logger)
	endpoints := endpoint.MakeEndpoints(svc)

	handler := httptransport.NewHTTPHandler(endpoints, httptransport.HTTPConfig{
		APIKey:            cfg.APIKey,
		MaxBodySize:       cfg.MaxBodySize,
		RequestsPerSecond: cfg.RequestsPerSecond,
		BurstSize:         cfg.BurstSize,
		Logger:            logger,
	})

	logger.Info("Starting market data gateway",
		zap.String("port", cfg.HTTPPort),
		zap.Int("vendors", len(providers)))
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
