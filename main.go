package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"prodcat/db"
	qhttp "prodcat/http"
	"prodcat/logging"
	"prodcat/ml"
	"prodcat/monitoring"
)

type Config struct {
	Http struct {
		Port           int      `yaml:"port"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Model struct {
		Path       string `yaml:"path"`
		LabelsPath string `yaml:"labels_path"`
	} `yaml:"model"`
	Cache struct {
		Size int `yaml:"size"`
	} `yaml:"cache"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

func main() {
	// 1. Load config
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize logging
	if err := logging.Init(config.Log.Level, config.Log.File); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Sync()

	// 3. Initialize database
	if err := db.InitDB(config.Database.Path); err != nil {
		zap.L().Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	zap.L().Info("database initialized", zap.String("path", config.Database.Path))

	// 4. Load model artifacts. A missing or malformed artifact is a
	// deployment problem; refuse to start rather than serve defaults.
	model, labels, err := ml.LoadModel(config.Model.Path, config.Model.LabelsPath)
	if err != nil {
		zap.L().Fatal("failed to load model", zap.Error(err))
	}
	qhttp.SetModel(model)
	qhttp.SetLabels(labels)
	zap.L().Info("model loaded",
		zap.String("model", config.Model.Path),
		zap.String("labels", config.Model.LabelsPath),
		zap.Int("classes", len(labels)),
	)

	if err := qhttp.InitCache(config.Cache.Size); err != nil {
		zap.L().Fatal("failed to initialize prediction cache", zap.Error(err))
	}

	// 5. Start prediction monitor
	monitorCtx, cancelMonitor := context.WithCancel(context.Background())
	defer cancelMonitor()
	monitor := monitoring.NewMonitor()
	go monitor.Run(monitorCtx)
	qhttp.SetMonitor(monitor)

	// 6. Start HTTP server
	serverConfig := qhttp.DefaultServerConfig()
	if config.Http.Port != 0 {
		serverConfig.Port = config.Http.Port
	}
	if config.Http.TimeoutSeconds != 0 {
		serverConfig.Timeout = time.Duration(config.Http.TimeoutSeconds) * time.Second
	}
	if len(config.Http.AllowedOrigins) != 0 {
		serverConfig.AllowedOrigins = config.Http.AllowedOrigins
	}

	server := qhttp.NewServer(serverConfig)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 7. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("shutting down")

	if err := server.Stop(); err != nil {
		zap.L().Warn("server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("exiting")
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
