package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	snowtrack "github.com/AcidFlow/snowtrack"
	"github.com/AcidFlow/snowtrack/adapters"
)

type fileConfig struct {
	CollectorURL    string `yaml:"collector_url"`
	Namespace       string `yaml:"namespace"`
	AppID           string `yaml:"app_id"`
	Platform        string `yaml:"platform"`
	Base64Encode    bool   `yaml:"base64_encode"`
	FlushIntervalMS int    `yaml:"flush_interval_ms"`
	MaxBatchSize    int    `yaml:"max_batch_size"`
	MaxRetries      int    `yaml:"max_retries"`
	StoragePath     string `yaml:"storage_path"`
	LogLevel        string `yaml:"log_level"`
}

func loadConfig(path string) (fileConfig, error) {
	cfg := fileConfig{
		Base64Encode: true,
		StoragePath:  "snowtrack_events.json",
		LogLevel:     string(adapters.LogLevelInfo),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.CollectorURL == "" {
		return cfg, fmt.Errorf("collector_url is required in %s", path)
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "snowtrack.yml", "path to YAML config")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "snowtrack: %v\n", err)
		os.Exit(1)
	}

	logger := adapters.NewPrintLoggerAdapter(adapters.LogLevel(cfg.LogLevel))

	emitter, err := snowtrack.NewBatchEmitter(snowtrack.EmitterConfig{
		CollectorURL:   cfg.CollectorURL,
		FlushInterval:  time.Duration(cfg.FlushIntervalMS) * time.Millisecond,
		MaxBatchSize:   cfg.MaxBatchSize,
		MaxRetries:     cfg.MaxRetries,
		StorageAdapter: adapters.NewFileStorageAdapter(cfg.StoragePath),
		Logger:         logger,
		Metrics:        snowtrack.NewEmitterMetrics(cfg.Namespace),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "snowtrack: %v\n", err)
		os.Exit(1)
	}
	if err := emitter.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "snowtrack: load persisted events: %v\n", err)
		os.Exit(1)
	}

	tracker, err := snowtrack.NewTracker(snowtrack.TrackerConfig{
		Emitter:      emitter,
		Namespace:    cfg.Namespace,
		AppID:        cfg.AppID,
		Platform:     cfg.Platform,
		Base64Encode: cfg.Base64Encode,
		Logger:       logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "snowtrack: %v\n", err)
		os.Exit(1)
	}

	tracker.SetUserID("demo-user")
	tracker.SetTimezone("Europe/Paris")
	tracker.SetLanguage("en")

	if err := tracker.TrackPageView(snowtrack.PageView{
		PageURL:   "https://example.com/home",
		PageTitle: "Home",
	}); err != nil {
		logger.Error("page view: %v", err)
	}

	if err := tracker.TrackStructuredEvent(snowtrack.StructuredEvent{
		Category: "shop",
		Action:   "add-to-basket",
		Property: "units",
		Value:    2,
	}); err != nil {
		logger.Error("structured event: %v", err)
	}

	if err := tracker.TrackScreenView(snowtrack.ScreenView{
		Name: "checkout",
		ID:   "screen-7",
	}); err != nil {
		logger.Error("screen view: %v", err)
	}

	if err := tracker.TrackTransaction(snowtrack.Transaction{
		OrderID:    "order-1234",
		TotalValue: snowtrack.Float64(42.50),
		Currency:   "EUR",
		Items: []snowtrack.TransactionItem{
			{SKU: "sku-1", Price: snowtrack.Float64(21.25), Quantity: snowtrack.Int(2), Name: "widget"},
		},
	}); err != nil {
		logger.Error("transaction: %v", err)
	}

	emitter.Flush()
	if err := emitter.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "snowtrack: stop: %v\n", err)
		os.Exit(1)
	}
}
