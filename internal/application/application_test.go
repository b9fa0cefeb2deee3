package application

import (
	"context"
	"testing"
	"time"

	"github.com/seduc-am/planoacao/internal/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		Upload: config.UploadConfig{
			MaxFileSize:   1024,
			MaxConcurrent: 1,
			MaxWaitTime:   time.Second,
			BatchSize:     10,
			Timeout:       time.Minute,
		},
		Security: config.SecurityConfig{JWTSecret: "0123456789abcdef", TokenTTL: time.Hour, BcryptCost: 4},
		App:      config.AppConfig{Timezone: "America/Manaus"},
	}
}

func TestOpenMemory(t *testing.T) {
	app, err := Open(context.Background(), memoryConfig())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer app.Close()

	if err := app.Service.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if got := app.Service.MaxFileSize(); got != 1024 {
		t.Errorf("MaxFileSize = %d, want 1024", got)
	}
	if got := app.Service.LimiterStatus().MaxConcurrent; got != 1 {
		t.Errorf("MaxConcurrent = %d, want 1", got)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.Driver = "sqlite"
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
