package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/config"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/models"
)

func testConfig(t *testing.T) (*config.Config, func()) {
	tempDir, err := os.MkdirTemp("", "container_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	db := config.DefaultDatabaseConfig()
	db.Path = filepath.Join(tempDir, "data", "test.db")

	cfg := &config.Config{
		Environment: "test",
		Port:        "8080",
		Log:         config.LogConfig{Level: "warn", Format: "text"},
		Database:    *db,
	}
	return cfg, func() { os.RemoveAll(tempDir) }
}

func TestNewContainer(t *testing.T) {
	cfg, cleanup := testConfig(t)
	defer cleanup()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	ctx := context.Background()
	container, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}

	if container.RequestService == nil {
		t.Error("RequestService is nil")
	}
	if container.FavoriteService == nil {
		t.Error("FavoriteService is nil")
	}
	if err := container.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	lat, lon := 48.85, 2.35
	out, err := container.RequestService.CreateRequest(ctx, "user-1", &models.CreateRequestInput{
		Type:            models.RequestTypeOnlineService,
		Title:           "Translate a letter",
		MeetupLatitude:  &lat,
		MeetupLongitude: &lon,
	})
	if err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	if _, err := container.RequestService.GetRequest(ctx, out.RequestID()); err != nil {
		t.Errorf("GetRequest() error = %v", err)
	}

	if err := container.Close(); err != nil {
		t.Errorf("Failed to close container: %v", err)
	}
	if err := container.Close(); err != nil {
		t.Errorf("Second Close() error = %v", err)
	}
	if err := container.HealthCheck(ctx); err == nil {
		t.Error("Expected health check to fail after Close")
	}
}

func TestNewContainer_NilConfig(t *testing.T) {
	if _, err := NewContainer(context.Background(), nil, nil); err == nil {
		t.Error("Expected error for nil config")
	}
}
