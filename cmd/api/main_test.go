package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appconfig "github.com/trois-dimensions/site-backend/internal/config"
	"github.com/trois-dimensions/site-backend/pkg/logging"
)

func TestLoadOptionalAWSConfigSkipsWhenUnused(t *testing.T) {
	cfg := &appconfig.Config{EmailProvider: "sendgrid", AWSRegion: "eu-central-1"}
	if awsCfg := loadOptionalAWSConfig(context.Background(), cfg, logging.New("error")); awsCfg != nil {
		t.Fatalf("expected nil AWS config when no component needs it")
	}
}

func TestLoadOptionalAWSConfigForDynamoTable(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	cfg := &appconfig.Config{
		LeadsTable:         "leads",
		AWSRegion:          "eu-central-1",
		AWSAccessKeyID:     "test",
		AWSSecretAccessKey: "test",
	}
	awsCfg := loadOptionalAWSConfig(context.Background(), cfg, logging.New("error"))
	if awsCfg == nil {
		t.Fatalf("expected AWS config when a DynamoDB table is configured")
	}
	if awsCfg.Region != "eu-central-1" {
		t.Fatalf("expected region eu-central-1, got %q", awsCfg.Region)
	}
}

func TestNewServerWriteTimeoutCoversPipeline(t *testing.T) {
	cfg := &appconfig.Config{Port: "9090", StoreTimeout: 10 * time.Second, EmailTimeout: 15 * time.Second}
	srv := newServer(cfg, http.NotFoundHandler())
	if srv.Addr != ":9090" {
		t.Fatalf("expected addr :9090, got %s", srv.Addr)
	}
	if srv.WriteTimeout <= cfg.StoreTimeout+cfg.EmailTimeout {
		t.Fatalf("write timeout %s should exceed pipeline budget", srv.WriteTimeout)
	}
}

func TestServerServesHealth(t *testing.T) {
	srv := newServer(&appconfig.Config{Port: "0"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if !strings.Contains(rr.Body.String(), "ok") {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}
