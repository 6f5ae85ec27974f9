package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/trois-dimensions/site-backend/internal/app/bootstrap"
	appconfig "github.com/trois-dimensions/site-backend/internal/config"
	"github.com/trois-dimensions/site-backend/pkg/logging"
)

func newTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	cfg := &appconfig.Config{
		Env:             "development",
		EmailProvider:   "stub",
		NotifyRecipient: "contact@trois-dimensions.ch",
		StoreTimeout:    time.Second,
		EmailTimeout:    time.Second,
		MaxBodyBytes:    64 << 10,
	}
	app, err := bootstrap.NewApp(context.Background(), cfg, nil, logging.New("error"))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(app.Close)
	return app
}

func event(method, path, body string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		RawPath: path,
		Body:    body,
		Headers: map[string]string{"content-type": "application/json"},
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:   method,
				Path:     path,
				SourceIP: "203.0.113.7",
			},
		},
	}
}

func TestHandleHealth(t *testing.T) {
	app := newTestApp(t)

	resp, err := handle(context.Background(), app.Handler, event(http.MethodGet, "/health", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if !strings.Contains(resp.Body, `"ok"`) {
		t.Fatalf("expected ok body, got %q", resp.Body)
	}
	if resp.Headers["content-type"] != "application/json" {
		t.Fatalf("expected lower-cased content-type header, got %v", resp.Headers)
	}
}

func TestHandleIntakeSubmission(t *testing.T) {
	app := newTestApp(t)

	body := `{"type":"valorisation","name":"Paul","email":"paul@example.ch","address":"Rue du Lac 4"}`
	resp, err := handle(context.Background(), app.Handler, event(http.MethodPost, "/functions/v1/send-contact-email", body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.StatusCode, resp.Body)
	}
	var out struct {
		Success bool   `json:"success"`
		LeadID  string `json:"leadId"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Success || out.LeadID == "" {
		t.Fatalf("unexpected response %+v", out)
	}
	if resp.Headers["access-control-allow-origin"] != "*" {
		t.Fatalf("expected CORS header, got %v", resp.Headers)
	}
}

func TestHandleIntakeBase64Body(t *testing.T) {
	app := newTestApp(t)

	evt := event(http.MethodPost, "/api/leads", base64.StdEncoding.EncodeToString([]byte(`{"type":"contact","name":"A","email":"a@b.ch"}`)))
	evt.IsBase64Encoded = true
	resp, err := handle(context.Background(), app.Handler, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.StatusCode, resp.Body)
	}
}

func TestHandleValidationError(t *testing.T) {
	app := newTestApp(t)

	resp, err := handle(context.Background(), app.Handler, event(http.MethodPost, "/api/leads", `{"type":"contact","name":"A","email":"nope"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
}

func TestHandlePreflight(t *testing.T) {
	app := newTestApp(t)

	resp, err := handle(context.Background(), app.Handler, event(http.MethodOptions, "/functions/v1/send-contact-email", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Headers["access-control-allow-methods"], "POST") {
		t.Fatalf("expected allow-methods header, got %v", resp.Headers)
	}
}

func TestHandleRejectsNonPost(t *testing.T) {
	app := newTestApp(t)

	resp, err := handle(context.Background(), app.Handler, event(http.MethodGet, "/api/leads", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, resp.StatusCode)
	}
}

func TestHandleUnknownPath(t *testing.T) {
	app := newTestApp(t)

	resp, err := handle(context.Background(), app.Handler, event(http.MethodPost, "/nope", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestHandleInvalidBase64Body(t *testing.T) {
	app := newTestApp(t)

	evt := event(http.MethodPost, "/api/leads", "%%%not-base64")
	evt.IsBase64Encoded = true
	resp, err := handle(context.Background(), app.Handler, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestDecodeBodyBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("hello"))
	got, err := decodeBody(events.APIGatewayV2HTTPRequest{Body: encoded, IsBase64Encoded: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("expected hello, got %q", string(got))
	}
}
