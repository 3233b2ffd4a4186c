package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/luminahome/lumina-core/internal/infrastructure/config"
	"github.com/luminahome/lumina-core/internal/protocol"
)

func testProtocol(t *testing.T) *Protocol {
	t.Helper()
	p := New(config.HTTPConfig{Timeout: 5}, nil)
	if err := p.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { p.Disconnect(context.Background()) })
	return p
}

func TestConnectTransitions(t *testing.T) {
	p := New(config.HTTPConfig{Timeout: 5}, nil)

	if got := p.State(); got != protocol.StateDisconnected {
		t.Fatalf("initial State() = %v, want %v", got, protocol.StateDisconnected)
	}
	if err := p.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if got := p.State(); got != protocol.StateConnected {
		t.Errorf("State() = %v, want %v", got, protocol.StateConnected)
	}
	if err := p.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if got := p.State(); got != protocol.StateDisconnected {
		t.Errorf("State() = %v, want %v", got, protocol.StateDisconnected)
	}
}

func TestPublishPostsPayload(t *testing.T) {
	var gotMethod, gotContentType string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	p := testProtocol(t)
	if err := p.Publish(context.Background(), server.URL, map[string]any{"on": true}, 0, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q, want application/json", gotContentType)
	}
	if gotBody["on"] != true {
		t.Errorf("body[on] = %v, want true", gotBody["on"])
	}
}

func TestPublishErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := testProtocol(t)
	err := p.Publish(context.Background(), server.URL, "x", 0, false)
	if !errors.Is(err, protocol.ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

func TestPublishNotConnected(t *testing.T) {
	p := New(config.HTTPConfig{Timeout: 5}, nil)

	err := p.Publish(context.Background(), "http://localhost/state", "x", 0, false)
	if !errors.Is(err, protocol.ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestPublishInvalidURL(t *testing.T) {
	p := testProtocol(t)

	err := p.Publish(context.Background(), "not a url", "x", 0, false)
	if !errors.Is(err, protocol.ErrInvalidTopic) {
		t.Errorf("Publish() error = %v, want ErrInvalidTopic", err)
	}
}

func TestSubscribeIsNoop(t *testing.T) {
	p := New(config.HTTPConfig{Timeout: 5}, nil)

	if err := p.Subscribe(context.Background(), "http://localhost/events", 0); err != nil {
		t.Errorf("Subscribe() error = %v, want nil", err)
	}
	if err := p.Unsubscribe(context.Background(), "http://localhost/events"); err != nil {
		t.Errorf("Unsubscribe() error = %v, want nil", err)
	}
}

func TestSendCommandGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("detail") != "full" {
			t.Errorf("query detail = %q, want full", r.URL.Query().Get("detail"))
		}
		if r.Header.Get("X-Api-Key") != "secret" {
			t.Errorf("header X-Api-Key = %q, want secret", r.Header.Get("X-Api-Key"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"temperature": 21.5}`))
	}))
	defer server.Close()

	p := testProtocol(t)
	result, err := p.SendCommand(context.Background(), "thermostat-hall", "GET", map[string]any{
		"url":     server.URL,
		"headers": map[string]any{"X-Api-Key": "secret"},
		"query":   map[string]any{"detail": "full"},
	})
	if err != nil {
		t.Fatalf("SendCommand() error = %v", err)
	}
	if !result.Success {
		t.Error("result.Success = false, want true")
	}
	if result.Result["status_code"] != http.StatusOK {
		t.Errorf("status_code = %v, want 200", result.Result["status_code"])
	}
	data, ok := result.Result["data"].(map[string]any)
	if !ok {
		t.Fatalf("data type = %T, want map[string]any", result.Result["data"])
	}
	if data["temperature"] != 21.5 {
		t.Errorf("temperature = %v, want 21.5", data["temperature"])
	}
}

func TestSendCommandPostBody(t *testing.T) {
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	p := testProtocol(t)
	result, err := p.SendCommand(context.Background(), "light-living", "POST", map[string]any{
		"url":  server.URL,
		"body": map[string]any{"bri": 120},
	})
	if err != nil {
		t.Fatalf("SendCommand() error = %v", err)
	}
	if !result.Success {
		t.Error("result.Success = false, want true")
	}
	if gotBody["bri"] != float64(120) {
		t.Errorf("body bri = %v, want 120", gotBody["bri"])
	}
}

func TestSendCommandErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := testProtocol(t)
	result, err := p.SendCommand(context.Background(), "light-living", "GET", map[string]any{
		"url": server.URL,
	})
	if err != nil {
		t.Fatalf("SendCommand() error = %v (transport succeeded, status in result)", err)
	}
	if result.Success {
		t.Error("result.Success = true, want false for 404")
	}
	if result.Error == "" {
		t.Error("result.Error is empty, want status description")
	}
}

func TestSendCommandValidation(t *testing.T) {
	p := testProtocol(t)

	result, err := p.SendCommand(context.Background(), "d1", "TRACE", map[string]any{"url": "http://localhost"})
	if err == nil {
		t.Fatal("SendCommand() expected error for unsupported method")
	}
	if result == nil || result.Success {
		t.Error("result must be structured with Success=false")
	}

	result, err = p.SendCommand(context.Background(), "d1", "GET", map[string]any{})
	if err == nil {
		t.Fatal("SendCommand() expected error for missing url")
	}
	if result.Error == "" {
		t.Error("result.Error is empty, want missing url description")
	}
}
