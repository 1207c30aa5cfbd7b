package processor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"agegate/internal/config"
)

func TestInitRefresherStaticLimit(t *testing.T) {
	cfg := config.Default()
	p := New(cfg)

	p.initRefresher()
	p.refresher.Start(context.Background())

	if got := p.refresher.Current(); got != cfg.MaxAgeSecs {
		t.Errorf("Current() = %v, want %v", got, cfg.MaxAgeSecs)
	}
}

func TestInitRefresherRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"persistent":{"cluster":{"metadata":{"logstash":{"filter":{"age":{"limit_secs":4321}}}}}}}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.URL = srv.URL
	p := New(cfg)

	p.initRefresher()
	p.refresher.Start(context.Background())

	if got := p.refresher.Current(); got != 4321 {
		t.Errorf("Current() = %v, want 4321 from remote", got)
	}
}

func TestLimitHandler(t *testing.T) {
	cfg := config.Default()
	p := New(cfg)
	p.initRefresher()
	p.refresher.Start(context.Background())

	req := httptest.NewRequest(http.MethodGet, "/limit", nil)
	rr := httptest.NewRecorder()
	p.limitHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if resp["limit_secs"] != cfg.MaxAgeSecs {
		t.Errorf("limit_secs = %v, want %v", resp["limit_secs"], cfg.MaxAgeSecs)
	}
	if resp["last_outcome"] != "success" {
		t.Errorf("last_outcome = %v", resp["last_outcome"])
	}
}
