package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	healthuc "github.com/surfcat/gasdb/internal/usecase/health"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		headers map[string]string
		want    int
	}{
		{"no keys", nil, nil, http.StatusOK},
		{"only empty keys", []string{"", ""}, nil, http.StatusOK},
		{"missing key", []string{"secret"}, nil, http.StatusUnauthorized},
		{"basic scheme", []string{"secret"}, map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}, http.StatusUnauthorized},
		{"wrong bearer", []string{"secret"}, map[string]string{"Authorization": "Bearer wrong-key"}, http.StatusUnauthorized},
		{"prefix of key", []string{"secret"}, map[string]string{"Authorization": "Bearer secr"}, http.StatusUnauthorized},
		{"valid bearer", []string{"secret"}, map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
		{"second key", []string{"key1", "key2"}, map[string]string{"Authorization": "Bearer key2"}, http.StatusOK},
		{"api key header", []string{"secret"}, map[string]string{APIKeyHeader: "secret"}, http.StatusOK},
		{"wrong api key header", []string{"secret"}, map[string]string{APIKeyHeader: "nope"}, http.StatusUnauthorized},
		{"header wins over bearer", []string{"secret"},
			map[string]string{APIKeyHeader: "secret", "Authorization": "Bearer nope"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := APIKeyAuth(tt.keys)(okHandler())

			req := httptest.NewRequest(http.MethodPost, "/v1/purge", http.NoBody)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("got %d, want %d", rr.Code, tt.want)
			}
			if tt.want != http.StatusUnauthorized {
				return
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Code != CodeUnauthorized {
				t.Errorf("error code: got %s, want %s", errResp.Code, CodeUnauthorized)
			}
		})
	}
}

func TestRouter_AuthScope(t *testing.T) {
	s := NewServer(&mockCatalog{}, &mockCoverage{}, nil,
		&mockHealth{report: healthuc.Report{Status: healthuc.Healthy}},
		Defaults{Calculator: "vasp", Model: "model0"})
	h := NewRouter(s, []string{"secret"}, zap.NewNop())

	if rr := do(t, h, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Errorf("healthz: got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/metrics", ""); rr.Code != http.StatusOK {
		t.Errorf("metrics: got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/v1/adsorbates/CO/unsimulated", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("unsimulated without key: got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/adsorbates/CO/unsimulated", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("unsimulated with key: got %d", rr.Code)
	}
}
