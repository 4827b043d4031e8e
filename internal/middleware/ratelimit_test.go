package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiterConfig(generalBurst, uploadBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(0.001), // テスト中に補充されない程度に低く
		GeneralBurst:    generalBurst,
		UploadRate:      rate.Limit(0.001),
		UploadBurst:     uploadBurst,
		CleanupInterval: time.Hour,
	}
}

func authedRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	return req.WithContext(ContextWithUserID(req.Context(), userID))
}

// バースト分を超えたリクエストが429になることを検証
func TestRateLimiter_GeneralBurstExceeded(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(2, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest("user-1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("user-1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

// ユーザーごとに独立したリミッターが使われることを検証
func TestRateLimiter_PerUser(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("user-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("user-1 first request: status = %d", rec.Code)
	}

	// user-1は枯渇、user-2は影響を受けない
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("user-1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("user-1 second request: status = %d, want 429", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("user-2"))
	if rec.Code != http.StatusOK {
		t.Errorf("user-2 first request: status = %d, want 200", rec.Code)
	}

	if count := rl.GeneralLimiterCount(); count != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", count)
	}
}

// アップロードのレート制限がAPI全般と独立に動作することを検証
func TestRateLimiter_UploadIndependent(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(10, 1))
	defer rl.Stop()

	general := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	upload := rl.UploadMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// アップロードの枠を使い切る
	rec := httptest.NewRecorder()
	upload.ServeHTTP(rec, authedRequest("user-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("first upload: status = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	upload.ServeHTTP(rec, authedRequest("user-1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second upload: status = %d, want 429", rec.Code)
	}

	// API全般は引き続き許可される
	rec = httptest.NewRecorder()
	general.ServeHTTP(rec, authedRequest("user-1"))
	if rec.Code != http.StatusOK {
		t.Errorf("general request: status = %d, want 200", rec.Code)
	}
}

// 未認証コンテキストで401になることを検証
func TestRateLimiter_Unauthenticated(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// cleanupが期限切れエントリを削除することを検証
func TestRateLimiter_Cleanup(t *testing.T) {
	config := testRateLimiterConfig(10, 10)
	config.CleanupInterval = 10 * time.Millisecond
	rl := NewRateLimiter(config)
	defer rl.Stop()

	rl.getOrCreateGeneralLimiter("user-1")
	if count := rl.GeneralLimiterCount(); count != 1 {
		t.Fatalf("GeneralLimiterCount = %d, want 1", count)
	}

	// TTL（2×interval）を超えるまで待つ
	deadline := time.Now().Add(time.Second)
	for rl.GeneralLimiterCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if count := rl.GeneralLimiterCount(); count != 0 {
		t.Errorf("GeneralLimiterCount = %d after cleanup, want 0", count)
	}
}
