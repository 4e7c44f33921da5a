package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTimeoutMiddleware(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
			t.Error("handler context was never cancelled")
		}
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/vehicles", nil)
	TimeoutMiddleware(50 * time.Millisecond)(slow).ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestTimeout {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusRequestTimeout)
	}
}

func TestTimeoutMiddlewarePassesFastRequests(t *testing.T) {
	fast := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/vehicles", nil)
	TimeoutMiddleware(time.Second)(fast).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
}

func TestWithQueryTimeout(t *testing.T) {
	ctx, cancel := WithQueryTimeout(nil)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline on the query context")
	}
	if remaining := time.Until(deadline); remaining > QueryTimeout {
		t.Errorf("deadline too far out: %v", remaining)
	}
}
