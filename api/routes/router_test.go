package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	cartsvc "github.com/lifeimang/dfresh/internal/cart"
	"github.com/lifeimang/dfresh/internal/catalog"
	pkgauth "github.com/lifeimang/dfresh/pkg/auth"
	"github.com/lifeimang/dfresh/pkg/config"
	"github.com/lifeimang/dfresh/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCatalogService struct{}

func (stubCatalogService) Lookup(context.Context, uuid.UUID) (*catalog.Availability, error) {
	return &catalog.Availability{}, nil
}

func (stubCatalogService) GetProduct(context.Context, uuid.UUID) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{}, nil
}

type stubCartService struct{}

func (stubCartService) Add(context.Context, uuid.UUID, uuid.UUID, int64) (*cartsvc.AddResult, error) {
	return &cartsvc.AddResult{}, nil
}

func (stubCartService) Update(context.Context, uuid.UUID, uuid.UUID, int64) (*cartsvc.TotalsResult, error) {
	return &cartsvc.TotalsResult{}, nil
}

func (stubCartService) Delete(context.Context, uuid.UUID, uuid.UUID) (*cartsvc.TotalsResult, error) {
	return &cartsvc.TotalsResult{}, nil
}

func (stubCartService) List(context.Context, uuid.UUID) (*cartsvc.CartView, error) {
	return &cartsvc.CartView{Items: []cartsvc.LineItem{}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60},
	}
}

func newTestRouter() http.Handler {
	return NewRouter(
		testConfig(),
		nil,
		stubPinger{},
		stubPinger{},
		stubCatalogService{},
		stubCartService{},
		metrics.NewCartMetrics(nil),
	)
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := newTestRouter()

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 on %s, got %d", path, resp.Code)
		}
	}
}

func TestRouterCartRequiresAuth(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRouterCartWithValidToken(t *testing.T) {
	router := newTestRouter()

	token, err := pkgauth.MintAccessToken(testConfig().JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRouterProductDetailIsPublic(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRouterServesMetrics(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
