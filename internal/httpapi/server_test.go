package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nikolayk812/ecart-demo/internal/config"
	"github.com/nikolayk812/ecart-demo/internal/dbconn"
	"github.com/nikolayk812/ecart-demo/internal/domain"
	"github.com/nikolayk812/ecart-demo/internal/httpapi"
	"github.com/nikolayk812/ecart-demo/internal/logging"
	"github.com/nikolayk812/ecart-demo/internal/port/porttest"
	"github.com/nikolayk812/ecart-demo/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDatabase struct {
	state   atomic.Int32
	pingErr atomic.Pointer[error]
}

func (d *fakeDatabase) State() domain.ConnState {
	return domain.ConnState(d.state.Load())
}

func (d *fakeDatabase) Ping(context.Context) error {
	if d.State() != domain.Connected {
		return fmt.Errorf("database is %s: %w", d.State(), domain.ErrDataUnavailable)
	}
	if errp := d.pingErr.Load(); errp != nil {
		return *errp
	}
	return nil
}

func (d *fakeDatabase) Identity() dbconn.Identity {
	return dbconn.Identity{Host: "db.example", Port: 5432, Name: "shopdb", User: "shop"}
}

func (d *fakeDatabase) ServerVersion(context.Context) (string, error) {
	return "PostgreSQL 17.6", nil
}

type testServer struct {
	e     *echo.Echo
	db    *fakeDatabase
	store *porttest.MemStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := porttest.NewMemStore(
		domain.Product{ID: 1, Name: "IBM Power10 Server S1022", Category: "Servers",
			Price: domain.NewMoney(decimal.RequireFromString("49999.99")), Stock: 10,
			CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		domain.Product{ID: 2, Name: "25GbE Dual-Port NIC", Category: "Networking",
			Price: domain.NewMoney(decimal.RequireFromString("399.99")), Stock: 75,
			CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	)
	log := logging.Discard().WithField("test", "httpapi")

	db := &fakeDatabase{}
	ts := &testServer{db: db, store: store}
	ts.setConnected(true)

	ts.e = httpapi.New(httpapi.Deps{
		Catalog:  service.NewCatalog(store),
		Cart:     service.NewCart(store, log),
		Checkout: service.NewCheckout(store, log),
		Database: db,
		Instance: config.Default().Instance,
		Log:      log,
	})

	return ts
}

// setConnected moves the database between Connected and Disconnected.
func (ts *testServer) setConnected(connected bool) {
	state := domain.Disconnected
	if connected {
		state = domain.Connected
	}
	ts.db.state.Store(int32(state))
	ts.store.SetAvailable(connected)
}

func (ts *testServer) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

type moneyResponse struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type cartResponse struct {
	Items []struct {
		ProductID int64         `json:"productId"`
		Quantity  int           `json:"quantity"`
		UnitPrice moneyResponse `json:"unitPrice"`
		Subtotal  moneyResponse `json:"subtotal"`
	} `json:"items"`
	Subtotal moneyResponse `json:"subtotal"`
	Count    int           `json:"count"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Items  []struct {
		ProductID int64         `json:"productId"`
		Quantity  int           `json:"quantity"`
		UnitPrice moneyResponse `json:"unitPrice"`
	} `json:"items"`
	Total moneyResponse `json:"total"`
}

func TestHealth_IgnoresDatabase(t *testing.T) {
	ts := newTestServer(t)
	ts.setConnected(false)

	rec := ts.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","state":"connected"}`, rec.Body.String())

	ts.setConnected(false)

	rec = ts.do(t, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not ready","state":"disconnected"}`, rec.Body.String())

	ts.setConnected(true)
	pingErr := errors.New("connection reset")
	ts.db.pingErr.Store(&pingErr)

	rec = ts.do(t, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "failed", body["state"])
	assert.Equal(t, "connection reset", body["error"])

	ts.db.pingErr.Store(nil)

	rec = ts.do(t, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDisconnected_DataEndpointsUnavailable(t *testing.T) {
	ts := newTestServer(t)
	ts.setConnected(false)

	requests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/products", ""},
		{http.MethodGet, "/products/1", ""},
		{http.MethodPost, "/cart/add", `{"productId":1,"quantity":1}`},
		{http.MethodGet, "/cart", ""},
		{http.MethodDelete, "/cart/items/1", ""},
		{http.MethodPost, "/checkout", ""},
		{http.MethodGet, "/orders", ""},
		{http.MethodGet, "/orders/0190b6c4-3f6e-7a4e-9c1a-2b3c4d5e6f70", ""},
	}

	for _, r := range requests {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			rec := ts.do(t, r.method, r.path, r.body)
			require.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Equal(t, "5", rec.Header().Get("Retry-After"))
			assert.Equal(t, "DATA_UNAVAILABLE", decode[errorResponse](t, rec).Code)
		})
	}

	ts.setConnected(true)

	rec := ts.do(t, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProducts(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[struct {
		Products []struct {
			ID    int64         `json:"id"`
			Name  string        `json:"name"`
			Price moneyResponse `json:"price"`
		} `json:"products"`
		Count int `json:"count"`
	}](t, rec)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, int64(1), list.Products[0].ID)
	assert.Equal(t, moneyResponse{Amount: "49999.99", Currency: "USD"}, list.Products[0].Price)

	again := ts.do(t, http.MethodGet, "/products", "")
	assert.Equal(t, rec.Body.String(), again.Body.String())

	rec = ts.do(t, http.MethodGet, "/products/2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/products/99", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode[errorResponse](t, rec).Code)

	rec = ts.do(t, http.MethodGet, "/products/abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartAdd_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "zero quantity",
			body:       `{"productId":1,"quantity":0}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_ARGUMENT",
		},
		{
			name:       "quantity beyond int32",
			body:       `{"productId":1,"quantity":4294967297}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_ARGUMENT",
		},
		{
			name:       "missing product id",
			body:       `{"quantity":1}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_ARGUMENT",
		},
		{
			name:       "unknown product",
			body:       `{"productId":42,"quantity":1}`,
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "malformed body",
			body:       `{"productId":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)

			rec := ts.do(t, http.MethodPost, "/cart/add", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, decode[errorResponse](t, rec).Code)
		})
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/checkout", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_STATE", decode[errorResponse](t, rec).Code)

	rec = ts.do(t, http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"orders":[],"count":0}`, rec.Body.String())
}

func TestScenario_AddAddCheckout(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/cart/add", `{"productId":1,"quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = ts.do(t, http.MethodPost, "/cart/add", `{"productId":1,"quantity":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[cartResponse](t, rec)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(1), cart.Items[0].ProductID)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, "249999.95", cart.Subtotal.Amount)
	assert.Equal(t, 5, cart.Count)

	rec = ts.do(t, http.MethodPost, "/checkout", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	order := decode[orderResponse](t, rec)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(1), order.Items[0].ProductID)
	assert.Equal(t, 5, order.Items[0].Quantity)
	assert.Equal(t, "49999.99", order.Items[0].UnitPrice.Amount)
	assert.Equal(t, moneyResponse{Amount: "249999.95", Currency: "USD"}, order.Total)
	assert.Equal(t, "completed", order.Status)

	rec = ts.do(t, http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[cartResponse](t, rec).Items)

	rec = ts.do(t, http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	orders := decode[struct {
		Orders []orderResponse `json:"orders"`
		Count  int             `json:"count"`
	}](t, rec)
	require.Equal(t, 1, orders.Count)
	assert.Equal(t, order.ID, orders.Orders[0].ID)

	rec = ts.do(t, http.MethodGet, "/orders/"+order.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order.ID, decode[orderResponse](t, rec).ID)

	rec = ts.do(t, http.MethodGet, "/orders/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_IdempotencyKeyHeader(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/cart/add", `{"productId":2,"quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	first := ts.do(t, http.MethodPost, "/checkout", "", "Idempotency-Key", "abc")
	require.Equal(t, http.StatusOK, first.Code)

	second := ts.do(t, http.MethodPost, "/checkout", "", "Idempotency-Key", "abc")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, decode[orderResponse](t, first).ID, decode[orderResponse](t, second).ID)
}

func TestCheckout_PartialFailure(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/cart/add", `{"productId":2,"quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	ts.store.DropAfterNextCommit(errors.Join(domain.ErrCommitUnknown, domain.ErrDataUnavailable))

	rec = ts.do(t, http.MethodPost, "/checkout", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())

	body := decode[errorResponse](t, rec)
	assert.Equal(t, "PARTIAL_FAILURE", body.Code)

	details, isMap := body.Details.(map[string]any)
	require.True(t, isMap, body.Details)
	assert.Equal(t, "unknown", details["cartClear"])
	assert.NotEmpty(t, details["orderId"])
	assert.NotEmpty(t, details["guidance"])
}

func TestRemoveCartItem(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/cart/add", `{"productId":2,"quantity":3}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/cart/items/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[cartResponse](t, rec).Items)

	rec = ts.do(t, http.MethodDelete, "/cart/items/2", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArch(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/arch", "")
	require.Equal(t, http.StatusOK, rec.Code)

	arch := decode[struct {
		AppServer struct {
			Role         string `json:"role"`
			Architecture string `json:"architecture"`
			Node         string `json:"node"`
		} `json:"appServer"`
		Database struct {
			Host          string `json:"host"`
			State         string `json:"state"`
			Connected     bool   `json:"connected"`
			ServerVersion string `json:"serverVersion"`
		} `json:"database"`
	}](t, rec)

	assert.Equal(t, "E-Cart Application Server", arch.AppServer.Role)
	assert.NotEmpty(t, arch.AppServer.Architecture)
	assert.Equal(t, "unknown", arch.AppServer.Node)
	assert.Equal(t, "db.example", arch.Database.Host)
	assert.True(t, arch.Database.Connected)
	assert.Equal(t, "PostgreSQL 17.6", arch.Database.ServerVersion)

	ts.setConnected(false)

	rec = ts.do(t, http.MethodGet, "/arch", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"disconnected"`)
	assert.NotContains(t, rec.Body.String(), "serverVersion")
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode[errorResponse](t, rec).Code)
}
