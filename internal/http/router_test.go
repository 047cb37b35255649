package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/auth"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/config"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/store"
	"github.com/boutiabderrahim-hash/shisha23mm/internal/ws"
)

func testConfig() config.Config {
	return config.Config{
		Env:              "test",
		JWTSecret:        "router-test-secret",
		JWTExpirySeconds: 3600,
		TaxRate:          0.19,
	}
}

func mustHashPIN(t *testing.T, pin string) string {
	t.Helper()
	hash, err := auth.HashPIN(pin)
	if err != nil {
		t.Fatalf("HashPIN: %v", err)
	}
	return hash
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	seed := pos.State{
		Waiters: []pos.Waiter{
			{ID: "w1", Name: "Aziz", Role: pos.RoleWaiter, PINHash: mustHashPIN(t, "1234")},
			{ID: "a1", Name: "Samir", Role: pos.RoleAdmin, PINHash: mustHashPIN(t, "9999")},
		},
		Categories: []pos.Category{{ID: "cat-shisha", Name: "Shisha"}},
		MenuItems: []pos.MenuItem{
			{ID: "menu-shisha", Name: "Mint Shisha", Price: 15.00, CategoryID: "cat-shisha", StockItemID: "inv-mint", StockConsumption: 0.05},
			{ID: "menu-bulk", Name: "Double Bowl", Price: 25.00, CategoryID: "cat-shisha", StockItemID: "inv-mint", StockConsumption: 1.0},
			{ID: "menu-cola", Name: "Cola", Price: 3.50, CategoryID: "cat-shisha"},
		},
		Inventory: []pos.InventoryItem{
			{ID: "inv-mint", Name: "Mint Tobacco", Quantity: 0.5, Unit: "kg", LowStockThreshold: 0.2},
		},
		Profile: pos.RestaurantProfile{Name: "Shisha 23mm"},
	}

	cfg := testConfig()
	session, err := pos.NewSession(context.Background(), store.NewMemory(seed), cfg.TaxRate, pos.SystemClock)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	log := zap.NewNop()
	return NewRouter(session, log, cfg, nil, ws.New(session, log, cfg), nil)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, env
}

func login(t *testing.T, router http.Handler, waiterID, pin string) string {
	t.Helper()
	status, env := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"waiterId": waiterID,
		"pin":      pin,
	})
	if status != http.StatusOK {
		t.Fatalf("login %s: status = %d, message = %s", waiterID, status, env.Message)
	}
	var data struct {
		Token  string     `json:"token"`
		Waiter pos.Waiter `json:"waiter"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("login data: %v", err)
	}
	if data.Waiter.PINHash != "" {
		t.Fatalf("login leaked pin hash")
	}
	return data.Token
}

func TestLoginRejectsBadPIN(t *testing.T) {
	router := newTestRouter(t)

	status, env := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"waiterId": "w1",
		"pin":      "0000",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
	if env.Error != "INVALID_CREDENTIALS" {
		t.Fatalf("error = %q", env.Error)
	}

	status, _ = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"waiterId": "missing",
		"pin":      "1234",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("unknown waiter status = %d, want 401", status)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	status, env := doJSON(t, router, http.MethodGet, "/api/menu", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
	if env.Error != "UNAUTHORIZED" {
		t.Fatalf("error = %q", env.Error)
	}
}

func TestAdminRoutesRejectWaiters(t *testing.T) {
	router := newTestRouter(t)
	waiterToken := login(t, router, "w1", "1234")
	adminToken := login(t, router, "a1", "9999")

	status, _ := doJSON(t, router, http.MethodGet, "/api/state/export", waiterToken, nil)
	if status != http.StatusForbidden {
		t.Fatalf("waiter export status = %d, want 403", status)
	}
	status, _ = doJSON(t, router, http.MethodGet, "/api/state/export", adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("admin export status = %d, want 200", status)
	}
}

func TestOrderAndCashPaymentFlow(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "w1", "1234")

	status, env := doJSON(t, router, http.MethodPost, "/api/shifts/open", token, map[string]float64{
		"openingBalance": 100,
	})
	if status != http.StatusOK {
		t.Fatalf("open shift: status = %d, message = %s", status, env.Message)
	}

	status, env = doJSON(t, router, http.MethodPost, "/api/session/order", token, map[string]any{
		"tableNumber": 4,
		"area":        "Lounge",
	})
	if status != http.StatusOK {
		t.Fatalf("start order: status = %d, message = %s", status, env.Message)
	}

	status, env = doJSON(t, router, http.MethodPost, "/api/session/order/items", token, map[string]string{
		"menuItemId": "menu-shisha",
	})
	if status != http.StatusOK {
		t.Fatalf("add item: status = %d, message = %s", status, env.Message)
	}

	status, env = doJSON(t, router, http.MethodPost, "/api/session/payment", token, map[string]any{})
	if status != http.StatusOK {
		t.Fatalf("begin payment: status = %d, message = %s", status, env.Message)
	}

	status, env = doJSON(t, router, http.MethodPost, "/api/session/payment/confirm", token, map[string]any{
		"method":   "cash",
		"received": 20.0,
	})
	if status != http.StatusOK {
		t.Fatalf("confirm: status = %d, message = %s", status, env.Message)
	}
	var settled struct {
		Order      pos.Order `json:"order"`
		Change     float64   `json:"change"`
		OpenDrawer bool      `json:"openDrawer"`
	}
	if err := json.Unmarshal(env.Data, &settled); err != nil {
		t.Fatalf("confirm data: %v", err)
	}
	if settled.Order.Status != pos.StatusPaid {
		t.Fatalf("order status = %q, want paid", settled.Order.Status)
	}
	if settled.Change != 5.00 {
		t.Fatalf("change = %v, want 5", settled.Change)
	}
	if !settled.OpenDrawer {
		t.Fatalf("cash payment should open the drawer")
	}

	status, env = doJSON(t, router, http.MethodGet, "/api/transactions", token, nil)
	if status != http.StatusOK {
		t.Fatalf("transactions: status = %d", status)
	}
	var txs []pos.Transaction
	if err := json.Unmarshal(env.Data, &txs); err != nil {
		t.Fatalf("transactions data: %v", err)
	}
	if len(txs) != 1 || txs[0].Type != pos.TxSale || txs[0].Amount != 15.00 {
		t.Fatalf("transactions = %+v, want one 15.00 sale", txs)
	}
}

func TestAddItemInsufficientStockConflict(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "w1", "1234")

	status, env := doJSON(t, router, http.MethodPost, "/api/session/order", token, map[string]any{
		"tableNumber": 2,
		"area":        "Bar",
	})
	if status != http.StatusOK {
		t.Fatalf("start order: status = %d, message = %s", status, env.Message)
	}

	// menu-bulk consumes 1.0 kg against 0.5 kg on hand.
	status, env = doJSON(t, router, http.MethodPost, "/api/session/order/items", token, map[string]string{
		"menuItemId": "menu-bulk",
	})
	if status != http.StatusConflict {
		t.Fatalf("status = %d, want 409", status)
	}
	if env.Error != "INSUFFICIENT_STOCK" {
		t.Fatalf("error = %q", env.Error)
	}

	// the failed add must not leave a line behind
	status, env = doJSON(t, router, http.MethodGet, "/api/session/order", token, nil)
	if status != http.StatusOK {
		t.Fatalf("current order: status = %d", status)
	}
	var view struct {
		Items []pos.OrderLine `json:"items"`
	}
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("order data: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("items = %d, want 0 after rejected add", len(view.Items))
	}
}
