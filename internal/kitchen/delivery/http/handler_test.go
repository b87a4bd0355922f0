package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	kitchenhttp "github.com/tair/central-kitchen/internal/kitchen/delivery/http"
	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/repository"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/command"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/query"
)

type envelope struct {
	Success bool            `json:"success"`
	Code    domain.Code     `json:"code"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type server struct {
	t      *testing.T
	now    time.Time
	router http.Handler
	tokens map[string]string
}

func newServer(t *testing.T, hour int) *server {
	t.Helper()
	ctx := context.Background()
	s := &server{
		t:      t,
		now:    time.Date(2025, 3, 1, hour, 0, 0, 0, time.UTC),
		tokens: make(map[string]string),
	}
	store := repository.NewMemoryStore()
	deps := command.Deps{
		Store:     store,
		Policy:    domain.DefaultPolicy(time.UTC),
		Clock:     func() time.Time { return s.now },
		Publisher: &domain.RecordingPublisher{},
		Picker:    domain.FirstPicker{},
		Tokens:    command.TokenConfig{Secret: "http-secret", TTL: time.Hour},
	}

	err := store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if err := repos.Materials.Create(ctx, &domain.RawMaterial{ID: "flour", Name: "Flour", Unit: "kg"}); err != nil {
			return err
		}
		bun := &domain.Product{ID: "bun", Name: "Bun", Price: decimal.NewFromInt(10), WeightPerUnit: decimal.NewFromInt(1), Active: true}
		if err := repos.Products.Create(ctx, bun); err != nil {
			return err
		}
		return repos.Recipes.Save(ctx, &domain.Recipe{ID: "r-bun", ProductID: "bun", Ingredients: []domain.RecipeIngredient{
			{MaterialID: "flour", MaterialName: "Flour", QuantityPerUnit: decimal.NewFromInt(1), Unit: "kg"},
		}})
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	commands := command.NewHandlers(deps)
	accounts := []command.RegisterUserCommand{
		{Email: "manager@kitchen.test", Password: "secret1", Role: domain.RoleManager},
		{Email: "one@store.test", Password: "secret1", Role: domain.RoleStoreStaff, StoreName: "Riverside"},
		{Email: "two@store.test", Password: "secret1", Role: domain.RoleStoreStaff, StoreName: "Hilltop"},
	}
	for _, account := range accounts {
		if _, err := commands.Register.Handle(ctx, account); err != nil {
			t.Fatalf("register %s: %v", account.Email, err)
		}
	}

	handler := kitchenhttp.NewHandler(commands, query.NewHandlers(store, deps.Clock, deps.Policy), store, nil, nil, deps.Policy)
	s.router = kitchenhttp.NewRouter(handler)
	return s
}

func (s *server) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		s.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func (s *server) login(email string) string {
	s.t.Helper()
	if token, ok := s.tokens[email]; ok {
		return token
	}
	status, env := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": "secret1"})
	if status != http.StatusOK {
		s.t.Fatalf("login %s: %d %s", email, status, env.Error)
	}
	var resp command.LoginResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		s.t.Fatal(err)
	}
	s.tokens[email] = resp.Token
	return resp.Token
}

func (s *server) order() map[string]interface{} {
	return map[string]interface{}{
		"delivery_date": s.now.AddDate(0, 0, 1).Format("2006-01-02"),
		"items":         []command.OrderLine{{ProductID: "bun", Quantity: 3}},
	}
}

func TestHealthAndStatuses(t *testing.T) {
	s := newServer(t, 10)

	status, env := s.do(http.MethodGet, "/health", "", nil)
	if status != http.StatusOK || !env.Success {
		t.Errorf("health = %d %+v", status, env)
	}

	status, env = s.do(http.MethodGet, "/api/statuses", "", nil)
	if status != http.StatusOK {
		t.Fatalf("statuses = %d", status)
	}
	var tables query.StatusTables
	if err := json.Unmarshal(env.Data, &tables); err != nil {
		t.Fatal(err)
	}
	if len(tables.Orders) != 6 || len(tables.IssueTypes) == 0 {
		t.Errorf("unexpected tables %+v", tables)
	}
}

func TestAuthorization(t *testing.T) {
	s := newServer(t, 10)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
		code   domain.Code
	}{
		{"missing token", http.MethodPost, "/api/orders", "", http.StatusUnauthorized, domain.CodeAuthzRequired},
		{"garbage token", http.MethodPost, "/api/orders", "nope", http.StatusUnauthorized, domain.CodeAuthTokenInvalid},
		{"manager cannot order", http.MethodPost, "/api/orders", s.login("manager@kitchen.test"), http.StatusForbidden, domain.CodeAuthzInsufficient},
		{"store cannot resolve", http.MethodPost, "/api/disputes/d-1/resolve", s.login("one@store.test"), http.StatusForbidden, domain.CodeAuthzInsufficient},
		{"store cannot plan", http.MethodPost, "/api/planning/run", s.login("one@store.test"), http.StatusForbidden, domain.CodeAuthzInsufficient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := s.do(tt.method, tt.path, tt.token, s.order())
			if status != tt.status || env.Code != tt.code || env.Success {
				t.Errorf("got %d %s, want %d %s", status, env.Code, tt.status, tt.code)
			}
		})
	}
}

func TestOrderFlow(t *testing.T) {
	s := newServer(t, 10)
	one, two := s.login("one@store.test"), s.login("two@store.test")

	status, env := s.do(http.MethodPost, "/api/orders", one, s.order())
	if status != http.StatusCreated || env.Code != domain.OrderPending.Code() {
		t.Fatalf("create = %d %s %s", status, env.Code, env.Error)
	}
	var order domain.Order
	if err := json.Unmarshal(env.Data, &order); err != nil {
		t.Fatal(err)
	}

	status, env = s.do(http.MethodGet, "/api/orders/my", one, nil)
	var mine []domain.Order
	if err := json.Unmarshal(env.Data, &mine); err != nil || status != http.StatusOK {
		t.Fatalf("my orders = %d %v", status, err)
	}
	if len(mine) != 1 || mine[0].ID != order.ID {
		t.Errorf("my orders = %+v", mine)
	}

	status, env = s.do(http.MethodGet, "/api/orders/my", two, nil)
	if err := json.Unmarshal(env.Data, &mine); err != nil || len(mine) != 0 {
		t.Errorf("other store sees %+v (%d)", mine, status)
	}

	status, env = s.do(http.MethodGet, "/api/orders/"+order.ID, two, nil)
	if status != http.StatusForbidden || env.Code != domain.CodeAuthzDenied {
		t.Errorf("foreign order = %d %s", status, env.Code)
	}

	status, env = s.do(http.MethodGet, "/api/orders/"+order.ID, one, nil)
	var details query.OrderDetails
	if err := json.Unmarshal(env.Data, &details); err != nil || status != http.StatusOK {
		t.Fatalf("get order = %d %v", status, err)
	}
	if details.StatusName != "PENDING" || len(details.History) != 1 {
		t.Errorf("unexpected details %+v", details)
	}

	status, env = s.do(http.MethodPatch, "/api/orders/"+order.ID+"/status", one,
		map[string]string{"status": string(domain.OrderCancelled)})
	if status != http.StatusOK || env.Code != domain.OrderCancelled.Code() {
		t.Errorf("cancel = %d %s %s", status, env.Code, env.Error)
	}

	status, env = s.do(http.MethodPatch, "/api/orders/"+order.ID+"/status", one,
		map[string]string{"status": string(domain.OrderInProduction)})
	if status != http.StatusConflict {
		t.Errorf("leaving a terminal status = %d %s", status, env.Code)
	}
}

func TestOrderAfterCutoffReturnsCancelledOrder(t *testing.T) {
	s := newServer(t, 19)
	one := s.login("one@store.test")

	status, env := s.do(http.MethodPost, "/api/orders", one, s.order())
	if status != http.StatusUnprocessableEntity || env.Code != domain.OrderCancelled.Code() || env.Success {
		t.Fatalf("create = %d %s", status, env.Code)
	}
	var order domain.Order
	if err := json.Unmarshal(env.Data, &order); err != nil {
		t.Fatal(err)
	}
	if order.ID == "" || order.Status != domain.OrderCancelled {
		t.Errorf("cancelled order not returned: %+v", order)
	}
}

func TestBadRequests(t *testing.T) {
	s := newServer(t, 10)
	one := s.login("one@store.test")

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+one)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body = %d", rec.Code)
	}

	status, env := s.do(http.MethodGet, "/api/orders/my?delivery_date=tomorrow", one, nil)
	if status != http.StatusBadRequest || env.Code != domain.CodeInvalidFormat {
		t.Errorf("bad date = %d %s", status, env.Code)
	}

	status, env = s.do(http.MethodGet, "/api/products/ghost", "", nil)
	if status != http.StatusNotFound || env.Code != domain.CodeProductNotFound {
		t.Errorf("unknown product = %d %s", status, env.Code)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newServer(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set(kitchenhttp.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if got := rec.Header().Get(kitchenhttp.RequestIDHeader); got != "req-42" {
		t.Errorf("request id = %q", got)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("security headers missing")
	}
}
