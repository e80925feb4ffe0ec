package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sales_api/api"
	"sales_api/internal/auth"
	"sales_api/internal/sales"
)

const adminPassword = "Adm1n-passw0rd"

type envelope[T any] struct {
	IsSuccess bool   `json:"isSuccess"`
	IsError   bool   `json:"isError"`
	Message   string `json:"message"`
	Data      T      `json:"data"`
}

func InitRoutesTests(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	tokens := auth.NewTokenManager("sales-api", "sales-clients", []byte("0123456789abcdef0123456789abcdef"), time.Hour)
	authService := auth.NewService(auth.NewLocalStore(), tokens, logger)
	require.NoError(t, authService.SeedAdmin(context.Background(), auth.AdminAccount{
		Username: "admin",
		Email:    "admin@domain.com",
		Password: adminPassword,
	}))

	router := gin.New()
	api.InitRoutes(router, api.Dependencies{
		SalesService: sales.NewService(sales.NewLocalStorage(), logger),
		AuthService:  authService,
		Logger:       logger,
	})
	return router
}

func do(router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func login(t *testing.T, router http.Handler, username, password string) string {
	t.Helper()
	w := do(router, http.MethodPost, "/api/users/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode[auth.LoginResponse](t, w)
	require.NotEmpty(t, env.Data.Token)
	return env.Data.Token
}

// TestSalesHappyPath_FullFlow prueba el flujo completo POST -> GET -> PUT -> filtros -> DELETE.
func TestSalesHappyPath_FullFlow(t *testing.T) {
	router := InitRoutesTests(t)
	token := login(t, router, "admin", adminPassword)

	var saleID int64

	t.Run("POST_CreateSale", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/sales", token, map[string]any{
			"amount":           150.75,
			"saleDate":         "2024-01-05T10:00:00Z",
			"representativeId": 5,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		env := decode[sales.SaleResponse](t, w)
		assert.True(t, env.IsSuccess)
		assert.False(t, env.IsError)
		assert.Equal(t, api.MsgAdded, env.Message)
		assert.NotZero(t, env.Data.ID)
		assert.True(t, env.Data.Amount.Equal(decimal.RequireFromString("150.75")))
		assert.Equal(t, int64(5), env.Data.RepresentativeID)
		assert.Equal(t, fmt.Sprintf("/api/sales/%d", env.Data.ID), w.Header().Get("Location"))

		saleID = env.Data.ID
	})

	if saleID == 0 {
		t.Fatal("Sale ID was not successfully generated in POST_CreateSale step.")
	}
	salePath := fmt.Sprintf("/api/sales/%d", saleID)

	t.Run("GET_Sale", func(t *testing.T) {
		w := do(router, http.MethodGet, salePath, token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		env := decode[sales.SaleResponse](t, w)
		assert.True(t, env.Data.Amount.Equal(decimal.RequireFromString("150.75")))
		assert.Equal(t, int64(5), env.Data.RepresentativeID)
	})

	t.Run("PUT_UpdateSale", func(t *testing.T) {
		w := do(router, http.MethodPut, salePath, token, map[string]any{"amount": "99.10", "representativeId": 6})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		env := decode[sales.SaleResponse](t, w)
		assert.Equal(t, api.MsgModified, env.Message)
		assert.Equal(t, saleID, env.Data.ID)
		assert.True(t, env.Data.Amount.Equal(decimal.RequireFromString("99.10")))
		assert.Equal(t, int64(6), env.Data.RepresentativeID)
		assert.False(t, env.Data.UpdatedOn.Before(env.Data.CreatedOn))
	})

	t.Run("GET_Filter", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/sales/filter?representativeId=6", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]sales.SaleResponse](t, w).Data, 1)

		w = do(router, http.MethodGet, "/api/sales/filter?startDate=2024-01-01&endDate=2024-01-05T10:00:00Z", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]sales.SaleResponse](t, w).Data, 1)

		w = do(router, http.MethodGet, "/api/sales/filter?representativeId=5", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[[]sales.SaleResponse](t, w).Data)

		w = do(router, http.MethodGet, "/api/sales/filter", token, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		env := decode[any](t, w)
		assert.True(t, env.IsError)
		assert.Equal(t, api.MsgInvalidFilter, env.Message)

		w = do(router, http.MethodGet, "/api/sales/filter?startDate=yesterday", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		// A lone bound without a representative is not a usable filter.
		w = do(router, http.MethodGet, "/api/sales/filter?startDate=2024-01-01", token, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, api.MsgInvalidFilter, decode[any](t, w).Message)

		// With a representative the lone bound is ignored.
		w = do(router, http.MethodGet, "/api/sales/filter?endDate=2000-01-01&representativeId=6", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]sales.SaleResponse](t, w).Data, 1)
	})

	t.Run("GET_DashboardMetrics", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/dashboard/metrics", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		env := decode[sales.Summary](t, w)
		assert.Equal(t, 1, env.Data.Quantity)
	})

	t.Run("DELETE_Sale", func(t *testing.T) {
		w := do(router, http.MethodDelete, salePath, token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, saleID, decode[sales.SaleResponse](t, w).Data.ID)

		w = do(router, http.MethodGet, salePath, token, nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		env := decode[any](t, w)
		assert.True(t, env.IsError)
		assert.Equal(t, api.MsgNotFound, env.Message)
		assert.NotContains(t, w.Body.String(), `"data"`)
	})

	t.Run("GET_AllEmpty", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/sales", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		env := decode[[]sales.SaleResponse](t, w)
		assert.True(t, env.IsSuccess)
		assert.Empty(t, env.Data)
		assert.Contains(t, w.Body.String(), `"data":[]`)
	})
}

func TestSales_InvalidRequests(t *testing.T) {
	router := InitRoutesTests(t)
	token := login(t, router, "admin", adminPassword)

	w := do(router, http.MethodGet, "/api/sales/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/api/sales", token, map[string]any{"amount": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/api/sales", token, map[string]any{"amount": "ten", "representativeId": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPut, "/api/sales/77", token, map[string]any{"amount": 1, "representativeId": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthGate_PublicPaths(t *testing.T) {
	router := InitRoutesTests(t)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/ping", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/metrics", "", nil).Code)
	// Bypassed but unrouted: the gate lets it through to a 404.
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/SWAGGER/index.html", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/swaggerish", "", nil).Code)
}

func TestAuthGate_RejectsMissingAndInvalidTokens(t *testing.T) {
	router := InitRoutesTests(t)

	w := do(router, http.MethodGet, "/api/sales", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	env := decode[any](t, w)
	assert.True(t, env.IsError)
	assert.Equal(t, api.MsgNotLoggedIn, env.Message)

	w = do(router, http.MethodGet, "/api/sales", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// Authentication is derived from each request's own token: one caller
// logging in must never open the API to callers without a token.
func TestAuthGate_IsPerRequest(t *testing.T) {
	router := InitRoutesTests(t)

	fire := func(n int, token string) []int {
		codes := make([]int, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				codes[i] = do(router, http.MethodGet, "/api/sales", token, nil).Code
			}(i)
		}
		wg.Wait()
		return codes
	}

	for _, code := range fire(20, "") {
		assert.Equal(t, http.StatusUnauthorized, code)
	}

	token := login(t, router, "admin", adminPassword)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/sales", token, nil).Code)

	var wg sync.WaitGroup
	var authed, anonymous []int
	wg.Add(2)
	go func() { defer wg.Done(); authed = fire(20, token) }()
	go func() { defer wg.Done(); anonymous = fire(20, "") }()
	wg.Wait()

	for _, code := range authed {
		assert.Equal(t, http.StatusOK, code)
	}
	for _, code := range anonymous {
		assert.Equal(t, http.StatusUnauthorized, code)
	}
}

func TestUsers_RegisterLoginMe(t *testing.T) {
	router := InitRoutesTests(t)

	w := do(router, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "maria",
		"email":    "maria@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	registered := decode[auth.User](t, w)
	assert.Equal(t, "maria", registered.Data.Username)
	assert.NotContains(t, w.Body.String(), "password_hash")

	w = do(router, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "maria",
		"email":    "maria@example.com",
		"password": "s3cret-pass",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(router, http.MethodPost, "/api/users/register", "", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Padding does not count towards the minimum length.
	w = do(router, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "  ab  ",
		"email":    "ab@example.com",
		"password": "s3cret-pass",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/api/users/login", "", map[string]string{"username": "maria", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := login(t, router, "maria", "s3cret-pass")
	w = do(router, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[auth.Principal](t, w)
	assert.Equal(t, registered.Data.ID, me.Data.UserID)
	assert.Equal(t, []string{auth.RoleUser}, me.Data.Roles)
}
