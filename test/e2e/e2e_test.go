// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-notifications/internal/api"
	"order-notifications/internal/common/camunda"
	"order-notifications/internal/common/config"
	"order-notifications/internal/common/database"
	"order-notifications/internal/common/logger"
	"order-notifications/internal/models"
	"order-notifications/internal/notification/dispatch"
	"order-notifications/internal/notification/history"
	"order-notifications/internal/notification/lifecycle"
	"order-notifications/internal/notification/preferences"
	"order-notifications/internal/notification/render"
	"order-notifications/internal/notification/sender"
)

const orderPayload = `{
	"orderId": "ORD-E2E-1",
	"customerName": "Asha",
	"customerEmail": "asha@example.com",
	"customerPhone": "+91 98765 43210",
	"orderTotal": 2598,
	"deliveryAddress": "42 MG Road, Bengaluru",
	"items": [{"product": {"name": "Kettle", "price": 1299}, "quantity": 2}]
}`

type stack struct {
	router *gin.Engine
	sim    *lifecycle.Simulator
	rdb    *redis.Client
	mr     *miniredis.Miniredis
}

// newStack wires the full service against an in-memory Redis with log
// transports on both channels.
func newStack(t *testing.T) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := logger.NewTestLogger(t)
	clock := func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	renderer := render.New(render.WithClock(clock))

	senders := map[models.Channel]sender.Sender{
		models.ChannelEmail: sender.NewLogSender(log),
		models.ChannelSMS:   sender.NewRateLimited(sender.NewLogSender(log), 100, 10),
	}
	svc := dispatch.NewService(
		preferences.NewRedisStore(rdb),
		renderer,
		senders,
		history.NewRedisLog(rdb, history.DefaultRedisKey, history.DefaultCapacity),
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	sim := lifecycle.NewSimulator(svc, renderer, log, lifecycle.WithStep(10*time.Millisecond))
	t.Cleanup(func() {
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = sim.Shutdown(shutdownCtx)
	})

	checks := []api.ReadinessCheck{{Name: "redis", Check: func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}}}
	router := api.NewRouter(api.NewNotificationHandler(ctx, svc, sim), checks, log)

	return &stack{router: router, sim: sim, rdb: rdb, mr: mr}
}

func (s *stack) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// ==========================
// In-process order flow
// ==========================

func TestOrderFlow(t *testing.T) {
	s := newStack(t)

	// SMS off for this user.
	w := s.do(t, http.MethodPut, "/api/v1/users/user-1/notification-preferences", map[string]bool{
		"email": true, "sms": false, "orderConfirmation": true,
		"shippingUpdates": true, "deliveryNotifications": true, "promotionalOffers": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/orders/ORD-E2E-1/notifications", map[string]interface{}{
		"event":            "order_confirmation",
		"userId":           "user-1",
		"notificationData": json.RawMessage(orderPayload),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result dispatch.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Records, 1)
	assert.Equal(t, models.ChannelEmail, result.Records[0].Channel)
	assert.Equal(t, models.StatusSent, result.Records[0].Status)
	assert.Equal(t, "Order Confirmation - ORD-E2E-1", result.Records[0].Subject)
	assert.Contains(t, result.Records[0].Content, "2,598")
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, dispatch.SkipChannelDisabled, result.Skipped[0].Reason)

	// Lifecycle simulation.
	w = s.do(t, http.MethodPost, "/api/v1/orders/ORD-E2E-1/simulations", map[string]interface{}{
		"userId":           "user-1",
		"notificationData": json.RawMessage(orderPayload),
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	location := w.Header().Get("Location")
	require.NotEmpty(t, location)

	require.Eventually(t, func() bool {
		w := s.do(t, http.MethodGet, location, nil)
		var status lifecycle.RunStatus
		if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
			return false
		}
		return status.Done
	}, 5*time.Second, 20*time.Millisecond)

	// One direct send plus four simulated stages, email only.
	w = s.do(t, http.MethodGet, "/api/v1/notifications/history?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Notifications []models.NotificationRecord `json:"notifications"`
		Count         int                         `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, 5, page.Count)
	assert.Equal(t, models.EventDelivered, page.Notifications[0].Event)
	assert.Equal(t, models.EventOrderConfirmation, page.Notifications[4].Event)

	shipped := page.Notifications[2]
	assert.Equal(t, models.EventOrderShipped, shipped.Event)
	assert.Contains(t, shipped.Content, lifecycle.ShippedCourier)
	assert.Contains(t, shipped.Content, "TRK")

	n, err := s.rdb.LLen(context.Background(), history.DefaultRedisKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestTestNotificationAndReadiness(t *testing.T) {
	s := newStack(t)

	w := s.do(t, http.MethodPost, "/api/v1/users/user-2/test-notification", map[string]string{
		"name": "Ravi", "email": "ravi@example.com", "phone": "+919812345678",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result dispatch.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Sent())

	w = s.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	s.mr.SetError("LOADING Redis is loading the dataset in memory")
	w = s.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// ==========================
// Live services
// ==========================

// TestLiveServices needs Postgres, Redis, Elasticsearch and Zeebe on
// localhost. Set E2E_LIVE=1 to run it.
func TestLiveServices(t *testing.T) {
	if os.Getenv("E2E_LIVE") == "" {
		t.Skip("E2E_LIVE not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)

	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Database.Elasticsearch.Addresses = []string{"http://localhost:9200"}
	cfg.Camunda.BrokerAddress = "localhost:26500"

	log := logger.NewTestLogger(t)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "PostgreSQL connection failed")
	defer pg.Close()
	require.NoError(t, pg.Ping(ctx))
	require.NoError(t, pg.EnsureSchema(ctx))

	store := preferences.NewPostgresStore(pg.DB)
	want := models.DefaultPreferences()
	want.SMS = false
	require.NoError(t, store.Set(ctx, "e2e-user", want))
	got, err := store.Get(ctx, "e2e-user")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	t.Log("PostgreSQL preferences round trip ok")

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "Redis client creation failed")
	defer rdb.Close()
	require.NoError(t, rdb.Ping(ctx))
	t.Log("Redis connected")

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err)
	require.NoError(t, es.Ping(ctx))
	require.NoError(t, es.EnsureHistoryIndex(ctx, cfg.Database.Elasticsearch.HistoryIndex))
	t.Log("Elasticsearch connected")

	zc, err := camunda.Connect(ctx, cfg.Camunda, camunda.RetryConfig{
		MaxRetries:   3,
		BaseDelay:    time.Second,
		MaxDelay:     5 * time.Second,
	}, log)
	require.NoError(t, err, "Zeebe connection failed")
	defer zc.Close()
	assert.NoError(t, zc.HealthCheck(ctx))
	t.Log("Zeebe connected")
}
