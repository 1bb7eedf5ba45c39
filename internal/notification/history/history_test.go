package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"order-notifications/internal/common/logger"
	"order-notifications/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(i int) models.NotificationRecord {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Millisecond)
	return models.NotificationRecord{
		ID:        fmt.Sprintf("rec-%d", i),
		Channel:   models.ChannelEmail,
		Recipient: "john@example.com",
		Subject:   fmt.Sprintf("Order Confirmation - ORD%d", i),
		Content:   "<p>hi</p>",
		Status:    models.StatusSent,
		Timestamp: ts,
	}
}

func TestNewRecordID(t *testing.T) {
	ts := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)

	a := NewRecordID(ts, models.ChannelEmail)
	b := NewRecordID(ts, models.ChannelEmail)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "1741341600000-email-"), a)
	assert.True(t, strings.HasPrefix(NewRecordID(ts, models.ChannelSMS), "1741341600000-sms-"))
}

func newRedisLog(t *testing.T, capacity int) (*RedisLog, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLog(client, "", capacity), mr
}

// runLogContract checks ordering and bounding for any Log backend.
func runLogContract(t *testing.T, newLog func(capacity int) Log) {
	ctx := context.Background()

	t.Run("newest first", func(t *testing.T) {
		l := newLog(10)
		for i := 0; i < 3; i++ {
			require.NoError(t, l.Append(ctx, record(i)))
		}
		got, err := l.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, record(2).ID, got[0].ID)
		assert.Equal(t, record(0).ID, got[2].ID)
	})

	t.Run("bounded at capacity", func(t *testing.T) {
		l := newLog(5)
		for i := 0; i < 8; i++ {
			require.NoError(t, l.Append(ctx, record(i)))
		}
		got, err := l.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, got, 5)
		assert.Equal(t, record(7).ID, got[0].ID)
		assert.Equal(t, record(3).ID, got[4].ID)
	})

	t.Run("limit", func(t *testing.T) {
		l := newLog(10)
		for i := 0; i < 4; i++ {
			require.NoError(t, l.Append(ctx, record(i)))
		}
		got, err := l.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, record(3).ID, got[0].ID)
	})

	t.Run("empty", func(t *testing.T) {
		got, err := newLog(10).List(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestMemoryLog_Contract(t *testing.T) {
	runLogContract(t, func(capacity int) Log { return NewMemoryLog(capacity) })
}

func TestMemoryLog_DefaultCapacity(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog(0)
	for i := 0; i < DefaultCapacity+20; i++ {
		require.NoError(t, l.Append(ctx, record(i)))
	}
	got, err := l.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultCapacity)
}

func TestMemoryLog_ConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog(50)

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = l.Append(ctx, record(i))
		}(i)
	}
	wg.Wait()

	got, err := l.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 50)
}

func TestMemoryLog_ListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog(5)
	require.NoError(t, l.Append(ctx, record(0)))

	got, _ := l.List(ctx, 0)
	got[0].Subject = "mutated"

	again, _ := l.List(ctx, 0)
	assert.Equal(t, record(0).Subject, again[0].Subject)
}

func TestRedisLog_Contract(t *testing.T) {
	runLogContract(t, func(capacity int) Log {
		l, _ := newRedisLog(t, capacity)
		return l
	})
}

func TestRedisLog_StoresJSONUnderKey(t *testing.T) {
	l, mr := newRedisLog(t, 10)
	require.NoError(t, l.Append(context.Background(), record(1)))

	items, err := mr.List(DefaultRedisKey)
	require.NoError(t, err)
	require.Len(t, items, 1)

	var rec models.NotificationRecord
	require.NoError(t, json.Unmarshal([]byte(items[0]), &rec))
	assert.Equal(t, record(1).ID, rec.ID)
	assert.Contains(t, items[0], `"type":"email"`)
}

func TestRedisLog_ServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	t.Cleanup(func() { client.Close() })
	l := NewRedisLog(client, "", 10)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = l.Append(ctx, record(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HISTORY_STORE_FAILED")

	_, err = l.List(ctx, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HISTORY_STORE_FAILED")
}

func TestRedisLog_ListError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedisLog(db, "", 10)

	mock.ExpectLRange(DefaultRedisKey, 0, 4).SetErr(errors.New("READONLY You can't write against a read only replica"))

	_, err := l.List(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HISTORY_STORE_FAILED")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLog_CorruptEntry(t *testing.T) {
	l, mr := newRedisLog(t, 10)
	_, err := mr.Lpush(DefaultRedisKey, "{not json")
	require.NoError(t, err)

	_, err = l.List(context.Background(), 0)
	require.Error(t, err)
}

// ==========================
// Elasticsearch mirror
// ==========================

type fakeIndex struct {
	mu     sync.Mutex
	docs   map[string]string
	status int
}

func (f *fakeIndex) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":"unavailable"}`))
		return
	}

	body, _ := io.ReadAll(r.Body)
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	id := parts[len(parts)-1]
	f.docs[id] = string(body)
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(`{"result":"created"}`))
}

func newIndexedLog(t *testing.T, fake *fakeIndex) (*IndexedLog, *MemoryLog) {
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	primary := NewMemoryLog(10)
	return NewIndexedLog(primary, es, "", logger.NewTestLogger(t)), primary
}

func TestIndexedLog_MirrorsRecords(t *testing.T) {
	fake := &fakeIndex{docs: map[string]string{}}
	l, _ := newIndexedLog(t, fake)

	rec := record(4)
	require.NoError(t, l.Append(context.Background(), rec))

	got, err := l.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)

	doc, ok := fake.docs[rec.ID]
	require.True(t, ok)
	assert.Contains(t, doc, `"channel":"email"`)
	assert.Contains(t, doc, `"status":"sent"`)
}

func TestIndexedLog_MirrorFailureDoesNotFailAppend(t *testing.T) {
	fake := &fakeIndex{docs: map[string]string{}, status: http.StatusServiceUnavailable}
	l, primary := newIndexedLog(t, fake)

	require.NoError(t, l.Append(context.Background(), record(0)))

	got, err := primary.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
