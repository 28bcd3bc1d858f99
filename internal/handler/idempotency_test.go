package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRedis is an in-memory RedisClient that ignores expirations.
type fakeRedis struct {
	mu      sync.Mutex
	data    map[string]string
	failGet error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

// countingHandler answers with an incrementing booking number.
type countingHandler struct {
	mu     sync.Mutex
	calls  int
	status int
}

func (c *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.calls++
	n := c.calls
	c.mu.Unlock()

	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{"success": true, "result": map[string]any{"booking_id": fmt.Sprintf("b%d", n)}})
}

func post(h http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/booking", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const bookingBody = `{"guest_name":"Alice","room_type":"deluxe","start_date":"2025-06-09","end_date":"2025-06-11"}`

func TestIdempotency_WithoutKeyPassesThrough(t *testing.T) {
	next := &countingHandler{}
	h := NewIdempotency(newFakeRedis(), time.Minute, zap.NewNop()).Middleware(next)

	post(h, "", bookingBody)
	post(h, "", bookingBody)
	assert.Equal(t, 2, next.calls)
}

func TestIdempotency_ReplaysFirstResponse(t *testing.T) {
	next := &countingHandler{}
	h := NewIdempotency(newFakeRedis(), time.Minute, zap.NewNop()).Middleware(next)

	first := post(h, "key-1", bookingBody)
	second := post(h, "key-1", bookingBody)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
	assert.Empty(t, first.Header().Get(ReplayedHeader))
}

func TestIdempotency_KeyReusedWithDifferentBody(t *testing.T) {
	next := &countingHandler{}
	h := NewIdempotency(newFakeRedis(), time.Minute, zap.NewNop()).Middleware(next)

	post(h, "key-1", bookingBody)
	rec := post(h, "key-1", strings.Replace(bookingBody, "Alice", "Bob", 1))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 1, next.calls)
}

func TestIdempotency_InFlightRequestConflicts(t *testing.T) {
	rdb := newFakeRedis()
	next := &countingHandler{}
	h := NewIdempotency(rdb, time.Minute, zap.NewNop()).Middleware(next)

	req := httptest.NewRequest(http.MethodPost, "/booking", nil)
	raw, err := json.Marshal(idempotencyRecord{Status: statusProcessing, RequestHash: requestHash(req, []byte(bookingBody))})
	require.NoError(t, err)
	rdb.data[idempotencyKeyPrefix+"key-1"] = string(raw)

	rec := post(h, "key-1", bookingBody)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Zero(t, next.calls)
}

func TestIdempotency_ServerErrorReleasesKey(t *testing.T) {
	rdb := newFakeRedis()
	next := &countingHandler{status: http.StatusInternalServerError}
	h := NewIdempotency(rdb, time.Minute, zap.NewNop()).Middleware(next)

	post(h, "key-1", bookingBody)
	assert.Empty(t, rdb.data)

	next.status = http.StatusOK
	rec := post(h, "key-1", bookingBody)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, next.calls)
}

func TestIdempotency_FailsOpenWhenRedisIsDown(t *testing.T) {
	rdb := newFakeRedis()
	rdb.failGet = errors.New("dial tcp: connection refused")
	next := &countingHandler{}
	h := NewIdempotency(rdb, time.Minute, zap.NewNop()).Middleware(next)

	rec := post(h, "key-1", bookingBody)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, next.calls)
}
