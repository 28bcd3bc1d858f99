package handler

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader carries the client's idempotency key.
	IdempotencyKeyHeader = "X-Idempotency-Key"
	// ReplayedHeader is set on responses served from the idempotency cache.
	ReplayedHeader = "Idempotent-Replayed"

	idempotencyKeyPrefix  = "hotel:idempotency:"
	defaultProcessingTTL  = 30 * time.Second
	defaultIdempotencyTTL = 10 * time.Minute
)

type idempotencyStatus string

const (
	statusProcessing idempotencyStatus = "processing"
	statusCompleted  idempotencyStatus = "completed"
)

type idempotencyRecord struct {
	Status       idempotencyStatus `json:"status"`
	RequestHash  string            `json:"request_hash"`
	ResponseCode int               `json:"response_code,omitempty"`
	ResponseBody string            `json:"response_body,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// RedisClient is the subset of *redis.Client the idempotency cache needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Idempotency replays the first response for a repeated X-Idempotency-Key so
// a retried booking submit does not book twice. Requests without the header
// pass straight through, and a Redis failure disables the check for that
// request rather than failing it.
type Idempotency struct {
	redis         RedisClient
	ttl           time.Duration
	processingTTL time.Duration
	log           *zap.Logger
}

// NewIdempotency keeps completed responses for ttl.
func NewIdempotency(rdb RedisClient, ttl time.Duration, log *zap.Logger) *Idempotency {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &Idempotency{redis: rdb, ttl: ttl, processingTTL: defaultProcessingTTL, log: log}
}

// Middleware wraps a write endpoint.
func (i *Idempotency) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		ctx := r.Context()
		redisKey := idempotencyKeyPrefix + key
		hash := requestHash(r, body)

		existing, err := i.get(ctx, redisKey)
		if err != nil && !errors.Is(err, redis.Nil) {
			i.log.Warn("idempotency lookup failed, continuing without it", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if existing != nil {
			i.replay(w, existing, hash)
			return
		}

		record := &idempotencyRecord{Status: statusProcessing, RequestHash: hash, CreatedAt: time.Now().UTC()}
		claimed, err := i.claim(ctx, redisKey, record)
		if err != nil {
			i.log.Warn("idempotency claim failed, continuing without it", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if !claimed {
			// Lost the race to a concurrent request with the same key.
			if existing, err = i.get(ctx, redisKey); err == nil {
				i.replay(w, existing, hash)
				return
			}
			writeError(w, http.StatusConflict, "a request with this idempotency key is already being processed")
			return
		}

		rec := &capturingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// Let the client retry after a server error.
		if rec.status >= http.StatusInternalServerError {
			if err := i.redis.Del(context.WithoutCancel(ctx), redisKey).Err(); err != nil {
				i.log.Warn("idempotency release failed", zap.Error(err))
			}
			return
		}

		record.Status = statusCompleted
		record.ResponseCode = rec.status
		record.ResponseBody = rec.body.String()
		if err := i.save(context.WithoutCancel(ctx), redisKey, record); err != nil {
			i.log.Warn("idempotency save failed", zap.Error(err))
		}
	})
}

func (i *Idempotency) replay(w http.ResponseWriter, rec *idempotencyRecord, hash string) {
	if rec.RequestHash != hash {
		writeError(w, http.StatusUnprocessableEntity, "idempotency key already used with a different request")
		return
	}
	if rec.Status == statusProcessing {
		writeError(w, http.StatusConflict, "a request with this idempotency key is already being processed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(rec.ResponseCode)
	_, _ = w.Write([]byte(rec.ResponseBody))
}

func (i *Idempotency) get(ctx context.Context, key string) (*idempotencyRecord, error) {
	raw, err := i.redis.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	var rec idempotencyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (i *Idempotency) claim(ctx context.Context, key string, rec *idempotencyRecord) (bool, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	return i.redis.SetNX(ctx, key, string(data), i.processingTTL).Result()
}

func (i *Idempotency) save(ctx context.Context, key string, rec *idempotencyRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return i.redis.Set(ctx, key, string(data), i.ttl).Err()
}

func requestHash(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte(r.URL.Path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// capturingWriter copies the response so it can be cached.
type capturingWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *capturingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}
