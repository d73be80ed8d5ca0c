package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/rental-contracts/internal/config"
)

// captureWriter tees the response body (up to limit bytes) while
// forwarding it to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if remain := cw.limit - int64(cw.buf.Len()); cw.limit <= 0 || remain > 0 {
		if cw.limit > 0 && int64(len(b)) > remain {
			cw.buf.Write(b[:remain])
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// cacheKey hashes user, generation, route and query; responses are never
// shared across users.
func cacheKey(cfg config.CacheConfig, c echo.Context, gen string) string {
	r := c.Request()
	tail := strings.Join([]string{"user", currentUserID(c), "gen", gen, r.Method, r.URL.Path, r.URL.RawQuery}, ":")
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// contractGenKey holds the generation token of one contract's detail
// responses; listGenKey holds the token shared by every list page.
func contractGenKey(cfg config.CacheConfig, id string) string {
	return cfg.Prefix + ":gen:contract:" + id
}

func listGenKey(cfg config.CacheConfig) string {
	return cfg.Prefix + ":gen:list"
}

// scopeKey picks the generation a request reads under: the contract in
// the :id param, or the list pages.
func scopeKey(cfg config.CacheConfig, c echo.Context) string {
	if id := c.Param("id"); id != "" {
		return contractGenKey(cfg, id)
	}
	return listGenKey(cfg)
}

func cacheTTL(cfg config.CacheConfig) time.Duration {
	if cfg.TTL <= 0 {
		return 30 * time.Second
	}
	return cfg.TTL
}

// CacheInvalidator rotates generation tokens.  Entries stored under the old
// token are never read again and age out with their TTL, whoever cached
// them.
type CacheInvalidator struct {
	cfg config.CacheConfig
	rdb *redis.Client
}

// NewCacheInvalidator returns an invalidator; with caching disabled or no
// Redis it does nothing.
func NewCacheInvalidator(cfg config.CacheConfig, rdb *redis.Client) *CacheInvalidator {
	return &CacheInvalidator{cfg: cfg, rdb: rdb}
}

// InvalidateContract drops every user's cached detail of contract id and
// every cached list page.  An empty id only drops the list pages.
func (v *CacheInvalidator) InvalidateContract(ctx context.Context, id string) error {
	if v == nil || v.rdb == nil || !v.cfg.Enabled {
		return nil
	}
	// tokens outlive any entry stored under them
	keep := 2 * cacheTTL(v.cfg)
	pipe := v.rdb.TxPipeline()
	if id != "" {
		pipe.Set(ctx, contractGenKey(v.cfg, id), uuid.NewString(), keep)
	}
	pipe.Set(ctx, listGenKey(v.cfg), uuid.NewString(), keep)
	_, err := pipe.Exec(ctx)
	return err
}

// encodePayload packs [4 bytes status][4 bytes header length][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdr, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdr)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdr)))
	copy(out[8:], hdr)
	copy(out[8+len(hdr):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

// NewRedisCache caches successful reads per user.  A write through this
// middleware rotates the generation of the contract it touched, and of the
// list pages, once the handler returns, so both parties re-fetch.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	ttl := cacheTTL(cfg)
	maxBody := int64(cfg.MaxBodyBytes)
	inv := NewCacheInvalidator(cfg, rdb)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				err := next(c)
				_ = inv.InvalidateContract(context.Background(), c.Param("id"))
				return err
			}

			gen, err := rdb.Get(ctx, scopeKey(cfg, c)).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return next(c)
			}
			key := cacheKey(cfg, c, gen)
			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if strings.EqualFold(k, "Content-Length") {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, _ = c.Response().Write(body)
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || (maxBody > 0 && int64(c.Response().Size) > maxBody) {
				return nil
			}
			payload, err := encodePayload(cw.status, c.Response().Header().Clone(), cw.buf.Bytes())
			if err != nil {
				return nil
			}
			_ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
			return nil
		}
	}
}
