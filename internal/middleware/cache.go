package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/gymboo/gym-backend/internal/config"
)

// responseRecorder tees the response body into a buffer, capped at limit so
// one huge payload cannot blow up Redis.
type responseRecorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.status = code
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if rr.limit <= 0 {
		rr.buf.Write(b)
	} else if remain := rr.limit - rr.size; remain > 0 {
		if int64(len(b)) <= remain {
			rr.buf.Write(b)
		} else {
			rr.buf.Write(b[:remain])
		}
	}
	rr.size += int64(len(b))
	return rr.ResponseWriter.Write(b)
}

// cacheKey hashes the concrete request URL (path + query, never the route
// pattern, so /products/api/1 and /products/api/2 cache separately) plus the
// caller's member id, so a logged-in caller never sees a guest's cached likes
// and vice versa. The middleware must therefore run after any auth middleware
// on the route.
func cacheKey(prefix string, c echo.Context) string {
	member := "anon"
	if v, ok := c.Get("member_id").(uint64); ok && v > 0 {
		member = fmt.Sprint(v)
	}
	u := c.Request().URL
	tail := strings.Join([]string{u.Path, u.RawQuery, member}, ":")
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%x", prefix, sum[:])
}

// Stored payload: [4 bytes status][4 bytes headerLen][headerJSON][body].
func encodeCached(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodeCached(bs []byte) (status int, header http.Header, body []byte, ok bool) {
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

// NewRedisCache serves 200 responses of cacheable methods from Redis for the
// configured TTL. Headers and body are stored together so a HIT is
// byte-identical to the original response. Apply it per route, after the
// route's auth middleware, and only on reads that tolerate the TTL of
// staleness; it must not wrap member-private endpoints.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return Passthrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			key := cacheKey(cfg.Prefix, c)

			if bs, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
				if status, hdr, body, ok := decodeCached(bs); ok {
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
					if len(body) > 0 {
						_, _ = c.Response().Write(body)
					}
					return nil
				}
			}

			rr := &responseRecorder{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				limit:          int64(cfg.MaxBodyBytes),
			}
			c.Response().Writer = rr
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if rr.status != http.StatusOK {
				return nil
			}
			if rr.limit > 0 && rr.size > rr.limit {
				return nil
			}
			hdr := make(http.Header, len(c.Response().Header()))
			for k, vals := range c.Response().Header() {
				vv := make([]string, len(vals))
				copy(vv, vals)
				hdr[k] = vv
			}
			if payload, err := encodeCached(rr.status, hdr, rr.buf.Bytes()); err == nil {
				_ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
			}
			return nil
		}
	}
}
