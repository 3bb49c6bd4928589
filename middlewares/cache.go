package middlewares

import (
	"bytes"
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"avease/utils"
)

type cachedBody struct {
	Status int
	Header map[string][]string
	Body   []byte
}

// sha1 keeps keys short however long the path and query are
func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// CacheKeyFrom names the cache entry for a GET. Views depend on who is
// asking, so the requester is part of every key. Item keys are prefixed
// with the link so a write can drop all of them at once.
func CacheKeyFrom(c *gin.Context) (string, string) {
	method := c.Request.Method
	path := c.FullPath() // route template, e.g. /events/:link
	rawq := c.Request.URL.RawQuery
	if method != "GET" || path == "" {
		return "", ""
	}
	uid := strconv.FormatInt(c.GetInt64(CtxUserID), 10)

	switch {
	case strings.HasPrefix(path, "/events/:link"):
		link := c.Param("link")
		return utils.CacheItemPrefix + link + ":" + sha1Hex(path+"|"+rawq+"|"+uid), "item"
	case path == "/events":
		return utils.CacheListPrefix + uid + ":" + sha1Hex(rawq), "list"
	}
	return "", ""
}

// ResponseCache serves repeated GETs from redis. Only 2xx responses are
// stored. A nil client disables it.
func ResponseCache(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, _ := CacheKeyFrom(c)
		if key == "" || rdb == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		if b, err := rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
			var hit cachedBody
			if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&hit); err == nil {
				for k, vals := range hit.Header {
					for _, v := range vals {
						c.Writer.Header().Add(k, v)
					}
				}
				c.Writer.Header().Set("X-Cache", "HIT")
				c.Status(hit.Status)
				_, _ = c.Writer.Write(hit.Body)
				c.Abort()
				return
			}
		}

		buf := &bytes.Buffer{}
		bw := &bufferedWriter{ResponseWriter: c.Writer, buf: buf}
		c.Writer = bw
		c.Header("X-Cache", "MISS")

		c.Next()

		if bw.Status() >= 200 && bw.Status() < 300 {
			item := cachedBody{
				Status: bw.Status(),
				Header: c.Writer.Header().Clone(),
				Body:   buf.Bytes(),
			}
			delete(item.Header, "X-Cache")
			var o bytes.Buffer
			if err := gob.NewEncoder(&o).Encode(item); err == nil {
				_ = rdb.Set(ctx, key, o.Bytes(), ttl).Err()
			}
		}
	}
}

// bufferedWriter tees the body into buf on its way to the client.
type bufferedWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}
