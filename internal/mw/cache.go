package mw

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// snapshot is a rendered reference-data response.
type snapshot struct {
	contentType string
	body        []byte
}

func (s snapshot) replay(c *gin.Context) {
	c.Header("X-Cache", "HIT")
	c.Data(http.StatusOK, s.contentType, s.body)
}

// teeWriter copies everything the handler writes into buf.
type teeWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ReferenceCache serves catalogue listings (consumables, properties,
// cleaners) from store, keyed by request URI, using the store's default
// expiration. Only complete 200 responses are kept. Session routes must not
// use it.
func ReferenceCache(store *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if v, ok := store.Get(key); ok {
			v.(snapshot).replay(c)
			c.Abort()
			return
		}

		c.Header("X-Cache", "MISS")
		tee := &teeWriter{ResponseWriter: c.Writer}
		c.Writer = tee
		c.Next()
		c.Writer = tee.ResponseWriter

		if tee.Status() != http.StatusOK || len(c.Errors) > 0 {
			return
		}
		store.SetDefault(key, snapshot{
			contentType: tee.Header().Get("Content-Type"),
			body:        bytes.Clone(tee.buf.Bytes()),
		})
	}
}
