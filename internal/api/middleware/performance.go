package middleware

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"sync"
)

// minGzipBytes is the smallest body worth compressing
const minGzipBytes = 256

var gzipWriterPool = sync.Pool{
	New: func() any {
		gz, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return gz
	},
}

// cachePolicy returns the Cache-Control value for a path. Lot data only
// changes when the server restarts with a new data file.
func cachePolicy(path string) string {
	switch {
	case path == "/api/station":
		return "public, max-age=3600"
	case path == "/api/lots" || strings.HasPrefix(path, "/api/lots/"):
		return "public, max-age=60, must-revalidate"
	default:
		return "private, no-cache, must-revalidate"
	}
}

// bufferedResponse holds a handler's output until it is finalized
type bufferedResponse struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (b *bufferedResponse) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

// ResponseOptimization sets Cache-Control, answers conditional GETs with 304
// using a body hash ETag, and gzips large bodies for clients that accept it.
// The ETag is computed on the uncompressed body so it does not depend on the
// encoding.
func ResponseOptimization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", cachePolicy(r.URL.Path))

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		buf := &bufferedResponse{ResponseWriter: w}
		next.ServeHTTP(buf, r)
		if buf.status == 0 {
			buf.status = http.StatusOK
		}
		body := buf.body.Bytes()

		if buf.status != http.StatusOK {
			w.WriteHeader(buf.status)
			_, _ = w.Write(body)
			return
		}

		etag := bodyETag(body)
		w.Header().Set("ETag", etag)
		w.Header().Add("Vary", "Accept-Encoding")
		if etagMatches(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		if len(body) < minGzipBytes || !acceptsGzip(r) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(body)
			return
		}

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
		w.WriteHeader(http.StatusOK)

		gz := gzipWriterPool.Get().(*gzip.Writer)
		gz.Reset(w)
		_, _ = gz.Write(body)
		_ = gz.Close()
		gzipWriterPool.Put(gz)
	})
}

func bodyETag(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// etagMatches checks an If-None-Match header, which may list several tags or
// weak ones
func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag || candidate == "*" {
			return true
		}
	}
	return false
}

func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(strings.TrimSpace(coding), "gzip") && strings.ReplaceAll(params, " ", "") != "q=0" {
			return true
		}
	}
	return false
}
