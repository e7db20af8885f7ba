package middleware

import (
	"bufio"
	"bytes"
	"net"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// BrotliConfig tunes response compression.
type BrotliConfig struct {
	Quality      int
	MinLength    int
	SkipPrefixes []string
}

// DefaultBrotliConfig compresses JSON bodies of 1 KiB and more. Exam papers
// with rendered math are the main beneficiary.
var DefaultBrotliConfig = BrotliConfig{
	Quality:   brotli.DefaultCompression,
	MinLength: 1024,
}

type brotliMode int

const (
	modePending brotliMode = iota
	modePlain
	modeCompressed
)

// brotliWriter buffers until MinLength bytes are seen, then commits to
// either plain or compressed output for the rest of the response.
type brotliWriter struct {
	gin.ResponseWriter
	quality   int
	minLength int
	mode      brotliMode
	buf       bytes.Buffer
	br        *brotli.Writer
}

func (w *brotliWriter) Write(p []byte) (int, error) {
	switch w.mode {
	case modePlain:
		return w.ResponseWriter.Write(p)
	case modeCompressed:
		return w.br.Write(p)
	}

	w.buf.Write(p)
	if w.buf.Len() < w.minLength {
		return len(p), nil
	}
	if err := w.commit(modeCompressed); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *brotliWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Flush commits what is buffered so far and flushes the connection.
func (w *brotliWriter) Flush() {
	switch w.mode {
	case modePending:
		_ = w.commit(modePlain)
	case modeCompressed:
		_ = w.br.Flush()
	}
	w.ResponseWriter.Flush()
}

func (w *brotliWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.Hijack()
}

func (w *brotliWriter) commit(mode brotliMode) error {
	w.mode = mode
	if mode == modeCompressed {
		h := w.ResponseWriter.Header()
		h.Set("Content-Encoding", "br")
		h.Del("Content-Length")
		w.br = brotli.NewWriterLevel(w.ResponseWriter, w.quality)
		_, err := w.br.Write(w.buf.Bytes())
		w.buf.Reset()
		return err
	}
	if w.buf.Len() == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.buf.Bytes())
	w.buf.Reset()
	return err
}

// close finishes the response once the handler returned.
func (w *brotliWriter) close() error {
	switch w.mode {
	case modePending:
		return w.commit(modePlain)
	case modeCompressed:
		return w.br.Close()
	}
	return nil
}

// Brotli compresses responses with the default configuration.
func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

// BrotliWithConfig compresses responses for clients sending
// Accept-Encoding: br. Streams and upgrades pass through untouched.
func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < brotli.BestSpeed || cfg.Quality > brotli.BestCompression {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}

	return func(c *gin.Context) {
		if !acceptsBrotli(c.Request) || isStream(c) || hasPrefix(c.Request.URL.Path, cfg.SkipPrefixes) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")
		bw := &brotliWriter{
			ResponseWriter: c.Writer,
			quality:        cfg.Quality,
			minLength:      cfg.MinLength,
		}
		c.Writer = bw
		defer func() {
			if err := bw.close(); err != nil {
				_ = c.Error(err)
			}
		}()
		c.Next()
	}
}

func isStream(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/event-stream") ||
		strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if strings.EqualFold(name, "br") {
			return true
		}
	}
	return false
}
