package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

var compressibleTypes = []string{
	"application/json",
	"text/html",
	"text/plain",
}

// GzipWriter compresses the response body once the handler commits to a
// compressible Content-Type. Other responses pass through untouched.
type GzipWriter struct {
	http.ResponseWriter
	gz          *gzip.Writer
	wroteHeader bool
}

func (w *GzipWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	header := w.Header()
	if shouldCompress(header, statusCode) {
		header.Set("Content-Encoding", "gzip")
		header.Add("Vary", "Accept-Encoding")
		header.Del("Content-Length")

		gz, err := gzip.NewWriterLevel(w.ResponseWriter, gzip.BestSpeed)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create gzip writer")
			header.Del("Content-Encoding")
		} else {
			w.gz = gz
		}
	}

	w.ResponseWriter.WriteHeader(statusCode)
}

// Write writes b through the compressor when compression was chosen.
func (w *GzipWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.gz != nil {
		return w.gz.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// Close flushes the compressed stream.
func (w *GzipWriter) Close() error {
	if w.gz == nil {
		return nil
	}
	return w.gz.Close()
}

func (w *GzipWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func shouldCompress(header http.Header, statusCode int) bool {
	if statusCode == http.StatusNoContent || statusCode == http.StatusNotModified ||
		(statusCode >= 300 && statusCode < 400) {
		return false
	}
	if header.Get("Content-Encoding") != "" {
		return false
	}

	contentType := header.Get("Content-Type")
	for _, t := range compressibleTypes {
		if strings.Contains(contentType, t) {
			return true
		}
	}

	return false
}

// GzipMiddleware compresses eligible responses with gzip when accepted by the client.
func GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		gw := &GzipWriter{ResponseWriter: w}
		defer func() {
			if err := gw.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to finish gzip stream")
			}
		}()

		next.ServeHTTP(gw, r)
	})
}

// GzipReader transparently decompresses gzipped request bodies.
func GzipReader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Encoding") != "gzip" {
			next.ServeHTTP(w, r)
			return
		}

		gzReader, err := gzip.NewReader(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read gzipped request")
			return
		}
		defer gzReader.Close()

		r.Body = io.NopCloser(gzReader)
		r.ContentLength = -1
		r.Header.Del("Content-Encoding")

		next.ServeHTTP(w, r)
	})
}
