// Package fetch retrieves elevation rasters and decodes them into pixel
// buffers.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // satellite overlays
	_ "image/png"  // terrarium tiles
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/terrarium/internal/logger"
	"github.com/Faultbox/terrarium/pkg/terrarium"
	"github.com/Faultbox/terrarium/pkg/tilemath"
)

// ErrRetrieval marks a raster that could not be fetched or decoded at the
// source.
var ErrRetrieval = errors.New("raster retrieval failed")

// maxRasterBytes bounds a single response body.
const maxRasterBytes = 16 << 20

// Source yields the decoded pixels behind a raster URL.
type Source interface {
	Fetch(ctx context.Context, url string) (terrarium.PixelBuffer, error)
}

// HTTPOptions configures an HTTPSource.
type HTTPOptions struct {
	Timeout      time.Duration
	UserAgent    string
	CacheEntries int
	Client       *http.Client // optional, overrides Timeout
}

// HTTPSource fetches rasters over HTTP and caches the raw bytes.
type HTTPSource struct {
	client    *http.Client
	userAgent string
	cache     *Cache
}

// NewHTTPSource creates a new HTTP raster source.
func NewHTTPSource(opts HTTPOptions) *HTTPSource {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPSource{
		client:    client,
		userAgent: opts.UserAgent,
		cache:     NewCache(opts.CacheEntries),
	}
}

// Cache exposes the raw byte cache.
func (s *HTTPSource) Cache() *Cache {
	return s.cache
}

// Fetch downloads and decodes the raster at url.
func (s *HTTPSource) Fetch(ctx context.Context, url string) (terrarium.PixelBuffer, error) {
	if data, ok := s.cache.Get(url); ok {
		return decode(url, data)
	}

	data, err := s.download(ctx, url)
	if err != nil {
		return terrarium.PixelBuffer{}, err
	}

	buf, err := decode(url, data)
	if err != nil {
		return buf, err
	}
	s.cache.Set(url, data)
	return buf, nil
}

func (s *HTTPSource) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRetrieval, url, err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRetrieval, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: status %s", ErrRetrieval, url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRasterBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading body: %w", ErrRetrieval, url, err)
	}

	logger.Debug("raster downloaded",
		zap.String("url", url),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}

// DirSource serves rasters from a local directory laid out like the
// remote service: url "{base}/{z}/{x}/{y}.png" maps to "{root}/{z}/{x}/{y}.png".
type DirSource struct {
	Root string
	Base string
}

// Fetch reads and decodes the file behind url.
func (s DirSource) Fetch(ctx context.Context, url string) (terrarium.PixelBuffer, error) {
	if err := ctx.Err(); err != nil {
		return terrarium.PixelBuffer{}, fmt.Errorf("%w: %s: %w", ErrRetrieval, url, err)
	}

	rel := strings.TrimPrefix(strings.TrimPrefix(url, s.Base), "/")
	if rel == url && s.Base != "" {
		return terrarium.PixelBuffer{}, fmt.Errorf("%w: %s outside %s", ErrRetrieval, url, s.Base)
	}

	data, err := os.ReadFile(filepath.Join(s.Root, filepath.FromSlash(rel)))
	if err != nil {
		return terrarium.PixelBuffer{}, fmt.Errorf("%w: %s: %w", ErrRetrieval, url, err)
	}
	return decode(url, data)
}

func decode(url string, data []byte) (terrarium.PixelBuffer, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return terrarium.PixelBuffer{}, fmt.Errorf("%w: %s: decoding: %w", ErrRetrieval, url, err)
	}
	return terrarium.FromImage(img), nil
}

// ParseTileURL extracts the tile index from a url ending in "{z}/{x}/{y}.ext".
func ParseTileURL(url string) (tilemath.TileIndex, error) {
	path := url
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	if len(parts) < 3 {
		return tilemath.TileIndex{}, fmt.Errorf("no tile path in %q", url)
	}
	last := parts[len(parts)-1]
	if i := strings.IndexAny(last, ".@"); i >= 0 {
		last = last[:i]
	}

	var nums [3]int
	for i, s := range []string{parts[len(parts)-3], parts[len(parts)-2], last} {
		n, err := strconv.Atoi(s)
		if err != nil {
			return tilemath.TileIndex{}, fmt.Errorf("no tile path in %q: %w", url, err)
		}
		nums[i] = n
	}
	return tilemath.TileIndex{Zoom: nums[0], X: nums[1], Y: nums[2]}, nil
}
