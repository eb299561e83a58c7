package scene

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/terrarium/internal/logger"
	"github.com/Faultbox/terrarium/internal/tilegrid"
)

// OBJExporter writes every tile it receives as a Wavefront OBJ file named
// "{z}_{x}_{y}.obj" in Dir. Vertices are in world space.
type OBJExporter struct {
	Dir string

	mu      sync.Mutex
	written int
	lastErr error
}

// NewOBJExporter creates the output directory if needed.
func NewOBJExporter(dir string) (*OBJExporter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating obj dir: %w", err)
	}
	return &OBJExporter{Dir: dir}, nil
}

// Path returns the file a tile is written to.
func (e *OBJExporter) Path(t *tilegrid.Tile) string {
	return filepath.Join(e.Dir, fmt.Sprintf("%d_%d_%d.obj", t.Index.Zoom, t.Index.X, t.Index.Y))
}

func (e *OBJExporter) Add(t *tilegrid.Tile) {
	e.export(t)
}

func (e *OBJExporter) Update(t *tilegrid.Tile) {
	e.export(t)
}

func (e *OBJExporter) Dispose(t *tilegrid.Tile) {
	err := os.Remove(e.Path(t))
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
	}
	e.record(t, err, false)
}

// Written returns how many files were written.
func (e *OBJExporter) Written() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.written
}

// Err returns the last write or remove error, if any.
func (e *OBJExporter) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

func (e *OBJExporter) export(t *tilegrid.Tile) {
	if t.Geometry == nil {
		return
	}

	path := e.Path(t)
	tmp, err := os.CreateTemp(e.Dir, ".tile-*.obj")
	if err != nil {
		e.record(t, err, false)
		return
	}

	err = WriteOBJ(tmp, t)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
	}
	e.record(t, err, true)
}

func (e *OBJExporter) record(t *tilegrid.Tile, err error, wrote bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.lastErr = err
		logger.Warn("obj export failed", zap.String("tile", t.Key()), zap.Error(err))
		return
	}
	if wrote {
		e.written++
	}
}

// WriteOBJ writes the tile geometry, translated by the tile position.
func WriteOBJ(w io.Writer, t *tilegrid.Tile) error {
	h := t.Geometry
	if h == nil {
		return fmt.Errorf("tile %s has no geometry", t.Key())
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# terrarium tile %s\n", t.Key())
	for _, url := range t.Material.Overlay {
		fmt.Fprintf(bw, "# overlay %s\n", url)
	}
	fmt.Fprintf(bw, "o tile_%d_%d_%d\n", t.Index.Zoom, t.Index.X, t.Index.Y)

	px, py, pz := float32(t.Position.X), float32(t.Position.Y), float32(t.Position.Z)
	for _, p := range h.Positions {
		fmt.Fprintf(bw, "v %g %g %g\n", p.X()+px, p.Y()+py, p.Z()+pz)
	}
	for _, n := range h.Normals {
		fmt.Fprintf(bw, "vn %g %g %g\n", n.X(), n.Y(), n.Z())
	}
	for i := 0; i+2 < len(h.Indices); i += 3 {
		a, b, c := h.Indices[i]+1, h.Indices[i+1]+1, h.Indices[i+2]+1
		fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
	}
	return bw.Flush()
}
