package umap

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// PointMatrix is an immutable set of points of one dimensionality, stored
// flat in row-major order. Build one with NewPointMatrix or
// NewPointMatrixFlat; the zero value holds no points.
//
// A PointMatrix is safe for concurrent use: its contents and content hash
// are fixed at construction.
type PointMatrix struct {
	data     []float64
	n, dims  int
	identity uint64
}

// NewPointMatrix copies rows into a PointMatrix. All rows must share the same
// non-zero length and there must be at least one row.
func NewPointMatrix(rows [][]float64) (*PointMatrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("umap: point matrix needs at least one row: %w", ErrInsufficientData)
	}
	dims := len(rows[0])
	if dims == 0 {
		return nil, fmt.Errorf("umap: point matrix rows must have at least one dimension: %w", ErrInsufficientData)
	}
	data := make([]float64, len(rows)*dims)
	for i, row := range rows {
		if len(row) != dims {
			return nil, fmt.Errorf("umap: row %d has %d dimensions, want %d: %w", i, len(row), dims, ErrInvalidParameter)
		}
		copy(data[i*dims:], row)
	}
	return newPointMatrix(data, len(rows), dims), nil
}

// NewPointMatrixFlat wraps flat row-major data with n rows. The slice is
// copied.
func NewPointMatrixFlat(data []float64, n, dims int) (*PointMatrix, error) {
	if n < 1 || dims < 1 {
		return nil, fmt.Errorf("umap: point matrix shape %dx%d: %w", n, dims, ErrInsufficientData)
	}
	if len(data) != n*dims {
		return nil, fmt.Errorf("umap: data length %d does not match n*dims = %d: %w", len(data), n*dims, ErrInvalidParameter)
	}
	dataCopy := make([]float64, len(data))
	copy(dataCopy, data)
	return newPointMatrix(dataCopy, n, dims), nil
}

// newPointMatrix takes ownership of data.
func newPointMatrix(data []float64, n, dims int) *PointMatrix {
	return &PointMatrix{data: data, n: n, dims: dims, identity: hashPoints(data, n, dims)}
}

// N returns the number of points.
func (p *PointMatrix) N() int { return p.n }

// Dims returns the dimensionality of every point.
func (p *PointMatrix) Dims() int { return p.dims }

// Data returns a copy of the coordinates in row-major order.
func (p *PointMatrix) Data() []float64 { return append([]float64(nil), p.data...) }

// Row returns point i. The returned slice aliases the matrix and must not be
// modified.
func (p *PointMatrix) Row(i int) []float64 {
	return p.data[i*p.dims : (i+1)*p.dims]
}

// Rows returns a copy of the matrix as one slice per point.
func (p *PointMatrix) Rows() [][]float64 {
	rows := make([][]float64, p.n)
	for i := range rows {
		rows[i] = append([]float64(nil), p.Row(i)...)
	}
	return rows
}

// Identity is a content hash of the shape and every coordinate. Two matrices
// with equal contents have equal identities.
func (p *PointMatrix) Identity() uint64 { return p.identity }

func hashPoints(data []float64, n, dims int) uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	_, _ = d.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(dims))
	_, _ = d.Write(buf[:])
	for _, v := range data {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}
