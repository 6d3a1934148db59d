// Package loader reads the staged source extracts from disk: CSV for the
// tabular federal extracts, shapefile for census place boundaries, and
// GeoJSON for park registries and boundary collections. Loaders return raw
// records; all interpretation belongs to the normalize package.
package loader

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// row is one CSV record with access to columns by header name. Missing
// columns and empty cells both read as "".
type row struct {
	rec []string
	idx map[string]int
}

func (r row) get(col string) string {
	i, ok := r.idx[col]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

func (r row) f64(col string) *float64 {
	s := r.get(col)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func (r row) i64(col string) *int64 {
	s := r.get(col)
	if s == "" {
		return nil
	}
	// Some extracts render counts as "1500.0".
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		v := int64(f)
		return &v
	}
	return nil
}

// forEachRow streams a headered CSV file, calling fn once per data row.
func forEachRow(ctx context.Context, path string, fn func(r row) error) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "loader: open %s", path)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return eris.Wrapf(err, "loader: read header of %s", path)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	for {
		if err := ctx.Err(); err != nil {
			return eris.Wrapf(err, "loader: cancelled reading %s", path)
		}
		rec, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return eris.Wrapf(err, "loader: read row of %s", path)
		}
		if err := fn(row{rec: rec, idx: idx}); err != nil {
			return err
		}
	}
}
