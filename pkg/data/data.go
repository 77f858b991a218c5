// Package data defines the in-memory entities commands pass to each other
// through processor registries. Geometry is carried as opaque text (WKT);
// no spatial operations are performed here.
package data

import (
	"fmt"
	"strconv"
	"strings"
)

// Table is a simple column-ordered string table.
type Table struct {
	ID      string
	Columns []string
	Rows    [][]string
	Source  string // input path, if read from a file
}

// ColumnIndex returns the index of column name (case-insensitive), or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// ColumnValues returns all values of column name.
func (t *Table) ColumnValues(name string) ([]string, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("table %q has no column %q", t.ID, name)
	}
	out := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx < len(row) {
			out = append(out, row[idx])
		} else {
			out = append(out, "")
		}
	}
	return out, nil
}

// Feature is one geometry with attributes.
type Feature struct {
	Geometry   string
	Attributes map[string]string
}

// GeoLayer is a named collection of features sharing a CRS.
type GeoLayer struct {
	ID             string
	CRS            string
	GeometryFormat string
	Features       []Feature
}

// Copy returns a deep copy of the layer with a new ID. When attrs is non-empty, only
// the named attributes are kept.
func (l *GeoLayer) Copy(id string, attrs []string) *GeoLayer {
	keep := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		keep[strings.ToLower(a)] = true
	}
	out := &GeoLayer{ID: id, CRS: l.CRS, GeometryFormat: l.GeometryFormat}
	for _, f := range l.Features {
		nf := Feature{Geometry: f.Geometry, Attributes: make(map[string]string, len(f.Attributes))}
		for k, v := range f.Attributes {
			if len(keep) == 0 || keep[strings.ToLower(k)] {
				nf.Attributes[k] = v
			}
		}
		out.Features = append(out.Features, nf)
	}
	return out
}

// BoundingBoxToWKT converts "minx, miny, maxx, maxy" to a WKT polygon.
func BoundingBoxToWKT(bbox string) (string, error) {
	parts := strings.Split(bbox, ",")
	if len(parts) != 4 {
		return "", fmt.Errorf("bounding box %q: expected 4 comma-separated values", bbox)
	}
	v := make([]string, 4)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if _, err := strconv.ParseFloat(p, 64); err != nil {
			return "", fmt.Errorf("bounding box value %q is not a number", p)
		}
		v[i] = p
	}
	minx, miny, maxx, maxy := v[0], v[1], v[2], v[3]
	return fmt.Sprintf("POLYGON ((%s %s, %s %s, %s %s, %s %s, %s %s))",
		minx, miny, maxx, miny, maxx, maxy, minx, maxy, minx, miny), nil
}
