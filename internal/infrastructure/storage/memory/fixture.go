package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"careindex/internal/domain/filter"
)

// LoadFile reads a JSON fixture (an array of objects keyed by logical
// column name) and types every value against the catalog.
func LoadFile(path string, cat *filter.Catalog) ([]filter.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	records, err := Load(f, cat)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return records, nil
}

// Load decodes fixture records from r. Unknown keys are an error.
func Load(r io.Reader, cat *filter.Catalog) ([]filter.Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	out := make([]filter.Record, 0, len(raw))
	for i, obj := range raw {
		rec := make(filter.Record, len(obj))
		for name, v := range obj {
			col, err := cat.Resolve(name)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			typed, err := typeValue(col, v)
			if err != nil {
				return nil, fmt.Errorf("record %d, %s: %w", i, name, err)
			}
			rec[name] = typed
		}
		out = append(out, rec)
	}
	return out, nil
}

// typeValue converts a decoded JSON value to the representation executors
// compare against: string, int64, float64, time.Time, bool or "Y"/"N".
func typeValue(col filter.Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch col.Type {
	case filter.TypeString:
		switch t := v.(type) {
		case string:
			return t, nil
		case json.Number:
			return t.String(), nil
		}

	case filter.TypeInteger:
		switch t := v.(type) {
		case json.Number:
			return t.Int64()
		case string:
			return strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		}

	case filter.TypeFloat:
		switch t := v.(type) {
		case json.Number:
			return t.Float64()
		case string:
			return strconv.ParseFloat(strings.TrimSpace(t), 64)
		}

	case filter.TypeDate:
		if s, ok := v.(string); ok {
			return time.Parse(filter.DateLayout, s)
		}

	case filter.TypeFlag:
		if col.Flag == filter.FlagYesNo {
			switch t := v.(type) {
			case string:
				if s := strings.ToUpper(t); s == "Y" || s == "N" {
					return s, nil
				}
			case bool:
				if t {
					return "Y", nil
				}
				return "N", nil
			}
			break
		}
		if b, ok := v.(bool); ok {
			return b, nil
		}
	}
	return nil, fmt.Errorf("cannot use %v (%T) as %s", v, v, col.Type)
}
