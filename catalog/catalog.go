// Package catalog loads the breakfast menu catalog from a CSV source.
//
// The catalog is a read-only snapshot: it is re-read from scratch for
// every recommendation request, and nothing in this package mutates it.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/robertmeta/morning-cli/model"
)

// ErrUnavailable is returned when the catalog source is missing or
// unparsable. It is fatal to the surrounding request; callers must not
// substitute a stale or fabricated catalog.
var ErrUnavailable = errors.New("catalog unavailable")

// Required header columns, in any order.
var requiredColumns = []string{"name", "tag", "time", "weather_match"}

// Load reads the catalog CSV at path.
func Load(path string) ([]model.MenuItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()

	items, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	return items, nil
}

// Parse reads catalog records from r. The first row must be a header
// containing name, tag, time and weather_match columns.
func Parse(r io.Reader) ([]model.MenuItem, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("catalog is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}

	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var items []model.MenuItem
	seen := make(map[string]bool)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog record: %w", err)
		}

		item, err := recordToItem(record, cols)
		if err != nil {
			return nil, err
		}

		// Name is the join key to feedback history, so it must be
		// unique within a snapshot.
		if seen[item.Name] {
			return nil, fmt.Errorf("duplicate menu item name: %q", item.Name)
		}
		seen[item.Name] = true
		items = append(items, item)
	}

	return items, nil
}

// columnIndex maps required column names to their positions in the header.
func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}

	for _, required := range requiredColumns {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("catalog header is missing column %q", required)
		}
	}
	return cols, nil
}

func recordToItem(record []string, cols map[string]int) (model.MenuItem, error) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return record[i]
	}

	prepTime, err := strconv.Atoi(field("time"))
	if err != nil {
		return model.MenuItem{}, fmt.Errorf("invalid time for menu item %q: %w", field("name"), err)
	}

	item := model.MenuItem{
		Name:         field("name"),
		Tag:          field("tag"),
		Time:         prepTime,
		WeatherMatch: field("weather_match"),
	}

	if err := item.Validate(); err != nil {
		return model.MenuItem{}, err
	}
	return item, nil
}
