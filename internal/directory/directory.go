// Package directory loads the exchange name to affiliate URL mapping.
package directory

import (
	"context"
	"errors"
	"strings"

	"github.com/navid-fn/listing-radar/internal/models"
)

const (
	NameColumn = "Name"
	LinkColumn = "Link"
)

var (
	ErrNoRows         = errors.New("no data found in directory source")
	ErrMissingColumns = errors.New("required columns 'Name' and 'Link' not found")
	ErrMissingConfig  = errors.New("directory source is not configured")
)

// Loader produces a fresh directory for one run.
type Loader interface {
	Load(ctx context.Context) (models.Directory, error)
	Name() string
}

// FromRows builds a directory from a header-indexed table. The first row is the header;
// columns are located by name. Rows without a value at either position are skipped.
func FromRows(rows [][]string) (models.Directory, error) {
	dir := models.Directory{}
	if len(rows) == 0 {
		return dir, ErrNoRows
	}

	nameIdx, linkIdx := indexOf(rows[0], NameColumn), indexOf(rows[0], LinkColumn)
	if nameIdx < 0 || linkIdx < 0 {
		return dir, ErrMissingColumns
	}

	for _, row := range rows[1:] {
		if len(row) <= max(nameIdx, linkIdx) {
			continue
		}
		name, link := row[nameIdx], row[linkIdx]
		if strings.TrimSpace(name) == "" || strings.TrimSpace(link) == "" {
			continue
		}
		dir[name] = link
	}
	return dir, nil
}

func indexOf(header []string, column string) int {
	for i, h := range header {
		if h == column {
			return i
		}
	}
	return -1
}
