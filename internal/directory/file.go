package directory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/navid-fn/listing-radar/internal/models"
)

// fileDocument is the YAML layout:
//
//	exchanges:
//	  - name: Binance
//	    link: https://aff/binance
type fileDocument struct {
	Exchanges []struct {
		Name string `yaml:"name"`
		Link string `yaml:"link"`
	} `yaml:"exchanges"`
}

// File reads the directory from a local YAML file, for offline runs.
type File struct {
	path string
}

func NewFile(path string) *File { return &File{path: path} }

func (f *File) Name() string { return "file" }

func (f *File) Load(_ context.Context) (models.Directory, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return models.Directory{}, fmt.Errorf("failed to read directory file: %w", err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return models.Directory{}, fmt.Errorf("failed to parse directory file: %w", err)
	}

	rows := [][]string{{NameColumn, LinkColumn}}
	for _, e := range doc.Exchanges {
		rows = append(rows, []string{e.Name, e.Link})
	}
	if len(rows) == 1 {
		return models.Directory{}, ErrNoRows
	}
	return FromRows(rows)
}
