// Package batch reads sticker lists and converts their entries with a
// bounded worker pool.
package batch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyList is returned when a list file contains no entries.
	ErrEmptyList = errors.New("batch: list has no entries")
	// ErrInvalidList is returned when a list file cannot be parsed.
	ErrInvalidList = errors.New("batch: invalid list")
)

// Item is one entry of a sticker list.
type Item struct {
	// Source is an emote ID, an http(s) URL or a local path.
	Source string `yaml:"source" validate:"required"`
	// Name optionally overrides the sticker name.
	Name string `yaml:"name,omitempty"`
}

type yamlList struct {
	Stickers []Item `yaml:"stickers" validate:"dive"`
}

// ReadList loads the list at path. Files ending in .yaml or .yml are parsed
// as YAML, anything else as a plain text list.
func ReadList(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list: %w", err)
	}
	defer f.Close()

	var items []Item
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		items, err = ParseYAML(f)
	default:
		items, err = ParseText(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// ParseText reads one identifier per line. Blank lines and lines starting
// with # are skipped.
func ParseText(r io.Reader) ([]Item, error) {
	var items []Item
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		items = append(items, Item{Source: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidList, err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyList
	}
	return items, nil
}

// ParseYAML reads a document of the form:
//
//	stickers:
//	  - source: 01F6MQ33FG000FFJ97ZB8MWV52
//	    name: pepeLaugh
func ParseYAML(r io.Reader) ([]Item, error) {
	var list yamlList
	if err := yaml.NewDecoder(r).Decode(&list); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyList
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidList, err)
	}

	for i := range list.Stickers {
		list.Stickers[i].Source = strings.TrimSpace(list.Stickers[i].Source)
		list.Stickers[i].Name = strings.TrimSpace(list.Stickers[i].Name)
	}
	if len(list.Stickers) == 0 {
		return nil, ErrEmptyList
	}
	if err := validator.New().Struct(list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidList, err)
	}
	return list.Stickers, nil
}
