package walkorder

import (
	"context"
	"errors"
	"fmt"
	"mail-route-tracker/internal/domain"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// fileFormat is the on-disk shape of a walk order file:
//
//	areas:
//	  "14":
//	    - street-id-a
//	    - street-id-b
type fileFormat struct {
	Areas map[string][]string `yaml:"areas"`
}

// LoadYAML reads per-area walking paths. A missing file is an empty walk order.
func LoadYAML(path string) (domain.WalkOrder, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.WalkOrder{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load walk order: read %q: %w", path, err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a walk order document. Blank ids are dropped.
func ParseYAML(data []byte) (domain.WalkOrder, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse walk order: %w", err)
	}

	out := make(domain.WalkOrder, len(f.Areas))
	for area, ids := range f.Areas {
		area = strings.TrimSpace(area)
		if area == "" {
			return nil, errors.New("parse walk order: empty area key")
		}

		seq := make([]string, 0, len(ids))
		for _, id := range ids {
			if id = strings.TrimSpace(id); id != "" {
				seq = append(seq, id)
			}
		}
		out[area] = seq
	}
	return out, nil
}

// FileSource serves the walk order from a YAML file, re-read on every call so
// edits take effect without a restart.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) WalkOrder(ctx context.Context) (domain.WalkOrder, error) {
	if s.Path == "" {
		return domain.WalkOrder{}, nil
	}
	return LoadYAML(s.Path)
}
