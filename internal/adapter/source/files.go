package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/selwyth/diverse-crowd/internal/domain"
	"github.com/selwyth/diverse-crowd/internal/port"
)

// FileSource reads records from JSON Lines files under a directory.
// Each line holds {"text": "...", "author": "..."}.
type FileSource struct {
	root   string
	walker port.FileWalker
	logger *slog.Logger
}

// NewFileSource creates a source reading files that walker finds under root.
func NewFileSource(root string, walker port.FileWalker, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{root: root, walker: walker, logger: logger}
}

// Fetch returns records in file then line order. A non-empty author list
// restricts the result to those authors.
func (s *FileSource) Fetch(ctx context.Context, authors []string) (domain.Batch, error) {
	files, err := s.walker.Walk(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", s.root, err)
	}

	var keep map[string]struct{}
	if len(authors) > 0 {
		keep = make(map[string]struct{}, len(authors))
		for _, a := range authors {
			keep[a] = struct{}{}
		}
	}

	var batch domain.Batch
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := readRecords(f.Path)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			if keep != nil {
				if _, ok := keep[r.Author]; !ok {
					continue
				}
			}
			batch = append(batch, r)
		}
		s.logger.Debug("read post file", "path", f.Path, "records", len(records))
	}
	return batch, nil
}

func readRecords(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []domain.Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var r domain.Record
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		if r.Author == "" {
			return nil, fmt.Errorf("%s:%d: record has no author", path, lineNo)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, nil
}
