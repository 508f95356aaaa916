package embedding

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/selwyth/diverse-crowd/internal/domain"
	"github.com/selwyth/diverse-crowd/internal/port"
)

// DefaultCatalog maps well-known pretrained vector names to download URLs.
var DefaultCatalog = map[string]string{
	"glove-twitter-25":  "https://github.com/RaRe-Technologies/gensim-data/releases/download/glove-twitter-25/glove-twitter-25.gz",
	"glove-twitter-50":  "https://github.com/RaRe-Technologies/gensim-data/releases/download/glove-twitter-50/glove-twitter-50.gz",
	"glove-twitter-100": "https://github.com/RaRe-Technologies/gensim-data/releases/download/glove-twitter-100/glove-twitter-100.gz",
}

// PretrainedLoader loads already-trained vectors by name, URL or local path.
// Downloads are kept under cacheDir so later runs read them from disk.
type PretrainedLoader struct {
	identifier string
	cacheDir   string
	catalog    map[string]string
	client     *http.Client
	logger     *slog.Logger
}

// NewPretrainedLoader creates a loader for identifier.
func NewPretrainedLoader(identifier, cacheDir string, catalog map[string]string, timeout time.Duration, logger *slog.Logger) *PretrainedLoader {
	if catalog == nil {
		catalog = DefaultCatalog
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PretrainedLoader{
		identifier: identifier,
		cacheDir:   cacheDir,
		catalog:    catalog,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Provide loads the configured vectors; sentences are not used.
func (l *PretrainedLoader) Provide(ctx context.Context, _ [][]string) (port.EmbeddingSpace, error) {
	return l.Load(ctx, l.identifier)
}

// Load resolves identifier and parses the vectors it points to.
// Every failure wraps domain.ErrEmbeddingLoad.
func (l *PretrainedLoader) Load(ctx context.Context, identifier string) (*KeyedVectors, error) {
	if identifier == "" {
		return nil, fmt.Errorf("%w: no pretrained vectors named", domain.ErrEmbeddingLoad)
	}

	path, err := l.resolve(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingLoad, identifier, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingLoad, identifier, err)
	}
	defer f.Close()

	start := time.Now()
	kv, err := ParseVectors(f, identifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingLoad, identifier, err)
	}

	l.logger.Info("loaded pretrained vectors",
		"name", identifier,
		"path", path,
		"vocabulary", kv.Len(),
		"dimension", kv.Dimension(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return kv, nil
}

// resolve returns a local file path for identifier, downloading it if needed.
func (l *PretrainedLoader) resolve(ctx context.Context, identifier string) (string, error) {
	url, known := l.catalog[identifier]
	if !known {
		if !strings.HasPrefix(identifier, "http://") && !strings.HasPrefix(identifier, "https://") {
			if _, err := os.Stat(identifier); err != nil {
				return "", fmt.Errorf("not a catalog name, URL or readable file: %w", err)
			}
			return identifier, nil
		}
		url = identifier
	}

	if l.cacheDir == "" {
		return "", fmt.Errorf("no vector cache directory configured")
	}
	local := filepath.Join(l.cacheDir, cacheFileName(url))
	if _, err := os.Stat(local); err == nil {
		l.logger.Debug("using cached pretrained vectors", "path", local)
		return local, nil
	}

	if err := os.MkdirAll(l.cacheDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create vector cache directory: %w", err)
	}
	if err := l.download(ctx, url, local); err != nil {
		return "", err
	}
	return local, nil
}

func (l *PretrainedLoader) download(ctx context.Context, url, dest string) error {
	l.logger.Info("downloading pretrained vectors", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

func cacheFileName(url string) string {
	name := url
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		name = "vectors"
	}
	return name
}

// ParseVectors reads word2vec/GloVe text vectors, gzip-compressed or plain.
// An optional "<count> <dimension>" header line is honoured.
func ParseVectors(r io.Reader, name string) (*KeyedVectors, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		br = bufio.NewReader(gz)
	}

	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var kv *KeyedVectors
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, " ")

		if lineNo == 1 && len(fields) == 2 {
			_, countErr := strconv.Atoi(fields[0])
			dim, dimErr := strconv.Atoi(fields[1])
			if countErr == nil && dimErr == nil {
				if dim <= 0 {
					return nil, fmt.Errorf("invalid header line: %q", line)
				}
				kv = NewKeyedVectors(name, dim)
				continue
			}
		}

		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected a token and a vector", lineNo)
		}
		if kv == nil {
			dim := trailingFloats(fields)
			if dim == 0 {
				return nil, fmt.Errorf("line %d: expected a token and a vector", lineNo)
			}
			kv = NewKeyedVectors(name, dim)
		}

		dim := kv.Dimension()
		if len(fields)-1 < dim {
			return nil, fmt.Errorf("line %d: expected %d values, got %d", lineNo, dim, len(fields)-1)
		}
		// Tokens may contain spaces; the vector is always the trailing fields.
		split := len(fields) - dim
		token := strings.Join(fields[:split], " ")
		vec := make([]float32, dim)
		for i, f := range fields[split:] {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid value %q: %w", lineNo, f, err)
			}
			vec[i] = float32(v)
		}
		if err := kv.Add(token, vec); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vectors: %w", err)
	}
	if kv == nil || kv.Len() == 0 {
		return nil, fmt.Errorf("no vectors found")
	}
	return kv, nil
}

// trailingFloats counts the numeric fields at the end of a line, leaving at
// least one field for the token.
func trailingFloats(fields []string) int {
	n := 0
	for i := len(fields) - 1; i > 0; i-- {
		if _, err := strconv.ParseFloat(fields[i], 32); err != nil {
			break
		}
		n++
	}
	return n
}
