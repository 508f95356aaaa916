package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/selwyth/diverse-crowd/internal/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const DefaultTwitterBaseURL = "https://api.twitter.com/2"

// TwitterConfig configures the Twitter API v2 client.
type TwitterConfig struct {
	BaseURL           string
	BearerToken       string
	MaxResults        int     // tweets per author, 5..100
	RequestsPerSecond float64 // 0 disables pacing
	Concurrency       int
	Timeout           time.Duration
}

// TwitterSource fetches recent tweets for each author with an app bearer token.
type TwitterSource struct {
	cfg      TwitterConfig
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	progress func(done, total int)
}

type userResponse struct {
	Data   *twitterUser `json:"data"`
	Errors []apiError   `json:"errors,omitempty"`
}

type twitterUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type tweetsResponse struct {
	Data   []tweet    `json:"data"`
	Errors []apiError `json:"errors,omitempty"`
}

type tweet struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// NewTwitterSource creates a client. The bearer token must be set.
func NewTwitterSource(cfg TwitterConfig, logger *slog.Logger) (*TwitterSource, error) {
	if cfg.BearerToken == "" {
		return nil, fmt.Errorf("twitter bearer token is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTwitterBaseURL
	}
	if cfg.MaxResults < 5 {
		cfg.MaxResults = 5
	}
	if cfg.MaxResults > 100 {
		cfg.MaxResults = 100
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &TwitterSource{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}, nil
}

// NewTwitterSourceFromEnv reads the bearer token from the named environment variable.
func NewTwitterSourceFromEnv(tokenEnv string, cfg TwitterConfig, logger *slog.Logger) (*TwitterSource, error) {
	cfg.BearerToken = os.Getenv(tokenEnv)
	if cfg.BearerToken == "" {
		return nil, fmt.Errorf("bearer token not found in environment variable: %s", tokenEnv)
	}
	return NewTwitterSource(cfg, logger)
}

// OnProgress registers a callback invoked after each author is fetched.
func (s *TwitterSource) OnProgress(fn func(done, total int)) {
	s.progress = fn
}

// Fetch returns the recent tweets of every author, grouped in roster order.
func (s *TwitterSource) Fetch(ctx context.Context, authors []string) (domain.Batch, error) {
	perAuthor := make([]domain.Batch, len(authors))

	var (
		mu   sync.Mutex
		done int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, author := range authors {
		i, author := i, author
		g.Go(func() error {
			records, err := s.fetchAuthor(ctx, author)
			if err != nil {
				return fmt.Errorf("failed to fetch %s: %w", author, err)
			}
			perAuthor[i] = records

			mu.Lock()
			done++
			if s.progress != nil {
				s.progress(done, len(authors))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var batch domain.Batch
	for _, records := range perAuthor {
		batch = append(batch, records...)
	}
	return batch, nil
}

func (s *TwitterSource) fetchAuthor(ctx context.Context, username string) (domain.Batch, error) {
	var user userResponse
	if err := s.get(ctx, "/users/by/username/"+url.PathEscape(username), nil, &user); err != nil {
		return nil, err
	}
	if user.Data == nil {
		return nil, fmt.Errorf("user lookup failed: %s", describe(user.Errors))
	}

	params := url.Values{}
	params.Set("max_results", strconv.Itoa(s.cfg.MaxResults))
	var tweets tweetsResponse
	if err := s.get(ctx, "/users/"+url.PathEscape(user.Data.ID)+"/tweets", params, &tweets); err != nil {
		return nil, err
	}
	if len(tweets.Data) == 0 && len(tweets.Errors) > 0 {
		return nil, fmt.Errorf("timeline fetch failed: %s", describe(tweets.Errors))
	}

	records := make(domain.Batch, 0, len(tweets.Data))
	for _, t := range tweets.Data {
		records = append(records, domain.Record{Text: t.Text, Author: user.Data.Username})
	}

	s.logger.Debug("fetched timeline", "author", user.Data.Username, "tweets", len(records))
	return records, nil
}

func (s *TwitterSource) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	u := s.cfg.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.BearerToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, preview(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response (body: %s): %w", preview(body), err)
	}
	return nil
}

func describe(errs []apiError) string {
	if len(errs) == 0 {
		return "no data returned"
	}
	if errs[0].Detail != "" {
		return errs[0].Detail
	}
	return errs[0].Title
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
