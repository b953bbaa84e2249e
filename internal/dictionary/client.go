// apps/party-server/internal/dictionary/client.go
//
// HTTP client for the third-party dictionary API.
// Two endpoints are used:
//   - a random-word endpoint (API key required) answering {"word": "..."};
//   - an entry lookup endpoint where 200 means the word exists and 404 means it does not.
//
// The client performs no fallback itself; words.Source decides what to do with errors.

package dictionary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrNotConfigured is returned by RandomWord when no API key is set.
	ErrNotConfigured = errors.New("dictionary: random word api not configured")
	// ErrMalformed is returned when the upstream payload cannot be used.
	ErrMalformed = errors.New("dictionary: malformed response")
)

// Config holds the endpoints and credentials of the dictionary API.
type Config struct {
	RandomWordURL string
	LookupURL     string
	APIKey        string
	Timeout       time.Duration
}

// Client talks to the dictionary API.
type Client struct {
	http      *http.Client
	randomURL string
	lookupURL string
	apiKey    string
}

// New builds a Client. A zero Timeout defaults to 5 seconds.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		randomURL: cfg.RandomWordURL,
		lookupURL: strings.TrimRight(cfg.LookupURL, "/"),
		apiKey:    cfg.APIKey,
	}
}

type randomWordRes struct {
	Word string `json:"word"`
}

// RandomWord asks the API for a random 5-letter word.
func (c *Client) RandomWord(ctx context.Context) (string, error) {
	if c.apiKey == "" || c.randomURL == "" {
		return "", ErrNotConfigured
	}
	u, err := url.Parse(c.randomURL)
	if err != nil {
		return "", fmt.Errorf("dictionary: parse random url: %w", err)
	}
	q := u.Query()
	q.Set("hasDictionaryDef", "true")
	q.Set("minLength", "5")
	q.Set("maxLength", "5")
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("dictionary: random word: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("dictionary: random word: unexpected status %d", res.StatusCode)
	}
	var body randomWordRes
	if err := json.NewDecoder(io.LimitReader(res.Body, 64<<10)).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	w := strings.TrimSpace(body.Word)
	if len(w) != 5 {
		return "", fmt.Errorf("%w: %q is not a 5-letter word", ErrMalformed, w)
	}
	return strings.ToUpper(w), nil
}

// Exists looks word up in the dictionary.
func (c *Client) Exists(ctx context.Context, word string) (bool, error) {
	if c.lookupURL == "" {
		return false, ErrNotConfigured
	}
	endpoint := c.lookupURL + "/" + url.PathEscape(strings.ToLower(word))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("dictionary: lookup: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("dictionary: lookup: unexpected status %d", res.StatusCode)
	}
}
