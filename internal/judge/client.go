package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codearena/codearena/internal/config"
)

// ErrUnsupportedLanguage is returned before any network call when the
// requested language has no runtime mapping.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Runtime is the fixed (name, version) pair the execution service expects.
type Runtime struct {
	Name    string
	Version string
}

// runtimes is the static client-side table of supported language identifiers.
var runtimes = map[string]Runtime{
	"c":          {Name: "c", Version: "10.2.0"},
	"cpp":        {Name: "c++", Version: "10.2.0"},
	"java":       {Name: "java", Version: "15.0.2"},
	"python":     {Name: "python", Version: "3.10.0"},
	"javascript": {Name: "javascript", Version: "18.15.0"},
	"typescript": {Name: "typescript", Version: "5.0.3"},
	"go":         {Name: "go", Version: "1.16.2"},
	"rust":       {Name: "rust", Version: "1.68.2"},
}

// SupportedLanguages returns the language identifiers the client accepts.
func SupportedLanguages() []string {
	langs := make([]string, 0, len(runtimes))
	for lang := range runtimes {
		langs = append(langs, lang)
	}
	return langs
}

// RunResult is the normalized outcome of executing one piece of code against
// one stdin.
type RunResult struct {
	Stdout   string
	Stderr   string
	TimeMS   int64
	MemoryKB int64
}

// Client talks to the external code-execution service. One call runs one
// (source, language, stdin) triple; there are no retries.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg config.Judge) *Client {
	return &Client{
		baseURL: cfg.URL,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

type executeRequest struct {
	Language string        `json:"language"`
	Version  string        `json:"version"`
	Files    []executeFile `json:"files"`
	Stdin    string        `json:"stdin"`
}

type executeFile struct {
	Content string `json:"content"`
}

type executeResponse struct {
	Run struct {
		Stdout   string  `json:"stdout"`
		Stderr   string  `json:"stderr"`
		Code     int     `json:"code"`
		WallTime float64 `json:"wall_time"`
		Memory   int64   `json:"memory"`
	} `json:"run"`
	Message string `json:"message"`
}

// Execute runs source code against one stdin and normalizes the response.
// Any transport failure or non-2xx status surfaces as a single execution
// error; response bodies beyond the run object are not validated.
func (c *Client) Execute(ctx context.Context, language, source, stdin string) (*RunResult, error) {
	rt, ok := runtimes[language]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	payload, err := json.Marshal(executeRequest{
		Language: rt.Name,
		Version:  rt.Version,
		Files:    []executeFile{{Content: source}},
		Stdin:    stdin,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/execute", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("code execution request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("code execution request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("code execution request failed: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var execResp executeResponse
	if err := json.Unmarshal(body, &execResp); err != nil {
		return nil, fmt.Errorf("code execution request failed: %w", err)
	}

	return &RunResult{
		Stdout:   execResp.Run.Stdout,
		Stderr:   execResp.Run.Stderr,
		TimeMS:   int64(execResp.Run.WallTime),
		MemoryKB: execResp.Run.Memory / 1024,
	}, nil
}
