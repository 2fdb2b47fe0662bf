// Package gemini invokes the Gemini reasoning CLI as a subprocess, with
// model fallback, retry on transient failures, and response caching.
package gemini

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"text/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/jamubc/gemini-mcp-tool-sub000/internal/metrics"
)

const (
	// DefaultBinary is the Gemini CLI executable name.
	DefaultBinary = "gemini"

	maxAttemptsPerModel = 2
	retryBackoff        = 500 * time.Millisecond
)

// DefaultModels is the fallback chain tried in order.
var DefaultModels = []string{"gemini-2.5-pro", "gemini-2.5-flash"}

// promptTemplate wraps prior history and the new turn into the single
// prompt string the CLI receives.
var promptTemplate = template.Must(template.New("prompt").Parse(
	`{{if .History}}{{.History}}
{{end}}[{{.Agent}}]: {{.Message}}`))

// Request is one reasoning turn: prior transcript plus the new message.
type Request struct {
	History string
	Agent   string
	Message string
}

// runFunc executes the CLI; replaceable in tests.
type runFunc func(ctx context.Context, bin string, args []string) (string, error)

// Client invokes the Gemini CLI.
type Client struct {
	bin     string
	models  []string
	timeout time.Duration
	logger  zerolog.Logger
	cache   *responseCache
	run     runFunc
}

// NewClient creates a CLI client. Empty bin or models fall back to defaults.
func NewClient(bin string, models []string, timeout time.Duration, logger zerolog.Logger) *Client {
	if bin == "" {
		bin = DefaultBinary
	}
	if len(models) == 0 {
		models = DefaultModels
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		bin:     bin,
		models:  models,
		timeout: timeout,
		logger:  logger,
		cache:   newResponseCache(10 * time.Minute),
		run:     runCLI,
	}
}

// BuildPrompt renders the prompt the CLI will receive.
func BuildPrompt(req Request) (string, error) {
	var b strings.Builder
	if err := promptTemplate.Execute(&b, req); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Ask sends one reasoning turn to the CLI. Models are tried in fallback
// order; transient failures are retried per model. Identical prompts within
// the cache window are served from cache without an invocation.
func (c *Client) Ask(ctx context.Context, req Request) (string, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return "", err
	}

	if cached, ok := c.cache.get(prompt); ok {
		metrics.GeminiCacheHits.Inc()
		return cached, nil
	}

	var lastErr error
	for _, model := range c.models {
		for attempt := 1; attempt <= maxAttemptsPerModel; attempt++ {
			out, err := c.invoke(ctx, model, prompt)
			if err == nil {
				metrics.GeminiCalls.WithLabelValues(model, "ok").Inc()
				c.cache.put(prompt, out)
				return out, nil
			}
			metrics.GeminiCalls.WithLabelValues(model, "error").Inc()
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			c.logger.Warn().
				Err(err).
				Str("model", model).
				Int("attempt", attempt).
				Msg("gemini invocation failed")
			if !transient(err) {
				break // next model
			}
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", fmt.Errorf("all models failed: %w", lastErr)
}

// invoke runs one CLI call with a per-call timeout.
func (c *Client) invoke(ctx context.Context, model, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	out, err := c.run(callCtx, c.bin, []string{"-m", model, "-p", prompt})
	metrics.GeminiLatency.Observe(time.Since(start).Seconds())
	return out, err
}

// runCLI executes the binary and returns trimmed stdout.
func runCLI(ctx context.Context, bin string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%s: %s", bin, msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// transient reports whether the failure is worth retrying on the same model.
func transient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "quota", "rate limit", "unavailable", "timeout", "temporar"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
