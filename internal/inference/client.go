package inference

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resume-ingest/internal/shared/telemetry"
)

// Completer sends one system/user prompt pair to a text-inference service and
// returns the raw reply.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Client turns resume text into a Profile through a Completer.
type Client struct {
	completer Completer
	provider  string
	timeout   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each Complete call. Zero leaves only the caller's deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithProvider names the backing service in logs.
func WithProvider(name string) Option {
	return func(c *Client) { c.provider = name }
}

// NewClient creates a Client. A nil completer behaves as unconfigured.
func NewClient(completer Completer, opts ...Option) *Client {
	if completer == nil {
		completer = NotConfigured("")
	}
	c := &Client{completer: completer}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Infer always returns a usable Profile. A non-nil error is an *Error and
// means the profile is the fixed fallback.
func (c *Client) Infer(ctx context.Context, text, fileName string, experienceHint float64) (Profile, error) {
	fields := map[string]any{
		"provider":        c.provider,
		"file_name":       fileName,
		"text_chars":      len([]rune(text)),
		"experience_hint": experienceHint,
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := c.completer.Complete(callCtx, SystemPrompt, UserPrompt(text, fileName, experienceHint))
	fields["duration_ms"] = time.Since(start).Milliseconds()
	if err != nil {
		ie := classify(err)
		fields["kind"] = string(ie.Kind)
		fields["status_code"] = ie.StatusCode
		fields["err"] = telemetry.Truncate(err.Error(), 500)
		telemetry.Warn("inference.fallback", fields)
		return Fallback(experienceHint), ie
	}

	obj, err := parseObject(raw)
	if err != nil {
		fields["kind"] = string(KindMalformedResponse)
		fields["response_preview"] = telemetry.Truncate(raw, 200)
		telemetry.Warn("inference.fallback", fields)
		return Fallback(experienceHint), &Error{Kind: KindMalformedResponse, Err: err}
	}

	if err := validateShape(obj); err != nil {
		fields["schema_violation"] = telemetry.Truncate(err.Error(), 500)
	}
	decoded, err := decodeLenient(obj)
	if err != nil {
		fields["decode_errors"] = telemetry.Truncate(err.Error(), 500)
	}

	profile := sanitize(decoded, experienceHint)
	fields["skills"] = len(profile.Skills)
	fields["ats_score"] = profile.ATSScore
	telemetry.Info("inference.complete", fields)
	return profile, nil
}

type notConfigured struct {
	provider string
}

// NotConfigured returns a Completer that always fails with ErrNotConfigured.
// It stands in for a provider whose credential is missing.
func NotConfigured(provider string) Completer {
	return notConfigured{provider: strings.TrimSpace(provider)}
}

func (n notConfigured) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if n.provider == "" {
		return "", ErrNotConfigured
	}
	return "", fmt.Errorf("%s: %w", n.provider, ErrNotConfigured)
}
