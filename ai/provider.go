package ai

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/genai"
)

// Request is a single prompt, optionally with one image attached.
type Request struct {
	System    string
	Prompt    string
	Image     []byte
	MIMEType  string
	MaxTokens int
	JSON      bool // ask the model for a JSON-only answer
}

type Response struct {
	Text         string `json:"text"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
	Fallback     bool   `json:"fallback"` // served by a provider other than the primary
}

type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Response, error)
}

var (
	ErrNoProviders        = errors.New("no AI provider available")
	ErrAllProvidersFailed = errors.New("all AI providers failed")
	ErrEmptyResponse      = errors.New("empty response from model")
)

// StatusError carries the HTTP status of a failed upstream call.
type StatusError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return e.Provider + ": upstream status " + http.StatusText(e.StatusCode) + ": " + e.Err.Error()
}

func (e *StatusError) Unwrap() error { return e.Err }

// statusCode digs the HTTP status out of SDK errors, 0 when unknown.
func statusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	var ae *anthropic.Error
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	var ge genai.APIError
	if errors.As(err, &ge) {
		return ge.Code
	}
	var gp *genai.APIError
	if errors.As(err, &gp) {
		return gp.Code
	}
	return 0
}

// countsAsFailure decides whether an error should trip the breaker. Client
// mistakes (bad request, auth) and caller cancellation say nothing about
// provider health.
func countsAsFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	switch code := statusCode(err); {
	case code == 0:
		return true
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout, code >= 500:
		return true
	default:
		return false
	}
}
