package papersources

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/SteadfastAsArt/paper-ladder/internal/domain"
)

// WrapTransportError translates an HTTP client failure into the domain
// taxonomy. Context cancellation and deadline errors pass through unchanged
// so the aggregator can recognize its own timeouts.
func WrapTransportError(source string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &domain.TransportError{Source: source, Cause: err}
}

// NewAPIError builds an ExternalAPIError from a non-success response,
// capturing up to 1MB of the body as the message.
func NewAPIError(source string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return domain.NewExternalAPIError(source, resp.StatusCode, string(body), nil)
}

// LimitBody caps a response body at 10MB before decoding, guarding
// against resource exhaustion from a misbehaving source.
func LimitBody(resp *http.Response) io.Reader {
	return io.LimitReader(resp.Body, 10<<20)
}
