// Package jsonrpc provides a generic JSON-RPC 2.0 client implementation over
// HTTP. It supports automatic retries via the underlying HTTP client and is
// suitable for interacting with any JSON-RPC-compatible service, such as
// blockchain nodes.
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ErrProviderReturnedError indicates that the remote JSON-RPC server returned
// an error response.
var ErrProviderReturnedError = errors.New("provider error")

// ProviderError carries the code and message of a JSON-RPC error response.
// It matches ErrProviderReturnedError under errors.Is.
type ProviderError struct {
	Code    int    // error code defined by the JSON-RPC spec or custom server logic
	Message string // human-readable error message
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: [%d] - %s", ErrProviderReturnedError, e.Code, e.Message)
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderReturnedError
}

// ShortMessage returns the provider's message without the code prefix. It is
// the form preferred for user-facing surfaces.
func (e *ProviderError) ShortMessage() string {
	return e.Message
}

// response represents a standard JSON-RPC 2.0 response.
type response struct {
	JsonRPC string `json:"jsonrpc"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Result json.RawMessage `json:"result"`
}

// Err returns an error if the response includes a JSON-RPC error object.
func (r response) Err() error {
	if r.Error == nil {
		return nil
	}

	return &ProviderError{
		Code:    r.Error.Code,
		Message: r.Error.Message,
	}
}

// Client defines the interface for a generic JSON-RPC client. It abstracts
// the underlying implementation to facilitate mocking in tests.
type Client interface {
	// Fetch sends a JSON-RPC request with the given method name and parameters.
	// It returns the raw JSON result, or an error if the request or response
	// fails.
	Fetch(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// client is the default implementation of the Client interface.
type client struct {
	providerEndpoint string       // URL of the remote JSON-RPC server
	httpClient       *http.Client // HTTP client used to perform requests
}

var _ Client = (*client)(nil)

// Fetch sends a JSON-RPC request to the remote server with the given method
// and parameters. The request id is generated as a UUID string.
func (c *client) Fetch(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      uuid.NewString(),
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.providerEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var data response
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, err
	}

	return data.Result, data.Err()
}

// NewClient constructs a Client that sends JSON-RPC requests to the specified
// provider endpoint using the given HTTP client.
func NewClient(httpClient *http.Client, providerEndpoint string) *client {
	return &client{
		providerEndpoint: providerEndpoint,
		httpClient:       httpClient,
	}
}
