// Package verifier checks government identity documents against the
// DigiLocker verification API.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

var ErrVerificationFailed = errors.New("failed to verify document")

// Result represents the response from DigiLocker's /verify endpoint.
type Result struct {
	DocType  string `json:"doc_type"`
	DocID    string `json:"doc_id"`
	Verified bool   `json:"verified"`
	Name     string `json:"name"`
	IssuedBy string `json:"issued_by"`
}

// Client is an interface for document verification operations.
type Client interface {
	VerifyDocument(ctx context.Context, docType, docID string) (*Result, error)
}

// HTTPClient implements Client using real HTTP calls
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *HTTPClient) VerifyDocument(ctx context.Context, docType, docID string) (*Result, error) {
	url := fmt.Sprintf("%s/verify?doc_type=%s&doc_id=%s", c.baseURL, docType, docID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrVerificationFailed, resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	return &result, nil
}
