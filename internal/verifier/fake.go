package verifier

import "context"

// FakeClient is a test implementation of Client
type FakeClient struct {
	Documents map[string]*Result // keyed by doc ID
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		Documents: make(map[string]*Result),
	}
}

func (c *FakeClient) VerifyDocument(ctx context.Context, docType, docID string) (*Result, error) {
	if result, ok := c.Documents[docID]; ok {
		return result, nil
	}
	return nil, ErrVerificationFailed
}

// AddDocument adds a verifiable document to the fake for testing
func (c *FakeClient) AddDocument(docID string, result *Result) {
	c.Documents[docID] = result
}
