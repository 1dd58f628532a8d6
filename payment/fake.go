package payment

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// FakeProcessor is a test implementation of Processor. It approves every
// charge unless Fail is set, and remembers what it charged.
type FakeProcessor struct {
	mu      sync.Mutex
	Fail    error
	Charged []Payment
}

func NewFakeProcessor() *FakeProcessor {
	return &FakeProcessor{}
}

func (f *FakeProcessor) Charge(_ context.Context, p Payment) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Fail != nil {
		return "", f.Fail
	}
	f.Charged = append(f.Charged, p)
	return "TXN-" + strings.ToUpper(uuid.NewString()[:8]), nil
}
