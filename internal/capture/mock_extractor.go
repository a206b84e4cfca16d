package capture

import (
	"context"
	"sync"

	"github.com/veranek/receiptwise/internal/model"
)

// MockExtractor is a test implementation of the Extractor interface.
// It answers with a fixed draft or error and records every request.
type MockExtractor struct {
	// Draft is the answer for every request unless Err is set.
	Draft model.Draft
	// Err makes every request fail.
	Err error
	// Block, when non-nil, is received from before answering. Lets
	// tests hold an extraction in flight.
	Block chan struct{}

	calls []MockExtractCall
	mu    sync.Mutex
}

// MockExtractCall records one extraction request.
type MockExtractCall struct {
	ArtifactName    string
	KnownCategories []string
}

// Extract answers with the configured draft or error.
func (m *MockExtractor) Extract(ctx context.Context, artifact model.ImageArtifact, knownCategories []string) (model.Draft, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockExtractCall{
		ArtifactName:    artifact.Name,
		KnownCategories: append([]string{}, knownCategories...),
	})
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return model.Draft{}, ctx.Err()
		}
	}

	if m.Err != nil {
		return model.Draft{}, m.Err
	}
	return m.Draft, nil
}

// Calls returns the recorded requests, in order.
func (m *MockExtractor) Calls() []MockExtractCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockExtractCall{}, m.calls...)
}
