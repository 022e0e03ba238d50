package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/capitalize-ai/curator-chat/internal/llm"
	"github.com/capitalize-ai/curator-chat/internal/model"
	"github.com/capitalize-ai/curator-chat/internal/store"
	"github.com/capitalize-ai/curator-chat/pkg/logger"
)

// fakeClient is an llm.Client returning a canned reply.
type fakeClient struct {
	mu       sync.Mutex
	reply    string
	err      error
	block    bool
	requests []*llm.CompletionRequest
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply, Model: "fake-1", TokensIn: 10, TokensOut: 5}, nil
}

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeClient) lastPrompt(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("expected a completion request")
	}
	req := f.requests[len(f.requests)-1]
	if len(req.Messages) != 1 {
		t.Fatalf("expected a single prompt message, got %d", len(req.Messages))
	}
	return req.Messages[0].Content
}

// failingStore fails every AppendAndSave.
type failingStore struct {
	store.Store
}

func (f failingStore) AppendAndSave(ctx context.Context, id string, messages []model.Message) (*model.ChatSession, error) {
	return nil, errors.New("disk on fire")
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newTestService(t *testing.T, client llm.Client, s store.Store) *ChatService {
	t.Helper()
	log := testLogger(t)
	return NewChatService(s, NewResponseGenerator(client, GeneratorConfig{}, log), log)
}
