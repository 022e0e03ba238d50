package store_test

import (
	"context"
	"testing"

	"github.com/capitalize-ai/curator-chat/internal/model"
	"github.com/capitalize-ai/curator-chat/internal/store"
	"github.com/capitalize-ai/curator-chat/internal/store/storetest"
)

func TestMemoryStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return store.NewMemoryStore()
	})
}

func TestInstrumentedStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return store.Instrument(store.NewMemoryStore())
	})
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	created, err := s.Create(ctx, model.CategoryBooks, []model.Message{{ID: "m1", Content: "hi", Sender: model.SenderUser}}, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	created.Messages[0].Content = "mutated"

	got, err := s.GetByID(ctx, created.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Messages[0].Content != "hi" {
		t.Fatalf("stored session was mutated through returned value: %q", got.Messages[0].Content)
	}
}

func TestInstrumentIsIdempotent(t *testing.T) {
	s := store.Instrument(store.NewMemoryStore())
	if store.Instrument(s) != s {
		t.Fatal("expected Instrument to return an already wrapped store unchanged")
	}
	if s.Name() != "memory" {
		t.Fatalf("expected backend name memory, got %q", s.Name())
	}
}
