package nats_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/capitalize-ai/curator-chat/internal/model"
	natsstore "github.com/capitalize-ai/curator-chat/internal/nats"
	"github.com/capitalize-ai/curator-chat/internal/store"
	"github.com/capitalize-ai/curator-chat/internal/store/storetest"
	"github.com/capitalize-ai/curator-chat/pkg/logger"
)

func openStore(t *testing.T) *natsstore.SessionStore {
	t.Helper()

	url := os.Getenv("TEST_NATS_URL")
	if url == "" {
		t.Skip("TEST_NATS_URL not set")
	}

	log, err := logger.New("error")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	ctx := context.Background()
	conn, err := natsstore.Dial(natsstore.Config{URL: url}, log)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	s, err := natsstore.NewSessionStore(ctx, conn, "test_"+uuid.NewString())
	if err != nil {
		conn.Close()
		t.Fatalf("NewSessionStore failed: %v", err)
	}
	return s
}

func TestSessionStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openStore(t)
	})
}

func TestSessionStoreDetectsConcurrentWrites(t *testing.T) {
	s := openStore(t)
	defer s.Close()

	ctx := context.Background()
	sess, err := s.Create(ctx, model.CategoryBooks, nil, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msgs := []model.Message{{ID: uuid.NewString(), Content: "hi", Sender: model.SenderUser}}
			_, err := s.AppendAndSave(ctx, sess.ID, msgs)
			if errors.Is(err, store.ErrConflict) {
				mu.Lock()
				conflicts++
				mu.Unlock()
			} else if err != nil {
				t.Errorf("AppendAndSave failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if conflicts == writers {
		t.Fatal("expected at least one write to succeed")
	}
}

func TestGetByIDRejectsInvalidKey(t *testing.T) {
	s := openStore(t)
	defer s.Close()

	sess, err := s.GetByID(context.Background(), "not a key*")
	if err != nil || sess != nil {
		t.Fatalf("expected nil, nil for invalid key, got %v, %v", sess, err)
	}
}
