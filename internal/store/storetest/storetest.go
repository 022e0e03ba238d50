// Package storetest is a contract suite every store.Store variant must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/curator-chat/internal/model"
	"github.com/capitalize-ai/curator-chat/internal/store"
)

// Factory returns a ready store for a single subtest. The suite closes it.
type Factory func(t *testing.T) store.Store

// Run exercises the full store contract against the variant built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"GetMissingReturnsNil", testGetMissing},
		{"CreateRoundTrip", testCreateRoundTrip},
		{"CreateRequiresCategory", testCreateRequiresCategory},
		{"CreateGuestSession", testCreateGuest},
		{"AppendReplacesMessages", testAppendReplaces},
		{"AppendMissingSession", testAppendMissing},
		{"ListByOwnerOrdering", testListOrdering},
		{"ListByUnknownOwner", testListUnknownOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { s.Close() })
			tt.fn(t, s)
		})
	}
}

func testGetMissing(t *testing.T, s store.Store) {
	sess, err := s.GetByID(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("GetByID returned error for missing session: %v", err)
	}
	if sess != nil {
		t.Fatalf("expected nil session, got %+v", sess)
	}
}

func testCreateRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := "owner-" + uuid.NewString()
	msgs := conversation(model.CategoryBooks, "hi", "hello reader")

	created, err := s.Create(ctx, model.CategoryBooks, msgs, owner)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a session id")
	}
	if created.CreatedAt.IsZero() || !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("expected createdAt == updatedAt, got %v / %v", created.CreatedAt, created.UpdatedAt)
	}

	got, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected stored session, got nil")
	}
	assertSameSession(t, created, got)
	assertMessages(t, msgs, got.Messages)
}

func testCreateRequiresCategory(t *testing.T, s store.Store) {
	_, err := s.Create(context.Background(), "", nil, "")
	if !errors.Is(err, store.ErrMissingCategory) {
		t.Fatalf("expected ErrMissingCategory, got %v", err)
	}
}

func testCreateGuest(t *testing.T, s store.Store) {
	ctx := context.Background()
	created, err := s.Create(ctx, model.CategoryMusic, nil, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.UserID != "" {
		t.Fatalf("expected no owner, got %q", created.UserID)
	}
	if created.Messages == nil || len(created.Messages) != 0 {
		t.Fatalf("expected empty message list, got %v", created.Messages)
	}

	got, err := s.GetByID(ctx, created.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.UserID != "" || len(got.Messages) != 0 {
		t.Fatalf("unexpected guest session %+v", got)
	}
}

func testAppendReplaces(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := "owner-" + uuid.NewString()

	created, err := s.Create(ctx, model.CategoryTravel, nil, owner)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	msgs := conversation(model.CategoryTravel, "beach", "which coast?", "west", "how long?")
	updated, err := s.AppendAndSave(ctx, created.ID, msgs)
	if err != nil {
		t.Fatalf("AppendAndSave failed: %v", err)
	}
	assertMessages(t, msgs, updated.Messages)
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Fatalf("updatedAt went backwards: %v < %v", updated.UpdatedAt, created.UpdatedAt)
	}
	if updated.Category != created.Category || updated.UserID != created.UserID {
		t.Fatalf("append changed identity fields: %+v", updated)
	}
	if !sameInstant(updated.CreatedAt, created.CreatedAt) {
		t.Fatalf("append changed createdAt: %v != %v", updated.CreatedAt, created.CreatedAt)
	}

	got, err := s.GetByID(ctx, created.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	assertMessages(t, msgs, got.Messages)
}

func testAppendMissing(t *testing.T, s store.Store) {
	msgs := conversation(model.CategoryHealth, "hello")
	_, err := s.AppendAndSave(context.Background(), uuid.NewString(), msgs)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testListOrdering(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := "owner-" + uuid.NewString()

	first, err := s.Create(ctx, model.CategoryFashion, nil, owner)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := s.Create(ctx, model.CategoryMovies, nil, owner)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := s.Create(ctx, model.CategoryMovies, nil, "someone-else-"+uuid.NewString()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	// Touching the first session moves it to the front.
	if _, err := s.AppendAndSave(ctx, first.ID, conversation(model.CategoryFashion, "work")); err != nil {
		t.Fatalf("AppendAndSave failed: %v", err)
	}

	list, err := s.ListByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	if list[0].ID != first.ID || list[1].ID != second.ID {
		t.Fatalf("unexpected order: %s, %s", list[0].ID, list[1].ID)
	}
}

func testListUnknownOwner(t *testing.T, s store.Store) {
	list, err := s.ListByOwner(context.Background(), "nobody-"+uuid.NewString())
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no sessions, got %d", len(list))
	}
}

// conversation builds alternating user/ai messages starting with the user.
func conversation(category model.Category, contents ...string) []model.Message {
	base := time.Now().UTC().Truncate(time.Millisecond)
	msgs := make([]model.Message, len(contents))
	for i, c := range contents {
		sender := model.SenderUser
		if i%2 == 1 {
			sender = model.SenderAI
		}
		msgs[i] = model.Message{
			ID:        uuid.NewString(),
			Content:   c,
			Sender:    sender,
			Timestamp: base.Add(time.Duration(i) * time.Millisecond),
			Category:  category,
		}
	}
	return msgs
}

func assertSameSession(t *testing.T, want, got *model.ChatSession) {
	t.Helper()
	if got.ID != want.ID || got.UserID != want.UserID || got.Category != want.Category {
		t.Fatalf("session mismatch: want %+v, got %+v", want, got)
	}
	if !sameInstant(got.CreatedAt, want.CreatedAt) || !sameInstant(got.UpdatedAt, want.UpdatedAt) {
		t.Fatalf("timestamp mismatch: want %v/%v, got %v/%v", want.CreatedAt, want.UpdatedAt, got.CreatedAt, got.UpdatedAt)
	}
}

func assertMessages(t *testing.T, want, got []model.Message) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(got))
	}
	for i := range want {
		w, g := want[i], got[i]
		if w.ID != g.ID || w.Content != g.Content || w.Sender != g.Sender || w.Category != g.Category {
			t.Fatalf("message %d mismatch: want %+v, got %+v", i, w, g)
		}
		if !sameInstant(w.Timestamp, g.Timestamp) {
			t.Fatalf("message %d timestamp mismatch: want %v, got %v", i, w.Timestamp, g.Timestamp)
		}
	}
}

// sameInstant tolerates the microsecond truncation some backends apply.
func sameInstant(a, b time.Time) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d < time.Millisecond
}
