package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/capitalize-ai/curator-chat/internal/catalog"
	"github.com/capitalize-ai/curator-chat/internal/model"
	"github.com/capitalize-ai/curator-chat/internal/store"
)

func TestFirstTurnReturnsOpeningMessage(t *testing.T) {
	for _, c := range model.Categories {
		t.Run(string(c), func(t *testing.T) {
			client := &fakeClient{reply: "should not be used"}
			svc := newTestService(t, client, store.NewMemoryStore())

			resp, err := svc.HandleTurn(context.Background(), TurnInput{Text: "hello", Category: c})
			if err != nil {
				t.Fatalf("HandleTurn failed: %v", err)
			}

			entry, _ := catalog.Lookup(c)
			if resp.Message.Content != entry.OpeningMessage {
				t.Errorf("expected opening message, got %q", resp.Message.Content)
			}
			if resp.Message.Sender != model.SenderAI {
				t.Errorf("expected sender ai, got %q", resp.Message.Sender)
			}
			if resp.Message.Category != c {
				t.Errorf("expected category %q, got %q", c, resp.Message.Category)
			}
			if resp.SessionID == "" {
				t.Error("expected a session id")
			}
			if client.calls() != 0 {
				t.Errorf("expected no generation call, got %d", client.calls())
			}
		})
	}
}

func TestTurnsAppendAlternatingMessages(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{reply: "tell me more"}
	s := store.NewMemoryStore()
	svc := newTestService(t, client, s)

	const turns = 5
	var sessionID string
	for i := 0; i < turns; i++ {
		resp, err := svc.HandleTurn(ctx, TurnInput{Text: "turn", Category: model.CategoryMusic, SessionID: sessionID})
		if err != nil {
			t.Fatalf("turn %d failed: %v", i, err)
		}
		if sessionID != "" && resp.SessionID != sessionID {
			t.Fatalf("turn %d switched session: %q != %q", i, resp.SessionID, sessionID)
		}
		sessionID = resp.SessionID
	}

	sess, err := svc.GetSession(ctx, sessionID)
	if err != nil || sess == nil {
		t.Fatalf("GetSession: %v, %v", sess, err)
	}
	if len(sess.Messages) != 2*turns {
		t.Fatalf("expected %d messages, got %d", 2*turns, len(sess.Messages))
	}
	for i, m := range sess.Messages {
		want := model.SenderUser
		if i%2 == 1 {
			want = model.SenderAI
		}
		if m.Sender != want {
			t.Errorf("message %d: expected sender %q, got %q", i, want, m.Sender)
		}
		if i > 0 && m.Timestamp.Before(sess.Messages[i-1].Timestamp) {
			t.Errorf("message %d is older than its predecessor", i)
		}
	}
}

func TestPhaseSwitchesToRecommendingOnce(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{reply: "ok"}
	svc := newTestService(t, client, store.NewMemoryStore())

	recommending := PhaseRecommending.directive()
	var (
		sessionID string
		switched  = -1
	)
	for turn := 1; turn <= 7; turn++ {
		resp, err := svc.HandleTurn(ctx, TurnInput{Text: "more", Category: model.CategoryTravel, SessionID: sessionID})
		if err != nil {
			t.Fatalf("turn %d failed: %v", turn, err)
		}
		sessionID = resp.SessionID
		if turn == 1 {
			continue
		}

		got := strings.Contains(client.lastPrompt(t), recommending)
		if got && switched < 0 {
			switched = turn
		}
		if !got && switched > 0 {
			t.Fatalf("turn %d went back to probing after switching at turn %d", turn, switched)
		}
	}

	// Turn 4 is the first with six messages already stored.
	if switched != 4 {
		t.Errorf("expected switch at turn 4, got %d", switched)
	}
}

func TestGenerationFailureYieldsFallback(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		client *fakeClient
	}{
		{"error", &fakeClient{err: errors.New("upstream 503")}},
		{"empty", &fakeClient{reply: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, tt.client, store.NewMemoryStore())

			first, err := svc.HandleTurn(ctx, TurnInput{Text: "hi", Category: model.CategoryHealth})
			if err != nil {
				t.Fatalf("first turn failed: %v", err)
			}
			resp, err := svc.HandleTurn(ctx, TurnInput{Text: "sleep better", Category: model.CategoryHealth, SessionID: first.SessionID})
			if err != nil {
				t.Fatalf("second turn failed: %v", err)
			}

			entry, _ := catalog.Lookup(model.CategoryHealth)
			if resp.Message.Content != entry.FallbackMessage {
				t.Errorf("expected fallback, got %q", resp.Message.Content)
			}

			sess, _ := svc.GetSession(ctx, first.SessionID)
			if len(sess.Messages) != 4 {
				t.Errorf("expected 4 stored messages, got %d", len(sess.Messages))
			}
		})
	}
}

func TestInvalidInputDoesNotTouchStore(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := newTestService(t, &fakeClient{reply: "x"}, s)

	tests := []struct {
		name    string
		in      TurnInput
		unknown bool
	}{
		{"empty message", TurnInput{Text: "", Category: model.CategoryBooks, UserID: "u1"}, false},
		{"blank message", TurnInput{Text: "  \n", Category: model.CategoryBooks, UserID: "u1"}, false},
		{"missing category", TurnInput{Text: "hi", UserID: "u1"}, false},
		{"unknown category", TurnInput{Text: "hi", Category: "cooking", UserID: "u1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.HandleTurn(ctx, tt.in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if tt.unknown && !errors.Is(err, catalog.ErrUnknownCategory) {
				t.Errorf("expected ErrUnknownCategory, got %v", err)
			}
		})
	}

	sessions, err := s.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected no sessions, got %d", len(sessions))
	}
}

func TestUnknownSessionIDStartsNewSession(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &fakeClient{reply: "x"}, store.NewMemoryStore())

	resp, err := svc.HandleTurn(ctx, TurnInput{Text: "hi", Category: model.CategoryMovies, SessionID: "does-not-exist", UserID: "u1"})
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if resp.SessionID == "does-not-exist" {
		t.Fatal("expected a freshly allocated session id")
	}

	entry, _ := catalog.Lookup(model.CategoryMovies)
	if resp.Message.Content != entry.OpeningMessage {
		t.Errorf("expected opening message, got %q", resp.Message.Content)
	}

	sessions, _ := svc.ListUserSessions(ctx, "u1")
	if len(sessions) != 1 || sessions[0].ID != resp.SessionID {
		t.Errorf("expected the new session to belong to u1, got %+v", sessions)
	}
}

func TestExistingSessionKeepsItsCategory(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{reply: "x"}
	svc := newTestService(t, client, store.NewMemoryStore())

	first, err := svc.HandleTurn(ctx, TurnInput{Text: "hi", Category: model.CategoryFashion})
	if err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	resp, err := svc.HandleTurn(ctx, TurnInput{Text: "jackets", Category: model.CategoryMusic, SessionID: first.SessionID})
	if err != nil {
		t.Fatalf("second turn failed: %v", err)
	}

	if resp.Message.Category != model.CategoryFashion {
		t.Errorf("expected fashion, got %q", resp.Message.Category)
	}
	fashion, _ := catalog.Lookup(model.CategoryFashion)
	if !strings.HasPrefix(client.lastPrompt(t), fashion.SystemPrompt) {
		t.Error("expected the fashion persona in the prompt")
	}
}

func TestStoreFailurePropagates(t *testing.T) {
	svc := newTestService(t, &fakeClient{reply: "x"}, failingStore{Store: store.NewMemoryStore()})

	_, err := svc.HandleTurn(context.Background(), TurnInput{Text: "hi", Category: model.CategoryBooks})
	if err == nil {
		t.Fatal("expected store failure to propagate")
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Errorf("store failure reported as invalid input: %v", err)
	}
}

func TestBooksConversation(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{reply: "Which authors do you like?"}
	svc := newTestService(t, client, store.NewMemoryStore())
	books, _ := catalog.Lookup(model.CategoryBooks)

	first, err := svc.HandleTurn(ctx, TurnInput{Text: "hi", Category: model.CategoryBooks})
	if err != nil {
		t.Fatalf("first turn failed: %v", err)
	}
	if first.Message.Content != books.OpeningMessage {
		t.Fatalf("expected books opening, got %q", first.Message.Content)
	}

	second, err := svc.HandleTurn(ctx, TurnInput{Text: "I like sci-fi", Category: model.CategoryBooks, SessionID: first.SessionID})
	if err != nil {
		t.Fatalf("second turn failed: %v", err)
	}
	if second.Message.Content != "Which authors do you like?" {
		t.Errorf("unexpected reply %q", second.Message.Content)
	}
	if client.calls() != 1 {
		t.Fatalf("expected one generation call, got %d", client.calls())
	}

	prompt := client.lastPrompt(t)
	wantTranscript := "User: hi\nAssistant: " + books.OpeningMessage + "\nUser: I like sci-fi"
	if !strings.Contains(prompt, wantTranscript) {
		t.Errorf("prompt missing transcript:\n%s", prompt)
	}
	if !strings.Contains(prompt, PhaseProbing.directive()) {
		t.Error("expected probing directive")
	}

	sess, _ := svc.GetSession(ctx, first.SessionID)
	if len(sess.Messages) != 4 {
		t.Errorf("expected 4 messages, got %d", len(sess.Messages))
	}
}

func TestGetSessionMissing(t *testing.T) {
	svc := newTestService(t, nil, store.NewMemoryStore())

	for _, id := range []string{"", "nope"} {
		sess, err := svc.GetSession(context.Background(), id)
		if err != nil || sess != nil {
			t.Errorf("GetSession(%q) = %v, %v; want nil, nil", id, sess, err)
		}
	}
}

func TestCallerCannotContinueForeignSession(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := newTestService(t, &fakeClient{reply: "ok"}, s)

	resp, err := svc.HandleTurn(ctx, TurnInput{Text: "hi", Category: model.CategoryMovies, UserID: "alice", Caller: "alice"})
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}

	_, err = svc.HandleTurn(ctx, TurnInput{Text: "mine now", Category: model.CategoryMovies, SessionID: resp.SessionID, UserID: "bob", Caller: "bob"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// Without an authenticated caller the id alone is enough.
	if _, err := svc.HandleTurn(ctx, TurnInput{Text: "again", Category: model.CategoryMovies, SessionID: resp.SessionID}); err != nil {
		t.Fatalf("anonymous continue failed: %v", err)
	}

	sess, _ := svc.GetSession(ctx, resp.SessionID)
	if len(sess.Messages) != 4 {
		t.Errorf("expected 4 messages, got %d", len(sess.Messages))
	}
	if sess.UserID != "alice" {
		t.Errorf("expected owner alice, got %q", sess.UserID)
	}
}

func TestCanAccess(t *testing.T) {
	owned := &model.ChatSession{UserID: "alice"}
	guest := &model.ChatSession{}

	tests := []struct {
		name   string
		sess   *model.ChatSession
		caller string
		want   bool
	}{
		{"owner", owned, "alice", true},
		{"other user", owned, "bob", false},
		{"anonymous", owned, "", true},
		{"guest session", guest, "bob", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccess(tt.sess, tt.caller); got != tt.want {
				t.Errorf("CanAccess = %v, want %v", got, tt.want)
			}
		})
	}
}
