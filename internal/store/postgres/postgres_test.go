package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/capitalize-ai/curator-chat/internal/store"
	"github.com/capitalize-ai/curator-chat/internal/store/postgres"
	"github.com/capitalize-ai/curator-chat/internal/store/storetest"
)

func TestPostgresStoreContract(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := postgres.Open(context.Background(), dsn)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		return s
	})
}
