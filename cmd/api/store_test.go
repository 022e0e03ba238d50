package main

import (
	"context"
	"testing"

	"github.com/capitalize-ai/curator-chat/internal/config"
	"github.com/capitalize-ai/curator-chat/pkg/logger"
)

const unreachablePostgres = "postgres://curator@127.0.0.1:1/curator?sslmode=disable&connect_timeout=1"

func TestOpenStoreMemory(t *testing.T) {
	log, _ := logger.New("error")

	s, err := openStore(context.Background(), &config.Config{StorageBackend: config.StorageMemory}, log)
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	defer s.Close()

	if s.Name() != "memory" {
		t.Errorf("expected memory store, got %q", s.Name())
	}
}

func TestOpenStoreFallsBackToMemory(t *testing.T) {
	log, _ := logger.New("error")
	cfg := &config.Config{
		StorageBackend:  config.StoragePostgres,
		StorageFallback: true,
		DatabaseURL:     unreachablePostgres,
	}

	s, err := openStore(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	defer s.Close()

	if s.Name() != "memory" {
		t.Errorf("expected memory fallback, got %q", s.Name())
	}
}

func TestOpenStoreFallsBackWhenFirestoreUnconfigured(t *testing.T) {
	log, _ := logger.New("error")
	cfg := &config.Config{
		StorageBackend:  config.StorageFirestore,
		StorageFallback: true,
	}

	s, err := openStore(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	defer s.Close()

	if s.Name() != "memory" {
		t.Errorf("expected memory fallback, got %q", s.Name())
	}
}

func TestOpenStoreWithoutFallbackFails(t *testing.T) {
	log, _ := logger.New("error")
	cfg := &config.Config{
		StorageBackend: config.StoragePostgres,
		DatabaseURL:    unreachablePostgres,
	}

	if _, err := openStore(context.Background(), cfg, log); err == nil {
		t.Fatal("expected an error without fallback")
	}
}
