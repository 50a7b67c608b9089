package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dominggo/multi-account-multi-platform/internal/domain"
)

func TestFileStore_PutGetDelete(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	ctx := context.Background()
	blob := []byte("credential-blob")

	if err := s.Put(ctx, "+15551230000", blob); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, err := s.Get(ctx, "+15551230000")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(got) != string(blob) {
		t.Errorf("Expected %q, got %q", blob, got)
	}

	if err := s.Delete(ctx, "+15551230000"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := s.Get(ctx, "+15551230000"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Expected session not found after delete, got %v", err)
	}
}

func TestFileStore_GetMissing(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := s.Get(context.Background(), "+15551230000"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Expected session not found, got %v", err)
	}
}

func TestFileStore_EmptyBlobIsMissing(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	ctx := context.Background()
	if err := s.Put(ctx, "+15551230000", nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := s.Get(ctx, "+15551230000"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Expected empty blob to read as missing, got %v", err)
	}
}

func TestFileStore_PutReplacesBlob(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	ctx := context.Background()
	if err := s.Put(ctx, "+15551230000", []byte("first")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := s.Put(ctx, "+15551230000", []byte("second")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, err := s.Get(ctx, "+15551230000")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Expected replacement blob, got %q", got)
	}
}

func TestFileStore_DeleteMissingIsNoop(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := s.Delete(context.Background(), "+15551230000"); err != nil {
		t.Errorf("Expected delete of missing blob to succeed, got %v", err)
	}
}

func TestFileStore_FileNamesHidePhoneNumbers(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := s.Put(context.Background(), "+15551230000", []byte("blob")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 session file, got %d", len(entries))
	}
	name := filepath.Base(entries[0].Name())
	if name == "+15551230000" || len(name) == 0 {
		t.Errorf("Expected hashed file name, got %q", name)
	}
	for _, r := range name {
		if r == '+' {
			t.Errorf("Expected no phone characters in file name %q", name)
		}
	}
}
