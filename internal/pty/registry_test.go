package pty

import (
	"errors"
	"testing"
	"time"
)

// TestRegistryGetNotFound verifies that lookups against an empty registry
// fail with ErrSessionNotFound.
func TestRegistryGetNotFound(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	if _, err := r.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get = %v, want ErrSessionNotFound", err)
	}
}

// TestRegistryRegisterReplaces verifies that registering a session under an
// identifier that is already live kills the old session first, leaving
// exactly one live child process per identifier.
func TestRegistryRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	first, err := newSession("dup", "", 24, 80)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	r.Register(first)

	second, err := newSession("dup", "", 24, 80)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	r.Register(second)

	// The first session's descriptor must become invalid.
	deadline := time.After(10 * time.Second)
	for !first.Closed() {
		select {
		case <-deadline:
			t.Fatal("first session never closed after replacement")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if _, err := first.Write([]byte("x")); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("write to replaced session = %v, want ErrSessionClosed", err)
	}

	got, err := r.Get("dup")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != second {
		t.Error("registry should hold the replacement session")
	}

	infos := r.List()
	if len(infos) != 1 {
		t.Fatalf("expected 1 registered session, got %d", len(infos))
	}
}

// TestRegistryRemoveIdempotent verifies that Remove kills the session and
// that removing twice (or removing an unknown id) is harmless.
func TestRegistryRemoveIdempotent(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	s, err := newSession("rm", "", 24, 80)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	r.Register(s)

	r.Remove("rm")
	r.Remove("rm")
	r.Remove("never-existed")

	if _, err := r.Get("rm"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after remove = %v, want ErrSessionNotFound", err)
	}
	if !s.Closed() {
		t.Error("removed session should be closed")
	}
}

// TestRegistryRetireStale verifies that a stale retire (from the old pump of
// a replaced session) does not evict the replacement.
func TestRegistryRetireStale(t *testing.T) {
	r := NewRegistry()
	defer r.Close()

	first, err := newSession("stale", "", 24, 80)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	r.Register(first)

	second, err := newSession("stale", "", 24, 80)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	r.Register(second)

	if r.retire(first) {
		t.Error("retiring the replaced session should report false")
	}
	if _, err := r.Get("stale"); err != nil {
		t.Errorf("replacement should still be registered, got %v", err)
	}

	if !r.retire(second) {
		t.Error("retiring the current session should report true")
	}
	if _, err := r.Get("stale"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after retire = %v, want ErrSessionNotFound", err)
	}
	_ = second.Close()
}
