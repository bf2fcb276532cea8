package memstore

import (
	"context"
	"errors"
	"testing"
)

func TestStore_RoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("empty store should not have k")
	}
	_ = s.Set(ctx, "k", "v")
	if got, ok, _ := s.Get(ctx, "k"); !ok || got != "v" {
		t.Errorf("Get() = %q, %v", got, ok)
	}
	_ = s.Delete(ctx, "k")
	if s.Len() != 0 {
		t.Errorf("Len() = %d after delete, want 0", s.Len())
	}
}

func TestStore_FailWrites(t *testing.T) {
	s := New()
	boom := errors.New("disk full")
	s.FailWrites = boom

	if err := s.Set(context.Background(), "k", "v"); !errors.Is(err, boom) {
		t.Errorf("Set() error = %v, want %v", err, boom)
	}
	if s.Len() != 0 {
		t.Error("failed write must not store the value")
	}
}

func TestStore_FailReads(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.Set(ctx, "k", "v")
	boom := errors.New("timeout")
	s.FailReads = boom

	if _, ok, err := s.Get(ctx, "k"); !errors.Is(err, boom) || ok {
		t.Errorf("Get() = ok %v, err %v; want false, %v", ok, err, boom)
	}
}
