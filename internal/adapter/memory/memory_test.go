package memory

import (
	"context"
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	ctx := context.Background()
	s := New()

	got, err := s.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing key, got %q", got)
	}

	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err = s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("expected %q, got %q", "v", got)
	}
}

func TestSetOverwrites(t *testing.T) {
	ctx := context.Background()
	s := New()

	_ = s.Set(ctx, "k", []byte("one"), 0)
	_ = s.Set(ctx, "k", []byte("two"), 0)

	got, _ := s.Get(ctx, "k")
	if string(got) != "two" {
		t.Errorf("expected %q, got %q", "two", got)
	}
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, _ := s.Get(ctx, "k")
	if got == nil {
		t.Fatal("expected value before expiry")
	}

	time.Sleep(20 * time.Millisecond)
	got, _ = s.Get(ctx, "k")
	if got != nil {
		t.Errorf("expected nil after expiry, got %q", got)
	}
}

func TestDel(t *testing.T) {
	ctx := context.Background()
	s := New()

	_ = s.Set(ctx, "a", []byte("1"), 0)
	_ = s.SAdd(ctx, "set", "m")

	if err := s.Del(ctx, "a", "set", "missing"); err != nil {
		t.Fatalf("del: %v", err)
	}

	if got, _ := s.Get(ctx, "a"); got != nil {
		t.Error("expected scalar key deleted")
	}
	if members, _ := s.SMembers(ctx, "set"); len(members) != 0 {
		t.Errorf("expected set key deleted, got %v", members)
	}
}

func TestMGetAlignment(t *testing.T) {
	ctx := context.Background()
	s := New()

	_ = s.Set(ctx, "a", []byte("1"), 0)
	_ = s.Set(ctx, "c", []byte("3"), 0)

	got, err := s.MGet(ctx, "a", "b", "c")
	if err != nil {
		t.Fatalf("mget: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if string(got[0]) != "1" || got[1] != nil || string(got[2]) != "3" {
		t.Errorf("misaligned results: %q", got)
	}
}

func TestSets(t *testing.T) {
	ctx := context.Background()
	s := New()

	members, err := s.SMembers(ctx, "set")
	if err != nil {
		t.Fatalf("smembers: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("expected empty set, got %v", members)
	}

	_ = s.SAdd(ctx, "set", "a")
	_ = s.SAdd(ctx, "set", "b")
	_ = s.SAdd(ctx, "set", "a") // duplicate add is a no-op

	members, _ = s.SMembers(ctx, "set")
	if len(members) != 2 {
		t.Errorf("expected 2 members, got %v", members)
	}

	if err := s.SRem(ctx, "set", "a"); err != nil {
		t.Fatalf("srem: %v", err)
	}
	if err := s.SRem(ctx, "set", "not-there"); err != nil {
		t.Fatalf("srem of absent member should be a no-op, got %v", err)
	}

	members, _ = s.SMembers(ctx, "set")
	if len(members) != 1 || members[0] != "b" {
		t.Errorf("expected [b], got %v", members)
	}
}
