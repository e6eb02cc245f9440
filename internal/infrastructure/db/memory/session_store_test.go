package memory

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestSessionStore_AddEvictsOldest(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(2)

	_ = store.Add(ctx, "u1", "t1")
	_ = store.Add(ctx, "u1", "t2")
	_ = store.Add(ctx, "u1", "t3")

	got := store.Sessions("u1")
	want := []string{"t2", "t3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSessionStore_CapNeverExceeded(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(3)

	for i := 0; i < 50; i++ {
		_ = store.Add(ctx, "u1", fmt.Sprintf("t%d", i))
		if n := len(store.Sessions("u1")); n > 3 {
			t.Fatalf("cap exceeded after add %d: %d sessions", i, n)
		}
	}

	got := store.Sessions("u1")
	want := []string{"t47", "t48", "t49"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected most recent tokens %v, got %v", want, got)
	}
}

func TestSessionStore_RotatePreservesPosition(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(3)

	_ = store.Add(ctx, "u1", "t1")
	_ = store.Add(ctx, "u1", "t2")
	_ = store.Add(ctx, "u1", "t3")

	rotated, err := store.Rotate(ctx, "u1", "t2", "t4")
	if err != nil || !rotated {
		t.Fatalf("expected rotation, got rotated=%v err=%v", rotated, err)
	}

	got := store.Sessions("u1")
	want := []string{"t1", "t4", "t3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if ok, _ := store.Contains(ctx, "u1", "t2"); ok {
		t.Fatalf("old token should be gone")
	}
	if ok, _ := store.Contains(ctx, "u1", "t4"); !ok {
		t.Fatalf("new token should be present")
	}
}

func TestSessionStore_RotateAbsentToken(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(2)
	_ = store.Add(ctx, "u1", "t1")

	rotated, err := store.Rotate(ctx, "u1", "missing", "t2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rotated {
		t.Fatalf("rotating an absent token must report false")
	}
	if got := store.Sessions("u1"); !reflect.DeepEqual(got, []string{"t1"}) {
		t.Fatalf("sessions must be untouched, got %v", got)
	}
}

func TestSessionStore_RemoveIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(2)
	_ = store.Add(ctx, "u1", "t1")
	_ = store.Add(ctx, "u1", "t2")

	_ = store.Remove(ctx, "u1", "t1")
	after := store.Sessions("u1")

	_ = store.Remove(ctx, "u1", "t1")
	if got := store.Sessions("u1"); !reflect.DeepEqual(got, after) {
		t.Fatalf("second remove changed state: %v vs %v", got, after)
	}
	if !reflect.DeepEqual(after, []string{"t2"}) {
		t.Fatalf("expected [t2], got %v", after)
	}
}

func TestSessionStore_ConcurrentRotateSameToken(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(2)
	_ = store.Add(ctx, "u1", "shared")

	const attempts = 32
	var wins int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rotated, err := store.Rotate(ctx, "u1", "shared", fmt.Sprintf("new%d", i))
			if err != nil {
				t.Errorf("rotate error: %v", err)
				return
			}
			if rotated {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("exactly one concurrent rotation must win, got %d", wins)
	}
	if n := len(store.Sessions("u1")); n != 1 {
		t.Fatalf("expected a single session, got %d", n)
	}
}

func TestSessionStore_ConcurrentAddsRespectCap(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(2)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Add(ctx, "u1", fmt.Sprintf("t%d", i))
		}(i)
	}
	wg.Wait()

	if n := len(store.Sessions("u1")); n != 2 {
		t.Fatalf("expected exactly 2 sessions after concurrent adds, got %d", n)
	}
}

func TestSessionStore_UsersAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(2)

	_ = store.Add(ctx, "u1", "a1")
	_ = store.Add(ctx, "u2", "b1")
	_ = store.Remove(ctx, "u1", "a1")

	if ok, _ := store.Contains(ctx, "u2", "b1"); !ok {
		t.Fatalf("u2 session must be unaffected by u1 mutations")
	}
}

func TestSessionStore_PruneExpired(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(3)
	_ = store.Add(ctx, "u1", "live1")
	_ = store.Add(ctx, "u1", "dead")
	_ = store.Add(ctx, "u1", "live2")

	err := store.PruneExpired(ctx, func(token string) bool { return token != "dead" })
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}

	got := store.Sessions("u1")
	want := []string{"live1", "live2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
