package keylock

import (
	"sync"
	"testing"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	kl := New(8)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := kl.Lock("user-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Fatalf("expected 100 increments, got %d", counter)
	}
}

func TestKeyLock_StableStripe(t *testing.T) {
	kl := New(16)
	a := kl.stripeIndex("user-42")
	for i := 0; i < 10; i++ {
		if got := kl.stripeIndex("user-42"); got != a {
			t.Fatalf("stripe index not stable: %d vs %d", got, a)
		}
	}
}

func TestKeyLock_DefaultStripes(t *testing.T) {
	kl := New(0)
	if len(kl.stripes) != defaultStripes {
		t.Fatalf("expected %d stripes, got %d", defaultStripes, len(kl.stripes))
	}
}
