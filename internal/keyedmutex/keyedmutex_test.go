package keyedmutex

import (
	"sync"
	"testing"
	"time"
)

func TestLockSerializesSameKey(t *testing.T) {
	var m Mutex
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock("entry")
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Fatalf("expected 100 increments, got %d", counter)
	}
	if m.Len() != 0 {
		t.Fatalf("expected lock table to be empty, got %d", m.Len())
	}
}

func TestDifferentKeysDoNotBlock(t *testing.T) {
	var m Mutex
	unlockA := m.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := m.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lock on a different key blocked")
	}
}

func TestUnlockIsIdempotent(t *testing.T) {
	var m Mutex
	unlock := m.Lock("a")
	unlock()
	unlock()

	relock := m.Lock("a")
	relock()
}
