package reward

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestKeyedMutexEvictsReleasedEntries(t *testing.T) {
	var km keyedMutex
	id := uuid.New()

	unlock := km.lock(id)
	if km.size() != 1 {
		t.Fatalf("expected 1 entry while held, got %d", km.size())
	}
	unlock()
	if km.size() != 0 {
		t.Fatalf("expected empty lock map after release, got %d entries", km.size())
	}

	// A contended entry survives until the last waiter releases
	unlock = km.lock(id)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		u := km.lock(id)
		u()
	}()
	unlock()
	wg.Wait()
	if km.size() != 0 {
		t.Fatalf("expected empty lock map after all holders released, got %d entries", km.size())
	}
}

func TestKeyedMutexMutualExclusion(t *testing.T) {
	var km keyedMutex
	id := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.lock(id)
			counter++
			unlock()
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("lost increments under contention: got %d", counter)
	}
	if km.size() != 0 {
		t.Fatalf("expected empty lock map, got %d entries", km.size())
	}
}
