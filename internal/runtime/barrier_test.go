package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBarrierOpensOnlyAfterEveryArrival(t *testing.T) {
	b := NewBarrier(3)

	select {
	case <-b.Wait():
		t.Fatal("barrier opened before any arrival")
	case <-time.After(10 * time.Millisecond):
	}

	b.Arrive()
	b.Arrive()
	select {
	case <-b.Wait():
		t.Fatal("barrier opened after only 2 of 3 arrivals")
	case <-time.After(10 * time.Millisecond):
	}

	b.Arrive()
	select {
	case <-b.Wait():
	case <-time.After(time.Second):
		t.Fatal("barrier did not open after the final arrival")
	}
}

func TestBarrierZeroCountOpensImmediately(t *testing.T) {
	b := NewBarrier(0)
	select {
	case <-b.Wait():
	default:
		t.Fatal("zero-count barrier should already be open")
	}
}

func TestBarrierIgnoresExtraArrivals(t *testing.T) {
	b := NewBarrier(1)
	b.Arrive()
	b.Arrive()
	b.Arrive()
	assert.True(t, true) // reaching here without a panic/deadlock is the assertion
}
