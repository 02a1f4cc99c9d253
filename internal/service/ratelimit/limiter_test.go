package ratelimit

import "testing"

func TestAllowConsumesBurstCapacity(t *testing.T) {
	l := New(2, 1)

	if !l.Allow("AAPL") || !l.Allow("AAPL") {
		t.Fatalf("burst capacity not honored")
	}
	if l.Allow("AAPL") {
		t.Fatalf("expected denial after burst is spent")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := New(1, 1)

	if !l.Allow("AAPL") {
		t.Fatalf("fresh key denied")
	}
	if l.Allow("AAPL") {
		t.Fatalf("expected denial for spent key")
	}
	if !l.Allow("MSFT") {
		t.Fatalf("one key's bucket throttled another")
	}
}
