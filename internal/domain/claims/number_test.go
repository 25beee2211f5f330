package claims

import (
	"sync"
	"testing"
	"time"
)

func TestNumberGenerator_Format(t *testing.T) {
	at := time.Date(2026, 10, 16, 9, 5, 7, 999, time.UTC)
	g := NewNumberGenerator(func() time.Time { return at }, time.UTC)

	n := g.Next()
	if n != "CLM20261016090507" {
		t.Errorf("unexpected number %s", n)
	}
	if !ValidNumber(n) {
		t.Errorf("%s should be valid", n)
	}
}

func TestNumberGenerator_SameSecondIsDistinct(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewNumberGenerator(func() time.Time { return at }, time.UTC)

	first, second, third := g.Next(), g.Next(), g.Next()
	if first != "CLM20260101000000" || second != "CLM20260101000001" || third != "CLM20260101000002" {
		t.Errorf("expected consecutive seconds, got %s %s %s", first, second, third)
	}
}

func TestNumberGenerator_ClockGoesBackwards(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g := NewNumberGenerator(func() time.Time { return now }, time.UTC)

	a := g.Next()
	now = now.Add(-time.Minute)
	b := g.Next()
	if b <= a {
		t.Errorf("expected %s > %s", b, a)
	}
}

func TestNumberGenerator_Concurrent(t *testing.T) {
	at := time.Date(2026, 5, 5, 5, 5, 5, 0, time.UTC)
	g := NewNumberGenerator(func() time.Time { return at }, time.UTC)

	const n = 200
	var wg sync.WaitGroup
	out := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out <- g.Next()
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[string]bool, n)
	for num := range out {
		if !ValidNumber(num) {
			t.Errorf("invalid number %s", num)
		}
		if seen[num] {
			t.Fatalf("duplicate claim number %s", num)
		}
		seen[num] = true
	}
}

func TestNumberGenerator_Observe(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := NewNumberGenerator(func() time.Time { return at }, time.UTC)

	g.Observe("CLM20260101000030")
	if n := g.Next(); n != "CLM20260101000031" {
		t.Errorf("expected generator to move past observed number, got %s", n)
	}

	g.Observe("not-a-number")
	g.Observe("CLM20250101000000")
	if n := g.Next(); n != "CLM20260101000032" {
		t.Errorf("older or invalid observations must be ignored, got %s", n)
	}
}

func TestValidNumber(t *testing.T) {
	for _, s := range []string{"CLM2026010100000", "CLX20260101000000", "clm20260101000000", "CLM20260101000000 ", ""} {
		if ValidNumber(s) {
			t.Errorf("%q should be invalid", s)
		}
	}
}
