package repository

import (
	"testing"
	"time"
)

func TestFingerprintStable(t *testing.T) {
	ts := time.UnixMilli(1767366245000)

	a := Fingerprint("+1555", "hello", ts)
	b := Fingerprint("+1555", "hello", ts)

	if a != b {
		t.Fatalf("fingerprint is not deterministic")
	}

	if len(a) != 64 {
		t.Fatalf("expected 32-byte hex digest, got %d chars", len(a))
	}
}

func TestFingerprintDistinguishesFields(t *testing.T) {
	ts := time.UnixMilli(1767366245000)

	cases := map[string]string{
		"base":       Fingerprint("ab", "c", ts),
		"shifted":    Fingerprint("a", "bc", ts),
		"other time": Fingerprint("ab", "c", ts.Add(time.Millisecond)),
		"other body": Fingerprint("ab", "d", ts),
	}

	seen := map[string]string{}
	for name, fp := range cases {
		if prev, ok := seen[fp]; ok {
			t.Fatalf("%s collides with %s", name, prev)
		}

		seen[fp] = name
	}
}
