package fileid

import (
	"strings"
	"testing"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

func TestNew_ShapeAndAlphabet(t *testing.T) {
	for i := 0; i < 1000; i++ {
		id, err := New()
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		if id == "" || len(id) > 7 {
			t.Fatalf("unexpected id length for %q", id)
		}
		for _, c := range id {
			if !strings.ContainsRune(base58Alphabet, c) {
				t.Fatalf("id %q contains %q outside the base58 alphabet", id, c)
			}
		}
	}
}

func TestNew_NoDuplicatesInPractice(t *testing.T) {
	// 20k draws from a ~2^40 space; a collision here means broken entropy.
	seen := make(map[string]struct{}, 20000)
	for i := 0; i < 20000; i++ {
		id, err := New()
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q after %d draws", id, i)
		}
		seen[id] = struct{}{}
	}
}
