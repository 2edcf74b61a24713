package idgen

import (
	"regexp"
	"strings"
	"sync"
	"testing"
)

func TestGenerate_Shape(t *testing.T) {
	pattern := regexp.MustCompile(`^req-[a-zA-Z0-9]{16}$`)
	for range 200 {
		id, err := Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if !pattern.MatchString(id) {
			t.Fatalf("Generate() = %q, want req- plus 16 alphanumerics", id)
		}
	}
}

func TestGenerator_Custom(t *testing.T) {
	g := Generator{Prefix: "exp_", Alphabet: "ab", Length: 8}
	id, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(id, "exp_") || len(id) != 12 {
		t.Fatalf("id = %q", id)
	}
	if strings.Trim(id[4:], "ab") != "" {
		t.Fatalf("id %q uses characters outside the alphabet", id)
	}
}

func TestGenerator_EmptyAlphabetUsesDefault(t *testing.T) {
	id, err := Generator{Length: 10}.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(id) != 10 {
		t.Fatalf("len = %d, want 10", len(id))
	}
}

func TestGenerator_InvalidLength(t *testing.T) {
	if _, err := (Generator{Prefix: "x-"}).Generate(); err == nil {
		t.Fatal("expected error for zero length")
	}
}

func TestGenerate_ConcurrentUnique(t *testing.T) {
	const workers, per = 8, 1000
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*per)
		wg   sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range per {
				id, err := Generate()
				if err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				if _, dup := seen[id]; dup {
					t.Errorf("duplicate id %q", id)
				}
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}
