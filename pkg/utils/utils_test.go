package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Camiseta Básica Azul", "camiseta-basica-azul"},
		{"Calças", "calcas"},
		{"Acessórios", "acessorios"},
		{"Boné AZUL STREET", "bone-azul-street"},
		{"  trailing  spaces  ", "trailing-spaces"},
		{"100% Algodão", "100-algodao"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "Slugify(%q)", tt.in)
	}
}

func TestSnowflakeIDUnique(t *testing.T) {
	gen := NewSnowflakeID(1)

	const n = 1000
	seen := make(map[int64]bool, n)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < n/4; j++ {
				id := gen.Generate()
				mu.Lock()
				assert.False(t, seen[id], "duplicate id %d", id)
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}
