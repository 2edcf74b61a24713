// Package idgen generates short, URL-safe correlation ids backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Alphanumeric is the default alphabet: no punctuation, safe in headers and log fields.
const Alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generator produces ids of the form Prefix + Length random characters.
type Generator struct {
	Prefix   string
	Alphabet string
	Length   int
}

// Requests generates request correlation ids such as "req-3fK9a0QpLm2Zx7Tb".
var Requests = Generator{Prefix: "req-", Alphabet: Alphanumeric, Length: 16}

// Generate returns a new id.
func (g Generator) Generate() (string, error) {
	alphabet := g.Alphabet
	if alphabet == "" {
		alphabet = Alphanumeric
	}
	if g.Length <= 0 {
		return "", fmt.Errorf("idgen: length must be positive, got %d", g.Length)
	}
	id, err := nanoid.Generate(alphabet, g.Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return g.Prefix + id, nil
}

// Generate returns a new request id from Requests.
func Generate() (string, error) {
	return Requests.Generate()
}
