package mocks

import (
	"sync"

	"github.com/phrazzld/marketplace-api/internal/service/auth"
)

// MockPasswordVerifier implements auth.PasswordVerifier for testing.
// Hash prefixes the plaintext with "hashed:"; Verify accepts exactly that form.
type MockPasswordVerifier struct {
	HashFn   func(plaintext string) (string, error)
	VerifyFn func(plaintext, hash string) bool

	mu          sync.Mutex
	VerifyCalls int
	LastHash    string
}

var _ auth.PasswordVerifier = (*MockPasswordVerifier)(nil)

// Hash implements auth.PasswordVerifier.Hash.
func (m *MockPasswordVerifier) Hash(plaintext string) (string, error) {
	if m.HashFn != nil {
		return m.HashFn(plaintext)
	}
	if plaintext == "" {
		return "", auth.ErrEmptyPassword
	}
	return "hashed:" + plaintext, nil
}

// Verify implements auth.PasswordVerifier.Verify.
func (m *MockPasswordVerifier) Verify(plaintext, hash string) bool {
	m.mu.Lock()
	m.VerifyCalls++
	m.LastHash = hash
	m.mu.Unlock()

	if m.VerifyFn != nil {
		return m.VerifyFn(plaintext, hash)
	}
	return hash == "hashed:"+plaintext
}
