// Package secrets keeps RPC bearer tokens in the OS keychain.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/99designs/keyring"
)

const service = "rights"

// EnvToken overrides any stored token. Handy for CI where no keychain exists.
const EnvToken = "RIGHTS_RPC_TOKEN"

// EnvPassword unlocks the encrypted file backend without a prompt.
const EnvPassword = "RIGHTS_KEYRING_PASSWORD"

var (
	ErrNotFound  = errors.New("token not found")
	ErrEmptyName = errors.New("token name must not be empty")
)

// Store saves and looks up bearer tokens by reference. A reference is the
// token name prefixed with "rights.", which is what the auth_ref config key
// holds.
type Store struct {
	ring keyring.Keyring
}

// NewStore wraps an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Open returns a store backed by the OS keychain. On Linux without a
// desktop session it falls back to an encrypted file under dir.
func Open(dir string) (*Store, error) {
	cfg := keyring.Config{
		ServiceName:              service,
		KeychainTrustApplication: true,
		FileDir:                  filepath.Join(dir, "keyring"),
		FilePasswordFunc:         filePassword,
	}
	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		if ring, err = keyring.Open(cfg); err != nil {
			return nil, fmt.Errorf("opening keyring: %w", err)
		}
	}
	return &Store{ring: ring}, nil
}

func filePassword(prompt string) (string, error) {
	if pw := os.Getenv(EnvPassword); pw != "" {
		return pw, nil
	}
	return keyring.TerminalPrompt(prompt)
}

// Ref returns the reference a token named name is stored under.
func Ref(name string) string {
	if strings.HasPrefix(name, service+".") {
		return name
	}
	return service + "." + name
}

// Put stores token under name and returns its reference.
func (s *Store) Put(name, token string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	ref := Ref(name)
	err := s.ring.Set(keyring.Item{
		Key:   ref,
		Data:  []byte(strings.TrimSpace(token)),
		Label: "rights RPC token " + name,
	})
	if err != nil {
		return "", fmt.Errorf("keychain store: %w", err)
	}
	return ref, nil
}

// Token returns the token for ref. EnvToken wins when set; an empty ref with
// no override yields "" and no error, meaning the endpoint is unauthenticated.
func (s *Store) Token(ref string) (string, error) {
	if tok := os.Getenv(EnvToken); tok != "" {
		return tok, nil
	}
	if ref == "" {
		return "", nil
	}
	if s == nil || s.ring == nil {
		return "", fmt.Errorf("%w: %s (no keyring available)", ErrNotFound, ref)
	}
	item, err := s.ring.Get(Ref(ref))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return string(item.Data), nil
}

// Delete removes the token for ref. Removing a missing token is not an error.
func (s *Store) Delete(ref string) error {
	err := s.ring.Remove(Ref(ref))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("keychain delete: %w", err)
	}
	return nil
}

// Refs lists stored references, sorted.
func (s *Store) Refs() ([]string, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, fmt.Errorf("keychain list: %w", err)
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasPrefix(k, service+".") {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Mask shortens a token for display.
func Mask(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + "…" + token[len(token)-4:]
}
