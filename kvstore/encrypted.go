package kvstore

import (
	"fmt"

	"myfinance/security"
)

// EncryptedStore encrypts values before handing them to the wrapped store.
// Keys are stored in the clear.
type EncryptedStore struct {
	inner  Store
	cipher *security.Cipher
}

func NewEncryptedStore(inner Store, cipher *security.Cipher) *EncryptedStore {
	return &EncryptedStore{inner: inner, cipher: cipher}
}

func (s *EncryptedStore) Get(key string) (string, bool, error) {
	value, ok, err := s.inner.Get(key)
	if err != nil || !ok {
		return value, ok, err
	}
	plain, err := s.cipher.Decrypt(value)
	if err != nil {
		return "", false, fmt.Errorf("failed to decrypt key %q: %w", key, err)
	}
	return plain, true, nil
}

func (s *EncryptedStore) Set(key, value string) error {
	sealed, err := s.cipher.Encrypt(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt key %q: %w", key, err)
	}
	return s.inner.Set(key, sealed)
}

func (s *EncryptedStore) Remove(key string) error {
	return s.inner.Remove(key)
}
