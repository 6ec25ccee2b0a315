package store

import "tipjar/internal/domain"

// SealedKV encrypts every value it writes to the wrapped KV. Values written
// before a passphrase was configured are read back as they are.
type SealedKV struct {
	kv         domain.KV
	passphrase string
}

// NewSealedKV wraps kv. An empty passphrase disables sealing.
func NewSealedKV(kv domain.KV, passphrase string) *SealedKV {
	return &SealedKV{kv: kv, passphrase: passphrase}
}

// Get returns the opened value under key; it fails with ErrWrongPassphrase
// when a sealed value does not open.
func (s *SealedKV) Get(key string) ([]byte, bool, error) {
	raw, ok, err := s.kv.Get(key)
	if err != nil || !ok {
		return nil, ok, err
	}
	if !isSealed(raw) {
		return raw, true, nil
	}
	pt, err := open(s.passphrase, raw)
	if err != nil {
		return nil, false, err
	}
	return pt, true, nil
}

// Put seals value and stores it under key.
func (s *SealedKV) Put(key string, value []byte) error {
	if s.passphrase == "" {
		return s.kv.Put(key, value)
	}
	N, r, p := scryptParamsDefault()
	sealedValue, err := seal(s.passphrase, value, N, r, p)
	if err != nil {
		return err
	}
	return s.kv.Put(key, sealedValue)
}

// Delete removes key.
func (s *SealedKV) Delete(key string) error { return s.kv.Delete(key) }

var _ domain.KV = (*SealedKV)(nil)
