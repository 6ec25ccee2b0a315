package store

import (
	"github.com/sirupsen/logrus"

	"tipjar/internal/domain"
)

// IdentityRecordKey is the single key the local identity lives under.
const IdentityRecordKey = "local_identity"

// IdentityStore keeps the one local identity record in a KV. When a
// passphrase is set the record is sealed at rest through a SealedKV.
type IdentityStore struct {
	kv         domain.KV
	passphrase string
	log        logrus.FieldLogger
}

// Option configures an IdentityStore.
type Option func(*IdentityStore)

// WithPassphrase seals records with passphrase.
func WithPassphrase(passphrase string) Option {
	return func(s *IdentityStore) { s.passphrase = passphrase }
}

// WithLogger sets the logger used to report unreadable records.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *IdentityStore) { s.log = log }
}

// NewIdentityStore returns an IdentityStore backed by kv.
func NewIdentityStore(kv domain.KV, opts ...Option) *IdentityStore {
	s := &IdentityStore{kv: kv, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	s.kv = NewSealedKV(kv, s.passphrase)
	return s
}

// SaveIdentity overwrites the stored record.
func (s *IdentityStore) SaveIdentity(rec domain.IdentityRecord) error {
	raw, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	return s.kv.Put(IdentityRecordKey, raw)
}

// LoadIdentity returns the stored record. Absent, malformed, undecodable and
// unopenable records all read as absent. Records in an older shape are
// rewritten in the current one.
func (s *IdentityStore) LoadIdentity() (domain.IdentityRecord, bool) {
	raw, ok, err := s.kv.Get(IdentityRecordKey)
	if err != nil {
		s.log.WithError(err).Warn("identity store: read failed")
		return domain.IdentityRecord{}, false
	}
	if !ok {
		return domain.IdentityRecord{}, false
	}

	rec, migrated, err := decodeRecord(raw)
	if err != nil {
		if err != errAbsent {
			s.log.WithError(err).Warn("identity store: discarding malformed record")
		}
		return domain.IdentityRecord{}, false
	}
	if migrated {
		if err := s.SaveIdentity(rec); err != nil {
			s.log.WithError(err).Warn("identity store: migration write failed")
		} else {
			s.log.WithField("kind", rec.Kind).Info("identity store: migrated legacy record")
		}
	}
	return rec, true
}

// EraseIdentity removes the stored record.
func (s *IdentityStore) EraseIdentity() error {
	return s.kv.Delete(IdentityRecordKey)
}

// Compile-time assertion that IdentityStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityStore)(nil)
