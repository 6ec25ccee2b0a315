package store_test

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tjcrypto "tipjar/internal/crypto"
	"tipjar/internal/domain"
	"tipjar/internal/identity"
	"tipjar/internal/store"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newMaterial(t *testing.T) domain.IdentityMaterial {
	t.Helper()
	_, m, err := identity.NewFactory().NewEphemeral()
	require.NoError(t, err)
	return m
}

// backends returns a fresh KV of every kind.
func backends(t *testing.T) map[string]domain.KV {
	t.Helper()
	bkv, err := store.OpenBadgerKV("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bkv.Close() })
	return map[string]domain.KV{
		"file":   store.NewFileKV(t.TempDir()),
		"badger": bkv,
	}
}

func TestIdentityStore_SaveLoadErase(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := store.NewIdentityStore(kv, store.WithLogger(quietLogger()))

			_, ok := s.LoadIdentity()
			assert.False(t, ok)

			rec := domain.IdentityRecord{Kind: domain.KindImported, Material: newMaterial(t)}
			require.NoError(t, s.SaveIdentity(rec))

			got, ok := s.LoadIdentity()
			require.True(t, ok)
			assert.Equal(t, rec, got)

			// Overwrite, not append.
			rec2 := domain.IdentityRecord{Kind: domain.KindTemporary, Material: newMaterial(t)}
			require.NoError(t, s.SaveIdentity(rec2))
			got, ok = s.LoadIdentity()
			require.True(t, ok)
			assert.Equal(t, rec2, got)

			require.NoError(t, s.EraseIdentity())
			_, ok = s.LoadIdentity()
			assert.False(t, ok)
			require.NoError(t, s.EraseIdentity())
		})
	}
}

func TestIdentityStore_RejectsUnpersistableKind(t *testing.T) {
	s := store.NewIdentityStore(store.NewFileKV(t.TempDir()))
	err := s.SaveIdentity(domain.IdentityRecord{Kind: "anonymous", Material: newMaterial(t)})
	assert.Error(t, err)
}

func TestIdentityStore_MalformedReadsAsAbsent(t *testing.T) {
	cases := map[string]string{
		"garbage":         "not json at all",
		"empty":           "",
		"future version":  `{"version": 9}`,
		"anonymous v1":    `{"identity": "[]", "type": "anonymous"}`,
		"bad hex":         `["zz", "zz"]`,
		"wrong arity":     `["00"]`,
		"unknown v2 kind": `{"version": 2, "kind": "root", "identity_material": {}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			kv := store.NewFileKV(t.TempDir())
			require.NoError(t, kv.Put(store.IdentityRecordKey, []byte(raw)))
			_, ok := store.NewIdentityStore(kv, store.WithLogger(quietLogger())).LoadIdentity()
			assert.False(t, ok)
		})
	}
}

func legacyPair(m domain.IdentityMaterial) []string {
	return []string{
		hex.EncodeToString(tjcrypto.PublicKeyDER(m.PublicKey)),
		hex.EncodeToString(m.SecretKey[:]),
	}
}

func TestIdentityStore_MigratesBareArray(t *testing.T) {
	m := newMaterial(t)
	raw, err := json.Marshal(legacyPair(m))
	require.NoError(t, err)

	dir := t.TempDir()
	kv := store.NewFileKV(dir)
	require.NoError(t, kv.Put(store.IdentityRecordKey, raw))

	s := store.NewIdentityStore(kv, store.WithLogger(quietLogger()))
	got, ok := s.LoadIdentity()
	require.True(t, ok)
	assert.Equal(t, domain.KindTemporary, got.Kind)
	assert.Equal(t, m, got.Material)

	// Rewritten in the current shape.
	b, err := os.ReadFile(filepath.Join(dir, store.IdentityRecordKey+".json"))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.EqualValues(t, 2, decoded["version"])
	assert.Equal(t, "temporary", decoded["kind"])
}

func TestIdentityStore_MigratesTypedObject(t *testing.T) {
	m := newMaterial(t)
	pair, err := json.Marshal(legacyPair(m))
	require.NoError(t, err)

	for legacyType, want := range map[string]domain.IdentityKind{
		"temp":     domain.KindTemporary,
		"imported": domain.KindImported,
	} {
		t.Run(legacyType, func(t *testing.T) {
			raw, err := json.Marshal(map[string]string{"identity": string(pair), "type": legacyType})
			require.NoError(t, err)
			kv := store.NewFileKV(t.TempDir())
			require.NoError(t, kv.Put(store.IdentityRecordKey, raw))

			got, ok := store.NewIdentityStore(kv, store.WithLogger(quietLogger())).LoadIdentity()
			require.True(t, ok)
			assert.Equal(t, want, got.Kind)
			assert.Equal(t, m, got.Material)
		})
	}
}

func TestIdentityStore_SeedOnlyLegacySecret(t *testing.T) {
	m := newMaterial(t)
	raw, err := json.Marshal([]string{
		hex.EncodeToString(m.PublicKey[:]),
		hex.EncodeToString(m.SecretKey.Seed()),
	})
	require.NoError(t, err)
	kv := store.NewFileKV(t.TempDir())
	require.NoError(t, kv.Put(store.IdentityRecordKey, raw))

	got, ok := store.NewIdentityStore(kv, store.WithLogger(quietLogger())).LoadIdentity()
	require.True(t, ok)
	assert.Equal(t, m, got.Material)
}

func TestIdentityStore_Sealed(t *testing.T) {
	kv := store.NewFileKV(t.TempDir())
	rec := domain.IdentityRecord{Kind: domain.KindImported, Material: newMaterial(t)}

	sealed := store.NewIdentityStore(kv, store.WithPassphrase("correct horse"), store.WithLogger(quietLogger()))
	require.NoError(t, sealed.SaveIdentity(rec))

	raw, ok, err := kv.Get(store.IdentityRecordKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, string(raw), hex.EncodeToString(rec.Material.SecretKey[:]))

	got, ok := sealed.LoadIdentity()
	require.True(t, ok)
	assert.Equal(t, rec, got)

	wrong := store.NewIdentityStore(kv, store.WithPassphrase("wrong"), store.WithLogger(quietLogger()))
	_, ok = wrong.LoadIdentity()
	assert.False(t, ok)
}

func TestFileKV_RejectsBadKeys(t *testing.T) {
	kv := store.NewFileKV(t.TempDir())
	assert.ErrorIs(t, kv.Put("../escape", []byte("x")), store.ErrBadKey)
	_, _, err := kv.Get("UPPER")
	assert.ErrorIs(t, err, store.ErrBadKey)
}

func TestSealedKV(t *testing.T) {
	inner := store.NewFileKV(t.TempDir())
	require.NoError(t, inner.Put("plain", []byte(`{"a":1}`)))

	kv := store.NewSealedKV(inner, "pw")
	require.NoError(t, kv.Put("secret", []byte("hidden value")))

	raw, _, err := inner.Get("secret")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hidden value")

	got, ok, err := kv.Get("secret")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hidden value", string(got))

	got, ok, err = kv.Get("plain")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(got))

	_, ok, err = store.NewSealedKV(inner, "other").Get("secret")
	assert.ErrorIs(t, err, store.ErrWrongPassphrase)
	assert.False(t, ok)

	require.NoError(t, kv.Delete("secret"))
	_, ok, err = kv.Get("secret")
	require.NoError(t, err)
	assert.False(t, ok)
}
