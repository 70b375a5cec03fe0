package signer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeVerify(t *testing.T) {
	msg := []byte("pause_system")

	for _, kt := range []KeyType{KeyTypeEd25519, KeyTypeSecp256k1} {
		t.Run(kt.String(), func(t *testing.T) {
			s, err := Generate(kt)
			require.NoError(t, err)

			env, err := s.Sign(msg)
			require.NoError(t, err)
			assert.Equal(t, kt, env.KeyType)

			id, err := env.Verify(msg)
			require.NoError(t, err)
			assert.Equal(t, s.Identity(), id)

			_, err = env.Verify([]byte("unpause_system"))
			assert.ErrorIs(t, err, ErrInvalidSignature)
		})
	}
}

func TestEnvelopeRejectsTampering(t *testing.T) {
	s, err := GenerateEd25519()
	require.NoError(t, err)
	other, err := GenerateEd25519()
	require.NoError(t, err)

	env, err := s.Sign([]byte("msg"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(e *Envelope)
		wantErr error
	}{
		{
			name:    "missing signature",
			mutate:  func(e *Envelope) { e.Signature = nil },
			wantErr: ErrMissingSignature,
		},
		{
			name:    "swapped public key",
			mutate:  func(e *Envelope) { e.PublicKey = other.Identity().Bytes() },
			wantErr: ErrInvalidSignature,
		},
		{
			name:    "truncated public key",
			mutate:  func(e *Envelope) { e.PublicKey = e.PublicKey[:10] },
			wantErr: ErrInvalidPublicKey,
		},
		{
			name:    "unknown key type",
			mutate:  func(e *Envelope) { e.KeyType = KeyTypeUnknown },
			wantErr: ErrInvalidPublicKey,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := env
			e.PublicKey = append([]byte(nil), env.PublicKey...)
			tc.mutate(&e)
			_, err := e.Verify([]byte("msg"))
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestPublicKeyType(t *testing.T) {
	tests := []struct {
		name string
		key  []byte
		want KeyType
	}{
		{"ed25519", make([]byte, 32), KeyTypeEd25519},
		{"secp256k1 even", append([]byte{0x02}, make([]byte, 32)...), KeyTypeSecp256k1},
		{"secp256k1 odd", append([]byte{0x03}, make([]byte, 32)...), KeyTypeSecp256k1},
		{"bad prefix", append([]byte{0x04}, make([]byte, 32)...), KeyTypeUnknown},
		{"empty", nil, KeyTypeUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PublicKeyType(tc.key))
		})
	}
}

func TestKeyFileRoundTrip(t *testing.T) {
	dir := t.TempDir()

	for _, kt := range []KeyType{KeyTypeEd25519, KeyTypeSecp256k1} {
		t.Run(kt.String(), func(t *testing.T) {
			s, err := Generate(kt)
			require.NoError(t, err)

			path := filepath.Join(dir, kt.String()+".json")
			require.NoError(t, SaveKeyFile(path, s))

			loaded, err := LoadKeyFile(path)
			require.NoError(t, err)
			assert.Equal(t, s.Identity(), loaded.Identity())
		})
	}
}
