package tokenizer

import (
	"crypto/ecdsa"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Santhosh121805/based.credit/core"
)

func signPersonal(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

func sampleMessage(address string) SIWEMessage {
	issued := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return SIWEMessage{
		Domain:         "app.example.com",
		Address:        address,
		Statement:      "Sign this message to authenticate with Trust AI Weave.",
		URI:            "https://app.example.com",
		Version:        SIWEVersion,
		ChainID:        1,
		Nonce:          "k3j4h5g6f7d8s9a0",
		IssuedAt:       issued,
		ExpirationTime: issued.Add(5 * time.Minute),
	}
}

const sampleAddress = "0xabcdef0123456789abcdef0123456789abcdef01"

func render(t *testing.T, m SIWEMessage) string {
	t.Helper()
	raw, err := m.Render()
	require.NoError(t, err)
	return raw
}

func TestSIWEMessage_RoundTrip(t *testing.T) {
	msg := sampleMessage(sampleAddress)
	raw := render(t, msg)

	header := "app.example.com wants you to sign in with your Ethereum account:\n" + common.HexToAddress(sampleAddress).Hex() + "\n"
	assert.True(t, strings.HasPrefix(raw, header))

	parsed, err := ParseSIWEMessage(raw)
	require.NoError(t, err)

	assert.Equal(t, msg.Domain, parsed.Domain)
	assert.Equal(t, msg.Address, parsed.Address)
	assert.Equal(t, msg.Statement, parsed.Statement)
	assert.Equal(t, msg.URI, parsed.URI)
	assert.Equal(t, msg.Version, parsed.Version)
	assert.Equal(t, msg.ChainID, parsed.ChainID)
	assert.Equal(t, msg.Nonce, parsed.Nonce)
	assert.True(t, msg.IssuedAt.Equal(parsed.IssuedAt))
	assert.True(t, msg.ExpirationTime.Equal(parsed.ExpirationTime))
}

func TestSIWEMessage_RenderRejectsBadAddress(t *testing.T) {
	_, err := sampleMessage("0x123").Render()
	assert.ErrorIs(t, err, core.ErrInvalidAddress)
}

func TestParseSIWEMessage_Invalid(t *testing.T) {
	valid := render(t, sampleMessage(sampleAddress))

	cases := map[string]string{
		"empty":            "",
		"no header":        "hello\nworld\n\nURI: x",
		"bad address":      strings.Replace(valid, common.HexToAddress(sampleAddress).Hex(), "0x123", 1),
		"wrong version":    strings.Replace(valid, "Version: 1", "Version: 2", 1),
		"missing nonce":    strings.Replace(valid, "Nonce: k3j4h5g6f7d8s9a0\n", "", 1),
		"short nonce":      strings.Replace(valid, "Nonce: k3j4h5g6f7d8s9a0", "Nonce: abc", 1),
		"bad issued at":    strings.Replace(valid, "Issued At: 2025-06-01T10:00:00Z", "Issued At: yesterday", 1),
		"bad chain id":     strings.Replace(valid, "Chain ID: 1", "Chain ID: one", 1),
		"duplicated field": strings.Replace(valid, "Nonce: k3j4h5g6f7d8s9a0", "Nonce: k3j4h5g6f7d8s9a0\nNonce: zzzzzzzzzzzzzzzz", 1),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSIWEMessage(raw)
			assert.ErrorIs(t, err, core.ErrInvalidChallenge)
		})
	}
}

func TestSIWEMessage_ValidAt(t *testing.T) {
	msg := sampleMessage(sampleAddress)
	parsed, err := ParseSIWEMessage(render(t, msg))
	require.NoError(t, err)

	assert.NoError(t, parsed.ValidAt(msg.IssuedAt.Add(time.Minute)))
	assert.ErrorIs(t, parsed.ValidAt(msg.ExpirationTime.Add(time.Second)), core.ErrInvalidChallenge)
	assert.ErrorIs(t, SIWEMessage{}.ValidAt(msg.IssuedAt), core.ErrInvalidChallenge)
}

func TestSIWEMessage_VerifySignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	raw := render(t, sampleMessage(address))
	parsed, err := ParseSIWEMessage(raw)
	require.NoError(t, err)
	sig := signPersonal(t, key, raw)

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, parsed.VerifySignature(sig, address))
	})

	t.Run("case insensitive address", func(t *testing.T) {
		assert.NoError(t, parsed.VerifySignature(sig, core.NormalizeAddress(address)))
	})

	t.Run("zero based recovery id", func(t *testing.T) {
		b, err := hexutil.Decode(sig)
		require.NoError(t, err)
		b[crypto.RecoveryIDOffset] -= 27
		assert.NoError(t, parsed.VerifySignature(hexutil.Encode(b), address))
	})

	t.Run("other signer", func(t *testing.T) {
		other, err := crypto.GenerateKey()
		require.NoError(t, err)
		forged := signPersonal(t, other, raw)
		assert.ErrorIs(t, parsed.VerifySignature(forged, address), core.ErrSignatureInvalid)
	})

	t.Run("claimed address differs", func(t *testing.T) {
		err := parsed.VerifySignature(sig, "0x2222222222222222222222222222222222222222")
		assert.ErrorIs(t, err, core.ErrSignatureInvalid)
	})

	t.Run("signature over another message", func(t *testing.T) {
		other := sampleMessage(address)
		other.Nonce = "z9y8x7w6v5u4t3s2"
		assert.ErrorIs(t, parsed.VerifySignature(signPersonal(t, key, render(t, other)), address), core.ErrSignatureInvalid)
	})

	t.Run("malformed signature", func(t *testing.T) {
		assert.ErrorIs(t, parsed.VerifySignature("0x1234", address), core.ErrSignatureInvalid)
		assert.ErrorIs(t, parsed.VerifySignature("not-hex", address), core.ErrSignatureInvalid)
	})

	t.Run("unparsed message", func(t *testing.T) {
		assert.ErrorIs(t, SIWEMessage{}.VerifySignature(sig, address), core.ErrSignatureInvalid)
	})
}
