package tokenizer

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	siwe "github.com/spruceid/siwe-go"

	"github.com/Santhosh121805/based.credit/core"
)

// SIWEVersion is the only EIP-4361 message version accepted
const SIWEVersion = "1"

var (
	siweNonce  = regexp.MustCompile(`^[a-zA-Z0-9]{8,}$`)
	siweFields = []string{"URI: ", "Version: ", "Chain ID: ", "Nonce: ", "Issued At: ",
		"Expiration Time: ", "Not Before: ", "Request ID: ", "Resources:"}
)

// SIWEMessage is an EIP-4361 Sign-In with Ethereum message
type SIWEMessage struct {
	Domain         string
	Address        string
	Statement      string
	URI            string
	Version        string
	ChainID        int64
	Nonce          string
	IssuedAt       time.Time
	ExpirationTime time.Time // zero when absent

	msg *siwe.Message
}

// Render returns the EIP-4361 text of m. The address is written with its
// EIP-55 checksum.
func (m SIWEMessage) Render() (string, error) {
	if !core.IsValidAddress(m.Address) {
		return "", fmt.Errorf("wallet %q: %w", m.Address, core.ErrInvalidAddress)
	}

	options := map[string]interface{}{
		"chainId":  int(m.ChainID),
		"issuedAt": m.IssuedAt.UTC().Format(time.RFC3339),
	}
	if m.Statement != "" {
		options["statement"] = m.Statement
	}
	if !m.ExpirationTime.IsZero() {
		options["expirationTime"] = m.ExpirationTime.UTC().Format(time.RFC3339)
	}

	msg, err := siwe.InitMessage(m.Domain, common.HexToAddress(m.Address).Hex(), m.URI, m.Nonce, options)
	if err != nil {
		return "", fmt.Errorf("build sign-in message: %v: %w", err, core.ErrInvalidChallenge)
	}
	return msg.String(), nil
}

// ParseSIWEMessage parses and validates the grammar of an EIP-4361 message
func ParseSIWEMessage(raw string) (SIWEMessage, error) {
	if lines := strings.SplitN(raw, "\n", 3); len(lines) < 3 || !core.IsValidAddress(lines[1]) {
		return SIWEMessage{}, fmt.Errorf("address line: %w", core.ErrInvalidChallenge)
	}
	if err := checkFieldsUnique(raw); err != nil {
		return SIWEMessage{}, err
	}

	msg, err := siwe.ParseMessage(raw)
	if err != nil {
		return SIWEMessage{}, fmt.Errorf("parse sign-in message: %v: %w", err, core.ErrInvalidChallenge)
	}
	if msg.GetVersion() != SIWEVersion {
		return SIWEMessage{}, fmt.Errorf("version %q: %w", msg.GetVersion(), core.ErrInvalidChallenge)
	}
	if !siweNonce.MatchString(msg.GetNonce()) {
		return SIWEMessage{}, fmt.Errorf("nonce: %w", core.ErrInvalidChallenge)
	}

	issuedAt, err := time.Parse(time.RFC3339, msg.GetIssuedAt())
	if err != nil {
		return SIWEMessage{}, fmt.Errorf("issued at: %w", core.ErrInvalidChallenge)
	}

	uri := msg.GetURI()
	m := SIWEMessage{
		Domain:   msg.GetDomain(),
		Address:  core.NormalizeAddress(msg.GetAddress().Hex()),
		URI:      uri.String(),
		Version:  msg.GetVersion(),
		ChainID:  int64(msg.GetChainID()),
		Nonce:    msg.GetNonce(),
		IssuedAt: issuedAt,
		msg:      msg,
	}
	if statement := msg.GetStatement(); statement != nil {
		m.Statement = *statement
	}
	if exp := msg.GetExpirationTime(); exp != nil {
		if m.ExpirationTime, err = time.Parse(time.RFC3339, *exp); err != nil {
			return SIWEMessage{}, fmt.Errorf("expiration time: %w", core.ErrInvalidChallenge)
		}
	}

	return m, nil
}

func checkFieldsUnique(raw string) error {
	seen := make(map[string]bool, len(siweFields))
	for _, line := range strings.Split(raw, "\n") {
		for _, field := range siweFields {
			if !strings.HasPrefix(line, field) {
				continue
			}
			if seen[field] {
				return fmt.Errorf("repeated field %q: %w", strings.TrimSpace(field), core.ErrInvalidChallenge)
			}
			seen[field] = true
		}
	}
	return nil
}

// ValidAt reports whether the message time bounds include t
func (m SIWEMessage) ValidAt(t time.Time) error {
	if m.msg == nil {
		return fmt.Errorf("message not parsed: %w", core.ErrInvalidChallenge)
	}
	if ok, err := m.msg.ValidAt(t); !ok {
		return fmt.Errorf("outside validity window: %v: %w", err, core.ErrInvalidChallenge)
	}
	return nil
}

// VerifySignature checks that signatureStr is an EIP-191 personal_sign
// signature of the message by its own address and that this address is
// addressStr
func (m SIWEMessage) VerifySignature(signatureStr, addressStr string) error {
	if m.msg == nil {
		return fmt.Errorf("message not parsed: %w", core.ErrSignatureInvalid)
	}

	sig, err := hexutil.Decode(signatureStr)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", core.ErrSignatureInvalid)
	}
	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("signature must be 65 bytes: %w", core.ErrSignatureInvalid)
	}
	// Wallets produce V as 27/28, some signers emit 0/1
	if sig[crypto.RecoveryIDOffset] < 27 {
		sig[crypto.RecoveryIDOffset] += 27
	}

	pub, err := m.msg.VerifyEIP191(hexutil.Encode(sig))
	if err != nil {
		return fmt.Errorf("%v: %w", err, core.ErrSignatureInvalid)
	}

	signer := crypto.PubkeyToAddress(*pub).Hex()
	if !core.SameAddress(signer, addressStr) {
		return fmt.Errorf("recovered %s: %w", signer, core.ErrSignatureInvalid)
	}
	return nil
}
