package client

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

var ErrUnsupportedKey = errors.New("crypto: unsupported private key length")

// Serialize produces the canonical signing payload for a transaction.
// The node rebuilds the same payload to verify the signature, so field
// order here is part of the wire contract.
func Serialize(tx *Tx) []byte {
	metadata := fmt.Sprintf("%s|%s|%s|%s|%d|%d",
		tx.Kind, tx.Sender, uint256ToString(tx.Amount), uint256ToString(tx.Fee), tx.Nonce, tx.Timestamp)
	return []byte(metadata)
}

func SignTx(tx *Tx, privKey []byte) (SignedTx, error) {
	switch l := len(privKey); l {
	case ed25519.SeedSize:
		privKey = ed25519.NewKeyFromSeed(privKey)
	case ed25519.PrivateKeySize:
	default:
		return SignedTx{}, ErrUnsupportedKey
	}

	payload := Serialize(tx)
	signature := ed25519.Sign(privKey, payload)

	return SignedTx{
		Tx:  tx,
		Sig: base58.Encode(signature),
	}, nil
}

func Verify(tx *Tx, sig string) bool {
	decoded, err := base58.Decode(tx.Sender)
	if err != nil || len(decoded) != ed25519.PublicKeySize {
		return false
	}
	pubKey := ed25519.PublicKey(decoded)
	payload := Serialize(tx)
	signature, err := base58.Decode(sig)
	if err != nil {
		return false
	}

	return ed25519.Verify(pubKey, payload, signature)
}

// AddressFromKey derives the base58 account address from a private key.
func AddressFromKey(privKey ed25519.PrivateKey) string {
	return base58.Encode(privKey.Public().(ed25519.PublicKey))
}
