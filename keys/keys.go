// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package keys manages the Ed25519 key pairs that sign wallet messages
package keys

import (
	"bytes"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"errors"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/pbkdf2"

	"github.com/blinklabs-io/goton/boc"
)

const (
	SeedSize      = ed25519.SeedSize
	PublicKeySize = ed25519.PublicKeySize
	SecretKeySize = ed25519.PrivateKeySize
	SignatureSize = ed25519.SignatureSize

	MnemonicWords = 24

	mnemonicSeedSalt       = "TON default seed"
	mnemonicSeedIterations = 100000
	basicSeedSalt          = "TON seed version"
	basicSeedIterations    = 100000 / 256
	passwordSeedSalt       = "TON fast seed version"
	passwordSeedIterations = 1
)

var (
	ErrInvalidSeed      = errors.New("invalid seed")
	ErrInvalidSecretKey = errors.New("invalid secret key")
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrInvalidMnemonic  = errors.New("invalid mnemonic")
)

// KeyPair holds an Ed25519 key pair. SecretKey is the 64-byte seed and
// public key concatenation.
type KeyPair struct {
	PublicKey ed25519.PublicKey
	SecretKey ed25519.PrivateKey
}

// NewSeed returns 32 random bytes
func NewSeed() ([]byte, error) {
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	return seed, nil
}

// NewKeyPair generates a key pair from a random seed
func NewKeyPair() (*KeyPair, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return KeyPairFromSeed(seed)
}

// KeyPairFromSeed derives a key pair from a 32-byte seed
func KeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSeed, SeedSize, len(seed))
	}
	sk := ed25519.NewKeyFromSeed(seed)
	return &KeyPair{
		PublicKey: sk.Public().(ed25519.PublicKey),
		SecretKey: sk,
	}, nil
}

// KeyPairFromSecretKey rebuilds a key pair from a 64-byte secret key
func KeyPairFromSecretKey(secretKey []byte) (*KeyPair, error) {
	if len(secretKey) != SecretKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSecretKey, SecretKeySize, len(secretKey))
	}
	kp, err := KeyPairFromSeed(secretKey[:SeedSize])
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(kp.PublicKey, secretKey[SeedSize:]) {
		return nil, fmt.Errorf("%w: public key half does not match seed", ErrInvalidSecretKey)
	}
	return kp, nil
}

// MnemonicToEntropy returns HMAC-SHA512 keyed by the space-joined words over the password
func MnemonicToEntropy(words []string, password string) []byte {
	mac := hmac.New(sha512.New, []byte(strings.Join(normalizeWords(words), " ")))
	mac.Write([]byte(password))
	return mac.Sum(nil)
}

func normalizeWords(words []string) []string {
	ret := make([]string, 0, len(words))
	for _, w := range words {
		ret = append(ret, strings.ToLower(strings.TrimSpace(w)))
	}
	return ret
}

// IsBasicSeed reports whether the entropy was produced by a mnemonic without a password
func IsBasicSeed(entropy []byte) bool {
	seed := pbkdf2.Key(entropy, []byte(basicSeedSalt), basicSeedIterations, 64, sha512.New)
	return seed[0] == 0
}

// IsPasswordSeed reports whether the entropy was produced by a password-protected mnemonic
func IsPasswordSeed(entropy []byte) bool {
	seed := pbkdf2.Key(entropy, []byte(passwordSeedSalt), passwordSeedIterations, 64, sha512.New)
	return seed[0] == 1
}

// ValidateMnemonic checks the word count and the seed version markers
func ValidateMnemonic(words []string, password string) error {
	if len(words) != MnemonicWords {
		return fmt.Errorf("%w: expected %d words, got %d", ErrInvalidMnemonic, MnemonicWords, len(words))
	}
	if password != "" {
		entropy := MnemonicToEntropy(words, "")
		if !IsPasswordSeed(entropy) || IsBasicSeed(entropy) {
			return fmt.Errorf("%w: not a password mnemonic", ErrInvalidMnemonic)
		}
	}
	if !IsBasicSeed(MnemonicToEntropy(words, password)) {
		return fmt.Errorf("%w: seed version mismatch", ErrInvalidMnemonic)
	}
	return nil
}

// MnemonicToSeed derives the 32-byte key seed for a mnemonic
func MnemonicToSeed(words []string, password string) ([]byte, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: no words", ErrInvalidMnemonic)
	}
	entropy := MnemonicToEntropy(words, password)
	seed := pbkdf2.Key(entropy, []byte(mnemonicSeedSalt), mnemonicSeedIterations, 64, sha512.New)
	return seed[:SeedSize], nil
}

// MnemonicToKeyPair derives the key pair for a mnemonic
func MnemonicToKeyPair(words []string, password string) (*KeyPair, error) {
	seed, err := MnemonicToSeed(words, password)
	if err != nil {
		return nil, err
	}
	return KeyPairFromSeed(seed)
}

// ValidatePublicKey rejects keys that are not canonical curve points or that
// have small order
func ValidatePublicKey(publicKey []byte) error {
	if len(publicKey) != PublicKeySize {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPublicKey, PublicKeySize, len(publicKey))
	}
	p := &edwards25519.Point{}
	if _, err := p.SetBytes(publicKey); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	isSmallOrder := (&edwards25519.Point{}).MultByCofactor(p).
		Equal(edwards25519.NewIdentityPoint()) ==
		1
	if isSmallOrder {
		return fmt.Errorf("%w: small order point", ErrInvalidPublicKey)
	}
	return nil
}

// SignCell returns the detached signature of the cell representation hash
func SignCell(c *boc.Cell, secretKey ed25519.PrivateKey) ([]byte, error) {
	if len(secretKey) != SecretKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSecretKey, SecretKeySize, len(secretKey))
	}
	return ed25519.Sign(secretKey, c.Hash()), nil
}

// VerifyCell checks a detached signature of the cell representation hash
func VerifyCell(c *boc.Cell, publicKey ed25519.PublicKey, signature []byte) bool {
	if len(publicKey) != PublicKeySize || len(signature) != SignatureSize {
		return false
	}
	return ed25519.Verify(publicKey, c.Hash(), signature)
}
