package keys

import (
	"crypto/sha256"
	"errors"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
)

// Seed values for the vault's derived records. They match the deployed
// on-chain program so that off-chain derivation agrees with it.
var (
	SeedVaultInfo   = []byte("bank_info")
	SeedVaultStore  = []byte("bank_vault")
	SeedUserReserve = []byte("user_reserve")
)

const (
	maxSeeds      = 16
	maxSeedLength = 32
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")

	// ErrOnCurve indicates the derivation produced a point on the ed25519
	// curve, i.e. an address that could have a private key. Such addresses
	// are rejected so the authority can never be signed for directly.
	ErrOnCurve = errors.New("derived address lies on the ed25519 curve")
)

// CreateAuthority derives a deterministic signing identity for the vault from
// the program key and seed values. The result intentionally has no associated
// private key: candidate addresses that decode as valid curve points are
// rejected with ErrOnCurve.
func CreateAuthority(program PublicKey, seeds ...[]byte) (PublicKey, error) {
	if len(seeds) > maxSeeds {
		return nil, ErrTooManySeeds
	}

	h := sha256.New()
	for _, s := range seeds {
		if len(s) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}
		h.Write(s)
	}
	h.Write(program)
	h.Write([]byte("ProgramDerivedAddress"))

	hash := h.Sum(nil)
	var pub [32]byte
	copy(pub[:], hash)

	var point edwards25519.ExtendedGroupElement
	if point.FromBytes(&pub) {
		return nil, ErrOnCurve
	}

	return PublicKey(pub[:]), nil
}

// FindAuthority scans bump seeds from 255 downward until CreateAuthority
// yields an off-curve address, returning the address and the bump used.
func FindAuthority(program PublicKey, seeds ...[]byte) (PublicKey, uint8, error) {
	bump := []byte{math.MaxUint8}
	for i := 0; i < math.MaxUint8; i++ {
		authority, err := CreateAuthority(program, append(seeds, bump)...)
		if err == nil {
			return authority, bump[0], nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return nil, 0, err
		}
		bump[0]--
	}
	return nil, 0, errors.New("exhausted bump seeds without finding an authority")
}

// VaultAuthority derives the vault's pooled holding identity for a program.
func VaultAuthority(program PublicKey) (PublicKey, uint8, error) {
	return FindAuthority(program, SeedVaultStore)
}

// ReserveAddress derives the ledger-entry identity for a depositor.
func ReserveAddress(program, owner PublicKey) (PublicKey, uint8, error) {
	return FindAuthority(program, SeedUserReserve, owner)
}
