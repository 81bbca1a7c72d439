// Package extcrypto provides hashing functions under the hash namespace.
// Digests let rules fingerprint fact values and compare them against
// known checksums.
//
// Security note: MD5 and SHA-1 are provided for fingerprinting only.
package extcrypto

import (
	"context"
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // fingerprinting only
	"crypto/sha1" //nolint:gosec // fingerprinting only
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/sandrolain/gologic/pkg/ext/extutil"
	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

// All returns all hash function definitions.
func All() []functions.Definition {
	return []functions.Definition{
		Digest(),
		HMAC(),
		Sum("hash.md5", "md5"),
		Sum("hash.sha1", "sha1"),
		Sum("hash.sha256", "sha256"),
		Sum("hash.sha512", "sha512"),
	}
}

// Digest returns the definition for hash.digest(str, algorithm).
// Supported algorithms: "md5", "sha1", "sha256", "sha384", "sha512".
// Returns a lowercase hex-encoded digest.
func Digest() functions.Definition {
	return functions.Definition{
		Name:        "hash.digest",
		Params:      []types.ParamKind{types.ParamString, types.ParamString},
		Returns:     types.ParamString,
		Description: "Hex digest of str with the named algorithm",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			str, err := functions.String("hash.digest", args, 0)
			if err != nil {
				return nil, err
			}
			algorithm, err := functions.String("hash.digest", args, 1)
			if err != nil {
				return nil, err
			}
			newHash, err := hasher(algorithm)
			if err != nil {
				return nil, err
			}
			return types.NewString(digest(newHash(), str)), nil
		},
	}
}

// Sum returns a one-argument definition named name hashing with algorithm.
func Sum(name, algorithm string) functions.Definition {
	return extutil.StringFunc(name, "Hex "+algorithm+" digest of str", types.ParamString,
		func(s string) (types.Value, error) {
			newHash, err := hasher(algorithm)
			if err != nil {
				return nil, err
			}
			return types.NewString(digest(newHash(), s)), nil
		})
}

// HMAC returns the definition for hash.hmac(str, key, algorithm).
func HMAC() functions.Definition {
	return functions.Definition{
		Name:        "hash.hmac",
		Params:      []types.ParamKind{types.ParamString, types.ParamString, types.ParamString},
		Returns:     types.ParamString,
		Description: "Hex HMAC of str keyed by key with the named algorithm",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			str, err := functions.String("hash.hmac", args, 0)
			if err != nil {
				return nil, err
			}
			key, err := functions.String("hash.hmac", args, 1)
			if err != nil {
				return nil, err
			}
			algorithm, err := functions.String("hash.hmac", args, 2)
			if err != nil {
				return nil, err
			}
			newHash, err := hasher(algorithm)
			if err != nil {
				return nil, err
			}
			return types.NewString(digest(hmac.New(newHash, []byte(key)), str)), nil
		},
	}
}

func digest(h hash.Hash, s string) string {
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}

func hasher(algorithm string) (func() hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case "md5":
		return md5.New, nil
	case "sha1":
		return sha1.New, nil
	case "sha256":
		return sha256.New, nil
	case "sha384":
		return sha512.New384, nil
	case "sha512":
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("unsupported algorithm %q (use md5, sha1, sha256, sha384, sha512)", algorithm)
	}
}
