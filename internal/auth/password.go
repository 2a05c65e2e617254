package auth

import (
	"errors"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/apr1_crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
)

var ErrUnsupportedHash = errors.New("unsupported password hash")

// HashPassword hashes a cleartext password with apr1 (the htpasswd "md5"
// scheme) and a random salt.
func HashPassword(password string) (string, error) {
	return apr1_crypt.New().Generate([]byte(password), nil)
}

// VerifyPassword checks a cleartext password against a stored hash.
// Supported schemes: $apr1$, $1$ (md5-crypt), $5$ (sha256-crypt),
// $6$ (sha512-crypt). Verification goes through the crypt library's
// constant-time Verify rather than re-hashing and comparing strings.
func VerifyPassword(hash, password string) (bool, error) {
	var crypters []crypt.Crypter
	crypters = append(crypters, apr1_crypt.New())
	crypters = append(crypters, md5_crypt.New())
	crypters = append(crypters, sha256_crypt.New())
	crypters = append(crypters, sha512_crypt.New())

	for _, c := range crypters {
		if err := c.Verify(hash, []byte(password)); err == nil {
			return true, nil
		}
	}

	for _, prefix := range []string{"$apr1$", "$1$", "$5$", "$6$"} {
		if strings.HasPrefix(hash, prefix) {
			return false, nil
		}
	}
	return false, ErrUnsupportedHash
}
