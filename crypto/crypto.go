package crypto

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/google/uuid"
)

// InvitationCode returns a new invitation code: prefix followed by the hex md5 digest
// of a random uuid. Codes are unique with overwhelming probability but are not meant
// to be secret tokens.
func InvitationCode(prefix string) string {
	id := uuid.New()
	sum := md5.Sum(id[:])
	return prefix + hex.EncodeToString(sum[:])
}
