package domain

import "time"

// Record schema versions. Legacy records were written by the first bot
// release and hold a passphrase envelope instead of a v1 envelope.
const (
	SchemaVersionLegacy  = 0
	SchemaVersionCurrent = 1
)

// UserRecord is the custody record for one chat user. It is written once at
// enrollment and never mutated. EncryptedSecret is an opaque envelope; the raw
// key and the password are never part of a record.
type UserRecord struct {
	UserID          string
	Address         string
	EncryptedSecret string
	SchemaVersion   int
	EnrolledAt      time.Time
}

// PublicProfile is everything about a user that may leave the service.
type PublicProfile struct {
	Address string
}

func (r UserRecord) Profile() PublicProfile {
	return PublicProfile{Address: r.Address}
}
