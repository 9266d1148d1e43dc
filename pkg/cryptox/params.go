package cryptox

import (
	"errors"
	"fmt"
)

// Argon2id cost parameters. Memory is in KiB.
type Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams follows the OWASP minimum recommendation for Argon2id.
var DefaultParams = Params{
	Memory:      19 * 1024, // 19 MiB
	Iterations:  2,
	Parallelism: 1,
}

const (
	keyLength  = 32 // AES-256
	saltLength = 16

	// Upper bounds accepted when reading an envelope, so a tampered header
	// cannot make Decrypt allocate unbounded memory.
	maxMemory      = 1 << 20 // 1 GiB
	maxIterations  = 16
	maxParallelism = 16
)

// ErrInvalidParams reports cost parameters outside the accepted range.
var ErrInvalidParams = errors.New("cryptox: invalid kdf parameters")

// Validate checks the parameters are within the accepted range.
func (p Params) Validate() error {
	switch {
	case p.Parallelism == 0 || p.Parallelism > maxParallelism:
		return fmt.Errorf("%w: parallelism %d", ErrInvalidParams, p.Parallelism)
	case p.Iterations == 0 || p.Iterations > maxIterations:
		return fmt.Errorf("%w: iterations %d", ErrInvalidParams, p.Iterations)
	case p.Memory < 8*uint32(p.Parallelism) || p.Memory > maxMemory:
		return fmt.Errorf("%w: memory %d KiB", ErrInvalidParams, p.Memory)
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("m=%d,t=%d,p=%d", p.Memory, p.Iterations, p.Parallelism)
}

func parseParams(s string) (Params, error) {
	var p Params
	if _, err := fmt.Sscanf(s, "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return Params{}, err
	}
	// Reject anything that does not round-trip, e.g. leading zeros or trailing junk.
	if p.String() != s {
		return Params{}, errors.New("non-canonical parameters")
	}
	return p, p.Validate()
}
