package cryptox

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/userstore/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	argon2idPrefix  = "$argon2id$"
	argon2SaltLen   = 16
	argon2KeyLen    = 32
	argon2MaxKeyLen = 1024
)

// Argon2id is a Hasher producing PHC-formatted argon2id digests:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
//
// with salt and key in unpadded standard base64.
type Argon2id struct {
	time    uint32
	memory  uint32
	threads uint8
}

// NewArgon2id returns an argon2id Hasher. Zero parameters are replaced with
// time=1, memory=64 MiB, threads=4.
func NewArgon2id(time, memoryKiB uint32, threads uint8) *Argon2id {
	if time == 0 {
		time = 1
	}
	if memoryKiB == 0 {
		memoryKiB = 64 * 1024
	}
	if threads == 0 {
		threads = 4
	}
	return &Argon2id{time: time, memory: memoryKiB, threads: threads}
}

func (a *Argon2id) Hash(ctx context.Context, plaintext string) (string, error) {
	return run(ctx, func() (string, error) {
		salt, err := common.RandBytes(argon2SaltLen)
		if err != nil {
			return "", err
		}
		key := argon2.IDKey([]byte(plaintext), salt, a.time, a.memory, a.threads, argon2KeyLen)

		return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
			argon2idPrefix, argon2.Version, a.memory, a.time, a.threads,
			base64.RawStdEncoding.EncodeToString(salt),
			base64.RawStdEncoding.EncodeToString(key),
		), nil
	})
}

func (a *Argon2id) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	p, ok := parseArgon2id(digest)
	if !ok {
		return false, nil
	}
	return run(ctx, func() (bool, error) {
		key := argon2.IDKey([]byte(plaintext), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
		return subtle.ConstantTimeCompare(key, p.key) == 1, nil
	})
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

// parseArgon2id splits a PHC argon2id string. Anything unexpected,
// including a version other than argon2.Version, is reported as !ok.
func parseArgon2id(digest string) (argon2Params, bool) {
	var p argon2Params

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, false
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &threads); err != nil {
		return p, false
	}
	if p.memory == 0 || p.time == 0 || threads == 0 || threads > 255 {
		return p, false
	}
	p.threads = uint8(threads)

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(p.salt) == 0 {
		return p, false
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 || len(p.key) > argon2MaxKeyLen {
		return p, false
	}

	return p, true
}
