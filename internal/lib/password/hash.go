// Package password реализует хеширование и проверку паролей операторов.
//
// GetHash создает argon2id-хеш в формате PHC
// ($argon2id$v=19$m=15000,t=2,p=1$<salt>$<hash>).
// CompareHash проверяет пароль по PHC-строке; параметры стоимости берутся
// из самой строки. Хеши bcrypt, оставшиеся от старых учётных записей,
// тоже проверяются.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	memory     = 15000
	iterations = 2
	threads    = 1
	saltLen    = 16
	keyLen     = 32
)

var (
	// ErrMismatch пароль не соответствует хешу.
	ErrMismatch = errors.New("password does not match")
	// ErrInvalidHash строку хеша не удалось разобрать.
	ErrInvalidHash = errors.New("invalid password hash")
)

// GetHash принимает пароль и возвращает его argon2id-хеш в формате PHC.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	key := argon2.IDKey([]byte(password), salt, iterations, memory, threads, keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memory, iterations, threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// CompareHash сравнивает хеш с введённым паролем.
//
// Возвращает nil при совпадении, ErrMismatch при несовпадении и
// ErrInvalidHash, если хеш повреждён или записан неизвестным алгоритмом.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	if isBcrypt(originalHash) {
		err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword))
		switch {
		case err == nil:
			return nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return fmt.Errorf("%s: %w", op, ErrMismatch)
		default:
			return fmt.Errorf("%s: %w: %w", op, ErrInvalidHash, err)
		}
	}

	p, err := parsePHC(originalHash)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidHash, err)
	}
	computed := argon2.IDKey([]byte(externalPassword), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	if subtle.ConstantTimeCompare(computed, p.key) != 1 {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	return nil
}

// NeedsUpgrade сообщает, что хеш стоит пересчитать в argon2id.
func NeedsUpgrade(hash string) bool {
	return !strings.HasPrefix(hash, "$argon2id$")
}

type phc struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parsePHC(encoded string) (phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return phc{}, errors.New("unexpected number of fields")
	}
	if parts[1] != "argon2id" {
		return phc{}, fmt.Errorf("unsupported algorithm %q", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return phc{}, err
	}
	if version != argon2.Version {
		return phc{}, fmt.Errorf("unsupported version %d", version)
	}

	var m, t, p uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return phc{}, err
	}
	if p == 0 || p > 255 || t == 0 {
		return phc{}, fmt.Errorf("invalid parameters m=%d,t=%d,p=%d", m, t, p)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return phc{}, err
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return phc{}, err
	}
	if len(key) == 0 || len(key) > 1024 {
		return phc{}, fmt.Errorf("invalid key length %d", len(key))
	}

	return phc{memory: m, time: t, threads: uint8(p), salt: salt, key: key}, nil
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

// Hasher предоставляет GetHash и CompareHash как методы, чтобы сервисы
// могли принимать их через интерфейс.
type Hasher struct{}

// GetHash см. функцию GetHash.
func (Hasher) GetHash(password string) (string, error) {
	return GetHash(password)
}

// CompareHash см. функцию CompareHash.
func (Hasher) CompareHash(originalHash, externalPassword string) error {
	return CompareHash(originalHash, externalPassword)
}
