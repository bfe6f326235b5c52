package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// TokenLength длина токена подтверждения.
const TokenLength = 25

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// SubscriptionToken токен подтверждения подписки.
type SubscriptionToken struct {
	value string
}

// ParseSubscriptionToken проверяет форму токена: ровно 25 латинских букв и цифр.
func ParseSubscriptionToken(raw string) (SubscriptionToken, error) {
	if len(raw) != TokenLength {
		return SubscriptionToken{}, fmt.Errorf("%s is not a valid subscription token", raw)
	}
	for i := 0; i < len(raw); i++ {
		if !isAlphanumeric(raw[i]) {
			return SubscriptionToken{}, fmt.Errorf("%s is not a valid subscription token", raw)
		}
	}
	return SubscriptionToken{value: raw}, nil
}

// GenerateSubscriptionToken выбирает 25 символов из [A-Za-z0-9] равномерно,
// используя crypto/rand.
func GenerateSubscriptionToken() (SubscriptionToken, error) {
	const op = "domain.GenerateSubscriptionToken"
	alphabetSize := big.NewInt(int64(len(tokenAlphabet)))
	buf := make([]byte, TokenLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return SubscriptionToken{}, fmt.Errorf("%s: %w", op, err)
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return SubscriptionToken{value: string(buf)}, nil
}

func (t SubscriptionToken) String() string {
	return t.value
}

func isAlphanumeric(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
