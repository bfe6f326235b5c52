// Package domain содержит проверенные типы значений подписчика.
//
// Экземпляр любого типа можно получить только через функцию разбора,
// поэтому код, принимающий SubscriberName, SubscriberEmail или
// SubscriptionToken, не повторяет проверки.
package domain

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

const (
	maxNameGraphemes = 256
	forbiddenNameSet = `/()"<>\{}`
)

// SubscriberName имя подписчика.
type SubscriberName struct {
	value string
}

// ParseSubscriberName проверяет имя: после обрезки пробелов оно не пустое,
// содержит не более 256 графемных кластеров и ни одного из символов /()"<>\{}.
func ParseSubscriberName(raw string) (SubscriberName, error) {
	isEmpty := strings.TrimSpace(raw) == ""
	isTooLong := uniseg.GraphemeClusterCount(raw) > maxNameGraphemes
	hasForbidden := strings.ContainsAny(raw, forbiddenNameSet)

	if isEmpty || isTooLong || hasForbidden {
		return SubscriberName{}, fmt.Errorf("%s is not a valid subscriber name", raw)
	}
	return SubscriberName{value: raw}, nil
}

func (n SubscriberName) String() string {
	return n.value
}
