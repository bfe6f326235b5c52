package domain

import (
	"fmt"

	"github.com/go-playground/validator"
)

var validate = validator.New()

// SubscriberEmail адрес электронной почты подписчика.
type SubscriberEmail struct {
	value string
}

// ParseSubscriberEmail проверяет адрес по грамматике email.
func ParseSubscriberEmail(raw string) (SubscriberEmail, error) {
	if err := validate.Var(raw, "required,email"); err != nil {
		return SubscriberEmail{}, fmt.Errorf("%s is not a valid subscriber email", raw)
	}
	return SubscriberEmail{value: raw}, nil
}

func (e SubscriberEmail) String() string {
	return e.value
}
