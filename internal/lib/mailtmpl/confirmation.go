// Package mailtmpl рендерит тексты служебных писем шаблонами Liquid.
package mailtmpl

import (
	"fmt"

	"github.com/osteele/liquid"
)

// ConfirmationSubject тема письма с подтверждением подписки.
const ConfirmationSubject = "Welcome"

const (
	confirmationHTML = `Welcome to our newsletter!<br />Click <a href="{{ confirmation_link }}">here</a> to confirm your subscription.`
	confirmationText = "Welcome to our newsletter!\nVisit {{ confirmation_link }} to confirm your subscription."
)

// Renderer хранит разобранные шаблоны. Безопасен для параллельного использования.
type Renderer struct {
	html *liquid.Template
	text *liquid.Template
}

// New разбирает встроенные шаблоны.
func New() (*Renderer, error) {
	return NewFromStrings(confirmationHTML, confirmationText)
}

// NewFromStrings разбирает переданные шаблоны письма подтверждения.
// Ссылка доступна в шаблоне как confirmation_link.
func NewFromStrings(htmlSrc, textSrc string) (*Renderer, error) {
	const op = "mailtmpl.New"
	engine := liquid.NewEngine()

	html, err := engine.ParseString(htmlSrc)
	if err != nil {
		return nil, fmt.Errorf("%s: html template: %w", op, err)
	}
	text, err := engine.ParseString(textSrc)
	if err != nil {
		return nil, fmt.Errorf("%s: text template: %w", op, err)
	}
	return &Renderer{html: html, text: text}, nil
}

// Confirmation возвращает HTML и текстовую версии письма со ссылкой link.
func (r *Renderer) Confirmation(link string) (html, text string, err error) {
	const op = "mailtmpl.Confirmation"
	bindings := liquid.Bindings{"confirmation_link": link}

	html, rerr := r.html.RenderString(bindings)
	if rerr != nil {
		return "", "", fmt.Errorf("%s: %w", op, rerr)
	}
	text, rerr = r.text.RenderString(bindings)
	if rerr != nil {
		return "", "", fmt.Errorf("%s: %w", op, rerr)
	}
	return html, text, nil
}
