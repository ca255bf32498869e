// Package mail renders and delivers the registration confirmation email.
package mail

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"os"
)

//go:embed templates/confirmation.html
var templates embed.FS

// ErrTemplate marks a confirmation email that could not be rendered.
var ErrTemplate = errors.New("email template unavailable")

// ConfirmationData fills the confirmation template.
type ConfirmationData struct {
	FirstName  string
	ConfirmURL string
}

// Renderer produces confirmation HTML. With an override path the file is
// read on every render, so a template removed at runtime fails the request.
type Renderer struct {
	path string
}

func NewRenderer(overridePath string) *Renderer {
	return &Renderer{path: overridePath}
}

func (r *Renderer) Render(data ConfirmationData) (string, error) {
	var (
		src []byte
		err error
	)
	if r.path != "" {
		src, err = os.ReadFile(r.path)
	} else {
		src, err = templates.ReadFile("templates/confirmation.html")
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplate, err)
	}

	tmpl, err := template.New("confirmation").Parse(string(src))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return buf.String(), nil
}
