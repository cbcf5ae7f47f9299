// Package clipboard provides access to the system clipboard.
package clipboard

import (
	"github.com/atotto/clipboard"
)

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Paster reads textual data from the system clipboard.
type Paster interface {
	Paste() (string, error)
}

// Clipboard reads and writes the system clipboard.
type Clipboard interface {
	Copier
	Paster
}

// Service implements Clipboard using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a Clipboard service implementation.
func NewService() *Service {
	return &Service{}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	return clipboard.WriteAll(text)
}

// Paste returns the current clipboard text.
func (service *Service) Paste() (string, error) {
	return clipboard.ReadAll()
}

var _ Clipboard = (*Service)(nil)
