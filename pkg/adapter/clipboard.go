package adapter

import (
	"github.com/atotto/clipboard"
	"github.com/m-mizutani/goerr/v2"
)

var ErrClipboardUnsupported = goerr.New("system clipboard is not available")

// Clipboard places text on the system clipboard
type Clipboard interface {
	Write(text string) error
}

type systemClipboard struct{}

// NewClipboard returns the system clipboard
func NewClipboard() Clipboard {
	return systemClipboard{}
}

func (systemClipboard) Write(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnsupported
	}
	if err := clipboard.WriteAll(text); err != nil {
		return goerr.Wrap(err, "failed to write to clipboard")
	}
	return nil
}
