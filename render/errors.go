package render

import "fmt"

var (
	// ErrInvalidSource is returned when the source lacks the detail to draw
	ErrInvalidSource = fmt.Errorf("render: invalid source")

	// ErrRender marks a failure drawing or encoding the card
	ErrRender = fmt.Errorf("render: render failed")
)

// ErrEncode wraps an image encoding failure
func ErrEncode(err error) error {
	return fmt.Errorf("%w: encode png: %w", ErrRender, err)
}

// ErrFont wraps a font loading failure
func ErrFont(err error) error {
	return fmt.Errorf("%w: load font: %w", ErrRender, err)
}

// ErrInvalidConfig returns an error for an invalid configuration field
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("render: invalid config: %s", msg)
}
