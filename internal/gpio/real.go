//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the PIR line from actual hardware using the Linux GPIO
// character device.
type RealReader struct {
	chip *gpiocdev.Chip
	pin  *gpiocdev.Line
}

// NewRealReader opens the given chip and requests the PIR line as input.
func NewRealReader(chip string, pin int) (*RealReader, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chip, err)
	}

	// Pull-down keeps the line low when the PIR module is disconnected,
	// so a missing sensor reads as no presence rather than floating.
	line, err := c.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("request sensor pin %d: %w", pin, err)
	}

	return &RealReader{chip: c, pin: line}, nil
}

// Read returns whether the PIR output is currently high.
func (r *RealReader) Read() (bool, error) {
	v, err := r.pin.Value()
	if err != nil {
		return false, fmt.Errorf("read sensor pin: %w", err)
	}
	return v != 0, nil
}

// Close releases GPIO resources. The pin is reconfigured to input with
// pull-down before closing to leave the line in its boot default state.
func (r *RealReader) Close() error {
	var errs []error

	if r.pin != nil {
		if err := r.pin.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure sensor pin: %w", err))
		}
		if err := r.pin.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sensor pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
