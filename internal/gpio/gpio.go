// Package gpio provides PIR sensor input reading with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the PIR sensor state.
type Reader interface {
	// Read returns whether the sensor currently reports presence.
	// The PIR output is active-high: raw high = presence detected.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// DefaultChip is the GPIO character device for the sensor line.
const DefaultChip = "gpiochip0"

// DefaultPin is the BCM pin the PIR output is wired to.
const DefaultPin = 17
