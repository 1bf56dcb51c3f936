// Package board describes the Adafruit MagTag pin-out used by the badge.
package board

import (
	"math/bits"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// E-paper panel.
const (
	DisplayWidth  = 296
	DisplayHeight = 128

	EPDCS    = 8
	EPDDC    = 7
	EPDReset = 6
	EPDBusy  = 5
	// SRAMCS is -1: no external SRAM, the frame buffer lives in RAM (~10KB).
	SRAMCS = -1

	NeoPixelPin      = 1
	NeoPixelPowerPin = 21
	MaxNeoPixels     = 4
)

// Button is a front-panel button, identified by its GPIO number.
type Button int

const (
	ButtonA Button = 15
	ButtonB Button = 14
	ButtonC Button = 12
	ButtonD Button = 11
)

// Buttons lists all front-panel buttons, left to right.
var Buttons = []Button{ButtonA, ButtonB, ButtonC, ButtonD}

var buttonNames = map[Button]string{
	ButtonA: "A",
	ButtonB: "B",
	ButtonC: "C",
	ButtonD: "D",
}

func (b Button) String() string {
	if n, ok := buttonNames[b]; ok {
		return n
	}
	return "GPIO" + strconv.Itoa(int(b))
}

// GPIO returns the pin number of the button.
func (b Button) GPIO() int {
	return int(b)
}

// ParseButton accepts "A".."D" (any case).
func ParseButton(name string) (Button, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for b, bn := range buttonNames {
		if bn == n {
			return b, nil
		}
	}
	return 0, pkgerrors.Errorf("unknown button %q, must be one of A, B, C, D", name)
}

// ParseButtons parses every name, failing on the first unknown one.
func ParseButtons(names []string) ([]Button, error) {
	ret := make([]Button, 0, len(names))
	for _, n := range names {
		b, err := ParseButton(n)
		if err != nil {
			return nil, err
		}
		ret = append(ret, b)
	}
	return ret, nil
}

// WakeMask builds the ext1 wake-up bitmask for the given buttons.
func WakeMask(buttons ...Button) uint64 {
	var mask uint64
	for _, b := range buttons {
		mask |= 1 << uint(b)
	}
	return mask
}

// ButtonsFromMask decodes an ext1 mask back into buttons, ordered A to D.
// Bits that are not wired to a button are an error.
func ButtonsFromMask(mask uint64) ([]Button, error) {
	var ret []Button
	rest := mask
	for _, b := range Buttons {
		bit := uint64(1) << uint(b)
		if mask&bit != 0 {
			ret = append(ret, b)
			rest &^= bit
		}
	}

	if rest != 0 {
		var pins []int
		for rest != 0 {
			pin := bits.TrailingZeros64(rest)
			pins = append(pins, pin)
			rest &^= 1 << uint(pin)
		}
		return nil, pkgerrors.Errorf("wake mask 0x%X has bits for GPIOs without a button: %v", mask, pins)
	}

	return ret, nil
}
