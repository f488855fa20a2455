package aa1024

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// ChipPins holds the control lines of one chip. CS and WP are both active
// low: CS low selects the chip, WP low engages hardware write protection
// (when the WPEN status bit is set).
type ChipPins struct {
	CS gpio.PinIO
	WP gpio.PinIO
}

// PinMap binds logical chip indices to their control lines. It replaces the
// usual board-level pin constants so several buses can coexist, and so tests
// can substitute fake pins.
type PinMap struct {
	Chips [MaxChips]ChipPins

	// SoftWP is set when this board routes the WP lines to GPIOs we
	// drive. When clear the WP pins are hardwired and left alone outside
	// of status register writes.
	SoftWP bool
}

func (m *PinMap) chip(chip int) (ChipPins, error) {
	if chip < 0 || chip >= MaxChips {
		return ChipPins{}, fmt.Errorf("chip %d: %w", chip, ErrInvalidChip)
	}
	p := m.Chips[chip]
	if p.CS == nil {
		return ChipPins{}, fmt.Errorf("chip %d has no CS line: %w", chip, ErrInvalidChip)
	}
	return p, nil
}

// driveVerified sets a line and reads it back. The 25AA1024 samples CS setup
// against the first clock edge, so a level that has not latched by the time
// we return would corrupt the next transaction; reading it back catches slow
// or stuck lines before any byte moves.
func driveVerified(p gpio.PinIO, l gpio.Level) error {
	if err := p.Out(l); err != nil {
		return err
	}
	if p.Read() != l {
		return fmt.Errorf("%s did not latch %s: %w", p, l, ErrPinFault)
	}
	return nil
}

// selectChip pulls CS low. The chip starts decoding the next byte as an
// instruction.
func (b *Bus) selectChip(chip int) error {
	p, err := b.pins.chip(chip)
	if err != nil {
		return err
	}
	return driveVerified(p.CS, gpio.Low)
}

// deselectChip raises CS, ending the transaction. Mutating commands execute
// on this edge.
func (b *Bus) deselectChip(chip int) error {
	p, err := b.pins.chip(chip)
	if err != nil {
		return err
	}
	return driveVerified(p.CS, gpio.High)
}

// protect drives WP low, engaging hardware write protection of the status
// register nonvolatile bits.
func (b *Bus) protect(chip int) error {
	p, err := b.pins.chip(chip)
	if err != nil {
		return err
	}
	if p.WP == nil {
		return fmt.Errorf("chip %d has no WP line: %w", chip, ErrInvalidChip)
	}
	return driveVerified(p.WP, gpio.Low)
}

// unprotect drives WP high so the status register can be written.
func (b *Bus) unprotect(chip int) error {
	p, err := b.pins.chip(chip)
	if err != nil {
		return err
	}
	if p.WP == nil {
		return fmt.Errorf("chip %d has no WP line: %w", chip, ErrInvalidChip)
	}
	return driveVerified(p.WP, gpio.High)
}

// abort forces the chip-select line high on a failure path. Best effort: the
// operation is already failing and its error takes precedence over anything
// the pin reports here.
func (b *Bus) abort(chip int) {
	if p, err := b.pins.chip(chip); err == nil && p.CS != nil {
		p.CS.Out(gpio.High)
	}
}

// Init puts the control lines of one chip into their resting state: CS high
// (deselected), and WP low when this board drives WP. Call once per chip
// before the first operation.
func (b *Bus) Init(chip int) error {
	p, err := b.pins.chip(chip)
	if err != nil {
		return err
	}
	if err := driveVerified(p.CS, gpio.High); err != nil {
		return err
	}
	if b.pins.SoftWP {
		return b.protect(chip)
	}
	return nil
}

// Close releases the control lines of one chip back to inputs.
func (b *Bus) Close(chip int) error {
	p, err := b.pins.chip(chip)
	if err != nil {
		return err
	}
	if err := p.CS.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return err
	}
	if b.pins.SoftWP && p.WP != nil {
		return p.WP.In(gpio.PullNoChange, gpio.NoEdge)
	}
	return nil
}
