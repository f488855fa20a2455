package aa1024

// placeholder is the byte clocked out while reading; the 25AA1024 ignores SI
// during data-out phases.
const placeholder = 0x00

// The framer moves instruction bytes and 24-bit big-endian addresses over the
// transport. Transport errors pass through verbatim; any retry policy belongs
// to the callers, not here.

// sendByte transmits one byte. The chip must already be selected.
func (b *Bus) sendByte(v byte) error {
	return b.tr.TransmitByte(v)
}

// readByte reads one byte. The chip must already be selected.
func (b *Bus) readByte() (byte, error) {
	return b.tr.ReceiveByte(placeholder)
}

// sendCommand selects the chip and transmits an instruction byte, leaving
// the chip selected for whatever the instruction needs next.
func (b *Bus) sendCommand(chip int, op byte) error {
	if err := b.selectChip(chip); err != nil {
		return err
	}
	if err := b.sendByte(op); err != nil {
		b.abort(chip)
		return err
	}
	return nil
}

// sendAddress transmits a 24-bit address MSB first. The chip must already be
// selected; an address never travels without an instruction in front of it.
func (b *Bus) sendAddress(chip int, addr uint32) error {
	for _, v := range [3]byte{byte(addr >> 16), byte(addr >> 8), byte(addr)} {
		if err := b.sendByte(v); err != nil {
			b.abort(chip)
			return err
		}
	}
	return nil
}

// sendCommandAndAddress frames the common instruction-plus-address prefix.
func (b *Bus) sendCommandAndAddress(chip int, op byte, addr uint32) error {
	if err := b.sendCommand(chip, op); err != nil {
		return err
	}
	return b.sendAddress(chip, addr)
}

// endTransaction deselects the chip, completing the frame.
func (b *Bus) endTransaction(chip int) error {
	return b.deselectChip(chip)
}

// fail aborts the in-flight transaction and hands back err. Keeps the error
// paths in the operation sequencing one line each.
func (b *Bus) fail(chip int, err error) error {
	b.abort(chip)
	return err
}
