package aa1024

import (
	"fmt"
	"time"
)

// Instruction set. [25AA1024|Table 2-1]
const (
	opRead         = 0x03
	opWrite        = 0x02
	opWriteEnable  = 0x06
	opWriteDisable = 0x04
	opReadStatus   = 0x05
	opWriteStatus  = 0x01
	opErasePage    = 0x42
	opEraseSector  = 0xD8
	opEraseChip    = 0xC7
	opReleaseSleep = 0xAB // release deep power-down and read signature
	opDeepSleep    = 0xB9
)

// wakeDummyAddr fills the 24 don't-care address bits of the release
// instruction before the signature is clocked out.
const wakeDummyAddr = 0x00A5A5A5

// Read reads n bytes starting at addr. One address frame is issued; the
// device auto-increments its internal pointer for the rest, rolling over from
// the top of the array to 0, so reads may cross any page or protection
// boundary. Reads are permitted at every protection level.
func (b *Bus) Read(chip int, addr uint32, n int) ([]byte, error) {
	if addr >= MemSize {
		return nil, fmt.Errorf("read at 0x%06X: %w", addr, ErrPageRange)
	}
	if err := b.sendCommandAndAddress(chip, opRead, addr); err != nil {
		return nil, err
	}

	out := make([]byte, n)
	for i := range out {
		v, err := b.readByte()
		if err != nil {
			return nil, b.fail(chip, err)
		}
		out[i] = v
	}

	if err := b.endTransaction(chip); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteEnable arms the write-enable latch. The device clears the latch
// itself when the next write or erase completes, so every mutating operation
// re-arms it.
func (b *Bus) WriteEnable(chip int) error {
	if err := b.sendCommand(chip, opWriteEnable); err != nil {
		return err
	}
	return b.endTransaction(chip)
}

// WriteDisable clears the write-enable latch.
func (b *Bus) WriteDisable(chip int) error {
	if err := b.sendCommand(chip, opWriteDisable); err != nil {
		return err
	}
	return b.endTransaction(chip)
}

// Write writes data starting at addr. The whole target range is validated
// against the chip's block-protection level before anything is armed. A page
// write must not cross a 256-byte page boundary (the device would wrap within
// the page), so the payload is split at boundaries and each chunk gets its
// own write-enable, its own transaction, and its own completion wait.
func (b *Bus) Write(chip int, addr uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	end := addr + uint32(len(data)) - 1
	if _, err := PageOf(addr); err != nil {
		return err
	}
	if _, err := PageOf(end); err != nil {
		return err
	}
	level, err := b.protectionLevel(chip)
	if err != nil {
		return err
	}
	if Protected(level, end) {
		return fmt.Errorf("write 0x%06X-0x%06X at level %v: %w", addr, end, level, ErrProtected)
	}

	for len(data) > 0 {
		chunk := min(PageSize-int(addr%PageSize), len(data))
		if err := b.pageWrite(chip, addr, data[:chunk]); err != nil {
			return err
		}
		addr += uint32(chunk)
		data = data[chunk:]
	}
	return nil
}

// pageWrite issues one page-write transaction. data must fit within the page
// containing addr; Write guarantees that.
func (b *Bus) pageWrite(chip int, addr uint32, data []byte) error {
	if err := b.WriteEnable(chip); err != nil {
		return err
	}
	if err := b.sendCommandAndAddress(chip, opWrite, addr); err != nil {
		return err
	}
	for _, v := range data {
		if err := b.sendByte(v); err != nil {
			return b.fail(chip, err)
		}
	}
	// The write cycle starts on this CS rising edge.
	if err := b.endTransaction(chip); err != nil {
		return err
	}
	return b.waitReady(chip)
}

// ErasePage erases the 256-byte page containing addr.
func (b *Bus) ErasePage(chip int, addr uint32) error {
	return b.eraseAt(chip, opErasePage, addr)
}

// EraseSector erases the sector (quarter of the array) containing addr.
func (b *Bus) EraseSector(chip int, addr uint32) error {
	return b.eraseAt(chip, opEraseSector, addr)
}

func (b *Bus) eraseAt(chip int, op byte, addr uint32) error {
	if _, err := PageOf(addr); err != nil {
		return err
	}
	level, err := b.protectionLevel(chip)
	if err != nil {
		return err
	}
	if Protected(level, addr) {
		return fmt.Errorf("erase at 0x%06X at level %v: %w", addr, level, ErrProtected)
	}

	if err := b.WriteEnable(chip); err != nil {
		return err
	}
	if err := b.sendCommandAndAddress(chip, op, addr); err != nil {
		return err
	}
	if err := b.endTransaction(chip); err != nil {
		return err
	}
	return b.waitReady(chip)
}

// EraseChip erases the entire array. The device only honors it when no block
// is protected, so any other configured level is refused up front.
func (b *Bus) EraseChip(chip int) error {
	level, err := b.protectionLevel(chip)
	if err != nil {
		return err
	}
	if level != ProtectNone {
		return fmt.Errorf("chip erase at level %v: %w", level, ErrProtected)
	}

	if err := b.WriteEnable(chip); err != nil {
		return err
	}
	if err := b.sendCommand(chip, opEraseChip); err != nil {
		return err
	}
	if err := b.endTransaction(chip); err != nil {
		return err
	}
	return b.waitReady(chip)
}

// Wake releases the chip from deep power-down and checks the electronic
// signature it clocks out, which doubles as a device-presence probe. Safe to
// issue to a chip that is already awake.
func (b *Bus) Wake(chip int) error {
	if err := b.sendCommandAndAddress(chip, opReleaseSleep, wakeDummyAddr); err != nil {
		return err
	}
	sig, err := b.readByte()
	if err != nil {
		return b.fail(chip, err)
	}
	if err := b.endTransaction(chip); err != nil {
		return err
	}
	time.Sleep(tREL)

	if sig != Signature {
		return fmt.Errorf("got 0x%02X, want 0x%02X: %w", sig, Signature, ErrBadSignature)
	}
	return nil
}

// Sleep puts the chip into deep power-down. On boards that drive WP the line
// is dropped first so the part sleeps protected. Only a Wake (or power cycle)
// brings it back; all other instructions are ignored while asleep.
func (b *Bus) Sleep(chip int) error {
	if b.pins.SoftWP {
		if err := b.protect(chip); err != nil {
			return err
		}
	}
	if err := b.sendCommand(chip, opDeepSleep); err != nil {
		return err
	}
	// Power-down executes on the CS rising edge.
	if err := b.endTransaction(chip); err != nil {
		return err
	}
	time.Sleep(tDP)
	return nil
}

// protectionLevel reads the chip's current block-protection configuration.
func (b *Bus) protectionLevel(chip int) (Level, error) {
	s, err := b.ReadStatus(chip)
	if err != nil {
		return 0, err
	}
	if err := b.endTransaction(chip); err != nil {
		return 0, err
	}
	return s.Level(), nil
}
