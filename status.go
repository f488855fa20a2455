package aa1024

import (
	"fmt"
	"strings"
	"time"
)

// Status is the 8-bit STATUS register.
//
//	Bits| [25AA1024|Table 2-2]
//	----+--------------------------------------------------
//	7   | WPEN: Write-Protect pin enable (nonvolatile)
//	6:4 | Reserved
//	3:2 | BP1, BP0: Block protection (nonvolatile)
//	1   | WEL: Write enable latch (read-only)
//	0   | WIP: Write in progress (read-only)
type Status byte

const (
	statusWIP  Status = 1 << 0
	statusWEL  Status = 1 << 1
	statusBP0  Status = 1 << 2
	statusBP1  Status = 1 << 3
	statusWPEN Status = 1 << 7

	// statusVerifyMask covers the bits a WRSR instruction can change.
	// WEL and WIP are read-only and float freely between a write and its
	// read-back, so they are excluded from verification.
	statusVerifyMask = statusWPEN | statusBP1 | statusBP0 // 0x8C
)

func (s Status) WriteInProgress() bool     { return s&statusWIP != 0 }
func (s Status) WriteEnabled() bool        { return s&statusWEL != 0 }
func (s Status) BlockProtect0() bool       { return s&statusBP0 != 0 }
func (s Status) BlockProtect1() bool       { return s&statusBP1 != 0 }
func (s Status) WriteProtectEnabled() bool { return s&statusWPEN != 0 }

// Level extracts the block-protection level from BP1:BP0.
func (s Status) Level() Level { return Level(s >> 2 & 3) }

// WithLevel returns the status with BP1:BP0 replaced by l.
func (s Status) WithLevel(l Level) Status {
	return s&^(statusBP1|statusBP0) | Status(l&3)<<2
}

func (s Status) String() string {
	b := fmt.Sprintf("%08b", byte(s))
	f := []string{}
	if s.WriteProtectEnabled() {
		f = append(f, "WPEN")
	}
	if s.BlockProtect1() {
		f = append(f, "BP1")
	}
	if s.BlockProtect0() {
		f = append(f, "BP0")
	}
	if s.WriteEnabled() {
		f = append(f, "WEL")
	}
	if s.WriteInProgress() {
		f = append(f, "WIP")
	}
	if len(f) == 0 {
		return b
	}
	return b + " " + strings.Join(f, ",")
}

// ReadStatus reads the STATUS register. It deliberately leaves the chip
// selected on success: RDSR may be re-issued back to back while a write cycle
// commits, and skipping the reselect keeps the poll loop tight. Callers that
// are done polling must deselect with EndTransaction.
func (b *Bus) ReadStatus(chip int) (Status, error) {
	if err := b.sendCommand(chip, opReadStatus); err != nil {
		return 0, err
	}
	v, err := b.readByte()
	if err != nil {
		return 0, b.fail(chip, err)
	}
	return Status(v), nil
}

// EndTransaction deselects the chip. Needed after ReadStatus and IsBusy,
// which keep the chip selected for back-to-back polling.
func (b *Bus) EndTransaction(chip int) error {
	return b.endTransaction(chip)
}

// WriteStatus writes the STATUS register and verifies that the nonvolatile
// bits took. The WP line is raised around the write so a soft write-protected
// board can still change the register, and restored afterwards. A read-back
// mismatch on the WPEN/BP bits means the device refused the write (WP pin
// engaged with WPEN set, or the instruction was not latched) and is reported
// as ErrWriteRejected, distinct from any bus fault.
func (b *Bus) WriteStatus(chip int, v Status) error {
	if b.pins.SoftWP {
		if err := b.unprotect(chip); err != nil {
			return err
		}
	}

	if err := b.sendCommand(chip, opWriteStatus); err != nil {
		return err
	}
	if err := b.sendByte(byte(v)); err != nil {
		return b.fail(chip, err)
	}
	if err := b.endTransaction(chip); err != nil {
		return err
	}

	if b.pins.SoftWP {
		if err := b.protect(chip); err != nil {
			return err
		}
	}

	got, err := b.ReadStatus(chip)
	if err != nil {
		return err
	}
	if err := b.endTransaction(chip); err != nil {
		return err
	}
	if got&statusVerifyMask != v&statusVerifyMask {
		return fmt.Errorf("wrote %v, read back %v: %w", v, got, ErrWriteRejected)
	}
	return nil
}

// IsBusy reports whether a write cycle is still committing. Like ReadStatus
// it leaves the chip selected on success.
func (b *Bus) IsBusy(chip int) (bool, error) {
	s, err := b.ReadStatus(chip)
	if err != nil {
		return false, err
	}
	return s.WriteInProgress(), nil
}

// BusyWait polls WIP until the device finishes its internal write cycle, then
// deselects the chip. interval paces the polls; timeout bounds the whole wait
// and zero waits indefinitely. Expiry aborts the transaction and returns
// ErrBusyTimeout.
func (b *Bus) BusyWait(chip int, interval, timeout time.Duration) error {
	// Fast path: byte writes often finish before the first tick.
	busy, err := b.IsBusy(chip)
	if err != nil {
		return err
	}
	if !busy {
		return b.endTransaction(chip)
	}

	timer := time.NewTimer(timeout)
	if timeout == 0 {
		timer.Stop()
	}
	defer timer.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-timer.C:
			b.abort(chip)
			return fmt.Errorf("after %v: %w", timeout, ErrBusyTimeout)
		case <-ticker.C:
			busy, err := b.IsBusy(chip)
			if err != nil {
				return err
			}
			if !busy {
				return b.endTransaction(chip)
			}
		}
	}
}

// waitReady is BusyWait with the bus defaults, used after every mutating
// command.
func (b *Bus) waitReady(chip int) error {
	return b.BusyWait(chip, b.PollInterval, b.PollTimeout)
}
