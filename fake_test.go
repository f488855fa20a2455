package aa1024

import (
	"errors"
	"fmt"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// fakeChip models one 25AA1024 well enough to exercise the driver: opcode
// decoding, address latching, WEL/WIP/BP behavior, page-bounded writes that
// commit on the CS rising edge, sequential reads with array rollover, and
// deep power-down. State changes only through bus traffic and pin edges, the
// same way the real part works.
type fakeChip struct {
	mem    [MemSize]byte
	status Status
	sig    byte
	asleep bool

	cs *gpiotest.Pin
	wp *gpiotest.Pin

	// Current transaction, reset on every CS falling edge.
	frame   []byte
	emitted int

	// busyPolls is how many status reads still see WIP after a commit.
	busyPolls int

	// Committed traffic, for assertions.
	writes     []writeOp
	erases     []eraseOp
	wrens      int
	readFrames int
}

type writeOp struct {
	addr uint32
	data []byte
}

type eraseOp struct {
	op   byte
	addr uint32
}

// csChanged is hooked to the chip's CS pin. A falling edge starts a fresh
// frame; a rising edge executes whatever instruction was framed.
func (c *fakeChip) csChanged(l gpio.Level) {
	if l == gpio.Low {
		c.frame = nil
		c.emitted = 0
		return
	}
	c.commit()
	c.frame = nil
	c.emitted = 0
}

func (c *fakeChip) feed(v byte) {
	c.frame = append(c.frame, v)
}

// emit produces the next output byte for the current frame.
func (c *fakeChip) emit() byte {
	if len(c.frame) == 0 {
		return 0xFF
	}
	op := c.frame[0]
	if c.asleep && op != opReleaseSleep {
		return 0xFF
	}
	switch op {
	case opRead:
		if len(c.frame) < 4 {
			return 0xFF
		}
		if c.emitted == 0 {
			c.readFrames++
		}
		addr := (be24(c.frame[1:4]) + uint32(c.emitted)) % MemSize
		c.emitted++
		return c.mem[addr]
	case opReadStatus:
		return c.readStatus()
	case opReleaseSleep:
		if len(c.frame) < 4 {
			return 0xFF
		}
		return c.sig
	}
	return 0xFF
}

func (c *fakeChip) readStatus() byte {
	s := c.status
	if c.status.WriteInProgress() {
		if c.busyPolls > 0 {
			c.busyPolls--
		}
		if c.busyPolls == 0 {
			// Write cycle done; the latch auto-clears with it.
			c.status &^= statusWIP | statusWEL
		}
	}
	return byte(s)
}

// commit executes the framed instruction on the CS rising edge.
func (c *fakeChip) commit() {
	if len(c.frame) == 0 {
		return
	}
	op := c.frame[0]
	if c.asleep {
		if op == opReleaseSleep {
			c.asleep = false
		}
		return
	}
	switch op {
	case opWriteEnable:
		c.status |= statusWEL
		c.wrens++
	case opWriteDisable:
		c.status &^= statusWEL
	case opWrite:
		if len(c.frame) < 5 || !c.status.WriteEnabled() {
			return
		}
		addr := be24(c.frame[1:4]) % MemSize
		if Protected(c.status.Level(), addr) {
			return
		}
		data := append([]byte(nil), c.frame[4:]...)
		base := addr &^ (PageSize - 1)
		for i, v := range data {
			// Writes wrap within the addressed page.
			c.mem[base+(addr-base+uint32(i))%PageSize] = v
		}
		c.writes = append(c.writes, writeOp{addr: addr, data: data})
		c.startCycle()
	case opWriteStatus:
		if len(c.frame) < 2 {
			return
		}
		if c.status.WriteProtectEnabled() && c.wp.Read() == gpio.Low {
			return // hardware write protected
		}
		c.status = c.status&^statusVerifyMask | Status(c.frame[1])&statusVerifyMask
		c.startCycle()
	case opErasePage:
		c.erase(opErasePage, PageSize)
	case opEraseSector:
		c.erase(opEraseSector, MemSize/4)
	case opEraseChip:
		if len(c.frame) != 1 || !c.status.WriteEnabled() || c.status.Level() != ProtectNone {
			return
		}
		for i := range c.mem {
			c.mem[i] = 0xFF
		}
		c.erases = append(c.erases, eraseOp{op: opEraseChip})
		c.startCycle()
	case opDeepSleep:
		if len(c.frame) == 1 {
			c.asleep = true
		}
	case opReleaseSleep:
		c.asleep = false
	}
}

func (c *fakeChip) erase(op byte, span uint32) {
	if len(c.frame) < 4 || !c.status.WriteEnabled() {
		return
	}
	addr := be24(c.frame[1:4]) % MemSize
	if Protected(c.status.Level(), addr) {
		return
	}
	base := addr &^ (span - 1)
	for i := base; i < base+span; i++ {
		c.mem[i] = 0xFF
	}
	c.erases = append(c.erases, eraseOp{op: op, addr: addr})
	c.startCycle()
}

func (c *fakeChip) startCycle() {
	c.status |= statusWIP
	c.busyPolls = 1
}

func be24(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// edgePin is a gpiotest pin that notifies the fake chip of output edges, the
// way a real CS wire does.
type edgePin struct {
	*gpiotest.Pin
	onOut func(gpio.Level)
}

func (p *edgePin) Out(l gpio.Level) error {
	if err := p.Pin.Out(l); err != nil {
		return err
	}
	if p.onOut != nil {
		p.onOut(l)
	}
	return nil
}

// fakeBus routes transport bytes to whichever fake chip has its CS low.
type fakeBus struct {
	chips [MaxChips]*fakeChip
}

func (f *fakeBus) selected() (*fakeChip, error) {
	var sel *fakeChip
	for _, c := range f.chips {
		if c != nil && c.cs.Read() == gpio.Low {
			if sel != nil {
				return nil, errors.New("multiple chips selected")
			}
			sel = c
		}
	}
	if sel == nil {
		return nil, errors.New("no chip selected")
	}
	return sel, nil
}

func (f *fakeBus) TransmitByte(v byte) error {
	c, err := f.selected()
	if err != nil {
		return err
	}
	c.feed(v)
	return nil
}

func (f *fakeBus) ReceiveByte(placeholder byte) (byte, error) {
	c, err := f.selected()
	if err != nil {
		return 0, err
	}
	return c.emit(), nil
}

// newTestBus builds a Bus over four fake chips with soft WP lines, initialized
// to their resting state.
func newTestBus(t *testing.T) (*Bus, *fakeBus) {
	t.Helper()
	f := &fakeBus{}
	pins := PinMap{SoftWP: true}
	for i := range f.chips {
		c := &fakeChip{sig: Signature}
		c.cs = &gpiotest.Pin{N: fmt.Sprintf("CS%d", i), L: gpio.High}
		c.wp = &gpiotest.Pin{N: fmt.Sprintf("WP%d", i), L: gpio.High}
		pins.Chips[i] = ChipPins{
			CS: &edgePin{Pin: c.cs, onOut: c.csChanged},
			WP: c.wp,
		}
		f.chips[i] = c
	}
	b := NewBus(f, pins)
	for i := range f.chips {
		if err := b.Init(i); err != nil {
			t.Fatalf("Init(%d): %v", i, err)
		}
	}
	return b, f
}
