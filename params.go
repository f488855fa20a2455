package aa1024

import "time"

// Array geometry. [25AA1024|1.0 Description]
const (
	// PageSize is the number of bytes writable in one page-write
	// transaction before the address must be re-framed.
	PageSize = 256

	// NumPages is the number of pages in the array.
	NumPages = 512

	// MemSize is the array capacity in bytes. The highest valid address
	// is MemSize-1 (0x01FFFF); sequential reads roll over to 0 past it.
	MemSize = NumPages * PageSize

	// MaxChips is the number of independently selectable chips on one bus.
	MaxChips = 4

	// Signature is the electronic signature byte clocked out by the
	// release-from-deep-power-down command. [25AA1024|Figure 2-12]
	Signature = 0x29
)

// Device timing. [25AA1024|AC Characteristics]
const (
	// WriteCycleTime is the nominal internal write cycle: after the bus
	// transaction ends, the part spends up to this long committing a byte
	// write, page write, or page/sector erase before WIP clears.
	WriteCycleTime = 6 * time.Millisecond

	// ChipEraseTime is the nominal chip erase cycle.
	ChipEraseTime = 10 * time.Millisecond

	// tREL is the delay from deselect until the part has left deep
	// power-down after the release command.
	tREL = 100 * time.Microsecond

	// tDP is the delay from deselect until the part has settled into deep
	// power-down.
	tDP = 100 * time.Microsecond
)

// Polling defaults used when the Bus is constructed without overrides.
const (
	// DefaultPollInterval is the pause between WIP polls while a write
	// cycle commits.
	DefaultPollInterval = 100 * time.Microsecond

	// DefaultPollTimeout bounds one completion wait. Generous next to the
	// longest cycle so it only trips on a wedged part or bus. Zero
	// disables the bound.
	DefaultPollTimeout = 10 * ChipEraseTime
)
