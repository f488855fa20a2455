package aa1024

import "time"

// Bus drives up to MaxChips 25AA1024 parts sharing one clock/data pair, each
// with its own chip-select and write-protect line.
//
// A Bus is not safe for concurrent use: every operation owns the transport
// and control lines from command framing through completion polling, and must
// finish before the next one starts.
type Bus struct {
	tr   Transport
	pins PinMap

	// PollInterval and PollTimeout bound the write-cycle completion wait
	// after each mutating command. A zero PollTimeout polls indefinitely.
	PollInterval time.Duration
	PollTimeout  time.Duration
}

func NewBus(tr Transport, pins PinMap) *Bus {
	return &Bus{
		tr:           tr,
		pins:         pins,
		PollInterval: DefaultPollInterval,
		PollTimeout:  DefaultPollTimeout,
	}
}
