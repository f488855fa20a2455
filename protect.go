package aa1024

import "fmt"

// Level is a block-protection level, stored nonvolatile in BP1:BP0. Each
// level write-protects the top part of the array. [25AA1024|Table 2-3]
type Level uint8

const (
	ProtectNone         Level = iota // entire array writable
	ProtectUpperQuarter              // 0x018000-0x01FFFF protected
	ProtectUpperHalf                 // 0x010000-0x01FFFF protected
	ProtectAll                       // entire array protected
)

// unprotectedBound[l] is the highest address still writable at level l.
var unprotectedBound = [4]uint32{
	ProtectNone:         0x01FFFF,
	ProtectUpperQuarter: 0x017FFF,
	ProtectUpperHalf:    0x00FFFF,
	ProtectAll:          0x000000,
}

func (l Level) String() string {
	switch l {
	case ProtectNone:
		return "none"
	case ProtectUpperQuarter:
		return "upper-quarter"
	case ProtectUpperHalf:
		return "upper-half"
	case ProtectAll:
		return "all"
	}
	return fmt.Sprintf("Level(%d)", uint8(l))
}

// PageOf returns the page containing addr. Addresses beyond the array fail
// with ErrPageRange.
func PageOf(addr uint32) (int, error) {
	page := int(addr / PageSize)
	if page >= NumPages {
		return 0, fmt.Errorf("address 0x%06X is page %d of %d: %w", addr, page, NumPages, ErrPageRange)
	}
	return page, nil
}

// Protected reports whether addr falls in the region write-protected at
// level l. Mutating operations consult this before arming the write-enable
// latch, so a refused operation never leaves the latch set.
func Protected(l Level, addr uint32) bool {
	return addr > unprotectedBound[l&3]
}
