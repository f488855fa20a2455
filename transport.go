package aa1024

import "periph.io/x/conn/v3/spi"

// Transport moves single bytes over the shared serial bus. Both calls are
// atomic, blocking, and order-preserving; the Bus treats them as the smallest
// unit of communication and never retries them.
type Transport interface {
	// TransmitByte clocks out one byte, discarding whatever the device
	// shifts back.
	TransmitByte(v byte) error

	// ReceiveByte clocks out the placeholder byte and returns the byte
	// the device shifted back.
	ReceiveByte(placeholder byte) (byte, error)
}

// SPIConn adapts a full-duplex SPI connection to the byte Transport. The port
// must be connected without hardware chip-select handling; CS and WP are
// discrete GPIO lines owned by the PinMap.
type SPIConn struct {
	conn spi.Conn
}

func NewSPIConn(c spi.Conn) *SPIConn {
	return &SPIConn{conn: c}
}

func (s *SPIConn) TransmitByte(v byte) error {
	var rx [1]byte
	return s.conn.Tx([]byte{v}, rx[:])
}

func (s *SPIConn) ReceiveByte(placeholder byte) (byte, error) {
	var rx [1]byte
	if err := s.conn.Tx([]byte{placeholder}, rx[:]); err != nil {
		return 0, err
	}
	return rx[0], nil
}
