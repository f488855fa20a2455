// Package aa1024 drives Microchip 25AA1024 serial EEPROMs over a shared
// SPI-style bus, with up to four chips selected through per-chip CS and WP
// GPIO lines.
//
// # References:
//
// Microchip (https://www.microchip.com/)
//   - [25AA1024]: 25AA1024 1 Mbit SPI Bus Serial EEPROM Data Sheet (https://ww1.microchip.com/downloads/en/DeviceDoc/22064D.pdf)
//     Table 2-1: instruction set; Table 2-2: STATUS register; Table 2-3: block protection
//
// The bus model is byte-oriented: the Transport moves one byte at a time and
// the package owns command framing, chip select, write protection, and
// write-cycle completion polling on top of it.
package aa1024
