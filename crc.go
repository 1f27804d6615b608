package mcb

import (
	"encoding/binary"

	"github.com/sigurn/crc16"
)

// xmodemTable is precomputed once for CRC-16/XMODEM: polynomial 0x1021,
// initial value 0x0000, no input/output reflection, no final XOR.
var xmodemTable = crc16.MakeTable(crc16.CRC16_XMODEM)

// DefaultCRC is the package's software CRC-16/XMODEM, computed over the
// byte reinterpretation of words with each word serialized low-byte then
// high-byte (little-endian), matching the wire format's byte order.
// PhysicalInterface implementations may override this via CRCOverrider.
func DefaultCRC(words []uint16) uint16 {
	buf := make([]byte, 2*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint16(buf[2*i:], w)
	}
	return crc16.Checksum(buf, xmodemTable)
}
