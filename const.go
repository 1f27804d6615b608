package mcb

// Frame word layout. A frame is a fixed-capacity array of 16-bit words;
// these indices are offsets into that array, not byte offsets.
const (
	// MaxFrameSize is the capacity, in 16-bit words, of a frame.
	MaxFrameSize = 128

	// HeaderIdx holds the sender's subnode in its low nibble.
	HeaderIdx = 0
	// CommandIdx holds opcode (low 4 bits) and address (bits 4..15).
	CommandIdx = 1
	// CfgDataIdx is the start of the 4-word standard data slot (CFG_DATA).
	CfgDataIdx = 2
	// CrcIdx holds the CRC-16/XMODEM of words 0..5.
	CrcIdx = 6
	// ExtDataIdx is the start of the extended data region, used only by
	// the Extended (length-prefixed) oversize strategy.
	ExtDataIdx = 7

	// MaxStdCfgData is the byte capacity of the standard CFG_DATA slot
	// (4 words * 2 bytes). A string strictly shorter than this many
	// bytes uses the standard path; anything else goes through the
	// extended-frame engine.
	MaxStdCfgData = 8

	// MaxAddress is the largest address the 12-bit address field can hold.
	MaxAddress = 0x0FFF
)

// Opcode is the low 4 bits of the COMMAND word.
type Opcode byte

const (
	OpStdRead  Opcode = 0x2
	OpExtRead  Opcode = 0x3
	OpStdWrite Opcode = 0x4
	OpExtWrite Opcode = 0x5
	OpStdAck   Opcode = 0x6
	OpExtAck   Opcode = 0x7
	// OpErrBit is ORed onto the original opcode to mark an error response.
	OpErrBit Opcode = 0x8
	OpIdle   Opcode = 0xE
)

// extBit is bit 0 of the opcode nibble; it distinguishes the EXT_* variant
// of an opcode family (EXT_READ/EXT_WRITE/EXT_ACK) from its STD_* sibling.
const extBit = 0x1

// ackMask strips the extended-bit distinction from a COMMAND word so that
// STD_ACK and EXT_ACK compare equal at a given address — used when
// verifying a reply's opcode against the ack the request expects.
const ackMask uint16 = 0xFFFE
