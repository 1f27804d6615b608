package mcb

import (
	"errors"
	"fmt"
)

var (
	// ErrInterface indicates the underlying transport failed or returned
	// an unexpected result. The core does not retry; the caller decides.
	ErrInterface = errors.New("mcb: interface")
	// ErrAddressOutOfIndex indicates an address above MaxAddress was
	// supplied; the request is never transmitted.
	ErrAddressOutOfIndex = errors.New("mcb: address out of index")
	// ErrCRC indicates a received frame failed CRC verification.
	ErrCRC = errors.New("mcb: crc mismatch")
	// ErrWrongSubnode indicates a Node received a frame addressed to a
	// different subnode.
	ErrWrongSubnode = errors.New("mcb: wrong subnode")
	// ErrWrongCommand indicates a Node received a frame with an
	// unrecognized opcode.
	ErrWrongCommand = errors.New("mcb: wrong command")
	// ErrInvalidParameter signals a malformed Config.
	ErrInvalidParameter = errors.New("mcb: given parameter violates restriction")
)

// AccessError reports that the peer answered but signaled an error, or
// that its reply's opcode/address/subnode did not match what was sent.
// Code carries the peer's 32-bit application error; it is 0 when the
// mismatch was detected locally rather than reported by the peer.
type AccessError struct {
	Code uint32
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("mcb: access error (code=0x%08X)", e.Code)
}

// Is allows errors.Is(err, new(mcb.AccessError)) style matching regardless
// of the carried Code.
func (e *AccessError) Is(target error) bool {
	_, ok := target.(*AccessError)
	return ok
}
