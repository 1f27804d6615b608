package mcb

import (
	"fmt"

	"github.com/GoAethereal/cancel"
)

// mainCore holds the state shared across every phase of a Main endpoint:
// its configuration, its physical-layer collaborator, and the one working
// Frame reused for every request it sends.
type mainCore struct {
	cfg   Config
	pi    PhysicalInterface
	frame Frame
}

// internalAccess sends one request frame addressed to subnode and waits
// for its reply: the outgoing HEADER and the expected reply HEADER both
// carry subnode, since a Main has no fixed identity of its own, only the
// target it is currently calling. It returns the reply's CFG_DATA window.
func (c *mainCore) internalAccess(ctx doner, subnode byte, opcode Opcode, address uint16, data []uint16) ([]uint16, error) {
	if address > MaxAddress {
		return nil, ErrAddressOutOfIndex
	}
	c.frame.SetHeader(subnode)
	c.frame.SetCommand(opcode, address)
	clearWords(c.frame.Data())
	if data != nil {
		copy(c.frame.Data(), data)
	}
	c.frame.ComputeCRC(c.pi)
	if _, err := c.pi.RawWrite(c.frame.Words()[:ExtDataIdx]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInterface, err)
	}

	if err := pollReady(ctx, c.pi); err != nil {
		return nil, err
	}
	resp, err := readVerified(c.pi)
	if err != nil {
		return nil, err
	}
	if byte(resp[HeaderIdx]&0xF) != subnode {
		return nil, &AccessError{Code: 0}
	}
	respCmd := resp[CommandIdx]
	if respCmd&uint16(OpErrBit) != 0 {
		return nil, &AccessError{Code: getU32(resp[CfgDataIdx:CrcIdx])}
	}
	wantCmd := uint16(OpStdAck) | address<<4
	if respCmd&ackMask != wantCmd&ackMask {
		return nil, &AccessError{Code: 0}
	}
	return resp[CfgDataIdx:CrcIdx], nil
}

func (c *mainCore) readU8(ctx doner, subnode byte, address uint16) (uint8, error) {
	data, err := c.internalAccess(ctx, subnode, OpStdRead, address, nil)
	if err != nil {
		return 0, err
	}
	return getU8(data), nil
}

func (c *mainCore) writeU8(ctx doner, subnode byte, address uint16, v uint8) error {
	var buf [4]uint16
	putU8(buf[:], v)
	_, err := c.internalAccess(ctx, subnode, OpStdWrite, address, buf[:])
	return err
}

func (c *mainCore) readI8(ctx doner, subnode byte, address uint16) (int8, error) {
	data, err := c.internalAccess(ctx, subnode, OpStdRead, address, nil)
	if err != nil {
		return 0, err
	}
	return getI8(data), nil
}

func (c *mainCore) writeI8(ctx doner, subnode byte, address uint16, v int8) error {
	var buf [4]uint16
	putI8(buf[:], v)
	_, err := c.internalAccess(ctx, subnode, OpStdWrite, address, buf[:])
	return err
}

func (c *mainCore) readU16(ctx doner, subnode byte, address uint16) (uint16, error) {
	data, err := c.internalAccess(ctx, subnode, OpStdRead, address, nil)
	if err != nil {
		return 0, err
	}
	return getU16(data), nil
}

func (c *mainCore) writeU16(ctx doner, subnode byte, address uint16, v uint16) error {
	var buf [4]uint16
	putU16(buf[:], v)
	_, err := c.internalAccess(ctx, subnode, OpStdWrite, address, buf[:])
	return err
}

func (c *mainCore) readI16(ctx doner, subnode byte, address uint16) (int16, error) {
	data, err := c.internalAccess(ctx, subnode, OpStdRead, address, nil)
	if err != nil {
		return 0, err
	}
	return getI16(data), nil
}

func (c *mainCore) writeI16(ctx doner, subnode byte, address uint16, v int16) error {
	var buf [4]uint16
	putI16(buf[:], v)
	_, err := c.internalAccess(ctx, subnode, OpStdWrite, address, buf[:])
	return err
}

func (c *mainCore) readU32(ctx doner, subnode byte, address uint16) (uint32, error) {
	data, err := c.internalAccess(ctx, subnode, OpStdRead, address, nil)
	if err != nil {
		return 0, err
	}
	return getU32(data), nil
}

func (c *mainCore) writeU32(ctx doner, subnode byte, address uint16, v uint32) error {
	var buf [4]uint16
	putU32(buf[:], v)
	_, err := c.internalAccess(ctx, subnode, OpStdWrite, address, buf[:])
	return err
}

func (c *mainCore) readI32(ctx doner, subnode byte, address uint16) (int32, error) {
	data, err := c.internalAccess(ctx, subnode, OpStdRead, address, nil)
	if err != nil {
		return 0, err
	}
	return getI32(data), nil
}

func (c *mainCore) writeI32(ctx doner, subnode byte, address uint16, v int32) error {
	var buf [4]uint16
	putI32(buf[:], v)
	_, err := c.internalAccess(ctx, subnode, OpStdWrite, address, buf[:])
	return err
}

func (c *mainCore) readU64(ctx doner, subnode byte, address uint16) (uint64, error) {
	data, err := c.internalAccess(ctx, subnode, OpStdRead, address, nil)
	if err != nil {
		return 0, err
	}
	return getU64(data), nil
}

func (c *mainCore) writeU64(ctx doner, subnode byte, address uint16, v uint64) error {
	var buf [4]uint16
	putU64(buf[:], v)
	_, err := c.internalAccess(ctx, subnode, OpStdWrite, address, buf[:])
	return err
}

func (c *mainCore) readI64(ctx doner, subnode byte, address uint16) (int64, error) {
	data, err := c.internalAccess(ctx, subnode, OpStdRead, address, nil)
	if err != nil {
		return 0, err
	}
	return getI64(data), nil
}

func (c *mainCore) writeI64(ctx doner, subnode byte, address uint16, v int64) error {
	var buf [4]uint16
	putI64(buf[:], v)
	_, err := c.internalAccess(ctx, subnode, OpStdWrite, address, buf[:])
	return err
}

func (c *mainCore) readF32(ctx doner, subnode byte, address uint16) (float32, error) {
	data, err := c.internalAccess(ctx, subnode, OpStdRead, address, nil)
	if err != nil {
		return 0, err
	}
	return getF32(data), nil
}

func (c *mainCore) writeF32(ctx doner, subnode byte, address uint16, v float32) error {
	var buf [4]uint16
	putF32(buf[:], v)
	_, err := c.internalAccess(ctx, subnode, OpStdWrite, address, buf[:])
	return err
}

func (c *mainCore) readF64(ctx doner, subnode byte, address uint16) (float64, error) {
	data, err := c.internalAccess(ctx, subnode, OpStdRead, address, nil)
	if err != nil {
		return 0, err
	}
	return getF64(data), nil
}

func (c *mainCore) writeF64(ctx doner, subnode byte, address uint16, v float64) error {
	var buf [4]uint16
	putF64(buf[:], v)
	_, err := c.internalAccess(ctx, subnode, OpStdWrite, address, buf[:])
	return err
}

// writeStr sends s to (subnode, address), using the standard path when it
// fits and c.cfg.ExtMode's oversize strategy otherwise.
func (c *mainCore) writeStr(ctx doner, subnode byte, address uint16, s string) error {
	if address > MaxAddress {
		return ErrAddressOutOfIndex
	}
	if err := sendString(ctx, c.pi, &c.frame, subnode, address, c.cfg.ExtMode, OpStdWrite, OpExtWrite, []byte(s)); err != nil {
		return err
	}
	if err := pollReady(ctx, c.pi); err != nil {
		return err
	}
	resp, err := readVerified(c.pi)
	if err != nil {
		return err
	}
	if byte(resp[HeaderIdx]&0xF) != subnode {
		return &AccessError{Code: 0}
	}
	if resp[CommandIdx]&uint16(OpErrBit) != 0 {
		return &AccessError{Code: getU32(resp[CfgDataIdx:CrcIdx])}
	}
	return nil
}

// readStr requests the string at (subnode, address) and reassembles it per
// c.cfg.ExtMode.
func (c *mainCore) readStr(ctx doner, subnode byte, address uint16) (string, error) {
	if address > MaxAddress {
		return "", ErrAddressOutOfIndex
	}
	c.frame.SetHeader(subnode)
	c.frame.SetCommand(OpStdRead, address)
	clearWords(c.frame.Data())
	c.frame.ComputeCRC(c.pi)
	if _, err := c.pi.RawWrite(c.frame.Words()[:ExtDataIdx]); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInterface, err)
	}

	if err := pollReady(ctx, c.pi); err != nil {
		return "", err
	}
	first, err := readVerified(c.pi)
	if err != nil {
		return "", err
	}
	if byte(first[HeaderIdx]&0xF) != subnode {
		return "", &AccessError{Code: 0}
	}
	firstOp := Opcode(first[CommandIdx] & 0xF)
	if firstOp&OpErrBit != 0 {
		return "", &AccessError{Code: getU32(first[CfgDataIdx:CrcIdx])}
	}

	if firstOp&Opcode(extBit) == 0 {
		return decodeStr(first, firstOp, c.cfg.ExtMode), nil
	}
	if c.cfg.ExtMode == ExtModeExtended {
		return decodeStr(first, firstOp, ExtModeExtended), nil
	}

	ack := func(addr uint16) error {
		return writeAckFrame(c.pi, &c.frame, subnode, addr)
	}
	raw, err := recvSegmented(ctx, c.pi, first, ack)
	if err != nil {
		return "", err
	}
	return decodeStr(raw[:], firstOp, ExtModeSegmented), nil
}

// MainInit is a Main before it has been configured. It exposes no access
// methods; the only valid operation is IntoConfig.
type MainInit struct {
	core mainCore
}

// IntoConfig consumes m and returns it in the Config phase.
func (m *MainInit) IntoConfig() *MainConfig {
	return &MainConfig{core: m.core}
}

// MainConfig is a Main ready to perform explicit, individually-addressed
// register access against a Node.
type MainConfig struct {
	core mainCore
}

// IntoCyclic consumes m and returns it in the Cyclic phase.
func (m *MainConfig) IntoCyclic() *MainCyclic {
	return &MainCyclic{core: m.core}
}

func (m *MainConfig) ReadU8(ctx cancel.Context, subnode byte, address uint16) (uint8, error) {
	return m.core.readU8(ctx, subnode, address)
}
func (m *MainConfig) WriteU8(ctx cancel.Context, subnode byte, address uint16, v uint8) error {
	return m.core.writeU8(ctx, subnode, address, v)
}
func (m *MainConfig) ReadI8(ctx cancel.Context, subnode byte, address uint16) (int8, error) {
	return m.core.readI8(ctx, subnode, address)
}
func (m *MainConfig) WriteI8(ctx cancel.Context, subnode byte, address uint16, v int8) error {
	return m.core.writeI8(ctx, subnode, address, v)
}
func (m *MainConfig) ReadU16(ctx cancel.Context, subnode byte, address uint16) (uint16, error) {
	return m.core.readU16(ctx, subnode, address)
}
func (m *MainConfig) WriteU16(ctx cancel.Context, subnode byte, address uint16, v uint16) error {
	return m.core.writeU16(ctx, subnode, address, v)
}
func (m *MainConfig) ReadI16(ctx cancel.Context, subnode byte, address uint16) (int16, error) {
	return m.core.readI16(ctx, subnode, address)
}
func (m *MainConfig) WriteI16(ctx cancel.Context, subnode byte, address uint16, v int16) error {
	return m.core.writeI16(ctx, subnode, address, v)
}
func (m *MainConfig) ReadU32(ctx cancel.Context, subnode byte, address uint16) (uint32, error) {
	return m.core.readU32(ctx, subnode, address)
}
func (m *MainConfig) WriteU32(ctx cancel.Context, subnode byte, address uint16, v uint32) error {
	return m.core.writeU32(ctx, subnode, address, v)
}
func (m *MainConfig) ReadI32(ctx cancel.Context, subnode byte, address uint16) (int32, error) {
	return m.core.readI32(ctx, subnode, address)
}
func (m *MainConfig) WriteI32(ctx cancel.Context, subnode byte, address uint16, v int32) error {
	return m.core.writeI32(ctx, subnode, address, v)
}
func (m *MainConfig) ReadU64(ctx cancel.Context, subnode byte, address uint16) (uint64, error) {
	return m.core.readU64(ctx, subnode, address)
}
func (m *MainConfig) WriteU64(ctx cancel.Context, subnode byte, address uint16, v uint64) error {
	return m.core.writeU64(ctx, subnode, address, v)
}
func (m *MainConfig) ReadI64(ctx cancel.Context, subnode byte, address uint16) (int64, error) {
	return m.core.readI64(ctx, subnode, address)
}
func (m *MainConfig) WriteI64(ctx cancel.Context, subnode byte, address uint16, v int64) error {
	return m.core.writeI64(ctx, subnode, address, v)
}
func (m *MainConfig) ReadF32(ctx cancel.Context, subnode byte, address uint16) (float32, error) {
	return m.core.readF32(ctx, subnode, address)
}
func (m *MainConfig) WriteF32(ctx cancel.Context, subnode byte, address uint16, v float32) error {
	return m.core.writeF32(ctx, subnode, address, v)
}
func (m *MainConfig) ReadF64(ctx cancel.Context, subnode byte, address uint16) (float64, error) {
	return m.core.readF64(ctx, subnode, address)
}
func (m *MainConfig) WriteF64(ctx cancel.Context, subnode byte, address uint16, v float64) error {
	return m.core.writeF64(ctx, subnode, address, v)
}
func (m *MainConfig) ReadStr(ctx cancel.Context, subnode byte, address uint16) (string, error) {
	return m.core.readStr(ctx, subnode, address)
}
func (m *MainConfig) WriteStr(ctx cancel.Context, subnode byte, address uint16, s string) error {
	return m.core.writeStr(ctx, subnode, address, s)
}

// MainCyclic is a Main driving its steady-state exchange with one or more
// Nodes. The access surface is identical to MainConfig's — MCB has no
// cyclic-only wire format, only a looser expectation on call cadence —
// but the distinct type keeps a cyclic loop from being handed a Main that
// was never configured.
type MainCyclic struct {
	core mainCore
}

func (m *MainCyclic) ReadU8(ctx cancel.Context, subnode byte, address uint16) (uint8, error) {
	return m.core.readU8(ctx, subnode, address)
}
func (m *MainCyclic) WriteU8(ctx cancel.Context, subnode byte, address uint16, v uint8) error {
	return m.core.writeU8(ctx, subnode, address, v)
}
func (m *MainCyclic) ReadI8(ctx cancel.Context, subnode byte, address uint16) (int8, error) {
	return m.core.readI8(ctx, subnode, address)
}
func (m *MainCyclic) WriteI8(ctx cancel.Context, subnode byte, address uint16, v int8) error {
	return m.core.writeI8(ctx, subnode, address, v)
}
func (m *MainCyclic) ReadU16(ctx cancel.Context, subnode byte, address uint16) (uint16, error) {
	return m.core.readU16(ctx, subnode, address)
}
func (m *MainCyclic) WriteU16(ctx cancel.Context, subnode byte, address uint16, v uint16) error {
	return m.core.writeU16(ctx, subnode, address, v)
}
func (m *MainCyclic) ReadI16(ctx cancel.Context, subnode byte, address uint16) (int16, error) {
	return m.core.readI16(ctx, subnode, address)
}
func (m *MainCyclic) WriteI16(ctx cancel.Context, subnode byte, address uint16, v int16) error {
	return m.core.writeI16(ctx, subnode, address, v)
}
func (m *MainCyclic) ReadU32(ctx cancel.Context, subnode byte, address uint16) (uint32, error) {
	return m.core.readU32(ctx, subnode, address)
}
func (m *MainCyclic) WriteU32(ctx cancel.Context, subnode byte, address uint16, v uint32) error {
	return m.core.writeU32(ctx, subnode, address, v)
}
func (m *MainCyclic) ReadI32(ctx cancel.Context, subnode byte, address uint16) (int32, error) {
	return m.core.readI32(ctx, subnode, address)
}
func (m *MainCyclic) WriteI32(ctx cancel.Context, subnode byte, address uint16, v int32) error {
	return m.core.writeI32(ctx, subnode, address, v)
}
func (m *MainCyclic) ReadU64(ctx cancel.Context, subnode byte, address uint16) (uint64, error) {
	return m.core.readU64(ctx, subnode, address)
}
func (m *MainCyclic) WriteU64(ctx cancel.Context, subnode byte, address uint16, v uint64) error {
	return m.core.writeU64(ctx, subnode, address, v)
}
func (m *MainCyclic) ReadI64(ctx cancel.Context, subnode byte, address uint16) (int64, error) {
	return m.core.readI64(ctx, subnode, address)
}
func (m *MainCyclic) WriteI64(ctx cancel.Context, subnode byte, address uint16, v int64) error {
	return m.core.writeI64(ctx, subnode, address, v)
}
func (m *MainCyclic) ReadF32(ctx cancel.Context, subnode byte, address uint16) (float32, error) {
	return m.core.readF32(ctx, subnode, address)
}
func (m *MainCyclic) WriteF32(ctx cancel.Context, subnode byte, address uint16, v float32) error {
	return m.core.writeF32(ctx, subnode, address, v)
}
func (m *MainCyclic) ReadF64(ctx cancel.Context, subnode byte, address uint16) (float64, error) {
	return m.core.readF64(ctx, subnode, address)
}
func (m *MainCyclic) WriteF64(ctx cancel.Context, subnode byte, address uint16, v float64) error {
	return m.core.writeF64(ctx, subnode, address, v)
}
func (m *MainCyclic) ReadStr(ctx cancel.Context, subnode byte, address uint16) (string, error) {
	return m.core.readStr(ctx, subnode, address)
}
func (m *MainCyclic) WriteStr(ctx cancel.Context, subnode byte, address uint16, s string) error {
	return m.core.writeStr(ctx, subnode, address, s)
}
