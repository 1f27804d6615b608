package mcb

import (
	"context"
	"fmt"
)

// CommandKind classifies what a received Request is asking the Node to do.
type CommandKind int

const (
	// CmdRead is a standard register read; answer with WriteU8..WriteF64
	// or WriteStr.
	CmdRead CommandKind = iota
	// CmdExtRead is the extended read variant (EXT_READ). It is answered
	// like CmdRead; WriteStr picks the standard or oversize path from the
	// value's length alone.
	CmdExtRead
	// CmdWrite is a standard register write; the value is already
	// available via GetDataU8..GetDataF64.
	CmdWrite
	// CmdExtWrite is an oversize string write; the value is available via
	// GetDataStr.
	CmdExtWrite
	// CmdStateChange is a bare control frame (the Idle opcode) carrying
	// no payload.
	CmdStateChange
)

// Request is one frame a Node has received from its Main, already CRC-
// verified and subnode-matched. Its zero value is never valid; Requests
// are only produced by NodeConfig.Read/NodeCyclic.Read.
type Request struct {
	Kind    CommandKind
	Address uint16

	raw     [MaxFrameSize]uint16
	firstOp Opcode
	node    *nodeCore
}

// nodeCore holds the state shared across every phase of a Node endpoint.
type nodeCore struct {
	cfg   Config
	pi    PhysicalInterface
	frame Frame
}

func (c *nodeCore) read(ctx context.Context) (*Request, error) {
	if err := pollReady(ctx, c.pi); err != nil {
		return nil, err
	}
	first, err := readVerified(c.pi)
	if err != nil {
		return nil, err
	}
	if byte(first[HeaderIdx]&0xF) != c.cfg.Subnode {
		return nil, ErrWrongSubnode
	}

	op := Opcode(first[CommandIdx] & 0xF)
	address := first[CommandIdx] >> 4

	switch op {
	case OpStdRead:
		return &Request{Kind: CmdRead, Address: address, firstOp: op, node: c}, nil
	case OpExtRead:
		return &Request{Kind: CmdExtRead, Address: address, firstOp: op, node: c}, nil
	case OpIdle:
		return &Request{Kind: CmdStateChange, Address: address, firstOp: op, node: c}, nil
	case OpStdWrite:
		req := &Request{Kind: CmdWrite, Address: address, firstOp: op, node: c}
		copy(req.raw[:], first)
		return req, nil
	case OpExtWrite:
		req := &Request{Kind: CmdExtWrite, Address: address, firstOp: op, node: c}
		if c.cfg.ExtMode == ExtModeExtended {
			copy(req.raw[:], first)
			return req, nil
		}
		ack := func(addr uint16) error {
			return writeAckFrame(c.pi, &c.frame, c.cfg.Subnode, addr)
		}
		raw, err := recvSegmented(ctx, c.pi, first, ack)
		if err != nil {
			return nil, err
		}
		req.raw = raw
		return req, nil
	default:
		return nil, ErrWrongCommand
	}
}

// Ack sends a bare acknowledgement for address, with no payload. It is the
// correct reply to a CmdStateChange request.
func (c *nodeCore) ack(address uint16) error {
	return writeAckFrame(c.pi, &c.frame, c.cfg.Subnode, address)
}

// errorReply sends an error frame for address, echoing reqOp (the opcode
// of the request being refused) with the error bit set, carrying code.
func (c *nodeCore) errorReply(address uint16, reqOp Opcode, code uint32) error {
	c.frame.SetHeader(c.cfg.Subnode)
	c.frame.SetCommand(reqOp|OpErrBit, address)
	clearWords(c.frame.Data())
	putU32(c.frame.Data(), code)
	c.frame.ComputeCRC(c.pi)
	if _, err := c.pi.RawWrite(c.frame.Words()[:ExtDataIdx]); err != nil {
		return fmt.Errorf("%w: %v", ErrInterface, err)
	}
	return nil
}

func (c *nodeCore) writeU8(address uint16, v uint8) error {
	var buf [4]uint16
	putU8(buf[:], v)
	return c.writeStdAck(address, buf[:])
}
func (c *nodeCore) writeI8(address uint16, v int8) error {
	var buf [4]uint16
	putI8(buf[:], v)
	return c.writeStdAck(address, buf[:])
}
func (c *nodeCore) writeU16(address uint16, v uint16) error {
	var buf [4]uint16
	putU16(buf[:], v)
	return c.writeStdAck(address, buf[:])
}
func (c *nodeCore) writeI16(address uint16, v int16) error {
	var buf [4]uint16
	putI16(buf[:], v)
	return c.writeStdAck(address, buf[:])
}
func (c *nodeCore) writeU32(address uint16, v uint32) error {
	var buf [4]uint16
	putU32(buf[:], v)
	return c.writeStdAck(address, buf[:])
}
func (c *nodeCore) writeI32(address uint16, v int32) error {
	var buf [4]uint16
	putI32(buf[:], v)
	return c.writeStdAck(address, buf[:])
}
func (c *nodeCore) writeU64(address uint16, v uint64) error {
	var buf [4]uint16
	putU64(buf[:], v)
	return c.writeStdAck(address, buf[:])
}
func (c *nodeCore) writeI64(address uint16, v int64) error {
	var buf [4]uint16
	putI64(buf[:], v)
	return c.writeStdAck(address, buf[:])
}
func (c *nodeCore) writeF32(address uint16, v float32) error {
	var buf [4]uint16
	putF32(buf[:], v)
	return c.writeStdAck(address, buf[:])
}
func (c *nodeCore) writeF64(address uint16, v float64) error {
	var buf [4]uint16
	putF64(buf[:], v)
	return c.writeStdAck(address, buf[:])
}

func (c *nodeCore) writeStdAck(address uint16, data []uint16) error {
	c.frame.SetHeader(c.cfg.Subnode)
	c.frame.SetCommand(OpStdAck, address)
	clearWords(c.frame.Data())
	copy(c.frame.Data(), data)
	c.frame.ComputeCRC(c.pi)
	if _, err := c.pi.RawWrite(c.frame.Words()[:ExtDataIdx]); err != nil {
		return fmt.Errorf("%w: %v", ErrInterface, err)
	}
	return nil
}

// writeStr answers a read request at address with s, using the standard
// path when it fits and c.cfg.ExtMode's oversize strategy otherwise. ctx
// bounds the segmented synchronization wait, if any.
func (c *nodeCore) writeStr(ctx context.Context, address uint16, s string) error {
	return sendString(ctx, c.pi, &c.frame, c.cfg.Subnode, address, c.cfg.ExtMode, OpStdAck, OpExtAck, []byte(s))
}

func getDataU8(req *Request) uint8   { return getU8(req.raw[CfgDataIdx:CrcIdx]) }
func getDataI8(req *Request) int8    { return getI8(req.raw[CfgDataIdx:CrcIdx]) }
func getDataU16(req *Request) uint16 { return getU16(req.raw[CfgDataIdx:CrcIdx]) }
func getDataI16(req *Request) int16  { return getI16(req.raw[CfgDataIdx:CrcIdx]) }
func getDataU32(req *Request) uint32 { return getU32(req.raw[CfgDataIdx:CrcIdx]) }
func getDataI32(req *Request) int32  { return getI32(req.raw[CfgDataIdx:CrcIdx]) }
func getDataU64(req *Request) uint64 { return getU64(req.raw[CfgDataIdx:CrcIdx]) }
func getDataI64(req *Request) int64  { return getI64(req.raw[CfgDataIdx:CrcIdx]) }
func getDataF32(req *Request) float32 { return getF32(req.raw[CfgDataIdx:CrcIdx]) }
func getDataF64(req *Request) float64 { return getF64(req.raw[CfgDataIdx:CrcIdx]) }
func getDataStr(req *Request) string {
	mode := req.node.cfg.ExtMode
	if req.firstOp&Opcode(extBit) == 0 {
		mode = ExtModeSegmented
	}
	return decodeStr(req.raw[:], req.firstOp, mode)
}

// NodeInit is a Node before it has been configured. It exposes no access
// methods; the only valid operation is IntoConfig.
type NodeInit struct {
	core nodeCore
}

// IntoConfig consumes n and returns it in the Config phase.
func (n *NodeInit) IntoConfig() *NodeConfig {
	return &NodeConfig{core: n.core}
}

// NodeConfig is a Node ready to serve explicit, individually-addressed
// register access from its Main.
type NodeConfig struct {
	core nodeCore
}

// IntoCyclic consumes n and returns it in the Cyclic phase.
func (n *NodeConfig) IntoCyclic() *NodeCyclic {
	return &NodeCyclic{core: n.core}
}

// Read blocks until a request frame arrives, or ctx is done. A frame
// addressed to another subnode is consumed and reported as ErrWrongSubnode.
func (n *NodeConfig) Read(ctx context.Context) (*Request, error) {
	return n.core.read(ctx)
}

// Ack sends a bare acknowledgement for address.
func (n *NodeConfig) Ack(address uint16) error { return n.core.ack(address) }

// Error answers req's address with an error frame carrying code.
func (n *NodeConfig) Error(req *Request, code uint32) error {
	return n.core.errorReply(req.Address, req.firstOp, code)
}

func (n *NodeConfig) WriteU8(address uint16, v uint8) error   { return n.core.writeU8(address, v) }
func (n *NodeConfig) WriteI8(address uint16, v int8) error    { return n.core.writeI8(address, v) }
func (n *NodeConfig) WriteU16(address uint16, v uint16) error { return n.core.writeU16(address, v) }
func (n *NodeConfig) WriteI16(address uint16, v int16) error  { return n.core.writeI16(address, v) }
func (n *NodeConfig) WriteU32(address uint16, v uint32) error { return n.core.writeU32(address, v) }
func (n *NodeConfig) WriteI32(address uint16, v int32) error  { return n.core.writeI32(address, v) }
func (n *NodeConfig) WriteU64(address uint16, v uint64) error { return n.core.writeU64(address, v) }
func (n *NodeConfig) WriteI64(address uint16, v int64) error  { return n.core.writeI64(address, v) }
func (n *NodeConfig) WriteF32(address uint16, v float32) error {
	return n.core.writeF32(address, v)
}
func (n *NodeConfig) WriteF64(address uint16, v float64) error {
	return n.core.writeF64(address, v)
}
func (n *NodeConfig) WriteStr(ctx context.Context, address uint16, s string) error {
	return n.core.writeStr(ctx, address, s)
}

func (n *NodeConfig) GetDataU8(req *Request) uint8    { return getDataU8(req) }
func (n *NodeConfig) GetDataI8(req *Request) int8     { return getDataI8(req) }
func (n *NodeConfig) GetDataU16(req *Request) uint16  { return getDataU16(req) }
func (n *NodeConfig) GetDataI16(req *Request) int16   { return getDataI16(req) }
func (n *NodeConfig) GetDataU32(req *Request) uint32  { return getDataU32(req) }
func (n *NodeConfig) GetDataI32(req *Request) int32   { return getDataI32(req) }
func (n *NodeConfig) GetDataU64(req *Request) uint64  { return getDataU64(req) }
func (n *NodeConfig) GetDataI64(req *Request) int64   { return getDataI64(req) }
func (n *NodeConfig) GetDataF32(req *Request) float32 { return getDataF32(req) }
func (n *NodeConfig) GetDataF64(req *Request) float64 { return getDataF64(req) }
func (n *NodeConfig) GetDataStr(req *Request) string  { return getDataStr(req) }

// NodeCyclic is a Node serving its steady-state exchange. The access
// surface mirrors NodeConfig's; see MainCyclic for why the wire protocol
// does not distinguish the two phases.
type NodeCyclic struct {
	core nodeCore
}

func (n *NodeCyclic) Read(ctx context.Context) (*Request, error) { return n.core.read(ctx) }
func (n *NodeCyclic) Ack(address uint16) error                   { return n.core.ack(address) }
func (n *NodeCyclic) Error(req *Request, code uint32) error {
	return n.core.errorReply(req.Address, req.firstOp, code)
}
func (n *NodeCyclic) WriteU8(address uint16, v uint8) error   { return n.core.writeU8(address, v) }
func (n *NodeCyclic) WriteI8(address uint16, v int8) error    { return n.core.writeI8(address, v) }
func (n *NodeCyclic) WriteU16(address uint16, v uint16) error { return n.core.writeU16(address, v) }
func (n *NodeCyclic) WriteI16(address uint16, v int16) error  { return n.core.writeI16(address, v) }
func (n *NodeCyclic) WriteU32(address uint16, v uint32) error { return n.core.writeU32(address, v) }
func (n *NodeCyclic) WriteI32(address uint16, v int32) error  { return n.core.writeI32(address, v) }
func (n *NodeCyclic) WriteU64(address uint16, v uint64) error { return n.core.writeU64(address, v) }
func (n *NodeCyclic) WriteI64(address uint16, v int64) error  { return n.core.writeI64(address, v) }
func (n *NodeCyclic) WriteF32(address uint16, v float32) error {
	return n.core.writeF32(address, v)
}
func (n *NodeCyclic) WriteF64(address uint16, v float64) error {
	return n.core.writeF64(address, v)
}
func (n *NodeCyclic) WriteStr(ctx context.Context, address uint16, s string) error {
	return n.core.writeStr(ctx, address, s)
}
func (n *NodeCyclic) GetDataU8(req *Request) uint8    { return getDataU8(req) }
func (n *NodeCyclic) GetDataI8(req *Request) int8     { return getDataI8(req) }
func (n *NodeCyclic) GetDataU16(req *Request) uint16  { return getDataU16(req) }
func (n *NodeCyclic) GetDataI16(req *Request) int16   { return getDataI16(req) }
func (n *NodeCyclic) GetDataU32(req *Request) uint32  { return getDataU32(req) }
func (n *NodeCyclic) GetDataI32(req *Request) int32   { return getDataI32(req) }
func (n *NodeCyclic) GetDataU64(req *Request) uint64  { return getDataU64(req) }
func (n *NodeCyclic) GetDataI64(req *Request) int64   { return getDataI64(req) }
func (n *NodeCyclic) GetDataF32(req *Request) float32 { return getDataF32(req) }
func (n *NodeCyclic) GetDataF64(req *Request) float64 { return getDataF64(req) }
func (n *NodeCyclic) GetDataStr(req *Request) string  { return getDataStr(req) }
