package mcb

import "fmt"

// ExtMode selects one of the two oversize-payload strategies. It is set
// at endpoint construction and is immutable for the endpoint's lifetime;
// both peers on a bus must agree on it.
type ExtMode int

const (
	// ExtModeSegmented splits an oversize payload across several
	// standard-sized frames, synchronized one segment at a time.
	ExtModeSegmented ExtMode = iota
	// ExtModeExtended sends the whole payload in a single frame whose
	// CFG_DATA[0] carries the byte length and whose EXT_DATA carries the
	// bytes.
	ExtModeExtended
)

// doner is satisfied by both cancel.Context (used by Main's blocking
// calls) and the stdlib context.Context (used by Node's), letting the
// busy-wait poll loop below serve both endpoints without duplicating it.
type doner interface {
	Done() <-chan struct{}
	Err() error
}

// pollReady busy-waits on pi.IsDataReady until it stops reporting Empty,
// or ctx is done. The core performs no sleeping here; an implementer may
// insert a cooperative yield without changing the send/poll/receive order.
func pollReady(ctx doner, pi PhysicalInterface) error {
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrInterface, ctx.Err())
		default:
		}
		res, err := pi.IsDataReady()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInterface, err)
		}
		if res != Empty {
			return nil
		}
	}
}

// readVerified reads one frame from pi and checks its CRC.
func readVerified(pi PhysicalInterface) ([]uint16, error) {
	data, err := pi.RawRead()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInterface, err)
	}
	if len(data) < ExtDataIdx {
		return nil, fmt.Errorf("%w: short frame", ErrInterface)
	}
	if data[CrcIdx] != crcOf(pi, data[:CrcIdx]) {
		return nil, ErrCRC
	}
	return data, nil
}

// writeAckFrame sends a bare STD_ACK frame for address, stamping subnode
// into HEADER. It backs both Node's public Ack and the synchronization
// response a receiver sends mid-sequence during a segmented string
// transfer, in either direction.
func writeAckFrame(pi PhysicalInterface, frame *Frame, subnode byte, address uint16) error {
	frame.SetHeader(subnode)
	frame.SetCommand(OpStdAck, address)
	clearWords(frame.Data())
	frame.ComputeCRC(pi)
	if _, err := pi.RawWrite(frame.Words()[:ExtDataIdx]); err != nil {
		return fmt.Errorf("%w: %v", ErrInterface, err)
	}
	return nil
}

// sendString transmits payload at (subnode, address): the plain standard
// path when it fits, otherwise mode's oversize strategy. stdOp/extOp are
// the sender's opcode pair: STD_WRITE/EXT_WRITE for a Main pushing a
// write, STD_ACK/EXT_ACK for a Node answering a read. Both directions
// share this one implementation.
func sendString(ctx doner, pi PhysicalInterface, frame *Frame, subnode byte, address uint16, mode ExtMode, stdOp, extOp Opcode, payload []byte) error {
	if len(payload) < MaxStdCfgData {
		frame.SetHeader(subnode)
		frame.SetCommand(stdOp, address)
		clearWords(frame.Data())
		packString(frame.Data(), payload)
		frame.ComputeCRC(pi)
		if _, err := pi.RawWrite(frame.Words()[:ExtDataIdx]); err != nil {
			return fmt.Errorf("%w: %v", ErrInterface, err)
		}
		return nil
	}

	switch mode {
	case ExtModeSegmented:
		return sendSegmented(ctx, pi, frame, subnode, address, stdOp, extOp, payload)
	case ExtModeExtended:
		return sendExtended(pi, frame, subnode, address, extOp, payload)
	default:
		return fmt.Errorf("%w: unknown extended mode", ErrInvalidParameter)
	}
}

// sendSegmented splits payload into MaxStdCfgData-byte chunks, sending all
// but the last with extOp and the last with stdOp. After each non-final
// chunk it waits for the receiver's synchronizing ack before continuing:
// the receiver consumes one EXT_* frame, acks that address, then waits
// for the next segment to become ready.
func sendSegmented(ctx doner, pi PhysicalInterface, frame *Frame, subnode byte, address uint16, stdOp, extOp Opcode, payload []byte) error {
	for offset := 0; offset < len(payload); offset += MaxStdCfgData {
		end := offset + MaxStdCfgData
		final := end >= len(payload)
		if final {
			end = len(payload)
		}
		chunk := payload[offset:end]

		op := extOp
		if final {
			op = stdOp
		}
		frame.SetHeader(subnode)
		frame.SetCommand(op, address)
		clearWords(frame.Data())
		packString(frame.Data(), chunk)
		frame.ComputeCRC(pi)
		if _, err := pi.RawWrite(frame.Words()[:ExtDataIdx]); err != nil {
			return fmt.Errorf("%w: %v", ErrInterface, err)
		}

		if final {
			break
		}
		if err := pollReady(ctx, pi); err != nil {
			return err
		}
		ack, err := readVerified(pi)
		if err != nil {
			return err
		}
		if byte(ack[HeaderIdx]&0xF) != subnode {
			return &AccessError{Code: 0}
		}
	}
	return nil
}

// sendExtended sends payload as a single length-prefixed frame. The
// transmitted word count is 7+size (size in bytes) exactly, not
// 7+ceil(size/2); this over-allocates the word count relative to the
// bytes actually needed but is required to match the peer's own slicing.
func sendExtended(pi PhysicalInterface, frame *Frame, subnode byte, address uint16, op Opcode, payload []byte) error {
	size := len(payload)
	if ExtDataIdx+size > MaxFrameSize {
		return fmt.Errorf("%w: payload too large for frame", ErrInvalidParameter)
	}
	frame.SetHeader(subnode)
	frame.SetCommand(op, address)
	clearWords(frame.Data())
	frame.Data()[0] = uint16(size)
	clearWords(frame.Ext())
	packBytesInto(frame.Words()[ExtDataIdx:], payload)
	frame.ComputeCRC(pi)
	if _, err := pi.RawWrite(frame.Words()[:ExtDataIdx+size]); err != nil {
		return fmt.Errorf("%w: %v", ErrInterface, err)
	}
	return nil
}

// packBytesInto packs payload two bytes per word, low byte first, with no
// NUL-termination (Extended mode's length is explicit in CFG_DATA[0]).
func packBytesInto(dst []uint16, payload []byte) {
	for i := 0; i < len(payload); i += 2 {
		if i+1 < len(payload) {
			dst[i/2] = uint16(payload[i]) | uint16(payload[i+1])<<8
		} else {
			dst[i/2] = uint16(payload[i])
		}
	}
}

// recvSegmented reassembles a Segmented-mode string given the already-read
// first frame. Successive 4-word CFG_DATA chunks are written into the
// working frame starting at word 6 and advancing by 4, capping the
// reassembled payload at the first segment plus (MaxFrameSize-6)/4 more,
// 248 bytes in all. ack is called
// with each consumed segment's address before the next segment is read;
// it is the receiver's own Ack (Node) or a synchronizing Ack frame sent
// back to the peer (Main), per direction.
func recvSegmented(ctx doner, pi PhysicalInterface, first []uint16, ack func(address uint16) error) ([MaxFrameSize]uint16, error) {
	var buf [MaxFrameSize]uint16
	copy(buf[:ExtDataIdx], first[:ExtDataIdx])

	cur := first
	count := CrcIdx
	for cur[CommandIdx]&extBit == extBit {
		if err := ack(cur[CommandIdx] >> 4); err != nil {
			return buf, err
		}
		if err := pollReady(ctx, pi); err != nil {
			return buf, err
		}
		seg, err := readVerified(pi)
		if err != nil {
			return buf, err
		}
		if count+4 > MaxFrameSize {
			return buf, fmt.Errorf("%w: reassembly buffer exhausted", ErrInterface)
		}
		copy(buf[count:count+4], seg[CfgDataIdx:CrcIdx])
		count += 4
		cur = seg
	}
	return buf, nil
}

// decodeStr reconstructs a string from raw frame words, given the opcode
// the exchange's first frame carried and the extended mode the endpoint
// pair agreed on. It is shared by Main's ReadStr and Node's GetDataStr.
func decodeStr(raw []uint16, firstOp Opcode, mode ExtMode) string {
	if mode != ExtModeExtended || firstOp&Opcode(extBit) == 0 {
		// Standard path, or a Segmented sequence already reassembled
		// contiguously starting at CFG_DATA_IDX: NUL-terminator scan.
		return unpackString(raw[CfgDataIdx:])
	}
	size := int(raw[CfgDataIdx])
	end := ExtDataIdx + (size+1)/2
	if end > len(raw) {
		end = len(raw)
	}
	b := wordsToBytes(raw[ExtDataIdx:end])
	if size > len(b) {
		size = len(b)
	}
	return string(b[:size])
}
