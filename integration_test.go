package mcb_test

import (
	"context"
	"testing"

	"github.com/GoAethereal/cancel"
	"github.com/GoAethereal/mcb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPair(t *testing.T, mode mcb.ExtMode, subnode byte) (*mcb.MainConfig, *mcb.NodeConfig) {
	t.Helper()
	mainPi, nodePi := newLoopbackBus()

	m, err := mcb.NewMain(mcb.Config{ExtMode: mode}, mainPi)
	require.NoError(t, err)

	n, err := mcb.NewNode(mcb.Config{ExtMode: mode, Subnode: subnode}, nodePi)
	require.NoError(t, err)

	return m.IntoConfig(), n.IntoConfig()
}

// serveOnce answers exactly one request from node against the given
// register/string maps, standing in for a real device's application logic.
func serveOnce(t *testing.T, ctx context.Context, node *mcb.NodeConfig, registers map[uint16]uint32, strs map[uint16]string) {
	t.Helper()
	req, err := node.Read(ctx)
	require.NoError(t, err)

	switch req.Kind {
	case mcb.CmdRead, mcb.CmdExtRead:
		if s, ok := strs[req.Address]; ok {
			require.NoError(t, node.WriteStr(ctx, req.Address, s))
			return
		}
		require.NoError(t, node.WriteU32(req.Address, registers[req.Address]))
	case mcb.CmdWrite:
		registers[req.Address] = node.GetDataU32(req)
		require.NoError(t, node.Ack(req.Address))
	case mcb.CmdExtWrite:
		strs[req.Address] = node.GetDataStr(req)
		require.NoError(t, node.Ack(req.Address))
	default:
		t.Fatalf("unexpected request kind %v", req.Kind)
	}
}

func TestStdWriteThenReadU32(t *testing.T) {
	main, node := newPair(t, mcb.ExtModeSegmented, 3)
	registers := map[uint16]uint32{}
	strs := map[uint16]string{}
	mainCtx := cancel.New()
	nodeCtx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		serveOnce(t, nodeCtx, node, registers, strs)
		serveOnce(t, nodeCtx, node, registers, strs)
	}()

	require.NoError(t, main.WriteU32(mainCtx, 3, 10, 0xFEEDFACE))
	got, err := main.ReadU32(mainCtx, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFEEDFACE), got)

	<-done
}

func TestExtendedStringRoundTrip(t *testing.T) {
	main, node := newPair(t, mcb.ExtModeExtended, 1)
	registers := map[uint16]uint32{}
	strs := map[uint16]string{}
	mainCtx := cancel.New()
	nodeCtx := context.Background()
	payload := "this string is well over the eight byte standard slot"

	done := make(chan struct{})
	go func() {
		defer close(done)
		serveOnce(t, nodeCtx, node, registers, strs)
		serveOnce(t, nodeCtx, node, registers, strs)
	}()

	require.NoError(t, main.WriteStr(mainCtx, 1, 20, payload))
	got, err := main.ReadStr(mainCtx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	<-done
}

func TestSegmentedStringRoundTrip(t *testing.T) {
	main, node := newPair(t, mcb.ExtModeSegmented, 2)
	registers := map[uint16]uint32{}
	strs := map[uint16]string{}
	mainCtx := cancel.New()
	nodeCtx := context.Background()
	payload := "a string long enough to span several standard-sized segments of the bus"

	done := make(chan struct{})
	go func() {
		defer close(done)
		serveOnce(t, nodeCtx, node, registers, strs)
		serveOnce(t, nodeCtx, node, registers, strs)
	}()

	require.NoError(t, main.WriteStr(mainCtx, 2, 30, payload))
	got, err := main.ReadStr(mainCtx, 2, 30)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	<-done
}

func TestUnknownRegisterReportsAccessError(t *testing.T) {
	main, node := newPair(t, mcb.ExtModeSegmented, 4)
	mainCtx := cancel.New()
	nodeCtx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		req, err := node.Read(nodeCtx)
		require.NoError(t, err)
		require.NoError(t, node.Error(req, 0x0BADF00D))
	}()

	_, err := main.ReadU32(mainCtx, 4, 99)
	var accessErr *mcb.AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, uint32(0x0BADF00D), accessErr.Code)

	<-done
}

func TestNodeRejectsWrongSubnode(t *testing.T) {
	mainPi, nodePi := newLoopbackBus()

	m, err := mcb.NewMain(mcb.Config{ExtMode: mcb.ExtModeSegmented}, mainPi)
	require.NoError(t, err)
	main := m.IntoConfig()

	n, err := mcb.NewNode(mcb.Config{ExtMode: mcb.ExtModeSegmented, Subnode: 5}, nodePi)
	require.NoError(t, err)
	node := n.IntoConfig()

	// Addressed to subnode 9; the Node below answers only for subnode 5,
	// so it must reject the frame instead of replying. The call gets no
	// reply and is left polling in the background; this test only checks
	// the Node side.
	go main.WriteU8(cancel.New(), 9, 1, 42)

	_, err = node.Read(context.Background())
	assert.ErrorIs(t, err, mcb.ErrWrongSubnode)
}

func TestMainRejectsCRCMismatch(t *testing.T) {
	main, err := mcb.NewMain(mcb.Config{ExtMode: mcb.ExtModeSegmented}, &badCRCInterface{})
	require.NoError(t, err)
	mc := main.IntoConfig()

	_, err = mc.ReadU8(cancel.New(), 1, 0)
	assert.ErrorIs(t, err, mcb.ErrCRC)
}

// badCRCInterface answers every request with a frame whose CRC word never
// matches its contents.
type badCRCInterface struct {
	delivered bool
}

func (b *badCRCInterface) RawWrite(words []uint16) (mcb.Result, error) {
	return mcb.Success, nil
}

func (b *badCRCInterface) RawRead() ([]uint16, error) {
	frame := make([]uint16, mcb.ExtDataIdx)
	frame[mcb.CrcIdx] = 0xFFFF
	return frame, nil
}

func (b *badCRCInterface) IsDataReady() (mcb.Result, error) {
	if b.delivered {
		return mcb.Empty, nil
	}
	b.delivered = true
	return mcb.Ready, nil
}
