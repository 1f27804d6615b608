package mcb_test

import (
	"context"

	"github.com/GoAethereal/mcb"
)

// loopbackMutex is a buffered channel used as a cancelable lock: a lock is
// a receive from the channel, an unlock a send back into it, and a lock
// attempt can be canceled by the given context.
type loopbackMutex chan struct{}

func newLoopbackMutex() loopbackMutex {
	m := make(loopbackMutex, 1)
	m <- struct{}{}
	return m
}

func (m loopbackMutex) lock(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m:
		return nil
	}
}

func (m loopbackMutex) unlock() {
	m <- struct{}{}
}

// newLoopbackBus wires two PhysicalInterface endpoints directly together,
// in process: a frame written on one side becomes readable on the other.
// It stands in for a real bus transceiver in tests.
func newLoopbackBus() (a, b mcb.PhysicalInterface) {
	aToB := make(chan []uint16, 8)
	bToA := make(chan []uint16, 8)
	return &loopbackSide{out: aToB, in: bToA, mu: newLoopbackMutex()},
		&loopbackSide{out: bToA, in: aToB, mu: newLoopbackMutex()}
}

type loopbackSide struct {
	out  chan []uint16
	in   chan []uint16
	mu   loopbackMutex
	peek []uint16
}

func (s *loopbackSide) RawWrite(words []uint16) (mcb.Result, error) {
	cp := make([]uint16, len(words))
	copy(cp, words)
	s.out <- cp
	return mcb.Success, nil
}

func (s *loopbackSide) RawRead() ([]uint16, error) {
	if err := s.mu.lock(context.Background()); err != nil {
		return nil, err
	}
	defer s.mu.unlock()
	if s.peek != nil {
		w := s.peek
		s.peek = nil
		return w, nil
	}
	return <-s.in, nil
}

func (s *loopbackSide) IsDataReady() (mcb.Result, error) {
	if err := s.mu.lock(context.Background()); err != nil {
		return mcb.Empty, err
	}
	defer s.mu.unlock()
	if s.peek != nil {
		return mcb.Ready, nil
	}
	select {
	case w := <-s.in:
		s.peek = w
		return mcb.Ready, nil
	default:
		return mcb.Empty, nil
	}
}
