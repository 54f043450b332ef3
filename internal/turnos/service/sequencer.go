package service

import (
	"context"
	"sync"
)

// Sequencer serializes the read-max-then-insert step of issuance for one
// date. Acquire blocks until the caller may issue and returns the release
// function.
type Sequencer interface {
	Acquire(ctx context.Context, date string) (release func(), err error)
}

// LocalSequencer holds one mutex per date inside this process.
type LocalSequencer struct {
	mu    sync.Mutex
	dates map[string]*dateLock
}

type dateLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocalSequencer() *LocalSequencer {
	return &LocalSequencer{dates: make(map[string]*dateLock)}
}

func (s *LocalSequencer) Acquire(ctx context.Context, date string) (func(), error) {
	s.mu.Lock()
	l, ok := s.dates[date]
	if !ok {
		l = &dateLock{}
		s.dates[date] = l
	}
	l.refs++
	s.mu.Unlock()

	locked := make(chan struct{})
	go func() {
		l.mu.Lock()
		close(locked)
	}()

	select {
	case <-locked:
	case <-ctx.Done():
		// The goroutine still takes the lock eventually; hand it back.
		go func() {
			<-locked
			s.release(date, l)
		}()
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() { once.Do(func() { s.release(date, l) }) }, nil
}

func (s *LocalSequencer) release(date string, l *dateLock) {
	l.mu.Unlock()

	s.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.dates, date)
	}
	s.mu.Unlock()
}

// UnguardedSequencer does no locking. Two concurrent issuances on the same
// date may read the same maximum and store duplicate numbers.
type UnguardedSequencer struct{}

func (UnguardedSequencer) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}
