// Copyright (c) 2009 Thomas Jager. All rights reserved.
// Copyright (c) 2024 Jerzy Dąbrowski. All rights reserved.
//
// This project is a fork of the original go-ircevent library created by Thomas Jager.
// Redistribution and use in source and binary forms, with or without modification, are permitted provided
// that the following conditions are met:
//
//    - Redistributions of source code must retain the above copyright notice, this list of conditions,
//      and the following disclaimer.
//    - Redistributions in binary form must reproduce the above copyright notice, this list of conditions,
//      and the following disclaimer in the documentation and/or other materials provided with the distribution.
//    - Neither the name of the original authors nor the names of its contributors may be used to endorse
//      or promote products derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED "AS IS" WITHOUT WARRANTY OF ANY KIND, EXPRESS OR IMPLIED, INCLUDING BUT NOT
// LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE, AND NONINFRINGEMENT.
// IN NO EVENT SHALL THE COPYRIGHT HOLDERS OR CONTRIBUTORS BE LIABLE FOR ANY CLAIM, DAMAGES, OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT, OTHERWISE, ARISING FROM, OUT OF, OR IN CONNECTION WITH THE SOFTWARE
// OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package irc

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Scheduler serialises sends under a per-connection pacing interval,
// permitting priority bypass ("now") for handshake traffic. It enforces
// the 510-byte payload limit on every enqueued line.
//
// The drain timer is realised with a golang.org/x/time/rate.Limiter (one
// token per interval, burst 1) rather than a hand-rolled ticker loop, the
// same dependency senpai uses for its own outbound throttle.
type Scheduler struct {
	interval time.Duration
	send     func(line string) error
	onSent   func(line string)

	mu      sync.Mutex
	queue   []string
	limiter *rate.Limiter
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewScheduler constructs a Scheduler that writes through send and
// reports each write via onSent (used by the engine to fire LineSent).
func NewScheduler(interval time.Duration, send func(line string) error, onSent func(line string)) *Scheduler {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Scheduler{
		interval: interval,
		send:     send,
		onSent:   onSent,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Start begins the periodic drain. It is idempotent: calling Start while
// already running is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.drainLoop(ctx)
}

// Stop cancels the periodic drain and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.mu.Unlock()
	cancel()
	s.wg.Wait()
}

func (s *Scheduler) drainLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		line, ok := s.pop()
		if !ok {
			continue
		}
		s.write(line)
	}
}

func (s *Scheduler) pop() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return "", false
	}
	line := s.queue[0]
	s.queue = s.queue[1:]
	return line, true
}

func (s *Scheduler) write(text string) {
	if err := s.send(text); err != nil {
		return
	}
	if s.onSent != nil {
		s.onSent(text)
	}
}

// Send enqueues line for paced delivery, or writes it immediately when now
// is true (used for handshake traffic and anything else that must bypass
// the queue). It rejects lines longer than MaxLineLength before mutating
// any state.
func (s *Scheduler) Send(line string, now bool) error {
	if len(line) > MaxLineLength {
		return ErrLineTooLong
	}
	if now {
		s.write(line)
		return nil
	}
	s.mu.Lock()
	s.queue = append(s.queue, line)
	s.mu.Unlock()
	return nil
}

// Pending reports the number of lines currently queued (not yet drained).
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
