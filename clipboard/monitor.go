// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package clipboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/poiesic/shadowpaste/core"
)

const (
	// DefaultSettleDelay is how long to wait after a change notification
	// before reading. Some platforms notify before the new content is
	// committed; the delay narrows that window but cannot close it.
	DefaultSettleDelay = 50 * time.Millisecond

	// DefaultVerifyRetries bounds the extra reads used to confirm content.
	DefaultVerifyRetries = 2

	// DefaultVerifyBackoff separates verification reads.
	DefaultVerifyBackoff = 25 * time.Millisecond
)

// Monitor turns platform change notifications into deduplicated captures.
type Monitor struct {
	platform      Platform
	settleDelay   time.Duration
	verifyRetries int
	verifyBackoff time.Duration
	now           func() time.Time
	logger        *slog.Logger

	mu      sync.Mutex
	last    core.Content
	hasLast bool
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor) error

// WithSettleDelay sets the wait between a change notification and the first read.
func WithSettleDelay(d time.Duration) MonitorOption {
	return func(m *Monitor) error {
		if d < 0 {
			return fmt.Errorf("settle delay must be non-negative, got %s", d)
		}
		m.settleDelay = d
		return nil
	}
}

// WithVerifyRetries sets how many confirmation reads follow the first one.
// Zero disables verification.
func WithVerifyRetries(n int) MonitorOption {
	return func(m *Monitor) error {
		if n < 0 {
			return fmt.Errorf("verify retries must be non-negative, got %d", n)
		}
		m.verifyRetries = n
		return nil
	}
}

// WithVerifyBackoff sets the pause between confirmation reads.
func WithVerifyBackoff(d time.Duration) MonitorOption {
	return func(m *Monitor) error {
		if d < 0 {
			return fmt.Errorf("verify backoff must be non-negative, got %s", d)
		}
		m.verifyBackoff = d
		return nil
	}
}

// WithClock overrides the capture timestamp source.
func WithClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		m.now = now
		return nil
	}
}

// WithLogger sets a custom logger for the monitor.
func WithLogger(logger *slog.Logger) MonitorOption {
	return func(m *Monitor) error {
		m.logger = logger
		return nil
	}
}

// NewMonitor creates a monitor over the given platform.
func NewMonitor(platform Platform, opts ...MonitorOption) (*Monitor, error) {
	if platform == nil {
		return nil, ErrPlatformRequired
	}
	m := &Monitor{
		platform:      platform,
		settleDelay:   DefaultSettleDelay,
		verifyRetries: DefaultVerifyRetries,
		verifyBackoff: DefaultVerifyBackoff,
		now:           time.Now,
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = m.logger.With("component", "clipboard-monitor")
	return m, nil
}

// Start initializes the platform listener and runs the change loop on a
// dedicated OS thread. An init failure is returned and no loop is started.
// The returned channel closes when ctx ends or the platform stops.
func (m *Monitor) Start(ctx context.Context) (<-chan core.Capture, error) {
	q := newQueue()
	initErr := make(chan error, 1)
	go m.loop(ctx, q, initErr)
	if err := <-initErr; err != nil {
		return nil, err
	}
	go q.run(ctx)
	return q.out, nil
}

func (m *Monitor) loop(ctx context.Context, q *queue, initErr chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := m.platform.Init(); err != nil {
		m.logger.Error("clipboard listener init failed", "err", err)
		initErr <- fmt.Errorf("%w: %w", ErrInitFailed, err)
		return
	}
	initErr <- nil
	defer q.close()
	if closer, ok := m.platform.(io.Closer); ok {
		defer closer.Close()
	}
	m.logger.Info("clipboard monitor started")

	for {
		if err := m.platform.WaitChange(ctx); err != nil {
			if ctx.Err() == nil {
				m.logger.Error("clipboard watch stopped", "err", err)
			}
			return
		}
		capture, ok := m.HandleChange()
		if !ok {
			continue
		}
		if !q.push(ctx, capture) {
			return
		}
	}
}

// HandleChange reads the clipboard after a change notification. It reports
// false when the content equals the last emitted capture.
func (m *Monitor) HandleChange() (core.Capture, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sleep(m.settleDelay)
	content := m.read()
	for i := 0; i < m.verifyRetries; i++ {
		sleep(m.verifyBackoff)
		again := m.read()
		if core.Equal(again, content) {
			break
		}
		m.logger.Debug("clipboard content still settling", "attempt", i+1)
		content = again
	}

	if m.hasLast && core.Equal(m.last, content) {
		return core.Capture{}, false
	}
	m.last = content
	m.hasLast = true
	m.logger.Debug("clipboard changed", "kind", core.KindOf(content))
	return core.Capture{Content: content, CapturedAt: m.now()}, true
}

func (m *Monitor) read() core.Content {
	var snap Snapshot
	text, err := m.platform.ReadText()
	if err != nil {
		m.logger.Debug("text read failed", "err", err)
	} else {
		snap.Text = text
		snap.HasText = text != ""
	}
	if !snap.HasText {
		img, err := m.platform.ReadImage()
		if err != nil {
			m.logger.Debug("image read failed", "err", err)
		} else {
			snap.Image = img
		}
	}
	return Classify(snap)
}

func sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
