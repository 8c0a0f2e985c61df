package clipboard

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
)

// DefaultPollInterval is the polling platform's read cadence.
const DefaultPollInterval = 500 * time.Millisecond

// PollingPlatform detects changes by periodically re-reading clipboard text
// through the system clipboard commands. It never reports images.
type PollingPlatform struct {
	interval time.Duration
	readAll  func() (string, error)
	last     string
}

// NewPollingPlatform creates a polling platform. A non-positive interval
// uses DefaultPollInterval.
func NewPollingPlatform(interval time.Duration) *PollingPlatform {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollingPlatform{interval: interval, readAll: clipboard.ReadAll}
}

// Init records the current clipboard text as the baseline.
func (p *PollingPlatform) Init() error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	text, err := p.readAll()
	if err != nil {
		return err
	}
	p.last = text
	return nil
}

func (p *PollingPlatform) ReadText() (string, error) {
	return p.readAll()
}

func (p *PollingPlatform) ReadImage() (*RawImage, error) {
	return nil, nil
}

// WaitChange polls until the text differs from the last observed value.
// Read errors are treated as no change.
func (p *PollingPlatform) WaitChange(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			text, err := p.readAll()
			if err != nil || text == p.last {
				continue
			}
			p.last = text
			return nil
		}
	}
}
