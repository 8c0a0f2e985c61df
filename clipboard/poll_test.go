package clipboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedReader struct {
	mu    sync.Mutex
	value string
	err   error
}

func (r *scriptedReader) read() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.err
}

func (r *scriptedReader) set(v string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value, r.err = v, err
}

func TestPollingPlatform_WaitChange(t *testing.T) {
	r := &scriptedReader{value: "initial"}
	p := NewPollingPlatform(time.Millisecond)
	p.readAll = r.read
	p.last = "initial"

	done := make(chan error, 1)
	go func() { done <- p.WaitChange(context.Background()) }()

	select {
	case <-done:
		t.Fatal("WaitChange returned without a change")
	case <-time.After(20 * time.Millisecond):
	}

	r.set("", errors.New("xclip missing"))
	time.Sleep(5 * time.Millisecond)
	r.set("updated", nil)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitChange did not observe the change")
	}

	text, err := p.ReadText()
	require.NoError(t, err)
	assert.Equal(t, "updated", text)
}

func TestPollingPlatform_Cancel(t *testing.T) {
	p := NewPollingPlatform(time.Millisecond)
	p.readAll = func() (string, error) { return "", nil }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.WaitChange(ctx), context.Canceled)
}

func TestPollingPlatform_Defaults(t *testing.T) {
	p := NewPollingPlatform(0)
	assert.Equal(t, DefaultPollInterval, p.interval)

	img, err := p.ReadImage()
	assert.NoError(t, err)
	assert.Nil(t, img)
}
