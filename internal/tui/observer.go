package tui

import (
	"sync"

	"github.com/mmcdole/showtrack/internal/profile"
)

// ChannelObserver adapts profile.Observer to a channel for Bubble Tea.
// The channel should have a capacity of one; a queued snapshot is replaced
// by a newer one rather than the newer one being dropped.
type ChannelObserver struct {
	mu sync.Mutex
	ch chan profile.Snapshot
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch chan profile.Snapshot) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// OnChange queues snap, replacing any snapshot the view has not taken yet.
// It never blocks.
func (o *ChannelObserver) OnChange(snap profile.Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cap(o.ch) == 0 {
		select {
		case o.ch <- snap:
		default:
		}
		return
	}
	for {
		select {
		case o.ch <- snap:
			return
		default:
		}
		select {
		case <-o.ch:
		default:
		}
	}
}

var _ profile.Observer = (*ChannelObserver)(nil)
