package viewer

import (
	"sync"
	"time"

	"github.com/vanderheijden86/logview/pkg/watcher"
)

// DefaultKeywordDelay is how long typing must pause before a search runs.
const DefaultKeywordDelay = 300 * time.Millisecond

// KeywordDebouncer rate-limits keyword events. Submit may be called on every
// keystroke; C delivers the latest keyword once input has been quiet for the
// delay. Intermediate keywords are dropped, the last one never is.
type KeywordDebouncer struct {
	d  *watcher.Debouncer
	ch chan string

	mu     sync.Mutex
	closed bool
}

// NewKeywordDebouncer returns a debouncer with the given delay; non-positive
// means DefaultKeywordDelay.
func NewKeywordDebouncer(delay time.Duration) *KeywordDebouncer {
	if delay <= 0 {
		delay = DefaultKeywordDelay
	}
	return &KeywordDebouncer{
		d:  watcher.NewDebouncer(delay),
		ch: make(chan string, 1),
	}
}

// Submit records kw as the newest keyword.
func (k *KeywordDebouncer) Submit(kw string) {
	k.d.Trigger(func() { k.deliver(kw) })
}

// Flush delivers kw immediately, cancelling anything pending.
func (k *KeywordDebouncer) Flush(kw string) {
	k.d.Cancel()
	k.deliver(kw)
}

func (k *KeywordDebouncer) deliver(kw string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return
	}
	// Replace an undelivered older keyword.
	select {
	case <-k.ch:
	default:
	}
	k.ch <- kw
}

// C returns the channel settled keywords arrive on.
func (k *KeywordDebouncer) C() <-chan string { return k.ch }

// Delay returns the quiet period.
func (k *KeywordDebouncer) Delay() time.Duration { return k.d.Duration() }

// Stop cancels pending delivery and closes C.
func (k *KeywordDebouncer) Stop() {
	k.d.Cancel()
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.closed {
		k.closed = true
		close(k.ch)
	}
}
