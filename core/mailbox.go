package orchestration

import "sync"

// playbackMailbox is a single-slot latest-value register between the
// synthesis and playback workers. Putting a new buffer supersedes any buffer
// still waiting, so at most one pending playback exists and only the newest
// audio ever plays. An item already taken by the playback worker is not
// affected; started playback always runs to completion.
type playbackMailbox struct {
	mu      sync.Mutex
	pending *playbackTask

	updateSignal chan struct{}
}

func newPlaybackMailbox() *playbackMailbox {
	return &playbackMailbox{updateSignal: make(chan struct{}, 1)}
}

// Put stores the task as the sole pending item and reports whether an older
// pending task was discarded.
func (m *playbackMailbox) Put(task playbackTask) (superseded bool) {
	m.mu.Lock()
	superseded = m.pending != nil
	m.pending = &task
	m.mu.Unlock()

	m.signalUpdate()
	return superseded
}

// Take blocks until a pending task is available or closeCh closes.
func (m *playbackMailbox) Take(closeCh <-chan struct{}) (playbackTask, bool) {
	for {
		m.mu.Lock()
		if m.pending != nil {
			task := *m.pending
			m.pending = nil
			m.mu.Unlock()
			return task, true
		}
		m.mu.Unlock()

		select {
		case <-closeCh:
			return playbackTask{}, false
		case <-m.updateSignal:
		}
	}
}

// PendingCount reports whether a task is waiting (0 or 1 by construction).
func (m *playbackMailbox) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending != nil {
		return 1
	}
	return 0
}

func (m *playbackMailbox) signalUpdate() {
	select {
	case m.updateSignal <- struct{}{}:
	default:
	}
}
