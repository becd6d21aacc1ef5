package dispatch

import (
	"fmt"
	"sync"
)

// Mode chooses what Close does with a goroutine that is still running.
type Mode int

const (
	// Join makes Close block until the goroutine returns.
	Join Mode = iota
	// Detach makes Close return immediately and lets the goroutine finish on its own.
	Detach
)

func (m Mode) String() string {
	if m == Detach {
		return "detach"
	}
	return "join"
}

// Scoped owns a dedicated goroutine for the lifetime of a scope. Pair Go with a
// deferred Close so the goroutine is always joined or explicitly detached.
type Scoped struct {
	mode Mode
	done chan struct{}
	once sync.Once
	err  error
}

// Go starts fn on its own goroutine. A panic in fn is captured and reported by Close.
func Go(mode Mode, fn func()) *Scoped {
	s := &Scoped{mode: mode, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		defer func() {
			if r := recover(); r != nil {
				s.err = fmt.Errorf("scoped goroutine panicked: %v", r)
			}
		}()
		fn()
	}()
	return s
}

func (s *Scoped) Mode() Mode { return s.mode }

// Done is closed once the goroutine has returned.
func (s *Scoped) Done() <-chan struct{} { return s.done }

func (s *Scoped) Running() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Close applies the disposal mode. It is safe to call more than once. In Join mode
// it returns the captured panic, if any; a detached goroutine reports nothing.
func (s *Scoped) Close() error {
	var err error
	s.once.Do(func() {
		if s.mode == Detach {
			return
		}
		<-s.done
		err = s.err
	})
	return err
}
