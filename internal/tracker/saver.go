package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/julianstephens/habitt/internal/logger"
	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/storage"
)

type job struct {
	seq  uint64
	snap models.Snapshot
}

// saver writes snapshots on its own goroutine. Only the newest pending
// snapshot is kept, so a burst of mutations costs one write.
type saver struct {
	gateway storage.Gateway
	timeout time.Duration
	onError func(error)

	pending chan job
	quit    chan struct{}
	done    chan struct{}

	mu        sync.Mutex
	requested uint64
	completed uint64
	lastErr   error
	progress  chan struct{} // closed and replaced after every save
}

func newSaver(gw storage.Gateway, timeout time.Duration, onError func(error)) *saver {
	s := &saver{
		gateway:  gw,
		timeout:  timeout,
		onError:  onError,
		pending:  make(chan job, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		progress: make(chan struct{}),
	}
	go s.run()
	return s
}

// enqueue replaces any unsaved snapshot with snap. Callers must serialize
// enqueue calls; Tracker does so under its mutex.
func (s *saver) enqueue(snap models.Snapshot) {
	s.mu.Lock()
	s.requested++
	j := job{seq: s.requested, snap: snap}
	s.mu.Unlock()

	select {
	case s.pending <- j:
	default:
		select {
		case <-s.pending:
		default:
		}
		s.pending <- j
	}
}

func (s *saver) run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case j := <-s.pending:
			s.save(j)
		}
	}
}

func (s *saver) save(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	err := s.gateway.Save(ctx, j.snap)
	cancel()

	if err != nil {
		logger.Named("tracker").Error("Failed to save snapshot", "store", s.gateway.Describe(), "error", err)
		if s.onError != nil {
			s.onError(err)
		}
	} else {
		logger.Named("tracker").Debug("Saved snapshot", "store", s.gateway.Describe(), "seq", j.seq)
	}

	s.mu.Lock()
	s.lastErr = err
	if j.seq > s.completed {
		s.completed = j.seq
	}
	close(s.progress)
	s.progress = make(chan struct{})
	s.mu.Unlock()
}

func (s *saver) flush(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.completed >= s.requested {
			err := s.lastErr
			s.mu.Unlock()
			return err
		}
		progress := s.progress
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return s.lastError()
		case <-progress:
		}
	}
}

func (s *saver) lastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *saver) stop() {
	select {
	case <-s.quit:
	default:
		close(s.quit)
	}
	<-s.done
}
