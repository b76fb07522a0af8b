package field

import "github.com/pthm-cable/glowfield/host"

// SchedulerState is the frame loop state.
type SchedulerState uint8

const (
	Running SchedulerState = iota
	Stopped
)

func (s SchedulerState) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// frameRequester is the part of host.Host the scheduler needs.
type frameRequester interface {
	RequestFrame(fn host.FrameFunc) host.FrameID
	CancelFrame(id host.FrameID)
}

// Scheduler runs tick once per host refresh until stopped. Each tick
// requests the next frame before doing its work, so a stop issued from
// inside a tick cancels the request it just made.
type Scheduler struct {
	host       frameRequester
	tick       host.FrameFunc
	state      SchedulerState
	pending    host.FrameID
	hasPending bool
}

// startScheduler creates a scheduler in the Running state with its first
// frame requested.
func startScheduler(h frameRequester, tick host.FrameFunc) *Scheduler {
	s := &Scheduler{host: h, tick: tick, state: Running}
	s.schedule()
	return s
}

func (s *Scheduler) schedule() {
	s.pending = s.host.RequestFrame(s.run)
	s.hasPending = true
}

func (s *Scheduler) run(nowMs float64) {
	s.hasPending = false
	if s.state != Running {
		return
	}
	s.schedule()
	s.tick(nowMs)
}

// Stop moves the scheduler to Stopped and cancels the pending frame.
// The transition happens once; later calls do nothing.
func (s *Scheduler) Stop() {
	if s.state == Stopped {
		return
	}
	s.state = Stopped
	if s.hasPending {
		s.host.CancelFrame(s.pending)
		s.hasPending = false
	}
}

// State returns the current scheduler state.
func (s *Scheduler) State() SchedulerState {
	return s.state
}
