package autocapture

import (
	"sync"
	"sync/atomic"
	"time"

	"ReceiptCapture/config"
	iface "ReceiptCapture/interface"
	"ReceiptCapture/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChangeDetector is the motion question the service asks every tick.
type ChangeDetector interface {
	IsChanging(f *iface.Frame) bool
	Initialize(f *iface.Frame)
	Reset()
}

// Processor is one pipeline run over an owned snapshot.
type Processor interface {
	Process(f *iface.Frame) iface.CaptureResult
}

type job struct {
	id    string
	seq   uint64
	frame *iface.Frame
}

// Service is the auto-capture state machine. The camera goroutine feeds
// OnFrame at a fixed cadence; a single worker goroutine drains the job
// channel, so at most one pipeline run is in flight by construction, no
// locking needed for that invariant. Every observable outcome leaves through
// the bounded Results channel.
type Service struct {
	detector        ChangeDetector
	proc            Processor
	stableThreshold int
	cooldown        time.Duration

	enabled atomic.Bool

	mu          sync.Mutex
	state       State
	stableCount int
	lastTrigger time.Time
	seq         uint64

	jobs    chan job
	results chan iface.CaptureResult
	done    chan struct{}
	once    sync.Once
}

func NewService(detector ChangeDetector, proc Processor, cfg config.CaptureConfig) *Service {
	return &Service{
		detector:        detector,
		proc:            proc,
		stableThreshold: cfg.StableFrames,
		cooldown:        cfg.Cooldown(),
		state:           StateIdle,
		jobs:            make(chan job, 1),
		results:         make(chan iface.CaptureResult, 16),
		done:            make(chan struct{}),
	}
}

// Start launches the capture worker.
func (s *Service) Start() {
	go s.runWorker()
}

// Stop closes the job channel and waits for the worker to drain. In-flight
// work completes; it is not interrupted.
func (s *Service) Stop() {
	s.once.Do(func() { close(s.jobs) })
	<-s.done
}

// Enable arms the service: state back to Idle and a fresh motion baseline.
// The next frame only installs the baseline, so a sheet already lying still
// in view does not register as motion.
func (s *Service) Enable() {
	s.mu.Lock()
	s.state = StateIdle
	s.stableCount = 0
	s.mu.Unlock()
	s.detector.Reset()
	s.enabled.Store(true)
	logger.Log().Info("auto capture enabled")
}

// Disable stops new triggers. An in-flight task keeps running; its
// completion is suppressed by the enabled check.
func (s *Service) Disable() {
	s.enabled.Store(false)
	logger.Log().Info("auto capture disabled")
}

func (s *Service) Enabled() bool { return s.enabled.Load() }

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Results is the outward channel of capture outcomes. Bounded; a slow
// consumer loses results rather than blocking the worker.
func (s *Service) Results() <-chan iface.CaptureResult {
	return s.results
}

// OnFrame runs the per-tick decision. Cheap and non-blocking: it must never
// stall the camera goroutine.
func (s *Service) OnFrame(f *iface.Frame) {
	if !s.enabled.Load() || f == nil {
		return
	}

	changing := s.detector.IsChanging(f)

	s.mu.Lock()
	defer s.mu.Unlock()

	next, count, trigger := Next(s.state, changing, s.stableCount, s.stableThreshold)
	s.state = next
	s.stableCount = count
	if trigger {
		s.tryTrigger(f)
	}
}

// tryTrigger is called with the mutex held, in state Processing. A rejected
// attempt falls back to Idle instead. The motion baseline is deliberately
// left alone on trigger and on later failure; re-arming it here would make
// the still-present sheet read as motion on the next tick (Enable is the
// explicit re-arm point).
func (s *Service) tryTrigger(f *iface.Frame) {
	now := time.Now()
	if !s.lastTrigger.IsZero() && now.Sub(s.lastTrigger) < s.cooldown {
		s.state = StateIdle
		s.stableCount = 0
		logger.Log().Debug("trigger suppressed by cooldown")
		return
	}

	s.seq++
	j := job{id: uuid.NewString(), seq: s.seq, frame: f.Clone()}
	select {
	case s.jobs <- j:
		s.lastTrigger = now
		logger.Log().Info("capture triggered", zap.String("job", j.id))
	default:
		// worker saturated; absorb silently and rearm
		s.state = StateIdle
		s.stableCount = 0
		logger.Log().Warn("capture trigger dropped, worker busy")
	}
}

func (s *Service) runWorker() {
	defer func() {
		if r := recover(); r != nil {
			logger.Log().Error("capture worker panic, restarting", zap.Any("panic", r))
			time.Sleep(time.Second)
			go s.runWorker()
			return
		}
		close(s.done)
	}()
	for j := range s.jobs {
		res := s.proc.Process(j.frame)
		s.complete(j, res)
	}
}

// complete applies a finished pipeline run. This is the stale-result guard:
// the result only lands if the service is still enabled, still Processing,
// and the job is the most recent trigger. Anything else is an outcome for a
// document that is no longer there, and is dropped.
func (s *Service) complete(j job, res iface.CaptureResult) {
	if !s.enabled.Load() {
		logger.Log().Debug("capture result discarded, service disabled", zap.String("job", j.id))
		return
	}

	s.mu.Lock()
	if s.state != StateProcessing || j.seq != s.seq {
		s.mu.Unlock()
		logger.Log().Debug("stale capture result discarded", zap.String("job", j.id))
		return
	}
	switch res.Kind {
	case iface.ResultSuccess, iface.ResultDuplicate:
		s.state = StateProcessed
	case iface.ResultFailure:
		// non-fatal; retried on the next stabilization cycle
		s.state = StateIdle
		s.stableCount = 0
	}
	s.mu.Unlock()

	select {
	case s.results <- res:
	default:
		logger.Log().Warn("capture result dropped, consumer too slow", zap.String("job", j.id))
	}
}
