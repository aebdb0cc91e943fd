package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"SignalDesk/internal/collector"
	"SignalDesk/internal/metrics"
	"SignalDesk/internal/model"
	"SignalDesk/internal/notifier"
	"SignalDesk/internal/recorder"
	"SignalDesk/internal/tracker"

	"github.com/robfig/cron/v3"
)

// Notifier delivers formatted messages.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the evaluation sweeps and user commands.
type Scheduler struct {
	Cron       *cron.Cron
	Collector  *collector.Collector
	Tracker    *tracker.Tracker
	Notifier   Notifier
	Recorder   recorder.Recorder
	Health     *metrics.HealthStatus
	Timeframes []string
	Ctx        context.Context

	// now is replaceable in tests.
	now func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, tr *tracker.Tracker, n Notifier, rec recorder.Recorder, health *metrics.HealthStatus, timeframes []string) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Collector:  col,
		Tracker:    tr,
		Notifier:   n,
		Recorder:   rec,
		Health:     health,
		Timeframes: timeframes,
		Ctx:        ctx,
		now:        time.Now,
	}
}

// RegisterAll registers the signal sweep. The job fires on signalCron and
// sweeps every timeframe whose bar boundary falls within the current minute.
func (s *Scheduler) RegisterAll(signalCron string) error {
	if _, err := s.Cron.AddFunc(signalCron, s.signalTask); err != nil {
		return fmt.Errorf("register signal task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow sweeps every timeframe immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	for _, tf := range s.Timeframes {
		s.Sweep(s.Ctx, tf)
	}
}

func (s *Scheduler) signalTask() {
	now := s.now()
	for _, tf := range s.Timeframes {
		if due(tf, now) {
			s.Sweep(s.Ctx, tf)
		}
	}
}

// due reports whether a bar of interval closed within the minute containing now.
func due(interval string, now time.Time) bool {
	step, err := collector.ParseInterval(interval)
	if err != nil {
		return false
	}
	if step <= time.Minute {
		return true
	}
	return now.Sub(now.Truncate(step)) < time.Minute
}

// Sweep evaluates every asset on interval, records the results and alerts on
// transitions into CALL or PUT. It returns the number of failed assets.
func (s *Scheduler) Sweep(ctx context.Context, interval string) int {
	log.Printf("[INFO] running %s signal sweep", interval)
	results := s.Collector.AnalyzeAll(ctx, interval)

	failures := 0
	for _, r := range results {
		if r.Err != nil {
			failures++
			s.recordFailure(r, interval)
			continue
		}
		a := r.Analysis
		if err := s.Recorder.RecordSignal(a); err != nil {
			log.Printf("[ERROR] record signal %s %s: %v", a.Asset, a.Interval, err)
		}
		changed, previous := s.Tracker.Observe(a)
		if changed && a.Result.Signal != model.DirectionWait {
			log.Printf("[INFO] %s %s: %s -> %s (%d%%)", a.Asset, interval, previous, a.Result.Signal, a.Result.Confidence)
			s.trySend(ctx, notifier.FormatAlert(a, previous))
		}
	}

	if s.Health != nil {
		s.Health.MarkSweep(s.now(), failures)
	}
	log.Printf("[INFO] %s sweep done: %d assets, %d failed", interval, len(results), failures)
	return failures
}

func (s *Scheduler) recordFailure(r collector.AssetResult, interval string) {
	log.Printf("[WARN] %s %s: %v", r.Asset.Label, interval, r.Err)
	if !errors.Is(r.Err, collector.ErrDataUnavailable) {
		return
	}
	if err := s.Recorder.RecordFetchFailure(&recorder.FetchFailure{
		Asset:    r.Asset.Label,
		Interval: interval,
		Source:   s.Collector.Fetcher.Name(),
		Error:    r.Err.Error(),
	}); err != nil {
		log.Printf("[ERROR] record fetch failure: %v", err)
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp(s.Timeframes)
	}
	// Group chats address commands as /cmd@botname.
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch cmd {
	case "/signal":
		asset, tf := s.splitTimeframe(args)
		if asset == "" {
			return "Usage: /signal &lt;asset&gt; [timeframe]"
		}
		a, err := s.Collector.Analyze(ctx, asset, tf)
		if err != nil {
			if errors.Is(err, collector.ErrUnknownAsset) {
				return fmt.Sprintf("Unknown asset %q. Send /assets for the list.", asset)
			}
			return fmt.Sprintf("❌ Data Feed Error: %v", err)
		}
		if err := s.Recorder.RecordSignal(a); err != nil {
			log.Printf("[ERROR] record signal %s %s: %v", a.Asset, a.Interval, err)
		}
		return notifier.FormatSignal(a)
	case "/all":
		_, tf := s.splitTimeframe(args)
		return notifier.FormatSweep(tf, s.Collector.AnalyzeAll(ctx, tf))
	case "/history":
		asset := strings.Join(args, " ")
		if asset != "" {
			resolved, err := s.Collector.Asset(asset)
			if err != nil {
				return fmt.Sprintf("Unknown asset %q. Send /assets for the list.", asset)
			}
			asset = resolved.Label
		}
		records, err := s.Recorder.Recent(asset, 10)
		if err != nil {
			log.Printf("[ERROR] load history: %v", err)
			return "❌ History unavailable"
		}
		return notifier.FormatHistory(asset, records)
	case "/assets":
		return notifier.FormatAssets(s.Collector.Assets, s.Timeframes)
	default:
		return notifier.FormatHelp(s.Timeframes)
	}
}

// splitTimeframe separates a trailing timeframe argument from the asset name.
// Without one it uses the first configured timeframe.
func (s *Scheduler) splitTimeframe(args []string) (asset, tf string) {
	tf = "1m"
	if len(s.Timeframes) > 0 {
		tf = s.Timeframes[0]
	}
	if n := len(args); n > 0 {
		for _, t := range s.Timeframes {
			if strings.EqualFold(args[n-1], t) {
				return strings.Join(args[:n-1], " "), t
			}
		}
	}
	return strings.Join(args, " "), tf
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
