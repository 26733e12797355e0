package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// ResumeFunc is invoked when a locally scheduled resume fires.
type ResumeFunc func(ctx context.Context, automationID string) error

// Local schedules resume callbacks with an in-process cron runner, for
// development environments without an externally reachable URL. Each resume
// fires on the next whole minute, mirroring the hosted service's cadence,
// then unregisters itself.
type Local struct {
	logger *slog.Logger
	cron   *cron.Cron
	resume ResumeFunc

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func NewLocal(logger *slog.Logger, resume ResumeFunc) *Local {
	l := &Local{
		logger:  logger,
		cron:    cron.New(),
		resume:  resume,
		entries: make(map[string]cron.EntryID),
	}

	l.cron.Start()

	return l
}

func (l *Local) ScheduleResume(_ context.Context, automationID string, nextIndex int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// A pending entry for the same automation stays in place.
	if _, ok := l.entries[automationID]; ok {
		return nil
	}

	entryID, err := l.cron.AddFunc("* * * * *", func() {
		l.fire(automationID)
	})
	if err != nil {
		return err
	}

	l.entries[automationID] = entryID
	l.logger.Info("Scheduled local resume", "automation_id", automationID, "next_index", nextIndex)

	return nil
}

func (l *Local) fire(automationID string) {
	l.mu.Lock()

	entryID, ok := l.entries[automationID]
	if ok {
		l.cron.Remove(entryID)
		delete(l.entries, automationID)
	}

	l.mu.Unlock()

	if !ok {
		return
	}

	err := l.resume(context.Background(), automationID)
	if err != nil {
		l.logger.Error("Local resume failed", "automation_id", automationID, "error", err)
	}
}

// Stop halts the cron runner and waits for in-flight resumes.
func (l *Local) Stop() {
	<-l.cron.Stop().Done()
}
