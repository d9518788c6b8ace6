package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/dlemaitre/sales-analytics-backend/pkg/logger"
)

type toggleLock struct {
	held     bool
	acquires int
	releases int
}

func (l *toggleLock) Acquire(context.Context) (bool, error) {
	l.acquires++
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *toggleLock) Release(context.Context) error {
	l.held = false
	l.releases++
	return nil
}

type countingJob struct {
	name string
	err  error
	runs int
}

func (c *countingJob) Name() string { return c.name }

func (c *countingJob) Run(context.Context) error {
	c.runs++
	return c.err
}

func cronTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard})
}

func newCycleService(t *testing.T, registry *Registry, lock Lock) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Logger:   cronTestLogger(),
		Registry: registry,
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestServiceCycleRunsEveryJobDespiteFailures(t *testing.T) {
	healthy := &countingJob{name: "healthy"}
	broken := &countingJob{name: "broken", err: errors.New("boom")}
	lock := &toggleLock{}
	service := newCycleService(t, NewRegistry(broken, healthy), lock)

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if broken.runs != 1 || healthy.runs != 1 {
		t.Fatalf("expected both jobs to run once, got broken=%d healthy=%d", broken.runs, healthy.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("expected lock released after cycle, releases=%d", lock.releases)
	}
}

func TestServiceCycleSkipsWhenLockHeld(t *testing.T) {
	job := &countingJob{name: "sync"}
	lock := &toggleLock{held: true}
	service := newCycleService(t, NewRegistry(job), lock)

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job must not run while another instance holds the lock, ran %d", job.runs)
	}
	if lock.releases != 0 {
		t.Fatal("a skipped cycle must not release a lock it never acquired")
	}
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := NewService(ServiceParams{Lock: &toggleLock{}}); err == nil {
		t.Fatal("expected error without logger")
	}
	if _, err := NewService(ServiceParams{Logger: cronTestLogger()}); err == nil {
		t.Fatal("expected error without lock")
	}
}
