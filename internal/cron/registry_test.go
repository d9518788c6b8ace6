package cron

import (
	"context"
	"testing"
)

type namedJob struct {
	name string
}

func (n *namedJob) Name() string              { return n.name }
func (n *namedJob) Run(context.Context) error { return nil }

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	first := &namedJob{name: "first"}
	second := &namedJob{name: "second"}
	registry := NewRegistry(first, second)

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != first || jobs[1] != second {
		t.Fatal("jobs returned out of registration order")
	}

	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatal("internal slice leaked to caller")
	}
}

func TestRegistryIgnoresNilAndDuplicates(t *testing.T) {
	registry := NewRegistry(nil, &namedJob{name: "sync"})
	registry.Register(&namedJob{name: "sync"})

	if got := len(registry.Jobs()); got != 1 {
		t.Fatalf("expected 1 job after nil and duplicate registration, got %d", got)
	}
}
