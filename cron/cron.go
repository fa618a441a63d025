// Package cron schedules named chains of tasks on robfig/cron.
//
// Every task runs behind recovery and logging middlewares. Tasks in a chain
// run sequentially and the chain stops at the first failing task. The cache
// warmer in warm.go is the chain coinframe registers at startup.
package cron

import (
	"context"

	"github.com/dailyyoga/coinframe/logger"
)

// Task is one named step of a chain
type Task interface {
	// Name returns the unique identifier for this task
	Name() string
	// Run executes the task; ctx is canceled when the scheduler closes
	Run(ctx context.Context) error
}

// Chain represents a chain of tasks that execute sequentially
type Chain struct {
	// Name is the name of the chain
	Name string
	// Spec is the cron spec for the chain, seconds field included
	Spec string
	// Tasks are the tasks in the chain
	Tasks []Task
}

// Cron manages scheduled chains
type Cron interface {
	// Start begins the cron scheduler
	Start()
	// Close cancels running chains and waits for them to return
	Close()
	// AddTasks schedules tasks as one chain under spec
	AddTasks(name string, spec string, tasks ...Task) error
	// AddChain is alias for AddTasks
	AddChain(chain Chain) error
}

// NewCron creates a scheduler. Every task runs inside Recover and Timing,
// then inside mws in the order given.
func NewCron(log logger.Logger, mws ...Middleware) Cron {
	return newCronManager(log, append([]Middleware{Recover(log), Timing(log)}, mws...)...)
}
