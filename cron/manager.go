package cron

import (
	"context"
	"sync"

	"github.com/dailyyoga/coinframe/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// chainJob runs its tasks in order and aborts on the first failure
type chainJob struct {
	name   string
	tasks  []Task
	ctx    context.Context
	logger logger.Logger
}

func (j *chainJob) Run() {
	if j.ctx.Err() != nil {
		return
	}

	j.logger.Debug("chain job started", zap.String("chain_name", j.name))

	for _, task := range j.tasks {
		if err := task.Run(j.ctx); err != nil {
			j.logger.Error("chain job aborted due to task failure",
				zap.String("chain_name", j.name),
				zap.String("task_name", task.Name()),
				zap.Error(err),
			)
			return
		}
	}

	j.logger.Debug("chain job completed", zap.String("chain_name", j.name))
}

// cronManager is the default implementation of the Cron interface
type cronManager struct {
	cron        *cron.Cron
	middlewares []Middleware
	logger      logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func newCronManager(log logger.Logger, mws ...Middleware) *cronManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &cronManager{
		cron:        cron.New(cron.WithSeconds()),
		middlewares: mws,
		logger:      log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (m *cronManager) Start() {
	m.cron.Start()
}

func (m *cronManager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	<-m.cron.Stop().Done()
}

// AddTasks adds a chain of tasks to be executed according to the cron spec
// The spec follows the standard cron format with support for seconds (6 fields)
// Example: "*/30 * * * * *" (every 30 seconds)
func (m *cronManager) AddTasks(name, spec string, tasks ...Task) error {
	if len(tasks) == 0 {
		return ErrNoTasks
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrCronClosed
	}

	wrapped := make([]Task, len(tasks))
	for i, task := range tasks {
		wrapped[i] = wrap(TaskFunc(name+":"+task.Name(), task.Run), m.middlewares...)
	}

	job := &chainJob{
		name:   name,
		tasks:  wrapped,
		ctx:    m.ctx,
		logger: m.logger,
	}

	if _, err := m.cron.AddJob(spec, job); err != nil {
		return ErrSpec(name, spec, err)
	}

	m.logger.Info("chain added",
		zap.String("chain_name", name),
		zap.String("spec", spec),
		zap.Int("task_count", len(tasks)),
	)

	return nil
}

// AddChain is alias for AddTasks
func (m *cronManager) AddChain(chain Chain) error {
	return m.AddTasks(chain.Name, chain.Spec, chain.Tasks...)
}
