package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mbelk059/solace-agent-mesh-AMBER-AI-Alert/internal/model"
)

// AlertTrigger starts a new alert run
type AlertTrigger interface {
	TriggerAlert(ctx context.Context) (string, error)
}

// HistoryPruner deletes history older than a point in time
type HistoryPruner interface {
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// CronScheduler runs named schedules that trigger alerts, plus the history
// retention job
type CronScheduler struct {
	logger    *zap.Logger
	trigger   AlertTrigger
	cron      *cron.Cron
	parser    cron.Parser
	mu        sync.RWMutex
	schedules map[string]*model.Schedule
	entryIDs  map[string]cron.EntryID
	ctx       context.Context
	cancel    context.CancelFunc
}

// cronLogger adapts zap.Logger to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, zap.Any("details", keysAndValues))
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, zap.Error(err), zap.Any("details", keysAndValues))
}

// NewCronScheduler creates a new scheduler
func NewCronScheduler(trigger AlertTrigger, logger *zap.Logger) *CronScheduler {
	cronLogger := &cronLogger{logger: logger.Named("cron")}
	cronOptions := []cron.Option{
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		cron.WithLogger(cronLogger),
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &CronScheduler{
		logger:    logger.Named("scheduler"),
		trigger:   trigger,
		cron:      cron.New(cronOptions...),
		parser:    cron.NewParser(cronFields),
		schedules: make(map[string]*model.Schedule),
		entryIDs:  make(map[string]cron.EntryID),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start starts the scheduler
func (s *CronScheduler) Start(ctx context.Context) error {
	s.cron.Start()
	go func() {
		<-ctx.Done()
		s.cancel()
	}()
	s.logger.Info("Cron scheduler started", zap.Int("schedules", len(s.ListSchedules())))
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronScheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// AddSchedule adds a new schedule
func (s *CronScheduler) AddSchedule(schedule *model.Schedule) error {
	spec, err := s.parser.Parse(schedule.Expression)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}

	if schedule.ID == "" {
		schedule.ID = uuid.New().String()
	}
	now := time.Now()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now
	next := spec.Next(now)
	schedule.NextRunTime = &next

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.schedules[schedule.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSchedule, schedule.ID)
	}

	entryID := s.cron.Schedule(spec, &triggerJob{scheduler: s, id: schedule.ID, spec: spec})
	s.schedules[schedule.ID] = schedule
	s.entryIDs[schedule.ID] = entryID

	s.logger.Info("Added schedule",
		zap.String("id", schedule.ID),
		zap.String("name", schedule.Name),
		zap.String("expression", schedule.Expression),
		zap.Time("next_run", next))

	return nil
}

// RemoveSchedule removes a schedule
func (s *CronScheduler) RemoveSchedule(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, ok := s.entryIDs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrScheduleNotFound, id)
	}

	s.cron.Remove(entryID)
	delete(s.entryIDs, id)
	delete(s.schedules, id)

	s.logger.Info("Removed schedule", zap.String("id", id))
	return nil
}

// GetSchedule gets a copy of a schedule by ID
func (s *CronScheduler) GetSchedule(id string) (*model.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedule, ok := s.schedules[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScheduleNotFound, id)
	}
	c := *schedule
	return &c, nil
}

// ListSchedules lists copies of all schedules ordered by name
func (s *CronScheduler) ListSchedules() []*model.Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedules := make([]*model.Schedule, 0, len(s.schedules))
	for _, schedule := range s.schedules {
		c := *schedule
		schedules = append(schedules, &c)
	}
	sort.Slice(schedules, func(i, j int) bool {
		if schedules[i].Name == schedules[j].Name {
			return schedules[i].ID < schedules[j].ID
		}
		return schedules[i].Name < schedules[j].Name
	})
	return schedules
}

// AddRetention registers a job deleting history older than maxAge
func (s *CronScheduler) AddRetention(expression string, maxAge time.Duration, pruner HistoryPruner) error {
	spec, err := s.parser.Parse(expression)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	s.cron.Schedule(spec, cron.FuncJob(func() {
		s.prune(maxAge, pruner)
	}))
	s.logger.Info("Added history retention job",
		zap.String("expression", expression),
		zap.Duration("max_age", maxAge))
	return nil
}

func (s *CronScheduler) prune(maxAge time.Duration, pruner HistoryPruner) {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	deleted, err := pruner.DeleteBefore(ctx, time.Now().Add(-maxAge))
	if err != nil {
		s.logger.Error("Failed to prune history", zap.Error(err))
		return
	}
	s.logger.Debug("History pruned", zap.Int64("deleted", deleted))
}

// run fires one schedule
func (s *CronScheduler) run(id string, spec cron.Schedule) {
	s.mu.Lock()
	schedule, ok := s.schedules[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	now := time.Now()
	next := spec.Next(now)
	schedule.LastRunTime = &now
	schedule.NextRunTime = &next
	schedule.RunCount++
	name := schedule.Name
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	alertID, err := s.trigger.TriggerAlert(ctx)
	if err != nil {
		s.logger.Error("Scheduled trigger failed",
			zap.String("id", id),
			zap.String("name", name),
			zap.Error(err))
		return
	}

	s.logger.Info("Executed schedule",
		zap.String("id", id),
		zap.String("name", name),
		zap.String("alert_id", alertID),
		zap.Time("next_run", next))
}

// triggerJob implements cron.Job
type triggerJob struct {
	scheduler *CronScheduler
	id        string
	spec      cron.Schedule
}

// Run implements cron.Job
func (j *triggerJob) Run() {
	j.scheduler.run(j.id, j.spec)
}
