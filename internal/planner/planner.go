// Package planner is the authoritative side of the edit protocol: it owns
// conflict decisions and persists writes.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/javiermolinar/dayline/internal/cache"
	"github.com/javiermolinar/dayline/internal/dateutil"
	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/metrics"
	"github.com/javiermolinar/dayline/internal/quickadd"
	"github.com/javiermolinar/dayline/internal/recurrence"
)

const cachePrefix = "dayline:items:"

// DefaultTaskMinutes is the length given to a task created with only a start time.
const DefaultTaskMinutes = 30

// ErrDeleted is returned when editing an item that is in the trash.
var ErrDeleted = errors.New("item is in the trash")

// Options configure a Service.
type Options struct {
	TaskDefaultMinutes int
	CacheTTL           time.Duration
	TrashRetention     time.Duration

	Cache     cache.Cache
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Validator *validator.Validate

	Now   func() time.Time
	NewID func() string
}

// Service answers proposals against the repository.
type Service struct {
	repo     item.Repository
	cache    cache.Cache
	logger   *zap.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate

	taskDefault int
	cacheTTL    time.Duration
	retention   time.Duration
	now         func() time.Time
	newID       func() string

	// serializes check-then-write so two proposals cannot both pass the
	// conflict check for the same slot
	writeMu sync.Mutex
}

// proposalRules holds the field rules checked with the validator.
type proposalRules struct {
	Kind       string `validate:"omitempty,oneof=event task"`
	Title      string `validate:"max=200"`
	Recurrence string `validate:"omitempty,rrule"`
}

// registerRules adds the custom tags used by proposalRules to v.
func registerRules(v *validator.Validate) error {
	err := v.RegisterValidation("rrule", func(fl validator.FieldLevel) bool {
		return recurrence.Validate(fl.Field().String()) == nil
	})
	if err != nil {
		return fmt.Errorf("registering rrule validation: %w", err)
	}
	return nil
}

// New creates a Service. It panics if the validator refuses the custom
// rule tags.
func New(repo item.Repository, opts Options) *Service {
	if opts.TaskDefaultMinutes <= 0 {
		opts.TaskDefaultMinutes = DefaultTaskMinutes
	}
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Validator == nil {
		opts.Validator = validator.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if err := registerRules(opts.Validator); err != nil {
		panic(fmt.Sprintf("planner: %v", err))
	}

	return &Service{
		repo:        repo,
		cache:       opts.Cache,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		validate:    opts.Validator,
		taskDefault: opts.TaskDefaultMinutes,
		cacheTTL:    opts.CacheTTL,
		retention:   opts.TrashRetention,
		now:         opts.Now,
		newID:       opts.NewID,
	}
}

// TaskDefaultMinutes returns the length of a task created without an end.
func (s *Service) TaskDefaultMinutes() int {
	return s.taskDefault
}

// Items returns the live events and tasks shown on day. Recurring tasks are
// expanded to the day; an occurrence keeps its task's ID.
func (s *Service) Items(ctx context.Context, day time.Time) ([]item.Item, error) {
	day = dateutil.TruncateToDay(day)

	var events, tasks []item.Item
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = s.List(gctx, day, item.KindEvent)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = s.List(gctx, day, item.KindTask)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return item.NewDay(day, append(events, tasks...)).Items(), nil
}

// List returns the live items of one kind shown on day.
func (s *Service) List(ctx context.Context, day time.Time, kind item.Kind) ([]item.Item, error) {
	day = dateutil.TruncateToDay(day)
	key := cacheKey(day, kind)

	var cached []item.Item
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	s.metrics.RecordCache(found)
	if found {
		return cached, nil
	}

	items, err := s.load(ctx, day, kind)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, items, s.cacheTTL); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return items, nil
}

func (s *Service) load(ctx context.Context, day time.Time, kind item.Kind) ([]item.Item, error) {
	switch kind {
	case item.KindEvent:
		events, err := s.repo.ListEvents(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("listing events: %w", err)
		}
		return events, nil
	case item.KindTask:
		tasks, err := s.repo.ListTasks(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("listing tasks: %w", err)
		}
		return s.expand(tasks, day), nil
	default:
		return nil, item.ErrInvalidKind
	}
}

// expand keeps the tasks that occur on day.
func (s *Service) expand(tasks []item.Item, day time.Time) []item.Item {
	out := make([]item.Item, 0, len(tasks))
	for _, t := range tasks {
		if !t.IsRecurring() {
			if dateutil.SameDay(t.Date, day) {
				out = append(out, t)
			}
			continue
		}
		ok, err := recurrence.OccursOn(t.Recurrence, t.Date, day)
		if err != nil {
			s.logger.Warn("skipping task with bad recurrence", zap.String("id", t.ID), zap.Error(err))
			continue
		}
		if ok {
			t.Date = day
			out = append(out, t)
		}
	}
	return out
}

// ProposeWrite validates p, checks it against the day's items unless it is
// forced, and persists it. Validation problems come back as a message
// result rather than an error.
func (s *Service) ProposeWrite(ctx context.Context, p item.Proposal) (item.WriteResult, error) {
	if msg := s.check(p); msg != "" {
		s.metrics.RecordProposal(metrics.OutcomeMessage)
		return item.Failed(msg), nil
	}
	p.Date = dateutil.TruncateToDay(p.Date)
	if p.Kind == "" {
		p.Kind = item.KindEvent
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var target *item.Item
	if !p.IsCreate() {
		var err error
		target, err = s.live(ctx, p.TargetID)
		if err != nil {
			s.metrics.RecordProposal(metrics.OutcomeError)
			return item.WriteResult{}, err
		}
	}

	if p.Span != nil && !p.Force {
		conflicts, err := s.conflicts(ctx, p.Date, *p.Span, p.TargetID)
		if err != nil {
			s.metrics.RecordProposal(metrics.OutcomeError)
			return item.WriteResult{}, err
		}
		if len(conflicts) > 0 {
			s.metrics.RecordProposal(metrics.OutcomeConflict)
			s.logger.Info("proposal conflicts",
				zap.String("target", p.TargetID),
				zap.String("span", p.Span.String()),
				zap.Int("conflicts", len(conflicts)),
			)
			return item.Rejected(conflicts), nil
		}
	}

	var (
		id  string
		err error
	)
	if target == nil {
		id, err = s.create(ctx, p)
	} else {
		id, err = s.update(ctx, target, p)
	}
	if err != nil {
		s.metrics.RecordProposal(metrics.OutcomeError)
		return item.WriteResult{}, err
	}

	outcome := metrics.OutcomeOK
	if p.Force {
		outcome = metrics.OutcomeForced
	}
	s.metrics.RecordProposal(outcome)
	s.logger.Info("proposal accepted",
		zap.String("id", id),
		zap.Bool("create", target == nil),
		zap.Bool("force", p.Force),
	)
	s.invalidate(ctx)
	return item.Accepted(id), nil
}

// check returns a user-facing message when p is not acceptable.
func (s *Service) check(p item.Proposal) string {
	rules := proposalRules{Kind: string(p.Kind), Title: p.Title, Recurrence: p.Recurrence}
	if err := s.validate.Struct(rules); err != nil {
		return describeValidation(err)
	}
	if err := p.Validate(); err != nil {
		return err.Error()
	}
	return ""
}

func (s *Service) create(ctx context.Context, p item.Proposal) (string, error) {
	it := &item.Item{
		ID:         s.newID(),
		Kind:       p.Kind,
		Date:       p.Date,
		Title:      strings.TrimSpace(p.Title),
		Span:       p.Span,
		Recurrence: p.Recurrence,
		CreatedAt:  s.now(),
	}
	if err := s.repo.CreateItem(ctx, it); err != nil {
		return "", fmt.Errorf("creating item: %w", err)
	}
	return it.ID, nil
}

func (s *Service) update(ctx context.Context, target *item.Item, p item.Proposal) (string, error) {
	updated := *target
	updated.Span = p.Span
	if title := strings.TrimSpace(p.Title); title != "" {
		updated.Title = title
	}
	// A recurring task keeps its anchor; editing one occurrence edits them all.
	if !target.IsRecurring() {
		updated.Date = p.Date
	}
	if err := s.repo.UpdateItem(ctx, &updated); err != nil {
		return "", fmt.Errorf("updating item: %w", err)
	}
	return updated.ID, nil
}

// conflicts reads the day from the repository, bypassing the cache.
func (s *Service) conflicts(ctx context.Context, day time.Time, span item.Span, excludeID string) ([]item.Item, error) {
	events, err := s.load(ctx, day, item.KindEvent)
	if err != nil {
		return nil, err
	}
	tasks, err := s.load(ctx, day, item.KindTask)
	if err != nil {
		return nil, err
	}
	return item.FindConflicts(span, append(events, tasks...), excludeID), nil
}

// Get returns an item, including items in the trash.
func (s *Service) Get(ctx context.Context, id string) (*item.Item, error) {
	return s.repo.GetItem(ctx, id)
}

func (s *Service) live(ctx context.Context, id string) (*item.Item, error) {
	it, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if it.IsDeleted() {
		return nil, fmt.Errorf("%w: %s", ErrDeleted, id)
	}
	return it, nil
}

// Reschedule moves an item to another day keeping its time range.
// Conflicts on the new day are allowed and show up as annotations.
func (s *Service) Reschedule(ctx context.Context, id string, day time.Time) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.live(ctx, id); err != nil {
		return err
	}
	if err := s.repo.RescheduleItem(ctx, id, dateutil.TruncateToDay(day)); err != nil {
		return err
	}
	s.logger.Info("item rescheduled", zap.String("id", id), zap.String("date", dateutil.FormatDate(day)))
	s.invalidate(ctx)
	return nil
}

// Delete moves an item to the trash.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.logger.Info("item deleted", zap.String("id", id))
	s.invalidate(ctx)
	return nil
}

// Restore takes an item out of the trash. The restored item may overlap
// others; that is reported by the conflict annotations, not refused.
func (s *Service) Restore(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.repo.RestoreItem(ctx, id); err != nil {
		return err
	}
	s.logger.Info("item restored", zap.String("id", id))
	s.invalidate(ctx)
	return nil
}

// Trash lists deleted items, newest first.
func (s *Service) Trash(ctx context.Context) ([]item.Item, error) {
	return s.repo.ListDeleted(ctx)
}

// PurgeTrash removes items deleted longer ago than the retention period.
func (s *Service) PurgeTrash(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.repo.PurgeDeleted(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.metrics.AddPurged(n)
	if n > 0 {
		s.logger.Info("trash purged", zap.Int64("items", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}

// Preview is a parsed quick add and the items it would overlap.
type Preview struct {
	quickadd.Entry
	Conflicts []item.Item
}

// PreviewQuickAdd parses text the way a quick add would and checks the
// resulting range against the stored day, without writing.
func (s *Service) PreviewQuickAdd(ctx context.Context, text string, today time.Time) (Preview, error) {
	p := Preview{Entry: quickadd.Parse(text, today)}
	if p.Span == nil || p.Span.Validate() != nil {
		return p, nil
	}
	day := p.Date
	if day.IsZero() {
		day = today
	}
	conflicts, err := s.conflicts(ctx, dateutil.TruncateToDay(day), *p.Span, "")
	if err != nil {
		return Preview{}, err
	}
	p.Conflicts = conflicts
	return p, nil
}

func (s *Service) invalidate(ctx context.Context) {
	// Recurring tasks appear on many days, so every day is dropped.
	if err := s.cache.DeleteByPattern(ctx, cachePrefix+"*"); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}

func cacheKey(day time.Time, kind item.Kind) string {
	return cachePrefix + dateutil.FormatDate(day) + ":" + string(kind)
}

// ResolveSpan builds the span for a start and optional end. A task given
// only a start lasts taskMinutes, cut at the end of the day.
func ResolveSpan(kind item.Kind, start, end string, taskMinutes int) (*item.Span, error) {
	switch {
	case start == "" && end == "":
		return nil, nil
	case start == "":
		return nil, errors.New("end time needs a start time")
	case end == "":
		if kind != item.KindTask {
			return nil, errors.New("events need an end time")
		}
		s, err := item.ToMinutes(start)
		if err != nil {
			return nil, fmt.Errorf("start time: %w", err)
		}
		span, err := item.NewSpan(s, min(s+taskMinutes, item.MinutesPerDay-1))
		if err != nil {
			return nil, err
		}
		return &span, nil
	default:
		span, err := item.ParseSpan(start, end)
		if err != nil {
			return nil, err
		}
		return &span, nil
	}
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		case "rrule":
			parts = append(parts, fmt.Sprintf("%s is not a valid rule", field))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(parts, "; ")
}
