package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/trois-dimensions/site-backend/internal/leads"
	"github.com/trois-dimensions/site-backend/internal/observability/metrics"
	"github.com/trois-dimensions/site-backend/pkg/logging"
)

var tracer = otel.Tracer("troisdimensions.internal.intake")

var errNoNotifier = errors.New("intake: notifier not configured")

// Store is the subset of the lead repository the pipeline writes to.
type Store interface {
	Create(ctx context.Context, req *leads.CreateLeadRequest) (*leads.Lead, error)
	MarkEmailSent(ctx context.Context, id string) error
}

// Notifier delivers the internal notification and returns the provider id.
type Notifier interface {
	Notify(ctx context.Context, lead *leads.Validated) (string, error)
}

// Config bounds the network steps of a submission.
type Config struct {
	StoreTimeout time.Duration
	EmailTimeout time.Duration
	// ConfigErr is set when a required dependency could not be built at
	// startup. Every submission is then refused before anything is stored.
	ConfigErr error
}

// Result is returned for every submission that was persisted.
type Result struct {
	LeadID  string `json:"leadId"`
	EmailID string `json:"emailId,omitempty"`
}

// Orchestrator runs one submission through validate, persist, notify and
// flag update. Only validation and persistence failures reach the caller.
type Orchestrator struct {
	store    Store
	notifier Notifier
	cfg      Config
	metrics  *metrics.IntakeMetrics
	logger   *logging.Logger
}

// NewOrchestrator wires the pipeline. metrics may be nil.
func NewOrchestrator(store Store, notifier Notifier, cfg Config, m *metrics.IntakeMetrics, logger *logging.Logger) *Orchestrator {
	if store == nil {
		panic("intake: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Orchestrator{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		metrics:  m,
		logger:   logger.Component("intake"),
	}
}

// Submit processes one submission. A returned error is always an *Error.
func (o *Orchestrator) Submit(ctx context.Context, sub leads.Submission) (*Result, error) {
	ctx, span := tracer.Start(ctx, "intake.submit")
	defer span.End()

	category := strings.TrimSpace(sub.Type)

	if err := o.configErr(); err != nil {
		o.metrics.ObserveSubmission(category, metrics.OutcomeConfigFailed)
		span.SetStatus(codes.Error, "not configured")
		o.logger.Error("submission refused: service misconfigured", "error", err)
		return nil, internalError(MsgUnavailable, err)
	}

	validated, err := leads.Validate(sub)
	if err != nil {
		o.metrics.ObserveSubmission(category, metrics.OutcomeRejected)
		span.SetAttributes(attribute.String("intake.outcome", metrics.OutcomeRejected))
		var ve *leads.ValidationError
		if errors.As(err, &ve) {
			o.logger.Info("submission rejected", "reason", ve.Message)
			return nil, badRequest(ve.Message, err)
		}
		return nil, badRequest("invalid request", err)
	}
	span.SetAttributes(attribute.String("intake.category", category))

	// The remaining steps must finish even if the submitter disconnects.
	work := context.WithoutCancel(ctx)

	lead, err := o.persist(work, validated)
	if err != nil {
		o.metrics.ObserveSubmission(category, metrics.OutcomeStoreFailed)
		span.SetStatus(codes.Error, "persist failed")
		o.logger.Error("failed to save lead", "category", category, "error", err)
		return nil, internalError(MsgStoreFailed, err)
	}
	span.SetAttributes(attribute.String("lead.id", lead.ID))
	result := &Result{LeadID: lead.ID}

	emailID, err := o.notify(work, validated)
	o.metrics.ObserveEmail(err == nil)
	if err != nil {
		o.metrics.ObserveSubmission(category, metrics.OutcomeEmailFailed)
		o.logger.Warn("lead notification failed", "lead_id", lead.ID, "error", err)
		return result, nil
	}
	result.EmailID = emailID

	if err := o.markSent(work, lead.ID); err != nil {
		o.metrics.ObserveSubmission(category, metrics.OutcomeFlagFailed)
		o.logger.Warn("failed to mark lead email sent", "lead_id", lead.ID, "email_id", emailID, "error", err)
		return result, nil
	}

	o.metrics.ObserveSubmission(category, metrics.OutcomeDelivered)
	o.logger.Info("lead received", "lead_id", lead.ID, "category", category, "email_id", emailID)
	return result, nil
}

func (o *Orchestrator) configErr() error {
	if o.cfg.ConfigErr != nil {
		return o.cfg.ConfigErr
	}
	if o.notifier == nil {
		return errNoNotifier
	}
	return nil
}

func (o *Orchestrator) persist(ctx context.Context, v *leads.Validated) (*leads.Lead, error) {
	ctx, span := tracer.Start(ctx, "intake.persist")
	defer span.End()
	ctx, cancel := withTimeout(ctx, o.cfg.StoreTimeout)
	defer cancel()

	start := time.Now()
	record := v.Record
	lead, err := o.store.Create(ctx, &record)
	o.metrics.ObserveStep("persist", time.Since(start).Seconds())
	if err != nil {
		failSpan(span, err)
		return nil, err
	}
	if lead == nil || lead.ID == "" {
		err := fmt.Errorf("intake: store returned no lead id")
		failSpan(span, err)
		return nil, err
	}
	return lead, nil
}

func (o *Orchestrator) notify(ctx context.Context, v *leads.Validated) (string, error) {
	ctx, span := tracer.Start(ctx, "intake.notify")
	defer span.End()
	ctx, cancel := withTimeout(ctx, o.cfg.EmailTimeout)
	defer cancel()

	start := time.Now()
	id, err := o.notifier.Notify(ctx, v)
	o.metrics.ObserveStep("notify", time.Since(start).Seconds())
	if err != nil {
		failSpan(span, err)
		return "", err
	}
	if id == "" {
		err := fmt.Errorf("intake: provider returned no message id")
		failSpan(span, err)
		return "", err
	}
	span.SetAttributes(attribute.String("email.id", id))
	return id, nil
}

func (o *Orchestrator) markSent(ctx context.Context, leadID string) error {
	ctx, span := tracer.Start(ctx, "intake.mark_sent", trace.WithAttributes(attribute.String("lead.id", leadID)))
	defer span.End()
	ctx, cancel := withTimeout(ctx, o.cfg.StoreTimeout)
	defer cancel()

	start := time.Now()
	err := o.store.MarkEmailSent(ctx, leadID)
	o.metrics.ObserveStep("mark_sent", time.Since(start).Seconds())
	if err != nil {
		failSpan(span, err)
	}
	return err
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
