package campaigns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"realty-crm/internal/audit"
	"realty-crm/internal/calls"
	"realty-crm/internal/outcome"
	"realty-crm/internal/schedule"
	"realty-crm/internal/voice"
	"realty-crm/pkg/logger"
)

var (
	ErrNoContacts               = errors.New("campaigns: no contacts to dial")
	ErrClassificationInProgress = errors.New("campaigns: classification already running for call")
)

type Initiator interface {
	Initiate(ctx context.Context, req voice.InitiateRequest) (string, error)
}

type TranscriptSource interface {
	Transcript(ctx context.Context, callID string) (outcome.Transcript, error)
}

type CallStore interface {
	Create(ctx context.Context, r calls.Record) error
	GetByExternalID(ctx context.Context, externalCallID string) (calls.Record, error)
}

type Completer interface {
	Apply(ctx context.Context, externalCallID string, res outcome.Result, summary string) (calls.Completion, error)
}

type Scheduler interface {
	Schedule(ctx context.Context, t schedule.Task) (schedule.Handle, error)
	Cancel(ctx context.Context, callID string) (bool, error)
}

// Deps are the collaborators of an Orchestrator. Events may be nil.
type Deps struct {
	Initiator   Initiator
	Transcripts TranscriptSource
	Classifier  outcome.Classifier
	Calls       CallStore
	Updater     Completer
	Campaigns   Repository
	Scheduler   Scheduler
	Guard       schedule.Guard
	Events      *audit.Service
	Log         *slog.Logger
}

type Options struct {
	// ClassifyDelay is how long after initiation a call is classified.
	ClassifyDelay time.Duration
	// DeployConcurrency caps simultaneous contacts per deployment.
	DeployConcurrency int
}

const (
	DefaultClassifyDelay     = 125 * time.Second
	DefaultDeployConcurrency = 4
)

// Orchestrator runs the deployment flow: initiate, persist, schedule, and later classify.
type Orchestrator struct {
	d     Deps
	opts  Options
	clock func() time.Time
}

func NewOrchestrator(d Deps, opts Options) *Orchestrator {
	if opts.ClassifyDelay <= 0 {
		opts.ClassifyDelay = DefaultClassifyDelay
	}
	if opts.DeployConcurrency <= 0 {
		opts.DeployConcurrency = DefaultDeployConcurrency
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Guard == nil {
		d.Guard = schedule.NewLocalGuard()
	}
	return &Orchestrator{d: d, opts: opts, clock: time.Now}
}

// Deploy dials every contact. A failing contact never aborts the others;
// the returned results are in contact order.
func (o *Orchestrator) Deploy(ctx context.Context, req DeployRequest) ([]ContactResult, error) {
	if strings.TrimSpace(req.Campaign.ID) == "" {
		return nil, ErrInvalidArgument
	}
	if len(req.Contacts) == 0 {
		return nil, ErrNoContacts
	}

	// A call the provider accepted must still be recorded and scheduled
	// after the caller goes away.
	ctx = context.WithoutCancel(ctx)

	results := make([]ContactResult, len(req.Contacts))
	var g errgroup.Group
	g.SetLimit(o.opts.DeployConcurrency)
	for i, c := range req.Contacts {
		g.Go(func() error {
			results[i] = o.deployOne(ctx, req.Campaign, c)
			return nil
		})
	}
	_ = g.Wait()

	initiated := 0
	for _, r := range results {
		if r.State == StateInitiated {
			initiated++
		}
	}

	log := o.d.Log.With("campaign_id", req.Campaign.ID)
	if initiated > 0 && req.Campaign.Status != StatusActive && o.d.Campaigns != nil {
		if err := o.d.Campaigns.SetStatus(ctx, req.Campaign.ID, StatusActive); err != nil {
			log.Warn("campaign activation failed", "err", err)
		}
	}
	o.note(log, o.d.Events.CampaignDeployed(ctx, req.Campaign.ID, req.ActorUserID, req.ActorRole, len(req.Contacts), initiated))
	log.Info("campaign deployed", "contacts", len(req.Contacts), "initiated", initiated)
	return results, nil
}

func (o *Orchestrator) deployOne(ctx context.Context, c Campaign, contact Contact) ContactResult {
	res := ContactResult{Contact: contact, State: StateFailed}
	log := o.d.Log.With("campaign_id", c.ID)

	callID, err := o.d.Initiator.Initiate(ctx, voice.InitiateRequest{
		PhoneNumber:     contact.Phone,
		CampaignType:    c.Type,
		PropertyDetails: c.PropertyDetails,
		ContactName:     contact.Name,
	})
	if err != nil {
		log.Warn("call initiation failed", "phone_number", contact.Phone, "err", err)
		o.note(log, o.d.Events.InitiationFailed(ctx, c.ID, contact.Phone, err))
		res.Error = err.Error()
		return res
	}
	res.CallID = callID
	log = logger.ForCall(o.d.Log, c.ID, callID)

	now := o.clock().UTC()
	rec := calls.Record{
		ID:             uuid.NewString(),
		ExternalCallID: callID,
		CampaignID:     c.ID,
		PropertyID:     c.PropertyID,
		ContactName:    strings.TrimSpace(contact.Name),
		PhoneNumber:    strings.TrimSpace(contact.Phone),
		Email:          strings.TrimSpace(contact.Email),
		Status:         calls.StatusInitiated,
		LeadStage:      outcome.StageNew,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := o.d.Calls.Create(ctx, rec); err != nil {
		log.Error("call record create failed", "err", err)
		o.note(log, o.d.Events.PersistFailed(ctx, c.ID, callID, err))
		res.Error = err.Error()
		return res
	}
	res.RecordID = rec.ID

	task := schedule.Task{CallID: callID, CampaignID: c.ID, DueAt: now.Add(o.opts.ClassifyDelay)}
	if _, err := o.d.Scheduler.Schedule(ctx, task); err != nil {
		// the record stays initiated; an operator can reclassify it
		log.Error("classification schedule failed", "err", err)
		o.note(log, o.d.Events.ScheduleFailed(ctx, c.ID, callID, err))
		res.Error = err.Error()
		return res
	}

	log.Info("call initiated", "due_at", task.DueAt)
	res.State = StateInitiated
	return res
}

// Classify runs the classification pass for one call: fetch the transcript,
// classify it, and write the result. At most one pass per call runs at a time.
// Failures leave the record as it was and are not retried.
func (o *Orchestrator) Classify(ctx context.Context, externalCallID string) (calls.Completion, error) {
	if strings.TrimSpace(externalCallID) == "" {
		return calls.Completion{}, ErrInvalidArgument
	}
	token, ok, err := o.d.Guard.Acquire(ctx, externalCallID)
	if err != nil {
		return calls.Completion{}, fmt.Errorf("campaigns: acquire guard: %w", err)
	}
	if !ok {
		return calls.Completion{}, ErrClassificationInProgress
	}
	defer func() {
		if err := o.d.Guard.Release(context.WithoutCancel(ctx), externalCallID, token); err != nil {
			o.d.Log.Warn("classification guard release failed", "call_id", externalCallID, "err", err)
		}
	}()

	rec, err := o.d.Calls.GetByExternalID(ctx, externalCallID)
	if err != nil {
		o.d.Log.Warn("classification for unknown call", "call_id", externalCallID, "err", err)
		return calls.Completion{}, err
	}
	log := logger.ForCall(o.d.Log, rec.CampaignID, externalCallID)

	fail := func(step string, err error) (calls.Completion, error) {
		err = fmt.Errorf("%s: %w", step, err)
		log.Error("classification failed", "err", err)
		o.note(log, o.d.Events.ClassificationFailed(ctx, rec.CampaignID, externalCallID, err))
		return calls.Completion{}, err
	}

	tr, err := o.d.Transcripts.Transcript(ctx, externalCallID)
	if err != nil {
		return fail("fetch transcript", err)
	}
	// resolve "tomorrow" against the call, not against when this pass runs
	res, err := o.d.Classifier.Classify(ctx, tr, rec.CreatedAt.In(o.clock().Location()))
	if err != nil {
		return fail("classify", err)
	}
	completion, err := o.d.Updater.Apply(ctx, externalCallID, res, tr.Summary)
	if err != nil {
		return fail("update record", err)
	}

	o.note(log, o.d.Events.CallCompleted(ctx, rec.CampaignID, externalCallID, string(completion.LeadStage), completion.AppointmentAt))
	log.Info("call classified", "lead_stage", completion.LeadStage, "matched", res.Matched, "has_appointment", completion.AppointmentAt != nil)
	return completion, nil
}

// ClassifyNow drops any pending scheduled pass for the call and runs one immediately.
func (o *Orchestrator) ClassifyNow(ctx context.Context, externalCallID string) (calls.Completion, error) {
	if o.d.Scheduler != nil {
		if _, err := o.d.Scheduler.Cancel(ctx, externalCallID); err != nil {
			o.d.Log.Warn("scheduled classification cancel failed", "call_id", externalCallID, "err", err)
		}
	}
	return o.Classify(ctx, externalCallID)
}

// HandleDue is the scheduler's RunFunc.
func (o *Orchestrator) HandleDue(ctx context.Context, t schedule.Task) {
	if _, err := o.Classify(ctx, t.CallID); err != nil && errors.Is(err, ErrClassificationInProgress) {
		o.d.Log.Info("scheduled classification skipped", "call_id", t.CallID, "reason", err)
	}
}

func (o *Orchestrator) note(log *slog.Logger, err error) {
	if err != nil && !errors.Is(err, audit.ErrRepoNotConfigured) {
		log.Warn("campaign event not recorded", "err", err)
	}
}
