package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/cadencehq/cadence/internal/service/progress"
)

// Agent is one specialized generation routine, bound to exactly one content
// type.
type Agent interface {
	Name() string
	Generate(ctx context.Context, req AgentRequest) (*GenerationResult, error)
}

// AgentResolver maps a content type to its agent. The mapping is fixed and
// total; there is no fallback chaining.
type AgentResolver interface {
	Resolve(contentType ContentType) (Agent, error)
}

// AgentRequest is everything an agent needs for one slot.
type AgentRequest struct {
	Slot         ContentSlot
	Description  *ContentDescription
	Objective    string
	Brief        string
	Restrictions []string
	Branding     Branding
	Resources    []ResourceMetadata
	Template     *TemplateMetadata
}

// DispatchStatus is the per-slot dispatch state machine:
// pending -> dispatched -> succeeded | failed. A failed slot may be
// re-dispatched through the regeneration controller.
type DispatchStatus string

const (
	DispatchPending   DispatchStatus = "pending"
	DispatchRunning   DispatchStatus = "dispatched"
	DispatchSucceeded DispatchStatus = "succeeded"
	DispatchFailed    DispatchStatus = "failed"
)

// SlotResult is the typed outcome of dispatching one slot.
type SlotResult struct {
	SlotID string
	Status DispatchStatus
	Result *GenerationResult
	Err    error
}

type DispatcherConfig struct {
	Concurrency   int64
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration
}

// Dispatcher routes each slot to its agent and executes the generation call.
// Slots are independent: one failure never blocks siblings. In-flight calls
// are bounded by a weighted semaphore; cancelling the context stops new
// launches without touching slots that already succeeded.
type Dispatcher struct {
	agents        AgentResolver
	concurrency   int64
	timeout       time.Duration
	maxRetries    int
	retryInterval time.Duration
	isTemporary   ErrorChecker
	logger        *zap.Logger
}

func NewDispatcher(agents AgentResolver, cfg DispatcherConfig, isTemp ErrorChecker, logger *zap.Logger) *Dispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 2 * time.Second
	}
	if isTemp == nil {
		isTemp = DefaultErrorChecker
	}

	return &Dispatcher{
		agents:        agents,
		concurrency:   cfg.Concurrency,
		timeout:       cfg.Timeout,
		maxRetries:    cfg.MaxRetries,
		retryInterval: cfg.RetryInterval,
		isTemporary:   isTemp,
		logger:        logger,
	}
}

// Dispatch generates content for every slot of the plan that has a
// description. It returns one result per dispatched slot; slots never
// launched because of cancellation are absent from the result set.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	plan *Plan,
	cfg *CampaignConfig,
	branding Branding,
	resources map[string]ResourceMetadata,
	templates map[string]TemplateMetadata,
	tracker *progress.Tracker,
) []SlotResult {
	sem := semaphore.NewWeighted(d.concurrency)

	var (
		mu      sync.Mutex
		results []SlotResult
		wg      sync.WaitGroup
	)

	for i := range plan.Slots {
		slot := plan.Slots[i]
		desc := plan.Descriptions[slot.ID]
		if desc == nil {
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			// Cancelled: stop launching, already-running slots finish on
			// their own and succeeded ones stay intact.
			d.logger.Info("dispatch cancelled, skipping remaining slots",
				zap.String("campaign_id", plan.CampaignID),
				zap.String("slot_id", slot.ID))
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			res := d.dispatchSlot(ctx, slot, desc, cfg, branding, resources, templates, tracker)

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}()
	}

	wg.Wait()
	return results
}

// DispatchOne runs generation for a single slot, used by single-item
// regeneration.
func (d *Dispatcher) DispatchOne(
	ctx context.Context,
	plan *Plan,
	slotID string,
	cfg *CampaignConfig,
	branding Branding,
	resources map[string]ResourceMetadata,
	templates map[string]TemplateMetadata,
	tracker *progress.Tracker,
) (SlotResult, error) {
	slot := plan.Slot(slotID)
	if slot == nil {
		return SlotResult{}, fmt.Errorf("slot %s not found", slotID)
	}
	desc := plan.Descriptions[slotID]
	if desc == nil {
		return SlotResult{}, fmt.Errorf("slot %s has no description", slotID)
	}
	return d.dispatchSlot(ctx, *slot, desc, cfg, branding, resources, templates, tracker), nil
}

func (d *Dispatcher) dispatchSlot(
	ctx context.Context,
	slot ContentSlot,
	desc *ContentDescription,
	cfg *CampaignConfig,
	branding Branding,
	resources map[string]ResourceMetadata,
	templates map[string]TemplateMetadata,
	tracker *progress.Tracker,
) SlotResult {
	agent, err := d.agents.Resolve(slot.ContentType)
	if err != nil {
		tracker.Error(slot.ID, err.Error())
		return SlotResult{SlotID: slot.ID, Status: DispatchFailed, Err: err}
	}

	req := AgentRequest{
		Slot:         slot,
		Description:  desc,
		Objective:    cfg.Objective,
		Brief:        cfg.Brief,
		Restrictions: cfg.Restrictions,
		Branding:     branding,
	}
	for _, id := range desc.ResourceIDs {
		if res, ok := resources[id]; ok {
			req.Resources = append(req.Resources, res)
		}
	}
	if desc.TemplateID != "" {
		if tpl, ok := templates[desc.TemplateID]; ok {
			req.Template = &tpl
		}
	}

	tracker.Start(slot.ID, agent.Name(),
		fmt.Sprintf("generating %s content for %s", slot.ContentType, slot.Platform))

	started := time.Now()
	result, err := d.generateWithRetry(ctx, agent, req)
	if err != nil {
		if IsTimeout(err) {
			d.logger.Warn("slot generation timed out",
				zap.String("slot_id", slot.ID),
				zap.String("agent", agent.Name()),
				zap.Duration("timeout", d.timeout))
		} else {
			d.logger.Error("slot generation failed",
				zap.String("slot_id", slot.ID),
				zap.String("agent", agent.Name()),
				zap.Error(err))
		}
		tracker.Error(slot.ID, err.Error())
		return SlotResult{SlotID: slot.ID, Status: DispatchFailed, Err: err}
	}

	result.SlotID = slot.ID
	result.Agent = agent.Name()
	result.ProcessingTime = time.Since(started)
	result.GeneratedAt = time.Now()

	tracker.Success(slot.ID, agent.Name(),
		fmt.Sprintf("generated %s content for %s", slot.ContentType, slot.Platform))

	return SlotResult{SlotID: slot.ID, Status: DispatchSucceeded, Result: result}
}

func (d *Dispatcher) generateWithRetry(ctx context.Context, agent Agent, req AgentRequest) (*GenerationResult, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.retryInterval

	return backoff.RetryWithData(func() (*GenerationResult, error) {
		result, err := d.attempt(ctx, agent, req)
		if err != nil {
			if d.isTemporary(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return result, nil
	}, backoff.WithMaxRetries(backoff.WithContext(bo, ctx), uint64(d.maxRetries)))
}

// attempt runs one generation call under the per-call timeout. A deadline hit
// on the call (not on the parent run) surfaces as a TimeoutError.
func (d *Dispatcher) attempt(ctx context.Context, agent Agent, req AgentRequest) (*GenerationResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	result, err := agent.Generate(attemptCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &TimeoutError{Op: string(req.Slot.ContentType) + " generation", Timeout: d.timeout}
		}
		return nil, err
	}
	return result, nil
}
