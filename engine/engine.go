// Package engine runs a workflow graph against a generation service.
//
// A run is strictly serialized: at most one is in flight, and a second Run
// call while one is active is rejected synchronously with ErrAlreadyRunning
// instead of being queued. The run operates on an immutable snapshot taken
// at start, so graph edits made while the service call is in flight do not
// affect the outcome.
//
// Example:
//
//	store := workflow.NewStore()
//	// ... build the graph ...
//	runner := engine.New(store)
//	if _, err := runner.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
package engine

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/flowdeck/flowdeck/providers/ai"
	"github.com/flowdeck/flowdeck/providers/ai/groq"
	"github.com/flowdeck/flowdeck/providers/ai/openai"
	"github.com/flowdeck/flowdeck/providers/observability"
	slogobs "github.com/flowdeck/flowdeck/providers/observability/slog"
	"github.com/flowdeck/flowdeck/workflow"
)

// Status is the engine's run state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ErrAlreadyRunning is returned by Run when a run is already in flight.
var ErrAlreadyRunning = errors.New("a run is already in progress")

// RunError carries the human-readable failure message of a settled run.
// For service failures with a structured error payload the message is the
// service's error text verbatim.
type RunError struct {
	Message string
}

func (runError *RunError) Error() string {
	return runError.Message
}

// ClientFactory builds a generation client for a generator's configuration.
// Tests inject factories returning mocks; the default picks a real client
// from the model name.
type ClientFactory func(config workflow.GeneratorConfig) ai.Provider

// DefaultClientFactory routes gpt-prefixed models to the OpenAI client and
// everything else to the Groq client, both pointed at the generator's
// endpoint and credential.
func DefaultClientFactory(config workflow.GeneratorConfig) ai.Provider {
	var client ai.Provider
	if strings.Contains(config.Model, "gpt") {
		client = openai.New()
	} else {
		client = groq.New()
	}
	return client.WithAPIKey(config.APIKey).WithBaseURL(config.Endpoint)
}

// Engine executes a workflow store's graph. Construct with New; the zero
// value is not usable.
type Engine struct {
	store         *workflow.Store
	notifier      Notifier
	clientFactory ClientFactory
	observer      observability.Provider

	mu        sync.Mutex
	status    Status
	lastError *RunError
	lastRunID string
}

// New creates an engine over the given store with the default client
// factory and an slog-backed observer.
func New(store *workflow.Store) *Engine {
	return &Engine{
		store:         store,
		clientFactory: DefaultClientFactory,
		observer:      slogobs.New(nil),
		status:        StatusIdle,
	}
}

// WithNotifier sets the sink receiving run outcome notifications.
func (engine *Engine) WithNotifier(notifier Notifier) *Engine {
	engine.notifier = notifier
	return engine
}

// WithClientFactory replaces the generation client factory.
func (engine *Engine) WithClientFactory(factory ClientFactory) *Engine {
	if factory != nil {
		engine.clientFactory = factory
	}
	return engine
}

// WithObservability replaces the observer.
func (engine *Engine) WithObservability(observer observability.Provider) *Engine {
	if observer != nil {
		engine.observer = observer
	}
	return engine
}

// Status returns the engine's current state.
func (engine *Engine) Status() Status {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.status
}

// LastError returns the failure of the most recently settled run, or nil.
func (engine *Engine) LastError() *RunError {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.lastError
}

// LastRunID returns the ID of the most recently started run.
func (engine *Engine) LastRunID() string {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.lastRunID
}

// Acknowledge returns a settled engine to Idle. The alert layer calls it
// when the outcome notification is dismissed. It has no effect while a run
// is in flight.
func (engine *Engine) Acknowledge() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.status == StatusSucceeded || engine.status == StatusFailed {
		engine.status = StatusIdle
	}
}

// Run executes the store's current graph and returns the run ID. A non-nil
// error is either ErrAlreadyRunning or a *RunError describing why the run
// failed; on failure the error message has already been pushed to the
// notifier. The generated text is written into every reachable output
// node's result.
func (engine *Engine) Run(ctx context.Context) (string, error) {
	engine.mu.Lock()
	if engine.status == StatusRunning {
		engine.mu.Unlock()
		return "", ErrAlreadyRunning
	}
	runID := uuid.NewString()
	engine.status = StatusRunning
	engine.lastError = nil
	engine.lastRunID = runID
	engine.mu.Unlock()

	ctx, span := engine.observer.StartSpan(ctx, "workflow.run",
		observability.String(observability.AttrRunID, runID))
	defer span.End()

	graph := engine.store.Snapshot()

	if reasons := workflow.Validate(graph); len(reasons) > 0 {
		return runID, engine.fail(ctx, span, runID, strings.Join(reasons, "; "))
	}

	input := graph.NodesOfType(workflow.NodeTypeInput)[0]
	generators := workflow.PathGenerators(graph, input.ID)
	active := generators[0]
	outputs := workflow.ReachableOutputs(graph, active.ID)
	config := *active.Generator

	span.SetAttributes(
		observability.String(observability.AttrNodeID, active.ID),
		observability.String(observability.AttrModel, config.Model),
		observability.String(observability.AttrEndpoint, config.Endpoint),
		observability.Float64(observability.AttrTemperature, config.Temperature),
		observability.Int(observability.AttrMaxTokens, config.MaxTokens),
	)
	engine.observer.Info(ctx, "Run started",
		observability.String(observability.AttrRunID, runID),
		observability.String(observability.AttrModel, config.Model))

	client := engine.clientFactory(config)
	response, err := client.Complete(ctx, ai.ChatRequest{
		Model: config.Model,
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: input.Input.Text},
		},
		Temperature: config.Temperature,
		MaxTokens:   config.MaxTokens,
	})
	if err != nil {
		span.RecordError(err)
		return runID, engine.fail(ctx, span, runID, failureMessage(err))
	}

	if strings.TrimSpace(response.Content) == "" {
		return runID, engine.fail(ctx, span, runID, "no output generated from the model")
	}

	for _, outputID := range outputs {
		// The snapshot guarantees the output existed at run start; a
		// concurrent removal makes the write a no-op, which is fine.
		_ = engine.store.UpdateConfig(outputID, workflow.ConfigPatch{
			Result: &response.Content,
		})
	}

	engine.succeed(ctx, span, runID)
	return runID, nil
}

// failureMessage prefers the service's structured error message and falls
// back to the raw transport error text.
func failureMessage(err error) string {
	var serviceError *ai.ServiceError
	if errors.As(err, &serviceError) && serviceError.Message != "" {
		return serviceError.Message
	}
	return err.Error()
}

func (engine *Engine) succeed(ctx context.Context, span observability.Span, runID string) {
	engine.mu.Lock()
	engine.status = StatusSucceeded
	engine.mu.Unlock()

	span.SetAttributes(observability.String(observability.AttrRunStatus, "succeeded"))
	engine.observer.Info(ctx, "Run succeeded",
		observability.String(observability.AttrRunID, runID))

	engine.notify(Notification{
		Kind:    NotificationSuccess,
		Message: "The workflow has been executed successfully.",
		RunID:   runID,
	})
}

func (engine *Engine) fail(ctx context.Context, span observability.Span, runID string, message string) error {
	runError := &RunError{Message: message}

	engine.mu.Lock()
	engine.status = StatusFailed
	engine.lastError = runError
	engine.mu.Unlock()

	span.SetAttributes(observability.String(observability.AttrRunStatus, "failed"))
	engine.observer.Error(ctx, "Run failed",
		observability.String(observability.AttrRunID, runID),
		observability.String("run.error", message))

	engine.notify(Notification{
		Kind:    NotificationError,
		Message: message,
		RunID:   runID,
	})

	return runError
}

func (engine *Engine) notify(notification Notification) {
	if engine.notifier != nil {
		engine.notifier.Notify(notification)
	}
}
