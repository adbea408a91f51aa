package agent

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/smithers-ai/smithers/internal/log"
)

// FallbackResponseMessage is returned when the decision function produces a
// final response with no text.
const FallbackResponseMessage = "I apologize, but I couldn't generate a response. Please try rephrasing your question."

const (
	defaultMaxIterations   = 5
	defaultDecisionTimeout = 30 * time.Second
	defaultToolTimeout     = 10 * time.Second
)

// Config holds Runner dependencies and tuning knobs.
type Config struct {
	Decider  Decider    // Required: chooses respond vs invoke
	Tools    ToolSource // Required: resolves and describes tools
	Sessions Sessions   // Required: conversation store
	Logger   log.Logger // Required

	// MaxIterations bounds decision/execute cycles per turn (default: 5).
	MaxIterations int
	// DecisionTimeout bounds each individual decision attempt (default: 30s).
	DecisionTimeout time.Duration
	// ToolTimeout bounds each individual tool execution (default: 10s).
	ToolTimeout time.Duration

	// Retry configures backoff around transient decision failures.
	Retry RetryConfig
	// CircuitBreaker configures the breaker guarding the decision service.
	CircuitBreaker CircuitBreakerConfig
	// RateLimiter optionally throttles decision attempts (nil = unlimited).
	RateLimiter *rate.Limiter
}

func (c *Config) validate() error {
	if c.Decider == nil {
		return errors.New("decider is required")
	}
	if c.Tools == nil {
		return errors.New("tool source is required")
	}
	if c.Sessions == nil {
		return errors.New("session store is required")
	}
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Runner drives the bounded decision/execute loop for conversation turns.
// A Runner is safe for concurrent use; per-session serialization is
// delegated to the Sessions store.
type Runner struct {
	decider  Decider
	tools    ToolSource
	sessions Sessions
	logger   log.Logger

	maxIterations   int
	decisionTimeout time.Duration
	toolTimeout     time.Duration

	retryConfig RetryConfig
	breaker     *CircuitBreaker
	rateLimiter *rate.Limiter
}

// New creates a Runner from cfg, applying defaults for zero tuning values.
func New(cfg Config) (*Runner, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid runner config: %w", err)
	}

	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if cfg.DecisionTimeout <= 0 {
		cfg.DecisionTimeout = defaultDecisionTimeout
	}
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = defaultToolTimeout
	}
	if cfg.Retry == (RetryConfig{}) {
		cfg.Retry = DefaultRetryConfig()
	}

	return &Runner{
		decider:         cfg.Decider,
		tools:           cfg.Tools,
		sessions:        cfg.Sessions,
		logger:          cfg.Logger,
		maxIterations:   cfg.MaxIterations,
		decisionTimeout: cfg.DecisionTimeout,
		toolTimeout:     cfg.ToolTimeout,
		retryConfig:     cfg.Retry,
		breaker:         NewCircuitBreaker(cfg.CircuitBreaker),
		rateLimiter:     cfg.RateLimiter,
	}, nil
}

// RunTurn executes one complete conversation turn and returns the final
// response text. On error nothing is committed to the session: a later
// retry of the same message sees the history exactly as before this call.
func (r *Runner) RunTurn(ctx context.Context, sessionID, message string) (string, error) {
	return r.run(ctx, sessionID, message, nil)
}

// Stream executes one conversation turn, yielding events as they happen.
// The final EventDone carries the complete response text, equal to the
// concatenation of all EventChunk texts. If the consumer stops iterating,
// the turn is abandoned and nothing is committed. A terminal error is
// yielded as the last element with a zero Event.
func (r *Runner) Stream(ctx context.Context, sessionID, message string) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		emit := func(ev Event) error {
			if !yield(ev, nil) {
				return errStreamClosed
			}
			return nil
		}
		if _, err := r.run(ctx, sessionID, message, emit); err != nil {
			if errors.Is(err, errStreamClosed) {
				return
			}
			yield(Event{}, err)
		}
	}
}

// run is the shared turn loop behind RunTurn and Stream. emit is nil for
// the complete-response path. New turns accumulate in a pending batch and
// reach the session store in a single Append only when the turn completes,
// so a failed turn leaves no trace.
func (r *Runner) run(ctx context.Context, sessionID, message string, emit func(Event) error) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	if err := r.sessions.BeginTurn(sessionID); err != nil {
		return "", fmt.Errorf("begin turn: %w", err)
	}
	defer r.sessions.EndTurn(sessionID)

	userTurn := NewUserTurn(message)
	working := append(r.sessions.History(sessionID), userTurn)
	pending := []Turn{userTurn}
	tools := r.tools.Describe()

	var cb ChunkCallback
	if emit != nil {
		cb = func(ctx context.Context, text string) error {
			return emit(chunkEvent(text))
		}
	}

	state := StateAwaitingDecision
	for iteration := 1; iteration <= r.maxIterations; iteration++ {
		r.logger.Debug("agent loop iteration",
			"session_id", sessionID,
			"iteration", iteration,
			"state", state,
			"history_len", len(working),
		)

		decision, err := r.decide(ctx, working, tools, cb)
		if err != nil {
			r.logger.Debug("turn failed", "session_id", sessionID, "state", StateFailed)
			return "", err
		}

		if decision.Terminal() {
			state = StateDone
			text := decision.Text
			if strings.TrimSpace(text) == "" {
				r.logger.Warn("blank final response, using fallback", "session_id", sessionID)
				text = FallbackResponseMessage
			}
			pending = append(pending, NewAssistantTurn(text))
			r.sessions.Append(sessionID, pending...)
			if emit != nil {
				if err := emit(doneEvent(text)); err != nil {
					return text, err
				}
			}
			return text, nil
		}

		state = StateExecutingTools
		r.logger.Info("executing tool batch",
			"session_id", sessionID,
			"iteration", iteration,
			"calls", len(decision.Calls),
		)

		if emit != nil {
			for _, call := range decision.Calls {
				if err := emit(toolStartEvent(call)); err != nil {
					return "", err
				}
			}
		}

		results := r.executeBatch(ctx, decision.Calls)

		for i, call := range decision.Calls {
			if emit != nil {
				if err := emit(toolResultEvent(results[i])); err != nil {
					return "", err
				}
			}
			callTurn := NewCallTurn(call)
			resultTurn := NewResultTurn(results[i])
			working = append(working, callTurn, resultTurn)
			pending = append(pending, callTurn, resultTurn)
		}
		state = StateAwaitingDecision
	}

	r.logger.Warn("iteration limit exceeded",
		"session_id", sessionID,
		"max_iterations", r.maxIterations,
	)
	return "", ErrIterationLimit
}

// decide runs one guarded decision: circuit breaker, then retry with
// backoff, then error classification. Consumer-side stream closure passes
// through untouched so the loop can abandon the turn quietly.
func (r *Runner) decide(ctx context.Context, history []Turn, tools []ToolInfo, cb ChunkCallback) (Decision, error) {
	if err := r.breaker.Allow(); err != nil {
		return Decision{}, fmt.Errorf("%w: %w", ErrDecision, err)
	}

	decision, err := r.decideWithRetry(ctx, history, tools, cb)
	if err != nil {
		if errors.Is(err, errStreamClosed) {
			// The consumer went away; the decision service is not at fault.
			return Decision{}, err
		}
		r.breaker.Failure()
		if errors.Is(err, context.DeadlineExceeded) {
			return Decision{}, fmt.Errorf("%w: %w", ErrDecisionTimeout, err)
		}
		return Decision{}, fmt.Errorf("%w: %w", ErrDecision, err)
	}
	r.breaker.Success()
	return decision, nil
}

// executeBatch runs all calls concurrently and returns results indexed by
// issue order, regardless of completion order. Failures never short-circuit
// sibling calls; each slot always holds a result.
func (r *Runner) executeBatch(ctx context.Context, calls []ToolCall) []ToolResult {
	results := make([]ToolResult, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = r.runTool(gctx, call)
			return nil
		})
	}
	// Workers never return errors, so Wait only synchronizes. On
	// cancellation each in-flight tool observes gctx and winds down
	// before Wait releases.
	_ = g.Wait()

	return results
}

// runTool executes a single call and folds every failure mode into a
// ToolResult the decision function can read on the next iteration.
func (r *Runner) runTool(ctx context.Context, call ToolCall) ToolResult {
	exec, err := r.tools.Resolve(call.Name)
	if err != nil {
		r.logger.Warn("tool not found", "tool", call.Name, "ref", call.Ref)
		return ToolResult{
			Ref:  call.Ref,
			Name: call.Name,
			Err:  &ToolError{Code: CodeUnknownTool, Message: fmt.Sprintf("tool %q is not registered", call.Name)},
		}
	}

	toolCtx, cancel := context.WithTimeout(ctx, r.toolTimeout)
	defer cancel()

	start := time.Now()
	output, err := exec.Execute(toolCtx, call.Input)
	elapsed := time.Since(start)

	if err != nil {
		code := CodeExecution
		if errors.Is(err, context.DeadlineExceeded) {
			code = CodeTimeout
		}
		r.logger.Warn("tool execution failed",
			"tool", call.Name,
			"ref", call.Ref,
			"code", code,
			"elapsed", elapsed,
			"error", err,
		)
		return ToolResult{
			Ref:  call.Ref,
			Name: call.Name,
			Err:  &ToolError{Code: code, Message: err.Error()},
		}
	}

	r.logger.Debug("tool executed",
		"tool", call.Name,
		"ref", call.Ref,
		"elapsed", elapsed,
	)
	return ToolResult{
		Ref:    call.Ref,
		Name:   call.Name,
		OK:     true,
		Output: output,
	}
}
