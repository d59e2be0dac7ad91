// Package agent drives the simulation one model turn at a time: build a
// bounded prompt, accept at most one tool call, dispatch it, record the
// exchange.
package agent

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/talgya/vendsim/internal/engine"
	"github.com/talgya/vendsim/internal/llm"
)

const systemPrompt = `You are an autonomous vending machine operator. You are given a vending machine and you need to sell items to the customers. Your goal is to make money over time.`

const loopPrompt = "Continue on your mission by using your tools"

// Inference is the model behind the loop.
type Inference interface {
	CompleteWithTools(system, prompt string, tools []llm.Tool, maxTokens int) (string, []llm.ToolCall, error)
}

// BudgetFunc estimates the token cost of a context entry. The loop only
// cares that the estimate is monotone in length.
type BudgetFunc func(text string) int

// DefaultBudget approximates four characters per token.
func DefaultBudget(text string) int {
	return len(text) / 4
}

// Entry is one turn in the conversation history.
type Entry struct {
	Role      string
	Content   string
	Timestamp time.Time
}

type windowEntry struct {
	text   string
	tokens int
}

// Loop runs the agent against a simulation.
type Loop struct {
	sim      *engine.Simulation
	ai       Inference
	budget   int
	estimate BudgetFunc

	window       []windowEntry
	windowTokens int

	// History is the full transcript, unbounded.
	History []Entry
}

// NewLoop creates an action loop with the given context token budget.
func NewLoop(sim *engine.Simulation, ai Inference, contextTokens int) *Loop {
	if contextTokens <= 0 {
		contextTokens = 30000
	}
	return &Loop{
		sim:      sim,
		ai:       ai,
		budget:   contextTokens,
		estimate: DefaultBudget,
	}
}

// SetBudgetFunc replaces the token estimator.
func (l *Loop) SetBudgetFunc(fn BudgetFunc) {
	if fn != nil {
		l.estimate = fn
	}
}

// WindowSize returns the entries currently in the sliding window.
func (l *Loop) WindowSize() int { return len(l.window) }

// WindowTokens returns the estimated tokens in the sliding window.
func (l *Loop) WindowTokens() int { return l.windowTokens }

// push adds an entry to history and the sliding window, evicting the
// oldest window entries once the budget is exceeded.
func (l *Loop) push(role, content string) {
	l.History = append(l.History, Entry{Role: role, Content: content, Timestamp: l.sim.Now()})

	text := strings.ToUpper(role) + ": " + content
	tokens := l.estimate(text)
	l.window = append(l.window, windowEntry{text: text, tokens: tokens})
	l.windowTokens += tokens

	for l.windowTokens > l.budget && len(l.window) > 0 {
		oldest := l.window[0]
		l.window = l.window[1:]
		l.windowTokens -= oldest.tokens
	}
}

// buildPrompt assembles system prompt, day report context, the sliding
// window and the loop prompt.
func (l *Loop) buildPrompt() string {
	parts := []string{}
	if ctx := l.sim.LastReport(); ctx != "" {
		parts = append(parts, "CONTEXT: "+ctx)
	}
	if len(l.window) > 0 {
		lines := make([]string, 0, len(l.window))
		for _, e := range l.window {
			lines = append(lines, e.text)
		}
		parts = append(parts, "CONVERSATION HISTORY:\n"+strings.Join(lines, "\n"))
	}
	parts = append(parts, "USER: "+loopPrompt)
	return strings.Join(parts, "\n\n")
}

// Tick runs one agent turn. The returned string is the visible response
// including any tool annotation. An error means inference itself failed
// and the caller should stop the run.
func (l *Loop) Tick() (string, error) {
	prompt := l.buildPrompt()
	l.push("user", loopPrompt)

	text, calls, err := l.ai.CompleteWithTools(systemPrompt, prompt, Schema(), 1024)
	if err != nil {
		return "", fmt.Errorf("inference: %w", err)
	}

	// Single-tool-per-turn contract: first call wins, the rest are
	// logged and ignored.
	if len(calls) > 1 {
		for _, extra := range calls[1:] {
			slog.Warn("extra tool call ignored", "tool", extra.Name)
		}
	}

	response := text
	if len(calls) > 0 {
		response += l.runTool(calls[0])
	}

	l.push("assistant", response)
	return response, nil
}

// runTool parses, dispatches and annotates a single tool call. Tool
// failures are reported into the transcript, never up the stack.
func (l *Loop) runTool(call llm.ToolCall) string {
	cmd, err := ParseCommand(call)
	if err != nil {
		slog.Warn("rejected tool call", "tool", call.Name, "error", err)
		return fmt.Sprintf("\n\n[Tool error: %s - %v]", call.Name, err)
	}

	slog.Info("executing tool", "tool", cmd.Name)
	result, err := Execute(l.sim, cmd)
	if err != nil {
		return fmt.Sprintf("\n\n[Tool error: %s - %v]", cmd.Name, err)
	}
	return fmt.Sprintf("\n\n[Tool executed: %s - %s]", cmd.Name, result)
}

// Run executes up to maxActions turns, stopping early on inference
// failure. Returns the number of completed turns.
func (l *Loop) Run(maxActions int) (int, error) {
	for i := 0; i < maxActions; i++ {
		if _, err := l.Tick(); err != nil {
			slog.Error("agent loop aborted", "turn", i, "error", err)
			return i, err
		}
	}
	return maxActions, nil
}
