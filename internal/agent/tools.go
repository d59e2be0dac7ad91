package agent

import (
	"encoding/json"
	"fmt"

	"github.com/talgya/vendsim/internal/engine"
	"github.com/talgya/vendsim/internal/llm"
)

// ToolName identifies one of the agent's tools. The set is closed:
// anything else is rejected as a structured error, never dispatched.
type ToolName string

const (
	ToolWaitForNextDay ToolName = "wait_for_next_day"
	ToolSendEmail      ToolName = "send_email"
	ToolReadEmail      ToolName = "read_email"
	ToolCheckStorage   ToolName = "check_storage_quantities"
)

// Command is a validated tool invocation.
type Command struct {
	Name ToolName

	// send_email arguments; empty for the other tools.
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// ParseCommand validates a raw model tool call against the closed tool
// set and its argument shape.
func ParseCommand(call llm.ToolCall) (Command, error) {
	name := ToolName(call.Name)
	switch name {
	case ToolWaitForNextDay, ToolReadEmail, ToolCheckStorage:
		return Command{Name: name}, nil

	case ToolSendEmail:
		cmd := Command{Name: name}
		if len(call.Args) > 0 {
			if err := json.Unmarshal(call.Args, &cmd); err != nil {
				return Command{}, fmt.Errorf("malformed send_email arguments: %w", err)
			}
		}
		if cmd.Recipient == "" || cmd.Subject == "" {
			return Command{}, fmt.Errorf("send_email requires recipient and subject")
		}
		return cmd, nil

	default:
		return Command{}, fmt.Errorf("unknown tool %q", call.Name)
	}
}

// dispatch is keyed by the same closed set ParseCommand accepts.
var dispatch = map[ToolName]func(*engine.Simulation, Command) string{
	ToolWaitForNextDay: func(s *engine.Simulation, _ Command) string {
		return s.WaitForNextDay()
	},
	ToolSendEmail: func(s *engine.Simulation, c Command) string {
		return s.SendEmail(c.Recipient, c.Subject, c.Body)
	},
	ToolReadEmail: func(s *engine.Simulation, _ Command) string {
		return s.ReadEmail()
	},
	ToolCheckStorage: func(s *engine.Simulation, _ Command) string {
		return s.CheckStorage()
	},
}

// Execute runs a validated command against the simulation.
func Execute(sim *engine.Simulation, cmd Command) (string, error) {
	fn, ok := dispatch[cmd.Name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q", cmd.Name)
	}
	return fn(sim, cmd), nil
}

// Schema is the fixed tool surface presented to the model each turn.
func Schema() []llm.Tool {
	return []llm.Tool{
		{
			Name:        string(ToolWaitForNextDay),
			Description: "Advance simulation time to 6:00 AM of the next day. This will process daily fees, update weather, and provide a new day report.",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{}, "required": []string{}},
		},
		{
			Name:        string(ToolSendEmail),
			Description: "Send an email to a supplier or business contact. Use this to place orders, ask questions, or communicate with vendors.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"recipient": map[string]any{"type": "string", "description": "Email address of the recipient (e.g., 'supplier@vendcorp.com')"},
					"subject":   map[string]any{"type": "string", "description": "Subject line for the email"},
					"body":      map[string]any{"type": "string", "description": "The main content of the email message"},
				},
				"required": []string{"recipient", "subject", "body"},
			},
		},
		{
			Name:        string(ToolReadEmail),
			Description: "Read all unread emails in your inbox. This will show new supplier responses, delivery notifications, and other business correspondence.",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{}, "required": []string{}},
		},
		{
			Name:        string(ToolCheckStorage),
			Description: "Check the current inventory in your backroom storage. Shows all items with quantities, costs, and total values.",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{}, "required": []string{}},
		},
	}
}
