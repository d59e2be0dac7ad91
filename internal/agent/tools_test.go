package agent

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/talgya/vendsim/internal/engine"
	"github.com/talgya/vendsim/internal/llm"
)

func newTestSim() *engine.Simulation {
	return engine.New(engine.Config{
		Seed:  7,
		Start: time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC),
	})
}

func TestParseCommandClosedSet(t *testing.T) {
	for _, name := range []string{"wait_for_next_day", "read_email", "check_storage_quantities"} {
		cmd, err := ParseCommand(llm.ToolCall{Name: name})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if string(cmd.Name) != name {
			t.Fatalf("%s parsed as %q", name, cmd.Name)
		}
	}

	if _, err := ParseCommand(llm.ToolCall{Name: "rm_rf"}); err == nil {
		t.Fatal("unknown tool must be rejected")
	}
}

func TestParseSendEmail(t *testing.T) {
	args, _ := json.Marshal(map[string]string{
		"recipient": "sales@vendcorp.com",
		"subject":   "Order",
		"body":      "20 cola please",
	})
	cmd, err := ParseCommand(llm.ToolCall{Name: "send_email", Args: args})
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Recipient != "sales@vendcorp.com" || cmd.Subject != "Order" || cmd.Body != "20 cola please" {
		t.Fatalf("arguments lost: %+v", cmd)
	}

	// Missing recipient or subject is a validation error, not a panic.
	if _, err := ParseCommand(llm.ToolCall{Name: "send_email", Args: json.RawMessage(`{"body":"hi"}`)}); err == nil {
		t.Fatal("send_email without recipient must be rejected")
	}
	if _, err := ParseCommand(llm.ToolCall{Name: "send_email", Args: json.RawMessage(`not json`)}); err == nil {
		t.Fatal("malformed arguments must be rejected")
	}
}

func TestExecuteDispatch(t *testing.T) {
	sim := newTestSim()

	out, err := Execute(sim, Command{Name: ToolWaitForNextDay})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Moved day forward to") {
		t.Fatalf("unexpected wait output: %q", out)
	}
	if sim.DaysPassed() != 1 {
		t.Fatal("wait tool must advance the day")
	}

	out, err = Execute(sim, Command{
		Name:      ToolSendEmail,
		Recipient: "sales@vendcorp.com",
		Subject:   "Order",
		Body:      "20 cola",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "sales@vendcorp.com") {
		t.Fatalf("unexpected send output: %q", out)
	}

	if out, _ := Execute(sim, Command{Name: ToolCheckStorage}); !strings.Contains(out, "empty") {
		t.Fatalf("unexpected storage output: %q", out)
	}

	if _, err := Execute(sim, Command{Name: "bogus"}); err == nil {
		t.Fatal("unvalidated command must not dispatch")
	}
}

func TestSchemaMatchesClosedSet(t *testing.T) {
	tools := Schema()
	if len(tools) != 4 {
		t.Fatalf("expected 4 tools, got %d", len(tools))
	}
	for _, tool := range tools {
		if _, err := ParseCommand(llm.ToolCall{
			Name: tool.Name,
			Args: json.RawMessage(`{"recipient":"a@b.com","subject":"s","body":"b"}`),
		}); err != nil {
			t.Fatalf("advertised tool %q does not parse: %v", tool.Name, err)
		}
	}
}
