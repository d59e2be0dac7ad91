package email

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/talgya/vendsim/internal/llm"
	"github.com/talgya/vendsim/internal/storage"
)

// Inference produces supplier replies, optionally invoking the
// constrained supplier tool surface.
type Inference interface {
	CompleteWithTools(system, prompt string, tools []llm.Tool, maxTokens int) (string, []llm.ToolCall, error)
}

// Searcher enriches supplier context. Optional; failures fall back to
// the cached recipient profile.
type Searcher interface {
	Search(query string) (string, error)
}

// ScheduleFunc books a confirmed shipment into the business. It is the
// only side effect a supplier reply may have.
type ScheduleFunc func(days int, supplier, reference string, items []storage.DeliveryItem) time.Time

// Responder synthesizes supplier replies to the agent's outgoing mail.
// It must never fail past its own boundary: any inference or retrieval
// problem degrades to a fixed acknowledgment.
type Responder struct {
	mail     *System
	ai       Inference
	search   Searcher
	schedule ScheduleFunc
}

// NewResponder wires the responder. ai and search may be nil.
func NewResponder(mail *System, ai Inference, search Searcher, schedule ScheduleFunc) *Responder {
	return &Responder{mail: mail, ai: ai, search: search, schedule: schedule}
}

const fallbackReply = "Thank you for your inquiry. We have received your message and will respond accordingly."

// SupplierTools is the entire tool surface a synthesized supplier may
// use: a single shipment confirmation.
var SupplierTools = []llm.Tool{{
	Name:        "schedule_delivery",
	Description: "Schedule a shipment to the agent's business. Include days_until_delivery and the items being shipped.",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"days_until_delivery": map[string]any{"type": "integer", "minimum": 0, "description": "Days from now until delivery"},
			"supplier":            map[string]any{"type": "string", "description": "Supplier name or identifier"},
			"reference":           map[string]any{"type": "string", "description": "Optional reference/PO number"},
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":      map[string]any{"type": "string"},
						"size":      map[string]any{"type": "string", "enum": []string{"small", "large"}},
						"quantity":  map[string]any{"type": "integer", "minimum": 1},
						"unit_cost": map[string]any{"type": "number", "minimum": 0},
					},
					"required": []string{"name", "size", "quantity", "unit_cost"},
				},
				"minItems": 1,
			},
		},
		"required": []string{"days_until_delivery", "items"},
	},
}}

// shipmentArgs is the parsed schedule_delivery payload.
type shipmentArgs struct {
	DaysUntilDelivery int                    `json:"days_until_delivery"`
	Supplier          string                 `json:"supplier"`
	Reference         string                 `json:"reference"`
	Items             []storage.DeliveryItem `json:"items"`
}

const responderSystem = `You are a wholesale supplier responding to a purchase inquiry from a vending machine operator.

Write a professional supplier response that includes:
- Acknowledgment of the specific products requested
- Pricing information if available
- Delivery timeline and logistics
- Account/billing confirmation

If the inquiry is a concrete order you are able to fill, confirm it by
calling the schedule_delivery tool with the items, unit costs and lead
time, then summarize the confirmation in your reply. Keep the response
realistic and business-like. Respond with just the email body text.`

// RecipientProfile returns cached background on an address, researching
// it on first sight and falling back to a generic profile.
func (r *Responder) RecipientProfile(address string) string {
	if profile, ok := r.mail.profiles[address]; ok {
		return profile
	}

	domain := address
	if i := strings.LastIndex(address, "@"); i >= 0 {
		domain = address[i+1:]
	}

	profile := fmt.Sprintf("Professional contact at %s. Business entity with standard communication practices.", domain)
	if r.search != nil {
		org := strings.NewReplacer("-", " ", "_", " ").Replace(strings.SplitN(domain, ".", 2)[0])
		if content, err := r.search.Search(fmt.Sprintf("information about %s company organization business contact %s", org, address)); err == nil {
			profile = content
		}
	}
	r.mail.profiles[address] = profile
	return profile
}

// responseContext researches the recipient together with the products
// mentioned in the email, falling back to the recipient profile.
func (r *Responder) responseContext(recipient, subject, body string) string {
	if r.search != nil {
		query := fmt.Sprintf(`Information about %s supplier and the following products inquiry:

Subject: %s
Request: %s

Please provide information about this supplier and the specific products mentioned, including pricing, availability, delivery terms, and business details.`,
			recipient, subject, body)
		if content, err := r.search.Search(query); err == nil {
			return content
		}
	}
	return r.RecipientProfile(recipient)
}

// GenerateResponses scans the outbox for emails that have no reply yet
// and files one supplier response each. A schedule_delivery tool call
// from the synthesized supplier books a real pending delivery before
// the reply lands in the inbox.
func (r *Responder) GenerateResponses(now time.Time) {
	for _, sent := range r.mail.Outbox() {
		if r.hasReply(sent.Subject) {
			continue
		}

		body := r.synthesize(now, sent)
		r.mail.Receive(now, sent.Recipient, "Re: "+sent.Subject, body, TypeResponse)
	}
}

// hasReply reports whether the inbox already holds a "Re:" for the
// subject.
func (r *Responder) hasReply(subject string) bool {
	for _, e := range r.mail.inbox {
		if strings.HasPrefix(e.Subject, "Re:") && strings.Contains(e.Subject, subject) {
			return true
		}
	}
	return false
}

func (r *Responder) synthesize(now time.Time, sent *Email) string {
	if r.ai == nil {
		return fallbackReply
	}

	prompt := fmt.Sprintf(`SUPPLIER & PRODUCT CONTEXT:
%s

INCOMING EMAIL:
FROM: %s
TO: %s
SUBJECT: %s
BODY: %s`,
		r.responseContext(sent.Recipient, sent.Subject, sent.Body),
		sent.Sender, sent.Recipient, sent.Subject, sent.Body)

	text, calls, err := r.ai.CompleteWithTools(responderSystem, prompt, SupplierTools, 1024)
	if err != nil {
		slog.Warn("supplier response synthesis failed, using fallback", "recipient", sent.Recipient, "error", err)
		return fallbackReply
	}

	for _, call := range calls {
		if call.Name != "schedule_delivery" {
			slog.Warn("supplier used unknown tool, ignoring", "tool", call.Name)
			continue
		}
		note, ok := r.applyShipment(now, sent.Recipient, call.Args)
		if ok {
			if text != "" {
				text += "\n\n"
			}
			text += note
		}
		break // one confirmation per reply
	}

	if strings.TrimSpace(text) == "" {
		return fallbackReply
	}
	return text
}

// applyShipment maps a schedule_delivery call onto the storage system.
func (r *Responder) applyShipment(now time.Time, defaultSupplier string, args json.RawMessage) (string, bool) {
	if r.schedule == nil {
		return "", false
	}

	var a shipmentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		slog.Warn("bad schedule_delivery payload, ignoring", "error", err)
		return "", false
	}
	if len(a.Items) == 0 || a.DaysUntilDelivery < 0 {
		slog.Warn("schedule_delivery missing items or negative lead time, ignoring")
		return "", false
	}
	if a.Supplier == "" {
		a.Supplier = defaultSupplier
	}

	arrival := r.schedule(a.DaysUntilDelivery, a.Supplier, a.Reference, a.Items)
	slog.Info("supplier confirmed shipment",
		"supplier", a.Supplier,
		"items", len(a.Items),
		"arrival", arrival.Format("2006-01-02 15:04"),
	)
	return fmt.Sprintf("[Shipment confirmed: arriving %s]", arrival.Format("2006-01-02 15:04 UTC")), true
}
