package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/soochol/aihub/internal/hub"
	"github.com/soochol/aihub/internal/registry"
)

const supervisorSystemPrompt = `You are a customer service agent for an online retail store.
Answer using ONLY the context provided. Be concise and friendly.
If the context does not contain the answer, say so and offer to connect the customer with a human agent.`

func (d *Deps) supervisorFamily() *registry.Family {
	return &registry.Family{
		Name:        "supervisor",
		Title:       "Customer Support",
		Description: "Customer service chatbot: intent detection, data enrichment, grounded answers",
		Stages: []registry.StageDescriptor{
			{
				Name:  "classify",
				Label: "Intent Detection",
				Kind:  hub.KindAutomatic,
				Logic: d.supervisorClassify,
			},
			{
				Name:  "enrich",
				Label: "Context Enrichment",
				Kind:  hub.KindAutomatic,
				Logic: d.supervisorEnrich,
			},
			{
				Name:  "respond",
				Label: "Response",
				Kind:  hub.KindAutomatic,
				Logic: d.supervisorRespond,
			},
		},
		Respond: func(state *hub.WorkflowState) string {
			return outString(state, "respond", "content")
		},
	}
}

func (d *Deps) supervisorClassify(ctx context.Context, state *hub.WorkflowState) (*registry.StageResult, error) {
	message := requestMessage(state)

	intent := "general"
	switch {
	case containsAny(message, "order", "delivery", "shipped", "arrive", "tracking", "where is"):
		intent = "order_status"
	case containsAny(message, "return", "refund", "exchange", "send back"):
		intent = "returns"
	case containsAny(message, "cancel"):
		intent = "cancellation"
	case containsAny(message, "product", "warranty", "stock", "price", "headphone", "watch", "speaker", "laptop"):
		intent = "product_info"
	case containsAny(message, "payment", "charge", "billing", "invoice", "card"):
		intent = "payment"
	case containsAny(message, "complaint", "terrible", "awful", "angry", "disappointed", "broken"):
		intent = "complaint"
	case containsAny(message, "account", "password", "login", "email address"):
		intent = "account"
	case containsAny(message, "manager", "human", "speak to someone", "escalate"):
		intent = "escalation"
	}

	out := map[string]any{"intent": intent}
	return &registry.StageResult{Output: out, Summary: intent}, nil
}

// supervisorEnrich pulls the records the intent needs: orders and customer
// profiles mentioned in the message, products by keyword, and the FAQ entry
// for the intent topic.
func (d *Deps) supervisorEnrich(ctx context.Context, state *hub.WorkflowState) (*registry.StageResult, error) {
	message := requestMessage(state)
	intent := outString(state, "classify", "intent")

	var sections []string

	orders := d.Catalog.OrdersMentioned(message)
	var orderIDs []string
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		line := fmt.Sprintf("Order %s: %s, items %s, total %s, ordered %s",
			o.ID, o.Status, strings.Join(o.Items, " + "), o.Total, o.Date)
		if o.ETA != "" {
			line += ", ETA " + o.ETA
		}
		sections = append(sections, line)
		if c, ok := d.Catalog.CustomerByID(o.CustomerID); ok {
			sections = append(sections, fmt.Sprintf("Customer %s: %s, %s tier, member since %s",
				c.ID, c.Name, c.Tier, c.Since))
		}
	}

	products := d.Catalog.ProductsMentioned(message)
	var productIDs []string
	for _, p := range products {
		productIDs = append(productIDs, p.ID)
		sections = append(sections, fmt.Sprintf("Product %s (%s): price %s, stock %s, warranty %s",
			p.Name, p.ID, p.Price, p.Stock, p.Warranty))
	}

	faqTopics := map[string]string{
		"order_status": "tracking",
		"returns":      "returns",
		"cancellation": "cancel",
		"product_info": "warranty",
		"payment":      "payment",
		"complaint":    "contact",
		"account":      "contact",
		"escalation":   "contact",
		"general":      "shipping",
	}
	faqUsed := ""
	if topic, ok := faqTopics[intent]; ok {
		if answer, found := d.Catalog.FAQ(topic); found {
			faqUsed = topic
			sections = append(sections, fmt.Sprintf("FAQ (%s): %s", topic, answer))
		}
	}

	out := map[string]any{
		"context":  strings.Join(sections, "\n"),
		"orders":   orderIDs,
		"products": productIDs,
		"faq":      faqUsed,
	}
	summary := fmt.Sprintf("%d order(s), %d product(s)", len(orderIDs), len(productIDs))
	return &registry.StageResult{Output: out, Summary: summary}, nil
}

func (d *Deps) supervisorRespond(ctx context.Context, state *hub.WorkflowState) (*registry.StageResult, error) {
	message := requestMessage(state)
	intent := outString(state, "classify", "intent")
	enriched := outString(state, "enrich", "context")

	prompt := fmt.Sprintf("Customer message: %s\n\nDetected intent: %s\n\nContext:\n%s", message, intent, enriched)
	answer := d.generate(ctx, supervisorSystemPrompt, prompt, supervisorFallback(intent, enriched))

	out := map[string]any{"content": answer}
	return &registry.StageResult{Output: out, Summary: "response assembled"}, nil
}

// supervisorFallback produces a usable answer without a text model by
// echoing the enriched records back to the customer.
func supervisorFallback(intent, enriched string) string {
	var b strings.Builder
	if enriched != "" {
		fmt.Fprintf(&b, "Here is what I found:\n\n")
		for _, line := range strings.Split(enriched, "\n") {
			fmt.Fprintf(&b, "- %s\n", line)
		}
		b.WriteString("\n")
	}
	switch intent {
	case "escalation", "complaint":
		b.WriteString("I'm sorry about the trouble. I've flagged this conversation for a human agent who will reach out shortly.")
	case "general":
		b.WriteString("Is there anything else I can help you with? I can look up orders, products, returns, and payments.")
	default:
		b.WriteString("Let me know if you need anything else.")
	}
	return b.String()
}
