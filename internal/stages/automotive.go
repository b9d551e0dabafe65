package stages

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/soochol/aihub/internal/catalog"
	"github.com/soochol/aihub/internal/hub"
	"github.com/soochol/aihub/internal/registry"
)

// Financing defaults used when the customer does not state figures.
const (
	defaultVehiclePrice = 40000.0
	defaultDownPayment  = 5000.0
	defaultAPR          = 5.9
)

var financingTerms = []int{36, 48, 60, 72}

const automotiveClassifyPrompt = `You are an intent classifier for an automotive dealership.
Classify the customer message into exactly one intent.
Respond with ONLY one word: SEARCH, TEST_DRIVE, FINANCING, SERVICE, or INQUIRY.`

func (d *Deps) automotiveFamily() *registry.Family {
	return &registry.Family{
		Name:        "automotive_sales",
		Title:       "Automotive Sales",
		Description: "Dealership assistant: vehicle search, financing, service booking, test drives",
		Stages: []registry.StageDescriptor{
			{
				Name:  "classify",
				Label: "Intent Classification",
				Kind:  hub.KindAutomatic,
				Logic: d.automotiveClassify,
			},
			{
				Name: "route",
				Kind: hub.KindConditionalFork,
				Branches: []registry.ForkBranch{
					{When: `classify.intent == "search"`, Route: "vehicle_search", Goto: "inventory"},
					{When: `classify.intent == "financing"`, Route: "financing", Goto: "financing"},
					{When: `classify.intent == "service"`, Route: "service", Goto: "service"},
					{When: `classify.intent == "test_drive"`, Route: "test_drive", Goto: "test_drive"},
					{Route: "general_inquiry", Goto: "general"},
				},
			},
			{
				Name:  "inventory",
				Label: "Vehicle Search",
				Kind:  hub.KindAutomatic,
				Logic: d.automotiveSearch,
				Next:  "respond",
			},
			{
				Name:  "financing",
				Label: "Financing Calculation",
				Kind:  hub.KindAutomatic,
				Logic: d.automotiveFinancing,
				Next:  "respond",
			},
			{
				Name:  "service",
				Label: "Service Booking",
				Kind:  hub.KindAutomatic,
				Logic: d.automotiveService,
				Next:  "respond",
			},
			{
				Name:  "test_drive",
				Label: "Test Drive Booking",
				Kind:  hub.KindAutomatic,
				Logic: d.automotiveTestDrive,
				Next:  "respond",
			},
			{
				Name:  "general",
				Label: "General Inquiry",
				Kind:  hub.KindAutomatic,
				Logic: d.automotiveGeneral,
			},
			{
				Name:  "respond",
				Label: "Response",
				Kind:  hub.KindAutomatic,
				Logic: d.automotiveRespond,
			},
		},
		Respond: func(state *hub.WorkflowState) string {
			return outString(state, "respond", "content")
		},
	}
}

// automotiveClassify asks the text model for the intent and falls back to
// keyword matching when no model is configured or the answer is not one of
// the known labels.
func (d *Deps) automotiveClassify(ctx context.Context, state *hub.WorkflowState) (*registry.StageResult, error) {
	message := requestMessage(state)
	fallback := keywordIntent(message)

	answer := d.generate(ctx, automotiveClassifyPrompt, message, fallback)
	intent := normalizeIntent(answer)
	if intent == "" {
		intent = normalizeIntent(fallback)
	}
	if intent == "" {
		intent = "inquiry"
	}

	out := map[string]any{"intent": intent}
	return &registry.StageResult{Output: out, Summary: intent}, nil
}

func keywordIntent(message string) string {
	switch {
	case containsAny(message, "test drive", "test-drive", "try the", "try driving"):
		return "TEST_DRIVE"
	case containsAny(message, "financ", "loan", "monthly payment", "installment", "apr", "interest"):
		return "FINANCING"
	case containsAny(message, "service", "repair", "maintenance", "brake", "oil change", "tire", "battery"):
		return "SERVICE"
	case containsAny(message, "looking for", "buy", "recommend", "suv", "sedan", "in stock", "available", "under $", "price range"):
		return "SEARCH"
	default:
		return "INQUIRY"
	}
}

func normalizeIntent(raw string) string {
	token := strings.ToLower(strings.TrimSpace(raw))
	token = strings.Trim(token, ".!\"' ")
	switch {
	case strings.Contains(token, "test_drive") || strings.Contains(token, "test drive"):
		return "test_drive"
	case strings.Contains(token, "financ"):
		return "financing"
	case strings.Contains(token, "service"):
		return "service"
	case strings.Contains(token, "search"):
		return "search"
	case strings.Contains(token, "inquiry"):
		return "inquiry"
	default:
		return ""
	}
}

func (d *Deps) automotiveSearch(ctx context.Context, state *hub.WorkflowState) (*registry.StageResult, error) {
	message := requestMessage(state)

	brand := ""
	for _, b := range []string{"toyota", "honda", "bmw", "mercedes", "lexus"} {
		if containsAny(message, b) {
			brand = b
			break
		}
	}
	maxPrice := firstAmount(message)

	matches := d.Catalog.AvailableVehicles(brand, maxPrice)
	var listed []map[string]any
	var lines []string
	for _, v := range matches {
		listed = append(listed, map[string]any{
			"id":    v.ID,
			"brand": v.Brand,
			"model": v.Model,
			"year":  v.Year,
			"price": v.Price,
			"color": v.Color,
		})
		lines = append(lines, fmt.Sprintf("%d %s %s (%s) - $%.0f", v.Year, v.Brand, v.Model, v.Color, v.Price))
	}

	recommendation := d.generate(ctx,
		"You are a friendly car sales assistant. Recommend from the listed vehicles in 2-3 sentences.",
		fmt.Sprintf("Customer request: %s\n\nAvailable vehicles:\n%s", message, strings.Join(lines, "\n")),
		searchFallback(matches))

	out := map[string]any{
		"vehicles":       listed,
		"match_count":    len(matches),
		"brand_filter":   brand,
		"max_price":      maxPrice,
		"recommendation": recommendation,
	}
	return &registry.StageResult{Output: out, Summary: fmt.Sprintf("%d vehicle(s) matched", len(matches))}, nil
}

func searchFallback(matches []catalog.Vehicle) string {
	if len(matches) == 0 {
		return "No vehicles in stock match that request right now. A sales consultant can check upcoming deliveries for you."
	}
	v := matches[0]
	return fmt.Sprintf("Based on your request, the %d %s %s at $%.0f is a strong fit. It is available for viewing today.",
		v.Year, v.Brand, v.Model, v.Price)
}

func (d *Deps) automotiveFinancing(ctx context.Context, state *hub.WorkflowState) (*registry.StageResult, error) {
	message := requestMessage(state)

	price := firstAmount(message)
	if price <= 0 {
		price = defaultVehiclePrice
	}
	down := defaultDownPayment
	if down >= price {
		down = 0
	}
	loan := price - down

	terms := financingTerms
	for _, t := range financingTerms {
		if containsAny(message, fmt.Sprintf("%d month", t), fmt.Sprintf("%d-month", t)) {
			terms = []int{t}
			break
		}
	}

	var options []map[string]any
	for _, term := range terms {
		monthly := amortize(loan, defaultAPR, term)
		total := monthly * float64(term)
		options = append(options, map[string]any{
			"term_months":     term,
			"monthly_payment": math.Round(monthly*100) / 100,
			"total_payment":   math.Round(total*100) / 100,
			"total_interest":  math.Round((total-loan)*100) / 100,
		})
	}

	out := map[string]any{
		"vehicle_price": price,
		"down_payment":  down,
		"loan_amount":   loan,
		"apr":           defaultAPR,
		"options":       options,
	}
	return &registry.StageResult{Output: out, Summary: fmt.Sprintf("$%.0f loan, %d term option(s)", loan, len(options))}, nil
}

// amortize returns the fixed monthly payment for a loan at the given
// annual rate over n months.
func amortize(loan, annualRate float64, months int) float64 {
	r := annualRate / 100 / 12
	if r == 0 {
		return loan / float64(months)
	}
	factor := math.Pow(1+r, float64(months))
	return loan * r * factor / (factor - 1)
}

func (d *Deps) automotiveService(ctx context.Context, state *hub.WorkflowState) (*registry.StageResult, error) {
	message := requestMessage(state)

	serviceType := "general"
	switch {
	case containsAny(message, "brake"):
		serviceType = "brake"
	case containsAny(message, "oil"):
		serviceType = "oil"
	case containsAny(message, "tire", "tyre"):
		serviceType = "tire"
	case containsAny(message, "battery"):
		serviceType = "battery"
	}

	estimates := map[string]struct {
		cost     float64
		duration string
	}{
		"brake":   {1200, "3 hours"},
		"oil":     {380, "1 hour"},
		"tire":    {2800, "2 hours"},
		"battery": {1500, "1 hour"},
		"general": {600, "2 hours"},
	}
	est := estimates[serviceType]

	var parts []map[string]any
	for _, p := range d.Catalog.PartsForService(serviceType) {
		parts = append(parts, map[string]any{
			"id":    p.ID,
			"name":  p.Name,
			"price": p.Price,
			"stock": p.Stock,
		})
	}

	out := map[string]any{
		"booking_ref":    hub.Reference("SVC"),
		"service_type":   serviceType,
		"estimated_cost": est.cost,
		"duration":       est.duration,
		"appointment":    time.Now().AddDate(0, 0, 3).Format("2006-01-02") + " 9:30 AM",
		"parts":          parts,
	}
	return &registry.StageResult{Output: out, Summary: fmt.Sprintf("%s service booked", serviceType)}, nil
}

func (d *Deps) automotiveTestDrive(ctx context.Context, state *hub.WorkflowState) (*registry.StageResult, error) {
	message := requestMessage(state)

	vehicles := d.Catalog.AvailableVehicles("", 0)
	var chosen catalog.Vehicle
	for _, v := range vehicles {
		if containsAny(message, strings.ToLower(v.Brand)) || containsAny(message, strings.ToLower(v.Model)) {
			chosen = v
			break
		}
	}
	if chosen.ID == "" && len(vehicles) > 0 {
		chosen = vehicles[0]
	}

	out := map[string]any{
		"booking_ref": hub.Reference("TD"),
		"vehicle_id":  chosen.ID,
		"vehicle":     fmt.Sprintf("%d %s %s (%s)", chosen.Year, chosen.Brand, chosen.Model, chosen.Color),
		"scheduled":   time.Now().AddDate(0, 0, 2).Format("2006-01-02") + " 10:00 AM",
		"location":    "Main Showroom, 88 Harbour Road",
	}
	return &registry.StageResult{Output: out, Summary: fmt.Sprintf("test drive for %s", chosen.ID)}, nil
}

func (d *Deps) automotiveGeneral(ctx context.Context, state *hub.WorkflowState) (*registry.StageResult, error) {
	message := requestMessage(state)
	answer := d.generate(ctx,
		"You are a helpful automotive dealership assistant. Answer the customer's question concisely.",
		message,
		"Thanks for reaching out. A sales consultant will follow up with the details shortly, or you can ask about our vehicles, financing, service, or test drives.")
	out := map[string]any{"answer": answer}
	return &registry.StageResult{Output: out, Summary: "answered"}, nil
}

// automotiveRespond assembles the final markdown from whichever specialist
// ran on this route.
func (d *Deps) automotiveRespond(ctx context.Context, state *hub.WorkflowState) (*registry.StageResult, error) {
	var b strings.Builder
	switch state.Route {
	case "vehicle_search":
		fmt.Fprintf(&b, "## Vehicle Search Results\n\n")
		vehicles := outMaps(state, "inventory", "vehicles")
		if len(vehicles) == 0 {
			fmt.Fprintf(&b, "No vehicles currently in stock match your request.\n\n")
		}
		for _, v := range vehicles {
			fmt.Fprintf(&b, "- **%.0f %s %s** (%s) - $%.0f\n",
				mapFloat(v, "year"), mapString(v, "brand"), mapString(v, "model"),
				mapString(v, "color"), mapFloat(v, "price"))
		}
		fmt.Fprintf(&b, "\n%s\n", outString(state, "inventory", "recommendation"))

	case "financing":
		fmt.Fprintf(&b, "## Financing Options\n\n")
		fmt.Fprintf(&b, "**Vehicle Price:** $%.0f | **Down Payment:** $%.0f | **Loan:** $%.0f | **APR:** %.1f%%\n\n",
			outFloat(state, "financing", "vehicle_price"),
			outFloat(state, "financing", "down_payment"),
			outFloat(state, "financing", "loan_amount"),
			outFloat(state, "financing", "apr"))
		fmt.Fprintf(&b, "| Term | Monthly | Total Interest |\n|------|---------|----------------|\n")
		for _, opt := range outMaps(state, "financing", "options") {
			fmt.Fprintf(&b, "| %.0f months | $%.2f | $%.2f |\n",
				mapFloat(opt, "term_months"), mapFloat(opt, "monthly_payment"), mapFloat(opt, "total_interest"))
		}

	case "service":
		fmt.Fprintf(&b, "## Service Booking Confirmed\n\n")
		fmt.Fprintf(&b, "- **Booking Ref:** %s\n", outString(state, "service", "booking_ref"))
		fmt.Fprintf(&b, "- **Service:** %s\n", outString(state, "service", "service_type"))
		fmt.Fprintf(&b, "- **Estimated Cost:** $%.0f\n", outFloat(state, "service", "estimated_cost"))
		fmt.Fprintf(&b, "- **Duration:** %s\n", outString(state, "service", "duration"))
		fmt.Fprintf(&b, "- **Appointment:** %s\n", outString(state, "service", "appointment"))

	case "test_drive":
		fmt.Fprintf(&b, "## Test Drive Scheduled\n\n")
		fmt.Fprintf(&b, "- **Booking Ref:** %s\n", outString(state, "test_drive", "booking_ref"))
		fmt.Fprintf(&b, "- **Vehicle:** %s\n", outString(state, "test_drive", "vehicle"))
		fmt.Fprintf(&b, "- **When:** %s\n", outString(state, "test_drive", "scheduled"))
		fmt.Fprintf(&b, "- **Where:** %s\n", outString(state, "test_drive", "location"))

	default:
		fmt.Fprintf(&b, "%s\n", outString(state, "general", "answer"))
	}

	out := map[string]any{"content": b.String()}
	return &registry.StageResult{Output: out, Summary: "response assembled"}, nil
}
