package chat

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"claimdesk/internal/domain/claim"
)

const systemPrompt = `You are Shawn-Bot, a knowledgeable assistant for Venture Claims Management.
You help users with technical details, installation guidelines, warranty information, and maintenance guidance for carpet and flooring products.
Be professional, concise, and helpful. If you're not sure about something, say so.

You have expertise in:
- Product specifications and technical details
- Installation procedures and best practices
- Warranty terms and conditions
- Maintenance guidelines and cleaning procedures
- Troubleshooting common issues

When providing information:
1. Be specific and accurate
2. Reference industry standards when applicable
3. Provide step-by-step instructions when needed
4. Suggest preventive measures when relevant`

// Snapshot is the read side of the claim store the assistant may quote from.
type Snapshot interface {
	Claims() []claim.Claim
	CalculateTotals() claim.Totals
}

var claimNumberPattern = regexp.MustCompile(`(?i)\bCLM-\d{4}-\d{4}\b`)

// maxClaimsInContext caps how many referenced claims are summarised per message.
const maxClaimsInContext = 5

// BuildContext returns data the latest user message asks about, or "" when it
// mentions nothing the store can answer.
func BuildContext(snapshot Snapshot, latest string) string {
	if snapshot == nil || strings.TrimSpace(latest) == "" {
		return ""
	}
	lower := strings.ToLower(latest)

	var sections []string
	claims := snapshot.Claims()

	if numbers := referencedClaimNumbers(latest); len(numbers) > 0 {
		sections = append(sections, describeClaims(claims, numbers))
	}
	if strings.Contains(lower, "alert") {
		sections = append(sections, describeAlerts(claims))
	}
	if strings.Contains(lower, "total") || strings.Contains(lower, "saved") || strings.Contains(lower, "saving") {
		sections = append(sections, describeTotals(len(claims), snapshot.CalculateTotals()))
	}

	if len(sections) == 0 {
		return ""
	}
	return "Current claims data (use it to answer, do not invent other figures):\n" + strings.Join(sections, "\n")
}

func referencedClaimNumbers(text string) []string {
	var numbers []string
	seen := make(map[string]bool)
	for _, m := range claimNumberPattern.FindAllString(text, -1) {
		n := strings.ToUpper(m)
		if seen[n] {
			continue
		}
		seen[n] = true
		numbers = append(numbers, n)
		if len(numbers) == maxClaimsInContext {
			break
		}
	}
	return numbers
}

func describeClaims(claims []claim.Claim, numbers []string) string {
	byNumber := make(map[string]*claim.Claim, len(claims))
	for i := range claims {
		byNumber[claims[i].ClaimNumber] = &claims[i]
	}

	lines := make([]string, 0, len(numbers))
	for _, n := range numbers {
		c, ok := byNumber[n]
		if !ok {
			lines = append(lines, fmt.Sprintf("- Claim %s was not found.", n))
			continue
		}
		line := fmt.Sprintf("- Claim %s: client %s, status %s, department %s, category %s (%s), claimed %s, solution %s, saved %s, %d alert(s)",
			c.ClaimNumber, orUnknown(c.ClientName()), c.Status, c.Department, c.ClaimCategory, c.ProductCategory,
			money(c.ClaimedAmount), money(c.SolutionAmount), money(c.SavedAmount), c.AlertCount)
		if c.IdentifiedCause != nil && *c.IdentifiedCause != "" {
			line += ", identified cause: " + *c.IdentifiedCause
		}
		for _, a := range c.Alerts {
			line += "\n  - " + a.Message
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func describeAlerts(claims []claim.Claim) string {
	counts := make(map[claim.AlertType]int, len(claim.AlertTypes))
	flagged := 0
	for _, c := range claims {
		if len(c.Alerts) > 0 {
			flagged++
		}
		for _, a := range c.Alerts {
			counts[a.Type]++
		}
	}

	parts := make([]string, 0, len(claim.AlertTypes))
	for _, t := range claim.AlertTypes {
		parts = append(parts, fmt.Sprintf("%s %d", t, counts[t]))
	}
	return fmt.Sprintf("- Alerts: %d of %d claims flagged (%s)", flagged, len(claims), strings.Join(parts, ", "))
}

func describeTotals(n int, t claim.Totals) string {
	return fmt.Sprintf("- Portfolio totals over %d claims: claimed %s, solution %s, saved %s",
		n, money(t.TotalClaimed), money(t.TotalSolution), money(t.TotalSaved))
}

func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
