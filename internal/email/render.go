package email

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gearshare-backend/internal/domain"
)

// KnownVariables are always substituted, with "" when no value is given,
// so templates never show raw tokens for them.
var KnownVariables = []string{
	"firstName",
	"lastName",
	"finalPrice",
	"repairId",
	"itemType",
	"paymentType",
	"status",
	"notes",
	"ticketId",
	"equipmentType",
	"completionDate",
}

type Rendered struct {
	Subject string
	Body    string
}

// Render substitutes {{key}} tokens in the template subject and body.
// Tokens that are neither known nor present in vars are left untouched.
func Render(tpl domain.EmailTemplate, vars map[string]string) Rendered {
	pairs := make([]string, 0, 2*(len(KnownVariables)+len(vars)))
	seen := make(map[string]bool, len(KnownVariables)+len(vars))
	for _, k := range KnownVariables {
		pairs = append(pairs, "{{"+k+"}}", vars[k])
		seen[k] = true
	}
	for k, v := range vars {
		if !seen[k] {
			pairs = append(pairs, "{{"+k+"}}", v)
		}
	}
	r := strings.NewReplacer(pairs...)
	return Rendered{Subject: r.Replace(tpl.Subject), Body: r.Replace(tpl.Body)}
}

// FormatCurrency renders an amount in US dollars with thousands
// separators, e.g. 1234.5 becomes "$1,234.50".
func FormatCurrency(amount float64) string {
	cents := int64(math.Round(math.Abs(amount) * 100))
	whole := strconv.FormatInt(cents/100, 10)

	var sb strings.Builder
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(d)
	}

	sign := ""
	if amount < 0 && cents > 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s$%s.%02d", sign, sb.String(), cents%100)
}
