package dynamicvars

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const priceOnApplication = "Price on application"

var printer = message.NewPrinter(language.English)

func formatPrice(price *int64) string {
	if price == nil {
		return priceOnApplication
	}
	return printer.Sprintf("$%d", *price)
}

func formatLandArea(sqm *int) string {
	if sqm == nil {
		return ""
	}
	return printer.Sprintf("%d m²", *sqm)
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2 January 2006")
}

// formatFeatures renders one "- item" line per non-blank feature.
func formatFeatures(features []string) string {
	lines := make([]string, 0, len(features))
	for _, f := range features {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		lines = append(lines, "- "+f)
	}
	return strings.Join(lines, "\n")
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
