package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// InstitutionAmount is an amount aggregated by resolved institution label.
type InstitutionAmount struct {
	Label  string
	Amount decimal.Decimal
}

// MonthSummary is the dashboard view of a single month, derived from a
// collection snapshot.
type MonthSummary struct {
	MonthKey      string
	Records       []Record
	Total         decimal.Decimal
	ByInstitution []InstitutionAmount
}

// FilterByMonth returns the records whose date falls in the given YYYY-MM
// month key.
func FilterByMonth(records []Record, monthKey string) []Record {
	var out []Record
	for _, r := range records {
		if strings.HasPrefix(r.Date, monthKey) {
			out = append(out, r)
		}
	}
	return out
}

// SortByDateDesc returns a new slice sorted by date descending. The sort is
// stable: same-date records keep their input order, which for the canonical
// collection means newest-created first.
func SortByDateDesc(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// TotalAmount sums the amounts of the given records. An empty input sums to
// zero.
func TotalAmount(records []Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// GroupByInstitution sums amounts per resolved institution label, sorted by
// summed amount descending. Equal sums keep the order their labels first
// appear in the input, so the output is deterministic.
func GroupByInstitution(records []Record) []InstitutionAmount {
	sums := make(map[string]decimal.Decimal)
	var order []string
	for _, r := range records {
		label := r.Institution.Label()
		if _, seen := sums[label]; !seen {
			order = append(order, label)
		}
		sums[label] = sums[label].Add(r.Amount)
	}

	out := make([]InstitutionAmount, 0, len(order))
	for _, label := range order {
		out = append(out, InstitutionAmount{Label: label, Amount: sums[label]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	return out
}

// BuildMonthSummary derives the full dashboard data for one month: the
// filtered records sorted date-descending, their total, and the
// per-institution breakdown.
func BuildMonthSummary(records []Record, monthKey string) MonthSummary {
	monthly := SortByDateDesc(FilterByMonth(records, monthKey))
	return MonthSummary{
		MonthKey:      monthKey,
		Records:       monthly,
		Total:         TotalAmount(monthly),
		ByInstitution: GroupByInstitution(monthly),
	}
}
