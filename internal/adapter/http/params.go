package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-risk-dashboard/internal/dashboard"
	"github.com/couchcryptid/climate-risk-dashboard/internal/domain"
)

// selection is the parsed view state shared by the page and the API.
type selection struct {
	Year      int
	Countries []string
	Metric    domain.Metric
	K         int
}

// parseSelection reads year, country, metric and k from the query string.
// Missing values take their defaults: the latest year, the preferred
// countries, risk_score and the configured top K.
func parseSelection(q url.Values, snap *dashboard.Snapshot, defaultK int) (selection, error) {
	sel := selection{Year: snap.LatestYear(), K: defaultK}

	if v := strings.TrimSpace(q.Get("year")); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return selection{}, fmt.Errorf("invalid year %q", v)
		}
		sel.Year = year
	}

	if v := strings.TrimSpace(q.Get("k")); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil {
			return selection{}, fmt.Errorf("invalid k %q", v)
		}
		if k > 0 {
			sel.K = k
		}
	}

	metric, err := domain.ParseMetric(strings.TrimSpace(q.Get("metric")))
	if err != nil {
		return selection{}, err
	}
	sel.Metric = metric

	sel.Countries = countryParams(q)
	if len(sel.Countries) == 0 {
		sel.Countries = domain.DefaultCountries(snap.Countries)
	}
	return sel, nil
}

// countryParams accepts both repeated and comma-separated country values.
func countryParams(q url.Values) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range q["country"] {
		for _, c := range strings.Split(v, ",") {
			c = strings.TrimSpace(c)
			if c != "" && !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// query encodes a selection for chart and form links.
func (s selection) query() url.Values {
	q := url.Values{}
	q.Set("year", strconv.Itoa(s.Year))
	q.Set("metric", string(s.Metric))
	q.Set("k", strconv.Itoa(s.K))
	for _, c := range s.Countries {
		q.Add("country", c)
	}
	return q
}
