package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/push"
)

// PushJob is the Pushgateway job name for transform runs.
const PushJob = "climate_risk_transform"

// Push sends the current metric values to a Pushgateway. Batch runs exit
// before a scrape could observe them, so transform pushes instead.
func (m *Metrics) Push(ctx context.Context, url string) error {
	pusher := push.New(url, PushJob)
	for _, c := range m.collectors() {
		pusher = pusher.Collector(c)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
