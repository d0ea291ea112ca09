package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/push"
)

const pushJob = "asesor_generator"

// Push sends the collected metrics to a Pushgateway, grouped by locality.
// Batch runs exit before any scrape, so this is their only export path.
func (m *Metrics) Push(ctx context.Context, url, locality string) error {
	pusher := push.New(url, pushJob).
		Gatherer(m.Gatherer()).
		Grouping("locality", locality)
	if err := pusher.AddContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
