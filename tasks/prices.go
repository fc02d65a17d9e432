// Package tasks holds the scheduled background jobs run by the API server.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/tallyworks/crypto-cgt-cli/config"
	"github.com/tallyworks/crypto-cgt-cli/pricing"
)

// priceRefreshTimeout bounds one refresh cycle so a stalled upstream cannot
// pile up overlapping runs.
const priceRefreshTimeout = 30 * time.Second

// PriceRefreshTask re-warms the current price cache for the configured
// assets. Failures for individual assets are logged and skipped; the next
// scheduled run retries them.
func PriceRefreshTask(cache *pricing.Cache, assets []string, currency string) {
	config.Log.Info("Task started for PriceRefreshTask")

	ctx, cancel := context.WithTimeout(context.Background(), priceRefreshTimeout)
	defer cancel()

	failures := cache.Warm(ctx, assets, currency)
	for asset, err := range failures {
		config.Log.Warn(fmt.Sprintf("Could not refresh price for %s/%s", asset, currency), err)
	}

	config.Log.Info(fmt.Sprintf("Task ended for PriceRefreshTask, refreshed %d/%d assets", len(assets)-len(failures), len(assets)))
}
