package main

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/pricelens/pricewatch/internal/collector"
	"github.com/pricelens/pricewatch/internal/resilience"
)

// platformAdapter resolves a platform name to its adapter.
func platformAdapter(name string) (collector.Platform, error) {
	switch name {
	case "amazon":
		return collector.NewAmazon(), nil
	case "ebay":
		return collector.NewEBay(), nil
	case "walmart":
		return collector.NewWalmart(), nil
	case "jd":
		return collector.NewJD(), nil
	case "taobao":
		return collector.NewTaobao(), nil
	default:
		return nil, eris.Errorf("unknown platform: %s", name)
	}
}

// initCollectors builds one collector per requested platform with a shared
// rate-limited client.
func initCollectors(platforms []string) ([]*collector.Collector, error) {
	if len(platforms) == 0 {
		platforms = cfg.Collector.Platforms
	}

	client := collector.NewClient(collector.ClientOptions{
		UserAgent: cfg.Collector.UserAgent,
		Timeout:   time.Duration(cfg.Collector.TimeoutSecs) * time.Second,
		Retry: resilience.FromRetryConfig(
			cfg.Collector.RetryMaxAttempts,
			cfg.Collector.RetryBackoffMs,
			cfg.Collector.RetryMaxBackoffMs,
			0, 0),
		Circuit: resilience.FromCircuitConfig(
			cfg.Collector.CircuitFailureThreshold,
			cfg.Collector.CircuitResetSecs),
		RequestsPerSecond: cfg.Collector.RequestsPerSecond,
		Burst:             cfg.Collector.Burst,
	})

	out := make([]*collector.Collector, 0, len(platforms))
	for _, name := range platforms {
		adapter, err := platformAdapter(name)
		if err != nil {
			return nil, err
		}
		out = append(out, collector.NewCollector(client, adapter))
	}
	return out, nil
}
