package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"arbiscan/internal/config"
	"arbiscan/internal/model"
	"arbiscan/internal/platform/logging"
	"arbiscan/internal/platform/metrics"
	"arbiscan/internal/store"
	"arbiscan/internal/venue"
)

// deps bundles the process-wide singletons every subcommand needs a subset
// of. Built once in each run*() and threaded through explicitly rather
// than hung off a package-level global, matching the teacher's
// constructor-injection style.
type deps struct {
	cfg     *config.Config
	log     zerolog.Logger
	kv      store.KVStore
	metrics *metrics.Registry
}

func bootstrap() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	var kv store.KVStore
	if cfg.Redis.Addr == "memory" {
		kv = store.NewMemoryStore()
	} else {
		kv = store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}

	reg := metrics.NewRegistry(prometheus.NewRegistry())

	return &deps{cfg: cfg, log: log, kv: kv, metrics: reg}, nil
}

// venueFleet constructs the set of CEX venues this build knows how to
// talk to (see venue.SupportedCEX — bitget/gate/htx/bingx are not
// implemented, DESIGN.md explains why). No DEX venues are wired: no
// concrete venue.DEXQuoter implementation exists yet in this build, only
// the interface it's defined against, so the DEX leg of §4.2/§4.3 has
// nothing to construct.
func venueFleet(httpClient *http.Client) (map[string]venue.Adapter, map[string]model.Venue, error) {
	adapters := make(map[string]venue.Adapter, len(venue.SupportedCEX))
	venues := make(map[string]model.Venue, len(venue.SupportedCEX))

	for _, id := range venue.SupportedCEX {
		a, err := venue.NewCEX(id, httpClient)
		if err != nil {
			return nil, nil, err
		}
		adapters[id] = a
		venues[id] = model.Venue{VenueID: id, Kind: a.Kind()}
	}
	return adapters, venues, nil
}

func collectorPollInterval(cfg *config.Config) time.Duration {
	sec := cfg.Scanner.PriceUpdateIntervalSec
	if sec <= 0 {
		sec = 1
	}
	return time.Duration(sec) * time.Second
}
