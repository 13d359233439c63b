// README: Builds the service graph from config; Postgres, Redis, Gemini, Maps and Kafka are each optional.
package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"flybot/internal/ai"
	"flybot/internal/config"
	"flybot/internal/infra"
	"flybot/internal/maps"
	"flybot/internal/modules/aiusage"
	"flybot/internal/modules/conversation"
	"flybot/internal/modules/feedback"
	"flybot/internal/modules/itinerary"
	"flybot/internal/modules/waterfall"
	"flybot/internal/timex"
)

type app struct {
	orchestrator *conversation.Orchestrator
	registry     *conversation.Registry
	itineraries  *itinerary.Service
	feedback     *feedback.Service

	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.Close()
		return nil, err
	}

	var pool *pgxpool.Pool
	if cfg.DB.DSN != "" {
		p, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return fail(err)
		}
		pool = p
		a.closers = append(a.closers, pool.Close)
	} else {
		logger.Warn("no database configured, itineraries and reports are kept in memory")
	}

	var publisher *infra.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		p, err := infra.NewEventPublisher(cfg.Kafka, logger)
		if err != nil {
			return fail(err)
		}
		publisher = p
		a.closers = append(a.closers, func() {
			if err := p.Close(); err != nil {
				logger.Warn("close kafka writer", zap.Error(err))
			}
		})
	}

	var (
		itineraryRepo itinerary.Repository = itinerary.NewMemoryStore()
		reportRepo    feedback.Repository  = feedback.NewMemoryStore()
		usageRepo     aiusage.Repository   = aiusage.NewMemoryStore()
	)
	if pool != nil {
		itineraryRepo = itinerary.NewStore(pool)
		reportRepo = feedback.NewStore(pool)
		usageRepo = aiusage.NewStore(pool)
	}
	// A nil *EventPublisher must not reach the services as a non-nil interface.
	var (
		itineraryPub itinerary.Publisher
		reportPub    feedback.Publisher
	)
	if publisher != nil {
		itineraryPub = publisher
		reportPub = publisher
	}
	a.itineraries = itinerary.NewService(itineraryRepo, itineraryPub, logger.Named("itinerary"))
	a.feedback = feedback.NewService(reportRepo, reportPub, logger.Named("feedback"))

	recognizer := timex.NewRecognizer()

	var checker ai.LocationChecker
	switch {
	case cfg.Maps.APIKey != "":
		svc, err := maps.NewAirportService(cfg.Maps.APIKey)
		if err != nil {
			return fail(err)
		}
		checker = svc
	case len(cfg.Booking.SupportedCities) > 0:
		checker = maps.NewStaticChecker(cfg.Booking.SupportedCities)
	}

	extractor, err := buildExtractor(ctx, cfg, recognizer, checker, aiusage.NewService(usageRepo, cfg.AI.MonthlyCalls), logger, a)
	if err != nil {
		return fail(err)
	}

	wf := waterfall.New(extractor, recognizer, waterfall.Config{DefaultCurrency: cfg.Booking.DefaultCurrency}, logger.Named("waterfall"))
	deps := conversation.Deps{
		Recognizer: extractor,
		Waterfall:  wf,
		Booker:     a.itineraries,
		Reporter:   a.feedback,
	}
	a.orchestrator = conversation.New(deps, conversation.Config{
		MaxMisunderstandings: cfg.Conversation.MaxMisunderstandings,
		HistorySize:          cfg.Conversation.HistorySize,
	}, logger.Named("conversation"))
	a.registry = conversation.NewRegistry(a.orchestrator, logger.Named("registry"))
	return a, nil
}

// buildExtractor assembles cache(fallback(quota(gemini), rules)). Any layer
// whose backing service is not configured is left out.
func buildExtractor(ctx context.Context, cfg config.Config, recognizer *timex.Recognizer, checker ai.LocationChecker, quota ai.Quota, logger *zap.Logger, a *app) (ai.Extractor, error) {
	var rules ai.Extractor
	if cfg.AI.Rules {
		rules = ai.NewRuleExtractor(recognizer, checker, nil)
	}

	var primary ai.Extractor
	if cfg.AI.GeminiKey != "" {
		gemini, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey, cfg.AI.Model, recognizer)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		a.closers = append(a.closers, gemini.Close)
		primary = ai.NewQuotaExtractor(gemini, quota)
	}

	var ext ai.Extractor
	switch {
	case primary != nil && rules != nil:
		ext = ai.NewFallbackExtractor(primary, rules, logger.Named("extractor"))
	case primary != nil:
		ext = primary
	case rules != nil:
		ext = rules
	default:
		return nil, nil
	}

	if cfg.Redis.Addr != "" {
		rdb, err := infra.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		ext = ai.NewCachedExtractor(ext, rdb, cfg.Redis.CacheTTL, logger.Named("cache"))
	}
	return ext, nil
}
