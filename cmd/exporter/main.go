package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/aggregate"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/config"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/directory"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/kustomer"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/metrics"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/record"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/report"
	"github.com/casper12340/Kustomer-Agent-Performance-Tool-Copy/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// streams holds the fetched event streams for one run.
type streams struct {
	messages      []record.Record
	done          []record.Record
	firstDone     []record.Record
	firstResponse []record.Record
	convTimes     []record.Record
	userTimes     []record.Record
}

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	runID := uuid.New().String()
	log.Info().
		Str("run_id", runID).
		Str("start_date", cfg.StartDate.Format("2006-01-02")).
		Str("end_date", cfg.EndDate.Format("2006-01-02")).
		Str("time_zone", cfg.TimeZone).
		Msg("starting agent performance export")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, runID); err != nil {
		log.Fatal().Err(err).Msg("export failed")
	}
}

func run(ctx context.Context, cfg *config.Config, runID string) error {
	client := kustomer.NewClient(kustomer.Options{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		PageSize:          cfg.PageSize,
		MaxRetries:        cfg.MaxRetries,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, log.Logger)

	// Reference data first: the directory gates every attribution.
	var users, teams []record.Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = client.Users(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = client.Teams(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load reference data: %w", err)
	}

	dir := directory.Build(users, teams, log.Logger)

	// The event streams are independent and fetch in parallel.
	var ev streams
	g, gctx = errgroup.WithContext(ctx)
	fetch := func(stream kustomer.Stream, dst *[]record.Record) {
		g.Go(func() error {
			events, err := client.SearchRange(gctx, stream, cfg.StartDate, cfg.EndDate, cfg.TimeZone)
			if err != nil {
				return err
			}
			*dst = events
			return nil
		})
	}
	fetch(kustomer.Messages(), &ev.messages)
	fetch(kustomer.ConversationsDone(), &ev.done)
	fetch(kustomer.ConversationsFirstDone(), &ev.firstDone)
	fetch(kustomer.ConversationsFirstResponse(), &ev.firstResponse)
	fetch(kustomer.ConversationTimes(), &ev.convTimes)
	if cfg.IncludeUserTime {
		fetch(kustomer.UserTimes(), &ev.userTimes)
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to fetch event streams: %w", err)
	}

	agg := aggregate.New(dir, log.Logger)
	agg.RegisterConversations(ev.done)
	agg.RegisterConversations(ev.firstDone)
	agg.RegisterConversations(ev.firstResponse)

	for _, e := range ev.messages {
		agg.FoldMessage(e)
	}
	for _, e := range ev.done {
		agg.FoldConversationDone(e)
	}
	for _, e := range ev.convTimes {
		agg.FoldConversationTime(e)
	}
	for _, e := range ev.firstDone {
		agg.FoldFirstDone(e)
	}
	for _, e := range ev.firstResponse {
		agg.FoldFirstResponse(e)
	}
	for _, e := range ev.userTimes {
		agg.FoldUserTime(e)
	}

	rows := report.BuildRows(agg.Entities(), dir)
	data, err := report.EncodeCSV(rows)
	if err != nil {
		return err
	}

	name := reportFileName(cfg.StartDate, cfg.EndDate, runID)
	path := filepath.Join(cfg.OutputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	m := metrics.Get()
	m.RecordRowsWritten(len(rows))

	output := path
	if cfg.S3Bucket != "" {
		uploader, err := report.NewS3Uploader(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.S3Region, log.Logger)
		if err != nil {
			return err
		}
		key, err := uploader.Upload(ctx, name, data)
		if err != nil {
			return err
		}
		output = "s3://" + cfg.S3Bucket + "/" + key
	}

	store, err := storage.NewStore(ctx, log.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize run store: %w", err)
	}
	snap := m.GetSnapshot()
	summary := storage.RunSummary{
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
		RunID:           runID,
		StartDate:       cfg.StartDate.Format("2006-01-02"),
		EndDate:         cfg.EndDate.Format("2006-01-02"),
		RowCount:        len(rows),
		EventsProcessed: snap.EventsProcessed,
		EventsDropped:   snap.EventsDropped,
		KindConflicts:   snap.KindConflicts,
		Output:          output,
	}
	if err := store.SaveRun(ctx, summary); err != nil {
		// Run history is best effort; the report itself is already safe.
		log.Error().Err(err).Msg("failed to record run summary")
	}

	log.Info().
		Str("report", output).
		Int("rows", len(rows)).
		Int64("events_processed", snap.EventsProcessed).
		Int64("events_dropped", snap.EventsDropped).
		Int64("unknown_entities", snap.UnknownEntities).
		Int64("kind_conflicts", snap.KindConflicts).
		Int64("malformed_samples", snap.MalformedSamples).
		Int64("pages_fetched", snap.PagesFetched).
		Int64("request_retries", snap.RequestRetries).
		Msg("export complete")

	return nil
}

// reportFileName builds a collision-free name for one run's CSV.
func reportFileName(start, end time.Time, runID string) string {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("agent_performance_%s_%s_%s.csv",
		start.Format("2006-01-02"), end.Format("2006-01-02"), short)
}
