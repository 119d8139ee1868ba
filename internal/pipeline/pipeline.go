package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"wordmill/internal/anki"
	"wordmill/internal/card"
	"wordmill/internal/config"
	"wordmill/internal/dedup"
	"wordmill/internal/enrich"
	"wordmill/internal/fileutil"
	"wordmill/internal/inbox"
	"wordmill/internal/ledger"
	"wordmill/internal/lemma"
	"wordmill/internal/logging"
	"wordmill/internal/notify"
	"wordmill/internal/store"
)

// RunOptions carries the per-invocation switches for a single run.
type RunOptions struct {
	// DryRun exercises the read and enrichment path but writes nothing: no
	// store append, no snapshot, no sync, no queue truncation, no ledger row.
	DryRun bool
	// Limit caps how many candidates enter enrichment. Zero means no cap.
	// When the cap cuts the batch the queue file is kept so the deferred
	// entries survive for the next run.
	Limit int
	// Deck overrides the configured sync deck when non-empty.
	Deck string
	// NoteModel overrides the configured sync note model when non-empty.
	NoteModel string
}

// Summary reports what one run did. In dry runs Persisted counts the rows
// that would have been written.
type Summary struct {
	RunID     string
	DryRun    bool
	Processed int // candidates sent to enrichment
	Skipped   int // entries dropped by the normalizer or a duplicate check
	Failed    int // candidates whose enrichment failed
	Persisted int // rows appended to the store
	Synced    int // notes the sync service created
	Duration  time.Duration
}

// Runner executes pipeline runs against one configuration.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

// Option adjusts Runner construction.
type Option func(*Runner)

// WithClock overrides the time source used for date stamps and durations.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// New builds a Runner. A nil logger is replaced with a silent one.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{cfg: cfg, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one pipeline pass. The returned Summary is populated even
// when err is non-nil so callers can report partial progress.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (Summary, error) {
	runID := uuid.NewString()
	start := r.now()
	logger := logging.NewComponentLogger(r.logger, "pipeline").With("run_id", runID)

	summary := Summary{RunID: runID, DryRun: opts.DryRun}

	if err := r.cfg.EnsureDirectories(); err != nil {
		summary.Duration = r.now().Sub(start)
		return summary, fmt.Errorf("prepare directories: %w", err)
	}

	var led *ledger.Store
	if !opts.DryRun {
		opened, err := ledger.OpenFromConfig(r.cfg)
		if err != nil {
			logger.Warn("run ledger unavailable, continuing without history", "error", err)
		} else {
			led = opened
			defer led.Close()
			if err := led.RecordStart(ctx, runID, start); err != nil {
				logger.Warn("run start not recorded", "error", err)
			}
		}
	}

	runErr := r.execute(ctx, opts, logger, &summary)
	summary.Duration = r.now().Sub(start)

	if runErr != nil {
		logger.Error("run failed",
			"error", runErr,
			"processed", summary.Processed,
			"skipped", summary.Skipped,
			"failed", summary.Failed,
		)
	} else {
		logger.Info("run finished",
			"processed", summary.Processed,
			"skipped", summary.Skipped,
			"failed", summary.Failed,
			"persisted", summary.Persisted,
			"synced", summary.Synced,
			"duration", summary.Duration.Round(time.Millisecond),
		)
	}

	if led != nil {
		rec := ledger.RunRecord{
			RunID:      runID,
			StartedAt:  start,
			FinishedAt: r.now(),
			Status:     statusFor(summary, runErr),
			Processed:  summary.Processed,
			Skipped:    summary.Skipped,
			Failed:     summary.Failed,
			Persisted:  summary.Persisted,
			Synced:     summary.Synced,
		}
		if runErr != nil {
			rec.ErrorMessage = runErr.Error()
		}
		if err := led.RecordFinish(ctx, rec); err != nil {
			logger.Warn("run finish not recorded", "error", err)
		}
	}

	if !opts.DryRun {
		r.notifyOutcome(ctx, logger, summary, runErr)
	}

	return summary, runErr
}

func statusFor(summary Summary, runErr error) ledger.Status {
	switch {
	case runErr != nil:
		return ledger.StatusFailed
	case summary.Processed == 0:
		return ledger.StatusNoop
	default:
		return ledger.StatusCompleted
	}
}

// execute runs the stages. It mutates summary as it goes so the caller can
// record counters even on a fatal stage error.
func (r *Runner) execute(ctx context.Context, opts RunOptions, logger *slog.Logger, summary *Summary) error {
	cfg := r.cfg

	if opts.DryRun {
		logger.Info("dry run, nothing will be written")
	} else {
		merged, err := inbox.Merge(cfg.Paths.InboxDir, cfg.Paths.QueueFile, r.now())
		if err != nil {
			logger.Warn("fragment merge failed, continuing with current queue", "error", err)
		} else if merged > 0 {
			logger.Info("capture fragments merged", "fragments", merged)
		}
	}

	entries, err := inbox.ReadEntries(cfg.Paths.QueueFile)
	if err != nil {
		return fmt.Errorf("read queue: %w", err)
	}
	if len(entries) == 0 {
		logger.Info("queue empty, nothing to do")
		return nil
	}
	logger.Info("queue loaded", "entries", len(entries))

	st, err := store.New(ctx, store.Config{
		Backend:         cfg.Store.Backend,
		Path:            cfg.Paths.StoreFile,
		SpreadsheetID:   cfg.Store.SpreadsheetID,
		Worksheet:       cfg.Store.Worksheet,
		CredentialsFile: cfg.Store.CredentialsFile,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	scope := dedup.WordScope(cfg.Dedup.WordScope)
	filter := dedup.NewFilter(scope)
	if scope == dedup.ScopeGlobal {
		words, err := st.ExistingWords(ctx)
		if err != nil {
			return fmt.Errorf("load store words: %w", err)
		}
		filter.LoadStoreWords(words)
	}
	sentences, err := st.ExistingSentenceKeys(ctx)
	if err != nil {
		return fmt.Errorf("load store sentences: %w", err)
	}
	filter.LoadStoreSentences(sentences)

	var candidates []lemma.Candidate
	for _, entry := range entries {
		cand, ok := lemma.Extract(entry)
		if !ok {
			summary.Skipped++
			logger.Info("entry produced no candidate", "entry", entry)
			continue
		}
		if filter.SeenWord(cand.Lemma) {
			summary.Skipped++
			logger.Info("duplicate word skipped", "lemma", cand.Lemma)
			continue
		}
		filter.AddWord(cand.Lemma)
		candidates = append(candidates, cand)
	}

	limited := false
	if opts.Limit > 0 && len(candidates) > opts.Limit {
		limited = true
		logger.Info("batch capped", "limit", opts.Limit, "deferred", len(candidates)-opts.Limit)
		candidates = candidates[:opts.Limit]
	}
	if len(candidates) == 0 {
		logger.Info("no new candidates after duplicate filtering")
		if !opts.DryRun {
			r.truncateQueue(logger)
		}
		return nil
	}

	client, err := enrich.NewClient(enrich.Config{
		Transport:      cfg.Enrichment.Transport,
		APIKey:         cfg.Enrichment.APIKey,
		BaseURL:        cfg.Enrichment.BaseURL,
		Model:          cfg.Enrichment.Model,
		Temperature:    cfg.Enrichment.Temperature,
		TopP:           cfg.Enrichment.TopP,
		MaxTokens:      cfg.Enrichment.MaxTokens,
		TimeoutSeconds: cfg.Enrichment.TimeoutSeconds,
		AzureEndpoint:  cfg.Enrichment.AzureEndpoint,
	})
	if err != nil {
		return fmt.Errorf("enrichment client: %w", err)
	}

	summary.Processed = len(candidates)
	logger.Info("enriching candidates", "count", len(candidates), "model", cfg.Enrichment.Model)

	today := r.now().Format("2006-01-02")
	batch := make([]card.Card, 0, len(candidates))
	for i, cand := range candidates {
		enriched, result, err := client.Enrich(ctx, cand.Lemma)
		if err != nil {
			summary.Failed++
			logger.Error("enrichment failed", "lemma", cand.Lemma, "error", err)
			continue
		}
		key := dedup.KeyFor(enriched.WordEN, enriched.SentencePT, enriched.SentenceEN)
		if filter.SeenSentence(key) {
			summary.Skipped++
			logger.Info("duplicate sentence skipped", "word", enriched.WordEN)
			continue
		}
		filter.AddSentence(key)
		enriched.DateAdded = today
		batch = append(batch, enriched)
		logger.Info("card enriched",
			"progress", fmt.Sprintf("%d/%d", i+1, len(candidates)),
			"word_en", enriched.WordEN,
			"word_pt", enriched.WordPT,
			"rule", string(cand.Rule),
			"tokens", result.Usage.TotalTokens,
		)
	}

	if summary.Failed == summary.Processed {
		// Total failure still leaves an empty snapshot behind so the
		// aborted batch is visible.
		if !opts.DryRun {
			if err := store.WriteSnapshot(cfg.Paths.SnapshotFile, nil); err != nil {
				logger.Error("snapshot not written", "error", err)
			}
		}
		return fmt.Errorf("enrichment failed for all %d candidates", summary.Processed)
	}

	if opts.DryRun {
		summary.Persisted = len(batch)
		logger.Info("dry run complete", "would_persist", len(batch))
		return nil
	}

	persisted, err := st.Append(ctx, batch)
	if err != nil {
		return fmt.Errorf("append cards: %w", err)
	}
	summary.Persisted = persisted
	if err := store.WriteSnapshot(cfg.Paths.SnapshotFile, batch); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if persisted > 0 {
		logger.Info("cards persisted", "rows", persisted, "format", string(st.Format()))
	}

	if cfg.Sync.Enabled && len(batch) > 0 {
		added, err := r.syncBatch(ctx, logger, opts, batch)
		if err != nil {
			return err
		}
		summary.Synced = added
	}

	if !limited {
		r.truncateQueue(logger)
	}
	return nil
}

func (r *Runner) syncBatch(ctx context.Context, logger *slog.Logger, opts RunOptions, batch []card.Card) (int, error) {
	cfg := r.cfg
	deck := cfg.Sync.Deck
	if opts.Deck != "" {
		deck = opts.Deck
	}
	noteModel := cfg.Sync.NoteModel
	if opts.NoteModel != "" {
		noteModel = opts.NoteModel
	}

	client, err := anki.NewClient(anki.Config{
		URL:                   cfg.Sync.URL,
		Deck:                  deck,
		NoteModel:             noteModel,
		Tags:                  cfg.Sync.Tags,
		LanguageTag:           cfg.Cards.LanguageTag,
		RequestTimeoutSeconds: cfg.Sync.RequestTimeout,
		PingTimeoutSeconds:    cfg.Sync.PingTimeout,
		LaunchCommand:         cfg.Sync.LaunchCommand,
		LaunchGraceSeconds:    cfg.Sync.LaunchGraceSeconds,
	}, anki.WithClock(r.now))
	if err != nil {
		return 0, fmt.Errorf("sync client: %w", err)
	}

	result, err := client.Push(ctx, batch)
	if client.LaunchAttempted() {
		logger.Info("sync service launch attempted", "command", cfg.Sync.LaunchCommand)
	}
	if err != nil {
		return 0, fmt.Errorf("sync notes: %w", err)
	}
	logger.Info("notes synced",
		"requested", result.Requested,
		"addable", result.Addable,
		"added", result.Added,
		"deck", deck,
	)

	if result.Added > 0 {
		if err := client.RefreshUI(ctx); err != nil {
			logger.Warn("ui refresh failed", "error", err)
		}
	}
	return result.Added, nil
}

// truncateQueue clears the consumed queue file after a fully successful run.
// Failure here is not fatal; the next run re-reads the same entries and the
// duplicate filter drops them.
func (r *Runner) truncateQueue(logger *slog.Logger) {
	path := r.cfg.Paths.QueueFile
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := fileutil.WriteFileAtomic(path, nil, 0o644); err != nil {
		logger.Error("queue not truncated", "error", err, "path", path)
		return
	}
	logger.Info("queue truncated", "path", path)
}

func (r *Runner) notifyOutcome(ctx context.Context, logger *slog.Logger, summary Summary, runErr error) {
	service := notify.NewService(r.cfg)
	if runErr != nil {
		if err := service.NotifyRunFailed(ctx, runErr); err != nil {
			logger.Warn("failure notification not delivered", "error", err)
		}
		return
	}
	// Runs that changed nothing stay quiet.
	if summary.Persisted == 0 && summary.Synced == 0 {
		return
	}
	if err := service.NotifyRunCompleted(ctx, summary.Persisted, summary.Synced, summary.Duration); err != nil {
		logger.Warn("completion notification not delivered", "error", err)
	}
}
