package pipeline_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wordmill/internal/card"
	"wordmill/internal/config"
	"wordmill/internal/ledger"
	"wordmill/internal/pipeline"
	"wordmill/internal/store"
	"wordmill/internal/testsupport"
)

var runDay = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newRunner(t *testing.T, cfg *config.Config) *pipeline.Runner {
	t.Helper()
	return pipeline.New(cfg, nil, pipeline.WithClock(func() time.Time { return runDay }))
}

func cardJSON(wordEN, wordPT, sentencePT, sentenceEN string) string {
	data, err := json.Marshal(map[string]string{
		"word_en":     wordEN,
		"word_pt":     wordPT,
		"sentence_pt": sentencePT,
		"sentence_en": sentenceEN,
	})
	if err != nil {
		panic(err)
	}
	return string(data)
}

func focusEnergyCards() map[string]string {
	return map[string]string{
		"focus":  cardJSON("focus", "foco", "Preciso de mais foco para acabar o relatório esta semana.", "I need more focus to finish the report this week."),
		"energy": cardJSON("energy", "energia", "Depois do almoço tenho sempre pouca energia para trabalhar.", "After lunch I always have little energy to work."),
	}
}

func chatCompletionBody(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     90,
			"completion_tokens": 60,
			"total_tokens":      150,
		},
	}
}

// newEnrichmentServer answers chat completions with the canned card for the
// lemma named in the user prompt. Lemmas listed in failures get a 400, which
// the client treats as non-retryable.
func newEnrichmentServer(t *testing.T, calls *int, cards map[string]string, failures ...string) *httptest.Server {
	t.Helper()
	failing := make(map[string]bool, len(failures))
	for _, lemma := range failures {
		failing[lemma] = true
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			t.Errorf("decode enrichment request: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		user := req.Messages[len(req.Messages)-1].Content
		for lemma := range failing {
			if strings.Contains(user, "Target word: "+lemma+"\n") {
				http.Error(w, `{"error":{"message":"synthetic failure"}}`, http.StatusBadRequest)
				return
			}
		}
		for lemma, content := range cards {
			if strings.Contains(user, "Target word: "+lemma+"\n") {
				if err := json.NewEncoder(w).Encode(chatCompletionBody(content)); err != nil {
					t.Errorf("encode enrichment response: %v", err)
				}
				return
			}
		}
		t.Errorf("no canned card for prompt %q", user)
		http.Error(w, "unknown lemma", http.StatusBadRequest)
	}))
	t.Cleanup(server.Close)
	return server
}

type rpcCall struct {
	Action  string          `json:"action"`
	Version int             `json:"version"`
	Params  json.RawMessage `json:"params"`
}

func noteCount(t *testing.T, params json.RawMessage) int {
	t.Helper()
	var decoded struct {
		Notes []json.RawMessage `json:"notes"`
	}
	if err := json.Unmarshal(params, &decoded); err != nil {
		t.Errorf("decode notes params: %v", err)
		return 0
	}
	return len(decoded.Notes)
}

// newConnectServer records AnkiConnect calls. A nil respond answers every
// action positively: all notes addable, all notes added.
func newConnectServer(t *testing.T, calls *[]rpcCall, respond func(call rpcCall) any) *httptest.Server {
	t.Helper()
	if respond == nil {
		respond = func(call rpcCall) any {
			switch call.Action {
			case "version":
				return 6
			case "canAddNotes":
				answers := make([]bool, noteCount(t, call.Params))
				for i := range answers {
					answers[i] = true
				}
				return answers
			case "addNotes":
				ids := make([]any, noteCount(t, call.Params))
				for i := range ids {
					ids[i] = 1700000001111 + i
				}
				return ids
			case "gui.refreshAll":
				return nil
			default:
				t.Errorf("unexpected action %q", call.Action)
				return nil
			}
		}
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
			t.Errorf("decode connect request: %v", err)
			return
		}
		*calls = append(*calls, call)
		if err := json.NewEncoder(w).Encode(map[string]any{"result": respond(call), "error": nil}); err != nil {
			t.Errorf("encode connect response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func storeCards(t *testing.T, cfg *config.Config) []card.Card {
	t.Helper()
	st, err := store.New(context.Background(), store.Config{Backend: cfg.Store.Backend, Path: cfg.Paths.StoreFile})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	cards, err := st.Cards(context.Background())
	if err != nil {
		t.Fatalf("store cards: %v", err)
	}
	return cards
}

func TestRunEndToEnd(t *testing.T) {
	var enrichCalls int
	enrichServer := newEnrichmentServer(t, &enrichCalls, focusEnergyCards())
	var connectCalls []rpcCall
	connectServer := newConnectServer(t, &connectCalls, nil)

	cfg := testsupport.NewConfig(t,
		testsupport.WithEnrichmentBaseURL(enrichServer.URL),
		testsupport.WithSyncURL(connectServer.URL),
	)
	testsupport.WriteFile(t, cfg.Paths.QueueFile, `{"entries":"focus, energy"}`+"\n")

	summary, err := newRunner(t, cfg).Run(context.Background(), pipeline.RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 2 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Errorf("candidate counts: got %+v", summary)
	}
	if summary.Persisted != 2 || summary.Synced != 2 {
		t.Errorf("outcome counts: got %+v", summary)
	}

	cards := storeCards(t, cfg)
	if len(cards) != 2 {
		t.Fatalf("store rows: got %d want 2", len(cards))
	}
	if cards[0].WordEN != "focus" || cards[1].WordEN != "energy" {
		t.Errorf("store order: got %q, %q", cards[0].WordEN, cards[1].WordEN)
	}
	for _, c := range cards {
		if c.DateAdded != "2026-03-14" {
			t.Errorf("date stamp: got %q", c.DateAdded)
		}
	}

	snapshot := testsupport.ReadFile(t, cfg.Paths.SnapshotFile)
	if !strings.HasPrefix(snapshot, "word_en,word_pt,sentence_pt,sentence_en,date_added") {
		t.Errorf("snapshot header: got %q", snapshot)
	}
	if lines := strings.Count(snapshot, "\n"); lines != 3 {
		t.Errorf("snapshot lines: got %d want 3", lines)
	}

	if queue := testsupport.ReadFile(t, cfg.Paths.QueueFile); queue != "" {
		t.Errorf("queue not truncated: %q", queue)
	}

	if len(connectCalls) != 3 ||
		connectCalls[0].Action != "canAddNotes" ||
		connectCalls[1].Action != "addNotes" ||
		connectCalls[2].Action != "gui.refreshAll" {
		t.Fatalf("connect actions: got %+v", connectCalls)
	}
	if n := noteCount(t, connectCalls[1].Params); n != 2 {
		t.Errorf("committed notes: got %d want 2", n)
	}
	if enrichCalls != 2 {
		t.Errorf("enrichment calls: got %d want 2", enrichCalls)
	}

	led := testsupport.MustOpenLedger(t, cfg)
	runs, err := led.RecentRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("ledger rows: got %d want 1", len(runs))
	}
	rec := runs[0]
	if rec.RunID != summary.RunID || rec.Status != ledger.StatusCompleted {
		t.Errorf("ledger record: got %+v", rec)
	}
	if rec.Processed != 2 || rec.Persisted != 2 || rec.Synced != 2 {
		t.Errorf("ledger counters: got %+v", rec)
	}
}

func TestRunSecondPassPersistsNothing(t *testing.T) {
	var enrichCalls int
	enrichServer := newEnrichmentServer(t, &enrichCalls, focusEnergyCards())
	var connectCalls []rpcCall
	connectServer := newConnectServer(t, &connectCalls, nil)

	cfg := testsupport.NewConfig(t,
		testsupport.WithEnrichmentBaseURL(enrichServer.URL),
		testsupport.WithSyncURL(connectServer.URL),
	)
	runner := newRunner(t, cfg)

	testsupport.WriteFile(t, cfg.Paths.QueueFile, `{"entries":"focus, energy"}`+"\n")
	if _, err := runner.Run(context.Background(), pipeline.RunOptions{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	// The same capture lands again after the first run consumed the queue.
	testsupport.WriteFile(t, cfg.Paths.QueueFile, `{"entries":"focus, energy"}`+"\n")
	summary, err := runner.Run(context.Background(), pipeline.RunOptions{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if summary.Processed != 0 || summary.Skipped != 2 || summary.Persisted != 0 || summary.Synced != 0 {
		t.Errorf("second run counts: got %+v", summary)
	}
	if got := len(storeCards(t, cfg)); got != 2 {
		t.Errorf("store rows after second run: got %d want 2", got)
	}
	if enrichCalls != 2 {
		t.Errorf("enrichment calls: got %d want 2", enrichCalls)
	}
	if len(connectCalls) != 3 {
		t.Errorf("connect calls after second run: got %d want 3", len(connectCalls))
	}
	if queue := testsupport.ReadFile(t, cfg.Paths.QueueFile); queue != "" {
		t.Errorf("queue kept by deduplicated run: %q", queue)
	}

	led := testsupport.MustOpenLedger(t, cfg)
	runs, err := led.RecentRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ledger rows: got %d want 2", len(runs))
	}
	if runs[0].Status != ledger.StatusNoop || runs[1].Status != ledger.StatusCompleted {
		t.Errorf("ledger statuses: got %q, %q", runs[0].Status, runs[1].Status)
	}
}

func TestRunPartialFailureKeepsGoing(t *testing.T) {
	var enrichCalls int
	enrichServer := newEnrichmentServer(t, &enrichCalls, focusEnergyCards(), "energy")
	var connectCalls []rpcCall
	connectServer := newConnectServer(t, &connectCalls, nil)

	cfg := testsupport.NewConfig(t,
		testsupport.WithEnrichmentBaseURL(enrichServer.URL),
		testsupport.WithSyncURL(connectServer.URL),
	)
	testsupport.WriteFile(t, cfg.Paths.QueueFile, `{"entries":"focus, energy"}`+"\n")

	summary, err := newRunner(t, cfg).Run(context.Background(), pipeline.RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 2 || summary.Failed != 1 || summary.Persisted != 1 || summary.Synced != 1 {
		t.Errorf("summary: got %+v", summary)
	}

	cards := storeCards(t, cfg)
	if len(cards) != 1 || cards[0].WordEN != "focus" {
		t.Fatalf("store rows: got %+v", cards)
	}
	snapshot := testsupport.ReadFile(t, cfg.Paths.SnapshotFile)
	if lines := strings.Count(snapshot, "\n"); lines != 2 {
		t.Errorf("snapshot lines: got %d want 2", lines)
	}
	if queue := testsupport.ReadFile(t, cfg.Paths.QueueFile); queue != "" {
		t.Errorf("queue not truncated: %q", queue)
	}

	led := testsupport.MustOpenLedger(t, cfg)
	runs, err := led.RecentRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != ledger.StatusCompleted || runs[0].Failed != 1 {
		t.Fatalf("ledger record: got %+v", runs)
	}
}

func TestRunTotalEnrichmentFailureAborts(t *testing.T) {
	var enrichCalls int
	enrichServer := newEnrichmentServer(t, &enrichCalls, nil, "focus", "energy")
	var connectCalls []rpcCall
	connectServer := newConnectServer(t, &connectCalls, nil)

	cfg := testsupport.NewConfig(t,
		testsupport.WithEnrichmentBaseURL(enrichServer.URL),
		testsupport.WithSyncURL(connectServer.URL),
	)
	queueLine := `{"entries":"focus, energy"}` + "\n"
	testsupport.WriteFile(t, cfg.Paths.QueueFile, queueLine)

	summary, err := newRunner(t, cfg).Run(context.Background(), pipeline.RunOptions{})
	if err == nil || !strings.Contains(err.Error(), "all 2 candidates") {
		t.Fatalf("expected total failure error, got %v", err)
	}
	if summary.Processed != 2 || summary.Failed != 2 || summary.Persisted != 0 || summary.Synced != 0 {
		t.Errorf("summary: got %+v", summary)
	}

	if _, statErr := os.Stat(cfg.Paths.StoreFile); !os.IsNotExist(statErr) {
		t.Errorf("store file written on aborted run: %v", statErr)
	}
	snapshot := testsupport.ReadFile(t, cfg.Paths.SnapshotFile)
	if snapshot != "word_en,word_pt,sentence_pt,sentence_en,date_added\n" {
		t.Errorf("snapshot: got %q", snapshot)
	}
	if got := testsupport.ReadFile(t, cfg.Paths.QueueFile); got != queueLine {
		t.Errorf("queue changed on fatal run: got %q", got)
	}
	if len(connectCalls) != 0 {
		t.Errorf("sync reached on fatal run: %+v", connectCalls)
	}

	led := testsupport.MustOpenLedger(t, cfg)
	runs, err := led.RecentRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != ledger.StatusFailed {
		t.Fatalf("ledger record: got %+v", runs)
	}
	if !strings.Contains(runs[0].ErrorMessage, "all 2 candidates") {
		t.Errorf("ledger error message: got %q", runs[0].ErrorMessage)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	var enrichCalls int
	enrichServer := newEnrichmentServer(t, &enrichCalls, focusEnergyCards())
	var connectCalls []rpcCall
	connectServer := newConnectServer(t, &connectCalls, nil)

	cfg := testsupport.NewConfig(t,
		testsupport.WithEnrichmentBaseURL(enrichServer.URL),
		testsupport.WithSyncURL(connectServer.URL),
	)
	queueLine := `{"entries":"focus, energy"}` + "\n"
	testsupport.WriteFile(t, cfg.Paths.QueueFile, queueLine)
	fragment := filepath.Join(cfg.Paths.InboxDir, "quick-phone.jsonl")
	testsupport.WriteFile(t, fragment, `{"word":"harvest"}`+"\n")

	summary, err := newRunner(t, cfg).Run(context.Background(), pipeline.RunOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !summary.DryRun || summary.Processed != 2 || summary.Persisted != 2 || summary.Synced != 0 {
		t.Errorf("summary: got %+v", summary)
	}
	if enrichCalls != 2 {
		t.Errorf("enrichment calls: got %d want 2", enrichCalls)
	}

	for _, path := range []string{
		cfg.Paths.StoreFile,
		cfg.Paths.SnapshotFile,
		filepath.Join(cfg.Paths.StateDir, ledger.DatabaseFileName),
	} {
		if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
			t.Errorf("%s written during dry run", path)
		}
	}
	if got := testsupport.ReadFile(t, cfg.Paths.QueueFile); got != queueLine {
		t.Errorf("queue changed by dry run: got %q", got)
	}
	if _, statErr := os.Stat(fragment); statErr != nil {
		t.Errorf("fragment touched by dry run: %v", statErr)
	}
	if len(connectCalls) != 0 {
		t.Errorf("sync called during dry run: %+v", connectCalls)
	}
}

func TestRunEmptyQueueIsNoop(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSyncDisabled())

	summary, err := newRunner(t, cfg).Run(context.Background(), pipeline.RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 0 || summary.Skipped != 0 || summary.Persisted != 0 {
		t.Errorf("summary: got %+v", summary)
	}
	if _, statErr := os.Stat(cfg.Paths.SnapshotFile); !os.IsNotExist(statErr) {
		t.Error("snapshot written by noop run")
	}

	led := testsupport.MustOpenLedger(t, cfg)
	runs, err := led.RecentRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != ledger.StatusNoop {
		t.Fatalf("ledger record: got %+v", runs)
	}
}

func TestRunLimitDefersRemainder(t *testing.T) {
	cards := focusEnergyCards()
	cards["harvest"] = cardJSON("harvest", "colheita", "A colheita deste ano começou mais cedo por causa do calor.", "This year's harvest started earlier because of the heat.")
	var enrichCalls int
	enrichServer := newEnrichmentServer(t, &enrichCalls, cards)
	var connectCalls []rpcCall
	connectServer := newConnectServer(t, &connectCalls, nil)

	cfg := testsupport.NewConfig(t,
		testsupport.WithEnrichmentBaseURL(enrichServer.URL),
		testsupport.WithSyncURL(connectServer.URL),
	)
	testsupport.WriteQueue(t, cfg.Paths.QueueFile, "focus", "energy", "harvest")
	runner := newRunner(t, cfg)

	summary, err := runner.Run(context.Background(), pipeline.RunOptions{Limit: 2})
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if summary.Processed != 2 || summary.Persisted != 2 {
		t.Errorf("first run summary: got %+v", summary)
	}
	if queue := testsupport.ReadFile(t, cfg.Paths.QueueFile); queue == "" {
		t.Fatal("queue cleared while entries were deferred")
	}

	summary, err = runner.Run(context.Background(), pipeline.RunOptions{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if summary.Processed != 1 || summary.Skipped != 2 || summary.Persisted != 1 {
		t.Errorf("second run summary: got %+v", summary)
	}
	if got := len(storeCards(t, cfg)); got != 3 {
		t.Errorf("store rows: got %d want 3", got)
	}
	if queue := testsupport.ReadFile(t, cfg.Paths.QueueFile); queue != "" {
		t.Errorf("queue kept after full run: %q", queue)
	}
	if enrichCalls != 3 {
		t.Errorf("enrichment calls: got %d want 3", enrichCalls)
	}
}

func TestRunCollapsesDuplicateSentences(t *testing.T) {
	cards := map[string]string{
		"cheer":    cardJSON("cheer up", "animar-se", "Ele <b>animou-se</b> logo que recebeu a boa notícia.", "He cheered up as soon as he got the good news."),
		"cheer up": cardJSON("Cheer Up", "animar-se", "Ele animou-se  logo que recebeu a boa notícia.", "He cheered up as soon as he got the good news."),
	}
	var enrichCalls int
	enrichServer := newEnrichmentServer(t, &enrichCalls, cards)

	cfg := testsupport.NewConfig(t,
		testsupport.WithEnrichmentBaseURL(enrichServer.URL),
		testsupport.WithSyncDisabled(),
	)
	testsupport.WriteQueue(t, cfg.Paths.QueueFile, "cheer", "cheer up")

	summary, err := newRunner(t, cfg).Run(context.Background(), pipeline.RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 2 || summary.Skipped != 1 || summary.Persisted != 1 {
		t.Errorf("summary: got %+v", summary)
	}
	stored := storeCards(t, cfg)
	if len(stored) != 1 || stored[0].WordEN != "cheer up" {
		t.Fatalf("store rows: got %+v", stored)
	}
}

func TestRunCollectionScopeSkipsLocalWordCheck(t *testing.T) {
	cards := map[string]string{
		"focus": cardJSON("focus", "foco", "Sem foco não consigo estudar à noite.", "Without focus I cannot study at night."),
	}
	var enrichCalls int
	enrichServer := newEnrichmentServer(t, &enrichCalls, cards)
	var connectCalls []rpcCall
	connectServer := newConnectServer(t, &connectCalls, func(call rpcCall) any {
		if call.Action != "canAddNotes" {
			t.Errorf("unexpected action %q", call.Action)
			return nil
		}
		// The deck already holds this word.
		return []bool{false}
	})

	cfg := testsupport.NewConfig(t,
		testsupport.WithEnrichmentBaseURL(enrichServer.URL),
		testsupport.WithSyncURL(connectServer.URL),
	)
	cfg.Dedup.WordScope = "collection"
	testsupport.WriteFile(t, cfg.Paths.StoreFile,
		"word_en,word_pt,sentence_pt,sentence_en,date_added\n"+
			"focus,foco,Já tinha perdido o foco antes do almoço.,I had already lost focus before lunch.,2026-01-02\n")
	testsupport.WriteQueue(t, cfg.Paths.QueueFile, "focus")

	summary, err := newRunner(t, cfg).Run(context.Background(), pipeline.RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 1 || summary.Skipped != 0 || summary.Persisted != 1 || summary.Synced != 0 {
		t.Errorf("summary: got %+v", summary)
	}
	if got := len(storeCards(t, cfg)); got != 2 {
		t.Errorf("store rows: got %d want 2", got)
	}
	if len(connectCalls) != 1 || connectCalls[0].Action != "canAddNotes" {
		t.Fatalf("connect actions: got %+v", connectCalls)
	}
}

func TestRunMergesCaptureFragments(t *testing.T) {
	cards := map[string]string{
		"harvest": cardJSON("harvest", "colheita", "A colheita deste ano começou mais cedo por causa do calor.", "This year's harvest started earlier because of the heat."),
	}
	var enrichCalls int
	enrichServer := newEnrichmentServer(t, &enrichCalls, cards)

	cfg := testsupport.NewConfig(t,
		testsupport.WithEnrichmentBaseURL(enrichServer.URL),
		testsupport.WithSyncDisabled(),
	)
	fragment := filepath.Join(cfg.Paths.InboxDir, "quick-phone.jsonl")
	testsupport.WriteFile(t, fragment, `{"word":"harvest"}`+"\n")

	summary, err := newRunner(t, cfg).Run(context.Background(), pipeline.RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 1 || summary.Persisted != 1 {
		t.Errorf("summary: got %+v", summary)
	}
	if _, statErr := os.Stat(fragment); !os.IsNotExist(statErr) {
		t.Error("fragment not archived")
	}
	archived, err := filepath.Glob(fragment + ".*.done")
	if err != nil || len(archived) != 1 {
		t.Errorf("archived fragments: got %v (%v)", archived, err)
	}
	if got := len(storeCards(t, cfg)); got != 1 {
		t.Errorf("store rows: got %d want 1", got)
	}
}

func TestRunDeckOverride(t *testing.T) {
	cards := map[string]string{
		"harvest": cardJSON("harvest", "colheita", "A colheita deste ano começou mais cedo por causa do calor.", "This year's harvest started earlier because of the heat."),
	}
	var enrichCalls int
	enrichServer := newEnrichmentServer(t, &enrichCalls, cards)
	var connectCalls []rpcCall
	connectServer := newConnectServer(t, &connectCalls, nil)

	cfg := testsupport.NewConfig(t,
		testsupport.WithEnrichmentBaseURL(enrichServer.URL),
		testsupport.WithSyncURL(connectServer.URL),
	)
	testsupport.WriteQueue(t, cfg.Paths.QueueFile, "harvest")

	summary, err := newRunner(t, cfg).Run(context.Background(), pipeline.RunOptions{Deck: "Scratch", NoteModel: "Basic"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Synced != 1 {
		t.Errorf("synced: got %d want 1", summary.Synced)
	}
	if len(connectCalls) < 2 || connectCalls[1].Action != "addNotes" {
		t.Fatalf("connect actions: got %+v", connectCalls)
	}
	var params struct {
		Notes []struct {
			DeckName  string `json:"deckName"`
			ModelName string `json:"modelName"`
		} `json:"notes"`
	}
	if err := json.Unmarshal(connectCalls[1].Params, &params); err != nil {
		t.Fatalf("decode addNotes params: %v", err)
	}
	if len(params.Notes) != 1 || params.Notes[0].DeckName != "Scratch" || params.Notes[0].ModelName != "Basic" {
		t.Errorf("note target: got %+v", params.Notes)
	}
}

func TestRunNotifiesOutcome(t *testing.T) {
	type notification struct {
		title string
		body  string
	}
	var sent []notification
	ntfyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read ntfy body: %v", err)
		}
		sent = append(sent, notification{title: r.Header.Get("Title"), body: string(body)})
	}))
	t.Cleanup(ntfyServer.Close)

	var enrichCalls int
	enrichServer := newEnrichmentServer(t, &enrichCalls, focusEnergyCards(), "harvest")

	cfg := testsupport.NewConfig(t,
		testsupport.WithEnrichmentBaseURL(enrichServer.URL),
		testsupport.WithSyncDisabled(),
	)
	cfg.Notifications.NtfyTopic = ntfyServer.URL
	runner := newRunner(t, cfg)

	testsupport.WriteFile(t, cfg.Paths.QueueFile, `{"entries":"focus, energy"}`+"\n")
	if _, err := runner.Run(context.Background(), pipeline.RunOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sent) != 1 || sent[0].title != "Wordmill - Run Complete" {
		t.Fatalf("notifications after success: got %+v", sent)
	}
	if !strings.Contains(sent[0].body, "2 cards persisted") {
		t.Errorf("completion body: got %q", sent[0].body)
	}

	// The queue is empty now; a noop run stays silent.
	if _, err := runner.Run(context.Background(), pipeline.RunOptions{}); err != nil {
		t.Fatalf("noop Run: %v", err)
	}
	if len(sent) != 1 {
		t.Fatalf("noop run notified: got %+v", sent)
	}

	testsupport.WriteQueue(t, cfg.Paths.QueueFile, "harvest")
	if _, err := runner.Run(context.Background(), pipeline.RunOptions{}); err == nil {
		t.Fatal("expected failing run")
	}
	if len(sent) != 2 || sent[1].title != "Wordmill - Run Failed" {
		t.Fatalf("notifications after failure: got %+v", sent)
	}
}
