// Package enrich turns a normalized lemma into a bilingual vocabulary card
// by calling the configured text-generation collaborator.
//
// # Transports
//
// Three transports are supported, selected once at startup via configuration
// rather than by runtime probing:
//
//   - "http": a direct chat-completions client over net/http
//   - "sdk-public": the OpenAI SDK against the public API
//   - "sdk-azure": the OpenAI SDK against an Azure deployment
//
// Every transport normalizes its response at the boundary into one Result
// shape (content, token usage, call metadata). Nothing downstream branches
// on which transport produced a card.
//
// # Response Handling
//
// Model output is sanitized (smart quotes to ASCII), stripped of Markdown
// code fences, and parsed as JSON; when direct parsing fails the first
// {...} block is extracted and parsed instead. A response missing any of
// the four card fields fails with an error naming the field. Callers treat
// enrichment failures as per-item: one bad response never aborts a batch.
//
// # Retry Behaviour
//
// The http transport retries HTTP 408/429/5xx and network timeouts with
// exponential backoff (base 1s, cap 10s, 5 attempts by default) and honors
// Retry-After. Context cancellation aborts retries immediately.
package enrich
