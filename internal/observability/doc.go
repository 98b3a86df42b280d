// Package observability provides the cost meter, the append-only JSONL event
// log, usage metrics derived from it, and the Slack incident notifier.
package observability
