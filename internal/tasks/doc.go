// Package tasks orchestrates the playlist refresh pipeline with real-time progress reporting.
//
// # Core Operations
//
// The [Searcher] collects a deduplicated episode batch for a set of topics
// using a [Strategy] (per-topic quotas or one combined query) and a
// [SortMode] (provider relevance or release recency).
//
// The [RefreshEngine] syncs a batch into the target playlist:
//   - Creates the playlist when absent and fills it in write-size chunks
//   - When present, diffs the batch against the playlist's current URIs and
//     prepends only the missing episodes, preserving batch order
//   - Stamps the playlist description with the topics and refresh date
//
// Finding nothing new to insert is a normal outcome, not an error.
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on a caller-supplied channel using
// select with default, so a slow or absent consumer never blocks the pipeline.
package tasks
