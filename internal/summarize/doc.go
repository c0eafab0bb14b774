// Package summarize turns transcript text into structured results (summary,
// tags, title) or refined text through an ordered chain of generation
// backends: the local backend first, then the remote fallback when a
// credential is configured. The chain never surfaces an error to the
// pipeline; exhaustion yields an explicit "no engine available" sentinel.
package summarize
