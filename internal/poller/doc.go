// Package poller tracks one generation until it finishes.
//
// Poll issues a status query right away, then one query per interval after
// the previous one resolved, so queries never overlap. A pending status is
// reported through OnSnapshot; completed and error end the poll through
// OnTerminal or OnError. Transient failures (transport errors, 5xx, bad
// payloads, per-query timeouts) are retried up to MaxRetries consecutive
// times before the poll fails with a *PollError.
//
// Token.Cancel stops a poll. After it returns no further query starts and
// no callback fires, even for a response that was already in flight.
//
// Time goes through a Scheduler. WallClock uses real timers; tests drive a
// ManualScheduler and advance virtual time explicitly.
package poller
