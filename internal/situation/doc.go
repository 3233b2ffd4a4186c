// Package situation aggregates situational data into the Context consumed
// by the decision layer.
//
// # Sources
//
// Six named sources feed the context, each with its own priority and cache
// TTL:
//
//	user_profile   priority 1   TTL 3600s
//	device_states  priority 2   TTL 30s
//	environment    priority 3   TTL 300s
//	weather        priority 4   TTL 1800s
//	time           priority 5   TTL 60s
//	history        priority 6   TTL 900s
//
// The time source is built in; the others are registered by the caller as
// Fetchers (device registry, history repository, weather client). A source
// with no registered fetcher is skipped, and a fetcher failure is logged
// and skipped rather than aborting the aggregation: a partial context is
// always better than none.
//
// # Caching
//
// Source data flows through a layered cache: an in-process map first, then
// the shared Redis cache under `context:{source}:{user}:{hour-bucket}`.
// The hour bucket keeps shared entries naturally scoped to the hour they
// were collected in.
//
// # Immutability
//
// Context values are never mutated in place. UpdateContext returns a new
// Context with maps merged shallowly and recent_actions appended, capped
// at the ten most recent entries.
package situation
