// Package domain contains the core types of the lead intake service: the
// submitted lead, its ordered survey answers, and the per-sink results of
// dispatching it. The types are free of transport concerns so the HTTP handler,
// the CLI and every sink adapter can share them.
package domain
