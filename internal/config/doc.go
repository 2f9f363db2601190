// Package config holds the format-agnostic model of a fully loaded source
// tree: the aggregated description produced by the rule loader and consumed
// by the target graph builder. The model is immutable once the loader
// returns it.
package config
