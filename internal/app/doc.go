// Package app is the composition root: it wires the logger, the variant
// dispatcher, the rule loader, the fingerprint oracle, the dependency store
// and the action executor into one engine run.
package app
