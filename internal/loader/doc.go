// Package loader walks the source tree, evaluates each directory's build.hcl
// into its own scope, and merges the scopes innermost-first into one
// aggregated, root-relative description.
//
// Merging follows two policies: source, target and generate declarations are
// concatenated into the parent scope with every path rewritten to carry the
// child directory prefix, while flag overrides are merged as map entries
// keyed by directory so that one directory's flags never combine with a
// sibling's.
package loader
