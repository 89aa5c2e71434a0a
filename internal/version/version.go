// Package version carries the module version.
package version

// Current is the semantic version of the sommelier module, without a "v"
// prefix.
const Current = "0.1.0"
