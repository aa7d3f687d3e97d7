//go:build clusterdebug

package common

// DebugChecks enables precondition assertions. Build with -tags clusterdebug to turn them on.
const DebugChecks = true
