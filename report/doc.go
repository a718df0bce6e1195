// Package report delivers the observable state of a run to the outside
// world: key/value outputs for the calling workflow, metrics and result
// events. Every sink implements retry.Reporter.
package report
