// Package report collects consistency findings.
//
// A check reports through LabelScanConsistencyReport. Each worker of a pass
// owns one Buffer; a Collector merges all buffers once the workers have
// joined and returns the findings in a deterministic order.
package report
