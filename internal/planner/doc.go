// Package planner decides which (category, postal code) keys still need to be
// fetched. A key is pending until it has either an output artifact (a result
// CSV in the category's output directory) or an entry in the skip log (it was
// tried and had no establishments). Plan and Resume are pure; ScanOutputDir
// and ReadSkipLog build their inputs from disk, and Ledger records outcomes
// so that a re-run after a crash resumes with the reduced queue.
package planner
