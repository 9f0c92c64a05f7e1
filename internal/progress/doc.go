// Package progress draws an mpb progress bar for long-running engine work.
//
// A Bar polls its Source on every refresh tick, consuming the repaint flag,
// and mirrors the progress fraction and status message. Follow returns once
// the tracked task is done.
package progress
