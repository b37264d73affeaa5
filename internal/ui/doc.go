// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for fare monitoring:
//  1. [RequestListView] : Browse tracked routes with their latest prices
//  2. [PriceHistoryView] : Inspect recorded price history for a route
//  3. [ConfirmSweepView] : Confirm an on-demand price sweep
//  4. [SweepView] : Monitor real-time sweep progress
//  5. [ResultView] : Display sweep statistics and failures
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the monitor engine, providing non-blocking status reporting during sweeps.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, s, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
