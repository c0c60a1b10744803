// Package logging writes countryscope's structured logs to a size-rotated
// JSON file under ~/.countryscope/logs/ and reads them back for the
// `countryscope logs` command.
//
// The interactive TUI owns the terminal, so its logs go to the file only.
// Other commands may mirror them to stderr.
package logging
