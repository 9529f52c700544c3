// Package tune derives layout parameters from graph shape and adjusts an
// optimization level from measured frame times.
//
// [Suggest] is the static half: a pure function mapping node and edge
// counts to physical constants (repulsion, rest length, damping, time
// step). [Governor] is the runtime half: it watches frame durations and
// raises or lowers a 0..5 optimization level that callers feed into the
// level-of-detail and batching machinery, with a cooldown so the level
// never thrashes frame to frame.
package tune
