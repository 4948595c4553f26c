// Package report turns a finished crawl into output artifacts.
//
// A Publisher hands one Report to each configured Sink. File sinks render
// text or JSON and save through storage.Manager; database archives in
// internal/archive implement the same Sink interface.
package report
