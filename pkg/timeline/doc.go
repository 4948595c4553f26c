// Package timeline talks to the home timeline endpoint of the API proxy and
// turns its entries into TweetRecords.
//
// Client.FetchPage performs one request per call and never retries. The
// Extractor recognises cursor entries, direct tweet entries and conversation
// modules, and reports entries it had to drop as a SkipReason instead of an
// error. Window fixes the time horizon of a run.
package timeline
