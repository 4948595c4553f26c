// Package crawler drives the paginated walk over the home timeline.
//
// One Run fetches pages strictly in sequence. After each page it decides,
// in this order: time limit reached, no bottom cursor, page limit reached,
// otherwise pause and fetch the page after the new cursor. The cutoff is
// computed once from the clock at run start. Records keep upstream order
// and are not deduplicated.
package crawler
