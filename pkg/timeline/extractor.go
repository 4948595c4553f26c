package timeline

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CreatedAtLayout is the platform's created_at format
const CreatedAtLayout = "Mon Jan 02 15:04:05 -0700 2006"

// PermalinkBase is the host permalinks are built on
const PermalinkBase = "https://x.com"

// Kind discriminates an Extraction
type Kind int

const (
	KindNone Kind = iota
	KindCursor
	KindTweet
)

func (k Kind) String() string {
	switch k {
	case KindCursor:
		return "cursor"
	case KindTweet:
		return "tweet"
	default:
		return "none"
	}
}

// SkipReason says why a tweet-bearing entry produced no record
type SkipReason string

const (
	SkipMalformed SkipReason = "malformed_entry"
	SkipBadDate   SkipReason = "bad_date"
)

// BadDatePolicy decides what happens to a tweet whose created_at does not parse
type BadDatePolicy string

const (
	// BadDateSkip drops the entry and reports SkipBadDate
	BadDateSkip BadDatePolicy = "skip"
	// BadDateNow keeps the entry, stamped with the window's Now
	BadDateNow BadDatePolicy = "now"
)

// Extraction is the result of examining one entry.
// Exactly one of Cursor or Tweet is set, matching Kind.
type Extraction struct {
	Kind   Kind
	Cursor Cursor
	Tweet  *TweetRecord

	// Skip is set on a KindNone result for a tweet-bearing entry that was dropped
	Skip SkipReason
	// DateFallback is set when the tweet's timestamp was substituted
	DateFallback bool
}

// Extractor turns raw entries into cursors and tweet records.
// It holds no mutable state; Extract is a pure function of its input.
type Extractor struct {
	policy   BadDatePolicy
	fallback time.Time
}

// NewExtractor creates an extractor for one run. The window's Now is the
// substitute timestamp under BadDateNow; any unknown policy acts as BadDateSkip.
func NewExtractor(policy BadDatePolicy, w Window) *Extractor {
	if policy != BadDateNow {
		policy = BadDateSkip
	}
	return &Extractor{policy: policy, fallback: w.Now}
}

// tweetShape locates the tweet payload inside one kind of entry content
type tweetShape struct {
	name  string
	match func(c *entryContent) *tweetResult
}

// tweetShapes are tried in order; the first that yields a payload wins
var tweetShapes = []tweetShape{
	{name: "item_content", match: func(c *entryContent) *tweetResult {
		if c.ItemContent == nil {
			return nil
		}
		return c.ItemContent.TweetResults.Result
	}},
	{name: "module_items", match: func(c *entryContent) *tweetResult {
		if len(c.Items) == 0 || c.Items[0].Item.ItemContent == nil {
			return nil
		}
		return c.Items[0].Item.ItemContent.TweetResults.Result
	}},
}

var tweetEntryPrefixes = []string{"tweet-", "home-conversation-"}

// IsTweetEntry reports whether the entry id names a tweet or a conversation module
func IsTweetEntry(entryID string) bool {
	for _, p := range tweetEntryPrefixes {
		if strings.HasPrefix(entryID, p) {
			return true
		}
	}
	return false
}

// IsCursorEntry reports whether the entry id names a pagination cursor
func IsCursorEntry(entryID string) bool {
	return strings.HasPrefix(entryID, "cursor-")
}

// Extract examines one entry
func (x *Extractor) Extract(e Entry) Extraction {
	if c, ok := matchCursor(e); ok {
		return Extraction{Kind: KindCursor, Cursor: c}
	}
	if !IsTweetEntry(e.EntryID) {
		return Extraction{Kind: KindNone}
	}

	var content entryContent
	if err := json.Unmarshal(e.Content, &content); err != nil {
		return Extraction{Kind: KindNone, Skip: SkipMalformed}
	}

	var payload *tweetResult
	for _, shape := range tweetShapes {
		if payload = shape.match(&content); payload != nil {
			break
		}
	}

	fields, ok := coreFields(payload)
	if !ok {
		return Extraction{Kind: KindNone, Skip: SkipMalformed}
	}

	created, err := time.Parse(CreatedAtLayout, fields.createdAt)
	fellBack := false
	if err != nil {
		if x.policy == BadDateSkip {
			return Extraction{Kind: KindNone, Skip: SkipBadDate}
		}
		created = x.fallback
		fellBack = true
	}

	return Extraction{
		Kind: KindTweet,
		Tweet: &TweetRecord{
			ID:           fields.id,
			CreatedAt:    created.UTC(),
			AuthorName:   fields.name,
			AuthorHandle: fields.handle,
			Text:         NormalizeText(fields.text),
			Permalink:    Permalink(fields.handle, fields.id),
		},
		DateFallback: fellBack,
	}
}

func matchCursor(e Entry) (Cursor, bool) {
	if !IsCursorEntry(e.EntryID) {
		return "", false
	}
	var content entryContent
	if err := json.Unmarshal(e.Content, &content); err != nil {
		return "", false
	}
	if content.CursorType != "Bottom" || content.Value == "" {
		return "", false
	}
	return Cursor(content.Value), true
}

type tweetFields struct {
	id, createdAt, text, name, handle string
}

// coreFields pulls the required fields out of a payload, unwrapping
// TweetWithVisibilityResults. ok is false when any of them is missing;
// an empty full_text is allowed since media-only tweets carry none.
func coreFields(r *tweetResult) (tweetFields, bool) {
	if r != nil && r.Tweet != nil && (r.Legacy == nil || r.TypeName == "TweetWithVisibilityResults") {
		r = r.Tweet
	}
	if r == nil || r.RestID == "" || r.Legacy == nil || r.Legacy.CreatedAt == "" || r.Core == nil {
		return tweetFields{}, false
	}

	user := r.Core.UserResults.Result
	if user == nil {
		return tweetFields{}, false
	}
	names := user.Legacy
	if names == nil || names.ScreenName == "" {
		names = user.Core
	}
	if names == nil || names.ScreenName == "" {
		return tweetFields{}, false
	}

	text := r.Legacy.FullText
	if r.NoteTweet != nil && r.NoteTweet.NoteTweetResults.Result != nil && r.NoteTweet.NoteTweetResults.Result.Text != "" {
		text = r.NoteTweet.NoteTweetResults.Result.Text
	}

	return tweetFields{
		id:        r.RestID,
		createdAt: r.Legacy.CreatedAt,
		text:      text,
		name:      names.Name,
		handle:    names.ScreenName,
	}, true
}

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// NormalizeText replaces line breaks with single spaces
func NormalizeText(s string) string {
	return newlineReplacer.Replace(s)
}

// Permalink builds the public URL of a tweet
func Permalink(handle, id string) string {
	return fmt.Sprintf("%s/%s/status/%s", PermalinkBase, handle, id)
}
