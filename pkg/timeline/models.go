package timeline

import (
	"encoding/json"
	"time"
)

// Cursor is the opaque bottom pagination token of a page. The empty
// cursor means the page carried none.
type Cursor string

// TweetRecord is one normalized tweet collected by a crawl
type TweetRecord struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	AuthorName   string    `json:"author_name"`
	AuthorHandle string    `json:"author_handle"`
	Text         string    `json:"text"`
	Permalink    string    `json:"permalink"`
}

// Response is the decoded HomeLatestTimeline body
type Response struct {
	Data   *ResponseData `json:"data"`
	Errors []APIError    `json:"errors"`
}

// ResponseData holds the timeline part of a response
type ResponseData struct {
	Home struct {
		Timeline struct {
			Instructions []Instruction `json:"instructions"`
		} `json:"home_timeline_urt"`
	} `json:"home"`
}

// APIError is one element of the upstream errors array
type APIError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Instruction is one timeline instruction
type Instruction struct {
	Type    string  `json:"type"`
	Entries []Entry `json:"entries"`
	Entry   *Entry  `json:"entry"`
}

// Entry is one raw timeline entry. Content is kept undecoded until the
// extractor decides which shape it has.
type Entry struct {
	EntryID   string          `json:"entryId"`
	SortIndex string          `json:"sortIndex"`
	Content   json.RawMessage `json:"content"`
}

// Page is one fetched page of entries, in upstream order
type Page struct {
	Entries []Entry
}

// NewPage flattens the entry-bearing instructions of a response into a Page.
// TimelineAddEntries contributes its entries and TimelineReplaceEntry its
// single entry; other instruction types carry no entries.
func NewPage(resp *Response) *Page {
	page := &Page{}
	if resp == nil || resp.Data == nil {
		return page
	}
	for _, instr := range resp.Data.Home.Timeline.Instructions {
		switch instr.Type {
		case "TimelineAddEntries":
			page.Entries = append(page.Entries, instr.Entries...)
		case "TimelineReplaceEntry":
			if instr.Entry != nil {
				page.Entries = append(page.Entries, *instr.Entry)
			}
		}
	}
	return page
}

// BottomCursor returns the last Bottom cursor on the page, or "" when
// the page has none.
func (p *Page) BottomCursor() Cursor {
	var cursor Cursor
	for _, e := range p.Entries {
		if c, ok := matchCursor(e); ok {
			cursor = c
		}
	}
	return cursor
}

// entryContent covers the fields of every entry shape the extractor reads
type entryContent struct {
	EntryType   string       `json:"entryType"`
	CursorType  string       `json:"cursorType"`
	Value       string       `json:"value"`
	ItemContent *itemContent `json:"itemContent"`
	Items       []moduleItem `json:"items"`
}

type moduleItem struct {
	EntryID string `json:"entryId"`
	Item    struct {
		ItemContent *itemContent `json:"itemContent"`
	} `json:"item"`
}

type itemContent struct {
	ItemType     string `json:"itemType"`
	TweetResults struct {
		Result *tweetResult `json:"result"`
	} `json:"tweet_results"`
}

type tweetResult struct {
	TypeName string       `json:"__typename"`
	RestID   string       `json:"rest_id"`
	Tweet    *tweetResult `json:"tweet"`
	Core     *struct {
		UserResults struct {
			Result *userResult `json:"result"`
		} `json:"user_results"`
	} `json:"core"`
	Legacy    *tweetLegacy `json:"legacy"`
	NoteTweet *struct {
		NoteTweetResults struct {
			Result *struct {
				Text string `json:"text"`
			} `json:"result"`
		} `json:"note_tweet_results"`
	} `json:"note_tweet"`
}

type tweetLegacy struct {
	CreatedAt string `json:"created_at"`
	FullText  string `json:"full_text"`
}

type userResult struct {
	Legacy *userNames `json:"legacy"`
	Core   *userNames `json:"core"`
}

type userNames struct {
	Name       string `json:"name"`
	ScreenName string `json:"screen_name"`
}
