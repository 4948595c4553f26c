// Package timelinetest builds timeline entries and response bodies for tests.
package timelinetest

import (
	"encoding/json"
	"fmt"
	"time"

	"xdigest/pkg/timeline"
)

// Tweet describes the underlying data of a fixture tweet
type Tweet struct {
	ID        string
	Name      string
	Handle    string
	Text      string
	CreatedAt time.Time
	// RawDate overrides the formatted CreatedAt when set
	RawDate string
}

func (t Tweet) date() string {
	if t.RawDate != "" {
		return t.RawDate
	}
	return t.CreatedAt.UTC().Format(timeline.CreatedAtLayout)
}

// Result returns the tweet_results.result payload for t
func (t Tweet) Result() map[string]interface{} {
	return map[string]interface{}{
		"__typename": "Tweet",
		"rest_id":    t.ID,
		"core": map[string]interface{}{
			"user_results": map[string]interface{}{
				"result": map[string]interface{}{
					"legacy": map[string]interface{}{
						"name":        t.Name,
						"screen_name": t.Handle,
					},
				},
			},
		},
		"legacy": map[string]interface{}{
			"created_at": t.date(),
			"full_text":  t.Text,
		},
	}
}

func itemContent(result map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"itemType":      "TimelineTweet",
		"tweet_results": map[string]interface{}{"result": result},
	}
}

// Entry builds an entry from an id and an arbitrary content object
func Entry(id string, content interface{}) timeline.Entry {
	raw, err := json.Marshal(content)
	if err != nil {
		panic(err)
	}
	return timeline.Entry{EntryID: id, Content: raw}
}

// TweetEntry builds a direct tweet entry, payload under itemContent
func TweetEntry(t Tweet) timeline.Entry {
	return Entry("tweet-"+t.ID, map[string]interface{}{
		"entryType":   "TimelineTimelineItem",
		"itemContent": itemContent(t.Result()),
	})
}

// ConversationEntry builds a conversation module entry, payload under items[0].item.itemContent
func ConversationEntry(t Tweet) timeline.Entry {
	return Entry("home-conversation-"+t.ID, map[string]interface{}{
		"entryType": "TimelineTimelineModule",
		"items": []interface{}{
			map[string]interface{}{
				"entryId": fmt.Sprintf("home-conversation-%s-tweet-%s", t.ID, t.ID),
				"item":    map[string]interface{}{"itemContent": itemContent(t.Result())},
			},
		},
	})
}

// CursorEntry builds a cursor entry of the given type ("Top" or "Bottom")
func CursorEntry(cursorType, value string) timeline.Entry {
	id := "cursor-top-1"
	if cursorType == "Bottom" {
		id = "cursor-bottom-1"
	}
	return Entry(id, map[string]interface{}{
		"entryType":  "TimelineTimelineCursor",
		"cursorType": cursorType,
		"value":      value,
	})
}

// BottomCursor builds a Bottom cursor entry
func BottomCursor(value string) timeline.Entry {
	return CursorEntry("Bottom", value)
}

// Body renders a HomeLatestTimeline response carrying entries in one
// TimelineAddEntries instruction
func Body(entries ...timeline.Entry) []byte {
	if entries == nil {
		entries = []timeline.Entry{}
	}
	resp := map[string]interface{}{
		"data": map[string]interface{}{
			"home": map[string]interface{}{
				"home_timeline_urt": map[string]interface{}{
					"instructions": []interface{}{
						map[string]interface{}{"type": "TimelineClearCache"},
						map[string]interface{}{"type": "TimelineAddEntries", "entries": entries},
					},
				},
			},
		},
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		panic(err)
	}
	return raw
}
