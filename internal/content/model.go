// Package content manages the public site's articles and FAQs.
package content

import (
	"regexp"
	"strings"
	"time"
)

// timestampLayout pads fractional seconds to nine digits so the createdAt
// sort key orders lexicographically by creation time.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Article is a published health article shown on the public site.
type Article struct {
	ID        string `json:"id" dynamodbav:"id"`
	Title     string `json:"title" dynamodbav:"title"`
	Body      string `json:"body" dynamodbav:"body"` // HTML fragment
	ImageURL  string `json:"image_url,omitempty" dynamodbav:"imageUrl,omitempty"`
	Author    string `json:"author,omitempty" dynamodbav:"author,omitempty"`
	Snippet   string `json:"snippet,omitempty" dynamodbav:"snippet,omitempty"`
	CreatedAt string `json:"created_at" dynamodbav:"createdAt"`
}

// FAQ is a question/answer pair shown on the public site.
type FAQ struct {
	ID        string `json:"id" dynamodbav:"id"`
	Question  string `json:"question" dynamodbav:"question"`
	Answer    string `json:"answer" dynamodbav:"answer"`
	CreatedAt string `json:"created_at" dynamodbav:"createdAt"`
}

// CreatedTime parses the article's creation timestamp.
func (a *Article) CreatedTime() time.Time {
	t, _ := time.Parse(time.RFC3339Nano, a.CreatedAt)
	return t
}

const snippetLength = 150

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Snippet derives the list-view preview from an article body: tags
// stripped, whitespace collapsed, truncated to 150 runes.
func Snippet(body string) string {
	text := tagPattern.ReplaceAllString(body, " ")
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return strings.TrimSpace(string(runes[:snippetLength])) + "..."
}
