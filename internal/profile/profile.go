package profile

import "regexp"

// Record holds the fields extracted from a single profile page. Every field
// except URL is optional: absent data is represented as nil, never guessed.
// A Record is not mutated after the extractor returns it.
type Record struct {
	Name    *string `json:"name"`
	Title   *string `json:"title"`
	Company *string `json:"company"`
	About   *string `json:"about"`
	URL     string  `json:"url"`
	Error   string  `json:"error,omitempty"`
}

// EmailDraft is a generated outreach email. Both fields are populated on any
// successful draft.
type EmailDraft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// MaxSubjectLen bounds the draft subject line.
const MaxSubjectLen = 100

// Run statuses recorded on degraded or failed results. A fully successful
// run carries no status at all.
const (
	StatusFailed  = "failed"
	StatusPartial = "partial_success"
)

// ResultRecord is the sole externally observable output of one pipeline run.
// Success leaves Error and Status empty and carries both a name and an email;
// partial success keeps the profile fields but has Email nil; total failure
// nulls every profile field and sets Status to "failed".
type ResultRecord struct {
	Name    *string     `json:"name"`
	Title   *string     `json:"title"`
	Company *string     `json:"company"`
	About   *string     `json:"about"`
	Email   *EmailDraft `json:"email"`
	URL     string      `json:"url,omitempty"`
	Error   string      `json:"error,omitempty"`
	Status  string      `json:"status,omitempty"`
	Warning string      `json:"warning,omitempty"`
}

// Failed returns the uniform failed-record shape so callers never branch on
// error kind to get a well-formed response.
func Failed(message, url string) ResultRecord {
	return ResultRecord{
		URL:    url,
		Error:  message,
		Status: StatusFailed,
	}
}

// Profile URLs are accepted under two path prefixes, with an optional
// trailing slash. Matching is prefix-anchored: query strings and extra path
// segments after the token do not invalidate the URL.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://(www\.)?linkedin\.com/in/[\w-]+/?`),
	regexp.MustCompile(`^https?://(www\.)?linkedin\.com/pub/[\w-]+/?`),
}

// ValidURL reports whether url has the shape of a public profile URL.
func ValidURL(url string) bool {
	if url == "" {
		return false
	}
	for _, p := range urlPatterns {
		if p.MatchString(url) {
			return true
		}
	}
	return false
}
