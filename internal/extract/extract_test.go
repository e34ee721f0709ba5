package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/linkmailer/linkmail/internal/llm"
)

// scriptedClient returns queued replies (or errors) in order and counts calls.
type scriptedClient struct {
	replies []string
	errs    []error
	calls   int
	lastReq llm.Request
}

func (c *scriptedClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	i := c.calls
	c.calls++
	c.lastReq = req
	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	if i < len(c.replies) {
		return c.replies[i], nil
	}
	return "", errors.New("script exhausted")
}

const validReply = `{"name":"Jane Doe","title":"Engineer","company":"Acme","about":null}`

func TestExtract_Success(t *testing.T) {
	c := &scriptedClient{replies: []string{validReply}}
	e := &Extractor{Client: c, MaxAttempts: 3}
	rec, err := e.Extract(context.Background(), "Jane Doe - Engineer at Acme", "https://www.linkedin.com/in/jane-doe")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec.Name == nil || *rec.Name != "Jane Doe" {
		t.Fatalf("expected name, got %+v", rec)
	}
	if rec.About != nil {
		t.Fatalf("expected null about, got %q", *rec.About)
	}
	if rec.URL != "https://www.linkedin.com/in/jane-doe" {
		t.Fatalf("expected source URL on record, got %q", rec.URL)
	}
	if c.calls != 1 {
		t.Fatalf("expected 1 call, got %d", c.calls)
	}
}

func TestExtract_RequestShape(t *testing.T) {
	c := &scriptedClient{replies: []string{validReply}}
	e := &Extractor{Client: c}
	_, err := e.Extract(context.Background(), "PAGE-TEXT-MARKER", "https://www.linkedin.com/in/x")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if c.lastReq.Temperature != 0 {
		t.Fatalf("extraction must be deterministic, got temperature %v", c.lastReq.Temperature)
	}
	if !c.lastReq.JSONOnly {
		t.Fatal("expected a JSON-only request")
	}
	if !strings.Contains(c.lastReq.Prompt, "PAGE-TEXT-MARKER") {
		t.Fatal("expected page text embedded in prompt")
	}
	for _, want := range []string{"name", "title", "company", "about", "Do not invent or guess"} {
		if !strings.Contains(c.lastReq.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestExtract_RetriesMalformedJSONThenSucceeds(t *testing.T) {
	c := &scriptedClient{replies: []string{"not json", "{broken", validReply}}
	e := &Extractor{Client: c, MaxAttempts: 3}
	rec, err := e.Extract(context.Background(), "text", "https://www.linkedin.com/in/x")
	if err != nil {
		t.Fatalf("expected third attempt to succeed, got %v", err)
	}
	if c.calls != 3 {
		t.Fatalf("expected exactly 3 calls, got %d", c.calls)
	}
	if rec.Name == nil || *rec.Name != "Jane Doe" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestExtract_ExhaustsAttempts(t *testing.T) {
	c := &scriptedClient{replies: []string{"nope", "nope", "nope", "nope"}}
	e := &Extractor{Client: c, MaxAttempts: 3}
	_, err := e.Extract(context.Background(), "text", "https://www.linkedin.com/in/x")
	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if c.calls != 3 {
		t.Fatalf("expected exactly 3 calls, got %d", c.calls)
	}
	var xerr *Error
	if !errors.As(err, &xerr) || xerr.Kind != KindParse {
		t.Fatalf("expected parse-kind error, got %v", err)
	}
}

func TestExtract_SchemaMismatchIsRetried(t *testing.T) {
	// JSON, but name is an object: schema validation fails, next attempt wins.
	c := &scriptedClient{replies: []string{`{"name":{"first":"Jane"}}`, validReply}}
	e := &Extractor{Client: c, MaxAttempts: 3}
	rec, err := e.Extract(context.Background(), "text", "https://www.linkedin.com/in/x")
	if err != nil {
		t.Fatalf("expected recovery on second attempt, got %v", err)
	}
	if c.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", c.calls)
	}
	if rec.Name == nil {
		t.Fatal("expected populated record")
	}
}

func TestExtract_ArrayReplyUnwrapped(t *testing.T) {
	c := &scriptedClient{replies: []string{`[` + validReply + `]`}}
	e := &Extractor{Client: c}
	rec, err := e.Extract(context.Background(), "text", "https://www.linkedin.com/in/x")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec.Name == nil || *rec.Name != "Jane Doe" {
		t.Fatalf("expected unwrapped array element, got %+v", rec)
	}
}

func TestExtract_FencedReplyAccepted(t *testing.T) {
	c := &scriptedClient{replies: []string{"```json\n" + validReply + "\n```"}}
	e := &Extractor{Client: c}
	if _, err := e.Extract(context.Background(), "text", "https://www.linkedin.com/in/x"); err != nil {
		t.Fatalf("extract: %v", err)
	}
}

func TestExtract_ProviderErrorNotRetried(t *testing.T) {
	c := &scriptedClient{errs: []error{llm.ErrRateLimited, nil, nil}, replies: []string{"", validReply, validReply}}
	e := &Extractor{Client: c, MaxAttempts: 3}
	_, err := e.Extract(context.Background(), "text", "https://www.linkedin.com/in/x")
	if err == nil {
		t.Fatal("expected provider error to surface")
	}
	if c.calls != 1 {
		t.Fatalf("provider errors must not consume retries; got %d calls", c.calls)
	}
	var xerr *Error
	if !errors.As(err, &xerr) || xerr.Kind != KindProvider {
		t.Fatalf("expected provider-kind error, got %v", err)
	}
}

func TestExtract_WhitespaceFieldsBecomeNull(t *testing.T) {
	c := &scriptedClient{replies: []string{`{"name":"Jane Doe","title":"  ","company":null}`}}
	e := &Extractor{Client: c}
	rec, err := e.Extract(context.Background(), "text", "https://www.linkedin.com/in/x")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec.Title != nil {
		t.Fatalf("whitespace-only title should be null, got %q", *rec.Title)
	}
	if rec.About != nil {
		t.Fatal("missing about key should default to null")
	}
}
