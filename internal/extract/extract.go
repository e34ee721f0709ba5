// Package extract asks the model for the four profile fields and validates
// the reply against a fixed schema.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/linkmailer/linkmail/internal/llm"
	"github.com/linkmailer/linkmail/internal/profile"
	"github.com/linkmailer/linkmail/internal/retry"
)

// Kind discriminates why an extraction gave up.
type Kind int

const (
	// KindParse: the reply was not JSON after the attempt cap.
	KindParse Kind = iota
	// KindSchema: the reply was JSON but not the expected object shape.
	KindSchema
	// KindProvider: the backend refused the call (auth, quota, rate).
	KindProvider
)

// Error is the terminal failure of an extraction run.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("Extraction error: %v", e.Err) }
func (e *Error) Unwrap() error { return e.Err }

const systemInstruction = "You are a data extraction assistant. You ONLY respond with valid JSON. " +
	"Never add explanatory text, markdown formatting, or code blocks. Return pure JSON only."

// Extractor runs the extraction call with bounded retry on malformed replies.
type Extractor struct {
	Client llm.Client
	// MaxAttempts includes the initial attempt; values below 1 mean the
	// default of 3.
	MaxAttempts int
	// Delay is the fixed pause between attempts.
	Delay time.Duration
}

func (e *Extractor) attempts() int {
	if e.MaxAttempts < 1 {
		return 3
	}
	return e.MaxAttempts
}

// Extract sends normalized page text to the model and returns the validated
// profile record with URL set to sourceURL. Parse and schema failures are
// retried with the same prompt; provider failures surface immediately. The
// returned error, when non-nil, is always an *Error.
func (e *Extractor) Extract(ctx context.Context, text, sourceURL string) (profile.Record, error) {
	if e.Client == nil {
		return profile.Record{}, &Error{Kind: KindProvider, Err: errors.New("extractor not configured")}
	}
	prompt := buildPrompt(text)

	var (
		rec  profile.Record
		last *Error
	)
	err := retry.Do(ctx, retry.Policy{MaxAttempts: e.attempts(), Delay: e.Delay}, func() error {
		raw, err := e.Client.Complete(ctx, llm.Request{
			System:      systemInstruction,
			Prompt:      prompt,
			Temperature: 0,
			MaxTokens:   1000,
			JSONOnly:    true,
		})
		if err != nil {
			if errors.Is(err, llm.ErrProvider) || errors.Is(err, llm.ErrRateLimited) {
				last = &Error{Kind: KindProvider, Err: err}
				return retry.Permanent(last)
			}
			last = &Error{Kind: KindProvider, Err: err}
			return last
		}
		cleaned, err := llm.CleanJSONReply(raw)
		if err != nil {
			log.Warn().Err(err).Msg("extraction reply was not JSON")
			last = &Error{Kind: KindParse, Err: err}
			return last
		}
		fields, err := decodeFields(cleaned)
		if err != nil {
			log.Warn().Err(err).Msg("extraction reply failed schema validation")
			last = &Error{Kind: KindSchema, Err: err}
			return last
		}
		rec = profile.Record{
			Name:    fields.Name,
			Title:   fields.Title,
			Company: fields.Company,
			About:   fields.About,
			URL:     sourceURL,
		}
		return nil
	})
	if err != nil {
		if last == nil {
			last = &Error{Kind: KindProvider, Err: err}
		}
		return profile.Record{}, last
	}
	log.Info().Str("url", sourceURL).Str("name", deref(rec.Name)).Msg("extracted profile")
	return rec, nil
}

// recordFields is the fixed reply schema. Unknown keys are ignored; the four
// known keys default to null when absent.
type recordFields struct {
	Name    *string `json:"name"`
	Title   *string `json:"title"`
	Company *string `json:"company"`
	About   *string `json:"about"`
}

func decodeFields(raw json.RawMessage) (recordFields, error) {
	var f recordFields
	if err := json.Unmarshal(raw, &f); err != nil {
		return recordFields{}, err
	}
	f.Name = cleanField(f.Name)
	f.Title = cleanField(f.Title)
	f.Company = cleanField(f.Company)
	f.About = cleanField(f.About)
	return f, nil
}

// cleanField trims a value and maps whitespace-only strings to null so the
// "absent data is represented, never fabricated" rule holds downstream.
func cleanField(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func buildPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("Extract the following information from this LinkedIn profile page:\n\n")
	sb.WriteString("1. name: The person's full name\n")
	sb.WriteString("2. title: Their current job title/position\n")
	sb.WriteString("3. company: Their current company/organization\n")
	sb.WriteString("4. about: The content of their \"About\" section (if available)\n")
	sb.WriteString("\nPage content:\n")
	sb.WriteString(text)
	sb.WriteString("\n\nCRITICAL INSTRUCTIONS:\n")
	sb.WriteString("- Return ONLY a valid JSON object, nothing else\n")
	sb.WriteString("- No markdown formatting, no code blocks, no explanatory text\n")
	sb.WriteString("- Use null for fields you cannot find\n")
	sb.WriteString("- Do not invent or guess information\n")
	sb.WriteString("\nRequired JSON format:\n")
	sb.WriteString(`{"name": "value or null", "title": "value or null", "company": "value or null", "about": "value or null"}`)
	return sb.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
