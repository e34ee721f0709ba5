// Package draft turns a validated profile record into a personalized
// outreach email via the model.
package draft

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

// Kind discriminates drafting failures.
type Kind int

const (
	KindJSONParse Kind = iota
	KindSchema
	KindRateLimited
	KindProvider
	KindUnexpected
)

// Error is the terminal failure of a drafting run. Message formats mirror
// the original tool so downstream consumers keep matching on them.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.message() }
func (e *Error) Unwrap() error { return e.Err }

func (e *Error) message() string {
	switch e.Kind {
	case KindJSONParse:
		return fmt.Sprintf("Failed to parse valid JSON: %v", e.Err)
	case KindSchema:
		return fmt.Sprintf("Failed to validate email schema: %v", e.Err)
	case KindRateLimited:
		return "Rate limit exceeded. Please try again later."
	case KindProvider:
		return fmt.Sprintf("Provider API error: %v", e.Err)
	default:
		return fmt.Sprintf("Email generation error: %v", e.Err)
	}
}

const systemInstruction = "You are an expert at writing professional, personalized emails. " +
	"You ONLY respond with valid JSON containing 'subject' and 'body' fields. " +
	"Never add explanatory text or markdown."

// Drafter runs the drafting call with bounded retry on malformed replies.
// Rate-limit and provider failures terminate immediately.
type Drafter struct {
	Client llm.Client
	// MaxAttempts includes the initial attempt; values below 1 mean the
	// default of 3.
	MaxAttempts int
	// Delay is the fixed pause between attempts.
	Delay time.Duration
}

func (d *Drafter) attempts() int {
	if d.MaxAttempts < 1 {
		return 3
	}
	return d.MaxAttempts
}

// Draft generates the outreach email for rec. On success both fields of the
// returned draft are populated. The returned error, when non-nil, is always
// an *Error.
func (d *Drafter) Draft(ctx context.Context, rec profile.Record) (profile.EmailDraft, error) {
	if d.Client == nil {
		return profile.EmailDraft{}, &Error{Kind: KindUnexpected, Err: errors.New("drafter not configured")}
	}
	prompt := buildPrompt(rec)

	var (
		out  profile.EmailDraft
		last *Error
	)
	err := retry.Do(ctx, retry.Policy{MaxAttempts: d.attempts(), Delay: d.Delay}, func() error {
		raw, err := d.Client.Complete(ctx, llm.Request{
			System:      systemInstruction,
			Prompt:      prompt,
			Temperature: 0.7,
			MaxTokens:   500,
			JSONOnly:    true,
		})
		if err != nil {
			switch {
			case errors.Is(err, llm.ErrRateLimited):
				last = &Error{Kind: KindRateLimited, Err: err}
			case errors.Is(err, llm.ErrProvider):
				last = &Error{Kind: KindProvider, Err: err}
			default:
				last = &Error{Kind: KindUnexpected, Err: err}
				return last
			}
			return retry.Permanent(last)
		}
		cleaned, err := llm.CleanJSONReply(raw)
		if err != nil {
			log.Warn().Err(err).Msg("draft reply was not JSON")
			last = &Error{Kind: KindJSONParse, Err: err}
			return last
		}
		draft, err := validateDraft(cleaned)
		if err != nil {
			log.Warn().Err(err).Msg("draft reply failed schema validation")
			last = &Error{Kind: KindSchema, Err: err}
			return last
		}
		out = draft
		return nil
	})
	if err != nil {
		if last == nil {
			last = &Error{Kind: KindUnexpected, Err: err}
		}
		return profile.EmailDraft{}, last
	}
	log.Info().Str("subject", out.Subject).Msg("email draft generated")
	return out, nil
}

func validateDraft(raw []byte) (profile.EmailDraft, error) {
	var fields struct {
		Subject *string `json:"subject"`
		Body    *string `json:"body"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return profile.EmailDraft{}, err
	}
	if fields.Subject == nil || strings.TrimSpace(*fields.Subject) == "" {
		return profile.EmailDraft{}, errors.New("missing subject")
	}
	if fields.Body == nil || strings.TrimSpace(*fields.Body) == "" {
		return profile.EmailDraft{}, errors.New("missing body")
	}
	subject := strings.TrimSpace(*fields.Subject)
	if len([]rune(subject)) > profile.MaxSubjectLen {
		return profile.EmailDraft{}, fmt.Errorf("subject exceeds %d characters", profile.MaxSubjectLen)
	}
	return profile.EmailDraft{Subject: subject, Body: *fields.Body}, nil
}

func buildPrompt(rec profile.Record) string {
	name := orPlaceholder(rec.Name, "the person")
	title := orPlaceholder(rec.Title, "their current role")
	company := orPlaceholder(rec.Company, "their company")

	var sb strings.Builder
	sb.WriteString("Generate a professional and personalized email to reach out to someone on LinkedIn.\n\n")
	sb.WriteString("Profile Information:\n")
	sb.WriteString("- Name: " + name + "\n")
	sb.WriteString("- Current Position: " + title + "\n")
	sb.WriteString("- Company: " + company)
	if rec.About != nil && strings.TrimSpace(*rec.About) != "" {
		sb.WriteString("\n- About: " + *rec.About)
	}
	sb.WriteString("\n\nRequirements:\n")
	sb.WriteString("1. Create a compelling subject line (max 60 characters)\n")
	sb.WriteString("2. Write a personalized email body that:\n")
	sb.WriteString("   - References specific details from their profile\n")
	sb.WriteString("   - Sounds genuine and professional\n")
	sb.WriteString("   - Is concise (2-3 paragraphs max)\n")
	sb.WriteString("   - Has a clear purpose or call to action\n")
	sb.WriteString("   - Avoids being overly salesy or generic\n")
	sb.WriteString("\nCRITICAL: Return ONLY a JSON object with this exact structure:\n")
	sb.WriteString(`{"subject": "your subject line", "body": "your email body"}`)
	sb.WriteString("\n\nNo markdown, no code blocks, no additional text - just pure JSON.")
	return sb.String()
}

func orPlaceholder(s *string, placeholder string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return placeholder
	}
	return *s
}
