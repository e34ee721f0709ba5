package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/linkmailer/linkmail/internal/profile"
)

// FormatResult renders a ResultRecord as indented JSON with HTML escaping
// disabled, matching the original tool's output bytes.
func FormatResult(rec profile.ResultRecord) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		// ResultRecord contains only marshal-safe fields.
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return buf.String()
}

// WriteResult persists the run's ResultRecord as a JSON sidecar. The
// artifact is a debugging convenience, so failures are logged rather than
// propagated.
func WriteResult(path string, rec profile.ResultRecord) {
	if path == "" {
		return
	}
	if err := os.WriteFile(path, []byte(FormatResult(rec)), 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could not write result artifact")
		return
	}
	log.Info().Str("path", path).Msg("wrote result artifact")
}
