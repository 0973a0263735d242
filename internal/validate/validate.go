// Package validate screens loaded records for corruption before scoring.
//
// The upstream ingestion pipeline historically wrote truncated sentence
// fragments, literal "null" strings, and mis-parsed JSON into name and
// investment columns. Corrupt records are tagged and skipped, never scored.
package validate

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ugobe007/hotmatch/internal/models"
)

// validate is a package-level singleton safe for concurrent read-only use.
// Registrations must happen in init() only.
var validate *validator.Validate

func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("clean_name", validateCleanName); err != nil {
		slog.Error("Failed to register clean_name validator", "error", err)
	}
}

// maxNameLength is the longest plausible entity name; anything longer is
// almost always a description fragment written into the name column.
const maxNameLength = 50

// fragmentPrefixes are sentence starts that indicate the name column holds
// a truncated description, not a name. Matched case-insensitively.
var fragmentPrefixes = []string{
	"the ", "and ", "of ", "a ", "an ", "to ", "in ", "for ", "with ", "our ",
}

// domainName matches bare-domain names like "stripe.com", which are the one
// legitimate form of lowercase-leading name in the corpus.
var domainName = regexp.MustCompile(`^[a-z]+\.[a-z]+`)

// badLiterals are serialization artifacts that show up as whole names.
var badLiterals = map[string]bool{
	"null":      true,
	"undefined": true,
	"unknown":   true,
	"none":      true,
	"n/a":       true,
	"nan":       true,
}

// Result is the outcome of screening one record.
type Result struct {
	OK      bool
	Reasons []string
}

func (r Result) String() string {
	if r.OK {
		return "valid"
	}

	return "corrupt: " + strings.Join(r.Reasons, "; ")
}

// Startup screens a startup record.
func Startup(s *models.Startup) Result {
	var reasons []string

	if err := validate.Struct(s); err != nil {
		reasons = append(reasons, structReasons(err)...)
	}
	reasons = append(reasons, nameReasons(s.Name)...)

	return Result{OK: len(reasons) == 0, Reasons: reasons}
}

// Investor screens an investor record, including its notable_investments
// JSONB column, which must be an array of strings when present.
func Investor(inv *models.Investor) Result {
	var reasons []string

	if err := validate.Struct(inv); err != nil {
		reasons = append(reasons, structReasons(err)...)
	}
	reasons = append(reasons, nameReasons(inv.Name)...)

	if len(inv.NotableInvestments) > 0 {
		if reason, ok := checkNotableInvestments(inv.NotableInvestments); !ok {
			reasons = append(reasons, reason)
		}
	}

	if inv.CheckSizeMin > 0 && inv.CheckSizeMax > 0 && inv.CheckSizeMin > inv.CheckSizeMax {
		reasons = append(reasons, "check size range inverted")
	}

	return Result{OK: len(reasons) == 0, Reasons: reasons}
}

// nameReasons applies the corruption heuristics to a name.
func nameReasons(name string) []string {
	var reasons []string

	trimmed := strings.TrimSpace(name)
	lower := strings.ToLower(trimmed)

	switch {
	case len(trimmed) <= 1:
		reasons = append(reasons, "name too short")
	case len(trimmed) > maxNameLength:
		reasons = append(reasons, "name exceeds max length")
	}

	if badLiterals[lower] {
		reasons = append(reasons, "name is a serialization artifact")
	}

	for _, prefix := range fragmentPrefixes {
		if strings.HasPrefix(lower, prefix) {
			reasons = append(reasons, "name looks like a sentence fragment")
			break
		}
	}

	if trimmed != "" && trimmed[0] >= 'a' && trimmed[0] <= 'z' && !domainName.MatchString(trimmed) {
		reasons = append(reasons, "name starts with lowercase")
	}

	return reasons
}

// checkNotableInvestments verifies the column decodes to an array of strings.
func checkNotableInvestments(raw json.RawMessage) (string, bool) {
	var entries []any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return "notable_investments is not a JSON array", false
	}

	for _, entry := range entries {
		if _, ok := entry.(string); !ok {
			return "notable_investments contains a non-string entry", false
		}
	}

	return "", true
}

// structReasons flattens validator errors into reason strings.
func structReasons(err error) []string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	reasons := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		reasons = append(reasons, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}

	return reasons
}

// validateCleanName is the struct-tag form of the name heuristics for
// callers that validate by tag rather than through Startup/Investor.
func validateCleanName(fl validator.FieldLevel) bool {
	return len(nameReasons(fl.Field().String())) == 0
}
