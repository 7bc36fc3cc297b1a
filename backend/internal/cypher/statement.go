// Package cypher translates model names and plain-data maps into parameterized
// Cypher statements. Values only ever travel as parameters; identifiers that end
// up in query text are validated first.
package cypher

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "neo4j-connector/backend/pkg/errors"
)

// NodeVar is the variable every generated statement binds the matched node to.
const NodeVar = "n"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Statement is query text plus its bound parameters.
type Statement struct {
	Text   string
	Params map[string]any
}

// ValidateIdentifier rejects anything that is not a plain Cypher identifier.
func ValidateIdentifier(kind, name string) error {
	if !identifierPattern.MatchString(name) {
		return apperrors.NewValidationFailed(kind, fmt.Sprintf("%q is not a valid identifier", name))
	}
	return nil
}

// Label maps a model name to its type label by upper-casing the first letter.
func Label(model string) (string, error) {
	if model == "" {
		return "", apperrors.NewValidationFailed("model", "name is empty")
	}
	r, size := utf8.DecodeRuneInString(model)
	label := string(unicode.ToUpper(r)) + model[size:]
	if err := ValidateIdentifier("model", label); err != nil {
		return "", err
	}
	return label, nil
}

// PatternBlock renders {a: $a, b: $b} for the given fields, keys sorted so the
// text is stable. Parameter names carry prefix when a statement binds several
// maps. An empty map yields an empty block.
func PatternBlock(fields map[string]any, prefix string) (string, map[string]any, error) {
	params := make(map[string]any, len(fields))
	if len(fields) == 0 {
		return "", params, nil
	}

	keys := sortedKeys(fields)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := ValidateIdentifier("field", key); err != nil {
			return "", nil, err
		}
		param := prefix + key
		parts = append(parts, fmt.Sprintf("%s: $%s", key, param))
		params[param] = fields[key]
	}

	return "{" + strings.Join(parts, ", ") + "}", params, nil
}

// ValidateFields checks every key of a map destined to be a property map parameter.
func ValidateFields(data map[string]any) error {
	for key := range data {
		if err := ValidateIdentifier("field", key); err != nil {
			return err
		}
	}
	return nil
}

func nodePattern(label, block string) string {
	if block == "" {
		return fmt.Sprintf("(%s:%s)", NodeVar, label)
	}
	return fmt.Sprintf("(%s:%s %s)", NodeVar, label, block)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func merge(dst, src map[string]any) map[string]any {
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
