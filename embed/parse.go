package embed

import (
	"encoding/json"
	"regexp"
	"strings"
)

var arrayPattern = regexp.MustCompile(`\[[\s\S]*?\]`)

// ParseVector extracts the first JSON array of numbers from native binary
// output. Log lines before or after the array are ignored.
func ParseVector(output []byte) ([]float32, error) {
	for _, loc := range arrayPattern.FindAllIndex(output, -1) {
		var values []float64
		if err := json.Unmarshal(output[loc[0]:loc[1]], &values); err != nil {
			continue
		}
		if len(values) == 0 {
			return nil, ErrEmptyEmbedding
		}
		vec := make([]float32, len(values))
		for i, v := range values {
			vec[i] = float32(v)
		}
		return vec, nil
	}
	return nil, &ParseError{Output: string(output)}
}

// ParseError reports output that carries no vector.
type ParseError struct {
	Output string
}

func (e *ParseError) Error() string {
	out := e.Output
	if len(out) > 200 {
		out = out[:200] + "..."
	}
	return "embed: no JSON array in output: " + strings.TrimSpace(out)
}

// sanitize folds line breaks so a text is a single argument or request line.
func sanitize(text string) string {
	if !strings.ContainsAny(text, "\r\n") {
		return text
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)
}
