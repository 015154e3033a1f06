package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	contextTag      = "<relevant-memories>"
	contextEndTag   = "</relevant-memories>"
	minPromptChars  = 5
	recallLimit     = 3
	recallMinScore  = 0.3
	maxCapturedText = 3
)

// Message is one conversation turn. Content holds plain text; Parts holds
// structured content blocks, of which only type "text" is read.
type Message struct {
	Role    string
	Content string
	Parts   []Part
}

// Part is a structured content block.
type Part struct {
	Type string
	Text string
}

// AutoRecall returns a context block of memories relevant to prompt, or ""
// when the prompt is too short or nothing relevant is stored.
func (s *Service) AutoRecall(ctx context.Context, prompt string) (string, error) {
	if utf8.RuneCountInString(prompt) < minPromptChars {
		return "", nil
	}
	results, err := s.Recall(ctx, prompt, recallLimit, recallMinScore)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}
	s.logger.Info("injecting memories into context", "count", len(results))
	return FormatContext(results), nil
}

// FormatContext renders results as a <relevant-memories> block.
func FormatContext(results []Result) string {
	var b strings.Builder
	b.WriteString(contextTag)
	b.WriteString("\nThe following memories may be relevant to this conversation:\n")
	for i, r := range results {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- [%s] %s", r.Category, r.Text)
	}
	b.WriteString("\n")
	b.WriteString(contextEndTag)
	return b.String()
}

// AutoCapture stores up to three capturable user or assistant texts from
// messages, skipping ones already remembered. It returns how many were
// stored.
func (s *Service) AutoCapture(ctx context.Context, messages []Message) (int, error) {
	var candidates []string
	for _, m := range messages {
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		for _, text := range m.texts() {
			if text != "" && ShouldCapture(text) {
				candidates = append(candidates, text)
			}
		}
	}
	if len(candidates) > maxCapturedText {
		candidates = candidates[:maxCapturedText]
	}
	stored := 0
	for _, text := range candidates {
		_, err := s.Store(ctx, text, DefaultImportance, DetectCategory(text))
		if errors.Is(err, ErrDuplicate) {
			continue
		}
		if err != nil {
			return stored, err
		}
		stored++
	}
	if stored > 0 {
		s.logger.Info("auto-captured memories", "count", stored)
	}
	return stored, nil
}

func (m Message) texts() []string {
	var out []string
	if m.Content != "" {
		out = append(out, m.Content)
	}
	for _, p := range m.Parts {
		if p.Type == "text" {
			out = append(out, p.Text)
		}
	}
	return out
}
