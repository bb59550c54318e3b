// Package respparse implements a reference ResponseParser (the external
// collaborator from spec.md §6): turning an agent's raw text output into
// a structured model.AgentResponse.
//
// Grounded in the teacher's internal/parser/markdown.go, which leans on
// regex-driven section/code-block extraction (its parseTestCommands and
// removeCodeBlocks helpers) rather than a strict single-format parser.
// This parser applies the same "try the structured form, fall back to
// a looser text scan" shape: a fenced ```json block if present, else a
// bare JSON document, else a heuristic plain-text summary.
package respparse

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/wavecore/execore/internal/model"
)

var (
	jsonFenceRE = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n```")
	errorLineRE = regexp.MustCompile(`(?mi)^(error|fatal|failed):\s*(.+)$`)
)

// Parser extracts a model.AgentResponse from raw agent output.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

// Parse tries, in order: a fenced JSON code block, a bare JSON document
// spanning the whole trimmed input, then a heuristic plain-text fallback
// that treats the first "Error:"/"Failed:" line (if any) as a failure
// signal and the rest of the text as the summary.
func (p *Parser) Parse(raw string) (ok bool, data *model.AgentResponse, errMsg string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false, nil, "empty agent output"
	}

	if match := jsonFenceRE.FindStringSubmatch(trimmed); match != nil {
		if resp, err := decodeJSON(match[1]); err == nil {
			return true, resp, ""
		}
	}

	if looksLikeJSON(trimmed) {
		if resp, err := decodeJSON(trimmed); err == nil {
			return true, resp, ""
		}
	}

	return p.parsePlainText(trimmed)
}

func looksLikeJSON(s string) bool {
	return strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")
}

func decodeJSON(s string) (*model.AgentResponse, error) {
	var resp model.AgentResponse
	if err := json.Unmarshal([]byte(s), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (p *Parser) parsePlainText(text string) (bool, *model.AgentResponse, string) {
	if m := errorLineRE.FindStringSubmatch(text); m != nil {
		return true, &model.AgentResponse{Success: false, Errors: []string{strings.TrimSpace(m[2])}, Summary: text}, ""
	}
	return true, &model.AgentResponse{Success: true, Summary: text}, ""
}
