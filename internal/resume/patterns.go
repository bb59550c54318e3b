// Package resume implements the ResumeDecisionEngine component
// (spec.md §4.4): classifying a checkpointed Step into a recommended
// ResumeAction, and ranking candidate resume points.
//
// The ordered error-pattern table is grounded directly on the teacher's
// internal/executor/patterns.go KnownPatterns/DetectErrorPattern
// (first-match-wins regex classification), generalized from the teacher's
// Xcode/iOS-build vocabulary to a transport-agnostic vocabulary while
// keeping the same CODE/PLAN/ENV severity split and AgentCanFix/
// RequiresHumanIntervention flags.
package resume

import (
	"regexp"
	"strings"
)

// ErrorCategory mirrors the teacher's CODE_LEVEL/PLAN_LEVEL/ENV_LEVEL
// severity split.
type ErrorCategory int

const (
	CodeLevel ErrorCategory = iota
	PlanLevel
	EnvLevel
)

func (c ErrorCategory) String() string {
	switch c {
	case CodeLevel:
		return "CODE_LEVEL"
	case PlanLevel:
		return "PLAN_LEVEL"
	case EnvLevel:
		return "ENV_LEVEL"
	default:
		return "UNKNOWN"
	}
}

// ErrorPattern is one entry in the ordered classification table.
type ErrorPattern struct {
	Pattern                   string
	// Codes lists the canonical StepError.Code values (spec.md §4.4 rule
	// 3's network/rate_limit/timeout/type_error/reference_error/
	// syntax_error/test_failure/build_error/resource_exhausted/
	// permission_error taxonomy) this entry also matches on, independent
	// of Pattern. Not every entry has a canonical code.
	Codes                     []string
	Category                  ErrorCategory
	Suggestion                string
	AgentCanFix               bool
	RequiresHumanIntervention bool

	compiled *regexp.Regexp
}

// KnownPatterns is the ordered pattern table; first match wins. Env-level
// and plan-level entries require human intervention (not agent-fixable);
// code-level entries are retry-recoverable.
var KnownPatterns = []ErrorPattern{
	{Pattern: `connection refused|no route to host|network is unreachable`, Codes: []string{"network"}, Category: EnvLevel, Suggestion: "Network unreachable. Check connectivity and service availability.", RequiresHumanIntervention: true},
	{Pattern: `permission denied|access denied`, Codes: []string{"permission_error"}, Category: EnvLevel, Suggestion: "Permission issue. Check credentials or file/directory permissions.", RequiresHumanIntervention: true},
	{Pattern: `command not found|executable file not found`, Codes: []string{"build_error"}, Category: EnvLevel, Suggestion: "Required tool missing from PATH.", RequiresHumanIntervention: true},
	{Pattern: `no space left on device|disk quota exceeded`, Codes: []string{"resource_exhausted"}, Category: EnvLevel, Suggestion: "Disk full. Free up space before resuming.", RequiresHumanIntervention: true},

	{Pattern: `schema validation failed|unknown field|missing required field`, Category: PlanLevel, Suggestion: "Task plan references a field the target schema doesn't have. Update the plan.", RequiresHumanIntervention: true},
	{Pattern: `dependency .* not found|unknown dependency`, Category: PlanLevel, Suggestion: "A task references a dependency id that doesn't exist in the plan.", RequiresHumanIntervention: true},
	{Pattern: `circular dependency`, Category: PlanLevel, Suggestion: "The plan's dependency graph has a cycle; restructure tasks.", RequiresHumanIntervention: true},

	{Pattern: `undefined: |not defined|cannot find symbol|undeclared name`, Codes: []string{"reference_error"}, Category: CodeLevel, Suggestion: "Missing import or undefined identifier.", AgentCanFix: true},
	{Pattern: `syntax error|unexpected token`, Codes: []string{"syntax_error"}, Category: CodeLevel, Suggestion: "Syntax error in generated code.", AgentCanFix: true},
	{Pattern: `type mismatch|cannot convert|incompatible types`, Codes: []string{"type_error"}, Category: CodeLevel, Suggestion: "Type error in generated code.", AgentCanFix: true},
	{Pattern: `(?i)timed?\s*out|deadline exceeded`, Codes: []string{"timeout"}, Category: CodeLevel, Suggestion: "Operation timed out; a retry with backoff may succeed.", AgentCanFix: true},
	{Pattern: `(?i)rate limit|too many requests`, Codes: []string{"rate_limit"}, Category: CodeLevel, Suggestion: "Upstream rate limit hit; retry after backoff.", AgentCanFix: true},
	{Pattern: `FAIL.*test.*failed|assertion failed`, Codes: []string{"test_failure"}, Category: CodeLevel, Suggestion: "Test assertion failed; agent should fix the implementation.", AgentCanFix: true},
}

// DetectErrorPattern returns the first entry in KnownPatterns whose Codes
// contains code (case-insensitive, exact match) or whose Pattern matches
// message, or nil if neither field matches anything. Per spec.md §4.4
// rule 3, both fields are consulted; either one can win the match, in
// table order. Invalid regexes (none exist in KnownPatterns today, but a
// caller-extended table could have one) are skipped rather than causing
// a panic.
func DetectErrorPattern(message, code string) *ErrorPattern {
	if message == "" && code == "" {
		return nil
	}
	normalizedCode := strings.ToLower(strings.TrimSpace(code))

	for i := range KnownPatterns {
		p := &KnownPatterns[i]

		if normalizedCode != "" && hasCode(p.Codes, normalizedCode) {
			cp := *p
			return &cp
		}

		if message == "" {
			continue
		}
		if p.compiled == nil {
			re, err := regexp.Compile(p.Pattern)
			if err != nil {
				continue
			}
			p.compiled = re
		}
		if p.compiled.MatchString(message) {
			cp := *p
			return &cp
		}
	}
	return nil
}

func hasCode(codes []string, code string) bool {
	for _, c := range codes {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}
