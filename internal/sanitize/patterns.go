package sanitize

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Rule pairs a regular expression with the label its matches receive.
type Rule struct {
	Pattern string `yaml:"pattern"`
	Label   string `yaml:"label"`
}

// DefaultRules is the built-in table of structured secrets and identifiers.
// Order matters only for the order findings are reported in.
var DefaultRules = []Rule{
	{`sk-[a-zA-Z0-9]{20,}`, "openai_key"},
	{`ghp_[a-zA-Z0-9]{36,}`, "github_token"},
	{`(?i)(?:AKIA|ASIA)[A-Z0-9]{16}`, "aws_access_key"},
	{`(?i)bearer\s+[a-zA-Z0-9\-._~+/]+=*`, "bearer_token"},
	{`(?i)(password|pwd|passwd)\s*[:=]\s*\S+`, "password"},
	{`\b[A-Z]{2,}[A-Z0-9]{8,}\b`, "generic_key"},
	{`\b[a-f0-9]{32,}\b`, "hash_or_key"},
	{`\b\d{3}-\d{2}-\d{4}\b`, "ssn"},
	{`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`, "credit_card"},
	{`\b[A-Za-z0-9._%+-]+(?:\s*@\s*|\s+at\s+)[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`, "email_address"},
	{`(?:\+?\d{1,3}[- .]?)?\(?\d{3}\)?[- .]?\d{3}[- .]?\d{4,}`, "phone_number"},
	{`\+\d{1,3}\s?\d{4,}`, "phone_number"},
}

type compiledRule struct {
	re    *regexp.Regexp
	label string
}

// Matcher flags structured secrets with a fixed, ordered rule table.
// It is immutable after construction and safe for concurrent use.
type Matcher struct {
	rules []compiledRule
}

// NewMatcher compiles rules. It fails on the first invalid pattern.
func NewMatcher(rules []Rule) (*Matcher, error) {
	m := &Matcher{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("sanitize: rule %d (%s): %w", i, r.Label, err)
		}
		m.rules = append(m.rules, compiledRule{re: re, label: r.Label})
	}
	return m, nil
}

// DefaultMatcher returns a Matcher over DefaultRules.
func DefaultMatcher() *Matcher {
	m, err := NewMatcher(DefaultRules)
	if err != nil {
		panic(err)
	}
	return m
}

// Len returns the number of rules.
func (m *Matcher) Len() int { return len(m.rules) }

// Match returns every match of every rule. Matches of one rule never overlap
// each other; matches of different rules may, and are left for Dedup.
func (m *Matcher) Match(text string) []Finding {
	if text == "" {
		return nil
	}
	var out []Finding
	for _, r := range m.rules {
		for _, loc := range r.re.FindAllStringIndex(text, -1) {
			if loc[0] == loc[1] {
				continue
			}
			out = append(out, Finding{
				Text:   text[loc[0]:loc[1]],
				Label:  r.label,
				Score:  1.0,
				Start:  loc[0],
				End:    loc[1],
				Source: SourcePattern,
			})
		}
	}
	return out
}

// RulesFile is the YAML layout accepted by LoadRules.
//
//	disable_defaults: false
//	rules:
//	  - pattern: 'EMP-\d{6}'
//	    label: employee_id
type RulesFile struct {
	DisableDefaults bool   `yaml:"disable_defaults"`
	Rules           []Rule `yaml:"rules"`
}

// LoadRules reads a rule table file and returns the effective rule list:
// DefaultRules followed by the file's rules, unless defaults are disabled.
// An empty path returns DefaultRules.
func LoadRules(path string) ([]Rule, error) {
	if path == "" {
		return DefaultRules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sanitize: read rules: %w", err)
	}
	var f RulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("sanitize: parse rules %s: %w", path, err)
	}
	for i, r := range f.Rules {
		if r.Pattern == "" || r.Label == "" {
			return nil, fmt.Errorf("sanitize: rules %s: entry %d needs pattern and label", path, i+1)
		}
	}

	var rules []Rule
	if !f.DisableDefaults {
		rules = append(rules, DefaultRules...)
	}
	return append(rules, f.Rules...), nil
}
