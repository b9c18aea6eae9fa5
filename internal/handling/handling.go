// Package handling implements per-path serving policy loaded from a YAML
// config file: hide a path from being served, or register an alias that
// should be served gzip-encoded in its place. This is a direct,
// config-driven descendant of the match/hide/gzip rule set a static file
// server historically compiled in as Go structs; here it is data a
// deployment can change without a rebuild.
package handling

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v2"
)

// Rule is a single pattern-based policy entry.
type Rule struct {
	// Match is a regular expression tested against the resolved subpath.
	Match string `yaml:"match"`

	// Hide causes a matching path to resolve as though it did not
	// exist, without ever reaching the opener.
	Hide bool `yaml:"hide"`

	// GzipAlias, if non-empty, is a regexp replacement pattern (using
	// Match's capture groups) naming a pre-compressed sibling file that
	// may be served with Content-Encoding: gzip in place of the
	// original. Has no effect when Hide is set.
	GzipAlias string `yaml:"gzipAlias"`
}

type config struct {
	Rules []Rule `yaml:"rules"`
}

type compiledRule struct {
	match     *regexp.Regexp
	hide      bool
	gzipAlias string
}

// Policy is a compiled, ready-to-query set of rules.
type Policy struct {
	rules []compiledRule
}

// Load reads and compiles a YAML handling-rules file.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse compiles a handling-rules document already read into memory.
func Parse(data []byte) (*Policy, error) {
	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("handling: %w", err)
	}

	p := &Policy{rules: make([]compiledRule, 0, len(cfg.Rules))}
	for _, r := range cfg.Rules {
		re, err := regexp.Compile(r.Match)
		if err != nil {
			return nil, fmt.Errorf("handling: rule %q: %w", r.Match, err)
		}
		p.rules = append(p.rules, compiledRule{
			match:     re,
			hide:      r.Hide,
			gzipAlias: r.GzipAlias,
		})
	}
	return p, nil
}

// Hidden reports whether subpath matches a Hide rule.
func (p *Policy) Hidden(subpath string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.rules {
		if r.hide && r.match.MatchString(subpath) {
			return true
		}
	}
	return false
}

// GzipAlias returns the pre-compressed sibling path for subpath named by
// the first matching rule that has a gzip alias and is not a Hide rule,
// and whether such a rule matched.
func (p *Policy) GzipAlias(subpath string) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, r := range p.rules {
		if r.hide || r.gzipAlias == "" || !r.match.MatchString(subpath) {
			continue
		}
		return r.match.ReplaceAllString(subpath, r.gzipAlias), true
	}
	return "", false
}
