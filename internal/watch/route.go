package watch

import (
	"log/slog"
	"regexp"
	"strings"
)

// Push entry grammar:
//
//	entry       := destination ( ":" sourceList )?
//	destination := segment ":" segment ":" segment
//	sourceList  := source ("," source)*
//	source      := segment | segment ":" segment ":" segment
//
// The destination is unambiguously the first three colon-separated segments;
// anything after a fourth colon is the source list, which may itself contain
// full session ids (with colons) separated by commas.
var pushEntryRe = regexp.MustCompile(`^((?:[^:]+:){2}[^:]+)(?::(.*))?$`)

// Rule is one parsed push entry: a destination session and the sources it
// accepts. An empty source set is a catch-all: it forwards every event that
// already passed the global visibility filter.
type Rule struct {
	Destination string
	Sources     []string
}

// ParseRule parses one push_list entry. ok is false for entries that do not
// match the grammar; callers skip those with a diagnostic.
func ParseRule(entry string) (Rule, bool) {
	m := pushEntryRe.FindStringSubmatch(entry)
	if m == nil {
		return Rule{}, false
	}
	rule := Rule{Destination: m[1]}
	if m[2] != "" {
		for _, s := range strings.Split(m[2], ",") {
			if s = strings.TrimSpace(s); s != "" {
				rule.Sources = append(rule.Sources, s)
			}
		}
	}
	return rule, true
}

// Match reports whether the rule forwards events from the given session.
// Source tokens are compared literally against both the full session id and
// the bare group id, with no normalization.
func (r Rule) Match(sid, groupID string) bool {
	if len(r.Sources) == 0 {
		return true
	}
	for _, s := range r.Sources {
		if s == sid || s == groupID {
			return true
		}
	}
	return false
}

// Destinations evaluates every push entry against an event and returns the
// matching destination session ids. Malformed entries are skipped, never
// fatal. Rules are re-derived from the configured strings on each call; the
// list is immutable during a dispatch cycle.
func Destinations(pushList []string, sid, groupID string) []string {
	var dests []string
	for _, entry := range pushList {
		rule, ok := ParseRule(entry)
		if !ok {
			slog.Debug("push entry does not match grammar, skipped", "entry", entry)
			continue
		}
		if rule.Match(sid, groupID) {
			dests = append(dests, rule.Destination)
		}
	}
	return dests
}
