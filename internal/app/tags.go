package app

import "strings"

// issueThreshold is the fixed policy cutoff on the 0..10 category scale:
// a category rated at or below it flags an issue.
const issueThreshold = 7.0

// tagRules is the auditable rule table. Rules evaluate independently and
// in order; adding a rule never alters existing tag semantics for inputs
// that don't match it.
var tagRules = []struct {
	category string
	tag      string
}{
	{"cleanliness", "cleanliness-issue"},
	{"communication", "communication-issue"},
	{"respect_house_rules", "house-rules-issue"},
}

// DeriveTags flags quality issues from a record's own category ratings and
// free text. Pure: it never looks at other records. The returned order is
// the rule order, so output is reproducible.
func DeriveTags(categories map[string]float64, text string) []string {
	tags := []string{}
	seen := map[string]bool{}
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}

	for _, rule := range tagRules {
		if v, ok := categories[rule.category]; ok && v <= issueThreshold {
			add(rule.tag)
		}
	}

	low := strings.ToLower(text)
	if strings.Contains(low, "dirty") || strings.Contains(low, "unclean") {
		add("cleanliness-issue")
	}

	return tags
}
