package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParsedResume is the structured output of the AI resume parser. The top-level
// key set is fixed; values keep the loose typing of the model's JSON so
// unknown sub-fields survive the round trip back to the backend. Invariant:
// after EnsureDefaults every top-level key is present, so downstream stages
// index without existence checks.
type ParsedResume map[string]any

var infoKeys = []string{"fullName", "email", "phone", "location", "linkedin", "portfolio"}

var skillCategories = []string{"programming_languages", "frameworks", "databases", "tools", "cloud", "other"}

// EnsureDefaults backfills every missing or null top-level key with its typed
// default, plus the fixed sub-keys of info and technical_skills. Returns the
// map for chaining; a nil receiver yields a fully defaulted resume.
func (p ParsedResume) EnsureDefaults() ParsedResume {
	if p == nil {
		p = ParsedResume{}
	}
	defaults := map[string]any{
		"info":                   map[string]any{},
		"education":              []any{},
		"work_experience":        []any{},
		"technical_skills":       map[string]any{},
		"certifications":         []any{},
		"projects":               []any{},
		"languages_and_skills":   []any{},
		"summary":                nil,
		"total_experience_years": float64(0),
	}
	for key, def := range defaults {
		if v, ok := p[key]; !ok || v == nil {
			p[key] = def
		}
	}
	if info, ok := p["info"].(map[string]any); ok {
		for _, key := range infoKeys {
			if _, ok := info[key]; !ok {
				info[key] = nil
			}
		}
	}
	if skills, ok := p["technical_skills"].(map[string]any); ok {
		for _, key := range skillCategories {
			if _, ok := skills[key]; !ok {
				skills[key] = []any{}
			}
		}
	}
	return p
}

// Info returns the contact block. Some upstream revisions persist it as a
// JSON-encoded string; that shape is decoded transparently.
func (p ParsedResume) Info() map[string]any {
	switch v := p["info"].(type) {
	case map[string]any:
		return v
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err == nil {
			return m
		}
	}
	return map[string]any{}
}

// FullName falls back to the legacy "name" key.
func (p ParsedResume) FullName() string {
	info := p.Info()
	if s := stringValue(info["fullName"]); s != "" {
		return s
	}
	return stringValue(info["name"])
}

func (p ParsedResume) Email() string { return stringValue(p.Info()["email"]) }

// Phone tries the key spellings used across parser revisions.
func (p ParsedResume) Phone() string {
	info := p.Info()
	for _, key := range []string{"phoneNumber", "phone", "contact"} {
		if s := stringValue(info[key]); s != "" {
			return s
		}
	}
	return ""
}

func (p ParsedResume) Summary() string { return stringValue(p["summary"]) }

// WorkExperience returns the work-history entries that decoded as objects.
func (p ParsedResume) WorkExperience() []map[string]any {
	return objectSlice(p["work_experience"])
}

func (p ParsedResume) Education() []map[string]any {
	return objectSlice(p["education"])
}

// TechnicalSkills returns the category→items map, empty when absent or shaped
// differently.
func (p ParsedResume) TechnicalSkills() map[string]any {
	if m, ok := p["technical_skills"].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func (p ParsedResume) HasWorkHistory() bool { return sliceLen(p["work_experience"]) > 0 }

func (p ParsedResume) HasEducation() bool { return sliceLen(p["education"]) > 0 }

// HasSkills reports whether any technical-skill category carries an item.
// Older revisions store skills as a flat list or free text; those count too.
func (p ParsedResume) HasSkills() bool {
	switch v := p["technical_skills"].(type) {
	case map[string]any:
		for _, items := range v {
			if sliceLen(items) > 0 {
				return true
			}
		}
	case []any:
		return len(v) > 0
	case string:
		return strings.TrimSpace(v) != ""
	}
	return false
}

// HasContactInfo reports whether the resume identifies its owner: a name, or
// an email plus phone number.
func (p ParsedResume) HasContactInfo() bool {
	if p.FullName() != "" {
		return true
	}
	return p.Email() != "" && p.Phone() != ""
}

// JobTitles collects candidate job titles from the work history and the
// contact headline. Blanks and case-insensitive duplicates are dropped, order
// preserved.
func (p ParsedResume) JobTitles() []string {
	var titles []string
	seen := map[string]bool{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		lower := strings.ToLower(s)
		if seen[lower] {
			return
		}
		seen[lower] = true
		titles = append(titles, s)
	}
	for _, exp := range p.WorkExperience() {
		for _, key := range []string{"title", "jobTitle", "position"} {
			if s := stringValue(exp[key]); s != "" {
				add(s)
				break
			}
		}
	}
	info := p.Info()
	for _, key := range []string{"title", "headline"} {
		add(stringValue(info[key]))
	}
	return titles
}

// ExperienceLines renders up to limit work entries as "title at company
// (duration)" digests for prompt embedding.
func (p ParsedResume) ExperienceLines(limit int) []string {
	var lines []string
	for _, exp := range p.WorkExperience() {
		if len(lines) >= limit {
			break
		}
		title := stringValue(exp["title"])
		if title == "" {
			title = stringValue(exp["jobTitle"])
		}
		company := stringValue(exp["company"])
		if title == "" && company == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s at %s (%s)", title, company, stringValue(exp["duration"])))
	}
	return lines
}

// EducationLines renders up to limit education entries as "degree - school"
// digests. Both the institution and legacy school keys are honored.
func (p ParsedResume) EducationLines(limit int) []string {
	var lines []string
	for _, edu := range p.Education() {
		if len(lines) >= limit {
			break
		}
		degree := stringValue(edu["degree"])
		school := stringValue(edu["institution"])
		if school == "" {
			school = stringValue(edu["school"])
		}
		if degree == "" && school == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s - %s", degree, school))
	}
	return lines
}

// TopSkills flattens the technical-skill categories, keeping at most
// perCategory items from each and max overall. Categories are visited in the
// canonical schema order, then alphabetically, so the digest is stable.
func (p ParsedResume) TopSkills(perCategory, max int) []string {
	skills := p.TechnicalSkills()
	canonical := map[string]bool{}
	for _, c := range skillCategories {
		canonical[c] = true
	}
	var extras []string
	for c := range skills {
		if !canonical[c] {
			extras = append(extras, c)
		}
	}
	sort.Strings(extras)

	var out []string
	for _, category := range append(append([]string{}, skillCategories...), extras...) {
		items, ok := skills[category].([]any)
		if !ok {
			continue
		}
		taken := 0
		for _, item := range items {
			if taken >= perCategory || len(out) >= max {
				break
			}
			if s := stringValue(item); s != "" {
				out = append(out, s)
				taken++
			}
		}
		if len(out) >= max {
			break
		}
	}
	return out
}

// stringValue coerces the loose JSON scalar types to a trimmed string.
func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

func sliceLen(v any) int {
	if s, ok := v.([]any); ok {
		return len(s)
	}
	return 0
}

func objectSlice(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
