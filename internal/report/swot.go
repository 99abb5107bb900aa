// Package report parses generated analysis text into structured sections.
package report

import "strings"

// SWOT holds the four sections of a parsed analysis.
type SWOT struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// ParseSWOT splits free-form analysis text into SWOT sections. Section
// headings are matched loosely (any line mentioning the section name);
// bullet lines under a heading belong to that section. Lines outside a
// recognized section are dropped.
func ParseSWOT(text string) SWOT {
	var out SWOT
	var current *[]string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "strength"):
			current = &out.Strengths
		case strings.Contains(lower, "weakness"):
			current = &out.Weaknesses
		case strings.Contains(lower, "opportunit"):
			current = &out.Opportunities
		case strings.Contains(lower, "threat"):
			current = &out.Threats
		default:
			if current == nil || !isBullet(line) {
				continue
			}
			if item := trimBullet(line); item != "" {
				*current = append(*current, item)
			}
		}
	}
	return out
}

// Sections returns how many of the four sections are non-empty.
func (s SWOT) Sections() int {
	n := 0
	for _, sec := range [][]string{s.Strengths, s.Weaknesses, s.Opportunities, s.Threats} {
		if len(sec) > 0 {
			n++
		}
	}
	return n
}

func isBullet(line string) bool {
	return strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "•")
}

func trimBullet(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "-*• \t"))
}
