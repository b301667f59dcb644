// Package prd implements the on-disk PRD markdown format (spec.md
// §6.1): a YAML-frontmatter-plus-sections document that Parse and
// Render round-trip, following the teacher's fileblocks line-scanning
// style rather than a full markdown parser.
package prd

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ralphctl/ralphctl/internal/ralpherr"
	"github.com/ralphctl/ralphctl/internal/requirement"
	"github.com/ralphctl/ralphctl/internal/workflow"
)

// PRD is the parsed form of a `.ralph-ui/prds/<name>.md` document.
type PRD struct {
	ExecutionMode     workflow.ExecutionMode
	Title             string
	ProblemStatement  string
	TargetUsers       string
	SuccessCriteria   string
	Constraints       []string
	NonGoals          []string
	V1Requirements    []*requirement.Requirement
	V2Requirements    []*requirement.Requirement
}

type frontmatter struct {
	ExecutionMode workflow.ExecutionMode `yaml:"execution_mode"`
}

var (
	headingRe    = regexp.MustCompile(`^#\s+(.+)$`)
	subheadingRe = regexp.MustCompile(`^##\s+(.+)$`)
	reqHeadingRe = regexp.MustCompile(`^###\s+(\S+)\s+-\s+(.+)$`)
	checkboxRe   = regexp.MustCompile(`^-\s+\[( |x|X)\]\s+(.+)$`)
	userStoryRe  = regexp.MustCompile(`^\*\*User Story:\*\*\s*(.+)$`)
	dependsRe    = regexp.MustCompile(`^\*\*Dependencies:\*\*\s*(.+)$`)
)

// Render produces the markdown+frontmatter document for p.
func Render(p *PRD) (string, error) {
	fm, err := yaml.Marshal(frontmatter{ExecutionMode: p.ExecutionMode})
	if err != nil {
		return "", ralpherr.Wrap(ralpherr.KindFatal, err, "prd: marshalling frontmatter")
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	fmt.Fprintf(&b, "## Problem Statement\n\n%s\n\n", p.ProblemStatement)
	fmt.Fprintf(&b, "## Target Users\n\n%s\n\n", p.TargetUsers)
	fmt.Fprintf(&b, "## Success Criteria\n\n%s\n\n", p.SuccessCriteria)
	b.WriteString("## Constraints\n\n")
	renderBullets(&b, p.Constraints)
	b.WriteString("## Non-Goals\n\n")
	renderBullets(&b, p.NonGoals)

	b.WriteString("## V1 Requirements (Must Have)\n\n")
	for _, r := range p.V1Requirements {
		renderRequirement(&b, r)
	}
	if len(p.V2Requirements) > 0 {
		b.WriteString("## V2 Requirements (Nice to Have)\n\n")
		for _, r := range p.V2Requirements {
			renderRequirement(&b, r)
		}
	}

	return b.String(), nil
}

func renderBullets(b *strings.Builder, items []string) {
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func renderRequirement(b *strings.Builder, r *requirement.Requirement) {
	fmt.Fprintf(b, "### %s - %s\n\n", r.ID, r.Title)
	fmt.Fprintf(b, "%s\n\n", r.Description)
	if r.UserStory != "" {
		fmt.Fprintf(b, "**User Story:** %s\n\n", r.UserStory)
	}
	for _, c := range r.AcceptanceCriteria {
		fmt.Fprintf(b, "- [ ] %s\n", c)
	}
	if len(r.AcceptanceCriteria) > 0 {
		b.WriteString("\n")
	}
	if len(r.DependsOn) > 0 {
		fmt.Fprintf(b, "**Dependencies:** %s\n\n", strings.Join(r.DependsOn, ", "))
	}
}

// section names the seven fixed markdown sections a PRD body can be in.
type section int

const (
	sectionNone section = iota
	sectionProblem
	sectionUsers
	sectionCriteria
	sectionConstraints
	sectionNonGoals
	sectionV1
	sectionV2
)

// Parse reads a PRD document back into a PRD. parse(render(p)) must
// round-trip every field Render writes (spec.md §8 Laws).
func Parse(data []byte) (*PRD, error) {
	text := string(data)
	fm, body, err := splitFrontmatter(text)
	if err != nil {
		return nil, err
	}

	var front frontmatter
	if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
		return nil, ralpherr.Corruption(err, "prd: invalid frontmatter")
	}

	p := &PRD{ExecutionMode: front.ExecutionMode}
	cur := sectionNone
	var buf strings.Builder
	var curReq *requirement.Requirement
	var inV2 bool

	flushProse := func() {
		text := strings.TrimSpace(buf.String())
		buf.Reset()
		switch cur {
		case sectionProblem:
			p.ProblemStatement = text
		case sectionUsers:
			p.TargetUsers = text
		case sectionCriteria:
			p.SuccessCriteria = text
		}
	}
	flushReq := func() {
		if curReq == nil {
			return
		}
		curReq.Description = strings.TrimSpace(buf.String())
		buf.Reset()
		if inV2 {
			p.V2Requirements = append(p.V2Requirements, curReq)
		} else {
			p.V1Requirements = append(p.V1Requirements, curReq)
		}
		curReq = nil
	}

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimRight(line, "\r")

		if m := headingRe.FindStringSubmatch(trimmed); m != nil {
			p.Title = strings.TrimSpace(m[1])
			continue
		}
		if m := subheadingRe.FindStringSubmatch(trimmed); m != nil {
			flushProse()
			flushReq()
			switch strings.TrimSpace(m[1]) {
			case "Problem Statement":
				cur = sectionProblem
			case "Target Users":
				cur = sectionUsers
			case "Success Criteria":
				cur = sectionCriteria
			case "Constraints":
				cur = sectionConstraints
			case "Non-Goals":
				cur = sectionNonGoals
			case "V1 Requirements (Must Have)":
				cur = sectionV1
				inV2 = false
			case "V2 Requirements (Nice to Have)":
				cur = sectionV2
				inV2 = true
			default:
				cur = sectionNone
			}
			continue
		}
		if m := reqHeadingRe.FindStringSubmatch(trimmed); m != nil && (cur == sectionV1 || cur == sectionV2) {
			flushReq()
			curReq = newRequirementFromID(m[1], m[2])
			continue
		}

		switch cur {
		case sectionConstraints:
			if item, ok := bulletItem(trimmed); ok {
				p.Constraints = append(p.Constraints, item)
			}
		case sectionNonGoals:
			if item, ok := bulletItem(trimmed); ok {
				p.NonGoals = append(p.NonGoals, item)
			}
		case sectionV1, sectionV2:
			if curReq == nil {
				continue
			}
			if m := userStoryRe.FindStringSubmatch(trimmed); m != nil {
				curReq.UserStory = strings.TrimSpace(m[1])
				continue
			}
			if m := dependsRe.FindStringSubmatch(trimmed); m != nil {
				curReq.DependsOn = splitCSV(m[1])
				continue
			}
			if m := checkboxRe.FindStringSubmatch(trimmed); m != nil {
				curReq.AcceptanceCriteria = append(curReq.AcceptanceCriteria, strings.TrimSpace(m[2]))
				continue
			}
			if strings.TrimSpace(trimmed) != "" {
				if buf.Len() > 0 {
					buf.WriteByte('\n')
				}
				buf.WriteString(trimmed)
			}
		default:
			if strings.TrimSpace(trimmed) != "" {
				if buf.Len() > 0 {
					buf.WriteByte('\n')
				}
				buf.WriteString(trimmed)
			}
		}
	}
	flushProse()
	flushReq()

	return p, nil
}

func bulletItem(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "- ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, "- ")), true
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// newRequirementFromID reconstructs a Requirement stub from its
// markdown heading, recovering Category from the id's prefix.
func newRequirementFromID(id, title string) *requirement.Requirement {
	idx := strings.LastIndex(id, "-")
	cat := requirement.CategoryOther
	if idx > 0 {
		if c, ok := requirement.CategoryForPrefix(id[:idx]); ok {
			cat = c
		}
	}
	return &requirement.Requirement{ID: id, Title: strings.TrimSpace(title), Category: cat}
}

// splitFrontmatter separates the leading `---`-delimited YAML block
// from the markdown body.
func splitFrontmatter(text string) (fm string, body string, err error) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", text, nil
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm = strings.Join(lines[1:i], "\n")
			body = strings.Join(lines[i+1:], "\n")
			return fm, body, nil
		}
	}
	return "", "", ralpherr.Corruption(nil, "prd: unterminated frontmatter block")
}
