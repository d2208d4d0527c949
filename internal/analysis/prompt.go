package analysis

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/spigell/fit-signals/internal/contract"
)

var (
	//go:embed prompts/system.md
	systemPrompt string
	//go:embed prompts/instruction.md
	instructionTemplate string
	//go:embed prompts/advice.md
	adviceTemplate string
	//go:embed prompts/interview.md
	interviewTemplate string
)

const (
	adviceSystemPrompt    = "You are a meticulous recruiter who helps candidates improve resumes for a specific role."
	interviewSystemPrompt = "You are a demanding hiring manager who designs structured interview questions and explains what each one checks."
)

// BuildInstruction renders the analysis instruction for a variant. The
// output format section is generated from the variant's field rules.
func BuildInstruction(v *contract.Variant) string {
	keys := make([]string, 0, len(v.Schema.Fields))
	for _, f := range v.Schema.Fields {
		keys = append(keys, fmt.Sprintf("%q", f.Name))
	}

	var format strings.Builder
	writeObject(&format, v.Schema, 0)

	prompt := strings.ReplaceAll(instructionTemplate, "{{KEYS}}", strings.Join(keys, ", "))
	return strings.ReplaceAll(prompt, "{{FORMAT}}", strings.TrimRight(format.String(), "\n"))
}

// UserPrompt formats both documents the way every prompt expects them.
func UserPrompt(in Input) string {
	return fmt.Sprintf("JD:\n%s\n\nResume:\n%s", in.JobDescription, in.Resume)
}

func renderDocuments(template string, in Input) string {
	prompt := strings.ReplaceAll(template, "{{JD}}", in.JobDescription)
	return strings.ReplaceAll(prompt, "{{RESUME}}", in.Resume)
}

func writeObject(sb *strings.Builder, schema *contract.Schema, depth int) {
	indent := strings.Repeat("  ", depth)
	sb.WriteString("{\n")
	for i, f := range schema.Fields {
		sb.WriteString(fmt.Sprintf("%s  %q: ", indent, f.Name))
		if f.Rule == contract.RuleObject {
			writeObject(sb, f.Schema, depth+1)
		} else {
			sb.WriteString(typeHint(f))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		if f.Description != "" {
			sb.WriteString(" // " + f.Description)
		}
		if f.Optional {
			sb.WriteString(" (optional)")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(indent + "}")
	if depth == 0 {
		sb.WriteString("\n")
	}
}

func typeHint(f contract.Field) string {
	switch f.Rule {
	case contract.RuleEnum:
		quoted := make([]string, 0, len(f.Allowed))
		for _, a := range f.Allowed {
			quoted = append(quoted, fmt.Sprintf("%q", a))
		}
		return strings.Join(quoted, " | ")
	case contract.RuleText:
		return "string"
	case contract.RuleStringList:
		items := make([]string, f.Length)
		for i := range items {
			items[i] = "string"
		}
		return "[" + strings.Join(items, ", ") + "]"
	case contract.RuleNumber:
		return fmt.Sprintf("number (%g-%g)", f.Min, f.Max)
	case contract.RulePassthrough:
		return string(f.Kind)
	default:
		return "value"
	}
}
