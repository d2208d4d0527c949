package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spigell/fit-signals/internal/contract"
)

var variantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "List schema variants and their fields",
	Run: func(_ *cobra.Command, _ []string) {
		printVariants(os.Stdout, contract.DefaultRegistry())
	},
}

func init() {
	rootCmd.AddCommand(variantsCmd)
}

func printVariants(w io.Writer, registry *contract.Registry) {
	for i, v := range registry.Variants() {
		if i > 0 {
			fmt.Fprintln(w)
		}

		name := v.Name
		if len(v.Aliases) > 0 {
			name += " (" + strings.Join(v.Aliases, ", ") + ")"
		}
		fmt.Fprintf(w, "%s: %s\n", name, v.Description)
		printFields(w, v.Schema, 1)
	}
}

func printFields(w io.Writer, schema *contract.Schema, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, f := range schema.Fields {
		fmt.Fprintf(w, "%s- %s: %s\n", indent, f.Name, describeRule(f))
		if f.Rule == contract.RuleObject && f.Schema != nil {
			printFields(w, f.Schema, depth+1)
		}
	}
}

func describeRule(f contract.Field) string {
	var rule string
	switch f.Rule {
	case contract.RuleEnum:
		rule = "one of " + strings.Join(f.Allowed, " | ")
	case contract.RuleStringList:
		rule = fmt.Sprintf("list of exactly %d strings", f.Length)
	case contract.RuleNumber:
		rule = fmt.Sprintf("number in [%g, %g]", f.Min, f.Max)
	case contract.RulePassthrough:
		rule = "any " + string(f.Kind)
	default:
		rule = f.Rule.String()
	}

	if f.Reason {
		rule += ", fallback reason"
	}
	if f.Optional {
		rule += ", optional"
	}
	return rule
}
