package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/rocinante/internal/conflict"
)

func (a *App) ruleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Manage restriction rules",
		Long: `Restriction rules forbid two kinds of blocks from overlapping.

Each side is a wildcard pattern matched against block labels, case
insensitive; "*" matches any run of characters. Rules are symmetric.`,
	}

	cmd.AddCommand(a.ruleAddCmd())
	cmd.AddCommand(a.ruleListCmd())
	cmd.AddCommand(a.ruleRemoveCmd())
	cmd.AddCommand(a.ruleImportCmd())
	return cmd
}

func (a *App) ruleAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "add [pattern-a] [pattern-b]",
		Short:   "Add a rule",
		Example: `  rocinante rule add "Math*" "Art*"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := conflict.NewRule(args[0], args[1])
			if err != nil {
				return err
			}
			// compile now so a bad pattern is reported here, not on a drop
			if _, err := conflict.Compile(r.SubjectA); err != nil {
				return err
			}
			if _, err := conflict.Compile(r.SubjectB); err != nil {
				return err
			}
			if err := a.store.CreateRule(cmd.Context(), r); err != nil {
				return fmt.Errorf("creating rule: %w", err)
			}
			fmt.Fprintf(a.out, "Created rule %s: %s\n", formatMuted(shortID(r.ID)), formatLabel(r.String()))
			return nil
		},
	}
}

func (a *App) ruleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, err := a.store.ListRules(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing rules: %w", err)
			}
			if len(rules) == 0 {
				fmt.Fprintln(a.out, "No rules defined.")
				return nil
			}
			for _, r := range rules {
				fmt.Fprintf(a.out, "  %s  %s\n", formatMuted(shortID(r.ID)), formatLabel(r.String()))
			}
			return nil
		},
	}
}

func (a *App) ruleRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm [id]",
		Aliases: []string{"remove"},
		Short:   "Remove a rule by id or id prefix",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rules, err := a.store.ListRules(ctx)
			if err != nil {
				return fmt.Errorf("listing rules: %w", err)
			}
			r, err := findRule(rules, args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteRule(ctx, r.ID); err != nil {
				return fmt.Errorf("removing rule: %w", err)
			}
			fmt.Fprintf(a.out, "Removed rule %s\n", formatLabel(r.String()))
			return nil
		},
	}
}

// findRule resolves a full id or a unique id prefix.
func findRule(rules []conflict.Rule, prefix string) (conflict.Rule, error) {
	var found []conflict.Rule
	for _, r := range rules {
		if r.ID == prefix {
			return r, nil
		}
		if len(prefix) >= 4 && len(r.ID) >= len(prefix) && r.ID[:len(prefix)] == prefix {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return conflict.Rule{}, fmt.Errorf("rule %q: %w", prefix, conflict.ErrRuleNotFound)
	case 1:
		return found[0], nil
	default:
		return conflict.Rule{}, fmt.Errorf("rule prefix %q is ambiguous (%d matches)", prefix, len(found))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
