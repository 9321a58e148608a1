package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/javiermolinar/rocinante/internal/conflict"
)

// ruleFile is the YAML layout read by "rule import".
//
//	rules:
//	  - a: "Math*"
//	    b: "Art*"
type ruleFile struct {
	Rules []struct {
		A string `yaml:"a"`
		B string `yaml:"b"`
	} `yaml:"rules"`
}

func (a *App) ruleImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file.yaml]",
		Short: "Import rules from a YAML file",
		Long: `Import restriction rules from a YAML file:

  rules:
    - a: "Math*"
      b: "Art*"

Rules that already exist are skipped.`,
		Example: `  rocinante rule import ~/rules.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolvePath(args[0])
			if err != nil {
				return err
			}

			info, err := os.Stat(path)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("rule file does not exist: %s", path)
				}
				return fmt.Errorf("checking rule file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("rule file path is a directory: %s", path)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading rule file: %w", err)
			}

			imported, skipped, err := importRules(cmd.Context(), a.store, data)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Imported %d rules from %s", imported, path)
			if skipped > 0 {
				fmt.Fprint(a.out, formatMuted(fmt.Sprintf(" (%d already present)", skipped)))
			}
			fmt.Fprintln(a.out)
			return nil
		},
	}
}

// importRules validates every rule before storing any, so a bad file
// imports nothing.
func importRules(ctx context.Context, store conflict.RuleStore, data []byte) (imported, skipped int, err error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, 0, fmt.Errorf("parsing rule file: %w", err)
	}

	rules := make([]*conflict.Rule, 0, len(f.Rules))
	for i, entry := range f.Rules {
		r, err := conflict.NewRule(entry.A, entry.B)
		if err != nil {
			return 0, 0, fmt.Errorf("rule %d: %w", i+1, err)
		}
		for _, p := range []string{r.SubjectA, r.SubjectB} {
			if _, err := conflict.Compile(p); err != nil {
				return 0, 0, fmt.Errorf("rule %d: %w", i+1, err)
			}
		}
		rules = append(rules, r)
	}

	for _, r := range rules {
		err := store.CreateRule(ctx, r)
		if errors.Is(err, conflict.ErrDuplicateRule) {
			skipped++
			continue
		}
		if err != nil {
			return imported, skipped, fmt.Errorf("importing rule %s: %w", r, err)
		}
		imported++
	}
	return imported, skipped, nil
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	return absPath, nil
}
