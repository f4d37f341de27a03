package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/membank/membank/internal/domain"
	"github.com/membank/membank/internal/memory"
)

// adminScope holds the flags shared by the admin commands.
type adminScope struct {
	projectRoot string
	repository  string
	branch      string
}

func (s *adminScope) register(cmd *cobra.Command, requireRepository bool) {
	cmd.Flags().StringVar(&s.projectRoot, "project-root", "", "project root of the memory bank (default: current directory)")
	cmd.Flags().StringVar(&s.repository, "repository", "", "logical repository name")
	cmd.Flags().StringVar(&s.branch, "branch", domain.DefaultBranch, "branch scope")
	if requireRepository {
		cmd.MarkFlagRequired("repository")
	}
}

// resolve fills defaults and opens the bank.
func (s *adminScope) resolve(ctx context.Context, rt *runtime) (*memory.Bank, error) {
	if s.projectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		s.projectRoot = wd
	}
	abs, err := filepath.Abs(s.projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	s.projectRoot = abs
	return rt.service.Bank(ctx, s.projectRoot)
}

// printJSON writes the command result to stdout.
func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

func newInitCmd() *cobra.Command {
	var scope adminScope
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a memory bank for a project root",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.service.Registry().Shutdown()

			bank, err := scope.resolve(cmd.Context(), rt)
			if err != nil {
				return err
			}
			nodeID, err := bank.InitRepository(cmd.Context(), scope.repository, scope.branch)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"projectRoot":      scope.projectRoot,
				"repository":       scope.repository,
				"branch":           scope.branch,
				"repositoryNodeId": nodeID,
			})
		},
	}
	scope.register(cmd, true)
	return cmd
}

func newAddContextCmd() *cobra.Command {
	var scope adminScope
	var in memory.ContextInput
	cmd := &cobra.Command{
		Use:   "add-context",
		Short: "Record a working-context observation",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.service.Registry().Shutdown()

			bank, err := scope.resolve(cmd.Context(), rt)
			if err != nil {
				return err
			}
			if in.Date == "" {
				in.Date = today()
			}
			out, err := bank.UpsertContext(cmd.Context(), scope.repository, scope.branch, in)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
	scope.register(cmd, true)
	cmd.Flags().StringVar(&in.ID, "id", "", "context id (ctx-*)")
	cmd.Flags().StringVar(&in.Agent, "agent", "", "agent name")
	cmd.Flags().StringVar(&in.Summary, "summary", "", "one-line summary")
	cmd.Flags().StringVar(&in.Observation, "observation", "", "detailed observation")
	cmd.Flags().StringVar(&in.Date, "date", "", "observation date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&in.Issue, "issue", "", "related issue reference")
	cmd.Flags().StringVar(&in.ItemType, "item-type", "", "entity type the observation concerns")
	cmd.Flags().StringVar(&in.ItemID, "item-id", "", "entity id the observation concerns")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("agent")
	cmd.MarkFlagRequired("summary")
	return cmd
}

func newAddComponentCmd() *cobra.Command {
	var scope adminScope
	var in memory.ComponentInput
	cmd := &cobra.Command{
		Use:   "add-component",
		Short: "Add or update a component",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.service.Registry().Shutdown()

			bank, err := scope.resolve(cmd.Context(), rt)
			if err != nil {
				return err
			}
			out, err := bank.UpsertComponent(cmd.Context(), scope.repository, scope.branch, in)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
	scope.register(cmd, true)
	cmd.Flags().StringVar(&in.ID, "id", "", "component id (comp-*)")
	cmd.Flags().StringVar(&in.Name, "name", "", "component name")
	cmd.Flags().StringVar(&in.Kind, "kind", "", "component kind")
	cmd.Flags().StringVar(&in.Status, "status", "", "status (active|deprecated|planned)")
	cmd.Flags().StringSliceVar(&in.DependsOn, "depends-on", nil, "component ids this one depends on")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newAddDecisionCmd() *cobra.Command {
	var scope adminScope
	var in memory.DecisionInput
	cmd := &cobra.Command{
		Use:   "add-decision",
		Short: "Add or update an architectural decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.service.Registry().Shutdown()

			bank, err := scope.resolve(cmd.Context(), rt)
			if err != nil {
				return err
			}
			if in.Date == "" {
				in.Date = today()
			}
			out, err := bank.UpsertDecision(cmd.Context(), scope.repository, scope.branch, in)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
	scope.register(cmd, true)
	cmd.Flags().StringVar(&in.ID, "id", "", "decision id (dec-*)")
	cmd.Flags().StringVar(&in.Name, "name", "", "decision title")
	cmd.Flags().StringVar(&in.Date, "date", "", "decision date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&in.Context, "context", "", "rationale and background")
	cmd.Flags().StringVar(&in.Status, "status", "", "status (proposed|approved|implemented|failed)")
	cmd.Flags().StringVar(&in.ComponentID, "component-id", "", "component the decision targets")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newAddRuleCmd() *cobra.Command {
	var scope adminScope
	var in memory.RuleInput
	cmd := &cobra.Command{
		Use:   "add-rule",
		Short: "Add or update a governance rule",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.service.Registry().Shutdown()

			bank, err := scope.resolve(cmd.Context(), rt)
			if err != nil {
				return err
			}
			if in.Created == "" {
				in.Created = today()
			}
			out, err := bank.UpsertRule(cmd.Context(), scope.repository, scope.branch, in)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
	scope.register(cmd, true)
	cmd.Flags().StringVar(&in.ID, "id", "", "rule id (rule-*)")
	cmd.Flags().StringVar(&in.Name, "name", "", "rule title")
	cmd.Flags().StringVar(&in.Created, "created", "", "creation date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&in.Content, "content", "", "rule text")
	cmd.Flags().StringSliceVar(&in.Triggers, "triggers", nil, "keywords that surface this rule")
	cmd.Flags().StringVar(&in.Status, "status", "", "status (active|deprecated)")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("content")
	return cmd
}
