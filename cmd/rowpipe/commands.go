/*
 * Copyright 2025 The RowPipe Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rowpipe/rowpipe"
	"github.com/rowpipe/rowpipe/graph"
	"github.com/rowpipe/rowpipe/query"
	"github.com/rowpipe/rowpipe/schema"
	"github.com/rowpipe/rowpipe/window"
)

func execute() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rowpipe",
		Short:         "Compile SQL queries into dataflow pipeline plans",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newPlanCmd())
	cmd.AddCommand(newWindowCmd())
	return cmd
}

// planRequest is the YAML shape of a plan compilation request: the service
// schema plus a structured query, as the external SQL parser would deliver
// it.
type planRequest struct {
	query.Query     `yaml:",inline"`
	Schema          schema.Schema `yaml:"schema"`
	PreviewRowLimit int64         `yaml:"previewRowLimit"`
	SourceRowLimit  int64         `yaml:"sourceRowLimit"`
}

func newPlanCmd() *cobra.Command {
	var file string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compile a plan request into an operator graph",
		Long: `Reads a YAML plan request (service schema plus structured query), compiles
it into a pipeline plan and prints the operator graph.`,
		Example: `  rowpipe plan -f request.yaml
  rowpipe plan -f request.yaml --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var req planRequest
			if err := yaml.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("parse plan request: %w", err)
			}

			gen := rowpipe.New(&req.Query, req.Schema,
				rowpipe.WithPreviewRowLimit(req.PreviewRowLimit),
				rowpipe.WithSourceRowLimit(req.SourceRowLimit),
			)
			g, err := gen.Generate()
			if err != nil {
				return err
			}
			if err := g.Validate(); err != nil {
				return err
			}
			graph.Layout(g)

			if asJSON {
				return printPlanJSON(cmd.OutOrStdout(), g)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nentry=%s result=%s\n", g.Name(), g.EntryName(), g.ResultName())
			graph.Explain(cmd.OutOrStdout(), g)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "plan request file (YAML)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

type planJSON struct {
	Name      string    `json:"name"`
	Entry     string    `json:"entry"`
	Result    string    `json:"result"`
	Operators []opJSON  `json:"operators"`
	Hops      []hopJSON `json:"hops"`
}

type opJSON struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Summary string `json:"summary,omitempty"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
}

type hopJSON struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func printPlanJSON(w io.Writer, g *graph.Graph) error {
	plan := planJSON{
		Name:   g.Name(),
		Entry:  g.EntryName(),
		Result: g.ResultName(),
	}
	for _, op := range g.Operators() {
		summary := ""
		if op.Config != nil {
			summary = op.Config.Summary()
		}
		plan.Operators = append(plan.Operators, opJSON{
			Name:    op.Name,
			Kind:    op.Kind.String(),
			Summary: summary,
			X:       op.X,
			Y:       op.Y,
		})
	}
	for _, h := range g.Hops() {
		plan.Hops = append(plan.Hops, hopJSON{From: h.From, To: h.To})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}

func newWindowCmd() *cobra.Command {
	var (
		queryText   string
		mode        string
		size        int64
		every       int64
		windowLimit int64
		serviceID   int64
		limitsFile  string
	)

	cmd := &cobra.Command{
		Use:   "window",
		Short: "Resolve effective streaming window parameters",
		Long: `Clamps a requested streaming window against the configured ceilings and
prints the effective parameters and the plan cache key. Ceilings come from a
YAML limits file when given, otherwise from the environment and defaults.`,
		Example: `  rowpipe window --query "SELECT * FROM sales" --mode ROW_BASED --size 100
  rowpipe window --query q --mode TIME_BASED --size 60000 --window-limit 10000 --limits limits.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limits := window.LimitsFromEnv()
			if limitsFile != "" {
				var err error
				if limits, err = window.LoadLimits(limitsFile); err != nil {
					return err
				}
			}

			req := window.Request{
				Query:       queryText,
				Mode:        window.Mode(mode),
				Size:        size,
				Every:       every,
				WindowLimit: windowLimit,
				ServiceID:   serviceID,
			}
			resolved, ok := window.Resolve(req, limits)
			if !ok {
				return fmt.Errorf("invalid window request: size must be positive")
			}
			key, _ := window.CacheKey(req, limits)
			fmt.Fprintf(cmd.OutOrStdout(), "size=%d every=%d maxRows=%d maxTime=%d\nkey=%s\n",
				resolved.Size, resolved.Every, resolved.MaxRows, resolved.MaxTime, key)
			return nil
		},
	}

	cmd.Flags().StringVar(&queryText, "query", "", "raw query text")
	cmd.Flags().StringVar(&mode, "mode", string(window.RowBased), "window mode: ROW_BASED or TIME_BASED")
	cmd.Flags().Int64Var(&size, "size", 0, "requested window size (rows or ms)")
	cmd.Flags().Int64Var(&every, "every", 0, "requested advance interval")
	cmd.Flags().Int64Var(&windowLimit, "window-limit", 0, "per-request cap on the opposite dimension")
	cmd.Flags().Int64Var(&serviceID, "service-id", 0, "service/session identifier")
	cmd.Flags().StringVar(&limitsFile, "limits", "", "YAML file with maxRows/maxTime ceilings")
	_ = cmd.MarkFlagRequired("query")
	_ = cmd.MarkFlagRequired("size")
	return cmd
}
