package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/PROACTIVA-US/VISLZR/pkg/engine"
	"github.com/PROACTIVA-US/VISLZR/pkg/layout"
	"github.com/PROACTIVA-US/VISLZR/pkg/output"
	"github.com/spf13/cobra"
)

var actionsCmd = &cobra.Command{
	Use:   "actions <node-id>",
	Short: "Show a node's context and the actions offered for it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		id := args[0]
		nc, err := rt.engine.Context(id)
		if err != nil {
			return err
		}
		offered, err := rt.engine.Actions(id)
		if err != nil {
			return err
		}
		if group, _ := cmd.Flags().GetString("group"); group != "" {
			if offered, err = rt.engine.GroupActions(id, group); err != nil {
				return err
			}
		}

		w := cmd.OutOrStdout()
		node, _ := rt.engine.Store().Node(id)
		output.PrintContext(w, node, nc)
		output.PrintActions(w, offered)
		return nil
	},
}

var layoutCmd = &cobra.Command{
	Use:   "layout <node-id>",
	Short: "Compute sibling positions for a node's actions",
	Long: `Places the actions offered for a node around a focal point. Obstacles are
read as a JSON array of {x, y, radius} from --entities.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		f := cmd.Flags()
		x, _ := f.GetFloat64("x")
		y, _ := f.GetFloat64("y")
		radius, _ := f.GetFloat64("radius")
		req := engine.LayoutRequest{Focal: layout.Focal{X: x, Y: y, Radius: radius}}

		if path, _ := f.GetString("entities"); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(data, &req.Entities); err != nil {
				return fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}

		placed, err := rt.engine.Layout(args[0], req)
		if err != nil {
			return err
		}
		if asJSON, _ := f.GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(placed)
		}
		output.PrintLayout(cmd.OutOrStdout(), placed)
		return nil
	},
}

var depsCmd = &cobra.Command{
	Use:   "deps <node-id>",
	Short: "Show what a node depends on and what depends on it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		deps, err := rt.engine.Dependencies(args[0])
		if err != nil {
			return err
		}
		output.PrintDependencies(cmd.OutOrStdout(), args[0], deps)
		return nil
	},
}

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "List dependency cycles in the graph",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		found := rt.engine.Cycles()
		output.PrintCycles(cmd.OutOrStdout(), found)
		if len(found) > 0 {
			return fmt.Errorf("found %d dependency cycle(s)", len(found))
		}
		return nil
	},
}

var execCmd = &cobra.Command{
	Use:   "exec <node-id> <action-id>",
	Short: "Execute an action against a node",
	Long:  `Runs one action against the loaded graph and prints its result. Changes are not written back to the graph file.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		f := cmd.Flags()
		confirmed, _ := f.GetBool("yes")
		params, _ := f.GetStringToString("param")
		req := engine.ExecuteRequest{Confirmed: confirmed, Params: make(map[string]any, len(params))}
		for k, v := range params {
			req.Params[k] = v
		}

		res, err := rt.engine.Execute(cmd.Context(), args[0], args[1], req)
		if err != nil {
			return err
		}
		output.PrintResult(cmd.OutOrStdout(), args[1], res)
		if !res.Success {
			return fmt.Errorf("action %s failed", args[1])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(actionsCmd, layoutCmd, depsCmd, cyclesCmd, execCmd)

	actionsCmd.Flags().String("group", "", "Expand this action group instead of listing top-level actions")

	layoutCmd.Flags().Float64("x", 0, "Focal x")
	layoutCmd.Flags().Float64("y", 0, "Focal y")
	layoutCmd.Flags().Float64("radius", 30, "Focal node radius")
	layoutCmd.Flags().String("entities", "", "JSON file of on-screen entities to keep clear of")
	layoutCmd.Flags().Bool("json", false, "Print the placement as JSON")

	execCmd.Flags().BoolP("yes", "y", false, "Confirm actions that ask for confirmation")
	execCmd.Flags().StringToString("param", nil, "Action parameter as key=value (repeatable)")
}
