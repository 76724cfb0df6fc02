package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RowanDark/cipherbreak/internal/cipher"
)

type chainReport struct {
	Kind       cipher.Kind `json:"kind"`
	Output     string      `json:"output"`
	Outcome    string      `json:"outcome"`
	StepsRun   int         `json:"steps_run"`
	FailedStep int         `json:"failed_step"`
}

func parseSteps(specs []string) ([]cipher.Step, error) {
	if len(specs) == 0 {
		return nil, errors.New("at least one --step is required")
	}
	steps := make([]cipher.Step, 0, len(specs))
	for _, spec := range specs {
		step, err := cipher.ParseStep(spec)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (a *app) printChain(res cipher.ChainResult) error {
	report := chainReport{
		Kind:       res.Kind,
		Output:     res.Output,
		Outcome:    res.Outcome.Type.String(),
		StepsRun:   res.StepsRun,
		FailedStep: res.Failed,
	}
	return a.emit(report, func() error {
		if res.Failed >= 0 {
			fmt.Fprintf(a.stderr, "chain stopped at step %d (%s)\n", res.Failed+1, res.Kind)
		}
		_, err := fmt.Fprintln(a.stdout, res.Output)
		return err
	})
}

func (a *app) chainCommand() *cobra.Command {
	var specs []string
	cmd := &cobra.Command{
		Use:   "chain --step kind[:name=value,...] [--step ...] [text]",
		Short: "Run decoders in sequence, feeding each output into the next",
		Example: `  cipherctl chain --step atbash --step caesar:shift=3 "KSSD WD JIIJ"
  echo "..." | cipherctl chain --step morse --step reverse`,
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := parseSteps(specs)
			if err != nil {
				return err
			}
			input, err := a.readInput(args)
			if err != nil {
				return err
			}
			res, err := a.svc.Chain(cmd.Context(), steps, input)
			if err != nil {
				return err
			}
			return a.printChain(res)
		},
	}
	cmd.Flags().StringArrayVarP(&specs, "step", "s", nil, "chain step as kind or kind:name=value,... (repeatable, in order)")
	return cmd
}

func (a *app) recipeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Manage saved decoding chains",
	}
	cmd.AddCommand(a.recipeSaveCommand(), a.recipeListCommand(), a.recipeRunCommand(), a.recipeDeleteCommand())
	return cmd
}

func (a *app) recipeSaveCommand() *cobra.Command {
	var (
		specs       []string
		description string
		tags        []string
	)
	cmd := &cobra.Command{
		Use:   "save <name> --step ...",
		Short: "Save a chain under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			steps, err := parseSteps(specs)
			if err != nil {
				return err
			}
			recipe := &cipher.Recipe{
				Name:        args[0],
				Description: description,
				Tags:        tags,
				Chain:       cipher.Chain{Steps: steps},
			}
			if existing, ok := a.svc.Recipes().GetRecipe(args[0]); ok {
				recipe.CreatedAt = existing.CreatedAt
			}
			if err := a.svc.Recipes().SaveRecipe(recipe); err != nil {
				return err
			}
			return a.emit(recipe, func() error {
				_, err := fmt.Fprintf(a.stdout, "saved recipe %s (%d steps)\n", recipe.Name, len(steps))
				return err
			})
		},
	}
	cmd.Flags().StringArrayVarP(&specs, "step", "s", nil, "chain step as kind or kind:name=value,... (repeatable, in order)")
	cmd.Flags().StringVar(&description, "description", "", "recipe description")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "recipe tag (repeatable or comma separated)")
	return cmd
}

func (a *app) recipeListCommand() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved recipes",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			recipes := a.svc.Recipes().ListRecipes()
			if query != "" {
				recipes = a.svc.Recipes().SearchRecipes(query)
			}
			return a.emit(recipes, func() error {
				if len(recipes) == 0 {
					_, err := fmt.Fprintln(a.stdout, "no recipes")
					return err
				}
				w := a.newTable("Name", "Steps", "Tags", "Description")
				for _, r := range recipes {
					steps := make([]string, 0, len(r.Chain.Steps))
					for _, s := range r.Chain.Steps {
						steps = append(steps, s.String())
					}
					w.AppendRow([]any{r.Name, strings.Join(steps, " -> "), strings.Join(r.Tags, ","), r.Description})
				}
				return a.renderTable(w)
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by name, description or tag")
	return cmd
}

func (a *app) recipeRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <name> [text]",
		Short: "Run a saved recipe",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := a.readInput(args[1:])
			if err != nil {
				return err
			}
			res, err := a.svc.RunRecipe(cmd.Context(), args[0], input)
			if err != nil {
				return err
			}
			return a.printChain(res)
		},
	}
}

func (a *app) recipeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := a.svc.Recipes().DeleteRecipe(args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(a.stdout, "deleted recipe %s\n", args[0])
			return err
		},
	}
}
