package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RowanDark/cipherbreak/internal/cipher"
	"github.com/RowanDark/cipherbreak/internal/rpc"
	"github.com/RowanDark/cipherbreak/internal/service"
)

func (a *app) identifyCommand() *cobra.Command {
	var remote remoteFlags
	cmd := &cobra.Command{
		Use:   "identify [text]",
		Short: "Rank the cipher kinds that plausibly produced text",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := a.readInput(args)
			if err != nil {
				return err
			}
			var detections []cipher.DetectionResult
			if remote.addr != "" {
				detections, err = withRemote(cmd.Context(), remote, func(ctx context.Context, c *rpc.Client) ([]cipher.DetectionResult, error) {
					return c.Identify(ctx, input)
				})
			} else {
				detections, err = a.svc.Identify(cmd.Context(), input)
			}
			if err != nil {
				return err
			}
			return a.emit(detections, func() error {
				if len(detections) == 0 {
					_, err := fmt.Fprintln(a.stdout, "no cipher identified")
					return err
				}
				w := a.newTable("Kind", "Confidence", "Reasoning")
				for _, d := range detections {
					w.AppendRow([]any{d.Kind, fmt.Sprintf("%.0f%%", d.Confidence*100), d.Reasoning})
				}
				rightAlign(w, 2)
				return a.renderTable(w)
			})
		},
	}
	remote.register(cmd)
	return cmd
}

func (a *app) autoCommand() *cobra.Command {
	var remote remoteFlags
	cmd := &cobra.Command{
		Use:   "auto [text]",
		Short: "Identify the cipher and decode with the first kind that succeeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := a.readInput(args)
			if err != nil {
				return err
			}
			var res service.AutoResult
			if remote.addr != "" {
				res, err = withRemote(cmd.Context(), remote, func(ctx context.Context, c *rpc.Client) (service.AutoResult, error) {
					return c.Auto(ctx, input)
				})
			} else {
				res, err = a.svc.Auto(cmd.Context(), input)
			}
			if err != nil {
				return err
			}
			return a.emit(res, func() error {
				_, err := fmt.Fprintf(a.stdout, "%s (%s, %.0f%%)\n", res.Output, res.Kind, res.Confidence*100)
				return err
			})
		},
	}
	remote.register(cmd)
	return cmd
}

type freqReport struct {
	Letters            []cipher.LetterFrequency `json:"letters"`
	IndexOfCoincidence float64                  `json:"index_of_coincidence"`
}

func (a *app) freqCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "freq [text]",
		Short: "Print letter frequencies and the index of coincidence",
		RunE: func(_ *cobra.Command, args []string) error {
			input, err := a.readInput(args)
			if err != nil {
				return err
			}
			table, ioc := a.svc.Frequency(input)
			report := freqReport{Letters: table, IndexOfCoincidence: ioc}
			return a.emit(report, func() error {
				w := a.newTable("Letter", "Count", "Percent")
				for _, f := range table {
					w.AppendRow([]any{f.Letter, f.Count, fmt.Sprintf("%.2f", f.Percent)})
				}
				w.AppendFooter([]any{"IoC", "", fmt.Sprintf("%.4f", ioc)})
				rightAlign(w, 2, 3)
				return a.renderTable(w)
			})
		},
	}
}
