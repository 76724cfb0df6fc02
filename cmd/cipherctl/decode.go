package main

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/RowanDark/cipherbreak/internal/cipher"
	"github.com/RowanDark/cipherbreak/internal/rpc"
	"github.com/RowanDark/cipherbreak/internal/service"
)

// remoteFlags selects a cipherd gRPC endpoint instead of the local engine.
type remoteFlags struct {
	addr  string
	token string
}

func (r *remoteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.addr, "remote", "", "cipherd gRPC address; decode remotely instead of locally")
	cmd.Flags().StringVar(&r.token, "token", "", "bearer token for --remote")
}

func (r *remoteFlags) client() (*rpc.Client, func(), error) {
	opts := append(rpc.DialOptions(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	conn, err := grpc.NewClient(r.addr, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", r.addr, err)
	}
	return rpc.NewClient(conn, rpc.WithToken(r.token)), func() { _ = conn.Close() }, nil
}

func (a *app) decodeCommand() *cobra.Command {
	var (
		params []string
		remote remoteFlags
	)
	cmd := &cobra.Command{
		Use:   "decode <kind> [text]",
		Short: "Decode text with one cipher kind",
		Long: `Decode text with one cipher kind. Search-based kinds (caesar, railfence,
substitution, multilayer) try every key unless --param supplies one, for
example --param shift=3 or --param rails=4.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := a.readInput(args[1:])
			if err != nil {
				return err
			}
			p, err := cipher.ParseParams(params)
			if err != nil {
				return err
			}

			var res service.Result
			if remote.addr != "" {
				res, err = withRemote(cmd.Context(), remote, func(ctx context.Context, c *rpc.Client) (service.Result, error) {
					return c.Decode(ctx, args[0], input, p)
				})
			} else {
				res, err = a.svc.Decode(cmd.Context(), args[0], input, p)
			}
			if err != nil {
				return err
			}
			return a.emit(res, func() error {
				_, err := fmt.Fprintln(a.stdout, res.Output)
				return err
			})
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "decoder parameter as name=value (repeatable)")
	remote.register(cmd)
	return cmd
}

func (a *app) encodeCommand() *cobra.Command {
	var params []string
	cmd := &cobra.Command{
		Use:   "encode <kind> [text]",
		Short: "Encode plaintext with one cipher kind",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := a.readInput(args[1:])
			if err != nil {
				return err
			}
			p, err := cipher.ParseParams(params)
			if err != nil {
				return err
			}
			out, err := a.svc.Encode(cmd.Context(), args[0], input, p)
			if err != nil {
				return err
			}
			return a.emit(map[string]string{"kind": args[0], "output": out}, func() error {
				_, err := fmt.Fprintln(a.stdout, out)
				return err
			})
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "encoder parameter as name=value (repeatable)")
	return cmd
}

func (a *app) rankCommand() *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "rank <kind> [text]",
		Short: "Show every scored hypothesis of a search decoder",
		Long:  "Show the Caesar shifts or rail counts tried for text, best score first.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := a.readInput(args[1:])
			if err != nil {
				return err
			}
			hs, err := a.svc.Rank(cmd.Context(), args[0], input)
			if err != nil {
				return err
			}
			slices.SortStableFunc(hs, func(x, y cipher.Hypothesis) int {
				return cmp.Compare(y.Score, x.Score)
			})
			if top > 0 && len(hs) > top {
				hs = hs[:top]
			}
			return a.emit(hs, func() error {
				w := a.newTable("#", "Key", "Score", "Text")
				for i, h := range hs {
					w.AppendRow([]any{i + 1, h.Param, fmt.Sprintf("%.2f", h.Score), h.Text})
				}
				rightAlign(w, 1, 2, 3)
				return a.renderTable(w)
			})
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "show only the best N hypotheses (0 shows all)")
	return cmd
}

func (a *app) kindsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the supported cipher kinds",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			infos := a.svc.Decoders()
			return a.emit(infos, func() error {
				w := a.newTable("Kind", "Encode", "Rank", "Description")
				for _, info := range infos {
					w.AppendRow([]any{info.Kind, yesNo(info.Encode), yesNo(info.Rank), info.Description})
				}
				return a.renderTable(w)
			})
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

// withRemote dials r and runs fn against the client.
func withRemote[T any](ctx context.Context, r remoteFlags, fn func(context.Context, *rpc.Client) (T, error)) (T, error) {
	var zero T
	client, closeConn, err := r.client()
	if err != nil {
		return zero, err
	}
	defer closeConn()
	return fn(ctx, client)
}
