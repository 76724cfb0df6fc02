package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RowanDark/cipherbreak/internal/cipher"
	"github.com/RowanDark/cipherbreak/internal/config"
	"github.com/RowanDark/cipherbreak/internal/logging"
	"github.com/RowanDark/cipherbreak/internal/service"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// app holds the state shared by every subcommand of one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	output     string

	cfg    config.Config
	logger *logging.Logger
	svc    *service.Service
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "cipherctl",
		Short: "Break classical ciphers from the command line",
		Long: `cipherctl identifies and decodes classical ciphers and simple encodings:
Caesar, Atbash, substitution, Morse, rail fence, Polybius, acrostics,
A1Z26, phone keypad, capitals, Base64 and layered combinations.

Text is read from the arguments, or from stdin when none are given or the
only argument is "-".`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Version: version,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a cipherbreak.yml config file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")
	flags.StringVarP(&a.output, "output", "o", "text", "output format: text, json or markdown")

	root.AddCommand(
		a.decodeCommand(),
		a.encodeCommand(),
		a.rankCommand(),
		a.identifyCommand(),
		a.autoCommand(),
		a.freqCommand(),
		a.chainCommand(),
		a.recipeCommand(),
		a.kindsCommand(),
		a.tokenCommand(),
		a.mcpCommand(),
	)
	return root
}

// setup loads configuration and builds the service before any subcommand
// runs.
func (a *app) setup(_ *cobra.Command, _ []string) error {
	switch a.output {
	case "text", "json", "markdown":
	default:
		return fmt.Errorf("unsupported output format %q", a.output)
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	// The CLI logs to stderr so stdout stays parseable.
	opts := []logging.Option{
		logging.WithoutStdout(),
		logging.WithWriter(a.stderr),
		logging.WithLevel(level),
		logging.WithFormat("console"),
	}
	if cfg.Log.File != "" {
		opts = append(opts, logging.WithFile(cfg.Log.File))
	}
	logger, err := logging.New("cipherctl", opts...)
	if err != nil {
		return err
	}
	a.logger = logger

	reg, err := cipher.NewRegistry(cfg.SolverConfig())
	if err != nil {
		return err
	}
	recipes := cipher.NewRecipeManager(cfg.Recipes.Dir)
	if err := recipes.LoadRecipes(); err != nil {
		logger.Warn("load recipes", zap.Error(err))
	}
	a.svc = service.New(reg,
		service.WithLogger(logger.WithComponent("service")),
		service.WithRecipes(recipes),
		service.WithBatchParallelism(cfg.Solver.Parallel),
	)
	return nil
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

// readInput joins args, or reads stdin when args is empty or "-".
func (a *app) readInput(args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text := strings.TrimRight(string(data), "\r\n")
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("no input text provided")
		}
		return text, nil
	}
	return strings.Join(args, " "), nil
}
