package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wheelres/pkg/config"
	perrors "github.com/matzehuels/wheelres/pkg/errors"
	"github.com/matzehuels/wheelres/pkg/manifest"
	"github.com/matzehuels/wheelres/pkg/model"
	"github.com/matzehuels/wheelres/pkg/resolve"
	"github.com/matzehuels/wheelres/pkg/trace"
)

// Output formats of the resolve command.
const (
	formatTree         = "tree"
	formatJSON         = "json"
	formatRequirements = "requirements"
)

var validFormats = []string{formatTree, formatJSON, formatRequirements}

// resolveOptions holds the flags of the resolve command.
type resolveOptions struct {
	envs     []string
	allEnvs  bool
	format   string
	index    string
	noCache  bool
	fastFail bool
	output   string
	spinner  bool

	manifests []string
	extras    []string
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	opts := resolveOptions{format: formatTree, spinner: true}

	cmd := &cobra.Command{
		Use:   "resolve [requirement]...",
		Short: "Resolve requirements into a pinned wheel graph",
		Long: `Resolve PEP 508 requirements for one or more target environments.

Only built wheels are considered. Each environment is resolved
independently and printed as a dependency tree, the graph as JSON, or a
hash-pinned requirements file.

Requirements may also be read from requirements*.txt, pyproject.toml or
poetry.lock files with -r.`,
		Example: `  # Resolve for the default environment
  wheelres resolve "requests>=2.31" urllib3

  # Pin for every configured environment
  wheelres resolve --all-envs --format requirements "fastapi[standard]"

  # Graph JSON for one environment, written to a file
  wheelres resolve --env linux-311 --format json -o graph.json numpy

  # Re-resolve a project's dependencies including its dev extras
  wheelres resolve -r pyproject.toml --extra dev`,
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, err := opts.roots(args)
			if err != nil {
				return err
			}
			return c.runResolve(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), roots, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.envs, "env", "e", nil, "environment name from the config (repeatable)")
	cmd.Flags().BoolVar(&opts.allEnvs, "all-envs", false, "resolve for every configured environment")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatTree, "output format: "+strings.Join(validFormats, ", "))
	cmd.Flags().StringVar(&opts.index, "index", "", "simple index base URL (overrides config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.fastFail, "fast-fail", false, "check that every root has a candidate before solving")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringSliceVarP(&opts.manifests, "requirements", "r", nil, "read requirements from a requirements.txt, pyproject.toml or poetry.lock (repeatable)")
	cmd.Flags().StringSliceVar(&opts.extras, "extra", nil, "pyproject optional-dependencies group to include (* for all)")

	return cmd
}

// apply layers the command-line overrides onto cfg.
func (o resolveOptions) apply(cfg config.Config) config.Config {
	if o.index != "" {
		cfg.Index.Base = o.index
	}
	if o.fastFail {
		cfg.Resolve.FastFail = true
	}
	if o.noCache {
		cfg.Cache.Backend = config.BackendNone
	}
	return cfg
}

// roots joins the positional requirements with those read from manifests.
func (o resolveOptions) roots(args []string) ([]string, error) {
	fromFiles, err := manifest.ReadAll(o.manifests, o.extras)
	if err != nil {
		return nil, err
	}
	roots := append(append([]string(nil), args...), fromFiles...)
	if len(roots) == 0 {
		return nil, perrors.New(perrors.ErrCodeInvalidRequirement, "no requirements given")
	}
	return roots, nil
}

func validateFormat(format string) error {
	if !slices.Contains(validFormats, format) {
		return fmt.Errorf("invalid format %q (must be %s)", format, strings.Join(validFormats, ", "))
	}
	return nil
}

// selectEnvironments builds the environments named by the flags: all of
// them, the listed ones, or the first configured one.
func selectEnvironments(cfg config.Config, o resolveOptions) ([]*model.Environment, error) {
	if o.allEnvs && len(o.envs) > 0 {
		return nil, perrors.New(perrors.ErrCodeInvalidEnvironment, "--env and --all-envs are mutually exclusive")
	}
	if o.allEnvs {
		return cfg.BuildEnvironments()
	}
	if len(o.envs) == 0 {
		env, err := cfg.Environment("")
		if err != nil {
			return nil, err
		}
		return []*model.Environment{env}, nil
	}
	out := make([]*model.Environment, 0, len(o.envs))
	for _, name := range o.envs {
		env, err := cfg.Environment(name)
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, nil
}

func (c *CLI) runResolve(ctx context.Context, out, errOut io.Writer, roots []string, opts resolveOptions) error {
	if err := validateFormat(opts.format); err != nil {
		return err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	cfg = opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	envs, err := selectEnvironments(cfg, opts)
	if err != nil {
		return err
	}

	var sink trace.Sink = trace.NewLogSink(c.Logger)
	var spinner *Spinner
	if opts.spinner {
		spinner = newSpinner(ctx, errOut, "Resolving "+strings.Join(roots, " "), len(envs))
		sink = trace.Multi{sink, spinner}
	}
	engine, store, err := cfg.NewEngine(ctx, c.Logger, sink)
	if err != nil {
		return err
	}
	defer store.Close()

	reqs := make([]resolve.Request, len(envs))
	for i, env := range envs {
		reqs[i] = resolve.Request{Roots: roots, Environment: env}
	}

	prog := newProgress(c.Logger)
	if spinner != nil {
		spinner.Start()
	}
	results := engine.ResolveMany(ctx, reqs)
	if spinner != nil {
		spinner.Finish(results)
	}

	if err := writeOutput(opts.output, out, func(w io.Writer) error {
		return writeResults(w, opts.format, results)
	}); err != nil {
		return err
	}

	var failed *resolve.Result
	nodes := 0
	for _, res := range results {
		if !res.OK() {
			writeFailure(errOut, res)
			if failed == nil {
				failed = res
			}
			continue
		}
		nodes += len(res.Graph.Nodes)
	}
	if failed != nil {
		return failed.Err
	}
	prog.done(fmt.Sprintf("Resolved %d packages for %d environment(s)", nodes, len(results)))
	return nil
}

// writeOutput runs write against path, or against out when path is empty.
func writeOutput(path string, out io.Writer, write func(io.Writer) error) (err error) {
	if path == "" {
		return write(out)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

// envResult is the JSON form of one environment's outcome when several
// environments are resolved at once.
type envResult struct {
	*resolve.Result
	Error *envError `json:"error,omitempty"`
}

type envError struct {
	Code      perrors.Code       `json:"code"`
	Message   string             `json:"message"`
	Conflicts []perrors.Conflict `json:"conflicts,omitempty"`
	Attempts  []perrors.Attempt  `json:"attempts,omitempty"`
}

// writeResults renders the successful results in format. A single
// environment is written bare; several are grouped per environment.
func writeResults(w io.Writer, format string, results []*resolve.Result) error {
	switch format {
	case formatJSON:
		if len(results) == 1 {
			if results[0].OK() {
				return results[0].Graph.WriteJSON(w)
			}
			return nil
		}
		all := make([]envResult, len(results))
		for i, res := range results {
			all[i] = envResult{Result: res}
			if e := res.Err; e != nil {
				all[i].Error = &envError{Code: e.Code, Message: e.Message, Conflicts: e.Conflicts, Attempts: e.Attempts}
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(all)

	case formatRequirements:
		for i, res := range results {
			if !res.OK() {
				continue
			}
			if len(results) > 1 {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "# environment: %s\n\n", res.Environment)
			}
			if err := res.Graph.WriteRequirements(w); err != nil {
				return err
			}
		}
		return nil

	default:
		for i, res := range results {
			if !res.OK() {
				continue
			}
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, StyleTitle.Render(res.Environment))
			writeTree(w, res.Graph)
			writeStats(w, res)
		}
		return nil
	}
}

// writeFailure prints a failed resolution with its conflict chain and the
// strategy attempts that led to it.
func writeFailure(w io.Writer, res *resolve.Result) {
	e := res.Err
	fprintStatus(w, styleIconError, iconError, StyleHighlight.Render(res.Environment)+" "+perrors.UserMessage(e))
	fmt.Fprintln(w, "  "+styleCode.Render(string(e.Code)))
	for _, cf := range e.Conflicts {
		fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+cf.String())
	}
	for _, a := range e.Attempts {
		line := fmt.Sprintf("%d. %s: %s", a.Position+1, a.Strategy, outcomeStyle(a.Outcome).Render(a.Outcome))
		if a.Detail != "" {
			line += StyleDim.Render(" (" + a.Detail + ")")
		}
		fmt.Fprintln(w, "  "+line)
	}
	if e.Cause != nil {
		fmt.Fprintln(w, "  "+StyleDim.Render(e.Cause.Error()))
	}
}
