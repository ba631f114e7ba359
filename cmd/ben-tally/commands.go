package main

import (
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ScottSallinen/bentally/ben"
	"github.com/ScottSallinen/bentally/graph"
	"github.com/ScottSallinen/bentally/sink"
	"github.com/ScottSallinen/bentally/tally"
	"github.com/ScottSallinen/bentally/utils"
)

// Per-invocation inputs; tunables go through Config.
type inputs struct {
	benFile   string
	graphFile string
	keys      []string
	output    string
}

func newRootCmd() *cobra.Command {
	cfg := NewConfig()
	in := &inputs{}
	var configFile string

	root := &cobra.Command{
		Use:           "ben-tally",
		Short:         "Summary statistics over a BEN ensemble of graph partitions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				if err := cfg.LoadFromFile(configFile); err != nil {
					return err
				}
			}
			if err := cfg.BindFlags(cmd.Flags()); err != nil {
				return err
			}
			utils.SetLoggerConsole(cfg.NoColour())
			utils.SetLevel(cfg.Debug())
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (yaml, toml or json) with defaults for any flag.")
	pf.IntP("threads", "t", runtime.NumCPU(), "Worker goroutines per batch.")
	pf.Int("batch-size", tally.DEFAULT_BATCH_SIZE, "Records decoded per parallel batch.")
	pf.Int("debug", 0, "Log level: 0 info, 1 debug, 2 trace.")
	pf.Bool("nc", false, "No colour in log output.")
	pf.Int("poll", 2000, "Progress log interval in milliseconds; 0 disables.")
	pf.Bool("count-first", true, "Count the records before processing, so progress has a total.")

	root.AddCommand(tallyKeysCmd(cfg, in), cutEdgesCmd(cfg, in), changedAssignmentsCmd(cfg, in))
	return root
}

func benFlag(cmd *cobra.Command, in *inputs) {
	cmd.Flags().StringVarP(&in.benFile, "ben-file", "b", "", "BEN ensemble to read.")
	cmd.MarkFlagRequired("ben-file")
}

func graphFlag(cmd *cobra.Command, in *inputs) {
	cmd.Flags().StringVarP(&in.graphFile, "graph-file", "g", "", "Dual graph, networkx adjacency JSON.")
	cmd.MarkFlagRequired("graph-file")
}

func outputFlag(cmd *cobra.Command, in *inputs, def string) {
	cmd.Flags().StringVarP(&in.output, "output", "o", "", "Output path (default: ensemble name with "+def+").")
}

func tallyKeysCmd(cfg *Config, in *inputs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tally-keys",
		Short: "Sum node attributes per district for every plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTallyKeys(cmd, cfg, in)
		},
	}
	benFlag(cmd, in)
	graphFlag(cmd, in)
	cmd.Flags().StringArrayVarP(&in.keys, "key", "k", nil, "Node attribute to tally; repeat for more.")
	cmd.MarkFlagRequired("key")
	outputFlag(cmd, in, TALLIES_SUFFIX)
	return cmd
}

func cutEdgesCmd(cfg *Config, in *inputs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cut-edges",
		Short: "Count the edges between districts for every plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCutEdges(cmd, cfg, in)
		},
	}
	benFlag(cmd, in)
	graphFlag(cmd, in)
	outputFlag(cmd, in, CUT_EDGES_SUFFIX)
	return cmd
}

func changedAssignmentsCmd(cfg *Config, in *inputs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changed-assignments",
		Short: "Count how often each node changes district along the chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChangedAssignments(cmd, cfg, in)
		},
	}
	benFlag(cmd, in)
	f := cmd.Flags()
	f.BoolP("normalize", "n", false, "Divide each count by the number of transitions.")
	f.Uint64P("max-accepted", "m", 0, "Stop after this many plans; 0 reads them all.")
	f.Bool("random-reassignment", true, "Randomly swap the labels of each merge-split move (for merge-split chains only).")
	f.Uint64("seed", 0, "Seed for the label swaps; 0 picks one and logs it.")
	outputFlag(cmd, in, CHANGES_SUFFIX)
	return cmd
}

const (
	TALLIES_SUFFIX   = "_tallies.parquet"
	CUT_EDGES_SUFFIX = "_cut_edges.parquet"
	CHANGES_SUFFIX   = "_accept_<N>_changed_assignments.txt"
)

func openInputs(in *inputs) (*graph.Graph, *ben.StreamSource, error) {
	g, err := graph.LoadJSON(in.graphFile)
	if err != nil {
		return nil, nil, err
	}
	src, err := openEnsemble(in.benFile)
	if err != nil {
		return nil, nil, err
	}
	return g, src, nil
}

func openEnsemble(path string) (*ben.StreamSource, error) {
	src, err := ben.OpenFile(path)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("Reading " + utils.BaseName(path) + " (" + src.Banner() + ")")
	return src, nil
}

func runTallyKeys(cmd *cobra.Command, cfg *Config, in *inputs) error {
	g, src, err := openInputs(in)
	if err != nil {
		return err
	}
	defer src.Close()
	tl, err := tally.NewTallier(g, in.keys)
	if err != nil {
		return err
	}

	var rows []tally.Row[tally.Table]
	summary, err := tally.RunBatched(cmd.Context(), src, cfg.Options(),
		func(r ben.Record) (tally.Table, error) { return tl.Tally(r.Assignment) },
		func(r tally.Row[tally.Table]) error {
			rows = append(rows, r)
			return nil
		})
	if err != nil {
		return err
	}

	out := outputOr(in.output, utils.OutputName(in.benFile, TALLIES_SUFFIX))
	logSummary(summary)
	log.Info().Msg("Writing " + utils.V(len(rows)*len(in.keys)) + " tally rows to " + out)
	return sink.WriteTallies(out, tl.Keys(), rows)
}

func runCutEdges(cmd *cobra.Command, cfg *Config, in *inputs) error {
	g, src, err := openInputs(in)
	if err != nil {
		return err
	}
	defer src.Close()

	out := outputOr(in.output, utils.OutputName(in.benFile, CUT_EDGES_SUFFIX))
	w, err := sink.NewCutEdgeWriter(out)
	if err != nil {
		return err
	}
	summary, err := tally.RunBatched(cmd.Context(), src, cfg.Options(),
		func(r ben.Record) (uint32, error) { return tally.CutEdges(g, r.Assignment) },
		w.Write)
	if err != nil {
		w.Abort()
		return err
	}
	logSummary(summary)
	log.Info().Msg("Writing " + utils.V(w.Rows()) + " cut edge rows to " + out)
	return w.Close()
}

func runChangedAssignments(cmd *cobra.Command, cfg *Config, in *inputs) error {
	src, err := openEnsemble(in.benFile)
	if err != nil {
		return err
	}
	defer src.Close()

	opts := cfg.Options()
	if !opts.RelabelCorrection {
		log.Warn().Msg("Random reassignment is off; label swaps of merge-split moves count as changes.")
	}
	result, err := tally.RunChanges(cmd.Context(), src, opts)
	if err != nil {
		return err
	}
	if result.Truncated {
		log.Warn().Msg("Counts cover only the first " + utils.V(result.Records) + " records.")
	}

	suffix := "_accept_" + utils.V(result.Records) + "_changed_assignments.txt"
	out := outputOr(in.output, utils.OutputName(in.benFile, suffix))
	log.Info().Msg("Writing change counts to " + out)
	return sink.WriteChanges(out, result.Values(opts.Normalize), result.Records)
}

func logSummary(s tally.Summary) {
	log.Info().Msg("Processed " + utils.V(s.Records) + " distinct plans covering " + utils.V(s.Samples) + " samples")
}

func outputOr(given, derived string) string {
	if given != "" {
		return given
	}
	return derived
}
