package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/graphcheck"
	"github.com/hupe1980/graphcheck/blobstore"
	"github.com/hupe1980/graphcheck/internal/labelindex"
	"github.com/hupe1980/graphcheck/internal/store"
)

func newGenerateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a random graph store, optionally with inconsistencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, v)
		},
	}

	f := cmd.Flags()
	f.String("dir", "", "Target directory")
	f.Int("nodes", 10_000, "Number of nodes")
	f.Int("max-labels", 8, "Maximum number of labels per node")
	f.Int("label-space", 64, "Number of distinct labels")
	f.Int("block-size", store.DefaultBlockSize, "Payload size of dynamic label records")
	f.Int("range-size", labelindex.DefaultRangeSize, "Node ids per label index range")
	f.String("compression", "zstd", "Label index compression (none, lz4, zstd)")
	f.Int("corrupt", 0, "Number of nodes to corrupt")
	f.Int64("seed", 1, "Random seed")
	cobra.CheckErr(cmd.MarkFlagRequired("dir"))

	bindFlags(v, f, func(flag string) string { return "generate." + flag })
	return cmd
}

func runGenerate(cmd *cobra.Command, v *viper.Viper) error {
	compression, err := labelindex.ParseCompression(v.GetString("generate.compression"))
	if err != nil {
		return err
	}

	dir := v.GetString("generate.dir")
	built, err := graphcheck.NewStoreBuilder().
		Nodes(v.GetInt("generate.nodes")).
		MaxLabels(v.GetInt("generate.max-labels")).
		LabelSpace(v.GetInt("generate.label-space")).
		BlockSize(v.GetInt("generate.block-size")).
		RangeSize(v.GetInt("generate.range-size")).
		Compression(compression).
		Corrupt(v.GetInt("generate.corrupt")).
		Seed(v.GetInt64("generate.seed")).
		Build(cmd.Context(), blobstore.NewLocalStore(dir))
	if err != nil {
		return err
	}

	cmd.Printf("wrote %s nodes to %s (%d corrupted)\n", humanize.Comma(int64(built.Nodes)), dir, len(built.Expected))
	return nil
}
