package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/graphcheck"
	"github.com/hupe1980/graphcheck/blobstore"
	"github.com/hupe1980/graphcheck/blobstore/minio"
	"github.com/hupe1980/graphcheck/blobstore/s3"
	"github.com/hupe1980/graphcheck/codec"
)

func newCheckCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a label index consistency pass",
		Long: "Checks every node listed in the label index against its node record and\n" +
			"reports inconsistencies. Exits 1 if any were found and 2 if the pass failed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, v)
		},
	}

	f := cmd.Flags()
	f.String("dir", "", "Local store directory")
	f.String("s3-bucket", "", "S3 bucket holding the store")
	f.String("s3-prefix", "", "Key prefix of the store inside the S3 bucket")
	f.String("s3-region", "", "AWS region")
	f.String("s3-endpoint", "", "Custom S3 endpoint")
	f.String("minio-endpoint", "", "MinIO endpoint (host:port)")
	f.String("minio-access-key", "", "MinIO access key")
	f.String("minio-secret-key", "", "MinIO secret key")
	f.String("minio-bucket", "", "MinIO bucket holding the store")
	f.String("minio-prefix", "", "Key prefix of the store inside the MinIO bucket")
	f.Bool("minio-secure", true, "Use TLS for MinIO")
	f.Int("workers", 0, "Number of concurrent workers (default: GOMAXPROCS)")
	f.String("io-limit", "", "Maximum read throughput, e.g. 64MiB (default: unlimited)")
	f.String("cache-size", "", "Block cache size for remote stores, e.g. 256MiB")
	f.String("format", "text", "Output format (text, json)")
	f.String("codec", "json", "JSON codec for --format json")

	// --s3-bucket binds to s3.bucket, --minio-access-key to minio.access_key.
	bindFlags(v, f, func(flag string) string {
		for _, group := range []string{"s3", "minio"} {
			if rest, ok := strings.CutPrefix(flag, group+"-"); ok {
				return group + "." + strings.ReplaceAll(rest, "-", "_")
			}
		}
		return strings.ReplaceAll(flag, "-", "_")
	})
	return cmd
}

func runCheck(cmd *cobra.Command, v *viper.Viper) error {
	ctx := cmd.Context()

	logger, err := newLogger(v, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	format := v.GetString("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}
	c, ok := codec.ByName(v.GetString("codec"))
	if !ok {
		return fmt.Errorf("unknown codec %q (want one of %v)", v.GetString("codec"), codec.Names())
	}

	opts := []graphcheck.Option{
		graphcheck.WithCodec(c),
		graphcheck.WithWorkers(v.GetInt("workers")),
	}
	if s := v.GetString("io_limit"); s != "" {
		limit, err := humanize.ParseBytes(s)
		if err != nil {
			return fmt.Errorf("invalid io limit %q: %w", s, err)
		}
		opts = append(opts, graphcheck.WithIOLimit(int64(limit)))
	}
	if s := v.GetString("cache_size"); s != "" {
		size, err := humanize.ParseBytes(s)
		if err != nil {
			return fmt.Errorf("invalid cache size %q: %w", s, err)
		}
		if blocks := int(size / blobstore.DefaultBlockSize); blocks > 0 {
			opts = append(opts, graphcheck.WithBlockCache(blocks, blobstore.DefaultBlockSize))
		}
	}

	bs, location, err := openStore(ctx, v)
	if err != nil {
		return err
	}
	opts = append(opts, graphcheck.WithLogger(logger.WithStore(location).WithWorkers(v.GetInt("workers"))))

	res, err := graphcheck.Check(ctx, bs, opts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		err = res.WriteJSON(out)
	} else {
		err = writeText(out, location, res)
	}
	if err != nil {
		return err
	}

	if !res.Clean() {
		return errFindings
	}
	return nil
}

// openStore selects the blob store from the configuration. S3 takes
// precedence over MinIO, MinIO over a local directory.
func openStore(ctx context.Context, v *viper.Viper) (blobstore.BlobStore, string, error) {
	switch {
	case v.GetString("s3.bucket") != "":
		bucket := v.GetString("s3.bucket")
		s3Opts := []s3.Option{
			s3.WithPrefix(v.GetString("s3.prefix")),
			s3.WithRegion(v.GetString("s3.region")),
		}
		if endpoint := v.GetString("s3.endpoint"); endpoint != "" {
			s3Opts = append(s3Opts, s3.WithEndpoint(endpoint))
		}
		store, err := s3.New(ctx, bucket, s3Opts...)
		if err != nil {
			return nil, "", fmt.Errorf("open s3 store: %w", err)
		}
		return store, "s3://" + bucket + "/" + v.GetString("s3.prefix"), nil

	case v.GetString("minio.endpoint") != "":
		endpoint := v.GetString("minio.endpoint")
		store, err := minio.Dial(endpoint,
			v.GetString("minio.access_key"),
			v.GetString("minio.secret_key"),
			v.GetBool("minio.secure"),
			v.GetString("minio.bucket"),
			v.GetString("minio.prefix"),
		)
		if err != nil {
			return nil, "", fmt.Errorf("open minio store: %w", err)
		}
		return store, "minio://" + endpoint + "/" + v.GetString("minio.bucket"), nil

	case v.GetString("dir") != "":
		dir := v.GetString("dir")
		return blobstore.NewLocalStore(dir), dir, nil
	}
	return nil, "", errors.New("no store given: set --dir, --s3-bucket or --minio-endpoint")
}

func writeText(w io.Writer, location string, res *graphcheck.Result) error {
	fmt.Fprintf(w, "checked %s nodes in %s ranges of %s (%s read, %s)\n",
		humanize.Comma(res.Nodes),
		humanize.Comma(int64(res.Ranges)),
		location,
		humanize.IBytes(uint64(res.BytesRead)),
		res.Duration.Round(time.Millisecond),
	)

	if res.Clean() {
		_, err := fmt.Fprintln(w, "no inconsistencies found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNODE\tLABEL\tRECORD\tRANGE")
	for _, f := range res.Findings {
		label, record := "-", "-"
		if f.Kind == graphcheck.KindNodeMissingLabel {
			label = fmt.Sprint(f.Label)
		}
		if f.Kind == graphcheck.KindLabelChainCycle || f.Kind == graphcheck.KindLabelRecordNotInUse {
			record = fmt.Sprint(f.Record)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\n", f.Kind, f.Node, label, record, f.Document)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%s inconsistencies found\n", humanize.Comma(int64(res.Summary.Total)))
	return err
}
