// Package graphcheck checks the on-disk consistency of a graph store.
//
// It verifies that the label scan store, the secondary index mapping labels
// to nodes, agrees with the authoritative label data held by every node
// record. Labels are read either inline from the node record or by walking
// the node's chain of dynamic label records. Structural defects of a chain
// (cycles, links into freed records) are reported as findings of their own.
//
// # Quick Start
//
// Local store:
//
//	ctx := context.Background()
//	res, err := graphcheck.CheckDir(ctx, "./graph.db")
//	if err != nil {
//	    return err // the store could not be read
//	}
//	for _, f := range res.Findings {
//	    fmt.Println(f)
//	}
//
// Remote store:
//
//	s3Store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("graph.db/"))
//	res, _ := graphcheck.Check(ctx, s3Store,
//	    graphcheck.WithBlockCache(4096, blobstore.DefaultBlockSize),
//	    graphcheck.WithWorkers(16),
//	)
//
// # Findings vs Errors
//
// An inconsistency is never an error: it is a Finding in the Result.
// Check only fails when a store file is missing, has an unreadable header
// or cannot be read at all. Such failures abort the whole pass.
//
// # Findings
//
//   - KindNodeNotInUse: the label index refers to a node that is not in use
//   - KindNodeMissingLabel: a node lacks a label the index expects
//   - KindLabelChainCycle: the node's dynamic label chain revisits a record
//   - KindLabelRecordNotInUse: the node's label chain passes a freed record
//
// Labels a node carries without the index knowing about them are not
// reported.
//
// # Determinism
//
// Findings are sorted by node, kind, label and record. Two passes over an
// unchanged store return identical results regardless of the worker count.
//
// # Generating Stores
//
// StoreBuilder writes random, optionally corrupted stores for tests and
// demos:
//
//	report, _ := graphcheck.NewStoreBuilder().Nodes(10_000).Corrupt(25).Build(ctx, bs)
package graphcheck
