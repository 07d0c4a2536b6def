package checking

import (
	"context"
	"slices"

	"github.com/hupe1980/graphcheck/internal/labels"
	"github.com/hupe1980/graphcheck/internal/report"
	"github.com/hupe1980/graphcheck/internal/store"
	"github.com/hupe1980/graphcheck/model"
)

// LabelScanDocument answers which labels the label index expects a node to
// carry. labelindex.Document implements it.
type LabelScanDocument interface {
	Labels(id model.NodeID) []model.LabelID
}

// LabelScanEngine is the engine of a label index check.
type LabelScanEngine = Engine[LabelScanDocument, report.LabelScanConsistencyReport]

// NewLabelScanEngine creates the engine for checking the nodes of document.
func NewLabelScanEngine(document LabelScanDocument, r report.LabelScanConsistencyReport, records store.RecordAccess) *LabelScanEngine {
	return NewEngine(document, r, records)
}

// LabelScanDocumentToNodeRecordCheck checks that a node record carries every
// label the label index document expects for it. Labels the node carries in
// addition are not reported.
type LabelScanDocumentToNodeRecordCheck struct{}

var _ ComparativeChecker[LabelScanDocument, *model.NodeRecord, report.LabelScanConsistencyReport] = LabelScanDocumentToNodeRecordCheck{}

// CheckNode checks node id against the subject document of engine.
func (c LabelScanDocumentToNodeRecordCheck) CheckNode(ctx context.Context, engine *LabelScanEngine, id model.NodeID) {
	ComparativeCheck[LabelScanDocument, *model.NodeRecord, report.LabelScanConsistencyReport](ctx, engine, engine.Records().Node(id), c)
}

func (LabelScanDocumentToNodeRecordCheck) CheckReference(ctx context.Context, document LabelScanDocument, node *model.NodeRecord, engine *LabelScanEngine, records store.RecordAccess) {
	r := engine.Report()
	if !node.InUse {
		r.NodeNotInUse(node)
		return
	}

	expected := document.Labels(node.ID)
	field := labels.ParseNode(node)

	if field.IsDynamic() {
		walker := LabelChainWalker[*model.NodeRecord, report.LabelScanConsistencyReport]{
			Validator: expectedLabels(expected),
		}
		ComparativeCheck[*model.NodeRecord, *model.DynamicRecord, report.LabelScanConsistencyReport](
			ctx, Rebind(engine, node), records.NodeLabels(field.FirstDynamicRecord()), walker)
		return
	}

	validateLabels(node, expected, field.Inline(), r)
}

// expectedLabels validates a walked label chain against the labels the index
// expects.
type expectedLabels []model.LabelID

func (e expectedLabels) OnWellFormedChain(_ context.Context, node *model.NodeRecord, actual []model.LabelID, engine *Engine[*model.NodeRecord, report.LabelScanConsistencyReport], _ store.RecordAccess) {
	validateLabels(node, e, actual, engine.Report())
}

func (expectedLabels) OnRecordChainCycle(node *model.NodeRecord, record *model.DynamicRecord, engine *Engine[*model.NodeRecord, report.LabelScanConsistencyReport]) {
	engine.Report().DynamicLabelRecordChainCycle(node, record)
}

func (expectedLabels) OnRecordNotInUse(node *model.NodeRecord, record *model.DynamicRecord, engine *Engine[*model.NodeRecord, report.LabelScanConsistencyReport]) {
	engine.Report().DynamicLabelRecordNotInUse(node, record)
}

// validateLabels reports every expected label missing from actual.
func validateLabels(node *model.NodeRecord, expected, actual []model.LabelID, r report.LabelScanConsistencyReport) {
	sorted := slices.Clone(actual)
	slices.Sort(sorted)
	for _, l := range expected {
		if _, found := slices.BinarySearch(sorted, l); !found {
			r.NodeDoesNotHaveExpectedLabel(node, l)
		}
	}
}
