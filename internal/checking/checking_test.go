package checking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/graphcheck/internal/labels"
	"github.com/hupe1980/graphcheck/internal/report"
	"github.com/hupe1980/graphcheck/internal/store"
	"github.com/hupe1980/graphcheck/model"
)

type fakeRecords struct {
	nodes   map[model.NodeID]*model.NodeRecord
	dynamic map[model.RecordID]*model.DynamicRecord
	reads   map[model.RecordID]int
	err     error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		nodes:   make(map[model.NodeID]*model.NodeRecord),
		dynamic: make(map[model.RecordID]*model.DynamicRecord),
		reads:   make(map[model.RecordID]int),
	}
}

func (f *fakeRecords) Node(id model.NodeID) *store.Reference[*model.NodeRecord] {
	return store.NewReference(uint64(id), func(_ context.Context, id uint64) (*model.NodeRecord, error) {
		if f.err != nil {
			return nil, f.err
		}
		if n, ok := f.nodes[model.NodeID(id)]; ok {
			return n, nil
		}
		return &model.NodeRecord{ID: model.NodeID(id)}, nil
	})
}

func (f *fakeRecords) NodeLabels(id model.RecordID) *store.Reference[*model.DynamicRecord] {
	return store.NewReference(uint64(id), func(_ context.Context, id uint64) (*model.DynamicRecord, error) {
		rid := model.RecordID(id)
		f.reads[rid]++
		if f.err != nil {
			return nil, f.err
		}
		if d, ok := f.dynamic[rid]; ok {
			return d, nil
		}
		return &model.DynamicRecord{ID: rid, Next: model.NoNextRecord}, nil
	})
}

func (f *fakeRecords) inlineNode(t *testing.T, id model.NodeID, ls ...model.LabelID) {
	t.Helper()
	field, err := labels.EncodeInline(ls)
	require.NoError(t, err)
	f.nodes[id] = &model.NodeRecord{ID: id, InUse: true, LabelField: field}
}

func (f *fakeRecords) dynamicNode(t *testing.T, id model.NodeID, head model.RecordID) {
	t.Helper()
	field, err := labels.EncodeDynamic(head)
	require.NoError(t, err)
	f.nodes[id] = &model.NodeRecord{ID: id, InUse: true, LabelField: field}
}

func (f *fakeRecords) record(id model.RecordID, inUse bool, next model.RecordID, ls ...model.LabelID) {
	f.dynamic[id] = &model.DynamicRecord{ID: id, InUse: inUse, Next: next, Data: model.EncodeLabels(ls)}
}

type expectations map[model.NodeID][]model.LabelID

func (e expectations) Labels(id model.NodeID) []model.LabelID {
	return e[id]
}

func check(records store.RecordAccess, doc expectations, nodes ...model.NodeID) ([]report.Finding, error) {
	var buf report.Buffer
	engine := NewLabelScanEngine(doc, &buf, records)
	var c LabelScanDocumentToNodeRecordCheck
	for _, id := range nodes {
		c.CheckNode(context.Background(), engine, id)
	}
	return buf.Findings(), engine.Err()
}

const (
	recordA model.RecordID = 10
	recordB model.RecordID = 11
	recordC model.RecordID = 12
)

func TestInlineNodeMissingLabel(t *testing.T) {
	records := newFakeRecords()
	records.inlineNode(t, 7, 3)

	findings, err := check(records, expectations{7: {3, 9}}, 7)
	require.NoError(t, err)
	assert.Equal(t, []report.Finding{
		{Kind: report.KindNodeMissingLabel, Node: 7, Label: 9},
	}, findings)
}

func TestEveryMissingLabelIsReported(t *testing.T) {
	records := newFakeRecords()
	records.inlineNode(t, 1, 2)

	findings, err := check(records, expectations{1: {4, 1, 2, 3}}, 1)
	require.NoError(t, err)
	require.Len(t, findings, 3)
	assert.Equal(t, model.LabelID(4), findings[0].Label)
	assert.Equal(t, model.LabelID(1), findings[1].Label)
	assert.Equal(t, model.LabelID(3), findings[2].Label)
}

func TestExtraLabelsAreNotReported(t *testing.T) {
	records := newFakeRecords()
	records.inlineNode(t, 1, 1, 2, 5)

	findings, err := check(records, expectations{1: {2}}, 1)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestDynamicChainWellFormed(t *testing.T) {
	records := newFakeRecords()
	records.dynamicNode(t, 12, recordA)
	records.record(recordA, true, recordB, 1, 2)
	records.record(recordB, true, model.NoNextRecord, 2, 3)

	findings, err := check(records, expectations{12: {1, 2, 3}}, 12)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestDynamicChainMissingLabel(t *testing.T) {
	records := newFakeRecords()
	records.dynamicNode(t, 12, recordA)
	records.record(recordA, true, recordB, 1, 2)
	records.record(recordB, true, model.NoNextRecord, 2, 3)

	findings, err := check(records, expectations{12: {1, 4}}, 12)
	require.NoError(t, err)
	assert.Equal(t, []report.Finding{
		{Kind: report.KindNodeMissingLabel, Node: 12, Label: 4},
	}, findings)
}

func TestDynamicChainCycle(t *testing.T) {
	records := newFakeRecords()
	records.dynamicNode(t, 12, recordA)
	records.record(recordA, true, recordB, 1, 2)
	records.record(recordB, true, recordA, 2, 3)

	// Label 9 is missing, but a cyclic chain is never compared.
	findings, err := check(records, expectations{12: {1, 2, 3, 9}}, 12)
	require.NoError(t, err)
	assert.Equal(t, []report.Finding{
		{Kind: report.KindLabelChainCycle, Node: 12, Record: recordA},
	}, findings)
}

func TestDynamicChainSelfCycle(t *testing.T) {
	records := newFakeRecords()
	records.dynamicNode(t, 3, recordA)
	records.record(recordA, true, recordA, 1)

	findings, err := check(records, expectations{3: {1}}, 3)
	require.NoError(t, err)
	assert.Equal(t, []report.Finding{
		{Kind: report.KindLabelChainCycle, Node: 3, Record: recordA},
	}, findings)
}

func TestDynamicChainRecordNotInUse(t *testing.T) {
	records := newFakeRecords()
	records.dynamicNode(t, 12, recordA)
	records.record(recordA, true, recordB, 1)
	records.record(recordB, false, recordC, 2)
	records.record(recordC, true, model.NoNextRecord, 3)

	findings, err := check(records, expectations{12: {1, 2, 3}}, 12)
	require.NoError(t, err)
	assert.Equal(t, []report.Finding{
		{Kind: report.KindLabelRecordNotInUse, Node: 12, Record: recordB},
	}, findings)
	assert.Zero(t, records.reads[recordC], "walk must stop at the unused record")
}

func TestDynamicChainHeadNotInUse(t *testing.T) {
	records := newFakeRecords()
	records.dynamicNode(t, 5, recordA) // recordA was never written

	findings, err := check(records, expectations{5: {1}}, 5)
	require.NoError(t, err)
	assert.Equal(t, []report.Finding{
		{Kind: report.KindLabelRecordNotInUse, Node: 5, Record: recordA},
	}, findings)
}

func TestNodeNotInUse(t *testing.T) {
	records := newFakeRecords()
	records.nodes[4] = &model.NodeRecord{ID: 4, InUse: false, LabelField: 0}

	findings, err := check(records, expectations{4: {1, 2}, 40: {1}}, 4, 40)
	require.NoError(t, err)
	assert.Equal(t, []report.Finding{
		{Kind: report.KindNodeNotInUse, Node: 4},
		{Kind: report.KindNodeNotInUse, Node: 40},
	}, findings)
}

func TestCheckIsIdempotent(t *testing.T) {
	records := newFakeRecords()
	records.inlineNode(t, 1, 1)
	records.dynamicNode(t, 2, recordA)
	records.record(recordA, true, recordA, 1)
	doc := expectations{1: {1, 2}, 2: {1}, 3: {1}}

	first, err := check(records, doc, 1, 2, 3)
	require.NoError(t, err)
	second, err := check(records, doc, 1, 2, 3)
	require.NoError(t, err)
	assert.Len(t, first, 3)
	assert.Equal(t, first, second)
}

func TestReadErrorStopsDispatch(t *testing.T) {
	records := newFakeRecords()
	records.inlineNode(t, 1, 1)
	records.err = errors.New("disk on fire")

	findings, err := check(records, expectations{1: {2}}, 1, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
	assert.Empty(t, findings)
}

func TestChainReadErrorIsFatal(t *testing.T) {
	records := newFakeRecords()
	records.dynamicNode(t, 1, recordA)
	records.record(recordA, true, recordB, 1)

	var buf report.Buffer
	engine := NewLabelScanEngine(expectations{1: {1, 2}}, &buf, records)
	ref := records.Node(1)
	_, err := ref.Resolve(context.Background())
	require.NoError(t, err)

	records.err = errors.New("short read")
	ComparativeCheck[LabelScanDocument, *model.NodeRecord, report.LabelScanConsistencyReport](
		context.Background(), engine, ref, LabelScanDocumentToNodeRecordCheck{})

	require.Error(t, engine.Err())
	assert.Equal(t, 0, buf.Len())
}

func TestWalkChain(t *testing.T) {
	ctx := context.Background()
	records := newFakeRecords()
	records.record(recordA, true, recordB, 3, 1)
	records.record(recordB, true, recordC, 1)
	records.record(recordC, true, model.NoNextRecord, 2)

	head, err := records.NodeLabels(recordA).Resolve(ctx)
	require.NoError(t, err)

	result, err := WalkChain(ctx, records, head)
	require.NoError(t, err)
	assert.Equal(t, ChainWellFormed, result.Kind)
	assert.Nil(t, result.Record)
	assert.Equal(t, []model.LabelID{3, 1, 1, 2}, result.Labels)
	assert.Equal(t, 1, records.reads[recordB])
	assert.Equal(t, 1, records.reads[recordC])
}

func TestWalkChainLongCycle(t *testing.T) {
	ctx := context.Background()
	records := newFakeRecords()
	for i := model.RecordID(0); i < 100; i++ {
		records.record(i, true, i+1, model.LabelID(i))
	}
	records.record(100, true, 50)

	head, err := records.NodeLabels(0).Resolve(ctx)
	require.NoError(t, err)
	result, err := WalkChain(ctx, records, head)
	require.NoError(t, err)
	assert.Equal(t, ChainCycle, result.Kind)
	assert.Equal(t, model.RecordID(50), result.Record.ID)
	assert.Nil(t, result.Labels)
}

func TestChainResultKindString(t *testing.T) {
	assert.Equal(t, "cycle", ChainCycle.String())
	assert.Equal(t, "ChainResultKind(9)", ChainResultKind(9).String())
}

type recordingValidator struct {
	wellFormed [][]model.LabelID
	cycles     []model.RecordID
	notInUse   []model.RecordID
}

func (v *recordingValidator) OnWellFormedChain(_ context.Context, _ string, ls []model.LabelID, _ *Engine[string, any], _ store.RecordAccess) {
	v.wellFormed = append(v.wellFormed, ls)
}

func (v *recordingValidator) OnRecordChainCycle(_ string, record *model.DynamicRecord, _ *Engine[string, any]) {
	v.cycles = append(v.cycles, record.ID)
}

func (v *recordingValidator) OnRecordNotInUse(_ string, record *model.DynamicRecord, _ *Engine[string, any]) {
	v.notInUse = append(v.notInUse, record.ID)
}

func TestLabelChainWalkerCallsOneCallback(t *testing.T) {
	ctx := context.Background()
	records := newFakeRecords()
	records.record(recordA, true, recordB, 1)
	records.record(recordB, true, recordA, 2)

	v := &recordingValidator{}
	engine := NewEngine[string, any]("subject", nil, records)
	walker := LabelChainWalker[string, any]{Validator: v}

	ComparativeCheck[string, *model.DynamicRecord, any](ctx, engine, records.NodeLabels(recordA), walker)
	require.NoError(t, engine.Err())
	assert.Empty(t, v.wellFormed)
	assert.Empty(t, v.notInUse)
	assert.Equal(t, []model.RecordID{recordA}, v.cycles)
}

func TestRebindSharesState(t *testing.T) {
	engine := NewEngine[string, int]("doc", 1, newFakeRecords())
	nested := Rebind(engine, 42)

	assert.Equal(t, 42, nested.Subject())
	assert.Equal(t, 1, nested.Report())

	nested.Fail(errors.New("first"))
	nested.Fail(errors.New("second"))
	require.Error(t, engine.Err())
	assert.Equal(t, "first", engine.Err().Error())
}
