package report

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/graphcheck/model"
)

func TestBufferRecordsFindings(t *testing.T) {
	var b Buffer
	b.SetDocument(2)

	node := &model.NodeRecord{ID: 7}
	b.NodeDoesNotHaveExpectedLabel(node, 9)
	b.NodeNotInUse(&model.NodeRecord{ID: 8})
	b.DynamicLabelRecordChainCycle(node, &model.DynamicRecord{ID: 4})
	b.DynamicLabelRecordNotInUse(node, &model.DynamicRecord{ID: 5})

	require.Equal(t, 4, b.Len())
	assert.Equal(t, []Finding{
		{Kind: KindNodeMissingLabel, Document: 2, Node: 7, Label: 9},
		{Kind: KindNodeNotInUse, Document: 2, Node: 8},
		{Kind: KindLabelChainCycle, Document: 2, Node: 7, Record: 4},
		{Kind: KindLabelRecordNotInUse, Document: 2, Node: 7, Record: 5},
	}, b.Findings())
}

func TestCollectorMergesDeterministically(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		b := c.NewBuffer()
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				node := &model.NodeRecord{ID: model.NodeID(i*4 + w)}
				b.NodeDoesNotHaveExpectedLabel(node, 2)
				b.NodeDoesNotHaveExpectedLabel(node, 1)
			}
		}(w)
	}
	wg.Wait()

	got := c.Findings()
	require.Len(t, got, 80)
	for i := 0; i < len(got); i += 2 {
		assert.Equal(t, model.NodeID(i/2), got[i].Node)
		assert.Equal(t, model.LabelID(1), got[i].Label)
		assert.Equal(t, model.LabelID(2), got[i+1].Label)
	}
}

func TestSummary(t *testing.T) {
	s := Summarize([]Finding{
		{Kind: KindNodeMissingLabel},
		{Kind: KindNodeMissingLabel},
		{Kind: KindLabelChainCycle},
	})
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Count(KindNodeMissingLabel))
	assert.Equal(t, 0, s.Count(KindNodeNotInUse))
	assert.False(t, s.Clean())
	assert.True(t, Summarize(nil).Clean())
}

func TestKindText(t *testing.T) {
	for _, k := range Kinds() {
		text, err := k.MarshalText()
		require.NoError(t, err)

		var got Kind
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, k, got)
	}

	var k Kind
	assert.Error(t, k.UnmarshalText([]byte("bogus")))
	assert.Equal(t, "kind(99)", Kind(99).String())
}

func TestFindingString(t *testing.T) {
	f := Finding{Kind: KindNodeMissingLabel, Node: 7, Label: 9}
	assert.Equal(t, "node 7 does not have expected label 9", f.String())
}

func TestFindingJSONKeepsZeroIDs(t *testing.T) {
	data, err := json.Marshal(Finding{Kind: KindNodeMissingLabel, Node: 7, Label: 0})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"label":0`)

	data, err = json.Marshal(Finding{Kind: KindLabelChainCycle, Node: 7, Record: 0})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"record":0`)

	var got Finding
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, Finding{Kind: KindLabelChainCycle, Node: 7}, got)
}
