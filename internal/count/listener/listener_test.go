package listener

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/opshub/inventory-count-service/internal/count"
	countdto "github.com/opshub/inventory-count-service/internal/count/dto"
	"github.com/opshub/inventory-count-service/internal/item"
	"github.com/opshub/inventory-count-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type submittedBatch struct {
	countID string
	updates []countdto.ItemUpdate
}

// fakeCountUC records SubmitBatch calls; the embedded interface covers the
// methods the listener never touches.
type fakeCountUC struct {
	count.UseCase
	batches []submittedBatch
	err     error
}

func (f *fakeCountUC) SubmitBatch(_ context.Context, countID string, updates []countdto.ItemUpdate) (*countdto.BulkUpdateResult, error) {
	f.batches = append(f.batches, submittedBatch{countID: countID, updates: updates})
	if f.err != nil {
		return nil, f.err
	}
	return &countdto.BulkUpdateResult{Saved: len(updates), Failed: []countdto.FailedItem{}}, nil
}

type fakeItemUC struct {
	item.UseCase
	byBarcode map[string]*model.InventoryItem
}

func (f *fakeItemUC) GetByBarcode(_ context.Context, _, barcode string) (*model.InventoryItem, error) {
	if i, ok := f.byBarcode[barcode]; ok {
		return i, nil
	}
	return nil, item.ErrItemNotFound
}

func newTestListener(countUC *fakeCountUC, itemUC *fakeItemUC) *CountListener {
	if itemUC == nil {
		itemUC = &fakeItemUC{byBarcode: map[string]*model.InventoryItem{}}
	}
	return NewCountListener(nil, countUC, itemUC, zap.NewNop())
}

func eventBytes(t *testing.T, ev CountSubmissionEvent) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return b
}

func TestProcessMessageSubmitsBatch(t *testing.T) {
	countUC := &fakeCountUC{}
	l := newTestListener(countUC, nil)

	l.processMessage(context.Background(), eventBytes(t, CountSubmissionEvent{
		EventID:   "ev-1",
		EventType: "inventory.count.submitted",
		Payload: CountSubmissionPayload{
			CountID:        "count-1",
			OrganizationID: "org-1",
			CountedBy:      "user-1",
			Items: []SubmittedItem{
				{ItemID: "item-1", ActualQuantity: 10},
				{ItemID: "item-2", ActualQuantity: 4.5},
			},
		},
	}))

	require.Len(t, countUC.batches, 1)
	batch := countUC.batches[0]
	assert.Equal(t, "count-1", batch.countID)
	require.Len(t, batch.updates, 2)
	assert.Equal(t, "item-1", batch.updates[0].ItemID)
	assert.Equal(t, 4.5, batch.updates[1].ActualQuantity)
	require.NotNil(t, batch.updates[0].CountedBy)
	assert.Equal(t, "user-1", *batch.updates[0].CountedBy)
}

func TestProcessMessageResolvesBarcodes(t *testing.T) {
	countUC := &fakeCountUC{}
	itemUC := &fakeItemUC{byBarcode: map[string]*model.InventoryItem{
		"4006381333931": {BaseModel: model.BaseModel{ID: "item-2"}, Name: "Sparkling Water"},
	}}
	l := newTestListener(countUC, itemUC)

	l.processMessage(context.Background(), eventBytes(t, CountSubmissionEvent{
		EventType: "inventory.count.submitted",
		Payload: CountSubmissionPayload{
			CountID:        "count-1",
			OrganizationID: "org-1",
			Items: []SubmittedItem{
				{ItemID: "item-1", ActualQuantity: 10},
				{Barcode: "4006381333931", ActualQuantity: 3},
			},
		},
	}))

	require.Len(t, countUC.batches, 1)
	updates := countUC.batches[0].updates
	require.Len(t, updates, 2)
	assert.Equal(t, "item-1", updates[0].ItemID)
	assert.Equal(t, "item-2", updates[1].ItemID, "barcode lines are resolved to catalog item ids")
	assert.Nil(t, updates[0].CountedBy, "no actor on the event means no counted_by stamp")
}

func TestProcessMessageDropsUnresolvableBarcode(t *testing.T) {
	countUC := &fakeCountUC{}
	l := newTestListener(countUC, nil)

	l.processMessage(context.Background(), eventBytes(t, CountSubmissionEvent{
		EventType: "inventory.count.submitted",
		Payload: CountSubmissionPayload{
			CountID:        "count-1",
			OrganizationID: "org-1",
			Items: []SubmittedItem{
				{Barcode: "0000000000000", ActualQuantity: 3},
				{ItemID: "item-1", ActualQuantity: 10},
			},
		},
	}))

	require.Len(t, countUC.batches, 1)
	updates := countUC.batches[0].updates
	require.Len(t, updates, 1, "the unresolvable line is dropped, not submitted blank")
	assert.Equal(t, "item-1", updates[0].ItemID)
}

func TestProcessMessageIgnoresOtherEventTypes(t *testing.T) {
	countUC := &fakeCountUC{}
	l := newTestListener(countUC, nil)

	l.processMessage(context.Background(), eventBytes(t, CountSubmissionEvent{
		EventType: "inventory.count.started",
		Payload:   CountSubmissionPayload{CountID: "count-1"},
	}))

	assert.Empty(t, countUC.batches)
}

func TestProcessMessageMalformedPayload(t *testing.T) {
	countUC := &fakeCountUC{}
	l := newTestListener(countUC, nil)

	l.processMessage(context.Background(), []byte(`{not json`))

	assert.Empty(t, countUC.batches)
}

func TestProcessMessageDropsFinishedCount(t *testing.T) {
	for _, submitErr := range []error{count.ErrCountNotActive, count.ErrCountVoided} {
		countUC := &fakeCountUC{err: submitErr}
		l := newTestListener(countUC, nil)

		l.processMessage(context.Background(), eventBytes(t, CountSubmissionEvent{
			EventType: "inventory.count.submitted",
			Payload: CountSubmissionPayload{
				CountID:        "count-1",
				OrganizationID: "org-1",
				Items:          []SubmittedItem{{ItemID: "item-1", ActualQuantity: 10}},
			},
		}))

		assert.Len(t, countUC.batches, 1, "late submissions are handed over once and then dropped")
	}
}
