package stats

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/peatiscoding/cadence-sub000/internal/common/models"
)

type batchCall struct {
	op         string
	collection string
	filter     bson.M
	doc        interface{}
	fields     bson.M
	inc        bson.M
	paths      []string
}

type recordingBatch struct {
	calls   []batchCall
	commits int
}

func (b *recordingBatch) InsertOne(collection string, doc interface{}) {
	b.calls = append(b.calls, batchCall{op: "insert", collection: collection, doc: doc})
}

func (b *recordingBatch) MergeSet(collection string, filter bson.M, fields bson.M) {
	b.calls = append(b.calls, batchCall{op: "merge", collection: collection, filter: filter, fields: fields})
}

func (b *recordingBatch) Increment(collection string, filter bson.M, inc bson.M, set bson.M) {
	b.calls = append(b.calls, batchCall{op: "increment", collection: collection, filter: filter, inc: inc})
}

func (b *recordingBatch) Unset(collection string, filter bson.M, paths ...string) {
	b.calls = append(b.calls, batchCall{op: "unset", collection: collection, filter: filter, paths: paths})
}

func (b *recordingBatch) Commit(ctx context.Context) error {
	b.commits++
	return nil
}

func (b *recordingBatch) callsOf(op string) []batchCall {
	var out []batchCall
	for _, c := range b.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

type recordingPublisher struct {
	entries []models.ActivityLog
}

func (p *recordingPublisher) Publish(entry models.ActivityLog) {
	p.entries = append(p.entries, entry)
}

func recordingAggregator() (*AggregatorImpl, *recordingBatch, *recordingPublisher) {
	batch := &recordingBatch{}
	publisher := &recordingPublisher{}
	agg := &AggregatorImpl{
		Publisher: publisher,
		Logger:    zap.NewNop(),
		newBatch:  func() cardWriteBatch { return batch },
	}
	return agg, batch, publisher
}

func TestRecordCardWriteTransit(t *testing.T) {
	agg, batch, publisher := recordingAggregator()

	dwell := 5 * time.Second
	before := card("lead", nil)
	before.StatusSince = time.Now().Add(-dwell).UnixMilli()
	before.Value = 500
	after := card("proposal", nil)
	after.StatusSince = time.Now().UnixMilli()
	after.Value = 500

	if err := agg.RecordCardWrite(context.Background(), "sales", before, after, "amy-id"); err != nil {
		t.Fatalf("RecordCardWrite returned %v", err)
	}
	if batch.commits != 1 {
		t.Fatalf("got %d commits, want 1", batch.commits)
	}

	inserts := batch.callsOf("insert")
	if len(inserts) != 1 || inserts[0].collection != ActivityLogCollection {
		t.Fatalf("activity log inserts = %v, want one into %s", inserts, ActivityLogCollection)
	}
	entry, ok := inserts[0].doc.(models.ActivityLog)
	if !ok || entry.Action != models.ActivityActionTransit || entry.CardID != "card-1" {
		t.Errorf("logged entry = %+v, want transit of card-1", inserts[0].doc)
	}

	// Leaving a status closes exactly one dwell interval there.
	incs := batch.callsOf("increment")
	if len(incs) != 1 {
		t.Fatalf("got %d counter updates, want 1", len(incs))
	}
	if incs[0].filter["status"] != "lead" {
		t.Errorf("counters touched status %v, want lead", incs[0].filter["status"])
	}
	if got := incs[0].inc["total_transition_count"]; got != 1 {
		t.Errorf("total_transition_count increment = %v, want 1", got)
	}
	elapsed, _ := incs[0].inc["total_transition_time"].(int64)
	if elapsed < dwell.Milliseconds() || elapsed > dwell.Milliseconds()+2000 {
		t.Errorf("total_transition_time increment = %d, want about %d", elapsed, dwell.Milliseconds())
	}

	unsets := batch.callsOf("unset")
	if len(unsets) != 1 || unsets[0].filter["status"] != "lead" {
		t.Fatalf("pending removals = %v, want one on lead", unsets)
	}
	if len(unsets[0].paths) != 1 || unsets[0].paths[0] != "current_pendings.card-1" {
		t.Errorf("removed paths = %v, want [current_pendings.card-1]", unsets[0].paths)
	}

	// Entering a status records exactly one pending entry there.
	merges := batch.callsOf("merge")
	if len(merges) != 1 || merges[0].filter["status"] != "proposal" {
		t.Fatalf("pending additions = %v, want one on proposal", merges)
	}
	pending, ok := merges[0].fields["current_pendings.card-1"].(models.PendingEntry)
	if !ok || pending.CardID != "card-1" || pending.UserID != "amy-id" || pending.Value != 500 {
		t.Errorf("pending entry = %+v", merges[0].fields["current_pendings.card-1"])
	}

	// No status outside the two endpoints of the move is touched.
	for _, c := range batch.calls {
		if c.collection != StatusStatsCollection {
			continue
		}
		if s := c.filter["status"]; s != "lead" && s != "proposal" {
			t.Errorf("%s op touched unrelated status %v", c.op, s)
		}
	}

	if len(publisher.entries) != 1 {
		t.Errorf("published %d entries, want 1", len(publisher.entries))
	}
}

func TestRecordCardWriteCreate(t *testing.T) {
	agg, batch, _ := recordingAggregator()

	after := card("draft", nil)
	after.StatusSince = time.Now().UnixMilli()
	if err := agg.RecordCardWrite(context.Background(), "sales", nil, after, "amy-id"); err != nil {
		t.Fatalf("RecordCardWrite returned %v", err)
	}

	if got := len(batch.callsOf("increment")); got != 0 {
		t.Errorf("create incremented counters %d times, want 0", got)
	}
	if got := len(batch.callsOf("unset")); got != 0 {
		t.Errorf("create removed pendings %d times, want 0", got)
	}
	merges := batch.callsOf("merge")
	if len(merges) != 1 || merges[0].filter["status"] != "draft" {
		t.Fatalf("pending additions = %v, want one on draft", merges)
	}
}

func TestRecordCardWriteDelete(t *testing.T) {
	agg, batch, _ := recordingAggregator()

	before := card("lead", nil)
	before.StatusSince = time.Now().Add(-time.Minute).UnixMilli()
	if err := agg.RecordCardWrite(context.Background(), "sales", before, nil, "amy-id"); err != nil {
		t.Fatalf("RecordCardWrite returned %v", err)
	}

	// Removing a card abandons its dwell interval instead of counting it.
	if got := len(batch.callsOf("increment")); got != 0 {
		t.Errorf("delete incremented counters %d times, want 0", got)
	}
	if got := len(batch.callsOf("merge")); got != 0 {
		t.Errorf("delete added pendings %d times, want 0", got)
	}
	unsets := batch.callsOf("unset")
	if len(unsets) != 1 || unsets[0].filter["status"] != "lead" {
		t.Fatalf("pending removals = %v, want one on lead", unsets)
	}
}

func TestRecordCardWriteSkipsUnchangedUpdate(t *testing.T) {
	agg, batch, publisher := recordingAggregator()

	before := card("lead", map[string]interface{}{"budget": float64(500)})
	after := card("lead", map[string]interface{}{"budget": float64(500)})
	if err := agg.RecordCardWrite(context.Background(), "sales", before, after, "amy-id"); err != nil {
		t.Fatalf("RecordCardWrite returned %v", err)
	}
	if len(batch.calls) != 0 || batch.commits != 0 {
		t.Errorf("no-op edit still wrote %v", batch.calls)
	}
	if len(publisher.entries) != 0 {
		t.Errorf("no-op edit published %d entries", len(publisher.entries))
	}
}
