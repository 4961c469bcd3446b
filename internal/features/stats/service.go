package stats

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/peatiscoding/cadence-sub000/internal/common/models"
	"github.com/peatiscoding/cadence-sub000/internal/database"
)

const (
	ActivityLogCollection = "activity_logs"
	StatusStatsCollection = "status_stats"
)

// Publisher receives every recorded activity entry for live delivery. The
// aggregator never blocks on it; implementations must be non-blocking.
type Publisher interface {
	Publish(entry models.ActivityLog)
}

// Aggregator turns card write events into activity-log entries and keeps the
// per-status statistics current. It satisfies card.ActivityRecorder.
type Aggregator interface {
	RecordCardWrite(ctx context.Context, workflowID string, before, after *models.CardEntry, userID string) error
}

// cardWriteBatch is the slice of the database batch this aggregator writes
// through. Narrowing it here lets tests capture the queued operations.
type cardWriteBatch interface {
	InsertOne(collection string, doc interface{})
	MergeSet(collection string, filter bson.M, fields bson.M)
	Increment(collection string, filter bson.M, inc bson.M, set bson.M)
	Unset(collection string, filter bson.M, paths ...string)
	Commit(ctx context.Context) error
}

type mongoBatch struct {
	batch *database.Batch
}

func (m mongoBatch) InsertOne(collection string, doc interface{}) {
	m.batch.InsertOne(collection, doc)
}

func (m mongoBatch) MergeSet(collection string, filter bson.M, fields bson.M) {
	m.batch.MergeSet(collection, filter, fields)
}

func (m mongoBatch) Increment(collection string, filter bson.M, inc bson.M, set bson.M) {
	m.batch.Increment(collection, filter, inc, set)
}

func (m mongoBatch) Unset(collection string, filter bson.M, paths ...string) {
	m.batch.Unset(collection, filter, paths...)
}

func (m mongoBatch) Commit(ctx context.Context) error {
	return m.batch.Commit(ctx)
}

type AggregatorImpl struct {
	DB        *database.MongodbDB
	Publisher Publisher
	Logger    *zap.Logger

	newBatch func() cardWriteBatch
}

func NewAggregator(db *database.MongodbDB, publisher Publisher, logger *zap.Logger) Aggregator {
	a := &AggregatorImpl{DB: db, Publisher: publisher, Logger: logger}
	a.newBatch = func() cardWriteBatch { return mongoBatch{batch: db.NewBatch()} }
	return a
}

// RecordCardWrite classifies the event from the two snapshots, computes the
// field diff, and commits the activity log together with the stats updates in
// a single batch so readers never observe a log entry without its counters or
// the other way around.
func (a *AggregatorImpl) RecordCardWrite(ctx context.Context, workflowID string, before, after *models.CardEntry, userID string) error {
	action, err := classify(before, after)
	if err != nil {
		return err
	}

	changes := GenerateChanges(before, after)
	if action != models.ActivityActionDelete && len(changes) == 0 {
		return nil
	}

	now := time.Now()
	entry := models.ActivityLog{
		ID:         primitive.NewObjectID(),
		WorkflowID: workflowID,
		CardID:     cardID(before, after),
		CardTitle:  cardTitle(before, after),
		UserID:     userID,
		Action:     action,
		Changes:    changes,
		Timestamp:  now,
	}

	batch := a.newBatch()
	batch.InsertOne(ActivityLogCollection, entry)
	a.applyStatsOps(batch, workflowID, action, before, after, userID, now)

	if err := batch.Commit(ctx); err != nil {
		return err
	}

	if a.Publisher != nil {
		a.Publisher.Publish(entry)
	}
	return nil
}

// applyStatsOps queues the pending-entry and counter updates implied by the
// event. Entering a status adds a keyed pending entry; leaving one increments
// the dwell-time counters and removes the entry. A delete only clears the
// pending entry, it does not count as a completed transition.
func (a *AggregatorImpl) applyStatsOps(batch cardWriteBatch, workflowID string, action models.ActivityAction, before, after *models.CardEntry, userID string, now time.Time) {
	switch action {
	case models.ActivityActionCreate:
		a.addPending(batch, workflowID, after, userID, now)
	case models.ActivityActionTransit:
		a.closePending(batch, workflowID, before, now, true)
		a.addPending(batch, workflowID, after, userID, now)
	case models.ActivityActionDelete:
		a.closePending(batch, workflowID, before, now, false)
	case models.ActivityActionUpdate:
		// in-place edits do not move the card between statuses
	}
}

func (a *AggregatorImpl) addPending(batch cardWriteBatch, workflowID string, card *models.CardEntry, userID string, now time.Time) {
	since := epochMillis(card.StatusSince)
	if since == 0 {
		since = now.UnixMilli()
	}
	pending := models.PendingEntry{
		CardID:      card.WorkflowCardID,
		StatusSince: since,
		Value:       card.Value,
		UserID:      userID,
	}
	batch.MergeSet(StatusStatsCollection, statsFilter(workflowID, card.Status), bson.M{
		"workflow_id": workflowID,
		"status":      card.Status,
		"current_pendings." + card.WorkflowCardID: pending,
		"last_updated": now,
	})
}

func (a *AggregatorImpl) closePending(batch cardWriteBatch, workflowID string, card *models.CardEntry, now time.Time, countTransition bool) {
	filter := statsFilter(workflowID, card.Status)
	if countTransition {
		elapsed := now.UnixMilli() - epochMillis(card.StatusSince)
		if elapsed < 0 {
			elapsed = 0
		}
		batch.Increment(StatusStatsCollection, filter, bson.M{
			"total_transition_time":  elapsed,
			"total_transition_count": 1,
		}, bson.M{
			"workflow_id":  workflowID,
			"status":       card.Status,
			"last_updated": now,
		})
	}
	batch.Unset(StatusStatsCollection, filter, "current_pendings."+card.WorkflowCardID)
}

func statsFilter(workflowID, status string) bson.M {
	return bson.M{"workflow_id": workflowID, "status": status}
}

func classify(before, after *models.CardEntry) (models.ActivityAction, error) {
	switch {
	case before == nil && after == nil:
		return "", errors.New("activity event carries no card snapshot")
	case before == nil:
		return models.ActivityActionCreate, nil
	case after == nil:
		return models.ActivityActionDelete, nil
	case before.Status != after.Status:
		return models.ActivityActionTransit, nil
	default:
		return models.ActivityActionUpdate, nil
	}
}

func cardID(before, after *models.CardEntry) string {
	if after != nil {
		return after.WorkflowCardID
	}
	return before.WorkflowCardID
}

func cardTitle(before, after *models.CardEntry) string {
	if after != nil {
		return after.Title
	}
	return before.Title
}

// epochMillis normalizes the loosely typed status_since field. Historical
// documents carry either an epoch-millis number or a BSON datetime.
func epochMillis(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case time.Time:
		return t.UnixMilli()
	case primitive.DateTime:
		return int64(t)
	}
	return 0
}
