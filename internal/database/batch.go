package database

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Batch collects writes across collections and commits them together. When
// the server supports multi-document transactions (replica set) the commit is
// atomic; on a standalone server the operations run sequentially, which keeps
// development setups working. Individual operations are restricted to
// merge-set, field increment and keyed unset, all of which are commutative
// and safe under duplicate delivery.
type Batch struct {
	db  *mongo.Database
	ops []batchOp
}

type batchOp struct {
	collection string
	insert     interface{}
	filter     bson.M
	update     bson.M
}

// NewBatch starts an empty batch against the database.
func (m *MongodbDB) NewBatch() *Batch {
	return &Batch{db: m.DB}
}

// InsertOne appends a plain insert.
func (b *Batch) InsertOne(collection string, doc interface{}) *Batch {
	b.ops = append(b.ops, batchOp{collection: collection, insert: doc})
	return b
}

// MergeSet appends an upserting $set of the given fields. A dotted field path
// acts as a keyed map upsert (e.g. "current_pendings.<cardId>").
func (b *Batch) MergeSet(collection string, filter bson.M, fields bson.M) *Batch {
	b.ops = append(b.ops, batchOp{
		collection: collection,
		filter:     filter,
		update:     bson.M{"$set": fields},
	})
	return b
}

// Increment appends an upserting $inc of the numeric fields, optionally
// setting non-numeric fields in the same operation.
func (b *Batch) Increment(collection string, filter bson.M, inc bson.M, set bson.M) *Batch {
	update := bson.M{"$inc": inc}
	if len(set) > 0 {
		update["$set"] = set
	}
	b.ops = append(b.ops, batchOp{collection: collection, filter: filter, update: update})
	return b
}

// Unset appends a keyed delete of the given field paths. Unsetting a path
// that is already absent is a no-op, which is what makes removal idempotent.
func (b *Batch) Unset(collection string, filter bson.M, paths ...string) *Batch {
	fields := bson.M{}
	for _, p := range paths {
		fields[p] = ""
	}
	b.ops = append(b.ops, batchOp{
		collection: collection,
		filter:     filter,
		update:     bson.M{"$unset": fields},
	})
	return b
}

// Commit executes every queued operation. Either all operations are applied
// or, under a transaction-capable server, none are.
func (b *Batch) Commit(ctx context.Context) error {
	if len(b.ops) == 0 {
		return nil
	}

	session, err := b.db.Client().StartSession()
	if err != nil {
		return b.run(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, b.run(sc)
	})
	if err != nil && isTransactionUnsupported(err) {
		return b.run(ctx)
	}
	return err
}

func (b *Batch) run(ctx context.Context) error {
	upsert := options.Update().SetUpsert(true)
	for _, op := range b.ops {
		coll := b.db.Collection(op.collection)
		if op.insert != nil {
			if _, err := coll.InsertOne(ctx, op.insert); err != nil {
				return err
			}
			continue
		}
		if _, err := coll.UpdateOne(ctx, op.filter, op.update, upsert); err != nil {
			return err
		}
	}
	return nil
}

func isTransactionUnsupported(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Transaction numbers are only allowed") ||
		strings.Contains(msg, "IllegalOperation")
}
