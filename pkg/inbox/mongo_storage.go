package inbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/docnotify/pkg/docevent"
)

const (
	contextsCollection      = "notify_contexts"
	notificationsCollection = "inbox_notifications"
	rollupsCollection       = "doc_updates"
)

// MongoStorage is the production Storage implementation. Batches run in
// a multi-document transaction, so the backing deployment must be a
// replica set. Optimistic concurrency uses the context version field: a
// compare-and-set miss aborts with ErrConcurrentUpdate and the manager
// retries the whole batch.
type MongoStorage struct {
	client        *mongo.Client
	contexts      *mongo.Collection
	notifications *mongo.Collection
	rollups       *mongo.Collection
}

// NewMongoStorage creates a storage on the given database.
func NewMongoStorage(db *mongo.Database) *MongoStorage {
	return &MongoStorage{
		client:        db.Client(),
		contexts:      db.Collection(contextsCollection),
		notifications: db.Collection(notificationsCollection),
		rollups:       db.Collection(rollupsCollection),
	}
}

// EnsureIndexes creates the indexes the storage relies on. The unique
// (user_id, source_tx) index on notifications is what makes batch
// application idempotent; call this once at startup.
func (s *MongoStorage) EnsureIndexes(ctx context.Context) error {
	_, err := s.contexts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "document_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "hidden", Value: 1}, {Key: "last_updated_at", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create context indexes: %w", err)
	}

	_, err = s.notifications.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "source_tx", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "context_id", Value: 1}, {Key: "created_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "viewed", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create notification indexes: %w", err)
	}

	_, err = s.rollups.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "document_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create rollup indexes: %w", err)
	}
	return nil
}

func (s *MongoStorage) GetContext(ctx context.Context, user docevent.UserID, doc docevent.ID) (*NotifyContext, error) {
	var c NotifyContext
	err := s.contexts.FindOne(ctx, bson.M{"user_id": user, "document_id": doc}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrContextNotFound
		}
		return nil, fmt.Errorf("get context: %w", err)
	}
	return &c, nil
}

func (s *MongoStorage) ListContexts(ctx context.Context, user docevent.UserID) ([]NotifyContext, error) {
	cursor, err := s.contexts.Find(ctx,
		bson.M{"user_id": user, "hidden": false},
		options.Find().SetSort(bson.D{{Key: "last_updated_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list contexts: %w", err)
	}
	var out []NotifyContext
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode contexts: %w", err)
	}
	return out, nil
}

func (s *MongoStorage) EnsureContext(ctx context.Context, user docevent.UserID, doc docevent.ID, class docevent.Class, now time.Time) (*NotifyContext, error) {
	c, created, err := s.findOrCreateContext(ctx, user, doc, class, now)
	if err != nil {
		return nil, err
	}
	if created || !c.Hidden {
		return c, nil
	}

	if _, err := Transition(c.State(), EventSubscribe); err != nil {
		return nil, err
	}
	res, err := s.contexts.UpdateOne(ctx,
		bson.M{"_id": c.ID, "version": c.Version},
		bson.M{"$set": bson.M{"hidden": false}, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return nil, fmt.Errorf("activate context: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrConcurrentUpdate
	}
	c.Hidden = false
	c.Version++
	return c, nil
}

func (s *MongoStorage) ApplyBatch(ctx context.Context, batch Batch) ([]Notification, error) {
	if len(batch.Entries) == 0 {
		return nil, ErrEmptyBatch
	}

	session, err := s.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		var created []Notification
		for _, entry := range batch.Entries {
			c, fresh, err := s.findOrCreateContext(ctx, entry.User, batch.DocumentID, batch.DocumentClass, batch.Timestamp)
			if err != nil {
				return nil, err
			}
			if !fresh {
				// $max keeps LastUpdatedAt monotonic for late-arriving
				// older transactions; the version filter is the CAS.
				res, err := s.contexts.UpdateOne(ctx,
					bson.M{"_id": c.ID, "version": c.Version},
					bson.M{
						"$max": bson.M{"last_updated_at": batch.Timestamp},
						"$set": bson.M{"hidden": false},
						"$inc": bson.M{"version": 1},
					},
				)
				if err != nil {
					return nil, fmt.Errorf("update context: %w", err)
				}
				if res.MatchedCount == 0 {
					return nil, ErrConcurrentUpdate
				}
			}

			notif := Notification{
				ID:           newID(),
				UserID:       entry.User,
				SourceTx:     entry.SourceTx,
				MessageClass: entry.MessageClass,
				ContextID:    c.ID,
				Viewed:       false,
				CreatedAt:    batch.Timestamp,
				Title:        entry.Title,
				Body:         entry.Body,
			}
			if _, err := s.notifications.InsertOne(ctx, notif); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					continue
				}
				return nil, fmt.Errorf("insert notification: %w", err)
			}
			created = append(created, notif)

			if err := s.appendRollup(ctx, batch, entry); err != nil {
				return nil, err
			}
		}
		return created, nil
	})
	if err != nil {
		return nil, err
	}
	created, _ := result.([]Notification)
	return created, nil
}

func (s *MongoStorage) ListNotifications(ctx context.Context, user docevent.UserID, contextID docevent.ID, opts ListOptions) ([]Notification, error) {
	filter := bson.M{"user_id": user, "context_id": contextID}
	if opts.OnlyUnread {
		filter["viewed"] = false
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := s.notifications.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	var out []Notification
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return out, nil
}

func (s *MongoStorage) SetViewed(ctx context.Context, user docevent.UserID, messages []docevent.ID, viewed bool) error {
	if len(messages) == 0 {
		return nil
	}
	_, err := s.notifications.UpdateMany(ctx,
		bson.M{"user_id": user, "source_tx": bson.M{"$in": messages}},
		bson.M{"$set": bson.M{"viewed": viewed}},
	)
	if err != nil {
		return fmt.Errorf("set viewed: %w", err)
	}
	return nil
}

func (s *MongoStorage) ReadContext(ctx context.Context, user docevent.UserID, doc docevent.ID, now time.Time) error {
	c, err := s.GetContext(ctx, user, doc)
	if err != nil {
		if errors.Is(err, ErrContextNotFound) {
			return nil
		}
		return err
	}

	// Only notifications present at this point are marked viewed; an
	// entry applied concurrently afterwards stays unread.
	_, err = s.notifications.UpdateMany(ctx,
		bson.M{"user_id": user, "context_id": c.ID, "viewed": false},
		bson.M{"$set": bson.M{"viewed": true}},
	)
	if err != nil {
		return fmt.Errorf("mark notifications viewed: %w", err)
	}

	res, err := s.contexts.UpdateOne(ctx,
		bson.M{"_id": c.ID, "version": c.Version},
		bson.M{"$set": bson.M{"last_viewed_at": now}, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return fmt.Errorf("advance last viewed: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

func (s *MongoStorage) DeleteByMessages(ctx context.Context, user docevent.UserID, messages []docevent.ID) error {
	if len(messages) == 0 {
		return nil
	}
	_, err := s.notifications.DeleteMany(ctx,
		bson.M{"user_id": user, "source_tx": bson.M{"$in": messages}},
	)
	if err != nil {
		return fmt.Errorf("delete by messages: %w", err)
	}
	return nil
}

func (s *MongoStorage) SetHidden(ctx context.Context, user docevent.UserID, doc docevent.ID, hidden bool) error {
	c, err := s.GetContext(ctx, user, doc)
	if err != nil {
		if errors.Is(err, ErrContextNotFound) {
			return nil
		}
		return err
	}

	event := EventHide
	if !hidden {
		event = EventSubscribe
	}
	next, err := Transition(c.State(), event)
	if err != nil {
		return err
	}

	res, err := s.contexts.UpdateOne(ctx,
		bson.M{"_id": c.ID, "version": c.Version},
		bson.M{"$set": bson.M{"hidden": next == StateHidden}, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return fmt.Errorf("set hidden: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrConcurrentUpdate
	}

	_, err = s.rollups.UpdateOne(ctx,
		bson.M{"user_id": user, "document_id": doc},
		bson.M{"$set": bson.M{"hidden": next == StateHidden}},
	)
	if err != nil {
		return fmt.Errorf("set rollup hidden: %w", err)
	}
	return nil
}

func (s *MongoStorage) DeleteDocument(ctx context.Context, doc docevent.ID) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		cursor, err := s.contexts.Find(ctx, bson.M{"document_id": doc})
		if err != nil {
			return nil, fmt.Errorf("find contexts: %w", err)
		}
		var doomed []NotifyContext
		if err := cursor.All(ctx, &doomed); err != nil {
			return nil, fmt.Errorf("decode contexts: %w", err)
		}

		ids := make([]docevent.ID, 0, len(doomed))
		for _, c := range doomed {
			ids = append(ids, c.ID)
		}
		if len(ids) > 0 {
			if _, err := s.notifications.DeleteMany(ctx, bson.M{"context_id": bson.M{"$in": ids}}); err != nil {
				return nil, fmt.Errorf("delete notifications: %w", err)
			}
		}
		if _, err := s.contexts.DeleteMany(ctx, bson.M{"document_id": doc}); err != nil {
			return nil, fmt.Errorf("delete contexts: %w", err)
		}
		if _, err := s.rollups.DeleteMany(ctx, bson.M{"document_id": doc}); err != nil {
			return nil, fmt.Errorf("delete rollups: %w", err)
		}
		return nil, nil
	})
	return err
}

func (s *MongoStorage) CountUnread(ctx context.Context, user docevent.UserID) (int, error) {
	count, err := s.notifications.CountDocuments(ctx, bson.M{"user_id": user, "viewed": false})
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return int(count), nil
}

func (s *MongoStorage) ListDocUpdates(ctx context.Context, user docevent.UserID) ([]DocUpdates, error) {
	cursor, err := s.rollups.Find(ctx,
		bson.M{"user_id": user},
		options.Find().SetSort(bson.D{{Key: "last_tx_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list doc updates: %w", err)
	}
	var out []DocUpdates
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode doc updates: %w", err)
	}
	return out, nil
}

// findOrCreateContext reads or inserts the context. A duplicate-key on
// insert means another writer created it first; that is reported as a
// concurrent update so the manager retries with a fresh read.
func (s *MongoStorage) findOrCreateContext(ctx context.Context, user docevent.UserID, doc docevent.ID, class docevent.Class, now time.Time) (*NotifyContext, bool, error) {
	var c NotifyContext
	err := s.contexts.FindOne(ctx, bson.M{"user_id": user, "document_id": doc}).Decode(&c)
	if err == nil {
		return &c, false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, fmt.Errorf("find context: %w", err)
	}

	c = NotifyContext{
		ID:            newID(),
		UserID:        user,
		DocumentID:    doc,
		DocumentClass: class,
		LastUpdatedAt: now,
		Version:       1,
	}
	if _, err := s.contexts.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, false, ErrConcurrentUpdate
		}
		return nil, false, fmt.Errorf("insert context: %w", err)
	}
	return &c, true, nil
}

func (s *MongoStorage) appendRollup(ctx context.Context, batch Batch, entry BatchEntry) error {
	update := DocUpdate{
		TxID:       entry.SourceTx,
		Author:     entry.Author,
		ModifiedAt: batch.Timestamp,
		IsNew:      entry.IsNew,
		Title:      entry.Title,
		Body:       entry.Body,
	}
	_, err := s.rollups.UpdateOne(ctx,
		bson.M{"user_id": entry.User, "document_id": batch.DocumentID},
		bson.M{
			"$setOnInsert": bson.M{"_id": newID(), "document_class": batch.DocumentClass},
			"$set":         bson.M{"hidden": false},
			"$max":         bson.M{"last_tx_at": batch.Timestamp},
			"$push":        bson.M{"updates": update},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("append rollup: %w", err)
	}
	return nil
}

func newID() docevent.ID {
	return docevent.ID(uuid.New().String())
}
