package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taxdesk/internal/domain"
	"taxdesk/internal/port"
)

type sectionDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	TaxYear   string    `bson:"taxYear"`
	Data      bson.Raw  `bson:"data"`
	Version   int64     `bson:"version"`
	Position  int       `bson:"position"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type sectionStore struct {
	db *mongo.Database
}

// NewSectionStore creates a SectionStore that keeps each kind in its own collection.
func NewSectionStore(db *mongo.Database) port.SectionStore {
	return &sectionStore{db: db}
}

func (s *sectionStore) coll(desc domain.SectionDescriptor) *mongo.Collection {
	return s.db.Collection(desc.Collection)
}

func keyFilter(key domain.SectionKey, exactYear bool) bson.M {
	filter := bson.M{"userId": key.UserID.String()}
	if exactYear || key.TaxYear != "" {
		filter["taxYear"] = key.TaxYear
	}
	return filter
}

var newestFirst = bson.D{{Key: "updatedAt", Value: -1}, {Key: "position", Value: 1}}

func (s *sectionStore) Find(ctx context.Context, desc domain.SectionDescriptor, key domain.SectionKey) ([]domain.SectionRecord, error) {
	key = desc.KeyFor(key)
	return s.find(ctx, desc, keyFilter(key, false))
}

func (s *sectionStore) GetByID(ctx context.Context, desc domain.SectionDescriptor, id uuid.UUID) (*domain.SectionRecord, error) {
	var doc sectionDoc
	err := s.coll(desc).FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSectionNotFound
		}
		return nil, fmt.Errorf("mongoSectionStore.GetByID %s: %w", desc.Kind, err)
	}
	return toRecord(desc.Kind, &doc)
}

func (s *sectionStore) ListByKind(ctx context.Context, desc domain.SectionDescriptor) ([]domain.SectionRecord, error) {
	return s.find(ctx, desc, bson.M{})
}

func (s *sectionStore) Upsert(ctx context.Context, desc domain.SectionDescriptor, key domain.SectionKey, data json.RawMessage) (*domain.SectionRecord, error) {
	key = desc.KeyFor(key)
	payload, err := toBSON(data)
	if err != nil {
		return nil, err
	}
	if !desc.IsSingleton() {
		records, err := s.insert(ctx, desc, key, []bson.D{payload})
		if err != nil {
			return nil, err
		}
		return &records[0], nil
	}

	now := time.Now().UTC()
	update := bson.M{
		"$set":         bson.M{"data": payload, "updatedAt": now, "position": 0},
		"$setOnInsert": bson.M{"_id": uuid.NewString(), "createdAt": now},
		"$inc":         bson.M{"version": int64(1)},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc sectionDoc
	err = s.coll(desc).FindOneAndUpdate(ctx, keyFilter(key, true), update, opts).Decode(&doc)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		// Lost the insert race to a concurrent upsert; the retry takes the update path.
		err = s.coll(desc).FindOneAndUpdate(ctx, keyFilter(key, true), update, opts).Decode(&doc)
	}
	if err != nil {
		return nil, fmt.Errorf("mongoSectionStore.Upsert %s: %w", desc.Kind, err)
	}
	return toRecord(desc.Kind, &doc)
}

func (s *sectionStore) ReplaceAll(ctx context.Context, desc domain.SectionDescriptor, key domain.SectionKey, items []json.RawMessage) ([]domain.SectionRecord, error) {
	key = desc.KeyFor(key)
	payloads := make([]bson.D, 0, len(items))
	for _, item := range items {
		p, err := toBSON(item)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, p)
	}

	if _, err := s.coll(desc).DeleteMany(ctx, keyFilter(key, true)); err != nil {
		return nil, fmt.Errorf("mongoSectionStore.ReplaceAll delete %s: %w", desc.Kind, err)
	}
	if len(payloads) == 0 {
		return []domain.SectionRecord{}, nil
	}
	return s.insert(ctx, desc, key, payloads)
}

func (s *sectionStore) CreateMany(ctx context.Context, desc domain.SectionDescriptor, records []domain.SectionRecord) ([]domain.SectionRecord, error) {
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(records))
	out := make([]domain.SectionRecord, 0, len(records))
	for i := range records {
		key := desc.KeyFor(domain.SectionKey{UserID: records[i].UserID, TaxYear: records[i].TaxYear})
		payload, err := toBSON(records[i].Data)
		if err != nil {
			return nil, err
		}
		id := uuid.New()
		docs = append(docs, bson.M{
			"_id": id.String(), "userId": key.UserID.String(), "taxYear": key.TaxYear,
			"data": payload, "version": int64(1), "position": i, "createdAt": now, "updatedAt": now,
		})
		out = append(out, domain.SectionRecord{
			ID: id, Kind: desc.Kind, UserID: key.UserID, TaxYear: key.TaxYear,
			Data: records[i].Data, Version: 1, CreatedAt: now, UpdatedAt: now,
		})
	}
	if len(docs) == 0 {
		return out, nil
	}
	if _, err := s.coll(desc).InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateSection
		}
		return nil, fmt.Errorf("mongoSectionStore.CreateMany %s: %w", desc.Kind, err)
	}
	return out, nil
}

func (s *sectionStore) MergeData(ctx context.Context, desc domain.SectionDescriptor, id uuid.UUID, patch json.RawMessage) (*domain.SectionRecord, error) {
	fields, err := toBSON(patch)
	if err != nil {
		return nil, err
	}
	set := bson.M{"updatedAt": time.Now().UTC()}
	for _, e := range fields {
		if e.Key == "" || strings.ContainsAny(e.Key, ".$") {
			return nil, domain.NewValidationError(domain.ErrSectionShapeMismatch,
				fmt.Sprintf("field name %q is not allowed", e.Key))
		}
		set["data."+e.Key] = e.Value
	}

	var doc sectionDoc
	err = s.coll(desc).FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": set, "$inc": bson.M{"version": int64(1)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSectionNotFound
		}
		return nil, fmt.Errorf("mongoSectionStore.MergeData %s: %w", desc.Kind, err)
	}
	return toRecord(desc.Kind, &doc)
}

func (s *sectionStore) ReplaceData(ctx context.Context, desc domain.SectionDescriptor, id uuid.UUID, expectedVersion int64, data json.RawMessage) (*domain.SectionRecord, error) {
	payload, err := toBSON(data)
	if err != nil {
		return nil, err
	}
	var doc sectionDoc
	err = s.coll(desc).FindOneAndUpdate(ctx,
		bson.M{"_id": id.String(), "version": expectedVersion},
		bson.M{"$set": bson.M{"data": payload, "updatedAt": time.Now().UTC()}, "$inc": bson.M{"version": int64(1)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return toRecord(desc.Kind, &doc)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("mongoSectionStore.ReplaceData %s: %w", desc.Kind, err)
	}

	n, err := s.coll(desc).CountDocuments(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return nil, fmt.Errorf("mongoSectionStore.ReplaceData count: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrSectionNotFound
	}
	return nil, domain.ErrVersionConflict
}

func (s *sectionStore) DeleteByIDs(ctx context.Context, desc domain.SectionDescriptor, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	strIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		strIDs = append(strIDs, id.String())
	}
	res, err := s.coll(desc).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": strIDs}})
	if err != nil {
		return 0, fmt.Errorf("mongoSectionStore.DeleteByIDs %s: %w", desc.Kind, err)
	}
	return res.DeletedCount, nil
}

func (s *sectionStore) CountByKind(ctx context.Context, descs []domain.SectionDescriptor, key domain.SectionKey) (map[domain.SectionKind]int, error) {
	counts := make(map[domain.SectionKind]int, len(descs))
	for _, desc := range descs {
		n, err := s.coll(desc).CountDocuments(ctx, keyFilter(desc.KeyFor(key), false))
		if err != nil {
			return nil, fmt.Errorf("mongoSectionStore.CountByKind %s: %w", desc.Kind, err)
		}
		counts[desc.Kind] = int(n)
	}
	return counts, nil
}

func (s *sectionStore) find(ctx context.Context, desc domain.SectionDescriptor, filter bson.M) ([]domain.SectionRecord, error) {
	cur, err := s.coll(desc).Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("mongoSectionStore.Find %s: %w", desc.Kind, err)
	}
	var docs []sectionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongoSectionStore.Find decode %s: %w", desc.Kind, err)
	}
	out := make([]domain.SectionRecord, 0, len(docs))
	for i := range docs {
		rec, err := toRecord(desc.Kind, &docs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (s *sectionStore) insert(ctx context.Context, desc domain.SectionDescriptor, key domain.SectionKey, payloads []bson.D) ([]domain.SectionRecord, error) {
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(payloads))
	ids := make([]uuid.UUID, 0, len(payloads))
	for i, p := range payloads {
		id := uuid.New()
		ids = append(ids, id)
		docs = append(docs, bson.M{
			"_id": id.String(), "userId": key.UserID.String(), "taxYear": key.TaxYear,
			"data": p, "version": int64(1), "position": i, "createdAt": now, "updatedAt": now,
		})
	}
	if _, err := s.coll(desc).InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("mongoSectionStore.insert %s: %w", desc.Kind, err)
	}

	out := make([]domain.SectionRecord, 0, len(payloads))
	for i, p := range payloads {
		data, err := bson.MarshalExtJSON(p, false, false)
		if err != nil {
			return nil, fmt.Errorf("mongoSectionStore.insert encode: %w", err)
		}
		out = append(out, domain.SectionRecord{
			ID: ids[i], Kind: desc.Kind, UserID: key.UserID, TaxYear: key.TaxYear,
			Data: data, Version: 1, CreatedAt: now, UpdatedAt: now,
		})
	}
	return out, nil
}

// toBSON converts a JSON object into a BSON document, keeping field order.
func toBSON(data json.RawMessage) (bson.D, error) {
	if len(data) == 0 {
		return bson.D{}, nil
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, domain.NewValidationError(domain.ErrSectionShapeMismatch, "section data must be a JSON object")
	}
	return doc, nil
}

func toRecord(kind domain.SectionKind, doc *sectionDoc) (*domain.SectionRecord, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("mongoSectionStore: bad _id %q: %w", doc.ID, err)
	}
	userID, err := uuid.Parse(doc.UserID)
	if err != nil {
		return nil, fmt.Errorf("mongoSectionStore: bad userId %q: %w", doc.UserID, err)
	}
	data := json.RawMessage("{}")
	if len(doc.Data) > 0 {
		data, err = bson.MarshalExtJSON(doc.Data, false, false)
		if err != nil {
			return nil, fmt.Errorf("mongoSectionStore: encoding data: %w", err)
		}
	}
	return &domain.SectionRecord{
		ID:        id,
		Kind:      kind,
		UserID:    userID,
		TaxYear:   doc.TaxYear,
		Data:      data,
		Version:   doc.Version,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}
