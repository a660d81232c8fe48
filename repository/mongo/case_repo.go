// Package mongo implements the storage adapter on MongoDB.
package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/linelist/backend/domain"
	"github.com/linelist/backend/repository"
)

const (
	casesCollection  = "cases"
	fieldsCollection = "fields"
)

// Store is the MongoDB-backed storage adapter.
type Store struct {
	cases  *mongo.Collection
	fields *mongo.Collection
	logger *zap.Logger
}

// NewStore wires the adapter onto a database handle.
func NewStore(db *mongo.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		cases:  db.Collection(casesCollection),
		fields: db.Collection(fieldsCollection),
		logger: logger,
	}
}

func (s *Store) CaseByID(ctx context.Context, id string) (*domain.Case, error) {
	var c domain.Case
	err := s.cases.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrCaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) FetchCases(ctx context.Context, page, limit int, filter domain.Filter) ([]domain.Case, error) {
	query, err := TranslateFilter(filter)
	if err != nil {
		return nil, err
	}
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := s.cases.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []domain.Case
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CountCases(ctx context.Context, filter domain.Filter) (int64, error) {
	query, err := TranslateFilter(filter)
	if err != nil {
		return 0, err
	}
	return s.cases.CountDocuments(ctx, query)
}

func (s *Store) InsertCase(ctx context.Context, c *domain.Case) error {
	if c.ID == "" {
		c.ID = primitive.NewObjectID().Hex()
	}
	_, err := s.cases.InsertOne(ctx, c)
	return err
}

func (s *Store) BatchUpsert(ctx context.Context, cases []domain.Case) (repository.UpsertResult, error) {
	var result repository.UpsertResult
	if len(cases) == 0 {
		return result, nil
	}

	models := make([]mongo.WriteModel, 0, len(cases))
	for i := range cases {
		c := cases[i]
		if c.CaseReference != nil && c.CaseReference.SourceEntryID != "" {
			doc, err := caseDoc(&c)
			if err != nil {
				return result, err
			}
			models = append(models, mongo.NewUpdateOneModel().
				SetFilter(bson.M{
					"caseReference.sourceId":      c.CaseReference.SourceID,
					"caseReference.sourceEntryId": c.CaseReference.SourceEntryID,
				}).
				SetUpdate(bson.M{
					"$set":         doc,
					"$setOnInsert": bson.M{"_id": primitive.NewObjectID().Hex()},
				}).
				SetUpsert(true))
			continue
		}
		if c.ID == "" {
			c.ID = primitive.NewObjectID().Hex()
		}
		models = append(models, mongo.NewInsertOneModel().SetDocument(c))
	}

	res, err := s.cases.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if res != nil {
		result.NumCreated = int(res.InsertedCount + res.UpsertedCount)
		result.NumUpdated = int(res.MatchedCount)
	}
	return result, err
}

func (s *Store) UpdateCase(ctx context.Context, id string, update *domain.DocumentUpdate) error {
	doc := updateDoc(update)
	if len(doc) == 0 {
		return nil
	}
	res, err := s.cases.UpdateByID(ctx, id, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrCaseNotFound
	}
	return nil
}

func (s *Store) BatchUpdate(ctx context.Context, updates map[string]*domain.DocumentUpdate) (int64, error) {
	models := make([]mongo.WriteModel, 0, len(updates))
	for id, update := range updates {
		doc := updateDoc(update)
		if len(doc) == 0 {
			continue
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(doc))
	}
	if len(models) == 0 {
		return 0, nil
	}
	res, err := s.cases.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *Store) DeleteCase(ctx context.Context, id string) error {
	res, err := s.cases.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrCaseNotFound
	}
	return nil
}

func (s *Store) DeleteCases(ctx context.Context, filter domain.Filter) (int64, error) {
	query, err := TranslateFilter(filter)
	if err != nil {
		return 0, err
	}
	res, err := s.cases.DeleteMany(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) MatchingCases(ctx context.Context, filter domain.Filter) (repository.CaseIterator, error) {
	query, err := TranslateFilter(filter)
	if err != nil {
		return nil, err
	}
	cursor, err := s.cases.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	return &cursorIterator{cursor: cursor}, nil
}

func (s *Store) CasesByID(ctx context.Context, ids []string) (repository.CaseIterator, error) {
	cursor, err := s.cases.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	return &cursorIterator{cursor: cursor}, nil
}

func (s *Store) ExcludedCases(ctx context.Context, sourceID string, filter domain.Filter) ([]domain.Case, error) {
	query, err := TranslateFilter(filter)
	if err != nil {
		return nil, err
	}
	combined := bson.M{"$and": bson.A{
		bson.M{"caseReference.sourceId": sourceID},
		bson.M{"caseReference.status": string(domain.StatusExcluded)},
		query,
	}}
	cursor, err := s.cases.Find(ctx, combined)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []domain.Case
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) FillMissingField(ctx context.Context, key string, value interface{}) (int64, error) {
	path := storagePath(key)
	res, err := s.cases.UpdateMany(ctx,
		bson.M{"$or": bson.A{
			bson.M{path: bson.M{"$exists": false}},
			bson.M{path: nil},
		}},
		bson.M{"$set": bson.M{path: bsonValue(value)}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *Store) AddField(ctx context.Context, field domain.Field) error {
	count, err := s.fields.CountDocuments(ctx, bson.M{"key": field.Key})
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.NewErrorf(domain.ErrCodeConflict, "field %q is already declared", field.Key)
	}
	order, err := s.fields.CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	doc := bson.M{
		"key":                field.Key,
		"type":               string(field.Type),
		"dataDictionaryText": field.DataDictionaryText,
		"required":           field.Required,
		"order":              order,
	}
	if field.Default != nil {
		doc["default"] = bsonValue(field.Default)
	}
	if len(field.EnumValues) > 0 {
		doc["values"] = field.EnumValues
	}
	_, err = s.fields.InsertOne(ctx, doc)
	return err
}

func (s *Store) CaseFields(ctx context.Context) ([]domain.Field, error) {
	cursor, err := s.fields.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"order": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []domain.Field
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// caseDoc renders the case as a bson document without its identifier, for
// use inside $set.
func caseDoc(c *domain.Case) (bson.M, error) {
	raw, err := bson.Marshal(c)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, "_id")
	return doc, nil
}

// updateDoc renders a document update as $set/$unset operators.
func updateDoc(update *domain.DocumentUpdate) bson.M {
	doc := bson.M{}
	if sets := update.Sets(); len(sets) > 0 {
		set := bson.M{}
		for _, pv := range sets {
			set[storagePath(pv.Path)] = bsonValue(pv.Value)
		}
		doc["$set"] = set
	}
	if unsets := update.Unsets(); len(unsets) > 0 {
		unset := bson.M{}
		for _, path := range unsets {
			unset[storagePath(path)] = ""
		}
		doc["$unset"] = unset
	}
	return doc
}

type cursorIterator struct {
	cursor  *mongo.Cursor
	current *domain.Case
	err     error
}

func (it *cursorIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	if !it.cursor.Next(ctx) {
		return false
	}
	var c domain.Case
	if err := it.cursor.Decode(&c); err != nil {
		it.err = err
		return false
	}
	it.current = &c
	return true
}

func (it *cursorIterator) Case() *domain.Case {
	return it.current
}

func (it *cursorIterator) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.cursor.Err()
}

func (it *cursorIterator) Close(ctx context.Context) error {
	return it.cursor.Close(ctx)
}
