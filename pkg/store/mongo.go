package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flowviz/flowviz/pkg/errors"
	"github.com/flowviz/flowviz/pkg/scene"
)

// sceneCollection is the MongoDB collection holding scenes.
const sceneCollection = "scenes"

// MongoStore persists scenes in a MongoDB collection, keyed by scene id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// sceneDoc wraps a scene with denormalized counts so List can project
// metadata without loading full documents.
type sceneDoc struct {
	scene.Scene `bson:",inline"`
	Nodes       int `bson:"nodes"`
	Edges       int `bson:"edges"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, uri, db string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connecting to MongoDB")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "pinging MongoDB")
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(db).Collection(sceneCollection),
	}, nil
}

// Put saves a scene, replacing any existing document with the same id.
func (st *MongoStore) Put(ctx context.Context, s *scene.Scene) error {
	if err := s.Validate(); err != nil {
		return err
	}

	info := s.Info()
	doc := sceneDoc{
		Scene: *s,
		Nodes: info.Nodes,
		Edges: info.Edges,
	}
	_, err := st.coll.ReplaceOne(ctx,
		bson.M{"_id": s.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "saving scene %s", s.ID)
	}
	return nil
}

// Get retrieves a scene by id.
func (st *MongoStore) Get(ctx context.Context, id string) (*scene.Scene, error) {
	var s scene.Scene
	err := st.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeSceneNotFound, "scene %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "loading scene %s", id)
	}
	return &s, nil
}

// List returns metadata for all stored scenes, newest first.
// Only the denormalized metadata fields are fetched.
func (st *MongoStore) List(ctx context.Context) ([]scene.Info, error) {
	cursor, err := st.coll.Find(ctx, bson.M{}, options.Find().
		SetProjection(bson.M{
			"name":       1,
			"nodes":      1,
			"edges":      1,
			"created_at": 1,
			"updated_at": 1,
		}).
		SetSort(bson.D{{Key: "updated_at", Value: -1}}),
	)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "listing scenes")
	}

	infos := []scene.Info{}
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decoding scene listing")
	}
	return infos, nil
}

// Delete removes a scene by id.
func (st *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := st.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "deleting scene %s", id)
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeSceneNotFound, "scene %s not found", id)
	}
	return nil
}

// Close disconnects from MongoDB.
func (st *MongoStore) Close(ctx context.Context) error {
	return st.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
