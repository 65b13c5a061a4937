package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	Client         *mongo.Client
	DB             *mongo.Database
	colTasks       *mongo.Collection
	colUsers       *mongo.Collection
	colLeaderboard *mongo.Collection
}

func NewStore(ctx context.Context, uri, dbname string) (*Store, error) {
	cli, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetRetryWrites(true).
		SetMaxPoolSize(50),
	)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, nil); err != nil {
		return nil, err
	}
	db := cli.Database(dbname)
	return &Store{
		Client:         cli,
		DB:             db,
		colTasks:       db.Collection("tasks"),
		colUsers:       db.Collection("users"),
		colLeaderboard: db.Collection("leaderboard"),
	}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error { return s.Client.Disconnect(ctx) }

// Создаём индексы для производительности и целостности.
// Частичный уникальный индекс по username — единственная точка,
// гарантирующая глобальную уникальность имени под конкурентными claim'ами.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	// tasks: выборка по владельцу и по (владелец, label) для update/delete
	_, err := s.colTasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "label", Value: 1}},
			Options: options.Index().SetName("owner_label"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("owner_created_desc"),
		},
	})
	if err != nil {
		return err
	}

	// users: username уникален среди документов, где он вообще задан
	_, err = s.colUsers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "username", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetName("uniq_username").
			SetPartialFilterExpression(bson.M{"username": bson.M{"$type": "string"}}),
	})
	return err
}

func IsDup(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return false
}
