package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hamgarian/do-real-shit/internal/domain"
)

func (s *Store) CreateTask(ctx context.Context, t *domain.Task) error {
	t.CreatedAt = time.Now().UTC()
	res, err := s.colTasks.InsertOne(ctx, t)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		t.ID = oid
	}
	return nil
}

// ListTasksByUser возвращает все задачи владельца, без фильтра по статусу.
// Сортировка created_at desc — детерминированный порядок между вызовами.
func (s *Store) ListTasksByUser(ctx context.Context, uid string) ([]domain.Task, error) {
	cur, err := s.colTasks.Find(ctx,
		bson.M{"user_id": uid},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []domain.Task
	for cur.Next(ctx) {
		var t domain.Task
		if err := cur.Decode(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, cur.Err()
}

// UpdateTaskStatus меняет статус у всех задач {owner, label} одним UpdateMany:
// частичного применения, как при веере одиночных записей, быть не может.
// Возвращает число совпавших документов (0 → NotFound на уровне хендлера).
func (s *Store) UpdateTaskStatus(ctx context.Context, uid, label, status string) (int64, error) {
	res, err := s.colTasks.UpdateMany(ctx,
		bson.M{"user_id": uid, "label": label},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (s *Store) DeleteTasks(ctx context.Context, uid, label string) (int64, error) {
	res, err := s.colTasks.DeleteMany(ctx, bson.M{"user_id": uid, "label": label})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// BumpLeaderboard — атомарный $inc-upsert накопителя (write-side running
// total по активным задачам). Читающая сторона лидерборда живёт на
// балансе пользователя, см. user_repo.go.
func (s *Store) BumpLeaderboard(ctx context.Context, uid, email string, delta int64) error {
	_, err := s.colLeaderboard.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{
			"$inc": bson.M{"total_money": delta},
			"$set": bson.M{"email": email},
		},
		options.Update().SetUpsert(true),
	)
	return err
}
