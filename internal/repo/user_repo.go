package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hamgarian/do-real-shit/internal/domain"
)

var ErrUsernameTaken = errors.New("username already taken")

// GetOrCreateUser — атомарный get-or-create: $setOnInsert-upsert вместо
// read-then-write, конкурентные первые вызовы не создадут дубликат.
func (s *Store) GetOrCreateUser(ctx context.Context, uid, email string) (*domain.User, error) {
	res := s.colUsers.FindOneAndUpdate(ctx,
		bson.M{"_id": uid},
		bson.M{"$setOnInsert": bson.M{
			"email":      email,
			"balance":    int64(0),
			"created_at": time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	var u domain.User
	if err := res.Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetBalance перезаписывает баланс целиком (overwrite, не delta).
func (s *Store) SetBalance(ctx context.Context, uid, email string, balance int64) error {
	_, err := s.colUsers.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{
			"$set": bson.M{
				"balance":    balance,
				"updated_at": time.Now().UTC(),
			},
			"$setOnInsert": bson.M{
				"email":      email,
				"created_at": time.Now().UTC(),
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *Store) FindUser(ctx context.Context, uid string) (*domain.User, error) {
	var u domain.User
	err := s.colUsers.FindOne(ctx, bson.M{"_id": uid}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &u, err
}

// ClaimUsername merge-сетит username в документ пользователя, не трогая
// balance и прочие поля. Глобальную уникальность держит частичный
// уникальный индекс: нарушение → ErrUsernameTaken. Повторный claim того же
// имени тем же пользователем — идемпотентный успех (индекс бьёт только
// чужие документы).
func (s *Store) ClaimUsername(ctx context.Context, uid, email, username string) error {
	_, err := s.colUsers.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{
			"$set": bson.M{"username": username, "email": email},
			"$setOnInsert": bson.M{
				"balance":    int64(0),
				"created_at": time.Now().UTC(),
			},
		},
		options.Update().SetUpsert(true),
	)
	if IsDup(err) {
		return ErrUsernameTaken
	}
	return err
}

// ListUsersWithUsername — читающая сторона лидерборда: все пользователи,
// у которых имя задано. Линейно по числу пользователей, без пагинации.
func (s *Store) ListUsersWithUsername(ctx context.Context) ([]domain.User, error) {
	cur, err := s.colUsers.Find(ctx, bson.M{
		"username": bson.M{"$exists": true, "$ne": ""},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []domain.User
	for cur.Next(ctx) {
		var u domain.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, cur.Err()
}
