package domain

import "time"

// Identity — аутентифицированный пользователь из verified bearer token.
// Никогда не персистится: выводится заново на каждый запрос.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type User struct {
	ID        string    `bson:"_id" json:"id"` // uid провайдера
	Username  string    `bson:"username,omitempty" json:"username,omitempty"`
	Email     string    `bson:"email" json:"email"`
	Balance   int64     `bson:"balance" json:"balance"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// LeaderboardEntry — накопитель money по активным задачам (write-side).
type LeaderboardEntry struct {
	UserID     string `bson:"_id" json:"id"`
	TotalMoney int64  `bson:"total_money" json:"total_money"`
	Email      string `bson:"email" json:"email"`
}

// LeaderboardRow — строка ответа GET /api/leaderboard.
type LeaderboardRow struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	TotalMoney int64  `json:"total_money"`
}
