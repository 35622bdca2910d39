package models

import (
	"encoding/json"
	"time"
)

// AuthResponse: ответ удалённого API на вход и регистрацию.
// ExpiresAt хранится строкой как есть: бэкенд отдаёт наивный ISO без зоны.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
}

// CurrentUser: ответ GET /auth/me.
type CurrentUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Trip: поездка пользователя. Выбранные рейс, отель и развлечения
// принадлежат бэкенду и передаются как есть.
type Trip struct {
	ID                     string          `json:"id"`
	UserID                 string          `json:"user_id"`
	FromCity               string          `json:"from_city"`
	ToCity                 string          `json:"to_city"`
	StartDate              string          `json:"start_date"`
	EndDate                string          `json:"end_date"`
	Transport              string          `json:"transport"`
	Adults                 int             `json:"adults"`
	Children               int             `json:"children"`
	BudgetMin              *float64        `json:"budget_min"`
	BudgetMax              *float64        `json:"budget_max"`
	EntertainmentTags      []string        `json:"entertainment_tags"`
	Notes                  *string         `json:"notes"`
	Status                 string          `json:"status"`
	Timezone               *string         `json:"timezone"`
	ICSToken               string          `json:"ics_token"`
	CreatedAt              string          `json:"created_at"`
	UpdatedAt              *string         `json:"updated_at"`
	SelectedFlight         json.RawMessage `json:"selected_flight,omitempty"`
	SelectedHotel          json.RawMessage `json:"selected_hotel,omitempty"`
	SelectedEntertainments json.RawMessage `json:"selected_entertainments,omitempty"`
}

// TripList: страница списка поездок.
type TripList struct {
	Trips   []Trip `json:"trips"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

// TripPlan: сгенерированный план поездки.
type TripPlan struct {
	ID        string          `json:"id"`
	TripID    string          `json:"trip_id"`
	PlanJSON  json.RawMessage `json:"plan_json"`
	CreatedAt string          `json:"created_at"`
}

// TripChecklist: чек-лист поездки.
type TripChecklist struct {
	ID        string          `json:"id"`
	TripID    string          `json:"trip_id"`
	Checklist json.RawMessage `json:"checklist_json"`
	CreatedAt string          `json:"created_at"`
}
