package models

import "time"

// HistoryEntry is one recorded observation of a monitor, newest first when
// listed.
type HistoryEntry struct {
	MonitorID  string    `json:"monitorId"`
	Value      string    `json:"value"`
	Status     Status    `json:"status"`
	ObservedAt time.Time `json:"observedAt"`
}

// Identity is an authenticated session principal.
type Identity struct {
	UserID       string `json:"userId"`
	Anonymous    bool   `json:"anonymous"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
