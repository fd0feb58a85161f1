package types

type AppState struct {
	CurrentSessionID string `json:"current_session_id"`
	SidebarCollapsed bool   `json:"sidebar_collapsed"`
}
