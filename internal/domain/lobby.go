package domain

import "time"

// LobbyState is the derived per-project status gating whether additional
// guests may enter. Undefined and Error are sentinels: Undefined marks a
// record not yet recalculated, Error a failed read. CalculateLobbyState
// never produces either.
type LobbyState string

const (
	LobbyStateUndefined         LobbyState = "undefined"
	LobbyStateNormal            LobbyState = "normal"
	LobbyStateGuestLimitReached LobbyState = "guest_limit_reached"
	LobbyStateHostNotPresent    LobbyState = "host_not_present"
	LobbyStateError             LobbyState = "error"
)

// ProjectLobbyState is keyed 1:1 by project id. Derived, recomputed, never
// directly user-mutated.
type ProjectLobbyState struct {
	ProjectID string     `json:"project_id"`
	State     LobbyState `json:"state"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ProjectStatus is the external view served to the HTTP layer.
type ProjectStatus struct {
	ProjectID    string     `json:"project_id"`
	LobbyState   LobbyState `json:"lobby_state"`
	ActiveGuests int        `json:"active_guests"`
}

// CalculateLobbyState maps the two authoritative signals to a lobby state.
// Host absence dominates the guest limit. Total and pure: four input
// combinations, four deterministic outputs.
func CalculateLobbyState(isGuestLimitReached, isHostPresent bool) LobbyState {
	if !isHostPresent {
		return LobbyStateHostNotPresent
	}
	if !isGuestLimitReached {
		return LobbyStateNormal
	}
	return LobbyStateGuestLimitReached
}
