package server

// MessageType represents a WebSocket message type with type safety.
type MessageType string

// WebSocket message type constants used for the client-server protocol.
const (
	// Client to server messages
	MessageTypeCreateLobby MessageType = "create_lobby"
	MessageTypeJoinLobby   MessageType = "join_lobby"
	MessageTypeLeaveLobby  MessageType = "leave_lobby"
	MessageTypeStartGame   MessageType = "start_game"
	MessageTypeReady       MessageType = "ready"
	MessageTypeSubmitBid   MessageType = "submit_bid"
	MessageTypePlayCard    MessageType = "play_card"
	MessageTypeKickPlayer  MessageType = "kick_player"
	MessageTypeChat        MessageType = "chat"

	// Server to client messages
	MessageTypeLobbyCreated   MessageType = "lobby_created"
	MessageTypeLobbyJoined    MessageType = "lobby_joined"
	MessageTypeGameState      MessageType = "game_state"
	MessageTypeHandUpdate     MessageType = "hand_update"
	MessageTypePlayerJoined   MessageType = "player_joined"
	MessageTypePlayerLeft     MessageType = "player_left"
	MessageTypePlayerKicked   MessageType = "player_kicked"
	MessageTypeHostChanged    MessageType = "host_changed"
	MessageTypeGameStarted    MessageType = "game_started"
	MessageTypeGameEnded      MessageType = "game_ended"
	MessageTypeLobbyDestroyed MessageType = "lobby_destroyed"
	MessageTypeError          MessageType = "error"
)

// String returns the string representation of the message type.
func (mt MessageType) String() string {
	return string(mt)
}
