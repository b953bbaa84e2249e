// apps/party-server/internal/room/events.go
//
// Server → client event names and payloads.
// Names are part of the wire protocol shared with the browser client, so they
// must not be renamed. Payload field names follow the client's camelCase.

package room

import "github.com/robalobadob/wordle/apps/party-server/internal/game"

const (
	EventJoinSuccess       = "joinSuccess"
	EventJoinError         = "joinError"
	EventRoomFull          = "roomFull"
	EventError             = "error"
	EventPlayerJoined      = "playerJoined"
	EventPlayerLeft        = "playerLeft"
	EventGameState         = "gameState"
	EventGameStarted       = "gameStarted"
	EventNewWord           = "newWord"
	EventAllAttemptsUsed   = "allAttemptsUsed"
	EventCompletedAllWords = "completedAllWords"
	EventPlayerGuessedWord = "playerGuessedWord"
	EventUpdateScores      = "updateScores"
	EventGameTimeSync      = "gameTimeSync"
	EventGameEnded         = "gameEnded"
	EventRoomExpired       = "roomExpired"
	EventForceKick         = "forceKick"
	EventServerShutdown    = "serverShutdown"
	EventGuessResult       = "guessResult"
)

// Rejection and notice texts shown verbatim by the client.
const (
	msgRoomNotFound   = "Room not found or has expired."
	msgGameInProgress = "Game already in progress."
	msgUsernameTaken  = "Username already taken."
	msgRoomFull       = "Room is full."
	msgNotCreator     = "Only the room creator can start the game."
	msgNotAdminKick   = "Only the room admin can kick players."
	msgNotAdminEnd    = "Only the room admin can end the game."
	msgKickSelf       = "You cannot kick yourself."
	msgKicked         = "You have been removed from the room by the admin."
	msgRoomExpired    = "This room has expired."
	msgNoGame         = "No game in progress."
)

// Message carries a human-readable text (joinError, error, roomFull, forceKick,
// serverShutdown).
type Message struct {
	Message string `json:"message"`
}

type JoinSuccess struct {
	RoomID         string   `json:"roomId"`
	PlayerID       string   `json:"playerId"`
	Username       string   `json:"username"`
	IsAdmin        bool     `json:"isAdmin"`
	Players        []Player `json:"players"`
	GameInProgress bool     `json:"gameInProgress"`
	CurrentWord    string   `json:"currentWord,omitempty"`
	RemainingTime  int      `json:"remainingTime"`
}

// UserEvent is playerJoined / playerLeft.
type UserEvent struct {
	Username string `json:"username"`
}

type GameState struct {
	Players         []Player `json:"players"`
	RemainingTime   int      `json:"remainingTime"`
	GameInProgress  bool     `json:"gameInProgress"`
	AllPlayersReady bool     `json:"allPlayersReady"`
}

type GameStarted struct {
	Word      string   `json:"word"`
	TimeLimit int      `json:"timeLimit"` // seconds
	Players   []Player `json:"players"`
}

type NewWord struct {
	Word      string `json:"word"`
	WordIndex int    `json:"wordIndex"`
}

type AllAttemptsUsed struct {
	CorrectWord string `json:"correctWord"`
	NextWord    string `json:"nextWord,omitempty"`
}

type CompletedAllWords struct {
	CorrectGuesses int `json:"correctGuesses"`
	TotalAttempts  int `json:"totalAttempts"`
}

type PlayerGuessedWord struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

type UpdateScores struct {
	Players        []Player `json:"players"`
	GameInProgress bool     `json:"gameInProgress"`
}

type GameTimeSync struct {
	TimeRemaining int `json:"timeRemaining"`
}

type GameEnded struct {
	Players       []Player `json:"players"`
	RemainingTime int      `json:"remainingTime"`
	IsCreator     bool     `json:"isCreator"`
}

type RoomExpired struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

// GuessResult is the private markup echo for a submitted guess.
type GuessResult struct {
	GuessedWord string      `json:"guessedWord"`
	Marks       []game.Mark `json:"marks"`
	Attempts    int         `json:"attempts"`
	Correct     bool        `json:"correct"`
}

// State is the getRoomState acknowledgement.
type State struct {
	Players        []Player `json:"players"`
	IsActive       bool     `json:"isActive"`
	GameInProgress bool     `json:"gameInProgress"`
}
