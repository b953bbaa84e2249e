// apps/party-server/internal/gateway/protocol.go
//
// Wire format for the real-time channel.
// Every frame in both directions is a JSON envelope:
//
//	{"event": "joinRoom", "data": {...}, "ackId": 7}
//
// ackId is optional; when a client sets it on getRoomState the reply is an
// "ack" envelope carrying the same ackId.

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Client → server events.
const (
	evJoinRoom     = "joinRoom"
	evLeaveRoom    = "leaveRoom"
	evKickPlayer   = "kickPlayer"
	evPlayerReady  = "playerReady"
	evStartGame    = "startGame"
	evEndGame      = "endGame"
	evSubmitGuess  = "submitGuess"
	evWordGuessed  = "wordGuessed" // older clients
	evGetRoomState = "getRoomState"
)

// Server → client events owned by the gateway. Room events are defined in
// the room package.
const (
	EventSession        = "session"
	EventAck            = "ack"
	EventError          = "error"
	EventServerShutdown = "serverShutdown"
)

var (
	errMalformed    = errors.New("malformed message")
	errUnknownEvent = errors.New("unknown event")
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	AckID json.RawMessage `json:"ackId,omitempty"`
}

type outbound struct {
	Event string          `json:"event"`
	Data  any             `json:"data,omitempty"`
	AckID json.RawMessage `json:"ackId,omitempty"`
}

type message struct {
	Message string `json:"message"`
}

type session struct {
	PlayerID string `json:"playerId"`
}

// roomCode accepts both "123456" and 123456.
type roomCode string

func (c *roomCode) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] != '"' {
		*c = roomCode(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*c = roomCode(strings.TrimSpace(s))
	return nil
}

type joinRoomReq struct {
	RoomID   roomCode `json:"roomId" validate:"required,numeric,len=6"`
	Username string   `json:"username" validate:"required,max=20"`
}

type roomReq struct {
	RoomID roomCode `json:"roomId" validate:"required,numeric,len=6"`
}

type kickReq struct {
	RoomID   roomCode `json:"roomId" validate:"required,numeric,len=6"`
	PlayerID string   `json:"playerId" validate:"required,max=64"`
}

type guessReq struct {
	RoomID      roomCode `json:"roomId" validate:"required,numeric,len=6"`
	GuessedWord string   `json:"guessedWord" validate:"required,len=5,alpha"`
	Attempts    int      `json:"attempts" validate:"gte=0,lte=6"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json field names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode unmarshals data into dst and validates it.
func decode(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errMalformed
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid %s", verrs[0].Field())
		}
		return err
	}
	return nil
}

func encode(event string, data any, ackID json.RawMessage) ([]byte, error) {
	return json.Marshal(outbound{Event: event, Data: data, AckID: ackID})
}
