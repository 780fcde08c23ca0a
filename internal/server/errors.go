package server

import (
	"errors"

	"github.com/lox/ninetynine/internal/game"
)

// RequestError is a refused client request that is reported back with a
// stable code.
type RequestError struct {
	Code    string
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

var (
	ErrRoomNotFound      = &RequestError{Code: CodeRoomNotFound, Message: "room not found"}
	ErrRoomFull          = &RequestError{Code: CodeRoomFull, Message: "room is full"}
	ErrTooManyRooms      = &RequestError{Code: CodeTooManyRooms, Message: "server has too many rooms"}
	ErrNotInRoom         = &RequestError{Code: CodeNotInRoom, Message: "not in that room"}
	ErrAlreadyInRoom     = &RequestError{Code: CodeAlreadyInRoom, Message: "already in a room"}
	ErrNotHost           = &RequestError{Code: CodeNotHost, Message: "only the host can do that"}
	ErrInvalidName       = &RequestError{Code: CodeInvalidName, Message: "player name must be 1-20 characters"}
	ErrInvalidDifficulty = &RequestError{Code: CodeInvalidDifficulty, Message: "difficulty must be easy, normal or hard"}
)

// errorData converts err into the payload of an error message. Engine
// rejections keep their reason as the code.
func errorData(err error) ErrorData {
	if reason := game.ReasonOf(err); reason != "" {
		return ErrorData{Code: string(reason), Message: err.Error()}
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return ErrorData{Code: reqErr.Code, Message: reqErr.Message}
	}
	return ErrorData{Code: "internal_error", Message: err.Error()}
}
