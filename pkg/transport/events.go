package transport

import (
	"time"

	"github.com/jeremydumais/smtpclient-go/pkg/log"
)

// eventEmitter builds and dispatches log events carrying the channel's
// identity fields, so call sites only supply the payload.
type eventEmitter struct {
	logger log.Logger
	connID string
	remote string
	secure bool
}

func (e eventEmitter) base(dir log.Direction, cat log.Category) log.Event {
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: e.connID,
		Direction:    dir,
		Category:     cat,
		Secure:       e.secure,
		RemoteAddr:   e.remote,
	}
}

func (e eventEmitter) command(text string) {
	ev := e.base(log.DirectionClient, log.CategoryCommand)
	ev.Command = &log.CommandEvent{Text: text}
	e.logger.Log(ev)
}

func (e eventEmitter) response(code int, text string) {
	ev := e.base(log.DirectionServer, log.CategoryResponse)
	ev.Response = &log.ResponseEvent{Code: code, Text: text}
	e.logger.Log(ev)
}

func (e eventEmitter) handshake(note string, dir log.Direction) {
	ev := e.base(dir, log.CategoryHandshake)
	ev.Note = note
	e.logger.Log(ev)
}

func (e eventEmitter) state(oldState, newState, reason string) {
	ev := e.base(log.DirectionClient, log.CategoryState)
	ev.StateChange = &log.StateChangeEvent{OldState: oldState, NewState: newState, Reason: reason}
	e.logger.Log(ev)
}

func (e eventEmitter) failure(code Code, err error) {
	ev := e.base(log.DirectionClient, log.CategoryError)
	msg := code.String()
	if err != nil {
		msg = err.Error()
	}
	n := int(code)
	ev.Error = &log.ErrorEventData{Message: msg, Code: &n, Context: code.String()}
	e.logger.Log(ev)
}
