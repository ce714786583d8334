// Package log is a minimal stand-in for the zerolog global logger so the
// analyzer fixtures type-check without the real module.
package log

type Event struct{}

func (e *Event) Msg(string) {}

func (e *Event) Err(error) *Event { return e }

func Fatal() *Event { return &Event{} }

func Info() *Event { return &Event{} }
