package event_test

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/dgellow/zig-stream-parse-sub001/event"
	"github.com/dgellow/zig-stream-parse-sub001/perror"
)

func TestKindString(t *testing.T) {
	cases := map[event.Kind]string{
		event.StartDocument: "start_document",
		event.EndDocument:   "end_document",
		event.StartElement:  "start_element",
		event.EndElement:    "end_element",
		event.Value:         "value",
		event.Error:         "error",
		event.Kind(99):      "unknown",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}

func TestFuncAsHandlerIgnoresUserPointerAndForwardsEvent(t *testing.T) {
	var seen event.Event
	f := event.Func(func(ev event.Event) error {
		seen = ev
		return nil
	})
	handler := f.AsHandler()

	want := event.Event{Kind: event.Value, Name: "k", Text: []byte("v")}
	err := handler(want, unsafe.Pointer(nil))

	assert.NoError(t, err)
	assert.Equal(t, want, seen)
}

func TestFuncAsHandlerPropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	handler := event.Func(func(ev event.Event) error { return wantErr }).AsHandler()

	err := handler(event.Event{Kind: event.Error, Code: perror.InternalError}, nil)
	assert.ErrorIs(t, err, wantErr)
}
