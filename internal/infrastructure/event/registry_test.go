package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry(t *testing.T) {
	t.Run("typed handlers come before wildcard handlers", func(t *testing.T) {
		r := NewHandlerRegistry()
		typed := newRecordingHandler()
		wildcard := newRecordingHandler()
		r.Register(wildcard)
		r.Register(typed, "InvoicePaid")

		handlers := r.GetHandlers("InvoicePaid")
		assert.Len(t, handlers, 2)
		assert.Same(t, typed, handlers[0])
		assert.Same(t, wildcard, handlers[1])

		assert.Len(t, r.GetHandlers("Unknown"), 1)
	})

	t.Run("unregister removes every registration", func(t *testing.T) {
		r := NewHandlerRegistry()
		h := newRecordingHandler()
		other := newRecordingHandler()
		r.Register(h, "A", "B")
		r.Register(h)
		r.Register(other, "A")
		assert.Equal(t, 4, r.Len())

		r.Unregister(h)

		assert.Equal(t, 1, r.Len())
		assert.Len(t, r.GetHandlers("A"), 1)
		assert.Empty(t, r.GetHandlers("B"))
	})
}
