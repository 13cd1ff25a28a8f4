package grin

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := InvalidValuef("vertex value", "vertex %d is unknown", 7)
	expected := "vertex value: invalid_value: vertex 7 is unknown"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}

func TestErrorSentinels(t *testing.T) {
	assert.ErrorIs(t, InvalidValuef("op", "bad"), ErrInvalidValue)
	assert.ErrorIs(t, UnknownDatatypef("op", "bad"), ErrUnknownDatatype)
	assert.NotErrorIs(t, InvalidValuef("op", "bad"), ErrUnknownDatatype)

	wrapped := fmt.Errorf("loading: %w", InvalidValuef("op", "bad"))
	assert.ErrorIs(t, wrapped, ErrInvalidValue)
	assert.Equal(t, InvalidValue, CodeOf(wrapped))
}

func TestInternal(t *testing.T) {
	assert.Nil(t, Internal("query", nil))

	cause := errors.New("connection reset")
	err := Internal("query", cause)
	assert.Equal(t, UnknownError, CodeOf(err))
	assert.ErrorIs(t, err, cause)

	coded := UnknownDatatypef("op", "x")
	assert.Same(t, coded, Internal("query", coded), "coded errors pass through")
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCode
	}{
		{nil, NoError},
		{errors.New("plain"), UnknownError},
		{ErrUnsupported, InvalidValue},
		{UnknownDatatypef("x", "y"), UnknownDatatype},
	}
	for _, tt := range tests {
		if got := CodeOf(tt.err); got != tt.want {
			t.Errorf("CodeOf(%v): Expected %s, got %s", tt.err, tt.want, got)
		}
	}
}

func TestErrorSlot(t *testing.T) {
	var slot ErrorSlot
	assert.Equal(t, NoError, slot.LastError())

	_ = slot.Record(InvalidValuef("op", "bad"))
	assert.Equal(t, InvalidValue, slot.LastError())
	_ = slot.Record(nil)
	assert.Equal(t, NoError, slot.LastError(), "success clears the slot")
}

func TestErrorSlotPerGoroutine(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(fail bool) {
			defer wg.Done()
			var slot ErrorSlot
			for j := 0; j < 100; j++ {
				if fail {
					_ = slot.Record(UnknownDatatypef("op", "x"))
				} else {
					_ = slot.Record(nil)
				}
			}
			want := NoError
			if fail {
				want = UnknownDatatype
			}
			assert.Equal(t, want, slot.LastError())
		}(i%2 == 0)
	}
	wg.Wait()
}

func TestCapabilities(t *testing.T) {
	c := CapVertexRef | CapFastVertexRef | CapSchema
	assert.True(t, c.Has(CapVertexRef))
	assert.True(t, c.Has(CapVertexRef|CapSchema))
	assert.False(t, c.Has(CapVertexRef|CapPartition))
	assert.Equal(t, []string{"schema", "vertex_ref", "fast_vertex_ref"}, c.Names())
	assert.Equal(t, "schema|vertex_ref|fast_vertex_ref", c.String())
	assert.Equal(t, "none", Capabilities(0).String())
}

func TestHandles(t *testing.T) {
	vp := MakeVertexProperty(3, 7)
	assert.Equal(t, VertexType(3), vp.Type())
	assert.Equal(t, uint32(7), vp.Slot())
	assert.Equal(t, VertexType(3), VertexPropertyType(vp))
	assert.Equal(t, NullVertexType, VertexPropertyType(NullVertexProperty))

	ep := MakeEdgeProperty(1, 0)
	assert.Equal(t, EdgeType(1), EdgePropertyType(ep))
	assert.Equal(t, NullEdgeType, EdgePropertyType(NullEdgeProperty))

	assert.True(t, NullEdge.IsNull())
	assert.False(t, Edge{Src: 0, Dst: 1}.IsNull())
	assert.Equal(t, VertexRef(-1), NullVertexRef)
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"in": In, "out": Out, "both": Both, "": Out} {
		got, err := ParseDirection(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDirection("sideways")
	assert.Equal(t, InvalidValue, CodeOf(err))
	assert.Equal(t, "both", Both.String())
}
