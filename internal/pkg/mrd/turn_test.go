package mrd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTurnStreamsAcrossPartialBlock(t *testing.T) {
	previous := &MRD{ProjectName: String("old")}
	turn := NewTurn(previous)

	deltas := []string{"请问目标用户是谁？", "\n<MRD_", "DATA>{\"project", "_name\":\"new\"}", "</MRD_DATA>", "\n"}
	changed := make([]bool, 0, len(deltas))
	for _, d := range deltas {
		changed = append(changed, turn.Append(d))
		if !changed[len(changed)-1] {
			assert.Equal(t, "old", turn.MRD().Title(), "previous document must survive partial input")
		}
	}

	assert.Equal(t, []bool{false, false, false, false, true, true}, changed)
	assert.Equal(t, "new", turn.MRD().Title())
	assert.Equal(t, "请问目标用户是谁？", turn.Display())
	assert.False(t, turn.Done())

	turn.Finish()
	assert.True(t, turn.Done())
	assert.Contains(t, turn.Raw(), "<MRD_DATA>")
}

func TestTurnWithoutBlockKeepsProse(t *testing.T) {
	turn := NewTurn(nil)
	turn.Append("He")
	turn.Append("llo")

	assert.Nil(t, turn.MRD())
	assert.Equal(t, "Hello", turn.Display())
	assert.Equal(t, "Hello", turn.Raw())
}

func TestTurnMalformedBlockDoesNotClear(t *testing.T) {
	previous := &MRD{ProjectName: String("kept")}
	turn := NewTurn(previous)

	turn.Append("x <MRD_DATA>{bad json}</MRD_DATA>")

	assert.Same(t, previous, turn.MRD())
	assert.Equal(t, "x <MRD_DATA>{bad json}</MRD_DATA>", turn.Display())
}

func TestTurnVisibleHoldsBackMarker(t *testing.T) {
	turn := NewTurn(nil)
	deltas := []string{"目标用户", "是谁？\n<MR", "D_DA", "TA>{\"project_name\":", "\"X\"}</MRD", "_DATA>\n补充", "说明"}
	visible := []string{
		"目标用户",
		"目标用户是谁？\n",
		"目标用户是谁？\n",
		"目标用户是谁？\n",
		"目标用户是谁？\n",
		"目标用户是谁？\n\n补充",
		"目标用户是谁？\n\n补充说明",
	}

	for i, d := range deltas {
		turn.Append(d)
		got := turn.Visible()
		assert.Equal(t, visible[i], got, "after delta %d", i)
		assert.NotContains(t, got, "<")
		if i > 0 {
			assert.True(t, strings.HasPrefix(got, visible[i-1]), "visible text must only grow")
		}
	}
	assert.Equal(t, "X", turn.MRD().Title())
	assert.Equal(t, "目标用户是谁？\n\n补充说明", turn.Display())
}

func TestTurnVisibleKeepsLessThanInProse(t *testing.T) {
	turn := NewTurn(nil)
	turn.Append("a < b")
	assert.Equal(t, "a < b", turn.Visible())

	turn.Append(" <")
	assert.Equal(t, "a < b ", turn.Visible())
}
