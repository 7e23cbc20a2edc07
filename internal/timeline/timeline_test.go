package timeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promoSlots() []Slot {
	return []Slot{
		SceneSlot{Scene: "hero", DurationInFrames: 150},
		TransitionSlot{DurationInFrames: 20, Presentation: "blur-dissolve"},
		SceneSlot{Scene: "stats", DurationInFrames: 150},
		TransitionSlot{DurationInFrames: 20, Presentation: "blur-dissolve"},
		SceneSlot{Scene: "features", DurationInFrames: 150},
		TransitionSlot{DurationInFrames: 20, Presentation: "blur-dissolve"},
		SceneSlot{Scene: "steps", DurationInFrames: 150},
		TransitionSlot{DurationInFrames: 20, Presentation: "blur-dissolve"},
		SceneSlot{Scene: "cta", DurationInFrames: 180},
	}
}

func TestStartsAndTotal(t *testing.T) {
	tl, err := New(promoSlots()...)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 130, 260, 390, 520}, tl.Starts())
	assert.Equal(t, 700, tl.Total())
	assert.Equal(t, 5, tl.Len())
}

func TestTransitionWindow(t *testing.T) {
	tl, err := New(promoSlots()...)
	require.NoError(t, err)

	before := tl.Resolve(129)
	require.Len(t, before.Scenes, 1)
	assert.Equal(t, "hero", before.Scenes[0].Scene)
	assert.Equal(t, 129, before.Scenes[0].LocalFrame)
	assert.Nil(t, before.Transition)

	at := tl.Resolve(130)
	require.Len(t, at.Scenes, 2)
	assert.Equal(t, ActiveScene{Index: 0, Scene: "hero", LocalFrame: 130, Role: Outgoing}, at.Scenes[0])
	assert.Equal(t, ActiveScene{Index: 1, Scene: "stats", LocalFrame: 0, Role: Incoming}, at.Scenes[1])
	require.NotNil(t, at.Transition)
	assert.Equal(t, 0.0, at.Transition.Progress)
	assert.Equal(t, "blur-dissolve", at.Transition.Presentation)

	end := tl.Resolve(149)
	require.NotNil(t, end.Transition)
	assert.InDelta(t, 1.0, end.Transition.Progress, 0.05)
	assert.Equal(t, 149, end.Scenes[0].LocalFrame)
	assert.Equal(t, 19, end.Scenes[1].LocalFrame)

	after := tl.Resolve(150)
	require.Len(t, after.Scenes, 1)
	assert.Equal(t, "stats", after.Scenes[0].Scene)
	assert.Equal(t, 20, after.Scenes[0].LocalFrame)
}

func TestEveryFrameHasOneOrTwoScenes(t *testing.T) {
	tl, err := New(promoSlots()...)
	require.NoError(t, err)

	for f := 0; f < tl.Total(); f++ {
		set := tl.Resolve(f)
		require.NotEmpty(t, set.Scenes)
		assert.LessOrEqual(t, len(set.Scenes), 2)
		assert.Equal(t, len(set.Scenes) == 2, set.Transition != nil)
		for _, s := range set.Scenes {
			assert.GreaterOrEqual(t, s.LocalFrame, 0)
			assert.Less(t, s.LocalFrame, tl.Scene(s.Index).DurationInFrames)
		}
	}
}

func TestOutOfRangeClamps(t *testing.T) {
	tl, err := New(promoSlots()...)
	require.NoError(t, err)

	past := tl.Resolve(700)
	assert.True(t, past.Clamped)
	assert.Equal(t, 700, past.Frame)
	require.Len(t, past.Scenes, 1)
	assert.Equal(t, "cta", past.Scenes[0].Scene)
	assert.Equal(t, 179, past.Scenes[0].LocalFrame)

	early := tl.Resolve(-12)
	assert.True(t, early.Clamped)
	assert.Equal(t, 0, early.Scenes[0].LocalFrame)

	assert.False(t, tl.Resolve(0).Clamped)
}

func TestResolveIsRepeatable(t *testing.T) {
	tl, err := New(promoSlots()...)
	require.NoError(t, err)

	a := tl.Resolve(395)
	_ = tl.Resolve(10)
	assert.Equal(t, a, tl.Resolve(395))
}

func TestSingleScene(t *testing.T) {
	tl, err := New(SceneSlot{Scene: "only", DurationInFrames: 30})
	require.NoError(t, err)
	assert.Equal(t, 30, tl.Total())
	assert.Equal(t, 12, tl.Resolve(12).Scenes[0].LocalFrame)
}

func TestInvalidTimelines(t *testing.T) {
	tests := []struct {
		name  string
		slots []Slot
	}{
		{"empty", nil},
		{"starts with transition", []Slot{TransitionSlot{DurationInFrames: 5}, SceneSlot{Scene: "a", DurationInFrames: 10}}},
		{"ends with transition", []Slot{SceneSlot{Scene: "a", DurationInFrames: 10}, TransitionSlot{DurationInFrames: 5}}},
		{"two scenes in a row", []Slot{SceneSlot{Scene: "a", DurationInFrames: 10}, SceneSlot{Scene: "b", DurationInFrames: 10}}},
		{"two transitions in a row", []Slot{SceneSlot{Scene: "a", DurationInFrames: 10}, TransitionSlot{DurationInFrames: 2}, TransitionSlot{DurationInFrames: 2}, SceneSlot{Scene: "b", DurationInFrames: 10}}},
		{"transition too long", []Slot{SceneSlot{Scene: "a", DurationInFrames: 10}, TransitionSlot{DurationInFrames: 11}, SceneSlot{Scene: "b", DurationInFrames: 30}}},
		{"zero scene", []Slot{SceneSlot{Scene: "a", DurationInFrames: 0}}},
		{"zero transition", []Slot{SceneSlot{Scene: "a", DurationInFrames: 10}, TransitionSlot{DurationInFrames: 0}, SceneSlot{Scene: "b", DurationInFrames: 10}}},
		{"three scenes overlap", []Slot{
			SceneSlot{Scene: "a", DurationInFrames: 20},
			TransitionSlot{DurationInFrames: 8},
			SceneSlot{Scene: "b", DurationInFrames: 10},
			TransitionSlot{DurationInFrames: 8},
			SceneSlot{Scene: "c", DurationInFrames: 20},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.slots...)
			assert.True(t, errors.Is(err, ErrInvalidTimeline), "got %v", err)
		})
	}
}

func TestTransitionEqualToScene(t *testing.T) {
	tl, err := New(
		SceneSlot{Scene: "a", DurationInFrames: 10},
		TransitionSlot{DurationInFrames: 10},
		SceneSlot{Scene: "b", DurationInFrames: 10},
	)
	require.NoError(t, err)
	assert.Equal(t, 10, tl.Total())
	assert.Len(t, tl.Resolve(0).Scenes, 2)
	assert.Len(t, tl.Resolve(9).Scenes, 2)
}
