package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeMessages(n int) []Message {
	msgs := make([]Message, n)
	for i := range msgs {
		msgs[i] = Message{ID: fmt.Sprintf("m%d", i), Role: RoleHuman, Content: fmt.Sprintf("msg %d", i)}
	}
	return msgs
}

func TestWindow(t *testing.T) {
	t.Run("short history returned whole", func(t *testing.T) {
		msgs := makeMessages(3)
		require.Equal(t, msgs, Window(msgs))
	})

	t.Run("exactly window size returned whole", func(t *testing.T) {
		msgs := makeMessages(5)
		require.Len(t, Window(msgs), 5)
		require.Equal(t, "m0", Window(msgs)[0].ID)
	})

	t.Run("long history truncated to trailing window", func(t *testing.T) {
		msgs := makeMessages(12)
		w := Window(msgs)
		require.Len(t, w, 5)
		require.Equal(t, "m7", w[0].ID)
		require.Equal(t, "m11", w[4].ID)
	})

	t.Run("empty history", func(t *testing.T) {
		require.Empty(t, Window(nil))
	})
}

func TestLastHumanContent(t *testing.T) {
	msgs := []Message{
		{Role: RoleHuman, Content: "first question"},
		{Role: RoleTool, Content: "retrieved text"},
		{Role: RoleHuman, Content: "rewritten question"},
		{Role: RoleAI, Content: "answer"},
	}
	require.Equal(t, "rewritten question", LastHumanContent(msgs))
}

func TestLastHumanContent_NoHuman(t *testing.T) {
	msgs := []Message{
		{Role: RoleTool, Content: "retrieved text"},
		{Role: RoleAI, Content: "answer"},
	}
	require.Equal(t, "", LastHumanContent(msgs))
	require.Equal(t, "", LastHumanContent(nil))
}
