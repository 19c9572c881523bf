package progress

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailshot/internal/model"
	"github.com/nhle/mailshot/internal/pipeline"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	pm, ok := next.(Model)
	require.True(t, ok)
	return pm, cmd
}

func TestUpdate_TracksStages(t *testing.T) {
	m := New("One Shot", nil)

	m, _ = update(t, m, StageMsg{Stage: pipeline.StageFetching})
	m, _ = update(t, m, StageMsg{Stage: pipeline.StageComposing})
	m, _ = update(t, m, StageMsg{Stage: pipeline.StageInvokingAI})

	assert.Equal(t, []pipeline.Stage{pipeline.StageFetching, pipeline.StageComposing}, m.completed)
	assert.Equal(t, pipeline.StageInvokingAI, m.current)
	assert.Contains(t, m.View(), pipeline.StageInvokingAI.Label())
	assert.Contains(t, m.View(), pipeline.StageFetching.Label())
}

func TestUpdate_DoneQuits(t *testing.T) {
	m := New("One Shot", nil)

	m, cmd := update(t, m, DoneMsg{Result: model.PipelineResult{Content: "hi"}})

	require.NotNil(t, m.Result())
	assert.Equal(t, "hi", m.Result().Content)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestUpdate_CancelOnce(t *testing.T) {
	calls := 0
	m := New("Smart Shot", func() { calls++ })

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, 1, calls)
	assert.True(t, m.canceling)
	assert.Contains(t, m.View(), "Canceling")
	assert.Nil(t, m.Result(), "view waits for the run to stop")
}
