package tui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudsleuth/cloudsleuth/internal/datasource"
	"github.com/cloudsleuth/cloudsleuth/internal/timewindow"
)

type stubSource struct {
	kind  datasource.Kind
	label string
	order int
}

func (s *stubSource) Kind() datasource.Kind { return s.kind }
func (s *stubSource) Label() string         { return s.label }
func (s *stubSource) OrderNo() int          { return s.order }

func (s *stubSource) Fetch(context.Context, timewindow.Window, *datasource.Clients) (datasource.Fragment, error) {
	return datasource.Fragment{}, nil
}

func TestProgressModelTransitions(t *testing.T) {
	m := newProgressModel([]string{"ec2 instance web-1", "cloudwatch metric cpu"}, nil)

	view := m.View()
	assert.Contains(t, view, iconPending)
	assert.Contains(t, view, "ec2 instance web-1")
	assert.Contains(t, view, "cloudwatch metric cpu")

	updated, _ := m.Update(fetchStartedMsg{index: 0})
	m = updated.(progressModel)
	updated, _ = m.Update(fetchStartedMsg{index: 1})
	m = updated.(progressModel)

	updated, _ = m.Update(fetchFinishedMsg{index: 0})
	m = updated.(progressModel)
	assert.Contains(t, m.View(), iconSuccess)

	updated, _ = m.Update(fetchFinishedMsg{index: 1, err: errors.New("query timed out")})
	m = updated.(progressModel)
	view = m.View()
	assert.Contains(t, view, iconError)
	assert.Contains(t, view, "query timed out")
}

func TestProgressModelIgnoresUnknownIndex(t *testing.T) {
	m := newProgressModel([]string{"only"}, nil)

	updated, _ := m.Update(fetchStartedMsg{index: 5})
	m = updated.(progressModel)
	updated, _ = m.Update(fetchFinishedMsg{index: -1})
	m = updated.(progressModel)

	assert.Equal(t, statusPending, m.rows[0].status)
}

func TestProgressModelQuitsOnDone(t *testing.T) {
	m := newProgressModel([]string{"a"}, nil)

	updated, cmd := m.Update(runDoneMsg{})
	m = updated.(progressModel)
	assert.True(t, m.done)
	require.NotNil(t, cmd)
}

func TestProgressModelCtrlCCancels(t *testing.T) {
	canceled := false
	m := newProgressModel([]string{"a"}, func() { canceled = true })

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(progressModel)
	assert.True(t, canceled)
	assert.True(t, m.done)
	require.NotNil(t, cmd)
}

func TestNewProgressOrdersRowsByOrderNo(t *testing.T) {
	sources := []datasource.DataSource{
		&stubSource{label: "third", order: 9},
		&stubSource{label: "first", order: 1},
		&stubSource{label: "second", order: 5},
	}

	p := NewProgress(sources, nil)
	require.Len(t, p.model.rows, 3)
	assert.Equal(t, "first", p.model.rows[0].label)
	assert.Equal(t, "second", p.model.rows[1].label)
	assert.Equal(t, "third", p.model.rows[2].label)
}

func TestProgressLifecycle(t *testing.T) {
	sources := []datasource.DataSource{
		&stubSource{label: "app description", order: 0},
		&stubSource{label: "rds instance db", order: 1},
	}

	p := NewProgress(sources, nil)
	p.Start(context.Background(),
		tea.WithInput(strings.NewReader("")),
		tea.WithOutput(io.Discard))

	p.FetchStarted(sources[0])
	p.FetchFinished(sources[0], nil)
	p.FetchStarted(sources[1])
	p.FetchFinished(sources[1], errors.New("not found"))

	done := make(chan error, 1)
	go func() { done <- p.Finish() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("progress display did not exit within timeout")
	}
}

func TestProgressWithoutStartIsInert(t *testing.T) {
	src := &stubSource{label: "app description"}
	p := NewProgress([]datasource.DataSource{src}, nil)

	p.FetchStarted(src)
	p.FetchFinished(src, nil)
	require.NoError(t, p.Finish())
}

func TestPlainProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlainProgress(&buf)

	ok := &stubSource{label: "ec2 instance web-1"}
	failed := &stubSource{label: "cloudwatch metric cpu"}

	p.FetchStarted(ok)
	p.FetchFinished(ok, nil)
	p.FetchStarted(failed)
	p.FetchFinished(failed, errors.New("no datapoints"))

	out := buf.String()
	assert.Contains(t, out, "fetching ec2 instance web-1 ...\n")
	assert.Contains(t, out, "ec2 instance web-1 done\n")
	assert.Contains(t, out, "cloudwatch metric cpu failed: no datapoints\n")
}
