package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iw2rmb/potluck/document"
	"github.com/iw2rmb/potluck/editor"
	"github.com/iw2rmb/potluck/toolbar"
	"github.com/iw2rmb/potluck/upload"
)

func newEditCmd(a *app) *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "edit [file]",
		Short: "Edit an HTML document in the terminal",
		Long:  "Opens file (created on save if missing) in a terminal editor with a formatting toolbar. The document is written back as HTML on ctrl+s and on exit.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if logFile == "" {
				logFile = "discard"
			}
			if err := a.setup(logFile); err != nil {
				return err
			}
			defer a.close()

			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return runEditor(cmd.Context(), a, path)
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file (default: discarded)")
	return cmd
}

func runEditor(ctx context.Context, a *app, path string) error {
	initial := ""
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		initial = string(b)
	}

	uploadFn, err := editorUploader(ctx, a)
	if err != nil {
		return err
	}

	st := &status{}
	ed, err := editor.New(editor.Config{
		InitialValue: initial,
		Placeholder:  "Start writing…",
		Autofocus:    true,
		Logger:       a.logger,
		Style:        editor.DefaultStyle(),
		Uploads: &upload.Config{
			Policy: upload.Policy{
				MaxFileSize:  a.cfg.Upload.MaxFileSize,
				AllowedTypes: a.cfg.Upload.AllowedTypes,
			},
			Upload: uploadFn,
			Logger: a.logger,
			OnReject: func(f *document.File, err error) {
				st.set(err.Error())
			},
		},
	}).Mount(ctx)
	if err != nil {
		return err
	}

	bar := toolbar.NewBar(toolbar.DefaultButtons(), toolbar.WithLogger(a.logger))
	bar.Mount(ed.Handle().Element())

	m := editModel{
		path:   path,
		editor: ed,
		bar:    bar,
		help:   help.New(),
		status: st,
		logger: a.logger,
		keys: editKeys{
			Save: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
			Quit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "save and quit")),
		},
	}
	defer m.close()

	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(editModel); ok {
		return fm.save()
	}
	return nil
}

// editorUploader posts to the configured endpoint, or writes to the
// configured store when there is none.
func editorUploader(ctx context.Context, a *app) (upload.Func, error) {
	if ep := a.cfg.Upload.Endpoint; ep != "" {
		return (&upload.HTTPUploader{Endpoint: ep}).Func(), nil
	}
	store, err := openStore(ctx, a.cfg.Storage, a.logger)
	if err != nil {
		return nil, err
	}
	return storeUploader(store), nil
}

// status is written from editor callbacks, some of which run on upload
// goroutines.
type status struct {
	mu  sync.Mutex
	msg string
}

func (s *status) set(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

func (s *status) get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msg
}

type editKeys struct {
	Save key.Binding
	Quit key.Binding
}

type editModel struct {
	path   string
	editor editor.Model
	bar    toolbar.Bar
	help   help.Model
	status *status
	keys   editKeys
	logger *zap.Logger

	width, height int
}

var statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

// Init starts watching the already mounted element for changes made off
// the key path, such as upload progress.
func (m editModel) Init() tea.Cmd { return m.editor.Init() }

func (m editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.editor = m.editor.SetSize(msg.Width, m.editorHeight())
		return m, nil
	case tea.KeyMsg:
		switch {
		case !m.bar.Prompting() && key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Save):
			if err := m.save(); err != nil {
				m.status.set("save failed: " + err.Error())
			} else if m.path != "" {
				m.status.set("saved " + m.path)
			}
			return m, nil
		case m.bar.Prompting() || m.bar.Matches(msg):
			var cmd tea.Cmd
			prompting := m.bar.Prompting()
			m.bar, cmd = m.bar.Update(msg)
			if prompting != m.bar.Prompting() {
				m.editor = m.editor.SetSize(m.width, m.editorHeight())
			}
			// Buttons act on the element directly; redraw from it.
			m.editor, _ = m.editor.Update(nil)
			return m, cmd
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	cmds = append(cmds, cmd)
	if _, ok := msg.(tea.KeyMsg); !ok {
		m.bar, cmd = m.bar.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m editModel) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.bar.View(),
		m.editor.View(),
		m.footer(),
	)
}

func (m editModel) footer() string {
	if s := m.status.get(); s != "" {
		return statusStyle.Render(s)
	}
	return m.help.ShortHelpView(append([]key.Binding{m.keys.Save, m.keys.Quit}, m.bar.ShortHelp()...))
}

func (m editModel) editorHeight() int {
	h := m.height - lipgloss.Height(m.bar.View()) - 1
	if h < 1 {
		h = 1
	}
	return h
}

func (m editModel) save() error {
	if m.path == "" {
		return nil
	}
	if err := os.WriteFile(m.path, []byte(m.editor.Value()), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", m.path, err)
	}
	m.logger.Info("document saved", zap.String("path", m.path))
	return nil
}

func (m editModel) close() {
	m.bar.Close()
	up := m.editor.Uploads()
	m.editor.Close()
	if up != nil {
		up.Wait()
	}
}
