package tui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"stanza/internal/acquisition"
	"stanza/internal/catalog"
	"stanza/internal/config"
	"stanza/internal/lanes"
	"stanza/internal/navtree"
	"stanza/internal/search"
	"stanza/internal/service"
	"stanza/internal/store"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateFiltering
	StateAuthRequired
)

// Pane is the focused panel
type Pane int

const (
	PaneNav Pane = iota
	PaneBooks
)

// Model is the main Bubble Tea model for the browser
type Model struct {
	State ApplicationState

	// Services
	Catalog  *service.CatalogService
	Resolver *acquisition.Resolver
	Creds    store.CredentialStore

	keys   KeyMap
	styles Styles
	logger *slog.Logger

	width  int
	height int

	// Current page
	snapshot *service.Snapshot
	version  config.FeedVersion
	tree     *navtree.Tree
	history  []string
	depth    int
	loading  bool
	seq      int // load sequence; responses for older loads are dropped
	errText  string
	status   string

	// Categorization
	laneOpts lanes.Options
	result   lanes.Result

	// Cursor state
	focus      Pane
	navCursor  int
	bookCursor int

	// Filter
	filterInput textinput.Model
	query       string

	// Credential prompt
	userInput  textinput.Model
	passInput  textinput.Model
	promptHost string
	promptPass bool   // false while the username field has focus
	retryURL   string // reloaded once after the credential is saved

	spinner spinner.Model
}

// New creates the browser model rooted at the given catalog
func New(svc *service.CatalogService, resolver *acquisition.Resolver, creds store.CredentialStore, cat config.CatalogConfig, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	filter := textinput.New()
	filter.Placeholder = "filter titles"
	filter.CharLimit = 80

	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 120

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.EchoMode = textinput.EchoPassword
	pass.CharLimit = 120

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		State:       StateBrowsing,
		Catalog:     svc,
		Resolver:    resolver,
		Creds:       creds,
		keys:        DefaultKeyMap(),
		styles:      DefaultStyles(),
		logger:      logger,
		version:     cat.FeedVersion(),
		history:     []string{cat.URL},
		filterInput: filter,
		userInput:   user,
		passInput:   pass,
		spinner:     sp,
		loading:     true,
		seq:         1,
	}
}

// WithMode sets the initial lane grouping mode
func (m Model) WithMode(mode lanes.Mode) Model {
	m.laneOpts.Mode = mode
	return m
}

// Init starts the first catalog load. The sequence number is fixed in the
// constructor because mutations inside Init are lost.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchCmd(m.seq, m.currentURL(), 1))
}

func (m Model) currentURL() string {
	if len(m.history) == 0 {
		return ""
	}
	return m.history[len(m.history)-1]
}

// loadCmd starts a new catalog load, superseding any in-flight one
func (m *Model) loadCmd(url string, depth int) tea.Cmd {
	m.seq++
	m.loading = true
	return m.fetchCmd(m.seq, url, depth)
}

func (m *Model) fetchCmd(seq int, url string, depth int) tea.Cmd {
	svc := m.Catalog
	version := m.version
	return func() tea.Msg {
		snap, err := svc.Load(context.Background(), url, version)
		return SnapshotMsg{Seq: seq, URL: url, Depth: depth, Snapshot: snap, Err: err}
	}
}

func (m *Model) probeCmd(path []int, url string) tea.Cmd {
	svc := m.Catalog
	version := m.version
	return func() tea.Msg {
		children, err := svc.NavChildren(context.Background(), url, version)
		return NavChildrenMsg{Path: path, Children: children, Err: err}
	}
}

func (m *Model) resolveCmd(book catalog.Book) tea.Cmd {
	resolver := m.Resolver
	return func() tea.Msg {
		url, err := resolver.Resolve(context.Background(), book.BorrowURL)
		return ResolvedMsg{Book: book, URL: url, Err: err}
	}
}

// Update routes messages by application state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SnapshotMsg:
		return m.onSnapshot(msg)

	case NavChildrenMsg:
		if m.tree != nil {
			m.tree = m.tree.Apply(msg.Path, msg.Children, msg.Err != nil)
		}
		return m, nil

	case ResolvedMsg:
		if msg.Err != nil {
			m.errText = fmt.Sprintf("resolve %q: %v", msg.Book.Title, msg.Err)
		} else {
			m.status = fmt.Sprintf("%s → %s", msg.Book.Title, msg.URL)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.State {
		case StateFiltering:
			return m.updateFiltering(msg)
		case StateAuthRequired:
			return m.updateAuth(msg)
		default:
			return m.updateBrowsing(msg)
		}
	}
	return m, nil
}

func (m Model) onSnapshot(msg SnapshotMsg) (tea.Model, tea.Cmd) {
	if msg.Seq != m.seq {
		// A newer load superseded this one
		return m, nil
	}
	m.loading = false

	if msg.Err != nil {
		if catalog.IsKind(msg.Err, catalog.KindUnauthorized) {
			return m.promptCredentials(msg.URL)
		}
		m.errText = msg.Err.Error()
		return m, nil
	}

	m.errText = ""
	m.snapshot = msg.Snapshot
	m.depth = msg.Depth
	m.tree = navtree.New(msg.Snapshot.NavLinks)
	m.navCursor = 0
	m.bookCursor = 0
	m.query = ""
	m.filterInput.SetValue("")

	// Past the root page, keep showing the collections discovered there so
	// the collection filter stays usable while paging.
	if msg.Depth > 1 {
		m.laneOpts.Known = m.result.Collections
	} else {
		m.laneOpts.Known = nil
	}
	m.laneOpts.Depth = msg.Depth
	m.recategorize()
	return m, nil
}

func (m *Model) recategorize() {
	if m.snapshot == nil {
		m.result = lanes.Result{}
		return
	}
	books := search.Filter(m.query, m.snapshot.Books)
	m.result = lanes.Categorize(books, m.snapshot.NavLinks, m.laneOpts)
}

func (m Model) promptCredentials(url string) (tea.Model, tea.Cmd) {
	m.State = StateAuthRequired
	m.promptHost = store.NormalizeHost(url)
	m.retryURL = url
	m.promptPass = false
	m.userInput.SetValue("")
	m.passInput.SetValue("")
	m.userInput.Focus()
	m.passInput.Blur()
	return m, textinput.Blink
}

func (m Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.State = StateBrowsing
		m.errText = "authentication required for " + m.promptHost
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		if !m.promptPass {
			m.promptPass = true
			m.userInput.Blur()
			m.passInput.Focus()
			return m, textinput.Blink
		}
		cred := store.Credential{
			Username: m.userInput.Value(),
			Secret:   m.passInput.Value(),
		}
		if err := m.Creds.SetCredential(m.promptHost, cred); err != nil {
			m.errText = err.Error()
			m.State = StateBrowsing
			return m, nil
		}
		m.State = StateBrowsing
		return m, m.loadCmd(m.retryURL, m.depth)

	case key.Matches(msg, m.keys.Tab):
		m.promptPass = !m.promptPass
		if m.promptPass {
			m.userInput.Blur()
			m.passInput.Focus()
		} else {
			m.passInput.Blur()
			m.userInput.Focus()
		}
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	if m.promptPass {
		m.passInput, cmd = m.passInput.Update(msg)
	} else {
		m.userInput, cmd = m.userInput.Update(msg)
	}
	return m, cmd
}

func (m Model) updateFiltering(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.State = StateBrowsing
		m.query = ""
		m.filterInput.SetValue("")
		m.recategorize()
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		m.State = StateBrowsing
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.query = m.filterInput.Value()
	m.bookCursor = 0
	m.recategorize()
	return m, cmd
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Tab):
		if m.focus == PaneNav {
			m.focus = PaneBooks
		} else {
			m.focus = PaneNav
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		return m.activate()

	case key.Matches(msg, m.keys.Back):
		if len(m.history) > 1 {
			m.history = m.history[:len(m.history)-1]
			return m, m.loadCmd(m.currentURL(), max(1, m.depth-1))
		}
		return m, nil

	case key.Matches(msg, m.keys.NextPage):
		if m.snapshot != nil && m.snapshot.Pagination.Next != "" {
			m.history = append(m.history, m.snapshot.Pagination.Next)
			return m, m.loadCmd(m.snapshot.Pagination.Next, m.depth+1)
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		if m.snapshot != nil && m.snapshot.Pagination.Prev != "" {
			m.history = append(m.history, m.snapshot.Pagination.Prev)
			return m, m.loadCmd(m.snapshot.Pagination.Prev, max(1, m.depth-1))
		}
		return m, nil

	case key.Matches(msg, m.keys.Mode):
		if m.laneOpts.Mode == lanes.ModeSubject {
			m.laneOpts.Mode = lanes.ModeFlat
		} else {
			m.laneOpts.Mode = lanes.ModeSubject
		}
		m.recategorize()
		return m, nil

	case key.Matches(msg, m.keys.Audience):
		if m.snapshot != nil {
			m.laneOpts.Audience = cycle(m.laneOpts.Audience, lanes.Audiences(m.snapshot.Books))
			m.recategorize()
		}
		return m, nil

	case key.Matches(msg, m.keys.Fiction):
		m.laneOpts.Fiction = (m.laneOpts.Fiction + 1) % 3
		m.recategorize()
		return m, nil

	case key.Matches(msg, m.keys.Media):
		if m.snapshot != nil {
			m.laneOpts.Media = cycle(m.laneOpts.Media, lanes.MediaTypes(m.snapshot.Books))
			m.recategorize()
		}
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.State = StateFiltering
		m.filterInput.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	if m.focus == PaneNav {
		rows := 0
		if m.tree != nil {
			rows = len(m.tree.Flatten())
		}
		m.navCursor = clamp(m.navCursor+delta, rows)
		return
	}
	m.bookCursor = clamp(m.bookCursor+delta, len(m.visibleBooks()))
}

// visibleBooks is the flat cursor-addressable list: lanes in order, then
// the uncategorized remainder.
func (m *Model) visibleBooks() []catalog.Book {
	var out []catalog.Book
	for _, lane := range m.result.Lanes {
		out = append(out, lane.Books...)
	}
	out = append(out, m.result.Uncategorized...)
	return out
}

func (m Model) activate() (tea.Model, tea.Cmd) {
	if m.focus == PaneNav {
		if m.tree == nil {
			return m, nil
		}
		rows := m.tree.Flatten()
		if m.navCursor >= len(rows) {
			return m, nil
		}
		row := rows[m.navCursor]
		if row.Node.Link.Rel == catalog.RelCatalogRoot {
			// Links to another catalog's root open as a fresh page
			m.history = append(m.history, row.Node.Link.Href)
			return m, m.loadCmd(row.Node.Link.Href, 1)
		}
		tree, fetch := m.tree.Toggle(row.Path...)
		m.tree = tree
		if fetch {
			return m, m.probeCmd(row.Path, row.Node.Link.Href)
		}
		return m, nil
	}

	books := m.visibleBooks()
	if m.bookCursor >= len(books) {
		return m, nil
	}
	book := books[m.bookCursor]
	if book.DownloadURL != "" {
		m.status = fmt.Sprintf("%s → %s", book.Title, book.DownloadURL)
		return m, nil
	}
	if book.Borrowable() {
		m.status = "resolving " + book.Title
		return m, m.resolveCmd(book)
	}
	m.errText = fmt.Sprintf("%q has no acquisition link", book.Title)
	return m, nil
}

func cycle(current string, options []string) string {
	if len(options) == 0 {
		return ""
	}
	if current == "" {
		return options[0]
	}
	for i, opt := range options {
		if opt == current {
			if i == len(options)-1 {
				return ""
			}
			return options[i+1]
		}
	}
	return ""
}

func clamp(v, n int) int {
	if n == 0 {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
