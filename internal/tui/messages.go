package tui

import (
	"stanza/internal/catalog"
	"stanza/internal/service"
)

// Message types for the browser

// SnapshotMsg carries the outcome of a catalog load
type SnapshotMsg struct {
	Seq      int // Load sequence; stale responses are discarded
	URL      string
	Depth    int
	Snapshot *service.Snapshot
	Err      error
}

// NavChildrenMsg carries the outcome of a navigation-tree probe
type NavChildrenMsg struct {
	Path     []int
	Children []catalog.NavigationLink
	Err      error
}

// ResolvedMsg carries the outcome of an acquisition-chain resolution
type ResolvedMsg struct {
	Book catalog.Book
	URL  string
	Err  error
}
