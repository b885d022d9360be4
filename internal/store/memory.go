package store

import (
	"sort"
	"sync"
)

// Memory is an in-process CredentialStore and ETagStore with no
// persistence, used in tests and as a fallback when no data directory is
// available.
type Memory struct {
	mu    sync.RWMutex
	creds map[string]Credential
	etags map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		creds: make(map[string]Credential),
		etags: make(map[string]string),
	}
}

func (m *Memory) Credential(host string) (Credential, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cred, ok := m.creds[host]
	return cred, ok
}

func (m *Memory) SetCredential(host string, cred Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[host] = cred
	return nil
}

func (m *Memory) DeleteCredential(host string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.creds, host)
	return nil
}

func (m *Memory) Hosts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hosts := make([]string, 0, len(m.creds))
	for host := range m.creds {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

func (m *Memory) ETag(url string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	etag, ok := m.etags[url]
	return etag, ok && etag != ""
}

func (m *Memory) SetETag(url, etag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.etags[url] = etag
	return nil
}
