// Package reputation holds the local blocklist of known-malicious hosts and URLs.
package reputation

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"

	"aegis/internal/urlutil"
)

// DefaultFalsePositiveRate keeps accidental overrides rare for lists of a few
// million entries.
const DefaultFalsePositiveRate = 1e-7

// Blocklist is a bloom filter over normalized host and URL keys.
// It is safe for concurrent lookups once loaded; Add is not synchronized.
type Blocklist struct {
	filter *bloom.BloomFilter
	count  int
}

// New creates an empty blocklist sized for n entries.
func New(n uint, fpRate float64) *Blocklist {
	if n == 0 {
		n = 1
	}
	return &Blocklist{filter: bloom.NewWithEstimates(n, fpRate)}
}

// Len is the number of entries added.
func (b *Blocklist) Len() int { return b.count }

// Add inserts a host ("evil.example") or a URL ("http://evil.example/login").
// Blank entries are ignored.
func (b *Blocklist) Add(entry string) {
	key := keyFor(entry)
	if key == "" {
		return
	}
	b.filter.AddString(key)
	b.count++
}

// Listed reports whether rawURL, its host, or its registrable domain is on the list,
// and which key matched.
func (b *Blocklist) Listed(rawURL, host, domain string) (bool, string) {
	if b == nil || b.count == 0 {
		return false, ""
	}
	candidates := []string{urlKey(rawURL), hostKey(host), hostKey(domain)}
	for _, k := range candidates {
		if k != "" && b.filter.TestString(k) {
			return true, strings.SplitN(k, ":", 2)[1]
		}
	}
	return false, ""
}

func keyFor(entry string) string {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return ""
	}
	if strings.ContainsAny(entry, "/?#") {
		return urlKey(entry)
	}
	return hostKey(entry)
}

func hostKey(host string) string {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if host == "" {
		return ""
	}
	return "host:" + host
}

func urlKey(raw string) string {
	c, err := urlutil.Canonicalize(raw)
	if err != nil {
		return ""
	}
	return "url:" + c
}

// Read adds one entry per line from r. Blank lines and lines starting with '#'
// are skipped.
func (b *Blocklist) Read(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		b.Add(line)
	}
	return sc.Err()
}

// WriteTo saves the filter in the bloom library's binary format.
func (b *Blocklist) WriteTo(w io.Writer) (int64, error) {
	return b.filter.WriteTo(w)
}

// Load opens a blocklist file. Files ending in ".bloom" are compiled filters
// written by WriteTo; anything else is a plain list of hosts and URLs.
// An empty path yields an empty blocklist.
func Load(path string) (*Blocklist, error) {
	if path == "" {
		return New(1, DefaultFalsePositiveRate), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open blocklist: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(path, ".bloom") {
		filter := bloom.New(1, 1)
		if _, err := filter.ReadFrom(f); err != nil {
			return nil, fmt.Errorf("failed to read compiled blocklist: %w", err)
		}
		// the entry count is not stored with the filter; any non-zero value enables lookups
		return &Blocklist{filter: filter, count: 1}, nil
	}

	n, err := countLines(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read blocklist: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind blocklist: %w", err)
	}
	b := New(uint(n), DefaultFalsePositiveRate)
	if err := b.Read(f); err != nil {
		return nil, fmt.Errorf("failed to read blocklist: %w", err)
	}
	return b, nil
}

func countLines(r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
	}
	return n, sc.Err()
}
