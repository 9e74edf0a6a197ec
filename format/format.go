package format

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vqcodec/internal/compress"
)

// Version is the only artifact version this package reads and writes.
const Version = 1

// ErrFormat is returned for artifacts with a bad magic, version, length or
// body.
var ErrFormat = errors.New("serialization format error")

// maxBody caps the decoded body size announced by a header.
const maxBody = 1 << 31

// MaxLabels is the largest block count an artifact set may describe.
const MaxLabels = 1 << 26

// Artifact suffixes appended to a run's base name.
const (
	CodebookSuffix = "_codebook"
	LabelsSuffix   = "_labels"
	MetaSuffix     = "_meta.json"
	DumpSuffix     = "_codebook.txt"
)

// Names lists the artifact names of a run in write order.
type Names struct {
	Codebook string
	Labels   string
	Meta     string
	Dump     string
}

// ArtifactNames derives the artifact names for base.
func ArtifactNames(base string) Names {
	return Names{
		Codebook: base + CodebookSuffix,
		Labels:   base + LabelsSuffix,
		Meta:     base + MetaSuffix,
		Dump:     base + DumpSuffix,
	}
}

// All returns the names in write order. The metadata comes last: its
// presence marks a complete run.
func (n Names) All() []string {
	return []string{n.Codebook, n.Labels, n.Dump, n.Meta}
}

func formatErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

func checkCompression(b byte) (compress.Type, error) {
	t := compress.Type(b)
	if !t.Valid() {
		return 0, formatErr("unknown compression %d", b)
	}
	return t, nil
}

// decodeBody decompresses body and checks that it holds exactly want bytes.
func decodeBody(body []byte, t compress.Type, want uint64) ([]byte, error) {
	if want > maxBody {
		return nil, formatErr("body of %d bytes exceeds limit", want)
	}
	raw, err := compress.Decompress(body, t, int(want))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if uint64(len(raw)) != want {
		return nil, formatErr("body has %d bytes, want %d", len(raw), want)
	}
	return raw, nil
}
