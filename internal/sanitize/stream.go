package sanitize

import (
	"bytes"
	"io"
	"strings"
)

// RestoringReader replaces boomerang tags in a stream with their original
// values. A tag split across two reads is held back until it is complete.
type RestoringReader struct {
	src      io.Reader
	replacer *strings.Replacer
	maxTag   int
	pending  []byte // read but not yet restored
	out      []byte // restored, not yet returned
	srcEOF   bool
}

// NewRestoringReader wraps src. If m is nil or empty src is returned as is.
func NewRestoringReader(src io.Reader, m *BoomerangMap) io.Reader {
	if m.IsEmpty() {
		return src
	}
	rev := m.fromTag()
	pairs := make([]string, 0, 2*len(rev))
	for tag, orig := range rev {
		pairs = append(pairs, tag, orig)
	}
	return &RestoringReader{
		src:      src,
		replacer: strings.NewReplacer(pairs...),
		maxTag:   m.maxTagLen(),
	}
}

// Read implements io.Reader.
func (r *RestoringReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	buf := make([]byte, max(len(p), 512))
	for len(r.out) == 0 {
		if r.srcEOF {
			if len(r.pending) == 0 {
				return 0, io.EOF
			}
			r.flush(len(r.pending))
			continue
		}

		n, err := r.src.Read(buf)
		r.pending = append(r.pending, buf[:n]...)
		if err == io.EOF {
			r.srcEOF = true
		} else if err != nil {
			return 0, err
		}
		if !r.srcEOF {
			r.flush(r.safeCut())
		}
	}

	n := copy(p, r.out)
	r.out = r.out[n:]
	return n, nil
}

// safeCut returns how many pending bytes can be restored without splitting
// a tag: everything before a trailing '<' that has no closing '>' yet.
func (r *RestoringReader) safeCut() int {
	i := bytes.LastIndexByte(r.pending, '<')
	if i < 0 || bytes.IndexByte(r.pending[i:], '>') >= 0 || len(r.pending)-i >= r.maxTag {
		return len(r.pending)
	}
	return i
}

func (r *RestoringReader) flush(cut int) {
	if cut <= 0 {
		return
	}
	r.out = append(r.out, r.replacer.Replace(string(r.pending[:cut]))...)
	r.pending = append(r.pending[:0:0], r.pending[cut:]...)
}
