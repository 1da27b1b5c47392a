package fetcher

import (
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// DecodeCharset wraps r so that text in the named charset is decoded to
// UTF-8. Archived BEA and StatCan extracts predate UTF-8 and come in
// windows-1252 or latin-1.
func DecodeCharset(charset string, r io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "encoding: unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(r), nil
}
