package format

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/vqcodec/codebook"
)

// DumpCodebook writes a human-readable listing of cb. When used is not nil
// a utilization line is added and unused codevectors are marked.
//
// The dump is informational only and is never read back.
func DumpCodebook(w io.Writer, cb *codebook.Codebook, m Metadata, used *roaring.Bitmap) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# codebook k=%d dim=%d\n", cb.Len(), cb.Dim())
	fmt.Fprintf(bw, "# block %dx%d channels=%d\n", m.BlockHeight, m.BlockWidth, m.Channels)
	if used != nil {
		fmt.Fprintf(bw, "# used %d/%d\n", used.GetCardinality(), cb.Len())
	}

	buf := make([]byte, 0, 16*cb.Dim())
	for i := 0; i < cb.Len(); i++ {
		buf = strconv.AppendInt(buf[:0], int64(i), 10)
		buf = append(buf, ':')
		for _, v := range cb.Vector(i) {
			buf = append(buf, ' ')
			buf = strconv.AppendFloat(buf, float64(v), 'f', 4, 32)
		}
		if used != nil && !used.Contains(uint32(i)) {
			buf = append(buf, " # unused"...)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}
