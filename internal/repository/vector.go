package repository

import (
	"strconv"
	"strings"
)

// encodeVector renders a []float32 as a pgvector literal, e.g. "[0.1,0.2]".
// pgvector accepts the text form with an explicit ::vector cast, so no driver
// extension is needed.
func encodeVector(v []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
