package pages

import "encoding/binary"

type LSN uint64

const ZeroLSN LSN = 0

func ReadLSN(src []byte) LSN {
	return LSN(binary.BigEndian.Uint64(src))
}
