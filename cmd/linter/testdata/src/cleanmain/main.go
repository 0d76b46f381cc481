package main

import (
	"encoding/binary"
	"fmt"
	"os"
)

func encode(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

func main() {
	if len(encode(184)) != 4 {
		fmt.Fprintln(os.Stderr, "bad size")
		os.Exit(1)
	}
}
