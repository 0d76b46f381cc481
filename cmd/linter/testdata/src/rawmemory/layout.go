package rawmemory

import "unsafe" // want "import of unsafe"

type header struct {
	total  uint32
	length uint32
}

func size() uintptr {
	return unsafe.Sizeof(header{})
}
