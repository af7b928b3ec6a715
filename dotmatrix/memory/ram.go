package memory

import "github.com/valerio/go-dotmatrix/dotmatrix/addr"

// WorkRAM is the flat 8 KiB RAM at C000-DFFF. E000-FDFF mirrors C000-DDFF.
type WorkRAM struct {
	data [0x2000]byte
}

func NewWorkRAM() *WorkRAM {
	return &WorkRAM{}
}

func wramOffset(address uint16) uint16 {
	if address >= addr.EchoStart {
		address -= 0x2000
	}
	return address - addr.WRAMStart
}

func (w *WorkRAM) Read(address uint16) byte {
	return w.data[wramOffset(address)]
}

func (w *WorkRAM) Write(address uint16, value byte) {
	w.data[wramOffset(address)] = value
}
