package objwriter

import (
	"bytes"
	"encoding/binary"

	"github.com/xyproto/nativewasm/internal/target"
)

// COFF object-file constants. As with the ELF and Mach-O backends, only the
// handful of values this writer actually emits are declared.
const (
	imageFileMachineAMD64 = 0x8664
	imageFileMachineARM64 = 0xaa64

	imageSCNCntCode             = 0x00000020
	imageSCNCntInitializedData  = 0x00000040
	imageSCNMemExecute          = 0x20000000
	imageSCNMemRead             = 0x40000000
	imageSCNMemWrite            = 0x80000000

	imageSymClassExternal = 2
	imageSymClassStatic   = 3

	imageSymUndefined = 0 // section number for an undefined external symbol
	imageSymTypeNull  = 0
	imageSymTypeFunc  = 0x20 // DT_FUNCTION << 4, complex type "function"

	// IMAGE_REL_AMD64_REL32. Like the ELF and Mach-O backends, the same
	// 32-bit PC-relative relocation kind is emitted regardless of the
	// object's actual target architecture — spec.md section 9's documented
	// relocation-fidelity limitation, carried through to every format.
	imageRelAMD64Rel32 = 0x0004
)

func coffMachine(arch target.Arch) uint16 {
	switch arch {
	case target.ArchARM64:
		return imageFileMachineARM64
	default:
		return imageFileMachineAMD64
	}
}

type coffFileHeader struct {
	Machine              uint16
	NumberOfSections     uint16
	TimeDateStamp        uint32
	PointerToSymbolTable uint32
	NumberOfSymbols      uint32
	SizeOfOptionalHeader uint16
	Characteristics      uint16
}

type coffSectionHeader struct {
	Name                 [8]byte
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLinenumbers uint32
	NumberOfRelocations  uint16
	NumberOfLinenumbers  uint16
	Characteristics      uint32
}

type coffSymbol struct {
	Name               [8]byte
	Value              uint32
	SectionNumber      int16
	Type               uint16
	StorageClass       uint8
	NumberOfAuxSymbols uint8
}

type coffRelocation struct {
	VirtualAddress   uint32
	SymbolTableIndex uint32
	Type             uint16
}

// coffName packs name into an 8-byte symbol/section name field, falling
// back to a "/<offset>" string-table reference when it doesn't fit.
func coffName(name string, strtab *bytes.Buffer) [8]byte {
	var out [8]byte
	if len(name) <= 8 {
		copy(out[:], name)
		return out
	}
	off := uint32(4 + strtab.Len())
	strtab.WriteString(name)
	strtab.WriteByte(0)
	binary.LittleEndian.PutUint32(out[0:4], 0)
	binary.LittleEndian.PutUint32(out[4:8], off)
	return out
}

func (o *Object) writeCOFF() ([]byte, error) {
	const (
		secText = 1
		secData = 2
	)

	var strtab bytes.Buffer

	var syms []coffSymbol
	symIndex := make(map[string]uint32)
	for _, name := range o.order {
		s := o.symbols[name]
		var section int16
		var class uint8 = imageSymClassExternal
		typ := uint16(imageSymTypeNull)
		switch s.kind {
		case kindText:
			section = secText
			typ = imageSymTypeFunc
		case kindData:
			section = secData
		case kindUnknown:
			section = imageSymUndefined
		}
		symIndex[name] = uint32(len(syms))
		syms = append(syms, coffSymbol{
			Name:          coffName(name, &strtab),
			Value:         uint32(s.offset),
			SectionNumber: section,
			Type:          typ,
			StorageClass:  class,
		})
	}

	var relocs []coffRelocation
	for _, r := range o.relocations {
		relocs = append(relocs, coffRelocation{
			VirtualAddress:   uint32(r.offset),
			SymbolTableIndex: symIndex[r.targetName],
			Type:             imageRelAMD64Rel32,
		})
	}

	const headerSize = 20
	const sectHdrSize = 40
	const symSize = 18
	const relocSize = 10

	textRawOff := uint32(headerSize + 2*sectHdrSize)
	dataRawOff := textRawOff + uint32(len(o.textBuf))
	textRelocOff := dataRawOff + uint32(len(o.dataBuf))
	symtabOff := textRelocOff + uint32(len(relocs))*relocSize

	textHdr := coffSectionHeader{
		Name:                 coffName(".text", &strtab),
		SizeOfRawData:        uint32(len(o.textBuf)),
		PointerToRawData:     textRawOff,
		PointerToRelocations: textRelocOff,
		NumberOfRelocations:  uint16(len(relocs)),
		Characteristics:      imageSCNCntCode | imageSCNMemExecute | imageSCNMemRead,
	}
	dataHdr := coffSectionHeader{
		Name:             coffName(".data", &strtab),
		SizeOfRawData:    uint32(len(o.dataBuf)),
		PointerToRawData: dataRawOff,
		Characteristics:  imageSCNCntInitializedData | imageSCNMemRead | imageSCNMemWrite,
	}

	header := coffFileHeader{
		Machine:              coffMachine(o.triple.Arch),
		NumberOfSections:     2,
		PointerToSymbolTable: symtabOff,
		NumberOfSymbols:      uint32(len(syms)),
	}

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, header)
	binary.Write(&out, binary.LittleEndian, textHdr)
	binary.Write(&out, binary.LittleEndian, dataHdr)
	out.Write(o.textBuf)
	out.Write(o.dataBuf)
	for _, r := range relocs {
		binary.Write(&out, binary.LittleEndian, r)
	}
	for _, s := range syms {
		binary.Write(&out, binary.LittleEndian, s)
	}
	// String table: a leading uint32 giving its own total size (including
	// that uint32), per the COFF spec, even when no long names were used.
	var strtabSize [4]byte
	binary.LittleEndian.PutUint32(strtabSize[:], uint32(4+strtab.Len()))
	out.Write(strtabSize[:])
	out.Write(strtab.Bytes())

	return out.Bytes(), nil
}
