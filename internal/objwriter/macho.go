package objwriter

import (
	"bytes"
	"encoding/binary"

	"github.com/xyproto/nativewasm/internal/target"
)

// Mach-O constants needed for an MH_OBJECT file with one LC_SEGMENT_64
// (containing __text/__data) and one LC_SYMTAB.
const (
	machoMagic64 = 0xfeedfacf

	cpuTypeX86_64  = 0x01000007
	cpuTypeARM64   = 0x0100000c
	cpuSubtypeAll  = 0x00000003

	mhObject = 0x1

	lcSegment64 = 0x19
	lcSymtab    = 0x2

	smPureInstructions = 0x800000
	smSomeInstructions = 0x400

	nTypeSect = 0xe // N_SECT
	nExt      = 0x1 // external

	// Mirrors the same hard-coded-for-every-target relocation shape used
	// in the ELF backend: spec.md documents this as a known limitation,
	// not something to silently "fix" per format.
	genericRelocVanilla = 0
)

func machoCPU(arch target.Arch) (cputype, cpusubtype uint32) {
	switch arch {
	case target.ArchARM64:
		return cpuTypeARM64, cpuSubtypeAll
	default:
		return cpuTypeX86_64, cpuSubtypeAll
	}
}

type machoHeader64 struct {
	Magic      uint32
	CPUType    uint32
	CPUSubtype uint32
	FileType   uint32
	NCmds      uint32
	SizeOfCmds uint32
	Flags      uint32
	Reserved   uint32
}

type machoSegmentCommand64 struct {
	Cmd      uint32
	CmdSize  uint32
	SegName  [16]byte
	VMAddr   uint64
	VMSize   uint64
	FileOff  uint64
	FileSize uint64
	MaxProt  uint32
	InitProt uint32
	NSects   uint32
	Flags    uint32
}

type machoSection64 struct {
	SectName  [16]byte
	SegName   [16]byte
	Addr      uint64
	Size      uint64
	Offset    uint32
	Align     uint32
	RelOff    uint32
	NReloc    uint32
	Flags     uint32
	Reserved1 uint32
	Reserved2 uint32
	Reserved3 uint32
}

type machoSymtabCommand struct {
	Cmd     uint32
	CmdSize uint32
	SymOff  uint32
	NSyms   uint32
	StrOff  uint32
	StrSize uint32
}

type machoNlist64 struct {
	StrX  uint32
	Type  uint8
	Sect  uint8
	Desc  uint16
	Value uint64
}

type machoRelocationInfo struct {
	Address uint32
	// PackedInfo bit-packs symbolnum:24, pcrel:1, length:2, extern:1, type:4
	// in that order, matching <mach-o/reloc.h>'s struct relocation_info
	// bitfield layout on a little-endian host.
	PackedInfo uint32
}

func packRelocationInfo(symbolnum uint32, pcrel bool, length uint8, extern bool, rtype uint8) uint32 {
	var v uint32
	v |= symbolnum & 0xffffff
	if pcrel {
		v |= 1 << 24
	}
	v |= uint32(length&0x3) << 25
	if extern {
		v |= 1 << 27
	}
	v |= uint32(rtype&0xf) << 28
	return v
}

func fixedName16(name string) [16]byte {
	var out [16]byte
	copy(out[:], name)
	return out
}

func (o *Object) writeMachO() ([]byte, error) {
	cputype, cpusubtype := machoCPU(o.triple.Arch)

	var strtabBuf bytes.Buffer
	strtabBuf.WriteByte(0)
	var nlists []machoNlist64
	symIndex := make(map[string]uint32)

	for _, name := range o.order {
		s := o.symbols[name]
		strOff := uint32(strtabBuf.Len())
		strtabBuf.WriteString(name)
		strtabBuf.WriteByte(0)

		var sect uint8
		switch s.kind {
		case kindText:
			sect = 1 // __text is the first (and only non-data) section
		case kindData:
			sect = 2 // __data
		case kindUnknown:
			sect = 0 // NO_SECT: undefined
		}
		typ := uint8(nExt)
		if sect != 0 {
			typ = nTypeSect | nExt
		}
		symIndex[name] = uint32(len(nlists))
		nlists = append(nlists, machoNlist64{
			StrX:  strOff,
			Type:  typ,
			Sect:  sect,
			Value: s.offset,
		})
	}

	var relocBuf bytes.Buffer
	for _, r := range o.relocations {
		info := packRelocationInfo(symIndex[r.targetName], true, 2 /* 4 bytes */, true, genericRelocVanilla)
		binary.Write(&relocBuf, binary.LittleEndian, machoRelocationInfo{
			Address:    uint32(r.offset),
			PackedInfo: info,
		})
	}

	const headerSize = 32
	const segCmdSize = 72
	const sectSize = 80
	const symtabCmdSize = 24
	const numSects = 2

	cmdsSize := uint32(segCmdSize + numSects*sectSize + symtabCmdSize)

	textOff := uint64(headerSize) + uint64(cmdsSize)
	dataOff := textOff + uint64(len(o.textBuf))
	relocOff := dataOff + uint64(len(o.dataBuf))
	symOff := relocOff + uint64(relocBuf.Len())
	strOff := symOff + uint64(len(nlists))*16

	seg := machoSegmentCommand64{
		Cmd:      lcSegment64,
		CmdSize:  segCmdSize + numSects*sectSize,
		VMSize:   uint64(len(o.textBuf)) + uint64(len(o.dataBuf)),
		FileOff:  textOff,
		FileSize: uint64(len(o.textBuf)) + uint64(len(o.dataBuf)),
		MaxProt:  7,
		InitProt: 7,
		NSects:   numSects,
	}

	textSect := machoSection64{
		SectName: fixedName16("__text"),
		SegName:  fixedName16("__TEXT"),
		Size:     uint64(len(o.textBuf)),
		Offset:   uint32(textOff),
		Align:    4,
		RelOff:   uint32(relocOff),
		NReloc:   uint32(len(o.relocations)),
		Flags:    smPureInstructions | smSomeInstructions,
	}
	dataSect := machoSection64{
		SectName: fixedName16("__data"),
		SegName:  fixedName16("__DATA"),
		Addr:     uint64(len(o.textBuf)),
		Size:     uint64(len(o.dataBuf)),
		Offset:   uint32(dataOff),
		Align:    3,
	}

	symtabCmd := machoSymtabCommand{
		Cmd:     lcSymtab,
		CmdSize: symtabCmdSize,
		SymOff:  uint32(symOff),
		NSyms:   uint32(len(nlists)),
		StrOff:  uint32(strOff),
		StrSize: uint32(strtabBuf.Len()),
	}

	header := machoHeader64{
		Magic:      machoMagic64,
		CPUType:    cputype,
		CPUSubtype: cpusubtype,
		FileType:   mhObject,
		NCmds:      2,
		SizeOfCmds: cmdsSize,
	}

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, header)
	binary.Write(&out, binary.LittleEndian, seg)
	binary.Write(&out, binary.LittleEndian, textSect)
	binary.Write(&out, binary.LittleEndian, dataSect)
	binary.Write(&out, binary.LittleEndian, symtabCmd)
	out.Write(o.textBuf)
	out.Write(o.dataBuf)
	out.Write(relocBuf.Bytes())
	for _, n := range nlists {
		binary.Write(&out, binary.LittleEndian, n)
	}
	out.Write(strtabBuf.Bytes())

	return out.Bytes(), nil
}
