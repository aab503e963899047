package objwriter

import (
	"bytes"
	"encoding/binary"

	"github.com/xyproto/nativewasm/internal/target"
)

// ELF64 constants this writer needs. Named the same way debug/elf does,
// but debug/elf has no encoder, so the handful of values actually used are
// declared locally rather than pulled in just for their names.
const (
	etRel = 1

	emX86_64  = 0x3e
	emAArch64 = 0xb7

	shtNull    = 0
	shtProgBits = 1
	shtSymTab  = 2
	shtStrTab  = 3
	shtRela    = 4

	shfWrite = 0x1
	shfAlloc = 0x2
	shfExec  = 0x4

	stbGlobal = 1
	sttNoType = 0
	sttObject = 1
	sttFunc   = 2

	shnUndef = 0

	// R_X86_64_PLT32. spec.md section 9 documents that relocation
	// size/kind/encoding are hard-coded to 32-bit PLT-relative x86-branch
	// for every target, including aarch64 — a known limitation preserved
	// here rather than "fixed", since aarch64 relocations of this shape
	// are structurally wrong but that mismatch is part of the spec this
	// engine implements.
	relocPLT32 = 4
)

func elfMachine(arch target.Arch) uint16 {
	switch arch {
	case target.ArchARM64:
		return emAArch64
	default:
		return emX86_64
	}
}

type elf64Ehdr struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

type elf64Shdr struct {
	Name      uint32
	Type      uint32
	Flags     uint64
	Addr      uint64
	Off       uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
}

type elf64Sym struct {
	Name  uint32
	Info  uint8
	Other uint8
	Shndx uint16
	Value uint64
	Size  uint64
}

type elf64Rela struct {
	Offset uint64
	Info   uint64
	Addend int64
}

// strtab accumulates null-terminated strings and hands back the byte
// offset each one was written at, starting with the mandatory leading NUL.
type strtab struct {
	buf bytes.Buffer
}

func newStrtab() *strtab {
	s := &strtab{}
	s.buf.WriteByte(0)
	return s
}

func (s *strtab) add(name string) uint32 {
	off := uint32(s.buf.Len())
	s.buf.WriteString(name)
	s.buf.WriteByte(0)
	return off
}

// writeELF emits a little-endian ELF64 ET_REL object containing a .text
// section (every function body, trampoline and custom section, in
// insertion order), a .data section (the metadata blob, if any), a
// .symtab/.strtab pair, and a .rela.text relocation section.
func (o *Object) writeELF() ([]byte, error) {
	const (
		secNull = iota
		secText
		secData
		secSymtab
		secStrtab
		secRelaText
		secShstrtab
		secCount
	)

	shstrtab := newStrtab()
	nameText := shstrtab.add(".text")
	nameData := shstrtab.add(".data")
	nameSymtab := shstrtab.add(".symtab")
	nameStrtab := shstrtab.add(".strtab")
	nameRelaText := shstrtab.add(".rela.text")
	nameShstrtab := shstrtab.add(".shstrtab")

	strs := newStrtab()
	var syms []elf64Sym
	// Symbol table index 0 is always the null symbol.
	syms = append(syms, elf64Sym{})

	symIndex := make(map[string]uint32)
	for _, name := range o.order {
		s := o.symbols[name]
		nameOff := strs.add(name)
		var shndx uint16
		var info uint8
		switch s.kind {
		case kindText:
			shndx = secText
			info = stbGlobal<<4 | sttFunc
		case kindData:
			shndx = secData
			info = stbGlobal<<4 | sttObject
		case kindUnknown:
			shndx = shnUndef
			info = stbGlobal<<4 | sttNoType
		}
		symIndex[name] = uint32(len(syms))
		syms = append(syms, elf64Sym{
			Name:  nameOff,
			Info:  info,
			Shndx: shndx,
			Value: s.offset,
			Size:  uint64(len(s.data)),
		})
	}

	var relas []elf64Rela
	for _, r := range o.relocations {
		relas = append(relas, elf64Rela{
			Offset: r.offset,
			Info:   uint64(symIndex[r.targetName])<<32 | relocPLT32,
			Addend: r.addend,
		})
	}

	var symtabBuf, relaBuf bytes.Buffer
	for _, s := range syms {
		binary.Write(&symtabBuf, binary.LittleEndian, s)
	}
	for _, r := range relas {
		binary.Write(&relaBuf, binary.LittleEndian, r)
	}

	// Lay out file offsets: header, then section contents in section-index
	// order, then the section header table.
	var offset uint64 = 64 // Elf64_Ehdr size
	layout := make([]uint64, secCount)
	place := func(idx int, size uint64) {
		layout[idx] = offset
		offset += size
	}
	layout[secNull] = 0
	place(secText, uint64(len(o.textBuf)))
	place(secData, uint64(len(o.dataBuf)))
	place(secSymtab, uint64(symtabBuf.Len()))
	place(secStrtab, uint64(strs.buf.Len()))
	place(secRelaText, uint64(relaBuf.Len()))
	place(secShstrtab, uint64(shstrtab.buf.Len()))
	shoff := offset

	shdrs := make([]elf64Shdr, secCount)
	shdrs[secNull] = elf64Shdr{}
	shdrs[secText] = elf64Shdr{
		Name: nameText, Type: shtProgBits, Flags: shfAlloc | shfExec,
		Off: layout[secText], Size: uint64(len(o.textBuf)), Addralign: 16,
	}
	shdrs[secData] = elf64Shdr{
		Name: nameData, Type: shtProgBits, Flags: shfAlloc | shfWrite,
		Off: layout[secData], Size: uint64(len(o.dataBuf)), Addralign: 8,
	}
	shdrs[secSymtab] = elf64Shdr{
		Name: nameSymtab, Type: shtSymTab, Off: layout[secSymtab],
		Size: uint64(symtabBuf.Len()), Link: secStrtab, Info: 1,
		Addralign: 8, Entsize: 24,
	}
	shdrs[secStrtab] = elf64Shdr{
		Name: nameStrtab, Type: shtStrTab, Off: layout[secStrtab],
		Size: uint64(strs.buf.Len()), Addralign: 1,
	}
	shdrs[secRelaText] = elf64Shdr{
		Name: nameRelaText, Type: shtRela, Off: layout[secRelaText],
		Size: uint64(relaBuf.Len()), Link: secSymtab, Info: secText,
		Addralign: 8, Entsize: 24,
	}
	shdrs[secShstrtab] = elf64Shdr{
		Name: nameShstrtab, Type: shtStrTab, Off: layout[secShstrtab],
		Size: uint64(shstrtab.buf.Len()), Addralign: 1,
	}

	ehdr := elf64Ehdr{
		Type:      etRel,
		Machine:   elfMachine(o.triple.Arch),
		Version:   1,
		Shoff:     shoff,
		Ehsize:    64,
		Shentsize: 64,
		Shnum:     secCount,
		Shstrndx:  secShstrtab,
	}
	copy(ehdr.Ident[:], []byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0})

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, ehdr)
	out.Write(o.textBuf)
	out.Write(o.dataBuf)
	out.Write(symtabBuf.Bytes())
	out.Write(strs.buf.Bytes())
	out.Write(relaBuf.Bytes())
	out.Write(shstrtab.buf.Bytes())
	for _, sh := range shdrs {
		binary.Write(&out, binary.LittleEndian, sh)
	}

	return out.Bytes(), nil
}
