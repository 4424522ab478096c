// Package grf reads Ragnarok Online GRF archives (version 0x200).
//
// An Archive implements io/fs.FS, fs.ReadFileFS and fs.ReadDirFS. Names in the
// archive table use backslashes; they are stored with forward slashes and
// lowercased, so "data/texture/Wall.bmp" and "data/texture/wall.bmp" name the
// same entry. Lookups follow io/fs rules: backslashes and leading slashes are
// rejected.
package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/Faultbox/splatgen/pkg/encoding"
)

const (
	grfMagic      = "Master of Magic"
	headerSize    = 46
	grfVersion    = 0x200
	entrySize     = 17
	flagFile      = 0x01
	flagEncrypted = 0x02 | 0x04
)

// GRF errors.
var (
	ErrInvalidMagic       = errors.New("invalid GRF magic")
	ErrUnsupportedVersion = errors.New("unsupported GRF version")
	ErrCorruptTable       = errors.New("corrupt GRF file table")
	ErrEncrypted          = errors.New("encrypted GRF entries are not supported")
)

// Archive represents an opened GRF archive.
type Archive struct {
	file    *os.File
	header  Header
	entries map[string]*Entry
	dirs    map[string][]string // directory -> sorted child names
}

// Header contains GRF file header information.
type Header struct {
	Magic         [15]byte
	EncryptionKey [15]byte
	TableOffset   uint32
	Seed          uint32
	FileCount     uint32
	Version       uint32
}

// Entry represents a file entry in the archive.
type Entry struct {
	Name             string
	CompressedSize   uint32
	AlignedSize      uint32
	UncompressedSize uint32
	Flags            uint8
	Offset           uint32
}

// Open opens a GRF archive for reading.
func Open(name string) (*Archive, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	a := &Archive{file: file, entries: make(map[string]*Entry)}
	if err := a.readHeader(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := a.readFileTable(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading file table: %w", err)
	}
	a.buildDirs()
	return a, nil
}

// Close closes the archive.
func (a *Archive) Close() error {
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}

// Len returns the number of file entries.
func (a *Archive) Len() int {
	return len(a.entries)
}

func (a *Archive) readHeader() error {
	sr := io.NewSectionReader(a.file, 0, headerSize)
	if err := binary.Read(sr, binary.LittleEndian, &a.header); err != nil {
		return err
	}
	if string(a.header.Magic[:]) != grfMagic {
		return ErrInvalidMagic
	}
	if a.header.Version != grfVersion {
		return fmt.Errorf("%w: 0x%x", ErrUnsupportedVersion, a.header.Version)
	}
	return nil
}

func (a *Archive) readFileTable() error {
	tableOffset := int64(a.header.TableOffset) + headerSize

	var sizes [2]uint32 // compressed, uncompressed
	sizeBuf := make([]byte, 8)
	if _, err := a.file.ReadAt(sizeBuf, tableOffset); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptTable, err)
	}
	sizes[0] = binary.LittleEndian.Uint32(sizeBuf)
	sizes[1] = binary.LittleEndian.Uint32(sizeBuf[4:])

	compressed := make([]byte, sizes[0])
	if _, err := a.file.ReadAt(compressed, tableOffset+8); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptTable, err)
	}
	table, err := inflate(compressed, sizes[1])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptTable, err)
	}

	if a.header.FileCount < a.header.Seed+7 {
		return fmt.Errorf("%w: file count %d", ErrCorruptTable, a.header.FileCount)
	}
	fileCount := a.header.FileCount - a.header.Seed - 7

	offset := 0
	for range fileCount {
		nameEnd := bytes.IndexByte(table[offset:], 0)
		if nameEnd < 0 || offset+nameEnd+1+entrySize > len(table) {
			return fmt.Errorf("%w: entry at table offset %d", ErrCorruptTable, offset)
		}
		name := encoding.EUCKRToUTF8(table[offset : offset+nameEnd])
		offset += nameEnd + 1

		e := &Entry{
			Name:             normalizePath(name),
			CompressedSize:   binary.LittleEndian.Uint32(table[offset:]),
			AlignedSize:      binary.LittleEndian.Uint32(table[offset+4:]),
			UncompressedSize: binary.LittleEndian.Uint32(table[offset+8:]),
			Flags:            table[offset+12],
			Offset:           binary.LittleEndian.Uint32(table[offset+13:]),
		}
		offset += entrySize

		if e.Flags&flagFile != 0 && fs.ValidPath(e.Name) {
			a.entries[e.Name] = e
		}
	}
	return nil
}

func (a *Archive) buildDirs() {
	children := map[string]map[string]bool{".": {}}
	add := func(dir, child string) {
		if children[dir] == nil {
			children[dir] = make(map[string]bool)
		}
		children[dir][child] = true
	}
	for name := range a.entries {
		for p := name; p != "."; {
			dir := path.Dir(p)
			add(dir, path.Base(p))
			p = dir
		}
	}
	a.dirs = make(map[string][]string, len(children))
	for dir, set := range children {
		names := make([]string, 0, len(set))
		for n := range set {
			names = append(names, n)
		}
		sort.Strings(names)
		a.dirs[dir] = names
	}
}

// List returns all file paths in the archive, sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.entries))
	for p := range a.entries {
		result = append(result, p)
	}
	sort.Strings(result)
	return result
}

// ReadFile reads and inflates a file from the archive.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	key, valid := lookupKey(name)
	if !valid {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	e, ok := a.entries[key]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	data, err := a.read(e)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	return data, nil
}

func (a *Archive) read(e *Entry) ([]byte, error) {
	if e.Flags&flagEncrypted != 0 {
		return nil, ErrEncrypted
	}
	stored := make([]byte, e.AlignedSize)
	if _, err := a.file.ReadAt(stored, int64(e.Offset)+headerSize); err != nil {
		return nil, err
	}
	if e.CompressedSize > e.AlignedSize {
		return nil, fmt.Errorf("compressed size %d exceeds aligned size %d", e.CompressedSize, e.AlignedSize)
	}
	if e.CompressedSize == e.UncompressedSize {
		return stored[:e.UncompressedSize], nil
	}
	return inflate(stored[:e.CompressedSize], e.UncompressedSize)
}

func inflate(data []byte, size uint32) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	out := make([]byte, size)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Open implements fs.FS. Files are inflated on open.
func (a *Archive) Open(name string) (fs.File, error) {
	key, valid := lookupKey(name)
	if !valid {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if e, ok := a.entries[key]; ok {
		data, err := a.read(e)
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: err}
		}
		return &file{info: fileInfo{name: path.Base(key), size: int64(len(data))}, r: bytes.NewReader(data)}, nil
	}
	if _, ok := a.dirs[key]; ok {
		entries, _ := a.ReadDir(key)
		return &dir{info: fileInfo{name: path.Base(key), dir: true}, entries: entries}, nil
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// ReadDir implements fs.ReadDirFS.
func (a *Archive) ReadDir(name string) ([]fs.DirEntry, error) {
	key, valid := lookupKey(name)
	if !valid {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	names, ok := a.dirs[key]
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	out := make([]fs.DirEntry, len(names))
	for i, n := range names {
		full := path.Join(key, n)
		if e, ok := a.entries[full]; ok {
			out[i] = fs.FileInfoToDirEntry(fileInfo{name: n, size: int64(e.UncompressedSize)})
		} else {
			out[i] = fs.FileInfoToDirEntry(fileInfo{name: n, dir: true})
		}
	}
	return out, nil
}

// lookupKey maps an io/fs name to its entry key.
func lookupKey(name string) (string, bool) {
	if !fs.ValidPath(name) || strings.Contains(name, `\`) {
		return "", false
	}
	return strings.ToLower(name), true
}

// normalizePath converts a name from the archive table to its entry key;
// the root is ".".
func normalizePath(p string) string {
	p = encoding.NormalizeGRFPath(p)
	p = strings.Trim(p, "/")
	if p == "" {
		return "."
	}
	return p
}
