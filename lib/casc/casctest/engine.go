// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

// Package casctest provides an in-memory [casc.Engine] for tests. The
// fake speaks the full engine protocol: boolean success flags, the
// process-wide last-error register, two-phase info queries, and the
// reusable find-record buffer. Failure injection fields let tests
// drive the gateway's error paths without a real storage.
package casctest

import (
	"crypto/md5"
	"encoding/binary"
	"io"
	"strings"
	"sync"

	"github.com/gobwas/glob"

	"github.com/hydra1983/casckit/lib/casc"
)

// File is one fixture file in the fake storage.
type File struct {
	// Name is the storage path. Matching is case-insensitive and
	// treats / and \ alike.
	Name string

	// Data is the file content. The content key defaults to its MD5.
	Data []byte

	// CKey overrides the computed content key when nonzero.
	CKey casc.Key

	// EKey is the encoded key reported for the file.
	EKey casc.Key

	// TagMask, FileDataID, LocaleFlags, ContentFlags, SpanCount fill
	// the corresponding find-record fields.
	TagMask      uint64
	FileDataID   uint32
	LocaleFlags  uint32
	ContentFlags uint32
	SpanCount    uint32

	// Unavailable marks the file as known but not downloaded.
	Unavailable bool

	// SizeOverride makes size queries report this value instead of
	// len(Data). Reads still end at len(Data), so a nonzero override
	// larger than the data produces truncated streams.
	SizeOverride uint64
}

func (f *File) ckey() casc.Key {
	if !f.CKey.IsZero() {
		return f.CKey
	}
	return casc.Key(md5.Sum(f.Data))
}

func (f *File) size() uint64 {
	if f.SizeOverride != 0 {
		return f.SizeOverride
	}
	return uint64(len(f.Data))
}

// Engine is the in-memory fake. The zero value is unusable; create
// one with [New].
type Engine struct {
	mu      sync.Mutex
	files   []File
	product casc.Product
	feats   casc.Features
	tags    []casc.Tag

	lastErr casc.ErrorCode
	nextID  uintptr

	storages map[casc.StorageHandle]string
	opens    map[casc.FileHandle]*openFile
	finds    map[casc.FindHandle]*findCursor

	// LastListFile records the listfile path of the most recent
	// FindFirst, for assertions on plumbing.
	LastListFile string

	// RequireListFile makes FindFirst report content-key names
	// (NameCKey) when no listfile is passed, mimicking a storage
	// without an embedded name source.
	RequireListFile bool

	// Failure injection. A zero value means "do not fail".
	FailOpenStorage casc.ErrorCode // OpenStorage fails with this code
	FailOpenFile    casc.ErrorCode // OpenFile fails with this code
	FailRead        casc.ErrorCode // ReadFile fails with this code
	FailFindClose   casc.ErrorCode // FindClose fails with this code
	FailCloseFile   casc.ErrorCode // CloseFile fails with this code
	FailInfo        casc.ErrorCode // StorageInfo fill phase fails

	// FailFindAfter makes find iteration fail with FailFindCode after
	// this many records have been produced. Zero disables; negative
	// fails the very first advance.
	FailFindAfter int
	FailFindCode  casc.ErrorCode
}

type openFile struct {
	file *File
	pos  int64
}

type findCursor struct {
	matched  []int
	next     int
	served   int
	listFile string
}

// New creates a fake engine holding the fixture files. Product, tags
// and features default to a small plausible storage; override with
// [Engine.SetProduct], [Engine.SetTags], [Engine.SetFeatures].
func New(files ...File) *Engine {
	e := &Engine{
		files:    files,
		product:  casc.Product{Code: "test", Build: 40000},
		feats:    casc.FeatureFileNames | casc.FeatureTags | casc.FeatureLocaleFlags,
		tags:     []casc.Tag{{Name: "Windows", Value: 2}, {Name: "enUS", Value: 1}},
		nextID:   1,
		storages: make(map[casc.StorageHandle]string),
		opens:    make(map[casc.FileHandle]*openFile),
		finds:    make(map[casc.FindHandle]*findCursor),
	}
	return e
}

// SetProduct overrides the product info.
func (e *Engine) SetProduct(p casc.Product) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.product = p
}

// SetFeatures overrides the feature bitmask.
func (e *Engine) SetFeatures(f casc.Features) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.feats = f
}

// SetTags overrides the tag table.
func (e *Engine) SetTags(tags []casc.Tag) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tags = tags
}

// OpenStorageCount reports how many storage handles are currently
// open, for leak assertions.
func (e *Engine) OpenStorageCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.storages)
}

// OpenFileCount reports how many file handles are currently open.
func (e *Engine) OpenFileCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.opens)
}

// OpenFindCount reports how many find cursors are currently open.
func (e *Engine) OpenFindCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.finds)
}

func (e *Engine) fail(code casc.ErrorCode) bool {
	e.lastErr = code
	return false
}

func (e *Engine) handle() uintptr {
	id := e.nextID
	e.nextID++
	return id
}

// normalize lowercases a name and unifies separators for matching.
func normalize(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, `\`, "/"))
}

// OpenStorage implements [casc.Engine].
func (e *Engine) OpenStorage(path string) (casc.StorageHandle, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FailOpenStorage != 0 {
		return 0, e.fail(e.FailOpenStorage)
	}
	if path == "" {
		return 0, e.fail(casc.ErrorInvalidParameter)
	}
	h := casc.StorageHandle(e.handle())
	e.storages[h] = path
	return h, true
}

// CloseStorage implements [casc.Engine].
func (e *Engine) CloseStorage(h casc.StorageHandle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.storages[h]; !ok {
		return e.fail(casc.ErrorInvalidHandle)
	}
	delete(e.storages, h)
	return true
}

// OpenFile implements [casc.Engine].
func (e *Engine) OpenFile(h casc.StorageHandle, name string, localeMask uint32, flags uint32) (casc.FileHandle, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.storages[h]; !ok {
		return 0, e.fail(casc.ErrorInvalidHandle)
	}
	if e.FailOpenFile != 0 {
		return 0, e.fail(e.FailOpenFile)
	}

	for i := range e.files {
		f := &e.files[i]
		if flags&casc.OpenFlagNameIsCKey != 0 {
			if !strings.EqualFold(f.ckey().String(), name) {
				continue
			}
		} else if normalize(f.Name) != normalize(name) {
			continue
		}
		// Files without locale flags match any request; flagged files
		// need an overlap with the mask.
		if f.LocaleFlags != 0 && localeMask != uint32(casc.LocaleAll) && f.LocaleFlags&localeMask == 0 {
			continue
		}
		fh := casc.FileHandle(e.handle())
		e.opens[fh] = &openFile{file: f}
		return fh, true
	}
	return 0, e.fail(casc.ErrorFileNotFound)
}

// CloseFile implements [casc.Engine].
func (e *Engine) CloseFile(f casc.FileHandle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.opens[f]; !ok {
		return e.fail(casc.ErrorInvalidHandle)
	}
	if e.FailCloseFile != 0 {
		delete(e.opens, f)
		return e.fail(e.FailCloseFile)
	}
	delete(e.opens, f)
	return true
}

// ReadFile implements [casc.Engine]. A read at or past end of data
// returns (0, true), matching the engine's zero-byte EOF convention.
func (e *Engine) ReadFile(f casc.FileHandle, buf []byte) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	of, ok := e.opens[f]
	if !ok {
		return 0, e.fail(casc.ErrorInvalidHandle)
	}
	if e.FailRead != 0 {
		return 0, e.fail(e.FailRead)
	}
	if of.pos >= int64(len(of.file.Data)) {
		return 0, true
	}
	n := copy(buf, of.file.Data[of.pos:])
	of.pos += int64(n)
	return n, true
}

// GetFileSize implements [casc.Engine].
func (e *Engine) GetFileSize(f casc.FileHandle) (uint64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	of, ok := e.opens[f]
	if !ok {
		return 0, e.fail(casc.ErrorInvalidHandle)
	}
	return of.file.size(), true
}

// SetFilePointer implements [casc.Engine].
func (e *Engine) SetFilePointer(f casc.FileHandle, offset int64, whence int) (uint64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	of, ok := e.opens[f]
	if !ok {
		return 0, e.fail(casc.ErrorInvalidHandle)
	}

	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = of.pos + offset
	case io.SeekEnd:
		pos = int64(len(of.file.Data)) + offset
	default:
		return 0, e.fail(casc.ErrorInvalidParameter)
	}
	if pos < 0 {
		return 0, e.fail(casc.ErrorInvalidParameter)
	}
	of.pos = pos
	return uint64(pos), true
}

// FindFirst implements [casc.Engine].
func (e *Engine) FindFirst(h casc.StorageHandle, mask string, listFile string, rec []byte) (casc.FindHandle, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.storages[h]; !ok {
		return 0, e.fail(casc.ErrorInvalidHandle)
	}
	e.LastListFile = listFile

	if mask == "" {
		mask = "*"
	}
	g, err := glob.Compile(normalize(mask))
	if err != nil {
		return 0, e.fail(casc.ErrorInvalidParameter)
	}

	var matched []int
	for i := range e.files {
		if g.Match(normalize(e.files[i].Name)) {
			matched = append(matched, i)
		}
	}
	if len(matched) == 0 {
		return 0, e.fail(casc.ErrorFileNotFound)
	}

	fh := casc.FindHandle(e.handle())
	cur := &findCursor{matched: matched, listFile: listFile}
	e.finds[fh] = cur
	if !e.advanceLocked(cur, rec) {
		// Failure to produce the first record invalidates the cursor,
		// matching the engine's find-first contract.
		delete(e.finds, fh)
		return 0, false
	}
	return fh, true
}

// FindNext implements [casc.Engine].
func (e *Engine) FindNext(fh casc.FindHandle, rec []byte) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur, ok := e.finds[fh]
	if !ok {
		return e.fail(casc.ErrorInvalidHandle)
	}
	return e.advanceLocked(cur, rec)
}

func (e *Engine) advanceLocked(cur *findCursor, rec []byte) bool {
	if e.FailFindAfter != 0 && cur.served >= max(e.FailFindAfter, 0) {
		return e.fail(e.FailFindCode)
	}
	if cur.next >= len(cur.matched) {
		return e.fail(casc.ErrorNoMoreFiles)
	}

	f := &e.files[cur.matched[cur.next]]
	cur.next++
	cur.served++

	entry := casc.FileEntry{
		Name:         f.Name,
		CKey:         f.ckey(),
		EKey:         f.EKey,
		TagMask:      f.TagMask,
		Size:         f.size(),
		FileDataID:   f.FileDataID,
		LocaleFlags:  f.LocaleFlags,
		ContentFlags: f.ContentFlags,
		SpanCount:    f.SpanCount,
		Available:    !f.Unavailable,
		NameType:     casc.NameFull,
	}
	if e.RequireListFile && cur.listFile == "" {
		entry.Name = entry.CKey.String()
		entry.NameType = casc.NameCKey
	}
	copy(rec, casc.EncodeFileEntry(entry))
	return true
}

// FindClose implements [casc.Engine].
func (e *Engine) FindClose(fh casc.FindHandle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.finds[fh]; !ok {
		return e.fail(casc.ErrorInvalidHandle)
	}
	delete(e.finds, fh)
	if e.FailFindClose != 0 {
		return e.fail(e.FailFindClose)
	}
	return true
}

// StorageInfo implements [casc.Engine] with the two-phase length
// protocol.
func (e *Engine) StorageInfo(h casc.StorageHandle, class casc.InfoClass, buf []byte) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	path, ok := e.storages[h]
	if !ok {
		return 0, e.fail(casc.ErrorInvalidHandle)
	}

	data := e.infoLocked(class, path)
	if data == nil {
		return 0, e.fail(casc.ErrorInvalidParameter)
	}
	if buf == nil {
		return len(data), e.fail(casc.ErrorInsufficientBuf)
	}
	if e.FailInfo != 0 {
		return 0, e.fail(e.FailInfo)
	}
	if len(buf) < len(data) {
		return len(data), e.fail(casc.ErrorInsufficientBuf)
	}
	return copy(buf, data), true
}

func (e *Engine) infoLocked(class casc.InfoClass, path string) []byte {
	switch class {
	case casc.InfoLocalFileCount:
		var local uint32
		for i := range e.files {
			if !e.files[i].Unavailable {
				local++
			}
		}
		return le32(local)
	case casc.InfoTotalFileCount:
		return le32(uint32(len(e.files)))
	case casc.InfoFeatures:
		return le32(uint32(e.feats))
	case casc.InfoProduct:
		buf := make([]byte, 0x20)
		copy(buf, e.product.Code)
		binary.LittleEndian.PutUint32(buf[0x1c:], e.product.Build)
		return buf
	case casc.InfoTags:
		return encodeTags(e.tags)
	case casc.InfoPathProduct:
		return append([]byte(path+":"+e.product.Code), 0)
	}
	return nil
}

// FileInfo implements [casc.Engine]. Only the key classes are
// supported, matching what the access layer queries.
func (e *Engine) FileInfo(f casc.FileHandle, class casc.FileInfoClass, buf []byte) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	of, ok := e.opens[f]
	if !ok {
		return 0, e.fail(casc.ErrorInvalidHandle)
	}

	var key casc.Key
	switch class {
	case casc.FileInfoContentKey:
		key = of.file.ckey()
	case casc.FileInfoEncodedKey:
		key = of.file.EKey
	default:
		return 0, e.fail(casc.ErrorNotSupported)
	}

	if buf == nil {
		return len(key), e.fail(casc.ErrorInsufficientBuf)
	}
	if len(buf) < len(key) {
		return len(key), e.fail(casc.ErrorInsufficientBuf)
	}
	return copy(buf, key[:]), true
}

// LastError implements [casc.Engine].
func (e *Engine) LastError() casc.ErrorCode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// SetLastError implements [casc.Engine].
func (e *Engine) SetLastError(code casc.ErrorCode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastErr = code
}

func le32(v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return buf
}

// encodeTags builds the tag-table wire form: uint64 count, 16-byte
// descriptors (pointer placeholder, name length, value), then the
// packed NUL-separated names.
func encodeTags(tags []casc.Tag) []byte {
	buf := make([]byte, 8, 8+len(tags)*16)
	binary.LittleEndian.PutUint64(buf, uint64(len(tags)))
	for _, t := range tags {
		desc := make([]byte, 16)
		binary.LittleEndian.PutUint32(desc[8:], uint32(len(t.Name)))
		binary.LittleEndian.PutUint32(desc[12:], t.Value)
		buf = append(buf, desc...)
	}
	for _, t := range tags {
		buf = append(buf, t.Name...)
		buf = append(buf, 0)
	}
	return buf
}
