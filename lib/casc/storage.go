// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

package casc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ErrClosed is returned by operations on a closed [Storage] or
// [File].
var ErrClosed = errors.New("storage is closed")

// readChunkSize is the buffer size [Storage.ReadAll] drains files
// with.
const readChunkSize = 1 << 20

// Option configures a [Storage] handle.
type Option func(*Storage)

// WithLogger sets the logger for storage operations. The default is
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Storage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocale restricts file opens to entries matching the mask.
// The default is [LocaleAll].
func WithLocale(mask Locale) Option {
	return func(s *Storage) {
		s.locale = mask
	}
}

// Storage is an open CASC storage. It owns the engine handle: Close
// releases it, and Close is idempotent. All operations on a closed
// storage return [ErrClosed].
type Storage struct {
	eng    Engine
	h      StorageHandle
	path   string
	locale Locale
	logger *slog.Logger
	closed bool
}

// Open opens the storage at path. The path is a local directory
// containing the storage, with an optional ":product" suffix for
// multi-product installations.
func Open(eng Engine, path string, opts ...Option) (*Storage, error) {
	if eng == nil {
		return nil, errors.New("opening storage: nil engine")
	}
	if path == "" {
		return nil, errors.New("opening storage: empty path")
	}

	s := &Storage{
		eng:    eng,
		path:   path,
		locale: LocaleAll,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	h, ok := eng.OpenStorage(path)
	if !ok || !validHandle(uintptr(h)) {
		return nil, fmt.Errorf("opening storage %q: %w", path, engineErr(eng, "open storage"))
	}
	s.h = h

	s.logger.Debug("storage opened", "path", path, "locale", s.locale)
	return s, nil
}

// Path returns the path the storage was opened with.
func (s *Storage) Path() string {
	return s.path
}

// Close releases the storage handle. The second and later calls are
// no-ops returning nil.
func (s *Storage) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.eng.CloseStorage(s.h) {
		return fmt.Errorf("closing storage %q: %w", s.path, engineErr(s.eng, "close storage"))
	}
	return nil
}

// queryInfo runs the engine's two-phase variable-length query: a nil
// probe call for the required size, then a fill call with a buffer of
// exactly that size. The effective result is the lesser of the buffer
// size and the length the fill call reports.
func (s *Storage) queryInfo(class InfoClass) ([]byte, error) {
	op := fmt.Sprintf("query storage info class %d", class)

	needed, ok := s.eng.StorageInfo(s.h, class, nil)
	if ok {
		// The probe call must fail with ERROR_INSUFFICIENT_BUFFER; an
		// engine answering a nil buffer with success is out of
		// protocol, but a zero-size answer still decodes to zeros.
		if needed <= 0 {
			return nil, nil
		}
	} else if code := s.eng.LastError(); code != ErrorInsufficientBuf {
		return nil, &EngineError{Op: op, Code: code}
	}
	if needed <= 0 {
		return nil, fmt.Errorf("%s: engine reported size %d", op, needed)
	}

	buf := make([]byte, needed)
	written, ok := s.eng.StorageInfo(s.h, class, buf)
	if !ok {
		return nil, engineErr(s.eng, op)
	}
	if written < len(buf) {
		buf = buf[:written]
	}
	return buf, nil
}

// Info returns the raw decoded info buffer for the class. Most
// callers want the typed accessors ([Storage.Product],
// [Storage.Tags], ...) instead.
func (s *Storage) Info(class InfoClass) ([]byte, error) {
	if s.closed {
		return nil, ErrClosed
	}
	return s.queryInfo(class)
}

// LocalFileCount returns the number of files present locally.
func (s *Storage) LocalFileCount() (uint32, error) {
	buf, err := s.Info(InfoLocalFileCount)
	if err != nil {
		return 0, err
	}
	return decodeUint32Info(buf), nil
}

// TotalFileCount returns the number of files the storage knows about.
func (s *Storage) TotalFileCount() (uint32, error) {
	buf, err := s.Info(InfoTotalFileCount)
	if err != nil {
		return 0, err
	}
	return decodeUint32Info(buf), nil
}

// Features returns the storage's feature bitmask.
func (s *Storage) Features() (Features, error) {
	buf, err := s.Info(InfoFeatures)
	if err != nil {
		return 0, err
	}
	return Features(decodeUint32Info(buf)), nil
}

// Product returns the storage's product code and build number.
func (s *Storage) Product() (Product, error) {
	buf, err := s.Info(InfoProduct)
	if err != nil {
		return Product{}, err
	}
	return decodeProduct(buf), nil
}

// BuildNumber returns the storage's build number. CASC storages bump
// the build exactly when content changes, which makes the number a
// usable staleness check for cached listings.
func (s *Storage) BuildNumber() (uint32, error) {
	product, err := s.Product()
	if err != nil {
		return 0, err
	}
	return product.Build, nil
}

// Tags returns the storage's tag table.
func (s *Storage) Tags() ([]Tag, error) {
	buf, err := s.Info(InfoTags)
	if err != nil {
		return nil, err
	}
	return decodeTags(buf), nil
}

// PathProduct returns the storage path with the product code
// appended.
func (s *Storage) PathProduct() (string, error) {
	buf, err := s.Info(InfoPathProduct)
	if err != nil {
		return "", err
	}
	return decodeString(buf), nil
}

// File is an open file within a storage. It implements [io.Reader],
// [io.Seeker], and [io.Closer]. Reads are sequential from the
// engine's file position; a File must not be shared across goroutines
// without external serialization.
type File struct {
	eng    Engine
	h      FileHandle
	name   string
	closed bool
}

// OpenFile opens a file by its storage path, restricted to the
// storage's locale mask.
func (s *Storage) OpenFile(name string) (*File, error) {
	return s.openFile(name, 0)
}

// OpenFileByCKey opens a file by its content key rendered as hex.
func (s *Storage) OpenFileByCKey(ckey Key) (*File, error) {
	if ckey.IsZero() {
		return nil, errors.New("opening file: zero content key")
	}
	return s.openFile(ckey.String(), OpenFlagNameIsCKey)
}

// OpenEntry opens an enumerated entry the way its name was produced:
// content-key names go through the key lookup, everything else by
// name.
func (s *Storage) OpenEntry(entry FileEntry) (*File, error) {
	if entry.NameType == NameCKey && !entry.CKey.IsZero() {
		return s.OpenFileByCKey(entry.CKey)
	}
	return s.OpenFile(entry.Name)
}

func (s *Storage) openFile(name string, flags uint32) (*File, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if name == "" {
		return nil, errors.New("opening file: empty name")
	}

	h, ok := s.eng.OpenFile(s.h, name, uint32(s.locale), flags)
	if !ok || !validHandle(uintptr(h)) {
		return nil, fmt.Errorf("opening file %q: %w", name, engineErr(s.eng, "open file"))
	}
	return &File{eng: s.eng, h: h, name: name}, nil
}

// Name returns the storage path the file was opened with.
func (f *File) Name() string {
	return f.name
}

// Size returns the file's content size in bytes.
func (f *File) Size() (uint64, error) {
	if f.closed {
		return 0, ErrClosed
	}
	size, ok := f.eng.GetFileSize(f.h)
	if !ok {
		return 0, fmt.Errorf("sizing file %q: %w", f.name, engineErr(f.eng, "get file size"))
	}
	return size, nil
}

// Read implements io.Reader. The engine reports end of file either as
// a zero-byte success or as an EOF-class error; both map to io.EOF.
func (f *File) Read(p []byte) (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, ok := f.eng.ReadFile(f.h, p)
	if !ok {
		code := f.eng.LastError()
		if code.IsEOF() {
			return n, io.EOF
		}
		return n, fmt.Errorf("reading file %q: %w", f.name, &EngineError{Op: "read file", Code: code})
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Seek implements io.Seeker.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, ErrClosed
	}
	pos, ok := f.eng.SetFilePointer(f.h, offset, whence)
	if !ok {
		return 0, fmt.Errorf("seeking file %q: %w", f.name, engineErr(f.eng, "set file pointer"))
	}
	return int64(pos), nil
}

// ContentKey queries the file's content key from the engine.
func (f *File) ContentKey() (Key, error) {
	return f.queryKey(FileInfoContentKey, "content")
}

// EncodedKey queries the file's encoded key from the engine.
func (f *File) EncodedKey() (Key, error) {
	return f.queryKey(FileInfoEncodedKey, "encoded")
}

func (f *File) queryKey(class FileInfoClass, kind string) (Key, error) {
	if f.closed {
		return Key{}, ErrClosed
	}
	op := fmt.Sprintf("query %s key", kind)

	needed, ok := f.eng.FileInfo(f.h, class, nil)
	if !ok {
		if code := f.eng.LastError(); code != ErrorInsufficientBuf {
			return Key{}, fmt.Errorf("file %q: %w", f.name, &EngineError{Op: op, Code: code})
		}
	}
	if needed <= 0 {
		return Key{}, fmt.Errorf("file %q: %s: engine reported size %d", f.name, op, needed)
	}

	buf := make([]byte, needed)
	written, ok := f.eng.FileInfo(f.h, class, buf)
	if !ok {
		return Key{}, fmt.Errorf("file %q: %w", f.name, engineErr(f.eng, op))
	}

	var k Key
	copy(k[:], buf[:min(written, len(buf))])
	return k, nil
}

// Close releases the file handle. Idempotent.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if !f.eng.CloseFile(f.h) {
		return fmt.Errorf("closing file %q: %w", f.name, engineErr(f.eng, "close file"))
	}
	return nil
}

// ReadAll reads the entire content of the named file. The file is
// drained in bounded chunks against a remaining-byte counter from the
// engine's size query; a short read is an error. A close failure is
// reported only when the read itself succeeded.
func (s *Storage) ReadAll(name string) ([]byte, error) {
	f, err := s.OpenFile(name)
	if err != nil {
		return nil, err
	}

	data, readErr := readFull(f)
	closeErr := f.Close()
	if readErr != nil {
		return nil, readErr
	}
	if closeErr != nil {
		return nil, closeErr
	}
	return data, nil
}

func readFull(f *File) ([]byte, error) {
	size, err := f.Size()
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, size)
	buf := make([]byte, readChunkSize)
	remaining := size
	for remaining > 0 {
		want := uint64(len(buf))
		if remaining < want {
			want = remaining
		}
		n, err := f.Read(buf[:want])
		if n > 0 {
			data = append(data, buf[:n]...)
			remaining -= uint64(n)
		}
		if err == io.EOF || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if remaining != 0 {
		return nil, fmt.Errorf("reading file %q: truncated at %d of %d bytes", f.name, size-remaining, size)
	}
	return data, nil
}

// Finder iterates the files matching one search mask, in the shape of
// bufio.Scanner:
//
//	fnd := st.NewFinder("*.blp", "")
//	defer fnd.Close()
//	for fnd.Scan() {
//		entry := fnd.Entry()
//		// ...
//	}
//	if err := fnd.Err(); err != nil {
//		// ...
//	}
//
// One record buffer is reused for the whole iteration; [Finder.Entry]
// returns the decoded copy of the current record, valid until the
// next Scan.
type Finder struct {
	st       *Storage
	mask     string
	listFile string

	rec     []byte
	fh      FindHandle
	entry   FileEntry
	started bool
	done    bool
	closed  bool
	err     error
}

// NewFinder starts a find iteration over the storage for mask. An
// empty mask matches everything. listFile optionally names an
// external listfile supplying file names.
func (s *Storage) NewFinder(mask, listFile string) *Finder {
	if mask == "" {
		mask = "*"
	}
	return &Finder{
		st:       s,
		mask:     mask,
		listFile: listFile,
		rec:      make([]byte, FindRecordSize),
	}
}

// Scan advances to the next file, returning false at the end of the
// iteration or on error. After Scan returns false, [Finder.Err]
// distinguishes exhaustion (nil) from a fault.
func (f *Finder) Scan() bool {
	if f.done || f.closed || f.err != nil {
		return false
	}
	if f.st.closed {
		f.err = ErrClosed
		f.done = true
		return false
	}

	eng := f.st.eng
	if !f.started {
		f.started = true
		// Clear any stale last-error value so an empty result is
		// distinguishable from a previous unrelated failure.
		eng.SetLastError(Success)
		fh, ok := eng.FindFirst(f.st.h, f.mask, f.listFile, f.rec)
		if !ok || !validHandle(uintptr(fh)) {
			f.done = true
			if code := eng.LastError(); !code.IsNoMatch() {
				f.err = &EngineError{Op: "find first", Code: code}
			}
			return false
		}
		f.fh = fh
	} else {
		if !eng.FindNext(f.fh, f.rec) {
			f.done = true
			if code := eng.LastError(); !code.IsNoMatch() {
				f.err = &EngineError{Op: "find next", Code: code}
			}
			return false
		}
	}

	entry, err := DecodeFileEntry(f.rec)
	if err != nil {
		f.err = fmt.Errorf("decoding find record for mask %q: %w", f.mask, err)
		f.done = true
		return false
	}
	f.entry = entry
	return true
}

// Entry returns the current file entry. Valid after a Scan that
// returned true, until the next Scan.
func (f *Finder) Entry() FileEntry {
	return f.entry
}

// Err returns the first fault encountered. Exhaustion is not a
// fault.
func (f *Finder) Err() error {
	return f.err
}

// Close releases the find handle. The first call closes; later calls
// return nil. A close failure is reported only when the iteration
// itself ended cleanly; when unwinding from an iteration fault the
// close error never masks it.
func (f *Finder) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if !f.started || !validHandle(uintptr(f.fh)) {
		return nil
	}
	if !f.st.eng.FindClose(f.fh) {
		closeErr := engineErr(f.st.eng, "find close")
		if f.err != nil {
			f.st.logger.Debug("find close failed while unwinding", "mask", f.mask, "error", closeErr)
			return nil
		}
		return closeErr
	}
	return nil
}
