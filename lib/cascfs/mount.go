// Copyright 2026 The Casckit Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux || darwin

package cascfs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/hydra1983/casckit/lib/casc"
	"github.com/hydra1983/casckit/lib/pathtree"
)

// Options configures the FUSE mount.
type Options struct {
	// AllowOther permits other users (including root) to access the
	// mount. Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Debug enables FUSE protocol tracing on stderr.
	Debug bool

	// Logger receives diagnostic messages. If nil, errors go to a
	// stderr text handler.
	Logger *slog.Logger
}

// Server is a running mount. The storage passed to [Mount] must stay
// open until the server is unmounted.
type Server struct {
	server     *fuse.Server
	mountpoint string
	logger     *slog.Logger
}

// Wait blocks until the filesystem is unmounted, either by [Server.Unmount]
// or externally (umount, fusermount -u).
func (s *Server) Wait() {
	s.server.Wait()
}

// Unmount detaches the filesystem.
func (s *Server) Unmount() error {
	if err := s.server.Unmount(); err != nil {
		return fmt.Errorf("unmounting %s: %w", s.mountpoint, err)
	}
	s.logger.Info("storage unmounted", "mountpoint", s.mountpoint)
	return nil
}

// Mount exposes the listing's file tree at mountpoint, reading content
// from the open storage. The mountpoint directory is created if it
// does not exist. The caller must Unmount the returned Server when
// done.
func Mount(mountpoint string, st *casc.Storage, listing *casc.Listing, opts Options) (*Server, error) {
	if mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if st == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if listing == nil {
		return nil, fmt.Errorf("listing is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	// Ensure the mountpoint exists.
	if err := os.MkdirAll(mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", mountpoint, err)
	}

	tree := pathtree.Build(listing.Entries)
	dirs, files := pathtree.CountNodes(tree)

	root := &rootNode{
		fs: &filesystem{
			storage:   st,
			logger:    opts.Logger,
			mountTime: time.Now(),
		},
		tree: tree,
	}

	entryTimeout := 1 * time.Second
	attrTimeout := 1 * time.Second
	negativeTimeout := 100 * time.Millisecond

	server, err := gofuse.Mount(mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "casckit",
			Name:       "casckit",
			AllowOther: opts.AllowOther,
			Debug:      opts.Debug,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting storage at %s: %w", mountpoint, err)
	}

	opts.Logger.Info("storage mounted",
		"mountpoint", mountpoint,
		"directories", dirs,
		"files", files)
	return &Server{server: server, mountpoint: mountpoint, logger: opts.Logger}, nil
}

// filesystem carries the state every node shares.
type filesystem struct {
	storage   *casc.Storage
	logger    *slog.Logger
	mountTime time.Time
}

// rootNode is the filesystem root. It materializes the whole listing
// tree as persistent inodes when the mount is added.
type rootNode struct {
	gofuse.Inode
	fs   *filesystem
	tree *pathtree.Node
}

var _ gofuse.InodeEmbedder = (*rootNode)(nil)
var _ gofuse.NodeOnAdder = (*rootNode)(nil)
var _ gofuse.NodeGetattrer = (*rootNode)(nil)

func (r *rootNode) OnAdd(ctx context.Context) {
	r.addChildren(ctx, &r.Inode, r.tree)
}

func (r *rootNode) addChildren(ctx context.Context, parent *gofuse.Inode, node *pathtree.Node) {
	for _, child := range node.Children {
		if child.IsDir {
			inode := parent.NewPersistentInode(ctx, &dirNode{fs: r.fs},
				gofuse.StableAttr{Mode: syscall.S_IFDIR})
			parent.AddChild(child.Name, inode, true)
			r.addChildren(ctx, inode, child)
			continue
		}
		inode := parent.NewPersistentInode(ctx, &fileNode{fs: r.fs, entry: child.Entry},
			gofuse.StableAttr{Mode: syscall.S_IFREG})
		parent.AddChild(child.Name, inode, true)
	}
}

func (r *rootNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | 0o555
	out.SetTimes(nil, &r.fs.mountTime, nil)
	return 0
}

// dirNode is a synthesized directory. Children are attached at mount
// time, so lookups and readdir are served by the inode tree itself.
type dirNode struct {
	gofuse.Inode
	fs *filesystem
}

var _ gofuse.InodeEmbedder = (*dirNode)(nil)
var _ gofuse.NodeGetattrer = (*dirNode)(nil)

func (d *dirNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | 0o555
	out.SetTimes(nil, &d.fs.mountTime, nil)
	return 0
}

// fileNode represents a single storage file. Each Open creates an
// independent engine handle so concurrent readers do not share a file
// position.
type fileNode struct {
	gofuse.Inode
	fs    *filesystem
	entry casc.FileEntry
}

var _ gofuse.InodeEmbedder = (*fileNode)(nil)
var _ gofuse.NodeGetattrer = (*fileNode)(nil)
var _ gofuse.NodeOpener = (*fileNode)(nil)

func (f *fileNode) Getattr(ctx context.Context, fh gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFREG | 0o444
	out.Size = f.entry.Size
	out.Blocks = (out.Size + 511) / 512
	out.SetTimes(nil, &f.fs.mountTime, nil)
	return 0
}

func (f *fileNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	// Reject anything that isn't a read.
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}

	file, err := f.fs.storage.OpenEntry(f.entry)
	if err != nil {
		f.fs.logger.Error("opening storage file",
			"name", f.entry.Name,
			"error", err)
		return nil, 0, syscall.EIO
	}

	// Enable kernel page cache. Storage content is immutable while
	// mounted, so the cache is always valid.
	return &fileHandle{file: file, name: f.entry.Name, logger: f.fs.logger}, fuse.FOPEN_KEEP_CACHE, 0
}
