// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package archivefs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/bureau-foundation/crf/lib/crf"
)

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted.
	Mountpoint string

	// Container supplies the entries to expose.
	Container *crf.Container

	// AllowOther permits other users (including root) to access
	// the mount. Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Logger receives diagnostic messages. If nil, a no-op logger
	// is used.
	Logger *slog.Logger
}

// Mount mounts the archive at the configured mountpoint. The caller
// must call Unmount on the returned Server when done. The mountpoint
// directory is created if it does not exist.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Container == nil {
		return nil, fmt.Errorf("container is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	entries := options.Container.Entries()
	aliasTree, skipped := buildTree(entries)
	for _, skip := range skipped {
		options.Logger.Warn("alias not mounted",
			"alias", skip.Alias,
			"reason", skip.Reason,
		)
	}

	root := &rootNode{
		options: &options,
		aliases: aliasTree,
		entries: entries,
	}

	// Archive content never changes under a mount, so the kernel may
	// cache entries and attributes for as long as it likes.
	entryTimeout := time.Hour
	attrTimeout := time.Hour
	negativeTimeout := time.Hour

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     options.Container.Path(),
			Name:       "crf",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("archive mounted",
		"archive", options.Container.Path(),
		"mountpoint", options.Mountpoint,
		"entries", len(entries),
	)
	return server, nil
}

// rootNode is the filesystem root. It has two children: "alias" and "id".
type rootNode struct {
	gofuse.Inode
	options *Options
	aliases *directory
	entries []*crf.Entry
}

var _ gofuse.InodeEmbedder = (*rootNode)(nil)
var _ gofuse.NodeOnAdder = (*rootNode)(nil)
var _ gofuse.NodeGetattrer = (*rootNode)(nil)

func (r *rootNode) OnAdd(ctx context.Context) {
	aliasDirectory := r.NewPersistentInode(ctx, &directoryNode{}, gofuse.StableAttr{Mode: syscall.S_IFDIR})
	r.AddChild("alias", aliasDirectory, true)
	r.populate(ctx, aliasDirectory, r.aliases)

	idDirectory := r.NewPersistentInode(ctx, &directoryNode{}, gofuse.StableAttr{Mode: syscall.S_IFDIR})
	r.AddChild("id", idDirectory, true)
	for _, entry := range r.entries {
		contentID, err := entry.ContentID()
		if err != nil {
			r.options.Logger.Error("content id unavailable, entry not mounted under id/",
				"source", entry.Source(),
				"error", err,
			)
			continue
		}
		idDirectory.AddChild(contentID, r.newFileInode(ctx, entry), true)
	}
}

func (r *rootNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | 0o555
	return 0
}

// populate materializes dir under parent.
func (r *rootNode) populate(ctx context.Context, parent *gofuse.Inode, dir *directory) {
	for _, name := range dir.names() {
		if child, ok := dir.directories[name]; ok {
			inode := parent.NewPersistentInode(ctx, &directoryNode{}, gofuse.StableAttr{Mode: syscall.S_IFDIR})
			parent.AddChild(name, inode, true)
			r.populate(ctx, inode, child)
			continue
		}
		parent.AddChild(name, r.newFileInode(ctx, dir.files[name]), true)
	}
}

// newFileInode returns a fresh inode for entry. An entry with several
// aliases gets one inode per alias; the kernel page cache is keyed by
// inode, which costs a duplicate cached copy but keeps every inode
// a tree node with one parent.
func (r *rootNode) newFileInode(ctx context.Context, entry *crf.Entry) *gofuse.Inode {
	return r.NewPersistentInode(ctx, &entryNode{options: r.options, entry: entry}, gofuse.StableAttr{Mode: syscall.S_IFREG})
}

// directoryNode is an intermediate directory. Its children are all
// added when the mount starts, so the default lookup and readdir on
// gofuse.Inode serve it.
type directoryNode struct {
	gofuse.Inode
}

var _ gofuse.NodeGetattrer = (*directoryNode)(nil)

func (d *directoryNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | 0o555
	return 0
}

// entryNode is one archive entry as a read-only regular file.
type entryNode struct {
	gofuse.Inode
	options *Options
	entry   *crf.Entry
}

var _ gofuse.InodeEmbedder = (*entryNode)(nil)
var _ gofuse.NodeGetattrer = (*entryNode)(nil)
var _ gofuse.NodeOpener = (*entryNode)(nil)

func (e *entryNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	length, err := e.entry.Length()
	if err != nil {
		e.options.Logger.Error("measuring entry failed",
			"source", e.entry.Source(),
			"error", err,
		)
		return syscall.EIO
	}
	out.Mode = syscall.S_IFREG | 0o444
	out.Size = uint64(length)
	out.Blocks = (out.Size + 511) / 512
	return 0
}

func (e *entryNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}
	// Entry content is immutable for the life of the mount.
	return &entryHandle{node: e}, fuse.FOPEN_KEEP_CACHE, 0
}

// entryHandle serves reads for one open file. It keeps the decoded
// stream open between reads so sequential access is a single pass.
type entryHandle struct {
	node *entryNode

	mu       sync.Mutex
	reader   io.ReadCloser
	position int64
}

var _ gofuse.FileReader = (*entryHandle)(nil)
var _ gofuse.FileReleaser = (*entryHandle)(nil)

func (h *entryHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	h.mu.Lock()
	defer h.mu.Unlock()

	count, err := h.readAt(dest, off)
	if err != nil {
		h.node.options.Logger.Error("read failed",
			"source", h.node.entry.Source(),
			"offset", off,
			"error", err,
		)
		h.closeReader()
		return nil, syscall.EIO
	}
	return fuse.ReadResultData(dest[:count]), 0
}

// readAt positions the stream at off and fills as much of dest as the
// entry has. Caller holds h.mu.
func (h *entryHandle) readAt(dest []byte, off int64) (int, error) {
	if h.reader == nil || off < h.position {
		h.closeReader()
		reader, err := h.node.entry.Open()
		if err != nil {
			return 0, err
		}
		h.reader = reader
		h.position = 0
	}

	if gap := off - h.position; gap > 0 {
		skipped, err := io.CopyN(io.Discard, h.reader, gap)
		h.position += skipped
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
	}

	count, err := io.ReadFull(h.reader, dest)
	h.position += int64(count)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return count, nil
	}
	return count, err
}

func (h *entryHandle) Release(ctx context.Context) syscall.Errno {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeReader()
	return 0
}

// closeReader drops the open stream. Caller holds h.mu.
func (h *entryHandle) closeReader() {
	if h.reader == nil {
		return
	}
	if err := h.reader.Close(); err != nil {
		h.node.options.Logger.Debug("closing entry stream", "error", err)
	}
	h.reader = nil
	h.position = 0
}
