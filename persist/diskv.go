package persist

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/peterbourgon/diskv/v3"

	"github.com/phanxgames/canopy"
)

// DefaultDir is where the disk backend keeps boards unless told otherwise.
const DefaultDir = "~/.canopy"

const (
	keySep       = "~"
	blocksFolder = "blocks"
	metaFolder   = "meta"
	orderFile    = "order"
)

// Disk stores each block as a JSON file under <base>/<board>/blocks/ and the
// z-order under <base>/<board>/meta/order.
type Disk struct {
	d        *diskv.Diskv
	basePath string
}

// NewDisk opens a disk backend rooted at dir. A leading ~ is expanded to the
// user's home directory; an empty dir means DefaultDir.
func NewDisk(dir string) (*Disk, error) {
	if dir == "" {
		dir = DefaultDir
	}
	base, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("persist: expand %q: %w", dir, err)
	}
	base = filepath.Clean(base)
	return &Disk{
		d: diskv.New(diskv.Options{
			BasePath:          base,
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			CacheSizeMax:      1024 * 1024, // 1MB
		}),
		basePath: base,
	}, nil
}

// BasePath returns the expanded storage directory.
func (p *Disk) BasePath() string { return p.basePath }

func (p *Disk) Load(ctx context.Context, board string) ([]canopy.Block, error) {
	if err := ValidateBoard(board); err != nil {
		return nil, err
	}
	order, err := p.readOrder(board)
	if err != nil {
		return nil, err
	}
	found := order != nil

	blocks := make(map[canopy.BlockID]canopy.Block)
	prefix := strings.Join([]string{board, blocksFolder, ""}, keySep)
	// Cancelling on return stops diskv's walker if we bail out early.
	walk, cancel := context.WithCancel(ctx)
	defer cancel()
	for key := range p.d.KeysPrefix(prefix, walk.Done()) {
		found = true
		val, err := p.d.Read(key)
		if err != nil {
			return nil, fmt.Errorf("persist: read %s: %w", key, err)
		}
		var b canopy.Block
		if err := json.Unmarshal(val, &b); err != nil {
			return nil, fmt.Errorf("persist: decode %s: %w", key, err)
		}
		blocks[b.ID] = b
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return arrange(blocks, order), nil
}

func (p *Disk) Put(_ context.Context, board string, b canopy.Block) error {
	if err := ValidateBoard(board); err != nil {
		return err
	}
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return p.d.Write(blockKey(board, b.ID), data)
}

func (p *Disk) Delete(_ context.Context, board string, ids ...canopy.BlockID) error {
	if err := ValidateBoard(board); err != nil {
		return err
	}
	for _, id := range ids {
		if err := p.d.Erase(blockKey(board, id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (p *Disk) SaveOrder(_ context.Context, board string, order []canopy.BlockID) error {
	if err := ValidateBoard(board); err != nil {
		return err
	}
	if order == nil {
		order = []canopy.BlockID{}
	}
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return p.d.Write(orderKey(board), data)
}

func (p *Disk) Boards(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	for key := range p.d.Keys(ctx.Done()) {
		pk := keyToPathTransform(key)
		if len(pk.Path) > 0 {
			seen[pk.Path[0]] = true
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Close is a no-op; diskv holds no open handles between calls.
func (p *Disk) Close() error { return nil }

func (p *Disk) readOrder(board string) ([]canopy.BlockID, error) {
	val, err := p.d.Read(orderKey(board))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	order := []canopy.BlockID{}
	if err := json.Unmarshal(val, &order); err != nil {
		return nil, fmt.Errorf("persist: decode order for %s: %w", board, err)
	}
	return order, nil
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, keySep)
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return strings.Join(append(append([]string(nil), pathKey.Path...), pathKey.FileName), keySep)
}

// blockKey makes `board~blocks~<id>`. Ids are encoded so any string is a
// safe file name.
func blockKey(board string, id canopy.BlockID) string {
	return strings.Join([]string{board, blocksFolder, base64.RawURLEncoding.EncodeToString([]byte(id))}, keySep)
}

func orderKey(board string) string {
	return strings.Join([]string{board, metaFolder, orderFile}, keySep)
}
