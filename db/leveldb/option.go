package leveldb

import (
	"github.com/NethermindEth/statedb/utils"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

type Option = func(*opt.Options)

// WithCacheSize sets the block cache and doubles it for the write buffer.
func WithCacheSize(cacheSizeMB uint) Option {
	return func(o *opt.Options) {
		o.BlockCacheCapacity = int(cacheSizeMB) * utils.Megabyte
		o.WriteBuffer = 2 * int(cacheSizeMB) * utils.Megabyte
	}
}

func WithMaxOpenFiles(maxOpenFiles int) Option {
	return func(o *opt.Options) {
		o.OpenFilesCacheCapacity = maxOpenFiles
	}
}
