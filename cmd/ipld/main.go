package main

import (
	"os"

	_ "github.com/distribution/ipld/codec/dagcbor"
	_ "github.com/distribution/ipld/codec/dagjson"
	_ "github.com/distribution/ipld/storage/badger"
	_ "github.com/distribution/ipld/storage/blockstore"
	_ "github.com/distribution/ipld/storage/cache/memory"
	_ "github.com/distribution/ipld/storage/cache/redis"
	_ "github.com/distribution/ipld/storage/inmemory"
)

func main() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
