package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/trieforge/mpt"
	"github.com/trieforge/mpt/storage"
)

// rootPointerKey is the reserved store key holding the current root.
var rootPointerKey = []byte("mpt:root")

func main() {
	app := cli.NewApp()
	app.Name = "mpt"
	app.Usage = "inspect and mutate a persistent Merkle-Patricia trie"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "db",
			Usage: "path to the LevelDB store",
			Value: "./mpt.db",
		},
		cli.StringFlag{
			Name:  "bolt",
			Usage: "optional BoltDB file mirrored on every write",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "log store activity",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "root",
			Usage:  "print the current root hash",
			Action: cmdRoot,
		},
		{
			Name:      "get",
			Usage:     "print the value stored under a key",
			ArgsUsage: "<key>",
			Action:    cmdGet,
		},
		{
			Name:      "put",
			Usage:     "store a value under a key",
			ArgsUsage: "<key> <value>",
			Action:    cmdPut,
		},
		{
			Name:      "del",
			Usage:     "remove a key",
			ArgsUsage: "<key>",
			Action:    cmdDel,
		},
		{
			Name:   "list",
			Usage:  "stream all key/value pairs",
			Action: cmdList,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openTrie(c *cli.Context) (*mpt.Trie, func(), error) {
	logger := zap.NewNop()
	if c.GlobalBool("verbose") {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, nil, err
		}
	}

	ldb, err := storage.NewLevelDBStore(c.GlobalString("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open leveldb: %w", err)
	}
	backends := []storage.Store{ldb}

	opts := []mpt.StoreOption{mpt.WithStoreLogger(logger)}
	if boltPath := c.GlobalString("bolt"); boltPath != "" {
		bolt, err := storage.NewBoltDBStore(boltPath)
		if err != nil {
			ldb.Close()
			return nil, nil, fmt.Errorf("open boltdb: %w", err)
		}
		backends = append(backends, bolt)
		opts = append(opts, mpt.WithWriteBackends(bolt))
	}

	store := mpt.NewNodeStore(ldb, opts...)
	trie := mpt.New(store, mpt.WithLogger(logger))

	if raw, err := store.GetRaw(rootPointerKey); err != nil {
		return nil, nil, err
	} else if raw != nil {
		if err := trie.SetRoot(raw); err != nil {
			return nil, nil, err
		}
	}

	closer := func() {
		for _, b := range backends {
			b.Close()
		}
	}
	return trie, closer, nil
}

func saveRoot(trie *mpt.Trie) error {
	return trie.PutRaw(rootPointerKey, trie.Root())
}

func cmdRoot(c *cli.Context) error {
	trie, closer, err := openTrie(c)
	if err != nil {
		return err
	}
	defer closer()

	fmt.Printf("%x\n", trie.Root())
	return nil
}

func cmdGet(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: get <key>", 1)
	}
	trie, closer, err := openTrie(c)
	if err != nil {
		return err
	}
	defer closer()

	key, err := parseArg(c.Args().Get(0))
	if err != nil {
		return err
	}
	value, err := trie.Get(key)
	if err != nil {
		return err
	}
	if value == nil {
		return cli.NewExitError("key not found", 1)
	}
	fmt.Printf("%s\n", value)
	return nil
}

func cmdPut(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("usage: put <key> <value>", 1)
	}
	trie, closer, err := openTrie(c)
	if err != nil {
		return err
	}
	defer closer()

	key, err := parseArg(c.Args().Get(0))
	if err != nil {
		return err
	}
	value, err := parseArg(c.Args().Get(1))
	if err != nil {
		return err
	}
	if err := trie.Put(key, value); err != nil {
		return err
	}
	if err := saveRoot(trie); err != nil {
		return err
	}
	fmt.Printf("%x\n", trie.Root())
	return nil
}

func cmdDel(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: del <key>", 1)
	}
	trie, closer, err := openTrie(c)
	if err != nil {
		return err
	}
	defer closer()

	key, err := parseArg(c.Args().Get(0))
	if err != nil {
		return err
	}
	if err := trie.Delete(key); err != nil {
		return err
	}
	if err := saveRoot(trie); err != nil {
		return err
	}
	fmt.Printf("%x\n", trie.Root())
	return nil
}

func cmdList(c *cli.Context) error {
	trie, closer, err := openTrie(c)
	if err != nil {
		return err
	}
	defer closer()

	return trie.Each(func(key []byte, value []byte) bool {
		fmt.Printf("%x\t%s\n", key, value)
		return true
	})
}

// parseArg reads a CLI argument as raw bytes, or hex with an 0x prefix.
func parseArg(arg string) ([]byte, error) {
	if strings.HasPrefix(arg, "0x") {
		b, err := hex.DecodeString(arg[2:])
		if err != nil {
			return nil, fmt.Errorf("invalid hex argument %q: %w", arg, err)
		}
		return b, nil
	}
	return []byte(arg), nil
}
