// Inspect opens a pagedb database file and prints file manager and
// buffer pool statistics, the way cmd/inspect_idx's single-purpose index
// dump does for one B+ tree index file in the donor repo — generalized
// here to the whole engine instead of one index. A "demo" subcommand
// drives table creation, inserts, a scan and an index lookup end-to-end,
// the Go equivalent of original_source/examples/database_demo.cpp, since
// the query engine that demo drove through SQL text is out of scope here.
//
// Usage:
//
//	go run ./cmd/inspect <path-to-db-file>
//	go run ./cmd/inspect demo <path-to-db-file>
package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"pagedb/engine"
	"pagedb/storage/page"
	"pagedb/storage/value"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	if os.Args[1] == "demo" {
		if len(os.Args) < 3 {
			usage()
		}
		runDemo(os.Args[2])
		return
	}

	inspect(os.Args[1])
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <database-file>\n       %s demo <database-file>\n", os.Args[0], os.Args[0])
	os.Exit(1)
}

func inspect(path string) {
	eng, err := engine.Open(path, engine.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	fm := eng.FileManager()
	pageCount := fm.PageCount()
	fmt.Printf("file:        %s\n", path)
	fmt.Printf("page count:  %d (%s)\n", pageCount, humanize.Bytes(pageCount*page.Size))
	fmt.Printf("free list:   %d pages\n", fm.FreeListLen())

	stats := eng.Pool().Stats()
	fmt.Printf("buffer pool: capacity=%d resident=%d pinned=%d dirty=%d eviction-write-failures=%d\n",
		stats.Capacity, stats.Resident, stats.Pinned, stats.Dirty, stats.EvictionWriteFailures)
}

func runDemo(path string) {
	os.Remove(path)

	eng, err := engine.Open(path, engine.Options{CacheCapacity: 50})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	schema := value.NewSchema(
		value.ColumnDef{Name: "id", Kind: value.KindInteger},
		value.ColumnDef{Name: "name", Kind: value.KindVarchar, Size: 20},
		value.ColumnDef{Name: "active", Kind: value.KindBoolean},
	)

	fmt.Println("=== Table Operations Demo ===")
	tbl, err := eng.CreateTable("users", schema)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create table: %v\n", err)
		os.Exit(1)
	}

	rows := [][]value.Value{
		{value.NewInt(1), value.NewVarchar("Alice"), value.NewBool(true)},
		{value.NewInt(2), value.NewVarchar("Bob"), value.NewBool(false)},
		{value.NewInt(3), value.NewVarchar("Charlie"), value.NewBool(true)},
	}

	ix, err := eng.CreateIndex("users_id")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create index: %v\n", err)
		os.Exit(1)
	}

	for _, row := range rows {
		rid, err := tbl.Insert(row)
		if err != nil {
			fmt.Fprintf(os.Stderr, "insert: %v\n", err)
			os.Exit(1)
		}
		key := int64(row[0].Int)
		if err := ix.Insert(key, rid); err != nil {
			fmt.Fprintf(os.Stderr, "index insert: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("inserted %v -> rid=%s\n", row, rid)
	}

	fmt.Println("\nScanning users...")
	cur := tbl.Scan()
	defer cur.Close()
	for cur.Next() {
		values, err := cur.Values()
		if err != nil {
			fmt.Fprintf(os.Stderr, "scan: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("rid=%s row=%v\n", cur.RID(), values)
	}

	fmt.Println("\n=== Index Operations Demo ===")
	for _, key := range []int64{1, 2, 3, 100} {
		rid, ok, err := ix.Lookup(key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lookup: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Printf("key %d not found\n", key)
			continue
		}
		fmt.Printf("key %d -> rid=%s\n", key, rid)
	}
}
