package main

// meryl-lookup answers a single-k-mer query against a database without
// scanning it entirely: Schema.K comes from the database's own index, so
// only the k-mer string and the database path are required.
//
// Usage: meryl-lookup database.meryldb ACGTACGTACG...

import (
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/marbl/meryl-sub000/dbformat"
	"github.com/marbl/meryl-sub000/kmer"
)

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: meryl-lookup database.meryldb kmer")
		os.Exit(1)
	}
	dir, query := os.Args[1], os.Args[2]
	ctx := vcontext.Background()

	idx, err := dbformat.ReadIndex(ctx, dir)
	if err != nil {
		log.Fatalf("meryl-lookup: %v", err)
	}
	if len(query) != idx.Schema.K {
		log.Fatalf("meryl-lookup: query length %d does not match database mer size %d", len(query), idx.Schema.K)
	}
	fwd, ok := kmer.FromACGT(idx.Schema, query)
	if !ok {
		log.Fatalf("meryl-lookup: %q is not a valid ACGT sequence", query)
	}
	target := fwd.Canonical(idx.Schema)

	value, label, found, err := dbformat.Lookup(ctx, dir, target)
	if err != nil {
		log.Fatalf("meryl-lookup: %v", err)
	}
	if !found {
		fmt.Printf("%s\tabsent\n", query)
		return
	}
	if idx.Schema.LabelWidth > 0 {
		fmt.Printf("%s\t%d\t%d\n", query, value, label)
	} else {
		fmt.Printf("%s\t%d\n", query, value)
	}
}
