/*
Package colakv implements a persistent, append-oriented indexed store
built on a Cache-Oblivious Lookahead Array (COLA): a fixed number of
geometrically-sized levels in a single file, with inserts batched into the
smallest level and amortized cascading merges into larger ones.

# Usage

	opts := colakv.DefaultOptions()
	c, err := colakv.Open("index.cola", opts)
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	if err := c.Add(colakv.Item{Key: []byte("a"), Opt: colakv.Put, Offset: 10, VLen: 1}); err != nil {
		log.Fatal(err)
	}

	res, err := c.Get([]byte("a"))
	if err != nil {
		log.Fatal(err)
	}
	if res.Status == colakv.Found {
		fmt.Println(res.Offset, res.VLen)
	}

# Concurrency

A COLA handle is NOT safe for concurrent use. It expects a single owner
driving Add/Get/InOne/Rebuild one call at a time; the caller is
responsible for serializing access.

# Crash consistency

There is no write-ahead log and no two-phase merge. Every mutating
operation writes its data, then persists the header last. A crash between
a merge's destination write and its header persist is safe: the reopened
file reflects the pre-merge state, and the partially-written destination
bytes past the old count are simply never read. See DESIGN.md for the
acknowledged vulnerability window this leaves open.
*/
package colakv
