// Package vecdb is an embedded vector database on SQLite.
//
// A DB holds named tables of records, each with a fixed dimension and
// distance metric. Rows live in a per-table storage table; kNN search runs
// over an in-memory index that is persisted in vec_index and rebuilt when a
// write bumps the table version.
//
// Example:
//
//	db, _ := vecdb.Connect(ctx, "./data")
//	tbl, _ := db.CreateTable(ctx, "docs", records, vecdb.WithMode(vecdb.ModeOverwrite))
//	hits, _ := tbl.Search(ctx, query, 5)
package vecdb
