package engine

import (
	"math"
	"testing"

	"github.com/stupidcoderJung/arctic-embedding-v1/vector"
)

func TestRegisterVectorFunctionsAndUse(t *testing.T) {
	// Register globally before first connection so functions are available.
	if err := RegisterVectorFunctions(); err != nil {
		t.Fatalf("RegisterVectorFunctions failed: %v", err)
	}
	if err := RegisterVectorFunctions(); err != nil {
		t.Fatalf("second RegisterVectorFunctions failed: %v", err)
	}
	db, err := Open(Memory)
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()

	a := vector.EncodeEmbedding([]float32{1, 0})
	b := vector.EncodeEmbedding([]float32{0, 1})

	var d float64
	if err := db.QueryRow(`SELECT vec_cosine(?, ?)`, a, b).Scan(&d); err != nil {
		t.Fatalf("vec_cosine(a,b) query failed: %v", err)
	}
	if math.Abs(d-1) > 1e-6 {
		t.Fatalf("vec_cosine(a,b) = %v, want 1", d)
	}

	if err := db.QueryRow(`SELECT vec_cosine(?, ?)`, a, a).Scan(&d); err != nil {
		t.Fatalf("vec_cosine(a,a) query failed: %v", err)
	}
	if math.Abs(d) > 1e-6 {
		t.Fatalf("vec_cosine(a,a) = %v, want 0", d)
	}

	zero := vector.EncodeEmbedding([]float32{0, 0})
	threeFour := vector.EncodeEmbedding([]float32{3, 4})
	if err := db.QueryRow(`SELECT vec_l2(?, ?)`, zero, threeFour).Scan(&d); err != nil {
		t.Fatalf("vec_l2 query failed: %v", err)
	}
	if math.Abs(d-5) > 1e-5 {
		t.Fatalf("vec_l2 = %v, want 5", d)
	}

	if err := db.QueryRow(`SELECT vec_dot(?, ?)`, threeFour, threeFour).Scan(&d); err != nil {
		t.Fatalf("vec_dot query failed: %v", err)
	}
	if d != -25 {
		t.Fatalf("vec_dot = %v, want -25", d)
	}
}

// TestOrderByVecL2 validates that vec_l2 can rank rows in an ORDER BY clause
// over embeddings stored as BLOBs.
func TestOrderByVecL2(t *testing.T) {
	if err := RegisterVectorFunctions(); err != nil {
		t.Fatalf("RegisterVectorFunctions: %v", err)
	}
	db, err := Open(Memory)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE docs(id TEXT PRIMARY KEY, embedding BLOB)`); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO docs(id, embedding) VALUES ('d1', ?), ('d2', ?)`,
		vector.EncodeEmbedding([]float32{0, 1}), vector.EncodeEmbedding([]float32{1, 0})); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	rows, err := db.Query(`SELECT id FROM docs ORDER BY vec_l2(embedding, ?) ASC`, vector.EncodeEmbedding([]float32{1, 0}))
	if err != nil {
		t.Fatalf("ORDER BY vec_l2 query failed: %v", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows.Err: %v", err)
	}
	if len(ids) != 2 || ids[0] != "d2" || ids[1] != "d1" {
		t.Fatalf("ORDER BY vec_l2 ids = %v, want [d2 d1]", ids)
	}
}
