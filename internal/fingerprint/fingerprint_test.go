package fingerprint

import "testing"

func TestHashBytesConsistency(t *testing.T) {
	a := HashBytes([]byte("EXEC dbo.GetOrder @id = @p1"))
	b := HashBytes([]byte("EXEC dbo.GetOrder @id = @p1"))
	if a != b {
		t.Errorf("identical input produced different hashes: %s != %s", a, b)
	}
	if len(a) != hashLen {
		t.Errorf("expected a %d-character hash, got %d: %s", hashLen, len(a), a)
	}
}

func TestHashBytesDiffers(t *testing.T) {
	a := HashBytes([]byte("dbo.GetOrder"))
	b := HashBytes([]byte("dbo.GetOrders"))
	if a == b {
		t.Errorf("different input produced the same hash: %s", a)
	}
}

func TestHashJSON(t *testing.T) {
	type row struct {
		Name string
		Type string
	}

	hash1, err := HashJSON(row{Name: "id", Type: "int"})
	if err != nil {
		t.Fatalf("HashJSON failed: %v", err)
	}
	hash2, err := HashJSON(row{Name: "id", Type: "int"})
	if err != nil {
		t.Fatalf("HashJSON failed: %v", err)
	}
	if hash1 != hash2 {
		t.Errorf("identical objects produced different hashes: %s != %s", hash1, hash2)
	}

	hash3, err := HashJSON(row{Name: "name", Type: "nvarchar"})
	if err != nil {
		t.Fatalf("HashJSON failed: %v", err)
	}
	if hash1 == hash3 {
		t.Errorf("different objects produced the same hash: %s", hash1)
	}
}

func TestIndexFingerprintOrderIndependent(t *testing.T) {
	a := IndexFingerprint([]string{"aaaa1111", "bbbb2222", "cccc3333"})
	b := IndexFingerprint([]string{"cccc3333", "aaaa1111", "bbbb2222"})
	if a != b {
		t.Errorf("index fingerprint should not depend on artifact-hash order: %s != %s", a, b)
	}

	c := IndexFingerprint([]string{"aaaa1111", "bbbb2222"})
	if a == c {
		t.Errorf("removing an artifact hash should change the index fingerprint")
	}
}
