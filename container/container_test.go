package container

import (
	"os"
	"path/filepath"
	"testing"
)

func TestContainerPutGetRoundtrip(t *testing.T) {
	c := Create(filepath.Join(t.TempDir(), "run.gcntr"))
	if err := c.PutDataset("dsk/solid", []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := c.PutDataset("dsk/histogram", []byte{4, 5}); err != nil {
		t.Fatal(err)
	}
	got, err := c.GetDataset("dsk/solid")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "\x01\x02\x03" {
		t.Errorf("got %v", got)
	}
	if !c.HasDataset("dsk/histogram") {
		t.Error("expected dsk/histogram to exist")
	}
	names := c.Names()
	if len(names) != 2 || names[0] != "dsk/histogram" || names[1] != "dsk/solid" {
		t.Errorf("Names() = %v", names)
	}
}

func TestContainerFlushAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.gcntr")
	c := Create(path)
	c.PutDataset("dsk/solid", []byte("hello"))
	cfg := Configuration{KmerSize: 31, MinimizerSize: 15, Passes: 1, Partitions: 4, AbundanceMin: 2, SolidityKind: "one"}
	if err := c.PutConfiguration(cfg); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected container file on disk: %s", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := reopened.GetDataset("dsk/solid")
	if err != nil || string(got) != "hello" {
		t.Fatalf("got %q, err %v", got, err)
	}
	gotCfg, err := reopened.GetConfiguration()
	if err != nil {
		t.Fatal(err)
	}
	if gotCfg.KmerSize != 31 || gotCfg.Partitions != 4 {
		t.Errorf("got %+v", gotCfg)
	}
}

func TestContainerGetMissingDataset(t *testing.T) {
	c := Create(filepath.Join(t.TempDir(), "run.gcntr"))
	if _, err := c.GetDataset("nope"); err == nil {
		t.Fatal("expected error for missing dataset")
	}
}

func TestContainerDetectsCorruptedDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.gcntr")
	c := Create(path)
	c.PutDataset("dsk/solid", []byte("hello"))
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for i, b := range raw {
		if b == 'h' {
			raw[i] = 'H'
			break
		}
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path); err == nil {
		t.Fatal("expected checksum mismatch error")
	}
}
