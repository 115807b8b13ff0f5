package mmlu

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestTablePath(t *testing.T) {
	got, err := TablePath("data/mmlu", "astronomy", PartitionTest)
	if err != nil {
		t.Fatalf("TablePath: %v", err)
	}
	want := filepath.Join("data/mmlu", "astronomy_test.csv")
	if got != want {
		t.Fatalf("TablePath: got %q want %q", got, want)
	}

	if _, err := TablePath("data/mmlu", "astronomy", "train"); err == nil {
		t.Fatal("TablePath: expected error for unknown partition")
	}
	if _, err := TablePath("", "astronomy", PartitionDev); err == nil {
		t.Fatal("TablePath: expected error for empty data dir")
	}
	if _, err := TablePath("data/mmlu", "", PartitionDev); err == nil {
		t.Fatal("TablePath: expected error for empty topic")
	}
}

func TestTopics(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"astronomy_dev.csv",
		"astronomy_test.csv",
		"virology_test.csv",
		"virology_val.csv",
		"notes.txt",
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("Q,a,b,c,d,A\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", f, err)
		}
	}

	topics, err := Topics(dir)
	if err != nil {
		t.Fatalf("Topics: %v", err)
	}
	want := []string{"astronomy", "virology"}
	if !reflect.DeepEqual(topics, want) {
		t.Fatalf("Topics: got %v want %v", topics, want)
	}
}

func TestLoadPartition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "astronomy_dev.csv")
	if err := os.WriteFile(path, []byte("Q1,A1,A2,A3,A4,B\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rows, err := LoadPartition(dir, "astronomy", PartitionDev)
	if err != nil {
		t.Fatalf("LoadPartition: %v", err)
	}
	if len(rows) != 1 || rows[0].Answer != "B" {
		t.Fatalf("rows: got %+v", rows)
	}
}
