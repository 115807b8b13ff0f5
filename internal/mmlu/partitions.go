package mmlu

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Benchmark partitions. Dev holds the worked few-shot examples, val is for
// tuning, test is scored.
const (
	PartitionDev  = "dev"
	PartitionVal  = "val"
	PartitionTest = "test"
)

func validPartition(p string) bool {
	switch p {
	case PartitionDev, PartitionVal, PartitionTest:
		return true
	}
	return false
}

// TablePath resolves the CSV file for a topic partition, e.g.
// data/mmlu/astronomy_test.csv.
func TablePath(dataDir, topic, partition string) (string, error) {
	dataDir = strings.TrimSpace(dataDir)
	topic = strings.TrimSpace(topic)
	partition = strings.ToLower(strings.TrimSpace(partition))
	if dataDir == "" {
		return "", errors.New("mmlu: empty data dir")
	}
	if topic == "" {
		return "", errors.New("mmlu: empty topic")
	}
	if !validPartition(partition) {
		return "", fmt.Errorf("mmlu: unknown partition %q (expected dev|val|test)", partition)
	}
	return filepath.Join(dataDir, topic+"_"+partition+".csv"), nil
}

// LoadPartition loads one topic partition as a table.
func LoadPartition(dataDir, topic, partition string) ([]Row, error) {
	path, err := TablePath(dataDir, topic, partition)
	if err != nil {
		return nil, err
	}
	return LoadTable(path)
}

// Topics lists the topics available under dataDir, identified by their
// *_test.csv files, sorted by name.
func Topics(dataDir string) ([]string, error) {
	dataDir = strings.TrimSpace(dataDir)
	if dataDir == "" {
		return nil, errors.New("mmlu: empty data dir")
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("mmlu: read data dir %q: %w", dataDir, err)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if topic, ok := strings.CutSuffix(name, "_"+PartitionTest+".csv"); ok && topic != "" {
			out = append(out, topic)
		}
	}
	sort.Strings(out)
	return out, nil
}
