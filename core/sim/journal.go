package sim

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/anrusu/fueldist/core/model"
)

// Record captures one played round.
type Record struct {
	Timestamp time.Time             `json:"timestamp"`
	Day       int                   `json:"day"`
	Movements []model.Movement      `json:"movements"`
	Fulfilled int                   `json:"fulfilled"`
	NewDemand []model.DemandRequest `json:"new_demand"`
	DeltaKPIs KPIs                  `json:"delta_kpis"`
	TotalKPIs KPIs                  `json:"total_kpis"`
}

// RecordQuery filters journal records by day range. Zero values mean
// unbounded.
type RecordQuery struct {
	FromDay int
	ToDay   int
}

// Journal persists round records in a JSONL file, one record per line.
type Journal struct {
	path string
	mu   sync.Mutex
}

// NewJournal creates the file if needed and returns the journal.
func NewJournal(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &Journal{path: path}, nil
}

// Append writes one record.
func (j *Journal) Append(ctx context.Context, rec Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	enc := json.NewEncoder(f)
	return enc.Encode(rec)
}

// Query returns the records matching the day range, skipping lines that do
// not parse.
func (j *Journal) Query(ctx context.Context, q RecordQuery) ([]Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	f, err := os.Open(j.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var res []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			continue
		}
		if q.FromDay != 0 && r.Day < q.FromDay {
			continue
		}
		if q.ToDay != 0 && r.Day > q.ToDay {
			continue
		}
		res = append(res, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close is part of the store contract; the journal holds no open handle.
func (j *Journal) Close() error { return nil }
