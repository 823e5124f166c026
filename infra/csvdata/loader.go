package csvdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/anrusu/fueldist/core/model"
)

// Config names the semicolon-delimited table files, resolved against Dir.
type Config struct {
	Dir         string `json:"dir"`
	Sources     string `json:"sources"`
	Storages    string `json:"storages"`
	Customers   string `json:"customers"`
	Connections string `json:"connections"`
	Teams       string `json:"teams"`
}

// SetDefaults applies the conventional file names.
func (c *Config) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "data"
	}
	if c.Sources == "" {
		c.Sources = "refineries.csv"
	}
	if c.Storages == "" {
		c.Storages = "tanks.csv"
	}
	if c.Customers == "" {
		c.Customers = "customers.csv"
	}
	if c.Connections == "" {
		c.Connections = "connections.csv"
	}
	if c.Teams == "" {
		c.Teams = "teams.csv"
	}
}

// Team is a resource-team record. It is loaded for completeness but unused
// by the scheduler core.
type Team struct {
	ID   string
	Name string
}

// Tables holds the five immutable tables loaded at run start.
type Tables struct {
	Nodes []model.Node
	Edges []model.Edge
	Teams []Team
}

// Load reads all tables. The teams file is optional; everything else is
// mandatory.
func Load(cfg Config) (*Tables, error) {
	cfg.SetDefaults()
	t := &Tables{}

	sources, err := loadNodes(filepath.Join(cfg.Dir, cfg.Sources), sourceHeader, parseSource)
	if err != nil {
		return nil, fmt.Errorf("sources: %w", err)
	}
	storages, err := loadNodes(filepath.Join(cfg.Dir, cfg.Storages), storageHeader, parseStorage)
	if err != nil {
		return nil, fmt.Errorf("storages: %w", err)
	}
	customers, err := loadNodes(filepath.Join(cfg.Dir, cfg.Customers), customerHeader, parseCustomer)
	if err != nil {
		return nil, fmt.Errorf("customers: %w", err)
	}
	t.Nodes = append(t.Nodes, sources...)
	t.Nodes = append(t.Nodes, storages...)
	t.Nodes = append(t.Nodes, customers...)

	t.Edges, err = loadEdges(filepath.Join(cfg.Dir, cfg.Connections))
	if err != nil {
		return nil, fmt.Errorf("connections: %w", err)
	}

	t.Teams, err = loadTeams(filepath.Join(cfg.Dir, cfg.Teams))
	if err != nil {
		return nil, fmt.Errorf("teams: %w", err)
	}
	return t, nil
}

var (
	sourceHeader     = []string{"id", "name", "capacity", "max_output", "production", "overflow_penalty", "underflow_penalty", "over_output_penalty", "production_cost", "production_co2", "initial_stock", "node_type"}
	storageHeader    = []string{"id", "name", "capacity", "max_input", "max_output", "overflow_penalty", "underflow_penalty", "over_input_penalty", "over_output_penalty", "initial_stock", "node_type"}
	customerHeader   = []string{"id", "name", "max_input", "over_input_penalty", "late_delivery_penalty", "early_delivery_penalty", "node_type"}
	connectionHeader = []string{"id", "from_id", "to_id", "distance", "lead_time_days", "connection_type", "max_capacity"}
)

func readTable(path string, expected []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("%s: missing header row", path)
	}
	if !headerMatches(records[0], expected) {
		return nil, fmt.Errorf("%s: header mismatch, expected %v got %v", path, expected, records[0])
	}
	for i, rec := range records[1:] {
		if len(rec) != len(expected) {
			return nil, fmt.Errorf("%s row %d: expected %d columns, got %d", path, i+2, len(expected), len(rec))
		}
	}
	return records[1:], nil
}

func headerMatches(got, expected []string) bool {
	if len(got) != len(expected) {
		return false
	}
	for i := range got {
		if got[i] != expected[i] {
			return false
		}
	}
	return true
}

func loadNodes(path string, header []string, parse func([]string) (model.Node, error)) ([]model.Node, error) {
	rows, err := readTable(path, header)
	if err != nil {
		return nil, err
	}
	nodes := make([]model.Node, 0, len(rows))
	for i, row := range rows {
		n, err := parse(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func parseSource(row []string) (model.Node, error) {
	f, err := floats(row, 2, 10)
	if err != nil {
		return model.Node{}, err
	}
	return model.Node{
		ID: row[0], Name: row[1], Role: model.RoleSource,
		Capacity: f[0], MaxOutput: f[1], Production: f[2],
		OverflowPenalty: f[3], UnderflowPenalty: f[4], OverOutputPenalty: f[5],
		ProductionCost: f[6], ProductionCO2: f[7], InitialStock: f[8],
	}, nil
}

func parseStorage(row []string) (model.Node, error) {
	f, err := floats(row, 2, 9)
	if err != nil {
		return model.Node{}, err
	}
	return model.Node{
		ID: row[0], Name: row[1], Role: model.RoleStorage,
		Capacity: f[0], MaxInput: f[1], MaxOutput: f[2],
		OverflowPenalty: f[3], UnderflowPenalty: f[4],
		OverInputPenalty: f[5], OverOutputPenalty: f[6], InitialStock: f[7],
	}, nil
}

func parseCustomer(row []string) (model.Node, error) {
	f, err := floats(row, 2, 4)
	if err != nil {
		return model.Node{}, err
	}
	return model.Node{
		ID: row[0], Name: row[1], Role: model.RoleCustomer,
		MaxInput: f[0], OverInputPenalty: f[1],
		LateDeliveryPenalty: f[2], EarlyDeliveryPenalty: f[3],
	}, nil
}

func loadEdges(path string) ([]model.Edge, error) {
	rows, err := readTable(path, connectionHeader)
	if err != nil {
		return nil, err
	}
	edges := make([]model.Edge, 0, len(rows))
	for i, row := range rows {
		dist, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: distance: %w", path, i+2, err)
		}
		lead, err := strconv.Atoi(row[4])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: lead_time_days: %w", path, i+2, err)
		}
		capacity, err := strconv.ParseFloat(row[6], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: max_capacity: %w", path, i+2, err)
		}
		edges = append(edges, model.Edge{
			ID: row[0], From: row[1], To: row[2],
			Distance: dist, LeadTime: lead,
			Mode: model.TransportMode(row[5]), MaxCapacity: capacity,
		})
	}
	return edges, nil
}

// loadTeams is lenient: the file is optional and only the leading id and
// name columns are read.
func loadTeams(path string) ([]Team, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var teams []Team
	for i, rec := range records {
		if i == 0 || len(rec) == 0 {
			continue
		}
		t := Team{ID: rec[0]}
		if len(rec) > 1 {
			t.Name = rec[1]
		}
		teams = append(teams, t)
	}
	return teams, nil
}

func floats(row []string, start, count int) ([]float64, error) {
	out := make([]float64, count)
	for i := 0; i < count; i++ {
		v, err := strconv.ParseFloat(row[start+i], 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", start+i+1, err)
		}
		out[i] = v
	}
	return out, nil
}
