package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/anrusu/fueldist/core/model"
)

type SourceDef struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	Capacity     float64 `yaml:"capacity"`
	MaxOutput    float64 `yaml:"max_output"`
	InitialStock float64 `yaml:"initial_stock"`
}

func (s SourceDef) ToModel() model.Node {
	return model.Node{ID: s.ID, Name: s.Name, Role: model.RoleSource, Capacity: s.Capacity, MaxOutput: s.MaxOutput, InitialStock: s.InitialStock}
}

type StorageDef struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	Capacity     float64 `yaml:"capacity"`
	MaxInput     float64 `yaml:"max_input"`
	MaxOutput    float64 `yaml:"max_output"`
	InitialStock float64 `yaml:"initial_stock"`
}

func (s StorageDef) ToModel() model.Node {
	return model.Node{ID: s.ID, Name: s.Name, Role: model.RoleStorage, Capacity: s.Capacity, MaxInput: s.MaxInput, MaxOutput: s.MaxOutput, InitialStock: s.InitialStock}
}

type CustomerDef struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	MaxInput float64 `yaml:"max_input"`
}

func (c CustomerDef) ToModel() model.Node {
	return model.Node{ID: c.ID, Name: c.Name, Role: model.RoleCustomer, MaxInput: c.MaxInput}
}

type ConnectionDef struct {
	ID          string  `yaml:"id"`
	From        string  `yaml:"from"`
	To          string  `yaml:"to"`
	Distance    float64 `yaml:"distance"`
	LeadTime    int     `yaml:"lead_time_days"`
	Type        string  `yaml:"type"`
	MaxCapacity float64 `yaml:"max_capacity"`
}

func (c ConnectionDef) ToModel() model.Edge {
	return model.Edge{ID: c.ID, From: c.From, To: c.To, Distance: c.Distance, LeadTime: c.LeadTime, Mode: model.TransportMode(c.Type), MaxCapacity: c.MaxCapacity}
}

// DemandDef schedules one request. Day is the round whose response reveals
// the request.
type DemandDef struct {
	Day        int     `yaml:"day"`
	CustomerID string  `yaml:"customer_id"`
	Amount     float64 `yaml:"amount"`
	StartDay   int     `yaml:"start_day"`
	EndDay     int     `yaml:"end_day"`
}

func (d DemandDef) ToModel() model.DemandRequest {
	return model.DemandRequest{CustomerID: d.CustomerID, Amount: d.Amount, PostDay: d.Day, StartDay: d.StartDay, EndDay: d.EndDay}
}

type Expected struct {
	Fulfilled int `yaml:"fulfilled"`
	Pending   int `yaml:"pending"`
	Missed    int `yaml:"missed"`
}

type Scenario struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Policy      string          `yaml:"policy,omitempty"`
	Expiry      string          `yaml:"expiry,omitempty"`
	Sources     []SourceDef     `yaml:"sources"`
	Storages    []StorageDef    `yaml:"storages"`
	Customers   []CustomerDef   `yaml:"customers"`
	Connections []ConnectionDef `yaml:"connections"`
	Demands     []DemandDef     `yaml:"demands"`
	Expected    Expected        `yaml:"expected"`
}

// Nodes returns all node definitions as model nodes.
func (s *Scenario) Nodes() []model.Node {
	var nodes []model.Node
	for _, d := range s.Sources {
		nodes = append(nodes, d.ToModel())
	}
	for _, d := range s.Storages {
		nodes = append(nodes, d.ToModel())
	}
	for _, d := range s.Customers {
		nodes = append(nodes, d.ToModel())
	}
	return nodes
}

// Edges returns all connection definitions as model edges.
func (s *Scenario) Edges() []model.Edge {
	var edges []model.Edge
	for _, d := range s.Connections {
		edges = append(edges, d.ToModel())
	}
	return edges
}

// Schedule groups the demand definitions by reveal day.
func (s *Scenario) Schedule() map[int][]model.DemandRequest {
	sched := make(map[int][]model.DemandRequest)
	for _, d := range s.Demands {
		sched[d.Day] = append(sched[d.Day], d.ToModel())
	}
	return sched
}

// Load reads a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
