package roundapi

import (
	"github.com/anrusu/fueldist/core/model"
	"github.com/anrusu/fueldist/core/sim"
)

// MovementEntry is the wire form of a scheduled movement.
type MovementEntry struct {
	ConnectionID string  `json:"connectionId"`
	Amount       float64 `json:"amount"`
}

// DemandEntry is the wire form of a revealed demand request.
type DemandEntry struct {
	CustomerID string  `json:"customerId"`
	Amount     float64 `json:"amount"`
	PostDay    int     `json:"postDay"`
	StartDay   int     `json:"startDay"`
	EndDay     int     `json:"endDay"`
}

// RoundRequest is the body submitted to the play endpoint.
type RoundRequest struct {
	Day       int             `json:"day"`
	Movements []MovementEntry `json:"movements"`
}

// RoundResponse is the body returned by the play endpoint.
type RoundResponse struct {
	Demand    []DemandEntry `json:"demand"`
	DeltaKPIs sim.KPIs      `json:"deltaKpis"`
	TotalKPIs sim.KPIs      `json:"totalKpis"`
}

func toWireMovements(movements []model.Movement) []MovementEntry {
	out := make([]MovementEntry, 0, len(movements))
	for _, m := range movements {
		out = append(out, MovementEntry{ConnectionID: m.EdgeID, Amount: m.Amount})
	}
	return out
}

func fromWireDemand(entries []DemandEntry) []model.DemandRequest {
	out := make([]model.DemandRequest, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.DemandRequest{
			CustomerID: e.CustomerID,
			Amount:     e.Amount,
			PostDay:    e.PostDay,
			StartDay:   e.StartDay,
			EndDay:     e.EndDay,
		})
	}
	return out
}
