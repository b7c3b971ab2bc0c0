// Package model defines the records exchanged by the assistant, its
// persistence layer and the HTTP API.
package model

import (
	"encoding/json"
)

// LatestPeriod is the time period sentinel meaning "no period given".
const LatestPeriod = "latest"

// EntityBag is the structured extraction of a user utterance.
//
// Every field is always present when serialized: absent lists encode as []
// and an absent industry encodes as null.
type EntityBag struct {
	Companies  []string `json:"companies"`
	Metrics    []string `json:"metrics"`
	TimePeriod string   `json:"time_period"`
	StartDate  []string `json:"startDate"`
	EndDate    []string `json:"endDate"`
	Industry   string   `json:"industry"`
	Limit      []string `json:"limit"`
}

// NewEntityBag returns an empty bag with every container allocated.
func NewEntityBag() EntityBag {
	return EntityBag{
		Companies:  []string{},
		Metrics:    []string{},
		TimePeriod: LatestPeriod,
		StartDate:  []string{},
		EndDate:    []string{},
		Limit:      []string{},
	}
}

// Clone returns a deep copy of the bag.
func (e EntityBag) Clone() EntityBag {
	return EntityBag{
		Companies:  cloneStrings(e.Companies),
		Metrics:    cloneStrings(e.Metrics),
		TimePeriod: e.TimePeriod,
		StartDate:  cloneStrings(e.StartDate),
		EndDate:    cloneStrings(e.EndDate),
		Industry:   e.Industry,
		Limit:      cloneStrings(e.Limit),
	}
}

// HasPeriod reports whether the bag carries a concrete time period.
func (e EntityBag) HasPeriod() bool {
	return e.TimePeriod != "" && e.TimePeriod != LatestPeriod
}

type entityBagJSON struct {
	Companies  []string `json:"companies"`
	Metrics    []string `json:"metrics"`
	TimePeriod string   `json:"time_period"`
	StartDate  []string `json:"startDate"`
	EndDate    []string `json:"endDate"`
	Industry   *string  `json:"industry"`
	Limit      []string `json:"limit"`
}

// MarshalJSON emits the complete bag shape.
func (e EntityBag) MarshalJSON() ([]byte, error) {
	out := entityBagJSON{
		Companies:  cloneStrings(e.Companies),
		Metrics:    cloneStrings(e.Metrics),
		TimePeriod: e.TimePeriod,
		StartDate:  cloneStrings(e.StartDate),
		EndDate:    cloneStrings(e.EndDate),
		Limit:      cloneStrings(e.Limit),
	}
	if out.TimePeriod == "" {
		out.TimePeriod = LatestPeriod
	}
	if e.Industry != "" {
		industry := e.Industry
		out.Industry = &industry
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a bag, allocating any container missing from the input.
func (e *EntityBag) UnmarshalJSON(data []byte) error {
	var in entityBagJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*e = NewEntityBag()
	e.Companies = cloneStrings(in.Companies)
	e.Metrics = cloneStrings(in.Metrics)
	e.StartDate = cloneStrings(in.StartDate)
	e.EndDate = cloneStrings(in.EndDate)
	e.Limit = cloneStrings(in.Limit)
	if in.TimePeriod != "" {
		e.TimePeriod = in.TimePeriod
	}
	if in.Industry != nil {
		e.Industry = *in.Industry
	}
	return nil
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
