package input

import (
	"encoding/json"
	"errors"
	"fmt"

	"chk.szuro.net/internal/autochecks"
)

var ErrIncompleteRecord = errors.New("discovery record needs host and check_type")

// Record is one line of the discovery feed:
//
//	{"host": "web01", "check_type": "df", "item": "/var", "params": {"inodes": true}}
//
// A missing or null item denotes a service without item.
type Record struct {
	Host      string  `json:"host"`
	CheckType string  `json:"check_type"`
	Item      *string `json:"item"`
	Params    any     `json:"params"`
}

func (r Record) Service() autochecks.Service {
	return autochecks.Service{CheckType: r.CheckType, Item: r.Item, Params: r.Params}
}

func parseRecord(line []byte) (r Record, err error) {
	if err = json.Unmarshal(line, &r); err != nil {
		return r, err
	}
	if r.Host == "" || r.CheckType == "" {
		return r, fmt.Errorf("%w: %s", ErrIncompleteRecord, line)
	}
	return r, nil
}
