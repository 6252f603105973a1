package rorder

import (
	"github.com/the-dev-tools/orderedmodel/internal/admin"
	"github.com/the-dev-tools/orderedmodel/pkg/model/mranked"
)

// Record is the wire form of a ranked row. Partition is "" for the global
// partition.
type Record struct {
	ID        string `json:"id"`
	Order     int    `json:"order"`
	Partition string `json:"partition,omitempty"`
	Label     string `json:"label"`
}

func toRecord(rec mranked.Record) Record {
	out := Record{ID: rec.ID.String(), Order: rec.Order, Label: rec.Label}
	if rec.Partition != nil {
		out.Partition = rec.Partition.String()
	}
	return out
}

type OrderListRequest struct {
	Model     string `json:"model"`
	Partition string `json:"partition,omitempty"`
}

type OrderListResponse struct {
	Items []Record `json:"items"`
}

type OrderCreateRequest struct {
	Model     string `json:"model"`
	Partition string `json:"partition,omitempty"`
	Label     string `json:"label"`
}

type OrderCreateResponse struct {
	Item Record `json:"item"`
}

type OrderDeleteRequest struct {
	Model string `json:"model"`
	ID    string `json:"id"`
}

type OrderDeleteResponse struct{}

type OrderMoveRequest struct {
	Model     string `json:"model"`
	ID        string `json:"id"`
	Direction string `json:"direction"`
	ListQuery string `json:"list_query,omitempty"`
}

type OrderMoveToRequest struct {
	Model     string `json:"model"`
	ID        string `json:"id"`
	Position  int    `json:"position"`
	ListQuery string `json:"list_query,omitempty"`
}

type OrderMoveRelativeRequest struct {
	Model     string `json:"model"`
	ID        string `json:"id"`
	TargetID  string `json:"target_id"`
	Position  string `json:"position"`
	ListQuery string `json:"list_query,omitempty"`
}

type OrderSwapRequest struct {
	Model     string   `json:"model"`
	ID        string   `json:"id"`
	OtherIDs  []string `json:"other_ids"`
	ListQuery string   `json:"list_query,omitempty"`
}

// OrderMoveResponse carries the moved record and the listing URL to return to.
type OrderMoveResponse struct {
	Item     Record `json:"item"`
	Redirect string `json:"redirect"`
}

type OrderControlsRequest struct {
	Model     string `json:"model"`
	ID        string `json:"id"`
	ListQuery string `json:"list_query,omitempty"`
	Inline    bool   `json:"inline,omitempty"`
}

type OrderControlsResponse struct {
	Controls admin.Controls `json:"controls"`
}
