package domain

import (
	"bytes"
	"encoding/json"
)

// PortalRef is the ticket's reference to a portal. Write payloads carry
// the bare id; read responses carry the populated portal object.
type PortalRef struct {
	ID   string
	Name string
}

type portalObject struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

func (p PortalRef) IsZero() bool {
	return p.ID == ""
}

func (p PortalRef) MarshalJSON() ([]byte, error) {
	if p.Name == "" {
		return json.Marshal(p.ID)
	}
	return json.Marshal(portalObject{ID: p.ID, Name: p.Name})
}

func (p *PortalRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = PortalRef{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*p = PortalRef{ID: id}
		return nil
	}

	var obj portalObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*p = PortalRef{ID: obj.ID, Name: obj.Name}
	return nil
}
