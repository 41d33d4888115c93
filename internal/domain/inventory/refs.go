package inventory

import (
	"fmt"

	"github.com/speps/go-hashids/v2"
)

// Refs turns numeric item ids into short opaque references for URLs and
// labels, so sequential ids are not exposed.
type Refs struct {
	h *hashids.HashID
}

func NewRefs(salt string) (*Refs, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = 6

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("inventory refs: %w", err)
	}
	return &Refs{h: h}, nil
}

func (r *Refs) Encode(id int64) string {
	ref, err := r.h.EncodeInt64([]int64{id})
	if err != nil {
		// only negative ids fail to encode
		return ""
	}
	return ref
}

func (r *Refs) Decode(ref string) (int64, error) {
	ids, err := r.h.DecodeInt64WithError(ref)
	if err != nil || len(ids) != 1 {
		return 0, ErrInvalidRef
	}
	return ids[0], nil
}

// Fill sets Ref on every item.
func (r *Refs) Fill(items []Item) {
	for i := range items {
		items[i].Ref = r.Encode(items[i].ID)
	}
}
