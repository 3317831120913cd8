package models

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDList holds eligibility id lists. Documents written by the admin panel may
// store a single id, an array of ObjectIDs or an array of hex strings; all of
// them decode into the same slice.
type IDList []primitive.ObjectID

func (l *IDList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*l = nil
		return nil
	case bsontype.ObjectID:
		var id primitive.ObjectID
		if err := bson.UnmarshalValue(t, data, &id); err != nil {
			return err
		}
		*l = IDList{id}
		return nil
	case bsontype.String:
		var value string
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		ids, err := parseHexIDs([]string{value})
		if err != nil {
			return err
		}
		*l = ids
		return nil
	case bsontype.Array:
		var raw []interface{}
		if err := bson.UnmarshalValue(t, data, &raw); err != nil {
			return err
		}
		out := make(IDList, 0, len(raw))
		for _, v := range raw {
			switch typed := v.(type) {
			case primitive.ObjectID:
				out = append(out, typed)
			case string:
				ids, err := parseHexIDs([]string{typed})
				if err != nil {
					return err
				}
				out = append(out, ids...)
			default:
				return fmt.Errorf("cannot decode %T into IDList", v)
			}
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("cannot decode %s into IDList", t)
	}
}

// MarshalBSONValue always writes an array of ObjectIDs.
func (l IDList) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if l == nil {
		return bson.MarshalValue([]primitive.ObjectID{})
	}
	return bson.MarshalValue([]primitive.ObjectID(l))
}

func (l IDList) Contains(id primitive.ObjectID) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// ParseIDList converts hex strings from request bodies, skipping blanks.
func ParseIDList(values []string) (IDList, error) {
	return parseHexIDs(values)
}

func parseHexIDs(values []string) (IDList, error) {
	out := make(IDList, 0, len(values))
	for _, raw := range values {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(value)
		if err != nil {
			return nil, fmt.Errorf("invalid id: %s", value)
		}
		out = append(out, id)
	}
	return out, nil
}
