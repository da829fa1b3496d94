package models

import "encoding/json"

// IDSet is an insertion-ordered set of account IDs.
type IDSet []string

// Add inserts id if absent and reports whether the set changed.
func (s *IDSet) Add(id string) bool {
	if s.Contains(id) {
		return false
	}
	*s = append(*s, id)
	return true
}

// Remove deletes id if present and reports whether the set changed.
func (s *IDSet) Remove(id string) bool {
	for i, v := range *s {
		if v == id {
			*s = append((*s)[:i:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether id is a member of the set.
func (s IDSet) Contains(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Len returns the number of members.
func (s IDSet) Len() int {
	return len(s)
}

// MarshalJSON encodes a nil set as an empty array.
func (s IDSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}
