package ledger

import (
	"strconv"
	"strings"
)

// IDPrefix is prepended to the serial to form a record's display ID.
const IDPrefix = "STU-"

// Record is one student entry.
type Record struct {
	Serial     int    `json:"serial" yaml:"serial"`
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Topic      string `json:"topic" yaml:"topic"`
	OwnerID    string `json:"owner_id" yaml:"owner_id"`
	Referenced bool   `json:"referenced" yaml:"referenced"`
	CreatedAt  int64  `json:"created_at" yaml:"created_at"`
}

// Key returns the value used to address the record on update and delete.
func (r Record) Key() int64 {
	return r.CreatedAt
}

// OwnedBy reports whether identity is the record's owner.
func (r Record) OwnedBy(identity string) bool {
	return identity != "" && r.OwnerID == identity
}

// Fields are the caller-supplied values for a new record.
type Fields struct {
	Name  string
	Topic string
}

// normalize trims both fields and reports the names of the empty ones.
func (f Fields) normalize() (Fields, []string) {
	out := Fields{
		Name:  strings.TrimSpace(f.Name),
		Topic: strings.TrimSpace(f.Topic),
	}
	var missing []string
	if out.Name == "" {
		missing = append(missing, "name")
	}
	if out.Topic == "" {
		missing = append(missing, "topic")
	}
	return out, missing
}

// Patch holds the editable fields of a record. A nil field is left unchanged.
// Serial and ID are fixed at creation and cannot be patched.
type Patch struct {
	Name  *string
	Topic *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Topic == nil
}

// normalize trims the supplied fields and reports the names of those that
// are empty after trimming.
func (p Patch) normalize() (Patch, []string) {
	var out Patch
	var missing []string
	if p.Name != nil {
		v := strings.TrimSpace(*p.Name)
		if v == "" {
			missing = append(missing, "name")
		}
		out.Name = &v
	}
	if p.Topic != nil {
		v := strings.TrimSpace(*p.Topic)
		if v == "" {
			missing = append(missing, "topic")
		}
		out.Topic = &v
	}
	return out, missing
}

func (p Patch) applyTo(r *Record) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Topic != nil {
		r.Topic = *p.Topic
	}
}

func formatID(serial int) string {
	return IDPrefix + strconv.Itoa(serial)
}
