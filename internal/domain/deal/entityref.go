package deal

// EntityMode states whether an entity is newly entered or an existing record
type EntityMode string

const (
	EntityModeNew      EntityMode = "new"
	EntityModeExisting EntityMode = "existing"
)

// EntityReference resolves a Company or Customer to either a new entry
// (full fields, created server-side on submission) or an existing registry
// record (referenced by id). Exactly one of the two modes holds at any time.
type EntityReference struct {
	Mode   EntityMode        `json:"mode"`
	ID     string            `json:"id,omitempty"`
	Fields map[string]string `json:"fields"`
}

// NewEntityReference returns a reference in new-entry mode with empty fields
func NewEntityReference() EntityReference {
	return EntityReference{
		Mode:   EntityModeNew,
		Fields: map[string]string{},
	}
}

// SelectExisting switches the reference to an existing record, fully
// overwriting any previously held fields with the hydrated ones.
func (r *EntityReference) SelectExisting(id string, fields map[string]string) {
	r.Mode = EntityModeExisting
	r.ID = id
	r.Fields = map[string]string{}
	for k, v := range fields {
		r.Fields[k] = v
	}
}

// ClearToNew resets the reference to new-entry mode, discarding the id and
// all hydrated values. The user re-enters the entity manually.
func (r *EntityReference) ClearToNew() {
	r.Mode = EntityModeNew
	r.ID = ""
	r.Fields = map[string]string{}
}

// IsExisting reports whether an existing record is selected
func (r *EntityReference) IsExisting() bool {
	return r.Mode == EntityModeExisting
}

// Field returns a hydrated or entered field value, or "" when absent
func (r *EntityReference) Field(key string) string {
	return r.Fields[key]
}
