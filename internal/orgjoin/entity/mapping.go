package entity

// UnknownOrgName is written for every scan row whose org id has no mapping.
const UnknownOrgName = "Unknown"

// MappingTable maps a trimmed org id to its trimmed display name.
type MappingTable map[string]string

// Resolve returns the display name for id, or UnknownOrgName.
func (m MappingTable) Resolve(id string) (string, bool) {
	name, ok := m[id]
	if !ok {
		return UnknownOrgName, false
	}
	return name, true
}
