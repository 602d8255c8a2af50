package simulation

// appendUnique appends entry to list unless it is already present.
func appendUnique(list []*physicalEntry, entry *physicalEntry) []*physicalEntry {
	if containsEntry(list, entry) {
		return list
	}
	return append(list, entry)
}

// containsEntry reports whether entry is present in list.
func containsEntry(list []*physicalEntry, entry *physicalEntry) bool {
	for _, e := range list {
		if e == entry {
			return true
		}
	}
	return false
}

// removeEntry returns list with entry removed, preserving order of the rest.
func removeEntry(list []*physicalEntry, entry *physicalEntry) []*physicalEntry {
	for i, e := range list {
		if e == entry {
			kept := make([]*physicalEntry, 0, len(list)-1)
			kept = append(kept, list[:i]...)
			kept = append(kept, list[i+1:]...)
			return kept
		}
	}
	return list
}
