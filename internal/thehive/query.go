package thehive

// Query is a node of TheHive search DSL.
type Query map[string]any

func Eq(field string, value any) Query {
	return Query{"_field": field, "_value": value}
}

// EndsWith matches string fields with the given suffix.
func EndsWith(field, suffix string) Query {
	return Query{"_wildcard": Query{"_field": field, "_value": "*" + suffix}}
}

// And matches when every non-empty criterion matches.
func And(criteria ...Query) Query {
	kept := make([]Query, 0, len(criteria))
	for _, c := range criteria {
		if len(c) == 0 {
			continue
		}
		kept = append(kept, c)
	}
	return Query{"_and": kept}
}

// ParentCase restricts a search to children of the given case.
func ParentCase(caseID string) Query {
	return Query{"_parent": Query{"_type": "case", "_query": Query{"_id": caseID}}}
}
